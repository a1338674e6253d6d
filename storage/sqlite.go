package storage

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// timeLayout matches the format CURRENT_TIMESTAMP writes, so that range
// queries compare consistently regardless of which side wrote the value.
const timeLayout = "2006-01-02 15:04:05"

type SQLiteStorage struct {
	db       *sql.DB
	dbPath   string
	dataPath string
}

type StorageInterface interface {
	Initialize() error
	CreateWatchlist(name, ownerID string, groupID *int64) (int64, error)
	GetWatchlist(id int64) (*Watchlist, error)
	ListWatchlists(ownerID string) ([]Watchlist, error)
	DeleteWatchlist(id int64) error
	AddWatchlistItem(listID int64, item WatchlistItem) error
	ListWatchlistItems(listID int64) ([]WatchlistItem, error)
	RemoveWatchlistItem(listID int64, titleID int) error
	CreateGroup(name string) (int64, error)
	AddGroupMember(groupID int64, userID string) error
	ListGroupMembers(groupID int64) ([]string, error)
	ListGroupWatchlists(groupID int64) ([]Watchlist, error)
	RecordWatchEvent(ev WatchEvent) (int64, error)
	ListWatchEvents(userID string, since time.Time) ([]WatchEvent, error)
	RecentWatchlistAdditions(since time.Time) ([]WatchlistAddition, error)
	Close() error
}

func NewSQLiteStorage(dataPath string) *SQLiteStorage {
	dbPath := filepath.Join(dataPath, "reel_deck.db")
	return &SQLiteStorage{
		dbPath:   dbPath,
		dataPath: dataPath,
	}
}

func (s *SQLiteStorage) Initialize() error {
	// Create data directory if it doesn't exist
	if err := os.MkdirAll(s.dataPath, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %v", err)
	}

	db, err := sql.Open("sqlite3", s.dbPath+"?_foreign_keys=on")
	if err != nil {
		return fmt.Errorf("failed to open database: %v", err)
	}

	s.db = db

	// Initialize and run migrations using Goose
	migrationManager := NewMigrationManager(s.db)
	if err := migrationManager.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize migrations: %v", err)
	}

	if err := migrationManager.Up(); err != nil {
		return fmt.Errorf("failed to run migrations: %v", err)
	}

	log.Printf("SQLite database initialized at: %s", s.dbPath)
	return nil
}

// --- Watchlists ---

func (s *SQLiteStorage) CreateWatchlist(name, ownerID string, groupID *int64) (int64, error) {
	result, err := s.db.Exec(`
	INSERT INTO watchlists (name, owner_id, group_id, created_at)
	VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	`, name, ownerID, groupID)
	if err != nil {
		return 0, fmt.Errorf("failed to create watchlist: %v", err)
	}
	return result.LastInsertId()
}

func (s *SQLiteStorage) GetWatchlist(id int64) (*Watchlist, error) {
	var list Watchlist
	err := s.db.QueryRow(`
	SELECT id, name, owner_id, group_id, created_at
	FROM watchlists WHERE id = ?
	`, id).Scan(&list.ID, &list.Name, &list.OwnerID, &list.GroupID, &list.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get watchlist: %v", err)
	}
	return &list, nil
}

func (s *SQLiteStorage) ListWatchlists(ownerID string) ([]Watchlist, error) {
	rows, err := s.db.Query(`
	SELECT id, name, owner_id, group_id, created_at
	FROM watchlists
	WHERE owner_id = ?
	ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlists: %v", err)
	}
	defer rows.Close()

	return scanWatchlists(rows)
}

func (s *SQLiteStorage) DeleteWatchlist(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM watchlist_items WHERE list_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete watchlist items: %v", err)
	}
	if _, err := s.db.Exec(`DELETE FROM watchlists WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete watchlist: %v", err)
	}
	return nil
}

// AddWatchlistItem adds a title to a watchlist. Adding a title that is
// already on the list updates it in place instead of duplicating it.
func (s *SQLiteStorage) AddWatchlistItem(listID int64, item WatchlistItem) error {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM watchlist_items WHERE list_id = ? AND title_id = ?)`,
		listID, item.TitleID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check if item exists: %v", err)
	}

	if exists {
		// For existing items, update fields but keep the original added_at
		_, err := s.db.Exec(`
		UPDATE watchlist_items
		SET title = ?, kind = ?, poster_path = ?, note = ?, added_by = ?
		WHERE list_id = ? AND title_id = ?
		`, item.Title, item.Kind, item.PosterPath, item.Note, item.AddedBy, listID, item.TitleID)
		if err != nil {
			return fmt.Errorf("failed to update watchlist item: %v", err)
		}
	} else {
		_, err := s.db.Exec(`
		INSERT INTO watchlist_items (list_id, title_id, title, kind, poster_path, note, added_by, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		`, listID, item.TitleID, item.Title, item.Kind, item.PosterPath, item.Note, item.AddedBy)
		if err != nil {
			return fmt.Errorf("failed to insert watchlist item: %v", err)
		}
	}

	return nil
}

func (s *SQLiteStorage) ListWatchlistItems(listID int64) ([]WatchlistItem, error) {
	rows, err := s.db.Query(`
	SELECT title_id, title, kind, poster_path, note, added_by, added_at
	FROM watchlist_items
	WHERE list_id = ?
	ORDER BY added_at DESC
	`, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist items: %v", err)
	}
	defer rows.Close()

	var items []WatchlistItem
	for rows.Next() {
		var item WatchlistItem
		err := rows.Scan(&item.TitleID, &item.Title, &item.Kind, &item.PosterPath, &item.Note, &item.AddedBy, &item.AddedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watchlist item: %v", err)
		}
		items = append(items, item)
	}

	return items, nil
}

func (s *SQLiteStorage) RemoveWatchlistItem(listID int64, titleID int) error {
	if _, err := s.db.Exec(`DELETE FROM watchlist_items WHERE list_id = ? AND title_id = ?`, listID, titleID); err != nil {
		return fmt.Errorf("failed to remove watchlist item: %v", err)
	}
	return nil
}

// --- Groups ---

func (s *SQLiteStorage) CreateGroup(name string) (int64, error) {
	result, err := s.db.Exec(`INSERT INTO groups (name, created_at) VALUES (?, CURRENT_TIMESTAMP)`, name)
	if err != nil {
		return 0, fmt.Errorf("failed to create group: %v", err)
	}
	return result.LastInsertId()
}

func (s *SQLiteStorage) AddGroupMember(groupID int64, userID string) error {
	_, err := s.db.Exec(`
	INSERT OR IGNORE INTO group_members (group_id, user_id, joined_at)
	VALUES (?, ?, CURRENT_TIMESTAMP)
	`, groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to add group member: %v", err)
	}
	return nil
}

func (s *SQLiteStorage) ListGroupMembers(groupID int64) ([]string, error) {
	rows, err := s.db.Query(`SELECT user_id FROM group_members WHERE group_id = ? ORDER BY joined_at`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query group members: %v", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %v", err)
		}
		members = append(members, userID)
	}

	return members, nil
}

func (s *SQLiteStorage) ListGroupWatchlists(groupID int64) ([]Watchlist, error) {
	rows, err := s.db.Query(`
	SELECT id, name, owner_id, group_id, created_at
	FROM watchlists
	WHERE group_id = ?
	ORDER BY created_at DESC
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query group watchlists: %v", err)
	}
	defer rows.Close()

	return scanWatchlists(rows)
}

// --- Watch events ---

func (s *SQLiteStorage) RecordWatchEvent(ev WatchEvent) (int64, error) {
	watchedAt := ev.WatchedAt
	if watchedAt.IsZero() {
		watchedAt = time.Now().UTC()
	}

	result, err := s.db.Exec(`
	INSERT INTO watch_events (user_id, title_id, title, kind, category, runtime_minutes, watched_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`, ev.UserID, ev.TitleID, ev.Title, ev.Kind, ev.Category, ev.RuntimeMinutes, watchedAt.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to record watch event: %v", err)
	}
	return result.LastInsertId()
}

// ListWatchEvents returns watch events since the given time, newest first.
// An empty userID returns events for all users.
func (s *SQLiteStorage) ListWatchEvents(userID string, since time.Time) ([]WatchEvent, error) {
	rows, err := s.db.Query(`
	SELECT id, user_id, title_id, title, kind, category, runtime_minutes, watched_at
	FROM watch_events
	WHERE (? = '' OR user_id = ?) AND watched_at >= ?
	ORDER BY watched_at DESC
	`, userID, userID, since.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query watch events: %v", err)
	}
	defer rows.Close()

	var events []WatchEvent
	for rows.Next() {
		var ev WatchEvent
		err := rows.Scan(&ev.ID, &ev.UserID, &ev.TitleID, &ev.Title, &ev.Kind, &ev.Category, &ev.RuntimeMinutes, &ev.WatchedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watch event: %v", err)
		}
		events = append(events, ev)
	}

	return events, nil
}

// RecentWatchlistAdditions returns items added to any watchlist since the
// given time, newest first, for the digest email.
func (s *SQLiteStorage) RecentWatchlistAdditions(since time.Time) ([]WatchlistAddition, error) {
	rows, err := s.db.Query(`
	SELECT w.name, i.title_id, i.title, i.kind, i.poster_path, i.note, i.added_by, i.added_at
	FROM watchlist_items i
	JOIN watchlists w ON w.id = i.list_id
	WHERE i.added_at >= ?
	ORDER BY i.added_at DESC
	`, since.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query recent additions: %v", err)
	}
	defer rows.Close()

	var additions []WatchlistAddition
	for rows.Next() {
		var add WatchlistAddition
		err := rows.Scan(&add.ListName, &add.Item.TitleID, &add.Item.Title, &add.Item.Kind,
			&add.Item.PosterPath, &add.Item.Note, &add.Item.AddedBy, &add.Item.AddedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan addition: %v", err)
		}
		additions = append(additions, add)
	}

	return additions, nil
}

func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStorage) GetDB() (*sql.DB, error) {
	if s.db == nil {
		// Open database connection if not already open
		db, err := sql.Open("sqlite3", s.dbPath+"?_foreign_keys=on")
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %v", err)
		}
		s.db = db
	}
	return s.db, nil
}

func (s *SQLiteStorage) GetStats() (map[string]int, error) {
	stats := make(map[string]int)

	counts := []struct {
		key   string
		query string
	}{
		{"watchlists", "SELECT COUNT(*) FROM watchlists"},
		{"items", "SELECT COUNT(*) FROM watchlist_items"},
		{"groups", "SELECT COUNT(*) FROM groups"},
		{"watch_events", "SELECT COUNT(*) FROM watch_events"},
	}

	for _, c := range counts {
		var n int
		if err := s.db.QueryRow(c.query).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to get %s count: %v", c.key, err)
		}
		stats[c.key] = n
	}

	return stats, nil
}

func scanWatchlists(rows *sql.Rows) ([]Watchlist, error) {
	var lists []Watchlist
	for rows.Next() {
		var list Watchlist
		err := rows.Scan(&list.ID, &list.Name, &list.OwnerID, &list.GroupID, &list.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watchlist: %v", err)
		}
		lists = append(lists, list)
	}
	return lists, nil
}

// Migration management methods
func (s *SQLiteStorage) GetMigrationManager() *MigrationManager {
	return NewMigrationManager(s.db)
}

func (s *SQLiteStorage) GetDatabaseVersion() (int64, error) {
	migrationManager := s.GetMigrationManager()
	if err := migrationManager.Initialize(); err != nil {
		return 0, err
	}
	return migrationManager.Version()
}

func (s *SQLiteStorage) RunMigrations() error {
	migrationManager := s.GetMigrationManager()
	if err := migrationManager.Initialize(); err != nil {
		return err
	}
	return migrationManager.Up()
}

func (s *SQLiteStorage) RollbackMigration() error {
	migrationManager := s.GetMigrationManager()
	if err := migrationManager.Initialize(); err != nil {
		return err
	}
	return migrationManager.Down()
}

func (s *SQLiteStorage) ResetDatabase() error {
	migrationManager := s.GetMigrationManager()
	if err := migrationManager.Initialize(); err != nil {
		return err
	}
	return migrationManager.Reset()
}

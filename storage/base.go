package storage

import "time"

// Watchlist is a shared list of titles owned by a user and optionally
// attached to a viewing group.
type Watchlist struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	GroupID   *int64    `json:"group_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// WatchlistItem is one tracked title inside a watchlist.
type WatchlistItem struct {
	TitleID    int       `json:"title_id"`
	Title      string    `json:"title"`
	Kind       string    `json:"kind"` // "film" or "series"
	PosterPath *string   `json:"poster_path,omitempty"`
	Note       *string   `json:"note,omitempty"`
	AddedBy    string    `json:"added_by"`
	AddedAt    time.Time `json:"added_at"`
}

// WatchlistAddition is a watchlist item joined with its list name, used by
// the weekly digest.
type WatchlistAddition struct {
	ListName string        `json:"list_name"`
	Item     WatchlistItem `json:"item"`
}

// Group is a set of users coordinating viewing.
type Group struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// WatchEvent records one completed viewing by a user.
type WatchEvent struct {
	ID             int64     `json:"id"`
	UserID         string    `json:"user_id"`
	TitleID        int       `json:"title_id"`
	Title          string    `json:"title"`
	Kind           string    `json:"kind"`     // "film" or "series"
	Category       string    `json:"category"` // e.g. "solo", "group", "date"
	RuntimeMinutes int       `json:"runtime_minutes"`
	WatchedAt      time.Time `json:"watched_at"`
}

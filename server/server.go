// Package server provides the HTTP API.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"reel-deck/feed"
	"reel-deck/stats"
	"reel-deck/storage"
	"reel-deck/tmdb"
)

// pageFetcher is the slice of the feed fetcher the server uses.
type pageFetcher interface {
	FetchPage(ctx context.Context, kind tmdb.MediaKind, page int, sel feed.Selection) (*feed.Page, error)
}

// Server is the main HTTP server.
type Server struct {
	store   storage.StorageInterface
	fetcher pageFetcher
	router  chi.Router
}

// New creates a new server.
func New(store storage.StorageInterface, fetcher pageFetcher) *Server {
	s := &Server{
		store:   store,
		fetcher: fetcher,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Route("/api", func(r chi.Router) {
		r.Get("/feed", s.handleFeed)
		r.Get("/feed/filters", s.handleFeedFilters)

		r.Route("/watchlists", func(r chi.Router) {
			r.Post("/", s.handleCreateWatchlist)
			r.Get("/", s.handleListWatchlists)
			r.Get("/{listID}", s.handleGetWatchlist)
			r.Delete("/{listID}", s.handleDeleteWatchlist)
			r.Post("/{listID}/items", s.handleAddWatchlistItem)
			r.Get("/{listID}/items", s.handleListWatchlistItems)
			r.Delete("/{listID}/items/{titleID}", s.handleRemoveWatchlistItem)
		})

		r.Route("/groups", func(r chi.Router) {
			r.Post("/", s.handleCreateGroup)
			r.Post("/{groupID}/members", s.handleAddGroupMember)
			r.Get("/{groupID}/members", s.handleListGroupMembers)
			r.Get("/{groupID}/watchlists", s.handleListGroupWatchlists)
		})

		r.Post("/watch-events", s.handleRecordWatchEvent)
		r.Get("/stats", s.handleStats)
	})

	s.router = r
}

// Handler returns the router, for tests and for embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the server.
func (s *Server) Start(addr string) error {
	log.Printf("Server starting on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

// --- Feed Handlers ---

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	kind := tmdb.MediaKindFilm
	switch q.Get("kind") {
	case "", "film":
	case "series":
		kind = tmdb.MediaKindSeries
	default:
		http.Error(w, "kind must be film or series", http.StatusBadRequest)
		return
	}

	page := 1
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "page must be a positive integer", http.StatusBadRequest)
			return
		}
		page = n
	}

	sel := feed.DefaultSelection()
	if v := q.Get("genre"); v != "" {
		sel.Genre = v
	}
	if v := q.Get("year"); v != "" {
		sel.Year = v
	}
	if v := q.Get("maturity"); v != "" {
		sel.Maturity = v
	}
	if v := q.Get("minScore"); v != "" {
		sel.MinScore = v
	}
	if v := q.Get("provider"); v != "" {
		sel.Provider = v
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	result, err := s.fetcher.FetchPage(ctx, kind, page, sel)
	if err != nil {
		log.Printf("Feed fetch failed: %v", err)
		http.Error(w, "Metadata service unavailable", http.StatusBadGateway)
		return
	}

	writeJSON(w, map[string]interface{}{
		"items":       result.Items,
		"total_pages": result.TotalPages,
	})
}

func (s *Server) handleFeedFilters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"film_genres":   feed.GenreLabels(tmdb.MediaKindFilm),
		"series_genres": feed.GenreLabels(tmdb.MediaKindSeries),
		"years":         feed.DecadeLabels(),
		"maturity":      feed.MaturityRatings,
		"min_scores":    feed.ScoreBuckets(),
		"providers":     feed.ProviderLabels(),
	})
}

// --- Watchlist Handlers ---

func (s *Server) handleCreateWatchlist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		OwnerID string `json:"owner_id"`
		GroupID *int64 `json:"group_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.OwnerID == "" {
		http.Error(w, "name and owner_id are required", http.StatusBadRequest)
		return
	}

	id, err := s.store.CreateWatchlist(req.Name, req.OwnerID, req.GroupID)
	if err != nil {
		http.Error(w, "Failed to create watchlist", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{"id": id})
}

func (s *Server) handleListWatchlists(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		http.Error(w, "owner is required", http.StatusBadRequest)
		return
	}

	lists, err := s.store.ListWatchlists(owner)
	if err != nil {
		http.Error(w, "Failed to list watchlists", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{"watchlists": lists})
}

func (s *Server) handleGetWatchlist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "listID")
	if !ok {
		return
	}

	list, err := s.store.GetWatchlist(id)
	if err != nil {
		http.Error(w, "Failed to get watchlist", http.StatusInternalServerError)
		return
	}
	if list == nil {
		http.Error(w, "Watchlist not found", http.StatusNotFound)
		return
	}
	writeJSON(w, list)
}

func (s *Server) handleDeleteWatchlist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "listID")
	if !ok {
		return
	}

	if err := s.store.DeleteWatchlist(id); err != nil {
		http.Error(w, "Failed to delete watchlist", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleAddWatchlistItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "listID")
	if !ok {
		return
	}

	var item storage.WatchlistItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if item.TitleID == 0 || item.Title == "" {
		http.Error(w, "title_id and title are required", http.StatusBadRequest)
		return
	}
	if item.Kind != "film" && item.Kind != "series" {
		http.Error(w, "kind must be film or series", http.StatusBadRequest)
		return
	}

	if err := s.store.AddWatchlistItem(id, item); err != nil {
		http.Error(w, "Failed to add item", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleListWatchlistItems(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "listID")
	if !ok {
		return
	}

	items, err := s.store.ListWatchlistItems(id)
	if err != nil {
		http.Error(w, "Failed to list items", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{"items": items})
}

func (s *Server) handleRemoveWatchlistItem(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathID(w, r, "listID")
	if !ok {
		return
	}
	titleID, err := strconv.Atoi(chi.URLParam(r, "titleID"))
	if err != nil {
		http.Error(w, "Invalid title ID", http.StatusBadRequest)
		return
	}

	if err := s.store.RemoveWatchlistItem(listID, titleID); err != nil {
		http.Error(w, "Failed to remove item", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// --- Group Handlers ---

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	id, err := s.store.CreateGroup(req.Name)
	if err != nil {
		http.Error(w, "Failed to create group", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{"id": id})
}

func (s *Server) handleAddGroupMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "groupID")
	if !ok {
		return
	}

	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	if err := s.store.AddGroupMember(id, req.UserID); err != nil {
		http.Error(w, "Failed to add member", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleListGroupMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "groupID")
	if !ok {
		return
	}

	members, err := s.store.ListGroupMembers(id)
	if err != nil {
		http.Error(w, "Failed to list members", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{"members": members})
}

func (s *Server) handleListGroupWatchlists(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "groupID")
	if !ok {
		return
	}

	lists, err := s.store.ListGroupWatchlists(id)
	if err != nil {
		http.Error(w, "Failed to list group watchlists", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{"watchlists": lists})
}

// --- Watch Event Handlers ---

func (s *Server) handleRecordWatchEvent(w http.ResponseWriter, r *http.Request) {
	var ev storage.WatchEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if ev.UserID == "" || ev.TitleID == 0 || ev.Title == "" {
		http.Error(w, "user_id, title_id and title are required", http.StatusBadRequest)
		return
	}
	if ev.Kind != "film" && ev.Kind != "series" {
		http.Error(w, "kind must be film or series", http.StatusBadRequest)
		return
	}

	id, err := s.store.RecordWatchEvent(ev)
	if err != nil {
		http.Error(w, "Failed to record watch event", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{"id": id})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		http.Error(w, "user is required", http.StatusBadRequest)
		return
	}

	events, err := s.store.ListWatchEvents(user, time.Time{})
	if err != nil {
		http.Error(w, "Failed to load watch events", http.StatusInternalServerError)
		return
	}

	writeJSON(w, stats.Aggregate(events, time.Now()))
}

// --- Helpers ---

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid %s", param), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

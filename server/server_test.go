package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reel-deck/feed"
	"reel-deck/storage"
	"reel-deck/tmdb"
)

type fakeStore struct {
	nextID     int64
	watchlists map[int64]*storage.Watchlist
	items      map[int64][]storage.WatchlistItem
	groups     map[int64]string
	members    map[int64][]string
	events     []storage.WatchEvent
	failAll    bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		watchlists: make(map[int64]*storage.Watchlist),
		items:      make(map[int64][]storage.WatchlistItem),
		groups:     make(map[int64]string),
		members:    make(map[int64][]string),
	}
}

var errStore = errors.New("store failure")

func (f *fakeStore) Initialize() error { return nil }
func (f *fakeStore) Close() error      { return nil }

func (f *fakeStore) CreateWatchlist(name, ownerID string, groupID *int64) (int64, error) {
	if f.failAll {
		return 0, errStore
	}
	f.nextID++
	f.watchlists[f.nextID] = &storage.Watchlist{ID: f.nextID, Name: name, OwnerID: ownerID, GroupID: groupID}
	return f.nextID, nil
}

func (f *fakeStore) GetWatchlist(id int64) (*storage.Watchlist, error) {
	if f.failAll {
		return nil, errStore
	}
	return f.watchlists[id], nil
}

func (f *fakeStore) ListWatchlists(ownerID string) ([]storage.Watchlist, error) {
	var out []storage.Watchlist
	for _, w := range f.watchlists {
		if w.OwnerID == ownerID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteWatchlist(id int64) error {
	delete(f.watchlists, id)
	delete(f.items, id)
	return nil
}

func (f *fakeStore) AddWatchlistItem(listID int64, item storage.WatchlistItem) error {
	if f.failAll {
		return errStore
	}
	f.items[listID] = append(f.items[listID], item)
	return nil
}

func (f *fakeStore) ListWatchlistItems(listID int64) ([]storage.WatchlistItem, error) {
	return f.items[listID], nil
}

func (f *fakeStore) RemoveWatchlistItem(listID int64, titleID int) error {
	kept := f.items[listID][:0]
	for _, it := range f.items[listID] {
		if it.TitleID != titleID {
			kept = append(kept, it)
		}
	}
	f.items[listID] = kept
	return nil
}

func (f *fakeStore) CreateGroup(name string) (int64, error) {
	f.nextID++
	f.groups[f.nextID] = name
	return f.nextID, nil
}

func (f *fakeStore) AddGroupMember(groupID int64, userID string) error {
	f.members[groupID] = append(f.members[groupID], userID)
	return nil
}

func (f *fakeStore) ListGroupMembers(groupID int64) ([]string, error) {
	return f.members[groupID], nil
}

func (f *fakeStore) ListGroupWatchlists(groupID int64) ([]storage.Watchlist, error) {
	var out []storage.Watchlist
	for _, w := range f.watchlists {
		if w.GroupID != nil && *w.GroupID == groupID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (f *fakeStore) RecordWatchEvent(ev storage.WatchEvent) (int64, error) {
	f.nextID++
	ev.ID = f.nextID
	f.events = append(f.events, ev)
	return ev.ID, nil
}

func (f *fakeStore) ListWatchEvents(userID string, since time.Time) ([]storage.WatchEvent, error) {
	var out []storage.WatchEvent
	for _, ev := range f.events {
		if (userID == "" || ev.UserID == userID) && !ev.WatchedAt.Before(since) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeStore) RecentWatchlistAdditions(since time.Time) ([]storage.WatchlistAddition, error) {
	return nil, nil
}

type fetcherFunc func(ctx context.Context, kind tmdb.MediaKind, page int, sel feed.Selection) (*feed.Page, error)

func (fn fetcherFunc) FetchPage(ctx context.Context, kind tmdb.MediaKind, page int, sel feed.Selection) (*feed.Page, error) {
	return fn(ctx, kind, page, sel)
}

func newTestServer(store storage.StorageInterface, fetch fetcherFunc) *httptest.Server {
	return httptest.NewServer(New(store, fetch).Handler())
}

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url string, body interface{}, out interface{}) int {
	t.Helper()
	buf, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func TestFeedEndpoint(t *testing.T) {
	var gotKind tmdb.MediaKind
	var gotPage int
	var gotSel feed.Selection

	ts := newTestServer(newFakeStore(), func(ctx context.Context, kind tmdb.MediaKind, page int, sel feed.Selection) (*feed.Page, error) {
		gotKind, gotPage, gotSel = kind, page, sel
		return &feed.Page{
			Items:      []feed.Item{{ID: 550, Title: "Fight Club", VoteAverage: 8.4}},
			TotalPages: 12,
		}, nil
	})
	defer ts.Close()

	var body struct {
		Items      []feed.Item `json:"items"`
		TotalPages int         `json:"total_pages"`
	}
	code := getJSON(t, ts.URL+"/api/feed?kind=series&page=3&genre=Drama&minScore=4%2B+stars", &body)
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if gotKind != tmdb.MediaKindSeries || gotPage != 3 {
		t.Errorf("Fetcher got kind=%s page=%d", gotKind, gotPage)
	}
	if gotSel.Genre != "Drama" || gotSel.MinScore != "4+ stars" || gotSel.Year != feed.Any {
		t.Errorf("Unexpected selection %+v", gotSel)
	}
	if len(body.Items) != 1 || body.Items[0].ID != 550 || body.TotalPages != 12 {
		t.Errorf("Unexpected body %+v", body)
	}
}

func TestFeedEndpointBadInput(t *testing.T) {
	ts := newTestServer(newFakeStore(), func(ctx context.Context, kind tmdb.MediaKind, page int, sel feed.Selection) (*feed.Page, error) {
		t.Error("Fetcher should not be called on bad input")
		return nil, nil
	})
	defer ts.Close()

	if code := getJSON(t, ts.URL+"/api/feed?kind=documentary", nil); code != http.StatusBadRequest {
		t.Errorf("Bad kind: expected 400, got %d", code)
	}
	if code := getJSON(t, ts.URL+"/api/feed?page=zero", nil); code != http.StatusBadRequest {
		t.Errorf("Bad page: expected 400, got %d", code)
	}
}

func TestFeedEndpointMetadataFailure(t *testing.T) {
	ts := newTestServer(newFakeStore(), func(ctx context.Context, kind tmdb.MediaKind, page int, sel feed.Selection) (*feed.Page, error) {
		return nil, errors.New("upstream timeout")
	})
	defer ts.Close()

	if code := getJSON(t, ts.URL+"/api/feed", nil); code != http.StatusBadGateway {
		t.Errorf("Expected 502, got %d", code)
	}
}

func TestFeedFilterCatalog(t *testing.T) {
	ts := newTestServer(newFakeStore(), nil)
	defer ts.Close()

	var body map[string][]string
	if code := getJSON(t, ts.URL+"/api/feed/filters", &body); code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	for _, key := range []string{"film_genres", "series_genres", "years", "maturity", "min_scores", "providers"} {
		if len(body[key]) == 0 {
			t.Errorf("Catalog %s is empty", key)
		}
	}
}

func TestWatchlistEndpoints(t *testing.T) {
	store := newFakeStore()
	ts := newTestServer(store, nil)
	defer ts.Close()

	var created struct {
		ID int64 `json:"id"`
	}
	code := postJSON(t, ts.URL+"/api/watchlists", map[string]interface{}{
		"name": "Friday Night", "owner_id": "user-1",
	}, &created)
	if code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", code)
	}

	var list storage.Watchlist
	if code := getJSON(t, ts.URL+"/api/watchlists/1", &list); code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if list.Name != "Friday Night" {
		t.Errorf("Unexpected watchlist %+v", list)
	}

	if code := getJSON(t, ts.URL+"/api/watchlists/99", nil); code != http.StatusNotFound {
		t.Errorf("Missing list: expected 404, got %d", code)
	}

	code = postJSON(t, ts.URL+"/api/watchlists/1/items", map[string]interface{}{
		"title_id": 550, "title": "Fight Club", "kind": "film", "added_by": "user-1",
	}, nil)
	if code != http.StatusCreated {
		t.Fatalf("Add item: expected 201, got %d", code)
	}

	code = postJSON(t, ts.URL+"/api/watchlists/1/items", map[string]interface{}{
		"title_id": 551, "title": "Nope", "kind": "documentary",
	}, nil)
	if code != http.StatusBadRequest {
		t.Errorf("Bad kind: expected 400, got %d", code)
	}

	var items struct {
		Items []storage.WatchlistItem `json:"items"`
	}
	if code := getJSON(t, ts.URL+"/api/watchlists/1/items", &items); code != http.StatusOK {
		t.Fatalf("List items: expected 200, got %d", code)
	}
	if len(items.Items) != 1 || items.Items[0].TitleID != 550 {
		t.Errorf("Unexpected items %+v", items.Items)
	}
}

func TestWatchlistStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.failAll = true
	ts := newTestServer(store, nil)
	defer ts.Close()

	code := postJSON(t, ts.URL+"/api/watchlists", map[string]interface{}{
		"name": "Broken", "owner_id": "user-1",
	}, nil)
	if code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", code)
	}
}

func TestWatchEventAndStats(t *testing.T) {
	store := newFakeStore()
	ts := newTestServer(store, nil)
	defer ts.Close()

	code := postJSON(t, ts.URL+"/api/watch-events", map[string]interface{}{
		"user_id": "user-1", "title_id": 550, "title": "Fight Club",
		"kind": "film", "category": "solo", "runtime_minutes": 139,
		"watched_at": time.Now().Format(time.RFC3339),
	}, nil)
	if code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", code)
	}

	code = postJSON(t, ts.URL+"/api/watch-events", map[string]interface{}{
		"user_id": "user-1", "title_id": 551, "title": "No Kind",
	}, nil)
	if code != http.StatusBadRequest {
		t.Errorf("Missing kind: expected 400, got %d", code)
	}

	var summary struct {
		AllTime struct {
			Count   int `json:"count"`
			Minutes int `json:"minutes"`
		} `json:"all_time"`
	}
	if code := getJSON(t, ts.URL+"/api/stats?user=user-1", &summary); code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if summary.AllTime.Count != 1 || summary.AllTime.Minutes != 139 {
		t.Errorf("Unexpected summary %+v", summary)
	}

	if code := getJSON(t, ts.URL+"/api/stats", nil); code != http.StatusBadRequest {
		t.Errorf("Missing user: expected 400, got %d", code)
	}
}

func TestGroupEndpoints(t *testing.T) {
	store := newFakeStore()
	ts := newTestServer(store, nil)
	defer ts.Close()

	var created struct {
		ID int64 `json:"id"`
	}
	if code := postJSON(t, ts.URL+"/api/groups", map[string]string{"name": "Movie Club"}, &created); code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", code)
	}

	if code := postJSON(t, ts.URL+"/api/groups/1/members", map[string]string{"user_id": "user-2"}, nil); code != http.StatusOK {
		t.Fatalf("Add member: expected 200, got %d", code)
	}

	var members struct {
		Members []string `json:"members"`
	}
	if code := getJSON(t, ts.URL+"/api/groups/1/members", &members); code != http.StatusOK {
		t.Fatalf("List members: expected 200, got %d", code)
	}
	if len(members.Members) != 1 || members.Members[0] != "user-2" {
		t.Errorf("Unexpected members %+v", members.Members)
	}
}

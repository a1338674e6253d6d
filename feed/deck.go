package feed

import (
	"context"
	"sync"

	"reel-deck/tmdb"
)

// FillMode controls what LoadMore does with the fetched page.
type FillMode int

const (
	// FillAppend appends the next page to the deck (grid browsing).
	FillAppend FillMode = iota
	// FillReplace replaces the deck with the next page, wrapping back to
	// page 1 once the remote pages are exhausted (swipe-deck refill).
	FillReplace
)

// pageFetcher is the slice of the fetcher the deck uses.
type pageFetcher interface {
	FetchPage(ctx context.Context, kind tmdb.MediaKind, page int, sel Selection) (*Page, error)
}

// Deck is the long-lived, repeatedly refreshed view over the paginated
// discover feed. Only the most recently requested fetch may mutate the deck:
// each fetch snapshots a generation counter and its result is discarded when
// a newer request has started in the meantime, so a slow stale fetch can
// never overwrite a fresher one.
type Deck struct {
	fetcher pageFetcher
	mode    FillMode

	mu          sync.Mutex
	kind        tmdb.MediaKind
	sel         Selection
	items       []Item
	page        int
	totalPages  int
	loading     bool
	loadingMore bool
	generation  uint64
}

// NewDeck creates an empty deck for the given media kind. The deck stays
// empty until the first Refresh.
func NewDeck(fetcher pageFetcher, kind tmdb.MediaKind, mode FillMode) *Deck {
	return &Deck{
		fetcher: fetcher,
		mode:    mode,
		kind:    kind,
		sel:     DefaultSelection(),
		page:    1,
	}
}

// Items returns a copy of the current deck contents.
func (d *Deck) Items() []Item {
	d.mu.Lock()
	defer d.mu.Unlock()
	items := make([]Item, len(d.items))
	copy(items, d.items)
	return items
}

// Page returns the current page number.
func (d *Deck) Page() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.page
}

// TotalPages returns the remote-reported page count, 0 when unknown.
func (d *Deck) TotalPages() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.totalPages
}

// Loading reports whether an initial or refresh fetch is in flight.
func (d *Deck) Loading() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loading
}

// LoadingMore reports whether a load-more fetch is in flight.
func (d *Deck) LoadingMore() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loadingMore
}

// Selection returns the current filter selection.
func (d *Deck) Selection() Selection {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sel
}

// MediaKind returns the current media kind.
func (d *Deck) MediaKind() tmdb.MediaKind {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.kind
}

// SetMediaKind switches between film and series and reloads from page 1,
// discarding the current deck immediately.
func (d *Deck) SetMediaKind(ctx context.Context, kind tmdb.MediaKind) error {
	d.mu.Lock()
	if d.kind == kind {
		d.mu.Unlock()
		return nil
	}
	d.kind = kind
	d.items = nil
	d.mu.Unlock()
	return d.Refresh(ctx)
}

// SetFilters replaces the filter selection and reloads from page 1,
// discarding the current deck immediately.
func (d *Deck) SetFilters(ctx context.Context, sel Selection) error {
	d.mu.Lock()
	if d.sel == sel {
		d.mu.Unlock()
		return nil
	}
	d.sel = sel
	d.items = nil
	d.mu.Unlock()
	return d.Refresh(ctx)
}

// Refresh fetches page 1 with the current parameters and replaces the deck
// wholesale. A Refresh issued while an older fetch is still in flight
// supersedes it. On failure the deck is emptied rather than left stale.
func (d *Deck) Refresh(ctx context.Context) error {
	d.mu.Lock()
	d.generation++
	gen := d.generation
	d.loading = true
	kind, sel := d.kind, d.sel
	d.mu.Unlock()

	page, err := d.fetcher.FetchPage(ctx, kind, 1, sel)

	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.generation {
		// Superseded; the newer fetch owns the loading flag and the deck.
		return nil
	}
	d.loading = false
	if err != nil {
		d.clearLocked()
		return err
	}
	d.items = page.Items
	d.page = 1
	d.totalPages = page.TotalPages
	return nil
}

// LoadMore fetches the next page and appends or replaces per the fill mode.
// It is a no-op while any fetch is in flight and, in append mode, once the
// last known page has been reached. In replace mode an exhausted deck wraps
// back to page 1 as a refill.
func (d *Deck) LoadMore(ctx context.Context) error {
	d.mu.Lock()
	if d.loading || d.loadingMore {
		d.mu.Unlock()
		return nil
	}
	next := d.page + 1
	if d.totalPages == 0 || d.page >= d.totalPages {
		if d.mode != FillReplace || d.totalPages == 0 {
			d.mu.Unlock()
			return nil
		}
		next = 1
	}
	d.generation++
	gen := d.generation
	d.loadingMore = true
	kind, sel := d.kind, d.sel
	d.mu.Unlock()

	page, err := d.fetcher.FetchPage(ctx, kind, next, sel)

	d.mu.Lock()
	defer d.mu.Unlock()
	// Only a parameter change can supersede a load-more, and that never sets
	// loadingMore, so this fetch always clears its own flag.
	d.loadingMore = false
	if gen != d.generation {
		return nil
	}
	if err != nil {
		d.clearLocked()
		return err
	}
	if d.mode == FillReplace {
		d.items = page.Items
	} else {
		d.items = append(d.items, page.Items...)
	}
	d.page = next
	d.totalPages = page.TotalPages
	return nil
}

// clearLocked resets the deck to its empty fail-safe state. Callers hold mu.
func (d *Deck) clearLocked() {
	d.items = nil
	d.page = 1
	d.totalPages = 0
}

package feed

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"

	"reel-deck/tmdb"
)

// Item is one normalized entry in the explore deck. Maturity and Providers
// are populated by the per-item enrichment fetch and stay empty when that
// fetch fails or the home region carries no data.
type Item struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Overview    string   `json:"overview"`
	PosterPath  *string  `json:"poster_path"`
	PrimaryDate string   `json:"primary_date,omitempty"`
	GenreIDs    []int    `json:"genre_ids"`
	VoteAverage float64  `json:"vote_average"`
	Maturity    string   `json:"maturity,omitempty"`
	Providers   []string `json:"providers,omitempty"`
}

// Page is one fully enriched, filtered page of deck items.
type Page struct {
	Items      []Item
	TotalPages int
}

// metadataClient is the slice of the tmdb client the fetcher uses.
type metadataClient interface {
	Discover(ctx context.Context, kind tmdb.MediaKind, params url.Values) (*tmdb.DiscoverResponse, error)
	Details(ctx context.Context, kind tmdb.MediaKind, id int) (*tmdb.TitleDetails, error)
}

// Fetcher executes single page fetches against the metadata API and produces
// enriched, maturity-filtered item lists. It performs no retries: every
// failure is terminal for that request attempt.
type Fetcher struct {
	client metadataClient
	region string
}

// NewFetcher creates a fetcher bound to the US home region.
func NewFetcher(client *tmdb.Client) *Fetcher {
	return &Fetcher{client: client, region: "US"}
}

// FetchPage fetches one discover page, enriches every item with its maturity
// rating and streaming providers, and applies the client-side maturity
// filter. The remote API cannot filter by certification server-side, so the
// merged result set is re-filtered locally after enrichment.
func (f *Fetcher) FetchPage(ctx context.Context, kind tmdb.MediaKind, page int, sel Selection) (*Page, error) {
	resp, err := f.client.Discover(ctx, kind, BuildDiscoverParams(kind, page, sel))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page %d: %w", page, err)
	}

	items := make([]Item, 0, len(resp.Results))
	for _, raw := range resp.Results {
		items = append(items, newItem(raw))
	}

	f.enrich(ctx, kind, items)

	if sel.Maturity != Any {
		items = filterByMaturity(items, sel.Maturity)
	}

	return &Page{Items: items, TotalPages: resp.TotalPages}, nil
}

func newItem(raw tmdb.DiscoverResult) Item {
	title := raw.Title
	if title == "" {
		title = raw.Name
	}
	if title == "" {
		title = "Untitled"
	}

	date := raw.ReleaseDate
	if date == "" {
		date = raw.FirstAirDate
	}

	return Item{
		ID:          raw.ID,
		Title:       title,
		Overview:    raw.Overview,
		PosterPath:  raw.PosterPath,
		PrimaryDate: date,
		GenreIDs:    raw.GenreIDs,
		VoteAverage: raw.VoteAverage,
	}
}

// enrich issues one details request per item, all concurrently, joins on an
// all-complete barrier and merges the results positionally. A failed request
// leaves that single item unrated; it never fails the page or its siblings.
func (f *Fetcher) enrich(ctx context.Context, kind tmdb.MediaKind, items []Item) {
	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			details, err := f.client.Details(ctx, kind, items[i].ID)
			if err != nil {
				log.Printf("Error fetching details for %q (%d): %v", items[i].Title, items[i].ID, err)
				return
			}
			items[i].Maturity = f.maturityRating(kind, details)
			items[i].Providers = f.providerNames(details)
		}(i)
	}
	wg.Wait()
}

// maturityRating extracts the home-region rating: the first certification in
// the film release-date blocks, or the series content rating. A missing
// region block is not an error and simply leaves the rating unset.
func (f *Fetcher) maturityRating(kind tmdb.MediaKind, details *tmdb.TitleDetails) string {
	if kind == tmdb.MediaKindSeries {
		if details.ContentRatings == nil {
			return ""
		}
		for _, region := range details.ContentRatings.Results {
			if region.Region == f.region {
				return region.Rating
			}
		}
		return ""
	}

	if details.ReleaseDates == nil {
		return ""
	}
	for _, region := range details.ReleaseDates.Results {
		if region.Region != f.region {
			continue
		}
		for _, release := range region.ReleaseDates {
			if release.Certification != "" {
				return release.Certification
			}
		}
	}
	return ""
}

// providerNames collects the home-region provider names across the
// subscription, ad-supported and free groups, deduplicated.
func (f *Fetcher) providerNames(details *tmdb.TitleDetails) []string {
	if details.WatchProviders == nil {
		return nil
	}
	region, ok := details.WatchProviders.Results[f.region]
	if !ok {
		return nil
	}

	var names []string
	seen := make(map[string]bool)
	for _, group := range [][]tmdb.Provider{region.Flatrate, region.Ads, region.Free} {
		for _, provider := range group {
			if provider.ProviderName == "" || seen[provider.ProviderName] {
				continue
			}
			seen[provider.ProviderName] = true
			names = append(names, provider.ProviderName)
		}
	}
	return names
}

// filterByMaturity keeps only items whose fetched rating contains the
// requested rating, case-insensitively. Items with no rating are dropped,
// not defaulted to pass.
func filterByMaturity(items []Item, rating string) []Item {
	want := strings.ToLower(rating)
	kept := make([]Item, 0, len(items))
	for _, item := range items {
		if item.Maturity == "" {
			continue
		}
		if strings.Contains(strings.ToLower(item.Maturity), want) {
			kept = append(kept, item)
		}
	}
	return kept
}

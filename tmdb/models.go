package tmdb

// MediaKind selects between the film and series endpoints of the metadata API.
type MediaKind string

const (
	MediaKindFilm   MediaKind = "film"
	MediaKindSeries MediaKind = "series"
)

// DiscoverResult is one raw record from a discover page. Film records carry
// title/release_date, series records carry name/first_air_date.
type DiscoverResult struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	PosterPath   *string `json:"poster_path"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	GenreIDs     []int   `json:"genre_ids"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	Popularity   float64 `json:"popularity"`
}

// DiscoverResponse is a single page of discover results.
type DiscoverResponse struct {
	Page         int              `json:"page"`
	Results      []DiscoverResult `json:"results"`
	TotalPages   int              `json:"total_pages"`
	TotalResults int              `json:"total_results"`
}

// TitleDetails is the per-title details payload with certification and watch
// provider data appended in the same round trip.
type TitleDetails struct {
	ID             int                  `json:"id"`
	ReleaseDates   *ReleaseDatesBlock   `json:"release_dates,omitempty"`
	ContentRatings *ContentRatingsBlock `json:"content_ratings,omitempty"`
	WatchProviders *WatchProvidersBlock `json:"watch/providers,omitempty"`
}

// ReleaseDatesBlock holds region-partitioned film release dates.
type ReleaseDatesBlock struct {
	Results []RegionReleaseDates `json:"results"`
}

type RegionReleaseDates struct {
	Region       string        `json:"iso_3166_1"`
	ReleaseDates []ReleaseDate `json:"release_dates"`
}

type ReleaseDate struct {
	Certification string `json:"certification"`
	ReleaseDate   string `json:"release_date"`
	Type          int    `json:"type"`
}

// ContentRatingsBlock holds region-partitioned series content ratings.
type ContentRatingsBlock struct {
	Results []RegionContentRating `json:"results"`
}

type RegionContentRating struct {
	Region string `json:"iso_3166_1"`
	Rating string `json:"rating"`
}

// WatchProvidersBlock holds watch provider availability keyed by region code.
type WatchProvidersBlock struct {
	Results map[string]RegionProviders `json:"results"`
}

type RegionProviders struct {
	Link     string     `json:"link"`
	Flatrate []Provider `json:"flatrate"`
	Ads      []Provider `json:"ads"`
	Free     []Provider `json:"free"`
}

type Provider struct {
	ProviderID   int    `json:"provider_id"`
	ProviderName string `json:"provider_name"`
}

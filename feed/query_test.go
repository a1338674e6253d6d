package feed

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"reel-deck/tmdb"
)

func TestBuildDiscoverParamsUnconstrained(t *testing.T) {
	params := BuildDiscoverParams(tmdb.MediaKindFilm, 1, DefaultSelection())

	assert.Equal(t, "en-US", params.Get("language"))
	assert.Equal(t, "popularity.desc", params.Get("sort_by"))
	assert.Equal(t, "1", params.Get("page"))
	assert.Equal(t, "false", params.Get("include_adult"))
	assert.Equal(t, "US", params.Get("watch_region"))
	assert.Equal(t, "flatrate|ads|free", params.Get("with_watch_monetization_types"))
	assert.Equal(t, "8|9|15|337|350|1899", params.Get("with_watch_providers"))

	// No constraint dimensions may leak through for an all-Any selection.
	for _, key := range []string{
		"primary_release_year", "first_air_date_year",
		"primary_release_date.gte", "primary_release_date.lte",
		"first_air_date.gte", "first_air_date.lte",
		"with_genres", "vote_average.gte", "vote_count.gte",
	} {
		assert.False(t, params.Has(key), "unexpected parameter %s", key)
	}
}

func TestBuildDiscoverParamsLiteralYear(t *testing.T) {
	sel := DefaultSelection()
	sel.Year = "2022"

	film := BuildDiscoverParams(tmdb.MediaKindFilm, 1, sel)
	assert.Equal(t, "2022", film.Get("primary_release_year"))
	assert.False(t, film.Has("primary_release_date.gte"))
	assert.False(t, film.Has("primary_release_date.lte"))

	series := BuildDiscoverParams(tmdb.MediaKindSeries, 1, sel)
	assert.Equal(t, "2022", series.Get("first_air_date_year"))
	assert.False(t, series.Has("first_air_date.gte"))
}

func TestBuildDiscoverParamsDecade(t *testing.T) {
	sel := DefaultSelection()
	sel.Year = "2010s"

	film := BuildDiscoverParams(tmdb.MediaKindFilm, 1, sel)
	assert.Equal(t, "2010-01-01", film.Get("primary_release_date.gte"))
	assert.Equal(t, "2019-12-31", film.Get("primary_release_date.lte"))
	assert.False(t, film.Has("primary_release_year"))

	series := BuildDiscoverParams(tmdb.MediaKindSeries, 1, sel)
	assert.Equal(t, "2010-01-01", series.Get("first_air_date.gte"))
	assert.Equal(t, "2019-12-31", series.Get("first_air_date.lte"))
	assert.False(t, series.Has("first_air_date_year"))
}

func TestBuildDiscoverParamsScoreBuckets(t *testing.T) {
	tests := []struct {
		bucket string
		want   string
	}{
		{"4+ stars", "8"},
		{"3+ stars", "6"},
		{"2+ stars", "4"},
	}

	for _, tt := range tests {
		sel := DefaultSelection()
		sel.MinScore = tt.bucket
		params := BuildDiscoverParams(tmdb.MediaKindFilm, 1, sel)
		assert.Equal(t, tt.want, params.Get("vote_average.gte"), "bucket %s", tt.bucket)
		assert.Equal(t, "50", params.Get("vote_count.gte"), "bucket %s", tt.bucket)
	}

	params := BuildDiscoverParams(tmdb.MediaKindFilm, 1, DefaultSelection())
	assert.False(t, params.Has("vote_average.gte"))
	assert.False(t, params.Has("vote_count.gte"))
}

func TestBuildDiscoverParamsGenre(t *testing.T) {
	sel := DefaultSelection()
	sel.Genre = "Action"

	film := BuildDiscoverParams(tmdb.MediaKindFilm, 1, sel)
	assert.Equal(t, "28", film.Get("with_genres"))

	series := BuildDiscoverParams(tmdb.MediaKindSeries, 1, sel)
	assert.Equal(t, "10759", series.Get("with_genres"))

	// Unresolvable labels omit the parameter rather than erroring.
	sel.Genre = "Telenovela"
	params := BuildDiscoverParams(tmdb.MediaKindFilm, 1, sel)
	assert.False(t, params.Has("with_genres"))
}

func TestBuildDiscoverParamsProvider(t *testing.T) {
	sel := DefaultSelection()
	sel.Provider = "Netflix"
	params := BuildDiscoverParams(tmdb.MediaKindFilm, 1, sel)
	assert.Equal(t, "8", params.Get("with_watch_providers"))

	// Unknown labels fall back to the fixed list; the parameter is never omitted.
	sel.Provider = "Blockbuster"
	params = BuildDiscoverParams(tmdb.MediaKindFilm, 1, sel)
	assert.Equal(t, "8|9|15|337|350|1899", params.Get("with_watch_providers"))
}

func TestBuildDiscoverParamsIdempotent(t *testing.T) {
	sel := Selection{Genre: "Drama", Year: "1990s", Maturity: "R", MinScore: "3+ stars", Provider: "Hulu"}

	first := BuildDiscoverParams(tmdb.MediaKindFilm, 3, sel)
	second := BuildDiscoverParams(tmdb.MediaKindFilm, 3, sel)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical parameter sets, got %v and %v", first, second)
	}
}

func TestBuildDiscoverParamsEndToEnd(t *testing.T) {
	sel := Selection{
		Genre:    "Action",
		Year:     "2022",
		Maturity: Any,
		MinScore: "4+ stars",
		Provider: Any,
	}

	params := BuildDiscoverParams(tmdb.MediaKindFilm, 1, sel)

	assert.Equal(t, "28", params.Get("with_genres"))
	assert.Equal(t, "2022", params.Get("primary_release_year"))
	assert.Equal(t, "8", params.Get("vote_average.gte"))
	assert.Equal(t, "50", params.Get("vote_count.gte"))
	assert.Equal(t, "8|9|15|337|350|1899", params.Get("with_watch_providers"))
}

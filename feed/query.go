package feed

import (
	"net/url"
	"strconv"
	"strings"

	"reel-deck/tmdb"
)

// BuildDiscoverParams maps a media kind, page number and filter selection to
// the discover query parameter set. Pure function of its inputs: identical
// inputs always produce identical parameters, and nothing is fetched or
// mutated here.
func BuildDiscoverParams(kind tmdb.MediaKind, page int, sel Selection) url.Values {
	params := url.Values{}
	params.Set("language", "en-US")
	params.Set("sort_by", "popularity.desc")
	params.Set("page", strconv.Itoa(page))
	params.Set("include_adult", "false")
	params.Set("watch_region", "US")
	params.Set("with_watch_monetization_types", "flatrate|ads|free")

	// A recognized provider label narrows to that single provider; Any or an
	// unknown label falls back to the major-provider list.
	if id, ok := providerIDFor(sel.Provider); ok {
		params.Set("with_watch_providers", strconv.Itoa(id))
	} else {
		params.Set("with_watch_providers", joinIDs(fallbackProviderIDs, "|"))
	}

	setYearParams(params, kind, sel.Year)

	if sel.Genre != Any {
		if ids := genreIDsFor(kind, sel.Genre); len(ids) > 0 {
			params.Set("with_genres", joinIDs(ids, ","))
		}
	}

	if threshold, ok := scoreThresholds[sel.MinScore]; ok {
		params.Set("vote_average.gte", strconv.FormatFloat(threshold, 'f', -1, 64))
		params.Set("vote_count.gte", strconv.Itoa(minVoteCount))
	}

	return params
}

// setYearParams applies the year dimension: a literal 4-digit year sets the
// kind-specific exact-year parameter, a decade token sets an inclusive date
// range, and anything else applies no constraint.
func setYearParams(params url.Values, kind tmdb.MediaKind, year string) {
	if isLiteralYear(year) {
		if kind == tmdb.MediaKindSeries {
			params.Set("first_air_date_year", year)
		} else {
			params.Set("primary_release_year", year)
		}
		return
	}

	if decade, ok := decadeRanges[year]; ok {
		if kind == tmdb.MediaKindSeries {
			params.Set("first_air_date.gte", decade.from)
			params.Set("first_air_date.lte", decade.to)
		} else {
			params.Set("primary_release_date.gte", decade.from)
			params.Set("primary_release_date.lte", decade.to)
		}
	}
}

func isLiteralYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func joinIDs(ids []int, sep string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, sep)
}

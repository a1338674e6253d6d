package feed

import (
	"sort"

	"reel-deck/tmdb"
)

// Any is the sentinel meaning "apply no constraint" for a filter dimension.
const Any = "Any"

// Selection holds one set of filter choices for the explore feed. Every
// field is either Any or a label from the fixed lookup tables below;
// unrecognized values behave the same as Any for that dimension.
type Selection struct {
	Genre    string `json:"genre"`
	Year     string `json:"year"`
	Maturity string `json:"maturity"`
	MinScore string `json:"min_score"`
	Provider string `json:"provider"`
}

// DefaultSelection returns a selection with every dimension unconstrained.
func DefaultSelection() Selection {
	return Selection{Genre: Any, Year: Any, Maturity: Any, MinScore: Any, Provider: Any}
}

// Genre labels resolve to different numeric identifiers per media kind; the
// series catalog folds several film genres into combined entries.
var filmGenreIDs = map[string][]int{
	"Action":          {28},
	"Adventure":       {12},
	"Animation":       {16},
	"Comedy":          {35},
	"Crime":           {80},
	"Documentary":     {99},
	"Drama":           {18},
	"Family":          {10751},
	"Fantasy":         {14},
	"History":         {36},
	"Horror":          {27},
	"Music":           {10402},
	"Mystery":         {9648},
	"Romance":         {10749},
	"Science Fiction": {878},
	"Thriller":        {53},
	"War":             {10752},
	"Western":         {37},
}

var seriesGenreIDs = map[string][]int{
	"Action":          {10759},
	"Adventure":       {10759},
	"Animation":       {16},
	"Comedy":          {35},
	"Crime":           {80},
	"Documentary":     {99},
	"Drama":           {18},
	"Family":          {10751},
	"Fantasy":         {10765},
	"Kids":            {10762},
	"Mystery":         {9648},
	"Reality":         {10764},
	"Science Fiction": {10765},
	"War":             {10768},
	"Western":         {37},
}

var providerIDs = map[string]int{
	"Netflix":            8,
	"Amazon Prime Video": 9,
	"Hulu":               15,
	"Disney+":            337,
	"Apple TV+":          350,
	"Max":                1899,
	"Paramount+":         531,
	"Peacock":            386,
}

// fallbackProviderIDs is the major-provider list used whenever the provider
// selection is Any or unrecognized. The provider parameter is never omitted.
var fallbackProviderIDs = []int{8, 9, 15, 337, 350, 1899}

var scoreThresholds = map[string]float64{
	"4+ stars": 8.0,
	"3+ stars": 6.0,
	"2+ stars": 4.0,
}

// minVoteCount suppresses statistically insignificant scores whenever a
// minimum score threshold is applied.
const minVoteCount = 50

type dateRange struct {
	from, to string
}

var decadeRanges = map[string]dateRange{
	"1960s": {"1960-01-01", "1969-12-31"},
	"1970s": {"1970-01-01", "1979-12-31"},
	"1980s": {"1980-01-01", "1989-12-31"},
	"1990s": {"1990-01-01", "1999-12-31"},
	"2000s": {"2000-01-01", "2009-12-31"},
	"2010s": {"2010-01-01", "2019-12-31"},
	"2020s": {"2020-01-01", "2029-12-31"},
}

// MaturityRatings lists the rating labels offered by the maturity filter.
var MaturityRatings = []string{"G", "PG", "PG-13", "R", "NC-17", "TV-Y", "TV-G", "TV-PG", "TV-14", "TV-MA"}

// ScoreBuckets lists the minimum-score bucket labels, strictest first.
func ScoreBuckets() []string {
	return []string{"4+ stars", "3+ stars", "2+ stars"}
}

// GenreLabels returns the genre labels available for a media kind, sorted.
func GenreLabels(kind tmdb.MediaKind) []string {
	table := filmGenreIDs
	if kind == tmdb.MediaKindSeries {
		table = seriesGenreIDs
	}
	labels := make([]string, 0, len(table))
	for label := range table {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// ProviderLabels returns the streaming provider labels, sorted.
func ProviderLabels() []string {
	labels := make([]string, 0, len(providerIDs))
	for label := range providerIDs {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// DecadeLabels returns the decade tokens accepted by the year filter, sorted.
func DecadeLabels() []string {
	labels := make([]string, 0, len(decadeRanges))
	for label := range decadeRanges {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

func genreIDsFor(kind tmdb.MediaKind, label string) []int {
	if kind == tmdb.MediaKindSeries {
		return seriesGenreIDs[label]
	}
	return filmGenreIDs[label]
}

func providerIDFor(label string) (int, bool) {
	id, ok := providerIDs[label]
	return id, ok
}

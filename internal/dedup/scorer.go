package dedup

import (
	"fmt"
	"math"
	"strings"

	"github.com/arcticMV/frf-event-hub-sub000/internal/domain"
)

// Fixed point allocation for the weighted composite score. The denominator
// used to normalize the final score is always scoreDenominator, not the sum
// of weights actually triggered: a match that only hits a few dimensions is
// penalized even when each triggered signal is confident. Changing this
// changes which events are flagged as duplicates.
const (
	weightTitle    = 40.0
	weightLocation = 25.0
	weightCountry  = 15.0
	weightDate     = 10.0
	weightCategory = 10.0

	scoreDenominator = 100.0

	// locationThreshold is the minimum location-text similarity that
	// contributes to the composite score.
	locationThreshold = 0.7
)

// Options holds the tunable parameters for candidate scoring and search.
type Options struct {
	// TitleThreshold is the minimum title similarity below which a candidate
	// scores zero regardless of other field agreement.
	TitleThreshold float64

	// DateProximityDays is the day-count window for the date-proximity signal.
	DateProximityDays int

	// MinimumScore is the composite score below which candidates are dropped
	// from search results. Callers use 50 for the authoring form and 60 as a
	// stricter preset for surfacing only likely duplicates; both are valid.
	MinimumScore int

	// MaxResults caps the number of matches returned by FindSimilar.
	MaxResults int
}

// DefaultOptions returns the scoring defaults used by the authoring form.
func DefaultOptions() Options {
	return Options{
		TitleThreshold:    0.6,
		DateProximityDays: 3,
		MinimumScore:      50,
		MaxResults:        5,
	}
}

// candidateScore is the result of scoring one existing record against a draft.
type candidateScore struct {
	Score        int
	Reasons      []string
	TitleMatched bool
}

// ScoreCandidate produces a weighted composite score (0-100) and a list of
// human-readable match reasons for one draft/record pair. The title signal is
// a hard gate: if title similarity does not clear opts.TitleThreshold the
// composite score is forced to zero, since location, date, and category
// agreement alone must never qualify as a duplicate — unrelated events
// routinely share a country or a date.
//
// The function has no side effects and is safe to call concurrently for many
// candidates.
func ScoreCandidate(draft domain.EventDraft, existing domain.Event, opts Options) (int, []string) {
	res := scoreCandidate(draft, existing, opts)
	return res.Score, res.Reasons
}

func scoreCandidate(draft domain.EventDraft, existing domain.Event, opts Options) candidateScore {
	var (
		total   float64
		reasons []string
		gated   bool
	)

	if draft.Title != "" && existing.Title != "" {
		sim := Similarity(draft.Title, existing.Title)
		if sim >= opts.TitleThreshold {
			total += sim * weightTitle
			gated = true
			reasons = append(reasons, fmt.Sprintf("%d%% title match", roundPercent(sim)))
		}
	}

	if draft.Location.Text != "" && existing.Location.Text != "" {
		sim := Similarity(draft.Location.Text, existing.Location.Text)
		if sim >= locationThreshold {
			total += sim * weightLocation
			reasons = append(reasons, fmt.Sprintf("%d%% location match", roundPercent(sim)))
		}
	}

	if draft.Location.Country != "" && existing.Location.Country != "" &&
		strings.EqualFold(draft.Location.Country, existing.Location.Country) {
		total += weightCountry
		reasons = append(reasons, "Same country")
	}

	if draft.DateTime != nil && existing.DateTime != nil &&
		DatesWithin(draft.DateTime, existing.DateTime, float64(opts.DateProximityDays)) {
		total += weightDate
		reasons = append(reasons, fmt.Sprintf("Within %d days", opts.DateProximityDays))
	}

	if draft.Category != "" && existing.Category != "" &&
		strings.EqualFold(draft.Category, existing.Category) {
		total += weightCategory
		reasons = append(reasons, "Same category")
	}

	score := int(math.Round(total / scoreDenominator * 100))
	if !gated {
		score = 0
	}

	return candidateScore{
		Score:        score,
		Reasons:      reasons,
		TitleMatched: gated,
	}
}

// roundPercent converts a [0,1] similarity into a rounded whole percentage.
func roundPercent(sim float64) int {
	return int(math.Round(sim * 100))
}

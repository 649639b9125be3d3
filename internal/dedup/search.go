package dedup

import (
	"sort"

	"github.com/arcticMV/frf-event-hub-sub000/internal/domain"
)

// Match is one ranked duplicate candidate returned by FindSimilar.
// Matches are created fresh per search call and never mutated afterwards.
type Match struct {
	// ID is the existing record's identifier.
	ID string
	// Score is the composite duplicate score, 0-100.
	Score int
	// Reasons lists the human-readable scoring dimensions that contributed.
	Reasons []string
	// Record is the existing event the draft was compared against.
	Record domain.Event
}

// FindSimilar scores every existing record against the draft and returns the
// candidates that cleared the minimum score, sorted descending by score and
// truncated to opts.MaxResults. The sort is stable: records with equal scores
// keep their input order. A candidate survives only if it recorded at least
// one match reason and passed the title gate — the gate already forces the
// score to zero, but it is the core safety property and checked explicitly.
//
// Calling FindSimilar twice with identical inputs yields identical output.
func FindSimilar(draft domain.EventDraft, records []domain.Event, opts Options) []Match {
	matches := make([]Match, 0, len(records))

	for _, record := range records {
		res := scoreCandidate(draft, record, opts)
		if res.Score < opts.MinimumScore || len(res.Reasons) == 0 || !res.TitleMatched {
			continue
		}
		matches = append(matches, Match{
			ID:      record.ID.String(),
			Score:   res.Score,
			Reasons: res.Reasons,
			Record:  record,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if opts.MaxResults > 0 && len(matches) > opts.MaxResults {
		matches = matches[:opts.MaxResults]
	}

	return matches
}

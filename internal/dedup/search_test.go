package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcticMV/frf-event-hub-sub000/internal/domain"
)

func TestFindSimilar_FiltersAndSorts(t *testing.T) {
	t.Parallel()

	draft := domain.EventDraft{
		Title:    "Refinery fire in Rotterdam",
		Location: domain.Location{Country: "Netherlands"},
		Category: "Industrial",
	}

	titleOnly := makeEvent("Refinery fire in Rotterdam", "", "", "", nil)                             // 40, below minimum
	withCountry := makeEvent("Refinery fire in Rotterdam", "", "Netherlands", "", nil)                // 55
	withBoth := makeEvent("Refinery fire in Rotterdam", "", "Netherlands", "Industrial", nil)         // 65
	unrelated := makeEvent("Museum reopens after renovation", "", "Netherlands", "Industrial", nil)   // gated to 0
	records := []domain.Event{titleOnly, withCountry, withBoth, unrelated}

	matches := FindSimilar(draft, records, DefaultOptions())

	require.Len(t, matches, 2)
	assert.Equal(t, withBoth.ID.String(), matches[0].ID)
	assert.Equal(t, 65, matches[0].Score)
	assert.Equal(t, withCountry.ID.String(), matches[1].ID)
	assert.Equal(t, 55, matches[1].Score)
}

func TestFindSimilar_TitleGateExcludesPerfectFieldAgreement(t *testing.T) {
	t.Parallel()

	occurred := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	draft := domain.EventDraft{
		Title:    "Flooding in Jakarta",
		Location: domain.Location{Text: "Jakarta", Country: "Indonesia"},
		DateTime: timePtr(occurred),
		Category: "Natural Disaster",
	}
	// Location, country, date, and category all agree; only the title differs.
	existing := makeEvent("Election results in Jakarta", "Jakarta", "Indonesia", "Natural Disaster", timePtr(occurred))

	matches := FindSimilar(draft, []domain.Event{existing}, DefaultOptions())
	assert.Empty(t, matches)
}

func TestFindSimilar_StableTieBreak(t *testing.T) {
	t.Parallel()

	draft := domain.EventDraft{
		Title:    "Grid outage across region",
		Location: domain.Location{Country: "Spain"},
		Category: "Infrastructure",
	}

	// Both records agree on the same dimensions and score identically.
	first := makeEvent("Grid outage across region", "", "Spain", "Infrastructure", nil)
	second := makeEvent("Grid outage across region", "", "Spain", "Infrastructure", nil)

	matches := FindSimilar(draft, []domain.Event{first, second}, DefaultOptions())

	require.Len(t, matches, 2)
	assert.Equal(t, matches[0].Score, matches[1].Score)
	// Equal scores keep original record order.
	assert.Equal(t, first.ID.String(), matches[0].ID)
	assert.Equal(t, second.ID.String(), matches[1].ID)
}

func TestFindSimilar_BoundedOutput(t *testing.T) {
	t.Parallel()

	draft := domain.EventDraft{
		Title:    "Grid outage across region",
		Location: domain.Location{Country: "Spain"},
		Category: "Infrastructure",
	}

	records := make([]domain.Event, 0, 9)
	for i := 0; i < 9; i++ {
		records = append(records, makeEvent("Grid outage across region", "", "Spain", "Infrastructure", nil))
	}

	opts := DefaultOptions()
	matches := FindSimilar(draft, records, opts)
	assert.Len(t, matches, opts.MaxResults)

	opts.MaxResults = 2
	assert.Len(t, FindSimilar(draft, records, opts), 2)
}

func TestFindSimilar_StricterPreset(t *testing.T) {
	t.Parallel()

	draft := domain.EventDraft{
		Title:    "Refinery fire in Rotterdam",
		Location: domain.Location{Country: "Netherlands"},
	}
	existing := makeEvent("Refinery fire in Rotterdam", "", "Netherlands", "", nil) // scores 55

	relaxed := DefaultOptions()
	strict := DefaultOptions()
	strict.MinimumScore = 60

	assert.Len(t, FindSimilar(draft, []domain.Event{existing}, relaxed), 1)
	assert.Empty(t, FindSimilar(draft, []domain.Event{existing}, strict))
}

func TestFindSimilar_Deterministic(t *testing.T) {
	t.Parallel()

	occurred := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)
	draft := domain.EventDraft{
		Title:    "Explosion near Kyiv central station",
		Location: domain.Location{Text: "Kyiv", Country: "Ukraine"},
		DateTime: timePtr(occurred),
		Category: "Terrorism",
	}
	records := []domain.Event{
		makeEvent("Explosion near Kyiv central station", "Kyiv", "Ukraine", "Terrorism", timePtr(occurred.AddDate(0, 0, 1))),
		makeEvent("Explosion near Kyiv", "Kyiv", "Ukraine", "", nil),
		makeEvent("Harbor fire contained", "Kyiv", "Ukraine", "Terrorism", timePtr(occurred)),
	}

	first := FindSimilar(draft, records, DefaultOptions())
	second := FindSimilar(draft, records, DefaultOptions())
	require.Equal(t, first, second)
}

package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// wrappedTimestamp mimics a document-store timestamp type exposing ToDate.
type wrappedTimestamp struct {
	t time.Time
}

func (w wrappedTimestamp) ToDate() time.Time { return w.t }

func TestDatesWithin_AbsentInput(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.False(t, DatesWithin(nil, now, 3))
	assert.False(t, DatesWithin(now, nil, 3))
	assert.False(t, DatesWithin(nil, nil, 3))

	var missing *time.Time
	assert.False(t, DatesWithin(missing, now, 3))
	assert.False(t, DatesWithin(time.Time{}, now, 3))
}

func TestDatesWithin_MalformedInput(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.False(t, DatesWithin("not a date", now, 3))
	assert.False(t, DatesWithin(now, "13/45/9999", 3))
	assert.False(t, DatesWithin(42, now, 3))
}

func TestDatesWithin_Threshold(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		other     time.Time
		threshold float64
		want      bool
	}{
		{"same instant", base, 3, true},
		{"one day apart", base.AddDate(0, 0, 1), 3, true},
		{"exactly 72 hours", base.Add(72 * time.Hour), 3, true},
		// The comparison uses epoch milliseconds, not calendar days: 73
		// hours apart is 3.04 days and falls outside a 3-day window.
		{"73 hours apart", base.Add(73 * time.Hour), 3, false},
		{"five days apart", base.AddDate(0, 0, 5), 3, false},
		{"five days apart, wide window", base.AddDate(0, 0, 5), 7, true},
		{"earlier side", base.AddDate(0, 0, -2), 3, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, DatesWithin(base, tt.other, tt.threshold))
			assert.Equal(t, tt.want, DatesWithin(tt.other, base, tt.threshold))
		})
	}
}

func TestDatesWithin_MixedRepresentations(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	nearby := base.AddDate(0, 0, 1)

	// String forms.
	assert.True(t, DatesWithin("2024-03-10T12:00:00Z", base, 3))
	assert.True(t, DatesWithin("2024-03-11", base, 3))
	assert.False(t, DatesWithin("2024-04-01", base, 3))

	// Pointer form.
	assert.True(t, DatesWithin(&nearby, base, 3))

	// Wrapped timestamp form.
	assert.True(t, DatesWithin(wrappedTimestamp{t: nearby}, base, 3))
	assert.False(t, DatesWithin(wrappedTimestamp{}, base, 3))

	// Mixed on both sides.
	assert.True(t, DatesWithin("2024-03-11", wrappedTimestamp{t: base}, 3))
}

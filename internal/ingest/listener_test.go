package ingest

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcticMV/frf-event-hub-sub000/internal/domain"
)

// newTestListener builds a listener without a Kafka reader; handleMessage is
// exercised directly.
func newTestListener(gate *Gate) *Listener {
	return &Listener{
		gate:   gate,
		logger: zerolog.Nop(),
	}
}

func TestListener_HandleMessage(t *testing.T) {
	t.Run("valid submission is admitted", func(t *testing.T) {
		repo := newFakeEventRepo()
		listener := newTestListener(newTestGate(repo))

		payload := []byte(`{
			"title": "Explosion near central station",
			"location": "Kyiv",
			"country": "Ukraine",
			"occurred_at": "2025-05-12T14:00:00Z",
			"category": "security",
			"source": "partner-feed"
		}`)

		listener.handleMessage(context.Background(), payload)

		require.Equal(t, 1, len(repo.events))
		for _, e := range repo.events {
			assert.Equal(t, domain.PartitionStaging, e.Partition)
			assert.Equal(t, domain.EventStatusPending, e.Status)
			assert.Equal(t, "Explosion near central station", e.Title)
			assert.Equal(t, "partner-feed", e.Source)
			require.NotNil(t, e.DateTime)
			assert.Equal(t, 2025, e.DateTime.Year())
		}
	})

	t.Run("malformed payload is dropped", func(t *testing.T) {
		repo := newFakeEventRepo()
		listener := newTestListener(newTestGate(repo))

		listener.handleMessage(context.Background(), []byte(`{"title": `))

		assert.Empty(t, repo.events)
	})

	t.Run("missing title is dropped", func(t *testing.T) {
		repo := newFakeEventRepo()
		listener := newTestListener(newTestGate(repo))

		listener.handleMessage(context.Background(), []byte(`{"summary": "no title"}`))

		assert.Empty(t, repo.events)
	})
}

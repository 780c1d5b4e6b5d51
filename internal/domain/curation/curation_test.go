package curation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/astro-api/internal/domain/aspects"
	"github.com/yanqian/astro-api/internal/domain/impact"
)

func event(id, body string, score float64, tags ...string) impact.Event {
	return impact.Event{
		ID:          id,
		Match:       aspects.Match{TransitingBody: body, NatalBody: "Sun", Aspect: aspects.Square},
		ImpactScore: score,
		Tags:        tags,
	}
}

func TestCurate_MarsTrigger(t *testing.T) {
	events := []impact.Event{
		event("a", "Venus", 40),
		event("b", "Mars", 60),
		event("c", "Saturn", 80, "Structure"),
		event("d", "Moon", 30),
	}

	daily := Curate(events)
	require.Equal(t, "c", daily.TopEvent.ID)
	require.Equal(t, "b", daily.TriggerEvent.ID)
	require.Len(t, daily.SecondaryEvents, 2)
	require.Equal(t, "a", daily.SecondaryEvents[0].ID)
	require.Equal(t, "d", daily.SecondaryEvents[1].ID)
	require.Equal(t, "Tendency to concentrate energy on structure.", daily.Summary.Tone)
	require.Equal(t, "Saturn square Sun asks for attention to priorities.", daily.Summary.Trigger)
	require.NotEmpty(t, daily.Summary.Action)
}

func TestCurate_WeakMarsFallsBackToSecond(t *testing.T) {
	events := []impact.Event{
		event("a", "Mars", 54.99),
		event("b", "Jupiter", 90),
		event("c", "Venus", 70),
	}

	daily := Curate(events)
	require.Equal(t, "b", daily.TopEvent.ID)
	require.Equal(t, "c", daily.TriggerEvent.ID)
	require.Len(t, daily.SecondaryEvents, 1)
	require.Equal(t, "a", daily.SecondaryEvents[0].ID)
}

func TestCurate_MarsOnTopIsAlsoTrigger(t *testing.T) {
	daily := Curate([]impact.Event{event("a", "Mars", 95), event("b", "Moon", 20), event("c", "Sun", 10)})
	require.Equal(t, "a", daily.TopEvent.ID)
	require.Equal(t, "a", daily.TriggerEvent.ID)
	require.Equal(t, []string{"b", "c"}, []string{daily.SecondaryEvents[0].ID, daily.SecondaryEvents[1].ID})
}

func TestCurate_SingleEvent(t *testing.T) {
	daily := Curate([]impact.Event{event("solo", "Venus", 50)})
	require.Equal(t, "solo", daily.TopEvent.ID)
	require.NotNil(t, daily.TriggerEvent)
	require.Equal(t, "solo", daily.TriggerEvent.ID)
	require.Empty(t, daily.SecondaryEvents)
	require.Equal(t, "Tendency to concentrate energy on focus.", daily.Summary.Tone)
}

func TestCurate_Empty(t *testing.T) {
	daily := Curate(nil)
	require.Nil(t, daily.TopEvent)
	require.Nil(t, daily.TriggerEvent)
	require.Nil(t, daily.SecondaryEvents)
	require.Nil(t, daily.Summary)
}

func TestCurate_StableOnTies(t *testing.T) {
	events := []impact.Event{event("first", "Sun", 50), event("second", "Moon", 50), event("third", "Venus", 50)}
	daily := Curate(events)
	require.Equal(t, "first", daily.TopEvent.ID)
	require.Equal(t, "second", daily.TriggerEvent.ID)
	require.Equal(t, "third", daily.SecondaryEvents[0].ID)
	require.Equal(t, "first", events[0].ID)
}

// Package curation picks the headline events of a day and templates a summary.
package curation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yanqian/astro-api/internal/domain/impact"
)

const (
	// TriggerThreshold is the minimum score for a Mars event to become the trigger.
	TriggerThreshold = 55.0
	maxSecondary     = 2
	triggerBody      = "Mars"
)

// Summary is the templated narrative of a day.
type Summary struct {
	Tone    string `json:"tone"`
	Trigger string `json:"trigger"`
	Action  string `json:"action"`
}

// Daily is the curated selection for one day. Every field is nil for an empty day.
type Daily struct {
	TopEvent        *impact.Event  `json:"topEvent"`
	TriggerEvent    *impact.Event  `json:"triggerEvent"`
	SecondaryEvents []impact.Event `json:"secondaryEvents"`
	Summary         *Summary       `json:"summary"`
}

// Curate ranks events by score and selects top, trigger and secondary events.
func Curate(events []impact.Event) Daily {
	if len(events) == 0 {
		return Daily{}
	}
	ranked := make([]impact.Event, len(events))
	copy(ranked, events)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ImpactScore > ranked[j].ImpactScore
	})

	top := ranked[0]
	triggerIdx := -1
	for i, ev := range ranked {
		if strings.EqualFold(ev.Match.TransitingBody, triggerBody) && ev.ImpactScore >= TriggerThreshold {
			triggerIdx = i
			break
		}
	}
	if triggerIdx < 0 {
		// runner-up, or the top itself on a single-event day
		triggerIdx = min(1, len(ranked)-1)
	}

	trigger := ranked[triggerIdx]
	out := Daily{TopEvent: &top, TriggerEvent: &trigger}
	secondary := make([]impact.Event, 0, maxSecondary)
	for i, ev := range ranked {
		if i == 0 || i == triggerIdx {
			continue
		}
		secondary = append(secondary, ev)
		if len(secondary) == maxSecondary {
			break
		}
	}
	out.SecondaryEvents = secondary
	out.Summary = summarize(top)
	return out
}

func summarize(top impact.Event) *Summary {
	focus := "focus"
	if len(top.Tags) > 0 {
		focus = strings.ToLower(top.Tags[0])
	}
	m := top.Match
	return &Summary{
		Tone:    fmt.Sprintf("Tendency to concentrate energy on %s.", focus),
		Trigger: fmt.Sprintf("%s %s %s asks for attention to priorities.", m.TransitingBody, m.Aspect, m.NatalBody),
		Action:  "Act consistently and adjust the pace to the context.",
	}
}

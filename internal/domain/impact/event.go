package impact

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/yanqian/astro-api/internal/domain/aspects"
)

const maxTags = 4

var bodyTags = map[string][]string{
	"sun":     {"Identity", "Direction"},
	"moon":    {"Emotions", "Needs"},
	"mercury": {"Communication", "Decisions"},
	"venus":   {"Relationships", "Values"},
	"mars":    {"Action", "Courage"},
	"jupiter": {"Expansion", "Opportunity"},
	"saturn":  {"Structure", "Responsibility"},
	"uranus":  {"Change", "Disruption"},
	"neptune": {"Inspiration", "Sensitivity"},
	"pluto":   {"Transformation", "Intensity"},
}

var aspectTags = map[aspects.Kind][]string{
	aspects.Conjunction: {"Intensity"},
	aspects.Opposition:  {"Tension", "Balance"},
	aspects.Square:      {"Tension", "Adjustment"},
	aspects.Trine:       {"Flow"},
	aspects.Sextile:     {"Openness"},
}

// DateRange spans the civil day an event belongs to.
type DateRange struct {
	Start time.Time `json:"start"`
	Peak  time.Time `json:"peak"`
	End   time.Time `json:"end"`
}

// Event is a scored aspect on a given day.
type Event struct {
	ID          string        `json:"id"`
	Date        string        `json:"date"`
	Match       aspects.Match `json:"match"`
	ImpactScore float64       `json:"impactScore"`
	Severity    Severity      `json:"severity"`
	Tags        []string      `json:"tags"`
	DateRange   DateRange     `json:"dateRange"`
}

// Tags returns body tags followed by aspect tags, deduplicated, at most four.
func Tags(transiting string, kind aspects.Kind) []string {
	out := make([]string, 0, maxTags)
	seen := make(map[string]struct{}, maxTags)
	candidates := append(append([]string{}, bodyTags[strings.ToLower(transiting)]...), aspectTags[kind]...)
	for _, tag := range candidates {
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
		if len(out) == maxTags {
			break
		}
	}
	return out
}

// EventID is a stable identifier for the same aspect on the same day against
// the same chart. chart fingerprints the natal chart; events from different
// charts never share an ID even when the aspect and orb coincide.
func EventID(chart string, day time.Time, m aspects.Match) string {
	key := fmt.Sprintf("%s:%s:%s:%s:%s:%.2f", chart, day.Format("2006-01-02"), m.TransitingBody, m.NatalBody, m.Aspect, m.OrbDeg)
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

// BuildEvent scores m and places it on day.
func BuildEvent(chart string, day time.Time, m aspects.Match) Event {
	d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	score := Score(m.TransitingBody, m.NatalBody, m.Aspect, m.OrbDeg, m.MaxOrbDeg)
	return Event{
		ID:          EventID(chart, d, m),
		Date:        d.Format("2006-01-02"),
		Match:       m,
		ImpactScore: score,
		Severity:    SeverityOf(score),
		Tags:        Tags(m.TransitingBody, m.Aspect),
		DateRange: DateRange{
			Start: d,
			Peak:  d.Add(12 * time.Hour),
			End:   d.Add(23*time.Hour + 59*time.Minute + 59*time.Second),
		},
	}
}

// BuildEvents maps BuildEvent over matches, preserving order.
func BuildEvents(chart string, day time.Time, matches []aspects.Match) []Event {
	out := make([]Event, 0, len(matches))
	for _, m := range matches {
		out = append(out, BuildEvent(chart, day, m))
	}
	return out
}

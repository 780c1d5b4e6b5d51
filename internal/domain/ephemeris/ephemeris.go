// Package ephemeris defines the position oracle consumed by the search and aspect code.
package ephemeris

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Body is a solar-system body the gateway can place.
type Body int

const (
	Sun Body = iota
	Moon
	Mercury
	Venus
	Mars
	Jupiter
	Saturn
	Uranus
	Neptune
	Pluto
)

var bodyNames = [...]string{"Sun", "Moon", "Mercury", "Venus", "Mars", "Jupiter", "Saturn", "Uranus", "Neptune", "Pluto"}

// Bodies lists every supported body in canonical order.
var Bodies = []Body{Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn, Uranus, Neptune, Pluto}

func (b Body) String() string {
	if b < 0 || int(b) >= len(bodyNames) {
		return fmt.Sprintf("Body(%d)", int(b))
	}
	return bodyNames[b]
}

// Valid reports whether b is a known body.
func (b Body) Valid() bool {
	return b >= 0 && int(b) < len(bodyNames)
}

// ParseBody accepts body names case-insensitively.
func ParseBody(name string) (Body, error) {
	for i, candidate := range bodyNames {
		if strings.EqualFold(strings.TrimSpace(name), candidate) {
			return Body(i), nil
		}
	}
	return 0, fmt.Errorf("unknown body %q", name)
}

// Ayanamsa names a sidereal reference frame offset.
type Ayanamsa string

const (
	Lahiri        Ayanamsa = "lahiri"
	Krishnamurti  Ayanamsa = "krishnamurti"
	Raman         Ayanamsa = "raman"
	FaganBradley  Ayanamsa = "fagan_bradley"
	DefaultSystem          = Lahiri
)

// ParseAyanamsa normalizes a user supplied ayanamsa name. Empty selects Lahiri.
func ParseAyanamsa(name string) (Ayanamsa, error) {
	switch Ayanamsa(strings.ToLower(strings.TrimSpace(name))) {
	case "":
		return DefaultSystem, nil
	case Lahiri:
		return Lahiri, nil
	case Krishnamurti:
		return Krishnamurti, nil
	case Raman:
		return Raman, nil
	case FaganBradley, "fagan-bradley", "faganbradley":
		return FaganBradley, nil
	}
	return "", fmt.Errorf("unknown ayanamsa %q", name)
}

// Zodiac selects tropical or sidereal longitudes for a single query.
type Zodiac struct {
	Sidereal bool     `json:"sidereal"`
	Ayanamsa Ayanamsa `json:"ayanamsa,omitempty"`
}

// Tropical is the default zodiac.
var Tropical = Zodiac{}

// Position is a body's apparent geocentric ecliptic longitude at an instant.
type Position struct {
	Body           Body    `json:"-"`
	Name           string  `json:"body"`
	LongitudeDeg   float64 `json:"longitudeDeg"`
	SpeedDegPerDay float64 `json:"speedDegPerDay"`
	Retrograde     bool    `json:"retrograde"`
}

// UnmarshalJSON restores Body from the emitted name so cached positions keep their identity.
func (p *Position) UnmarshalJSON(data []byte) error {
	type wire Position
	var raw wire
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Name != "" {
		body, err := ParseBody(raw.Name)
		if err != nil {
			return err
		}
		raw.Body = body
	}
	*p = Position(raw)
	return nil
}

// Gateway is any source of body positions. Implementations must be
// referentially transparent for identical arguments.
type Gateway interface {
	PositionAt(jdUT float64, body Body, zodiac Zodiac) (Position, error)
}

// Point is a named longitude, either a body or a caller supplied angle such as ASC.
type Point struct {
	Name         string  `json:"name"`
	LongitudeDeg float64 `json:"longitudeDeg"`
}

// Points is an ordered set of named longitudes. Order is significant for
// deterministic aspect output.
type Points []Point

// Find returns the longitude registered under name.
func (p Points) Find(name string) (float64, bool) {
	for _, point := range p {
		if strings.EqualFold(point.Name, name) {
			return point.LongitudeDeg, true
		}
	}
	return 0, false
}

// Snapshot queries gw for each body at jdUT, preserving the order of bodies.
func Snapshot(gw Gateway, jdUT float64, bodies []Body, zodiac Zodiac) ([]Position, error) {
	out := make([]Position, 0, len(bodies))
	for _, body := range bodies {
		pos, err := gw.PositionAt(jdUT, body, zodiac)
		if err != nil {
			return nil, fmt.Errorf("position of %s: %w", body, err)
		}
		out = append(out, pos)
	}
	return out, nil
}

// ToPoints projects positions to named longitudes.
func ToPoints(positions []Position) Points {
	out := make(Points, 0, len(positions))
	for _, pos := range positions {
		name := pos.Name
		if name == "" {
			name = pos.Body.String()
		}
		out = append(out, Point{Name: name, LongitudeDeg: pos.LongitudeDeg})
	}
	return out
}

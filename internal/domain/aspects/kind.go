package aspects

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidArgument reports a bad profile name, orb or definition.
var ErrInvalidArgument = errors.New("invalid aspect argument")

// Kind is the closed set of supported aspects.
type Kind string

const (
	Conjunction Kind = "conjunction"
	Opposition  Kind = "opposition"
	Square      Kind = "square"
	Trine       Kind = "trine"
	Sextile     Kind = "sextile"
)

// Influence is the qualitative flavour of an aspect.
type Influence string

const (
	Intense     Influence = "intense"
	Challenging Influence = "challenging"
	Supportive  Influence = "supportive"
)

// Kinds lists every aspect in canonical definition order.
var Kinds = []Kind{Conjunction, Opposition, Square, Trine, Sextile}

var canonical = map[Kind]struct {
	angle     float64
	influence Influence
}{
	Conjunction: {0, Intense},
	Opposition:  {180, Challenging},
	Square:      {90, Challenging},
	Trine:       {120, Supportive},
	Sextile:     {60, Supportive},
}

var aliases = map[string]Kind{
	"conj": Conjunction,
	"opos": Opposition,
	"opp":  Opposition,
	"quad": Square,
	"sq":   Square,
	"tri":  Trine,
	"sext": Sextile,
}

// ParseKind accepts full names and short aliases case-insensitively.
func ParseKind(name string) (Kind, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if k, ok := aliases[key]; ok {
		return k, nil
	}
	if _, ok := canonical[Kind(key)]; ok {
		return Kind(key), nil
	}
	return "", fmt.Errorf("%w: unknown aspect %q", ErrInvalidArgument, name)
}

// Valid reports whether k is one of Kinds.
func (k Kind) Valid() bool {
	_, ok := canonical[k]
	return ok
}

// Angle is the exact separation that defines k.
func (k Kind) Angle() float64 { return canonical[k].angle }

// Influence is the default influence of k.
func (k Kind) Influence() Influence { return canonical[k].influence }

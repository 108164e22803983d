// Package transform composes cumulative modifiers applied to individual dice
// instances. A die owns an ordered list of transformations; the rendering and
// scoring layers consume the composed effect bundle.
package transform

import (
	"errors"
	"time"
)

// Type identifies a transformation template.
type Type string

const (
	TypeTarotBoost     Type = "tarot_boost"
	TypeHellCorruption Type = "hell_corruption"
	TypeLuckyAsh       Type = "lucky_ash"
	TypeFeatherweight  Type = "featherweight"
)

// ErrNotStackable indicates a non-stackable transformation type is already
// present on the die. The caller should treat the application as a no-op.
var ErrNotStackable = errors.New("transformation type is not stackable")

// ErrUnknownType indicates the transformation type has no template.
var ErrUnknownType = errors.New("unknown transformation type")

// Transformation is a single modifier applied to a die.
//
// Optional fields are pointers so that a present zero is distinguishable from
// an absent field: a transformation carrying MassMultiplier 0 must compose to
// a weightless die, not be skipped.
type Transformation struct {
	Type               Type      `json:"type"`
	AppliedAt          time.Time `json:"appliedAt"`
	SizeMultiplier     *float64  `json:"sizeMultiplier,omitempty"`
	MassMultiplier     *float64  `json:"massMultiplier,omitempty"`
	FrictionMultiplier *float64  `json:"frictionMultiplier,omitempty"`
	ColorTint          *string   `json:"colorTint,omitempty"`
	Emissive           *string   `json:"emissive,omitempty"`
	EmissiveIntensity  *float64  `json:"emissiveIntensity,omitempty"`
	ValueModifier      *int      `json:"valueModifier,omitempty"`
	ScoreMultiplier    *float64  `json:"scoreMultiplier,omitempty"`
	RerollChance       *float64  `json:"rerollChance,omitempty"`
	Stackable          bool      `json:"stackable"`
}

// Effects is the composed bundle of every transformation on a die.
type Effects struct {
	SizeMultiplier     float64 `json:"sizeMultiplier"`
	MassMultiplier     float64 `json:"massMultiplier"`
	FrictionMultiplier float64 `json:"frictionMultiplier"`
	ScoreMultiplier    float64 `json:"scoreMultiplier"`
	ValueModifier      int     `json:"valueModifier"`
	EmissiveIntensity  float64 `json:"emissiveIntensity"`
	RerollChance       float64 `json:"rerollChance"`
	ColorTint          string  `json:"colorTint,omitempty"`
	Emissive           string  `json:"emissive,omitempty"`
}

// templates holds the fixed deltas each transformation type applies.
var templates = map[Type]Transformation{
	TypeTarotBoost: {
		Type:            TypeTarotBoost,
		SizeMultiplier:  ptr(1.08),
		ScoreMultiplier: ptr(1.2),
		Stackable:       true,
	},
	TypeHellCorruption: {
		Type:              TypeHellCorruption,
		ColorTint:         ptrString("#8a0303"),
		Emissive:          ptrString("#ff2a00"),
		EmissiveIntensity: ptr(0.6),
		Stackable:         false,
	},
	TypeLuckyAsh: {
		Type:         TypeLuckyAsh,
		RerollChance: ptr(0.1),
		Stackable:    false,
	},
	TypeFeatherweight: {
		Type:           TypeFeatherweight,
		SizeMultiplier: ptr(0.95),
		MassMultiplier: ptr(0.5),
		Stackable:      true,
	},
}

// Apply appends a transformation of the given type to the list. Applying a
// non-stackable type that is already present returns the list unchanged along
// with ErrNotStackable.
func Apply(list []Transformation, t Type, now func() time.Time) ([]Transformation, error) {
	template, ok := templates[t]
	if !ok {
		return list, ErrUnknownType
	}
	if !template.Stackable {
		for _, existing := range list {
			if existing.Type == t {
				return list, ErrNotStackable
			}
		}
	}
	if now == nil {
		now = time.Now
	}
	applied := template
	applied.AppliedAt = now().UTC()
	out := make([]Transformation, 0, len(list)+1)
	out = append(out, list...)
	return append(out, applied), nil
}

// Compose folds a transformation list into one effect bundle: multiplicative
// for size/mass/friction/score multipliers, additive for the value modifier,
// max for emissive intensity and reroll chance, last-applied-wins for color
// tint and emissive. Presence is decided by nil checks, never by comparing
// against zero.
func Compose(list []Transformation) Effects {
	effects := Effects{
		SizeMultiplier:     1,
		MassMultiplier:     1,
		FrictionMultiplier: 1,
		ScoreMultiplier:    1,
	}
	for _, t := range list {
		if t.SizeMultiplier != nil {
			effects.SizeMultiplier *= *t.SizeMultiplier
		}
		if t.MassMultiplier != nil {
			effects.MassMultiplier *= *t.MassMultiplier
		}
		if t.FrictionMultiplier != nil {
			effects.FrictionMultiplier *= *t.FrictionMultiplier
		}
		if t.ScoreMultiplier != nil {
			effects.ScoreMultiplier *= *t.ScoreMultiplier
		}
		if t.ValueModifier != nil {
			effects.ValueModifier += *t.ValueModifier
		}
		if t.EmissiveIntensity != nil && *t.EmissiveIntensity > effects.EmissiveIntensity {
			effects.EmissiveIntensity = *t.EmissiveIntensity
		}
		if t.RerollChance != nil && *t.RerollChance > effects.RerollChance {
			effects.RerollChance = *t.RerollChance
		}
		if t.ColorTint != nil {
			effects.ColorTint = *t.ColorTint
		}
		if t.Emissive != nil {
			effects.Emissive = *t.Emissive
		}
	}
	return effects
}

func ptr(v float64) *float64 { return &v }

func ptrString(v string) *string { return &v }

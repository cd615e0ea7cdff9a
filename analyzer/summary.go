package analyzer

import (
	"encoding/json"

	"github.com/pkg/errors"
)

type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeWin
	OutcomeLoss
	OutcomeDraw
)

var outcomeNames = map[Outcome]string{
	OutcomeUnknown: "unknown",
	OutcomeWin:     "win",
	OutcomeLoss:    "loss",
	OutcomeDraw:    "draw",
}

func (o Outcome) String() string {
	if n, ok := outcomeNames[o]; ok {
		return n
	}
	return "unknown"
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Outcome) UnmarshalText(text []byte) error {
	for k, n := range outcomeNames {
		if n == string(text) {
			*o = k
			return nil
		}
	}
	return errors.Errorf("Unknown outcome %q", text)
}

type TeamType int

const (
	TeamAlly TeamType = iota
	TeamEnemy
)

func (t TeamType) MarshalText() ([]byte, error) {
	if t == TeamEnemy {
		return []byte("enemy"), nil
	}
	return []byte("ally"), nil
}

func (t *TeamType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "ally":
		*t = TeamAlly
	case "enemy":
		*t = TeamEnemy
	default:
		return errors.Errorf("Unknown team %q", text)
	}
	return nil
}

// EntityStats is the per vehicle score table row.
type EntityStats struct {
	Name            string                 `json:"name"`
	Clan            string                 `json:"clan"`
	Team            TeamType               `json:"team"`
	DamageDealt     float32                `json:"damage_dealt"`
	DamagePotential float32                `json:"damage_potential"`
	DamageSpotting  float32                `json:"damage_spotting"`
	DamageTaken     float32                `json:"damage_taken"`
	Exp             uint32                 `json:"exp"`
	Frags           uint32                 `json:"frags"`
	Achievements    map[Achievement]uint32 `json:"achievements"`
}

type Summary struct {
	Hash            string                 `json:"hash"`
	Outcome         Outcome                `json:"outcome"`
	DamageDealt     float32                `json:"damage_dealt"`
	DamageTaken     float32                `json:"damage_taken"`
	DamageSpotting  float32                `json:"damage_spotting"`
	DamagePotential float32                `json:"damage_potential"`
	Achievements    map[Achievement]uint32 `json:"achievements"`
	Ribbons         map[Ribbon]uint32      `json:"ribbons"`
	// keyed by vehicle id, nil when unknown
	TeamScore map[int64]EntityStats `json:"team_score"`
}

// RibbonParents folds sub-ribbons into their parent buckets.
func (s *Summary) RibbonParents() map[Ribbon]uint32 {
	out := make(map[Ribbon]uint32, len(s.Ribbons))
	for r, n := range s.Ribbons {
		out[r.Parent()] += n
	}
	return out
}

func (s *Summary) JSON() ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to marshal summary")
	}
	return b, nil
}

func ReadSummary(data []byte) (*Summary, error) {
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "Failed to unmarshal summary")
	}
	return &s, nil
}

package lookout

import (
	"math"
	"sort"
	"time"

	"github.com/ahamadey27/wake-app/aisstream"
	"github.com/ahamadey27/wake-app/geo"
)

const (
	// Speeds at or below this are anchored vessels and gps wobble, and they
	// would blow up the ETA division anyway.
	MOVING_SPEED_THRESHOLD = 0.1 // knots

	DEFAULT_BUDGET_SECONDS = 60
)

// Query holds the fixed parameters of one approach scan. The course window
// is inclusive and may wrap north, e.g. min 330 max 30.
type Query struct {
	Reference     geo.Point `json:"reference" yaml:"reference"`
	MinCourseDeg  float64   `json:"minCourseDeg" yaml:"minCourseDeg"`
	MaxCourseDeg  float64   `json:"maxCourseDeg" yaml:"maxCourseDeg"`
	EtaMinMinutes float64   `json:"etaMinMinutes" yaml:"etaMinMinutes"`
	EtaMaxMinutes float64   `json:"etaMaxMinutes" yaml:"etaMaxMinutes"`
	MinSpeedKnots float64   `json:"minSpeedKnots" yaml:"minSpeedKnots"`
	BudgetSeconds int       `json:"budgetSeconds" yaml:"budgetSeconds"`
}

// Budget is the wall-clock allowance for the scan's stream session.
func (q Query) Budget() time.Duration {
	if q.BudgetSeconds <= 0 {
		return time.Duration(DEFAULT_BUDGET_SECONDS) * time.Second
	}
	return time.Duration(q.BudgetSeconds) * time.Second
}

// minSpeed is the speed floor, defaulted so a zero-valued query still guards
// the ETA division.
func (q Query) minSpeed() float64 {
	if q.MinSpeedKnots <= 0 {
		return MOVING_SPEED_THRESHOLD
	}
	return q.MinSpeedKnots
}

// Approach is one qualifying vessel, immutable once produced.
type Approach struct {
	MMSI       int       `json:"mmsi"`
	Name       string    `json:"name"`
	Class      string    `json:"class"`
	SpeedKnots float64   `json:"speedKnots"`
	DistanceNM float64   `json:"distanceNm"`
	EtaMinutes float64   `json:"etaMinutes"`
	Eta        time.Time `json:"eta"`
}

// Approaches filters a position snapshot down to freighters approaching the
// reference point and ranks them soonest first, ties broken by MMSI so the
// same snapshot always yields the same order.
func Approaches(q Query, snapshot []aisstream.PositionEvent, fleet *Fleet) []Approach {
	out := []Approach{}
	for _, ev := range snapshot {
		if a, ok := evaluate(q, ev, fleet); ok {
			out = append(out, a)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Eta.Equal(out[j].Eta) {
			return out[i].Eta.Before(out[j].Eta)
		}
		return out[i].MMSI < out[j].MMSI
	})

	return out
}

// evaluate runs the per-vessel predicates, cheapest first, stopping at the
// first rejection. A field the vessel never reported rejects it; nothing is
// ever assumed for missing kinematics.
func evaluate(q Query, ev aisstream.PositionEvent, fleet *Fleet) (Approach, bool) {
	statics, ok := fleet.Lookup(ev.MMSI)
	if !ok {
		return Approach{}, false
	}
	class := Classify(statics.ShipType)
	if !class.Freighter() {
		return Approach{}, false
	}

	if !onApproachSide(q, ev.Pos) {
		return Approach{}, false
	}

	if !ev.CogValid {
		return Approach{}, false
	}
	if !geo.CourseWithin(geo.NormalizeCourse(ev.Cog), q.MinCourseDeg, q.MaxCourseDeg) {
		return Approach{}, false
	}

	if !ev.SogValid || ev.Sog <= q.minSpeed() {
		return Approach{}, false
	}

	dist := geo.DistanceNM(ev.Pos, q.Reference)
	etaMinutes := dist / ev.Sog * 60
	if etaMinutes < q.EtaMinMinutes || etaMinutes > q.EtaMaxMinutes {
		return Approach{}, false
	}

	name := statics.Name
	if name == "" {
		name = ev.Name
	}

	return Approach{
		MMSI:       ev.MMSI,
		Name:       name,
		Class:      class.String(),
		SpeedKnots: ev.Sog,
		DistanceNM: dist,
		EtaMinutes: etaMinutes,
		Eta:        ev.At.Add(time.Duration(etaMinutes * float64(time.Minute))),
	}, true
}

// onApproachSide reports whether the vessel is still on the side of the
// reference point it would arrive from. A southerly course window means
// inbound traffic lies to the north and vice versa; latitude alone decides,
// which is the documented simplification for a narrow north-south reach.
// A due east or west window puts no latitude constraint on the vessel.
func onApproachSide(q Query, pos geo.Point) bool {
	mid := geo.WindowMidpoint(q.MinCourseDeg, q.MaxCourseDeg)
	northSouth := math.Cos(mid * math.Pi / 180)

	switch {
	case northSouth < -1e-9:
		return pos.Lat > q.Reference.Lat
	case northSouth > 1e-9:
		return pos.Lat < q.Reference.Lat
	default:
		return true
	}
}

package lookout

// ShipClass buckets the AIS ship-and-cargo type code into the handful of
// categories the app cares to show.
type ShipClass int

const (
	ClassUnknown ShipClass = iota
	ClassWingInGround
	ClassFishing
	ClassTug
	ClassMilitary
	ClassSailing
	ClassPleasure
	ClassHighSpeed
	ClassPilot
	ClassSearchRescue
	ClassPortTender
	ClassAntiPollution
	ClassLawEnforcement
	ClassMedical
	ClassPassenger
	ClassCargo
	ClassTanker
	ClassOther
)

// typeRanges maps AIS type code ranges to classes, ordered ascending, first
// match wins. Codes outside every range classify as ClassOther.
var typeRanges = []struct {
	lo, hi int
	class  ShipClass
}{
	{20, 29, ClassWingInGround},
	{30, 30, ClassFishing},
	{31, 32, ClassTug},
	{33, 35, ClassMilitary},
	{36, 36, ClassSailing},
	{37, 37, ClassPleasure},
	{40, 49, ClassHighSpeed},
	{50, 50, ClassPilot},
	{51, 51, ClassSearchRescue},
	{52, 52, ClassTug},
	{53, 53, ClassPortTender},
	{54, 54, ClassAntiPollution},
	{55, 55, ClassLawEnforcement},
	{58, 58, ClassMedical},
	{60, 69, ClassPassenger},
	{70, 79, ClassCargo},
	{80, 89, ClassTanker},
}

var classNames = map[ShipClass]string{
	ClassUnknown:        "unknown",
	ClassWingInGround:   "wing in ground",
	ClassFishing:        "fishing",
	ClassTug:            "tug",
	ClassMilitary:       "military",
	ClassSailing:        "sailing",
	ClassPleasure:       "pleasure craft",
	ClassHighSpeed:      "high speed craft",
	ClassPilot:          "pilot",
	ClassSearchRescue:   "search and rescue",
	ClassPortTender:     "port tender",
	ClassAntiPollution:  "anti-pollution",
	ClassLawEnforcement: "law enforcement",
	ClassMedical:        "medical transport",
	ClassPassenger:      "passenger",
	ClassCargo:          "cargo",
	ClassTanker:         "tanker",
	ClassOther:          "other",
}

// Classify resolves a numeric type code. Zero and negative codes mean the
// vessel never told us, which is distinct from a code we do not recognize.
func Classify(code int) ShipClass {
	if code <= 0 {
		return ClassUnknown
	}
	for _, r := range typeRanges {
		if code >= r.lo && code <= r.hi {
			return r.class
		}
	}
	return ClassOther
}

// Freighter reports whether the class is the large commercial traffic worth
// an arrival alert.
func (c ShipClass) Freighter() bool {
	return c == ClassCargo || c == ClassTanker
}

func (c ShipClass) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return "other"
}

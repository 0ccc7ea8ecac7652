package aisstream

// Message type tags the upstream accepts in FilterMessageTypes and echoes
// back in Packet.MsgType.
const (
	MSG_TYPE_POSITION = "PositionReport"
	MSG_TYPE_STATIC   = "ShipStaticData"
)

// Wire sentinels for fields a transponder may not know. Raw values at or
// beyond these thresholds mean "unavailable", never a measurement.
const (
	SOG_UNAVAILABLE     = 1023 // tenths of knots
	COG_UNAVAILABLE     = 3600 // tenths of degrees
	HEADING_UNAVAILABLE = 511  // degrees
	SHIPTYPE_UNKNOWN    = 0
)

// PositionReport - Class A AIS Position Report (Messages 1, 2, and 3).
// Kinematic fields arrive as fixed-point integers in the units noted below.
// Reference: https://www.navcen.uscg.gov/ais-class-a-reports
type PositionReport struct {
	Cog                       int     `json:"Cog"` // tenths of degrees, >= 3600 unavailable
	CommunicationState        int     `json:"CommunicationState"`
	Latitude                  float64 `json:"Latitude"`
	Longitude                 float64 `json:"Longitude"`
	MessageID                 int     `json:"MessageID"`
	NavigationalStatus        int     `json:"NavigationalStatus"`
	PositionAccuracy          bool    `json:"PositionAccuracy"`
	Raim                      bool    `json:"Raim"`
	RateOfTurn                int     `json:"RateOfTurn"`
	RepeatIndicator           int     `json:"RepeatIndicator"`
	Sog                       int     `json:"Sog"` // tenths of knots, >= 1023 unavailable
	Spare                     int     `json:"Spare"`
	SpecialManoeuvreIndicator int     `json:"SpecialManoeuvreIndicator"`
	Timestamp                 int     `json:"Timestamp"` // UTC second of the transmitting minute, 0-59
	TrueHeading               int     `json:"TrueHeading"` // degrees, 511 unavailable
	Type                      int     `json:"Type"`        // ship and cargo type, 0 unknown
	UserID                    int     `json:"UserID"`
	Valid                     bool    `json:"Valid"`
}

// ShipStaticData - Class A Ship Static and Voyage Related Data (Message 5)
// Reference: https://www.navcen.uscg.gov/ais-class-a-static-voyage-message-5
type ShipStaticData struct {
	AisVersion  int    `json:"AisVersion"`
	CallSign    string `json:"CallSign"`
	Destination string `json:"Destination"`
	Dimension   struct {
		A int `json:"A"`
		B int `json:"B"`
		C int `json:"C"`
		D int `json:"D"`
	} `json:"Dimension"`
	Dte bool `json:"Dte"`
	Eta struct {
		Day    int `json:"Day"`
		Hour   int `json:"Hour"`
		Minute int `json:"Minute"`
		Month  int `json:"Month"`
	} `json:"Eta"`
	FixType              int     `json:"FixType"`
	ImoNumber            int     `json:"ImoNumber"`
	MaximumStaticDraught float64 `json:"MaximumStaticDraught"`
	MessageID            int     `json:"MessageID"`
	Name                 string  `json:"Name"`
	RepeatIndicator      int     `json:"RepeatIndicator"`
	Spare                bool    `json:"Spare"`
	Type                 int     `json:"Type"` // ship and cargo type, 0 unknown
	UserID               int     `json:"UserID"`
	Valid                bool    `json:"Valid"`
}

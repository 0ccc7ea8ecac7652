package aisstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahamadey27/wake-app/geo"
)

// TIME_UTC_LAYOUT matches the time_utc string aisstream.io stamps on packet
// metadata, e.g. "2024-05-01 12:34:58.504345 +0000 UTC".
const TIME_UTC_LAYOUT = "2006-01-02 15:04:05.999999999 -0700 MST"

var (
	ErrNoVesselID     = errors.New("packet carries no vessel identifier")
	ErrBadCoordinates = errors.New("position coordinates out of range")
)

// PositionEvent is a position report normalized to engineering units, with
// availability made explicit instead of encoded in sentinel values.
type PositionEvent struct {
	MMSI         int
	Name         string
	Pos          geo.Point
	Sog          float64 // knots
	SogValid     bool
	Cog          float64 // degrees true
	CogValid     bool
	Heading      int // degrees true
	HeadingValid bool
	ShipType     int // SHIPTYPE_UNKNOWN when the report carried none
	At           time.Time
}

// StaticEvent carries the identity fields of a ship static data report.
type StaticEvent struct {
	MMSI        int
	Name        string
	ShipType    int
	Destination string
	At          time.Time
}

func DecodePacket(b []byte) (Packet, error) {
	var p Packet
	if err := json.Unmarshal(b, &p); err != nil {
		return Packet{}, fmt.Errorf("failed to unmarshal ais packet: %w", err)
	}
	return p, nil
}

// ReceiptTime reports when the upstream received the packet. A missing or
// malformed time_utc falls back to the local clock so a bad envelope never
// introduces a zero time.
func (p *Packet) ReceiptTime() time.Time {
	t, err := time.Parse(TIME_UTC_LAYOUT, p.Metadata.TimeUtc)
	if err != nil {
		return time.Now().UTC()
	}
	return t.UTC()
}

// eventTime merges the receipt minute with the transponder's intra-minute
// second. Seconds outside 0-59 leave the receipt time untouched, and the
// merge never rolls the minute back.
func eventTime(receipt time.Time, sec int) time.Time {
	if sec < 0 || sec > 59 {
		return receipt
	}
	return time.Date(receipt.Year(), receipt.Month(), receipt.Day(),
		receipt.Hour(), receipt.Minute(), sec, 0, receipt.Location())
}

// PositionEvent normalizes the packet's position report. The vessel
// identifier prefers the payload UserID and falls back to the envelope MMSI.
func (p *Packet) PositionEvent() (PositionEvent, error) {
	pr := p.Msg.PositionReport

	mmsi := pr.UserID
	if mmsi <= 0 {
		mmsi = p.Metadata.MMSI
	}
	if mmsi <= 0 {
		return PositionEvent{}, ErrNoVesselID
	}
	if pr.Latitude < -90 || pr.Latitude > 90 || pr.Longitude < -180 || pr.Longitude > 180 {
		return PositionEvent{}, fmt.Errorf("%w: lat %.5f lon %.5f", ErrBadCoordinates, pr.Latitude, pr.Longitude)
	}

	ev := PositionEvent{
		MMSI:     mmsi,
		Name:     strings.TrimSpace(p.Metadata.ShipName),
		Pos:      geo.Point{Lat: pr.Latitude, Lon: pr.Longitude},
		ShipType: pr.Type,
		At:       eventTime(p.ReceiptTime(), pr.Timestamp),
	}
	if pr.Sog >= 0 && pr.Sog < SOG_UNAVAILABLE {
		ev.Sog = float64(pr.Sog) / 10
		ev.SogValid = true
	}
	if pr.Cog >= 0 && pr.Cog < COG_UNAVAILABLE {
		ev.Cog = float64(pr.Cog) / 10
		ev.CogValid = true
	}
	// 360-510 are not valid headings and decode as unavailable too.
	if pr.TrueHeading >= 0 && pr.TrueHeading < 360 {
		ev.Heading = pr.TrueHeading
		ev.HeadingValid = true
	}
	if ev.ShipType < 0 {
		ev.ShipType = SHIPTYPE_UNKNOWN
	}
	return ev, nil
}

// StaticEvent normalizes the packet's static data report. The payload name
// wins over the envelope name when both are present.
func (p *Packet) StaticEvent() (StaticEvent, error) {
	sd := p.Msg.ShipStaticData

	mmsi := sd.UserID
	if mmsi <= 0 {
		mmsi = p.Metadata.MMSI
	}
	if mmsi <= 0 {
		return StaticEvent{}, ErrNoVesselID
	}

	name := strings.TrimSpace(sd.Name)
	if name == "" {
		name = strings.TrimSpace(p.Metadata.ShipName)
	}
	shipType := sd.Type
	if shipType < 0 {
		shipType = SHIPTYPE_UNKNOWN
	}

	return StaticEvent{
		MMSI:        mmsi,
		Name:        name,
		ShipType:    shipType,
		Destination: strings.TrimSpace(sd.Destination),
		At:          p.ReceiptTime(),
	}, nil
}

package aisstream

import (
	"errors"
	"testing"
	"time"
)

const rawPositionFrame = `{
	"Message": {
		"PositionReport": {
			"Cog": 1805,
			"Latitude": 42.036,
			"Longitude": -73.925,
			"MessageID": 1,
			"NavigationalStatus": 0,
			"Sog": 123,
			"Timestamp": 56,
			"TrueHeading": 181,
			"Type": 70,
			"UserID": 366999712,
			"Valid": true
		}
	},
	"MessageType": "PositionReport",
	"Metadata": {
		"MMSI": 366999712,
		"ShipName": "STURGEON MOON",
		"latitude": 42.036,
		"longitude": -73.925,
		"time_utc": "2024-05-01 12:34:58.504345 +0000 UTC"
	}
}`

func newPositionPacket() Packet {
	return Packet{
		MsgType: MSG_TYPE_POSITION,
		Msg: Message{
			PositionReport: PositionReport{
				Cog:         1805,
				Latitude:    42.036,
				Longitude:   -73.925,
				Sog:         123,
				Timestamp:   56,
				TrueHeading: 181,
				Type:        70,
				UserID:      366999712,
				Valid:       true,
			},
		},
		Metadata: Metadata{
			MMSI:     366999712,
			ShipName: "STURGEON MOON ",
			TimeUtc:  "2024-05-01 12:34:58.504345 +0000 UTC",
		},
	}
}

func TestDecodePacket(t *testing.T) {
	p, err := DecodePacket([]byte(rawPositionFrame))
	if err != nil {
		t.Fatalf("DecodePacket: %v", err)
	}
	if p.MsgType != MSG_TYPE_POSITION {
		t.Errorf("MsgType = %q, want %q", p.MsgType, MSG_TYPE_POSITION)
	}
	if p.Metadata.MMSI != 366999712 {
		t.Errorf("Metadata.MMSI = %d, want 366999712", p.Metadata.MMSI)
	}
	if p.Msg.PositionReport.Sog != 123 {
		t.Errorf("Sog = %d, want 123", p.Msg.PositionReport.Sog)
	}

	if _, err := DecodePacket([]byte(`{"MessageType": `)); err == nil {
		t.Error("DecodePacket accepted truncated json")
	}
}

func TestPositionEventNormalization(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Packet)
		want func(t *testing.T, ev PositionEvent)
	}{
		{
			name: "nominal tenths conversion",
			mod:  func(p *Packet) {},
			want: func(t *testing.T, ev PositionEvent) {
				if !ev.SogValid || ev.Sog != 12.3 {
					t.Errorf("sog = %v valid=%v, want 12.3 valid", ev.Sog, ev.SogValid)
				}
				if !ev.CogValid || ev.Cog != 180.5 {
					t.Errorf("cog = %v valid=%v, want 180.5 valid", ev.Cog, ev.CogValid)
				}
				if !ev.HeadingValid || ev.Heading != 181 {
					t.Errorf("heading = %v valid=%v, want 181 valid", ev.Heading, ev.HeadingValid)
				}
				if ev.ShipType != 70 {
					t.Errorf("ship type = %d, want 70", ev.ShipType)
				}
				if ev.Name != "STURGEON MOON" {
					t.Errorf("name = %q, want trimmed ship name", ev.Name)
				}
			},
		},
		{
			name: "sog sentinel",
			mod:  func(p *Packet) { p.Msg.PositionReport.Sog = SOG_UNAVAILABLE },
			want: func(t *testing.T, ev PositionEvent) {
				if ev.SogValid {
					t.Error("sog 1023 decoded as valid")
				}
			},
		},
		{
			name: "sog above sentinel",
			mod:  func(p *Packet) { p.Msg.PositionReport.Sog = 1100 },
			want: func(t *testing.T, ev PositionEvent) {
				if ev.SogValid {
					t.Error("sog 1100 decoded as valid")
				}
			},
		},
		{
			name: "sog boundary",
			mod:  func(p *Packet) { p.Msg.PositionReport.Sog = 1022 },
			want: func(t *testing.T, ev PositionEvent) {
				if !ev.SogValid || ev.Sog != 102.2 {
					t.Errorf("sog = %v valid=%v, want 102.2 valid", ev.Sog, ev.SogValid)
				}
			},
		},
		{
			name: "cog sentinel",
			mod:  func(p *Packet) { p.Msg.PositionReport.Cog = COG_UNAVAILABLE },
			want: func(t *testing.T, ev PositionEvent) {
				if ev.CogValid {
					t.Error("cog 3600 decoded as valid")
				}
			},
		},
		{
			name: "cog boundary",
			mod:  func(p *Packet) { p.Msg.PositionReport.Cog = 3599 },
			want: func(t *testing.T, ev PositionEvent) {
				if !ev.CogValid || ev.Cog != 359.9 {
					t.Errorf("cog = %v valid=%v, want 359.9 valid", ev.Cog, ev.CogValid)
				}
			},
		},
		{
			name: "heading sentinel",
			mod:  func(p *Packet) { p.Msg.PositionReport.TrueHeading = HEADING_UNAVAILABLE },
			want: func(t *testing.T, ev PositionEvent) {
				if ev.HeadingValid {
					t.Error("heading 511 decoded as valid")
				}
			},
		},
		{
			name: "ship type absent",
			mod:  func(p *Packet) { p.Msg.PositionReport.Type = 0 },
			want: func(t *testing.T, ev PositionEvent) {
				if ev.ShipType != SHIPTYPE_UNKNOWN {
					t.Errorf("ship type = %d, want unknown", ev.ShipType)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPositionPacket()
			tt.mod(&p)
			ev, err := p.PositionEvent()
			if err != nil {
				t.Fatalf("PositionEvent: %v", err)
			}
			tt.want(t, ev)
		})
	}
}

func TestPositionEventIdentity(t *testing.T) {
	p := newPositionPacket()
	p.Msg.PositionReport.UserID = 0
	ev, err := p.PositionEvent()
	if err != nil {
		t.Fatalf("PositionEvent: %v", err)
	}
	if ev.MMSI != 366999712 {
		t.Errorf("mmsi = %d, want envelope fallback 366999712", ev.MMSI)
	}

	p.Metadata.MMSI = 0
	if _, err := p.PositionEvent(); !errors.Is(err, ErrNoVesselID) {
		t.Errorf("err = %v, want ErrNoVesselID", err)
	}
}

func TestPositionEventCoordinates(t *testing.T) {
	p := newPositionPacket()
	p.Msg.PositionReport.Latitude = 91 // AIS "not available"
	if _, err := p.PositionEvent(); !errors.Is(err, ErrBadCoordinates) {
		t.Errorf("err = %v, want ErrBadCoordinates", err)
	}

	p = newPositionPacket()
	p.Msg.PositionReport.Longitude = 181
	if _, err := p.PositionEvent(); !errors.Is(err, ErrBadCoordinates) {
		t.Errorf("err = %v, want ErrBadCoordinates", err)
	}
}

func TestEventTime(t *testing.T) {
	tests := []struct {
		name    string
		receipt time.Time
		sec     int
		want    time.Time
	}{
		{
			name:    "second merged into receipt minute",
			receipt: time.Date(2024, time.May, 1, 12, 34, 58, 504345000, time.UTC),
			sec:     56,
			want:    time.Date(2024, time.May, 1, 12, 34, 56, 0, time.UTC),
		},
		{
			name:    "no rollback across minute boundary",
			receipt: time.Date(2024, time.May, 1, 12, 35, 2, 0, time.UTC),
			sec:     56,
			want:    time.Date(2024, time.May, 1, 12, 35, 56, 0, time.UTC),
		},
		{
			name:    "out of range second keeps receipt time",
			receipt: time.Date(2024, time.May, 1, 12, 34, 58, 0, time.UTC),
			sec:     60,
			want:    time.Date(2024, time.May, 1, 12, 34, 58, 0, time.UTC),
		},
		{
			name:    "negative second keeps receipt time",
			receipt: time.Date(2024, time.May, 1, 12, 34, 58, 0, time.UTC),
			sec:     -3,
			want:    time.Date(2024, time.May, 1, 12, 34, 58, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := eventTime(tt.receipt, tt.sec); !got.Equal(tt.want) {
				t.Errorf("eventTime = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReceiptTime(t *testing.T) {
	p := newPositionPacket()
	want := time.Date(2024, time.May, 1, 12, 34, 58, 504345000, time.UTC)
	if got := p.ReceiptTime(); !got.Equal(want) {
		t.Errorf("ReceiptTime = %v, want %v", got, want)
	}

	p.Metadata.TimeUtc = "not a timestamp"
	got := p.ReceiptTime()
	if d := time.Since(got); d < 0 || d > 5*time.Second {
		t.Errorf("fallback ReceiptTime = %v, want near now", got)
	}
}

func TestStaticEvent(t *testing.T) {
	p := Packet{
		MsgType: MSG_TYPE_STATIC,
		Msg: Message{
			ShipStaticData: ShipStaticData{
				Destination: "ALBANY NY ",
				Name:        "HUDSON TRADER   ",
				Type:        80,
				UserID:      367001234,
			},
		},
		Metadata: Metadata{
			MMSI:     367001234,
			ShipName: "HUDSON TRADER",
			TimeUtc:  "2024-05-01 12:40:00.1 +0000 UTC",
		},
	}

	ev, err := p.StaticEvent()
	if err != nil {
		t.Fatalf("StaticEvent: %v", err)
	}
	if ev.Name != "HUDSON TRADER" {
		t.Errorf("name = %q, want trimmed payload name", ev.Name)
	}
	if ev.ShipType != 80 {
		t.Errorf("ship type = %d, want 80", ev.ShipType)
	}
	if ev.Destination != "ALBANY NY" {
		t.Errorf("destination = %q, want trimmed", ev.Destination)
	}

	p.Msg.ShipStaticData.Name = "   "
	ev, err = p.StaticEvent()
	if err != nil {
		t.Fatalf("StaticEvent: %v", err)
	}
	if ev.Name != "HUDSON TRADER" {
		t.Errorf("name = %q, want envelope fallback", ev.Name)
	}

	p.Msg.ShipStaticData.UserID = 0
	p.Metadata.MMSI = 0
	if _, err := p.StaticEvent(); !errors.Is(err, ErrNoVesselID) {
		t.Errorf("err = %v, want ErrNoVesselID", err)
	}
}

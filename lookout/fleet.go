package lookout

import (
	"sync"

	"github.com/ahamadey27/wake-app/aisstream"
)

// VesselStatics are the best-known identity attributes for one vessel,
// fused from every report seen during a scan.
type VesselStatics struct {
	Name        string `json:"name"`
	ShipType    int    `json:"shipType"`
	Destination string `json:"destination"`
}

// Fleet is the per-scan vessel state: static attributes merged across
// reports and the most recent position per vessel. One Fleet serves one
// scan and is discarded with it. Safe for concurrent use.
type Fleet struct {
	staticsLock   sync.RWMutex
	statics       map[int]*VesselStatics
	positionsLock sync.RWMutex
	positions     map[int]aisstream.PositionEvent
}

func NewFleet() *Fleet {
	return &Fleet{
		statics:   map[int]*VesselStatics{},
		positions: map[int]aisstream.PositionEvent{},
	}
}

// UpdateStatic merges field by field: an arriving value replaces whatever
// is cached, except that an absent value never erases a present one.
func (f *Fleet) UpdateStatic(ev aisstream.StaticEvent) {
	f.staticsLock.Lock()
	defer f.staticsLock.Unlock()

	s, ok := f.statics[ev.MMSI]
	if !ok {
		s = &VesselStatics{}
		f.statics[ev.MMSI] = s
	}
	if ev.Name != "" {
		s.Name = ev.Name
	}
	if ev.ShipType != aisstream.SHIPTYPE_UNKNOWN {
		s.ShipType = ev.ShipType
	}
	if ev.Destination != "" {
		s.Destination = ev.Destination
	}
}

// RecordPosition keeps the most recent report per vessel by event time, so
// out-of-order arrival cannot regress a track. Identity fields riding on a
// position report enrich the statics even when the report itself is stale.
func (f *Fleet) RecordPosition(ev aisstream.PositionEvent) {
	if ev.Name != "" || ev.ShipType != aisstream.SHIPTYPE_UNKNOWN {
		f.UpdateStatic(aisstream.StaticEvent{
			MMSI:     ev.MMSI,
			Name:     ev.Name,
			ShipType: ev.ShipType,
			At:       ev.At,
		})
	}

	f.positionsLock.Lock()
	defer f.positionsLock.Unlock()

	if cur, ok := f.positions[ev.MMSI]; ok && !ev.At.After(cur.At) {
		return
	}
	f.positions[ev.MMSI] = ev
}

// Lookup returns a copy of the vessel's cached statics.
func (f *Fleet) Lookup(mmsi int) (VesselStatics, bool) {
	f.staticsLock.RLock()
	defer f.staticsLock.RUnlock()

	s, ok := f.statics[mmsi]
	if !ok {
		return VesselStatics{}, false
	}
	return *s, true
}

// Snapshot returns the latest position per vessel. Order is not defined.
func (f *Fleet) Snapshot() []aisstream.PositionEvent {
	f.positionsLock.RLock()
	defer f.positionsLock.RUnlock()

	out := make([]aisstream.PositionEvent, 0, len(f.positions))
	for _, ev := range f.positions {
		out = append(out, ev)
	}
	return out
}

// Vessels reports how many distinct vessels have position state.
func (f *Fleet) Vessels() int {
	f.positionsLock.RLock()
	defer f.positionsLock.RUnlock()
	return len(f.positions)
}

// Package lookout turns a time-boxed slice of the AIS stream into an answer
// to one question: which freighters will pass the reference point soon, and
// when. Each scan owns its own stream session and vessel state; nothing
// carries over between scans.
package lookout

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/ahamadey27/wake-app/aisstream"
	"github.com/ahamadey27/wake-app/geo"
	"github.com/ahamadey27/wake-app/metrics"
	"github.com/google/uuid"
)

// Sighting is the last known position of one vessel seen during a scan.
// Zero SpeedKnots/CourseDeg with the field omitted means unreported.
type Sighting struct {
	MMSI       int       `json:"mmsi"`
	Name       string    `json:"name"`
	Class      string    `json:"class"`
	Pos        geo.Point `json:"pos"`
	SpeedKnots float64   `json:"speedKnots,omitempty"`
	CourseDeg  float64   `json:"courseDeg,omitempty"`
	At         time.Time `json:"at"`
}

// Result is everything one scan produced. Approaches is never nil; an empty
// list means no qualifying vessel, whether the water was quiet or the
// stream was unreachable. Partial flags the latter for operators.
type Result struct {
	ScanID     string     `json:"scanId"`
	Started    time.Time  `json:"started"`
	Finished   time.Time  `json:"finished"`
	Query      Query      `json:"query"`
	Approaches []Approach `json:"approaches"`
	Sightings  []Sighting `json:"sightings"`
	Frames     int        `json:"frames"`
	Skipped    int        `json:"skipped"`
	Partial    bool       `json:"partial"`
}

// Lookout runs approach scans against one upstream stream config.
type Lookout struct {
	stream aisstream.Config
	logger *slog.Logger
}

func New(stream aisstream.Config, logger *slog.Logger) *Lookout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lookout{stream: stream, logger: logger}
}

// Scan opens one stream session, drains it until the budget elapses or the
// remote closes, and filters the final snapshot. It returns an error only
// for configuration problems found before any connection attempt; a dead or
// empty stream yields an empty result instead.
func (l *Lookout) Scan(ctx context.Context, q Query) (*Result, error) {
	res := &Result{
		ScanID:     uuid.NewString(),
		Started:    time.Now().UTC(),
		Query:      q,
		Approaches: []Approach{},
		Sightings:  []Sighting{},
	}
	logger := l.logger.With("scan", res.ScanID)

	sess, err := aisstream.NewSession(l.stream, logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, q.Budget())
	defer cancel()

	fleet := NewFleet()

	if err := sess.Open(ctx); err != nil {
		logger.Error("stream open failed", "error", err)
		res.Partial = true
		return l.finish(res, fleet, q, logger), nil
	}

	l.drain(ctx, sess, fleet, res, logger)

	if err := sess.Err(); err != nil {
		logger.Error("stream ended abnormally", "error", err, "state", sess.State().String())
		res.Partial = true
	}

	return l.finish(res, fleet, q, logger), nil
}

// drain consumes frames until the session ends. A long quiet spell triggers
// a ping so a dead link fails fast instead of eating the whole budget.
func (l *Lookout) drain(ctx context.Context, sess *aisstream.Session, fleet *Fleet, res *Result, logger *slog.Logger) {
	stall := time.Duration(aisstream.STALL_INTERVAL) * time.Second
	timer := time.NewTimer(stall)
	defer timer.Stop()

	for {
		select {
		case b, ok := <-sess.Frames:
			if !ok {
				return
			}
			l.ingest(b, fleet, res, logger)

			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(stall)

		case <-timer.C:
			if err := sess.Ping(ctx); err != nil {
				logger.Warn("ping during receive stall failed", "error", err)
			}
			timer.Reset(stall)

		case <-ctx.Done():
			// The reader sees the same cancellation; wait for Frames to
			// close so the session settles its final state.
			for range sess.Frames {
			}
			return
		}
	}
}

// ingest decodes one frame into the fleet. Bad frames are counted and
// skipped; they never end the session.
func (l *Lookout) ingest(b []byte, fleet *Fleet, res *Result, logger *slog.Logger) {
	res.Frames++
	metrics.FramesIngested.Inc()

	p, err := aisstream.DecodePacket(b)
	if err != nil {
		res.Skipped++
		metrics.FramesSkipped.WithLabelValues("decode").Inc()
		logger.Debug("dropped undecodable frame", "error", err)
		return
	}

	switch p.MsgType {
	case aisstream.MSG_TYPE_POSITION:
		ev, err := p.PositionEvent()
		if err != nil {
			res.Skipped++
			metrics.FramesSkipped.WithLabelValues("position").Inc()
			logger.Debug("dropped position report", "error", err)
			return
		}
		fleet.RecordPosition(ev)

	case aisstream.MSG_TYPE_STATIC:
		ev, err := p.StaticEvent()
		if err != nil {
			res.Skipped++
			metrics.FramesSkipped.WithLabelValues("static").Inc()
			logger.Debug("dropped static report", "error", err)
			return
		}
		fleet.UpdateStatic(ev)

	default:
		res.Skipped++
		metrics.FramesSkipped.WithLabelValues("kind").Inc()
		logger.Debug("dropped frame of unexpected kind", "kind", p.MsgType)
	}
}

// finish runs the filter over the final snapshot and settles the result.
func (l *Lookout) finish(res *Result, fleet *Fleet, q Query, logger *slog.Logger) *Result {
	snapshot := fleet.Snapshot()
	res.Approaches = Approaches(q, snapshot, fleet)
	res.Sightings = assembleSightings(snapshot, fleet)
	res.Finished = time.Now().UTC()

	outcome := "complete"
	if res.Partial {
		outcome = "partial"
	}
	metrics.ScansTotal.WithLabelValues(outcome).Inc()
	metrics.ScanDuration.Observe(res.Finished.Sub(res.Started).Seconds())
	metrics.ScanApproaches.Set(float64(len(res.Approaches)))

	logger.Info("scan finished",
		"outcome", outcome,
		"frames", res.Frames,
		"skipped", res.Skipped,
		"vessels", len(res.Sightings),
		"approaches", len(res.Approaches),
		"elapsed", res.Finished.Sub(res.Started).Round(time.Millisecond).String(),
	)
	return res
}

// assembleSightings joins the position snapshot with cached statics, sorted
// by MMSI so the same snapshot always lists the same way.
func assembleSightings(snapshot []aisstream.PositionEvent, fleet *Fleet) []Sighting {
	out := make([]Sighting, 0, len(snapshot))
	for _, ev := range snapshot {
		statics, _ := fleet.Lookup(ev.MMSI)
		name := statics.Name
		if name == "" {
			name = ev.Name
		}

		s := Sighting{
			MMSI:  ev.MMSI,
			Name:  name,
			Class: Classify(statics.ShipType).String(),
			Pos:   ev.Pos,
			At:    ev.At,
		}
		if ev.SogValid {
			s.SpeedKnots = ev.Sog
		}
		if ev.CogValid {
			s.CourseDeg = ev.Cog
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].MMSI < out[j].MMSI })
	return out
}

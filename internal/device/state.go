// Package device tracks what is known about the connected watch.
package device

import (
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/starford/wristlog/internal/protocol"
)

// Snapshot is a copy of the watch state.
type Snapshot struct {
	Name        string     `json:"name"`
	Address     string     `json:"address,omitempty"`
	Connected   bool       `json:"connected"`
	Battery     *uint8     `json:"battery,omitempty"`
	PairKey     string     `json:"pair_key,omitempty"`
	Firmware    string     `json:"firmware,omitempty"`
	Clock       string     `json:"clock,omitempty"`
	LastPulse   string     `json:"last_pulse,omitempty"`
	SilentMode  string     `json:"silent_mode,omitempty"`
	Sport       string     `json:"sport,omitempty"`
	LiveRate    *uint8     `json:"live_heart_rate,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	LastSeen    *time.Time `json:"last_seen,omitempty"`
	Undecoded   int        `json:"undecoded"`
	SyncedHR    int        `json:"synced_heart_rate_days"`
	SyncedSteps int        `json:"synced_steps_days"`
}

// State is the shared, lock-guarded watch state. The zero value is ready to use.
type State struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewState returns a state for the watch called name.
func NewState(name string) *State {
	return &State{snap: Snapshot{Name: name}, now: time.Now}
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.snap
	if out.Battery != nil {
		v := *out.Battery
		out.Battery = &v
	}
	if out.LiveRate != nil {
		v := *out.LiveRate
		out.LiveRate = &v
	}
	if out.LastSeen != nil {
		v := *out.LastSeen
		out.LastSeen = &v
	}
	return out
}

func (s *State) update(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.snap)
}

func (s *State) touch(snap *Snapshot) {
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	t := now()
	snap.LastSeen = &t
}

// SetConnected records the connection status and the peer address.
func (s *State) SetConnected(connected bool, address string) {
	s.update(func(snap *Snapshot) {
		snap.Connected = connected
		if address != "" {
			snap.Address = address
		}
	})
}

// SetError records the latest failure. An empty message clears it.
func (s *State) SetError(msg string) {
	s.update(func(snap *Snapshot) { snap.LastError = msg })
}

// CountUndecoded increments the number of notifications that could not be classified.
func (s *State) CountUndecoded() {
	s.update(func(snap *Snapshot) { snap.Undecoded++ })
}

// AddSynced counts a day touched by a merge of metric ("hr" or "rs").
func (s *State) AddSynced(metric string) {
	s.update(func(snap *Snapshot) {
		switch metric {
		case "hr":
			snap.SyncedHR++
		case "rs":
			snap.SyncedSteps++
		}
	})
}

// Apply folds a decoded response into the state. It reports whether res changed anything.
func (s *State) Apply(res protocol.Response) bool {
	changed := true
	s.update(func(snap *Snapshot) {
		switch r := res.(type) {
		case *protocol.BatteryResponse:
			v := r.Percentage
			snap.Battery = &v
		case *protocol.PairKeyResponse:
			snap.PairKey = hex.EncodeToString(r.Key[:])
		case *protocol.FirmwareResponse:
			snap.Firmware = r.Version()
		case *protocol.SetDateTimeResponse:
			snap.Clock = fmt.Sprintf("%s %02d:%02d:%02d", r.Date, r.Hour, r.Minute, r.Second)
		case *protocol.DevicePulseResponse:
			snap.LastPulse = r.Type.String()
		case *protocol.DevicePulseAltResponse:
			snap.LastPulse = r.Type.String()
		case *protocol.SilentModeChangeResponse:
			snap.SilentMode = r.Mode.String()
		case *protocol.SportStatusResponse:
			snap.Sport = r.Action.String() + " " + r.Kind.String()
		case *protocol.HeartRateMenuPeriodicResponse:
			v := r.HeartRate
			snap.LiveRate = &v
		case *protocol.HeartRateMenuLeavingResponse:
			v := r.HeartRate
			snap.LiveRate = &v
		case *protocol.HeartRateMenuDataResponse:
			v := r.HeartRate
			snap.LiveRate = &v
		default:
			changed = false
		}
		s.touch(snap)
	})
	return changed
}

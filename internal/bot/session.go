package bot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/grimleaf/grimleaf/internal/humanize"
)

// processWindow bounds the rolling per-item timing sample.
const processWindow = 50

// Stats accumulates one session's counters. The controller tick loop is
// the only writer; the status server and notifiers read snapshots
// concurrently.
type Stats struct {
	mu sync.RWMutex

	id        string
	profile   string
	startedAt time.Time

	state          string
	fatigue        humanize.BehaviorStatus
	itemsProcessed int
	bankTrips      int
	cycles         int
	misclicks      int
	breaks         int
	recoveries     int
	glances        int

	processTimes []time.Duration
}

func NewStats(profile string) *Stats {
	return &Stats{
		id:        uuid.NewString(),
		profile:   profile,
		startedAt: time.Now(),
		state:     Idle.String(),
	}
}

func (s *Stats) ID() string {
	return s.id
}

// RecordItem counts one processed item. d is the gap since the previous
// item in the batch; non-positive gaps (first item of a batch) are
// counted but excluded from the rolling timing window.
func (s *Stats) RecordItem(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.itemsProcessed++
	if d > 0 {
		s.processTimes = append(s.processTimes, d)
		if len(s.processTimes) > processWindow {
			s.processTimes = s.processTimes[1:]
		}
	}
}

func (s *Stats) RecordBankTrip() {
	s.mu.Lock()
	s.bankTrips++
	s.mu.Unlock()
}

func (s *Stats) RecordCycle() {
	s.mu.Lock()
	s.cycles++
	s.mu.Unlock()
}

func (s *Stats) RecordMisclick() {
	s.mu.Lock()
	s.misclicks++
	s.mu.Unlock()
}

func (s *Stats) RecordBreakTaken() {
	s.mu.Lock()
	s.breaks++
	s.mu.Unlock()
}

func (s *Stats) RecordRecovery() {
	s.mu.Lock()
	s.recoveries++
	s.mu.Unlock()
}

func (s *Stats) RecordGlance() {
	s.mu.Lock()
	s.glances++
	s.mu.Unlock()
}

func (s *Stats) SetState(state string) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// SetFatigue caches the behavior readout so concurrent readers never
// touch the (unsynchronized) behavior model itself.
func (s *Stats) SetFatigue(b humanize.BehaviorStatus) {
	s.mu.Lock()
	s.fatigue = b
	s.mu.Unlock()
}

// Snapshot is the read-only session view served over HTTP, broadcast on
// the websocket and attached to notifications.
type Snapshot struct {
	ID             string                  `json:"id"`
	Profile        string                  `json:"profile"`
	StartedAt      time.Time               `json:"startedAt"`
	UptimeSeconds  float64                 `json:"uptimeSeconds"`
	State          string                  `json:"state"`
	ItemsProcessed int                     `json:"itemsProcessed"`
	ItemsPerHour   float64                 `json:"itemsPerHour"`
	AvgProcessMs   float64                 `json:"avgProcessMs"`
	BankTrips      int                     `json:"bankTrips"`
	Cycles         int                     `json:"cycles"`
	Misclicks      int                     `json:"misclicks"`
	Breaks         int                     `json:"breaks"`
	Recoveries     int                     `json:"recoveries"`
	DriftGlances   int                     `json:"driftGlances"`
	Fatigue        humanize.BehaviorStatus `json:"fatigue"`
}

func (s *Stats) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uptime := time.Since(s.startedAt)
	perHour := 0.0
	if uptime > time.Minute {
		perHour = float64(s.itemsProcessed) / uptime.Hours()
	}
	avgMs := 0.0
	if len(s.processTimes) > 0 {
		var sum time.Duration
		for _, d := range s.processTimes {
			sum += d
		}
		avgMs = float64(sum.Milliseconds()) / float64(len(s.processTimes))
	}

	return Snapshot{
		ID:             s.id,
		Profile:        s.profile,
		StartedAt:      s.startedAt,
		UptimeSeconds:  uptime.Seconds(),
		State:          s.state,
		ItemsProcessed: s.itemsProcessed,
		ItemsPerHour:   perHour,
		AvgProcessMs:   avgMs,
		BankTrips:      s.bankTrips,
		Cycles:         s.cycles,
		Misclicks:      s.misclicks,
		Breaks:         s.breaks,
		Recoveries:     s.recoveries,
		DriftGlances:   s.glances,
		Fatigue:        s.fatigue,
	}
}

// Summary is the end-of-session record written to disk for inspection.
type Summary struct {
	Snapshot
	Reason  string    `json:"reason"`
	EndedAt time.Time `json:"endedAt"`
}

// WriteSummary persists the final session summary as JSON under dir and
// returns the file path.
func (s *Stats) WriteSummary(dir, reason string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating summary directory: %w", err)
	}
	sum := Summary{
		Snapshot: s.Snapshot(),
		Reason:   reason,
		EndedAt:  time.Now(),
	}
	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding session summary: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("session_%s.json", s.id))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing session summary: %w", err)
	}
	return path, nil
}

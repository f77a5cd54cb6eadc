// Package session holds the idle counter and decides when the warning and
// suspend actions are due.
//
// The machine is driven once per tick by the daemon loop, which is its only
// owner; nothing here is safe for concurrent use and nothing needs to be.
package session

// Outcome is what a single tick asks the caller to do.
type Outcome int

const (
	// Idle means the cursor did not move and no threshold was crossed
	Idle Outcome = iota
	// Moved means the cursor moved; the counter was reset and thresholds skipped
	Moved
	// Warn asks for the hibernation warning notification
	Warn
	// Hibernate asks for the suspend action; the counter was already reset
	Hibernate
)

func (o Outcome) String() string {
	switch o {
	case Moved:
		return "moved"
	case Warn:
		return "warn"
	case Hibernate:
		return "hibernate"
	default:
		return "idle"
	}
}

// Mode selects how the counter is compared against thresholds.
type Mode int

const (
	// Reached fires a threshold once the counter is at or past it, at most
	// once per idle episode.
	Reached Mode = iota
	// Exact fires only on the tick where the counter equals the threshold.
	Exact
)

// ParseMode accepts "reached" and "exact".
func ParseMode(name string) (Mode, bool) {
	switch name {
	case "reached":
		return Reached, true
	case "exact":
		return Exact, true
	default:
		return Reached, false
	}
}

// Thresholds are idle durations in ticks.
type Thresholds struct {
	Warning   uint32
	Hibernate uint32
}

// Policy picks thresholds by workspace occupancy.
type Policy struct {
	Windows Thresholds
	Empty   Thresholds
	Mode    Mode
}

// DefaultPolicy waits 25/30 minutes with windows open and 5/10 minutes on
// an empty workspace.
func DefaultPolicy() Policy {
	return Policy{
		Windows: Thresholds{Warning: 1500, Hibernate: 1800},
		Empty:   Thresholds{Warning: 300, Hibernate: 600},
		Mode:    Reached,
	}
}

// For returns the thresholds for a workspace with or without windows.
func (p Policy) For(hasWindows bool) Thresholds {
	if hasWindows {
		return p.Windows
	}
	return p.Empty
}

// State is the whole of the daemon's memory between ticks.
type State struct {
	// IdleSeconds counts ticks since the cursor last moved, starting at 1.
	IdleSeconds uint32
	// LastCursor is the previous tick's cursor reading.
	LastCursor string
	// Warned is set once the warning fired in the current idle episode.
	Warned bool
}

// Step reports what happened on one tick.
type Step struct {
	IdleSeconds uint32
	Outcome     Outcome
	// Thresholds is zero when the cursor moved, since occupancy is not queried then.
	Thresholds Thresholds
}

// Machine is the idle/hibernation state machine.
type Machine struct {
	policy Policy
	state  State
}

// NewMachine starts in the "just woke up" state.
func NewMachine(policy Policy) *Machine {
	return &Machine{
		policy: policy,
		state:  State{IdleSeconds: 1},
	}
}

// State returns a copy of the current state.
func (m *Machine) State() State {
	return m.state
}

// Step advances one tick with a fresh cursor reading. thresholds is only
// called when the cursor did not move, so the occupancy query it wraps
// runs only when its answer matters.
func (m *Machine) Step(cursor string, thresholds func() Thresholds) Step {
	m.state.IdleSeconds++

	moved := cursor != m.state.LastCursor
	m.state.LastCursor = cursor

	if moved {
		m.reset()
		return Step{IdleSeconds: m.state.IdleSeconds, Outcome: Moved}
	}

	t := thresholds()
	outcome := m.evaluate(t)

	return Step{
		IdleSeconds: m.state.IdleSeconds,
		Outcome:     outcome,
		Thresholds:  t,
	}
}

// MarkActive resets the counter without a cursor reading. The daemon uses
// it when the cursor cannot be read, so a blind tick never counts as idle.
func (m *Machine) MarkActive() {
	m.reset()
}

func (m *Machine) evaluate(t Thresholds) Outcome {
	idle := m.state.IdleSeconds

	if m.policy.Mode == Exact {
		if idle == t.Warning {
			m.state.Warned = true
			return Warn
		}
		if idle == t.Hibernate {
			m.reset()
			return Hibernate
		}
		return Idle
	}

	if !m.state.Warned && idle >= t.Warning {
		m.state.Warned = true
		return Warn
	}
	if idle >= t.Hibernate {
		m.reset()
		return Hibernate
	}
	return Idle
}

func (m *Machine) reset() {
	m.state.IdleSeconds = 1
	m.state.Warned = false
}

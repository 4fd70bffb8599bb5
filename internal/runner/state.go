package runner

// State is the position of the migration runner in its lifecycle.
type State int

// Runner states, in the order a successful run passes through them.
const (
	StateIdle State = iota
	StateTableEnsured
	StateDiffed
	StateApplying
	StateDone
	StateFailed
)

// String returns the lowercase label for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTableEnsured:
		return "table-ensured"
	case StateDiffed:
		return "diffed"
	case StateApplying:
		return "applying"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

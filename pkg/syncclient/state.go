package syncclient

// State tracks the outcome of the most recent optimistic mutation.
type State string

const (
	StateIdle       State = "idle"
	StatePending    State = "pending"
	StateCommitted  State = "committed"
	StateRolledBack State = "rolled_back"
)

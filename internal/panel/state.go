package panel

// State is the lifecycle position of a panel.
type State int

const (
	// Off: rails down, reset idle, nothing sent.
	Off State = iota
	// Prepared: powered, reset released and init script applied.
	Prepared
	// Enabled: prepared and lit.
	Enabled
)

func (s State) String() string {
	switch s {
	case Off:
		return "off"
	case Prepared:
		return "prepared"
	case Enabled:
		return "enabled"
	default:
		return "unknown"
	}
}

// Op names a lifecycle transition.
type Op string

const (
	OpPrepare   Op = "prepare"
	OpEnable    Op = "enable"
	OpDisable   Op = "disable"
	OpUnprepare Op = "unprepare"
)

// Transition describes one completed lifecycle call. Err is the error returned
// to the caller, or for best-effort operations the recorded teardown error.
type Transition struct {
	Op   Op
	From State
	To   State
	Err  error
}

// Failed reports whether the call returned an error. A failed call never
// moves the state; a best-effort call with recorded errors always does.
func (t Transition) Failed() bool {
	return t.Err != nil && t.From == t.To
}

package events

import (
	"time"

	"panelseq/internal/panel"

	"github.com/google/uuid"
)

// Event type constants for kelindar/event.
const (
	TypeTransition uint32 = iota + 1
	TypeSchedule
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// TransitionEvent reports one lifecycle call that was not a no-op.
type TransitionEvent struct {
	ID     string    `json:"id"`
	Panel  string    `json:"panel"`
	Op     string    `json:"op"`
	From   string    `json:"from"`
	To     string    `json:"to"`
	Failed bool      `json:"failed"`
	Code   string    `json:"code,omitempty"`
	Error  string    `json:"error,omitempty"`
	At     time.Time `json:"at"`
}

// Type returns the event type identifier for TransitionEvent.
func (e TransitionEvent) Type() uint32 { return TypeTransition }

// Result is "ok", "error" when the call failed, or "degraded" when it
// completed with recorded teardown or backlight errors.
func (e TransitionEvent) Result() string {
	switch {
	case e.Failed:
		return "error"
	case e.Error != "":
		return "degraded"
	default:
		return "ok"
	}
}

// NewTransitionEvent converts a panel transition.
func NewTransitionEvent(name string, t panel.Transition, at time.Time) TransitionEvent {
	ev := TransitionEvent{
		ID:     uuid.NewString(),
		Panel:  name,
		Op:     string(t.Op),
		From:   t.From.String(),
		To:     t.To.String(),
		Failed: t.Failed(),
		At:     at,
	}
	if t.Err != nil {
		ev.Error = t.Err.Error()
		ev.Code = string(panel.CodeOf(t.Err))
	}
	return ev
}

// ScheduleEvent reports a cron-triggered sleep or wake.
type ScheduleEvent struct {
	ID     string    `json:"id"`
	Action string    `json:"action"`
	Error  string    `json:"error,omitempty"`
	At     time.Time `json:"at"`
}

// NewScheduleEvent stamps a cron action with a fresh ID.
func NewScheduleEvent(action string, err error, at time.Time) ScheduleEvent {
	ev := ScheduleEvent{ID: uuid.NewString(), Action: action, At: at}
	if err != nil {
		ev.Error = err.Error()
	}
	return ev
}

// Type returns the event type identifier for ScheduleEvent.
func (e ScheduleEvent) Type() uint32 { return TypeSchedule }

package sim

import (
	"fmt"
	"sort"

	"github.com/san-kum/cartpole/internal/dynamo"
)

type Action string

const (
	ActionDisturb Action = "disturb"
	ActionGains   Action = "gains"
	ActionReset   Action = "reset"
)

// Event is an operator action scripted at a run-relative tick. It is applied
// before that tick is simulated.
type Event struct {
	Tick   int      `yaml:"tick" json:"tick"`
	Action Action   `yaml:"action" json:"action"`
	X      float64  `yaml:"x,omitempty" json:"x,omitempty"`
	P      *float64 `yaml:"p,omitempty" json:"p,omitempty"`
	D      *float64 `yaml:"d,omitempty" json:"d,omitempty"`
}

func (e Event) Validate() error {
	if e.Tick < 0 {
		return fmt.Errorf("%w: event tick must not be negative, got %d", dynamo.ErrParameterBounds, e.Tick)
	}
	switch e.Action {
	case ActionDisturb, ActionReset:
	case ActionGains:
		if e.P == nil && e.D == nil {
			return fmt.Errorf("%w: gains event at tick %d sets neither p nor d", dynamo.ErrParameterBounds, e.Tick)
		}
	default:
		return fmt.Errorf("%w: unknown action %q", dynamo.ErrParameterBounds, e.Action)
	}
	return nil
}

type RunConfig struct {
	Ticks  int
	Events []Event
	// Record keeps every frame in the result.
	Record bool
}

func (rc RunConfig) validate() error {
	if rc.Ticks <= 0 {
		return fmt.Errorf("%w: ticks must be positive, got %d", dynamo.ErrParameterBounds, rc.Ticks)
	}
	for _, ev := range rc.Events {
		if err := ev.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (rc RunConfig) sortedEvents() []Event {
	evs := make([]Event, len(rc.Events))
	copy(evs, rc.Events)
	sort.SliceStable(evs, func(i, j int) bool { return evs[i].Tick < evs[j].Tick })
	return evs
}

type Result struct {
	Frames     []dynamo.Frame
	Final      dynamo.Frame
	Metrics    map[string]float64
	TicksTaken int
	Errors     []error
}

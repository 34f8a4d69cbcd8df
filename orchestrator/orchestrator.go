package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/vsp-core/vsp/silstate"
	"github.com/vsp-core/vsp/vsp/engine"
)

// FeedbackHook runs once per Tick, after the Quantum stage and before
// the next Sense stage. last is the state as it stood at the end of the
// previous Tick (before any earlier feedback was applied to it); next is
// the state this Tick just produced. The hook returns the state the next
// Tick's Sense stage will see. A typical hook folds LF (layer 15) from
// next back into L0.
type FeedbackHook func(last, next silstate.State) silstate.State

// Registration is one component entry in a stage's invocation list;
// registration order is invocation order within that stage.
type Registration struct {
	Component Component
}

// Orchestrator owns the global SilState, the per-stage component
// registry, the event bus, and drives Tick. Safe for concurrent use: the
// state lock follows a readers-writer discipline.
type Orchestrator struct {
	mu    sync.RWMutex
	state silstate.State

	registry [len(Stages)][]Registration
	bus      *EventBus
	feedback FeedbackHook

	lastState silstate.State
}

// New returns an Orchestrator with a Vacuum initial state and a
// 256-event history bus.
func New() *Orchestrator {
	return &Orchestrator{
		state: silstate.Vacuum(),
		bus:   NewEventBus(256),
	}
}

// Bus returns the orchestrator's event bus.
func (o *Orchestrator) Bus() *EventBus { return o.bus }

// SetFeedbackHook installs the hook run between Quantum and the next
// Sense; pass nil to detach.
func (o *Orchestrator) SetFeedbackHook(fn FeedbackHook) { o.feedback = fn }

// Register adds c to its declared stage's invocation list.
func (o *Orchestrator) Register(c Component) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.registry[c.Stage()] = append(o.registry[c.Stage()], Registration{Component: c})
}

// State returns a snapshot of the current global SilState.
func (o *Orchestrator) State() silstate.State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// LastState returns the state as it stood at the end of the most
// recently completed Tick, before any feedback hook ran.
func (o *Orchestrator) LastState() silstate.State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lastState
}

// Tick advances exactly one full cycle through all seven stages in fixed
// order, checking ctx for cancellation between (never within) stages.
func (o *Orchestrator) Tick(ctx context.Context) error {
	for _, stage := range Stages {
		select {
		case <-ctx.Done():
			return fmt.Errorf("orchestrator: tick cancelled at stage %s: %w", stage, ctx.Err())
		default:
		}
		if err := o.runStage(ctx, stage); err != nil {
			return err
		}
	}

	o.mu.Lock()
	prevLast := o.lastState
	o.lastState = o.state
	if o.feedback != nil {
		o.state = o.feedback(prevLast, o.lastState)
	}
	o.mu.Unlock()
	return nil
}

// runStage invokes every component registered for stage. Declared
// read-only components (Writes()==0) run concurrently via a WaitGroup
// since they cannot conflict; any declared writer runs sequentially
// under the write lock, so that
// only non-overlapping readers may run in parallel.
func (o *Orchestrator) runStage(ctx context.Context, stage Stage) error {
	regs := o.registryFor(stage)

	var readers, writers []Registration
	for _, r := range regs {
		if r.Component.Writes() == 0 {
			readers = append(readers, r)
		} else {
			writers = append(writers, r)
		}
	}

	if len(readers) > 0 {
		var wg sync.WaitGroup
		for _, r := range readers {
			wg.Add(1)
			go func(r Registration) {
				defer wg.Done()
				o.invoke(ctx, stage, r.Component, false)
			}(r)
		}
		wg.Wait()
	}

	for _, r := range writers {
		o.invoke(ctx, stage, r.Component, true)
	}

	o.bus.Publish(Event{Kind: EventStageComplete, Source: "orchestrator", Stage: stage, Layer: -1, Message: "stage complete"})
	return nil
}

func (o *Orchestrator) registryFor(stage Stage) []Registration {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]Registration(nil), o.registry[stage]...)
}

// invoke runs one component's method for stage, recovering any panic and
// turning any error — panic or returned — into an EventComponentFailure
// event (not EventError). The component is skipped
// for this tick; the pipeline itself never aborts.
func (o *Orchestrator) invoke(ctx context.Context, stage Stage, c Component, write bool) {
	defer func() {
		if r := recover(); r != nil {
			o.bus.Publish(Event{
				Kind: EventComponentFailure, Source: c.ID(), Stage: stage, Layer: -1,
				Message: fmt.Sprintf("panic: %v", r), Err: engine.ErrStateInvariant,
			})
		}
	}()

	var err error
	switch stage {
	case Sense:
		err = o.applySense(ctx, c)
	case Process:
		err = o.applyTransform(ctx, c.Process, write, c.Reads(), c.Writes())
	case Actuate:
		err = o.applyActuate(ctx, c)
	case Network:
		err = o.applyTransform(ctx, c.Network, write, c.Reads(), c.Writes())
	case Govern:
		err = o.applyTransform(ctx, c.Govern, write, c.Reads(), c.Writes())
	case Swarm:
		err = o.applyTransform(ctx, c.Swarm, write, c.Reads(), c.Writes())
	case Quantum:
		err = o.applyTransform(ctx, c.Quantum, write, c.Reads(), c.Writes())
	}
	if err != nil {
		o.bus.Publish(Event{
			Kind: EventComponentFailure, Source: c.ID(), Stage: stage, Layer: -1,
			Message: err.Error(), Err: fmt.Errorf("%w", engine.ErrComponentFailure),
		})
		return
	}

	switch {
	case stage == Actuate:
		o.bus.Publish(Event{Kind: EventActuatorCommand, Source: c.ID(), Stage: stage, Layer: -1})
	case write || stage == Sense:
		o.bus.Publish(Event{Kind: EventStateChange, Source: c.ID(), Stage: stage, Layer: -1})
	}
}

func (o *Orchestrator) applySense(ctx context.Context, c Component) error {
	update, err := c.Sense(ctx)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := 0; i < silstate.NumLayers; i++ {
		if update.Mask&(1<<uint(i)) != 0 {
			o.state[i] = update.Values[i]
		}
	}
	return nil
}

func (o *Orchestrator) applyActuate(ctx context.Context, c Component) error {
	o.mu.RLock()
	cmd := Command{Mask: c.Reads(), Values: o.state}
	o.mu.RUnlock()
	return c.Actuate(ctx, cmd)
}

// transformFn is the shape shared by Process/Network/Govern/Swarm/Quantum.
type transformFn func(ctx context.Context, s silstate.State) (silstate.State, error)

func (o *Orchestrator) applyTransform(ctx context.Context, fn transformFn, write bool, readMask, writeMask uint16) error {
	if write {
		o.mu.Lock()
		defer o.mu.Unlock()
		next, err := fn(ctx, o.state)
		if err != nil {
			return err
		}
		for i := 0; i < silstate.NumLayers; i++ {
			if writeMask&(1<<uint(i)) != 0 {
				o.state[i] = next[i]
			}
		}
		return nil
	}
	o.mu.RLock()
	snapshot := o.state
	o.mu.RUnlock()
	_, err := fn(ctx, snapshot)
	return err
}

package orchestrator

import (
	"context"

	"github.com/vsp-core/vsp/silstate"
)

// Sensor is the external role interface for a Sense-stage component: it
// implements only the one method its role needs.
type Sensor interface {
	SenseLayers(ctx context.Context) (LayerUpdate, error)
}

// Processor is the external role interface for a Process-stage component.
type Processor interface {
	ProcessState(ctx context.Context, s silstate.State) (silstate.State, error)
}

// Actuator is the external role interface for an Actuate-stage component.
type Actuator interface {
	ActuateCommand(ctx context.Context, cmd Command) error
}

// Governor is the external role interface for a Govern-stage component.
type Governor interface {
	GovernState(ctx context.Context, s silstate.State) (silstate.State, error)
}

// SwarmAgent is the external role interface for a Swarm-stage component.
type SwarmAgent interface {
	SwarmStep(ctx context.Context, s silstate.State) (silstate.State, error)
}

// EventHandler is the role interface for an event consumer. EventBus
// never calls it: Subscribe delivers events on a channel instead.
type EventHandler interface {
	HandleEvent(Event)
}

// sensorAdapter wraps a Sensor so it satisfies the full Component
// interface for registration, without forcing Sensor authors to
// implement the other six no-op methods themselves.
type sensorAdapter struct {
	BaseComponent
	impl Sensor
}

// NewSensorComponent registers impl as a Sense-stage component declaring
// writes to the layers in writeMask.
func NewSensorComponent(name string, writeMask uint16, impl Sensor) Component {
	return sensorAdapter{
		BaseComponent: BaseComponent{Name: name, stage: Sense, writeMask: writeMask},
		impl:          impl,
	}
}

func (a sensorAdapter) Sense(ctx context.Context) (LayerUpdate, error) {
	return a.impl.SenseLayers(ctx)
}

// actuatorAdapter wraps an Actuator for Actuate-stage registration.
type actuatorAdapter struct {
	BaseComponent
	impl Actuator
}

// NewActuatorComponent registers impl as an Actuate-stage component
// declaring reads from the layers in readMask.
func NewActuatorComponent(name string, readMask uint16, impl Actuator) Component {
	return actuatorAdapter{
		BaseComponent: BaseComponent{Name: name, stage: Actuate, readMask: readMask},
		impl:          impl,
	}
}

func (a actuatorAdapter) Actuate(ctx context.Context, cmd Command) error {
	return a.impl.ActuateCommand(ctx, cmd)
}

// processorAdapter wraps a Processor for Process-stage registration.
type processorAdapter struct {
	BaseComponent
	impl Processor
}

// NewProcessorComponent registers impl as a Process-stage component.
func NewProcessorComponent(name string, readMask, writeMask uint16, impl Processor) Component {
	return processorAdapter{
		BaseComponent: BaseComponent{Name: name, stage: Process, readMask: readMask, writeMask: writeMask},
		impl:          impl,
	}
}

func (a processorAdapter) Process(ctx context.Context, s silstate.State) (silstate.State, error) {
	return a.impl.ProcessState(ctx, s)
}

// governorAdapter wraps a Governor for Govern-stage registration.
type governorAdapter struct {
	BaseComponent
	impl Governor
}

// NewGovernorComponent registers impl as a Govern-stage component.
func NewGovernorComponent(name string, readMask, writeMask uint16, impl Governor) Component {
	return governorAdapter{
		BaseComponent: BaseComponent{Name: name, stage: Govern, readMask: readMask, writeMask: writeMask},
		impl:          impl,
	}
}

func (a governorAdapter) Govern(ctx context.Context, s silstate.State) (silstate.State, error) {
	return a.impl.GovernState(ctx, s)
}

// swarmAdapter wraps a SwarmAgent for Swarm-stage registration.
type swarmAdapter struct {
	BaseComponent
	impl SwarmAgent
}

// NewSwarmComponent registers impl as a Swarm-stage component.
func NewSwarmComponent(name string, readMask, writeMask uint16, impl SwarmAgent) Component {
	return swarmAdapter{
		BaseComponent: BaseComponent{Name: name, stage: Swarm, readMask: readMask, writeMask: writeMask},
		impl:          impl,
	}
}

func (a swarmAdapter) Swarm(ctx context.Context, s silstate.State) (silstate.State, error) {
	return a.impl.SwarmStep(ctx, s)
}

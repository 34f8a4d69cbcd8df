/*
 * VSP core - Orchestrator component model.
 *
 * Copyright 2026, VSP core contributors.
 */

// Package orchestrator drives the seven-stage VSP pipeline (Sense,
// Process, Actuate, Network, Govern, Swarm, Quantum) over a single
// shared SilState, dispatching to registered components by declared
// layer read/write masks and delivering events through a synchronous
// bus. Components are a registry-by-ID dispatch, with per-tick failures
// recovered locally rather than propagated.
package orchestrator

import (
	"context"

	"github.com/vsp-core/vsp/silstate"
)

// Stage is one of the seven fixed pipeline stages, always run in this
// order within a Tick.
type Stage int

const (
	Sense Stage = iota
	Process
	Actuate
	Network
	Govern
	Swarm
	Quantum
)

func (s Stage) String() string {
	switch s {
	case Sense:
		return "sense"
	case Process:
		return "process"
	case Actuate:
		return "actuate"
	case Network:
		return "network"
	case Govern:
		return "govern"
	case Swarm:
		return "swarm"
	case Quantum:
		return "quantum"
	default:
		return "unknown"
	}
}

// Stages lists all seven stages in fixed cyclic order.
var Stages = [...]Stage{Sense, Process, Actuate, Network, Govern, Swarm, Quantum}

// LayerUpdate is what a Sense-stage component contributes: a sparse set
// of layer values to merge into global state (mask marks which of the 16
// layers Values holds meaningful data for).
type LayerUpdate struct {
	Mask   uint16
	Values silstate.State
}

// Command is what an Actuate-stage component consumes: the layers of
// current state it declared interest in reading.
type Command struct {
	Mask   uint16
	Values silstate.State
}

// Component is the single capability-tagged interface every orchestrator
// participant implements. A component only needs to implement the method
// matching its declared Stage(); the others may be left as no-ops (see
// BaseComponent) since the Orchestrator only ever calls the one for the
// stage the component registered under.
type Component interface {
	ID() string
	Stage() Stage
	Reads() uint16
	Writes() uint16

	Sense(ctx context.Context) (LayerUpdate, error)
	Process(ctx context.Context, s silstate.State) (silstate.State, error)
	Actuate(ctx context.Context, cmd Command) error
	Network(ctx context.Context, s silstate.State) (silstate.State, error)
	Govern(ctx context.Context, s silstate.State) (silstate.State, error)
	Swarm(ctx context.Context, s silstate.State) (silstate.State, error)
	Quantum(ctx context.Context, s silstate.State) (silstate.State, error)
}

// BaseComponent gives every per-role adapter in components.go a default,
// no-op implementation of the six methods its role doesn't use, so an
// external Sensor, say, only has to implement Sense.
type BaseComponent struct {
	Name        string
	stage       Stage
	readMask    uint16
	writeMask   uint16
}

// NewBaseComponent builds a BaseComponent for an external package (e.g.
// netnode) that wants to embed it and override only the one method its
// role needs, without access to BaseComponent's unexported fields.
func NewBaseComponent(name string, stage Stage, readMask, writeMask uint16) BaseComponent {
	return BaseComponent{Name: name, stage: stage, readMask: readMask, writeMask: writeMask}
}

func (b BaseComponent) ID() string      { return b.Name }
func (b BaseComponent) Stage() Stage    { return b.stage }
func (b BaseComponent) Reads() uint16   { return b.readMask }
func (b BaseComponent) Writes() uint16  { return b.writeMask }

func (BaseComponent) Sense(ctx context.Context) (LayerUpdate, error) {
	return LayerUpdate{}, nil
}
func (BaseComponent) Process(ctx context.Context, s silstate.State) (silstate.State, error) {
	return s, nil
}
func (BaseComponent) Actuate(ctx context.Context, cmd Command) error { return nil }
func (BaseComponent) Network(ctx context.Context, s silstate.State) (silstate.State, error) {
	return s, nil
}
func (BaseComponent) Govern(ctx context.Context, s silstate.State) (silstate.State, error) {
	return s, nil
}
func (BaseComponent) Swarm(ctx context.Context, s silstate.State) (silstate.State, error) {
	return s, nil
}
func (BaseComponent) Quantum(ctx context.Context, s silstate.State) (silstate.State, error) {
	return s, nil
}

package portal

import (
	"fmt"

	"github.com/taigrr/porthole/pkg/scene"
)

// Stage is one named step of the frame pipeline.
type Stage struct {
	Name string
	Run  func()
}

// Pipeline runs the frame stages in their required order:
//
//	propagate-transforms -> sync-portals -> update-frusta -> clip-frusta
//	-> (render submission, by the caller) -> propagate-picking
//
// Stages share the world and manager as their frame state; each stage is
// independently invocable for tests via Step.
type Pipeline struct {
	World   *scene.World
	Manager *Manager

	stages []Stage

	// Redirected holds the picking propagator's output from the last frame.
	Redirected []Input
}

// NewPipeline wires the standard stage order over a world and manager.
func NewPipeline(w *scene.World, m *Manager) *Pipeline {
	p := &Pipeline{World: w, Manager: m}
	p.stages = []Stage{
		{Name: "propagate-transforms", Run: w.PropagateTransforms},
		{Name: "sync-portals", Run: m.SyncTransforms},
		{Name: "update-frusta", Run: m.UpdatePrimaryFrusta},
		{Name: "clip-frusta", Run: m.ClipFrusta},
		{Name: "propagate-picking", Run: func() { p.Redirected = m.Propagate() }},
	}
	return p
}

// Stages returns the stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return names
}

// Step runs a single stage by name.
func (p *Pipeline) Step(name string) error {
	for _, s := range p.stages {
		if s.Name == name {
			s.Run()
			return nil
		}
	}
	return fmt.Errorf("unknown stage %q", name)
}

// Frame runs one full frame in stage order. Render submission happens in
// between by the caller, reading the poses, frusta, and targets the earlier
// stages produced; the picking stage only consumes buffers the caller fed.
func (p *Pipeline) Frame() {
	for _, s := range p.stages {
		s.Run()
	}
}

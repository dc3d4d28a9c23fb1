// Package simulation wires the MMUs of a run together with the recording,
// logging, and monitoring services.
package simulation

import (
	"log"

	"github.com/sarchlab/segmmu/datarecording"
	"github.com/sarchlab/segmmu/mem/vm/mmu"
	"github.com/sarchlab/segmmu/monitoring"
	"github.com/sarchlab/segmmu/sim"
	"github.com/sarchlab/segmmu/tracing"
)

// A Simulation provides the services that the MMUs of a run share.
type Simulation struct {
	id string

	dataRecorder datarecording.DataRecorder
	recorder     *tracing.TranslationRecorder
	monitor      *monitoring.Monitor
	logger       *log.Logger

	components    []sim.Component
	compNameIndex map[string]int
	mmus          []*mmu.Comp
}

// ID returns the unique ID of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// GetDataRecorder returns the data recorder used in the simulation. It is nil
// if recording is disabled.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetMonitor returns the monitor used in the simulation. It is nil if
// monitoring is disabled.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// AddMMU builds an MMU and connects it to the services of the simulation.
func (s *Simulation) AddMMU(b mmu.Builder, name string) *mmu.Comp {
	m := b.Build(name)

	for _, c := range m.Components() {
		s.RegisterComponent(c)
	}

	s.mmus = append(s.mmus, m)

	if s.recorder != nil {
		s.recorder.AttachMMU(m)
	}

	if s.logger != nil {
		m.AcceptHook(mmu.NewTranslationLogger(s.logger))
	}

	if s.monitor != nil {
		s.monitor.RegisterMMU(m)
	}

	return m
}

// MMUs returns all the MMUs added to the simulation.
func (s *Simulation) MMUs() []*mmu.Comp {
	return s.mmus
}

// RegisterComponent registers a component with the simulation.
func (s *Simulation) RegisterComponent(c sim.Component) {
	compName := c.Name()
	if _, found := s.compNameIndex[compName]; found {
		panic("component " + compName + " already registered")
	}

	s.components = append(s.components, c)
	s.compNameIndex[compName] = len(s.components) - 1
}

// GetComponentByName returns the component with the given name.
func (s *Simulation) GetComponentByName(name string) sim.Component {
	i, found := s.compNameIndex[name]
	if !found {
		return nil
	}

	return s.components[i]
}

// Components returns all the registered components.
func (s *Simulation) Components() []sim.Component {
	return s.components
}

// Terminate flushes and closes the recording.
func (s *Simulation) Terminate() {
	if s.dataRecorder == nil {
		return
	}

	err := s.dataRecorder.Close()
	if err != nil {
		log.Printf("failed to close the recording: %v", err)
	}
}

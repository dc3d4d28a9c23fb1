package simulation

import (
	"log"

	"github.com/rs/xid"

	"github.com/sarchlab/segmmu/datarecording"
	"github.com/sarchlab/segmmu/monitoring"
	"github.com/sarchlab/segmmu/tracing"
)

// Builder can be used to build a simulation.
type Builder struct {
	recordOn       bool
	outputFileName string
	monitorOn      bool
	monitorPort    int
	openBrowser    bool
	logger         *log.Logger
}

// MakeBuilder creates a new builder. By default, a simulation neither
// records nor monitors.
func MakeBuilder() Builder {
	return Builder{}
}

// WithRecording makes the simulation record every translation into a SQLite
// database.
func (b Builder) WithRecording() Builder {
	b.recordOn = true
	return b
}

// WithOutputFileName sets the custom output file name for the data recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithMonitoring starts the monitoring server when the simulation is built.
func (b Builder) WithMonitoring() Builder {
	b.monitorOn = true
	return b
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithBrowser opens the monitoring page in a browser.
func (b Builder) WithBrowser() Builder {
	b.openBrowser = true
	return b
}

// WithTranslationLogger prints every translation into the logger.
func (b Builder) WithTranslationLogger(logger *log.Logger) Builder {
	b.logger = logger
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}

	if !b.monitorOn && b.openBrowser {
		panic("browser cannot be opened when monitoring is disabled")
	}

	if !b.recordOn && b.outputFileName != "" {
		panic("output file cannot be set when recording is disabled")
	}
}

// Build builds the simulation. It fails if the recording cannot be created.
func (b Builder) Build() (*Simulation, error) {
	b.parametersMustBeValid()

	s := &Simulation{
		id:            xid.New().String(),
		compNameIndex: make(map[string]int),
		logger:        b.logger,
	}

	if b.recordOn {
		outputPath := b.outputFileName
		if outputPath == "" {
			outputPath = "segmmu_sim_" + s.id
		}

		recorder, err := datarecording.New(outputPath)
		if err != nil {
			return nil, err
		}

		s.dataRecorder = recorder
		s.recorder = tracing.NewTranslationRecorder(s.dataRecorder)
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor().WithPortNumber(b.monitorPort)
		if b.openBrowser {
			s.monitor.WithBrowser()
		}

		s.monitor.StartServer()
	}

	return s, nil
}

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/segmmu/mem/vm/runner"
	"github.com/sarchlab/segmmu/sim"
	"github.com/sarchlab/segmmu/simulation"
)

type translateOptions struct {
	initPath      string
	inputPath     string
	outputPath    string
	tlbOutputPath string
	mode          string
	numTLBWays    int

	verbose    bool
	record     bool
	recordFile string

	monitor     bool
	monitorPort int
	browser     bool
	hold        bool
}

var translateOpts translateOptions

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate the requests of an input file.",
	Long: "`translate` loads the initial state, translates every request of " +
		"the input file without a TLB and then with a TLB, and writes one " +
		"output file per pass.",
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		if translateOpts.record || translateOpts.recordFile != "" {
			// Recorded IDs stay unique across runs.
			sim.UseUniqueIDGenerator()
		}

		err := runTranslate(translateOpts, cmd.ErrOrStderr())
		if err != nil {
			atexit.Fatalf("Error: %v\n", err)
		}

		atexit.Exit(0)
	},
}

func init() {
	rootCmd.AddCommand(translateCmd)

	o := &translateOpts
	f := translateCmd.Flags()

	f.StringVar(&o.initPath, "init",
		envOr("SEGMMU_INIT", "init.txt"),
		"The file that holds the initial segment and page tables.")
	f.StringVar(&o.inputPath, "input",
		envOr("SEGMMU_INPUT", "input.txt"),
		"The file that holds the translation requests.")
	f.StringVar(&o.outputPath, "output",
		envOr("SEGMMU_OUTPUT", "output-notlb.txt"),
		"The output file of the pass without TLB.")
	f.StringVar(&o.tlbOutputPath, "tlb-output",
		envOr("SEGMMU_TLB_OUTPUT", "output-tlb.txt"),
		"The output file of the pass with TLB.")
	f.StringVar(&o.mode, "mode",
		envOr("SEGMMU_MODE", "both"),
		"The passes to run: nocache, cache, or both.")
	f.IntVar(&o.numTLBWays, "tlb-ways",
		envIntOr("SEGMMU_TLB_WAYS", 0),
		"The number of TLB entries. 0 uses the default.")
	f.BoolVarP(&o.verbose, "verbose", "v",
		envBoolOr("SEGMMU_VERBOSE", false),
		"Print every translation to stderr.")
	f.BoolVar(&o.record, "record",
		envBoolOr("SEGMMU_RECORD", false),
		"Record the translations into a SQLite database.")
	f.StringVar(&o.recordFile, "record-file",
		envOr("SEGMMU_RECORD_FILE", ""),
		"The database name, without the .sqlite3 extension.")
	f.BoolVar(&o.monitor, "monitor",
		envBoolOr("SEGMMU_MONITOR", false),
		"Start the monitoring server.")
	f.IntVar(&o.monitorPort, "monitor-port",
		envIntOr("SEGMMU_MONITOR_PORT", 0),
		"The port of the monitoring server. 0 picks a random port.")
	f.BoolVar(&o.browser, "browser", false,
		"Open the monitoring page in a browser.")
	f.BoolVar(&o.hold, "hold", false,
		"Keep the monitoring server running until interrupted.")
}

func (o translateOptions) simulationBuilder(stderr io.Writer) simulation.Builder {
	b := simulation.MakeBuilder()

	if o.verbose {
		b = b.WithTranslationLogger(log.New(stderr, "", 0))
	}

	if o.record || o.recordFile != "" {
		b = b.WithRecording().WithOutputFileName(o.recordFile)
	}

	if o.monitor || o.browser || o.monitorPort != 0 {
		b = b.WithMonitoring().WithMonitorPort(o.monitorPort)
		if o.browser {
			b = b.WithBrowser()
		}
	}

	return b
}

func runTranslate(o translateOptions, stderr io.Writer) error {
	mode, err := runner.ParseMode(o.mode)
	if err != nil {
		return err
	}

	s, err := o.simulationBuilder(stderr).Build()
	if err != nil {
		return err
	}
	defer s.Terminate()

	reports, err := runner.Run(s, runner.Config{
		InitPath:      o.initPath,
		InputPath:     o.inputPath,
		OutputPath:    o.outputPath,
		TLBOutputPath: o.tlbOutputPath,
		Mode:          mode,
		NumTLBWays:    o.numTLBWays,
	})
	if err != nil {
		return err
	}

	for _, r := range reports {
		fmt.Fprintf(stderr,
			"%s: %d reads, %d writes, %d TLB hits, %d faults, "+
				"%d access errors -> %s\n",
			r.Name, r.Stats.Reads, r.Stats.Writes, r.Stats.TLBHits,
			r.Stats.Faults, r.Stats.AccessErrors, r.OutputPath)
	}

	if o.hold && s.GetMonitor() != nil {
		fmt.Fprintln(stderr, "Press Ctrl+C to exit.")

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		<-c
	}

	return nil
}

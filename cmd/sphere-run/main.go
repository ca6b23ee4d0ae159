// Command sphere-run builds every iron-sphere case and runs the transport
// solver on it, one case at a time.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"github.com/banshee-data/ironsphere/internal/config"
	"github.com/banshee-data/ironsphere/internal/fsutil"
	"github.com/banshee-data/ironsphere/internal/monitoring"
	"github.com/banshee-data/ironsphere/internal/solver"
	"github.com/banshee-data/ironsphere/internal/sweep"
	"github.com/banshee-data/ironsphere/internal/version"
)

var (
	configPath  = flag.String("config", config.DefaultConfigPath, "Sweep configuration file")
	outputDir   = flag.String("output", "", "Directory for case directories (overrides output_dir)")
	ledgerPath  = flag.String("ledger", "", "Ledger database (overrides ledger_path)")
	caseKeys    = flag.String("case", "", "Comma-separated case keys to run (default: all)")
	dryRun      = flag.Bool("dry-run", false, "Write inputs and log the solver command without running it")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// logfLogger forwards executor debug output to the shared logger.
type logfLogger struct{}

func (logfLogger) Debugf(format string, args ...interface{}) { monitoring.Logf(format, args...) }

func splitKeys(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println(version.String("sphere-run"))
		return
	}

	cfg, err := config.LoadSweepConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if *ledgerPath != "" {
		cfg.LedgerPath = ledgerPath
	}

	cases, err := cfg.Cases()
	if err != nil {
		log.Fatalf("invalid case set: %v", err)
	}
	if cases, err = sweep.Select(cases, splitKeys(*caseKeys)); err != nil {
		log.Fatalf("%v", err)
	}

	fsys := fsutil.OSFileSystem{}
	opts, err := sweep.BuildOptions(fsys, cfg)
	if err != nil {
		log.Fatalf("failed to prepare model inputs: %v", err)
	}

	exec := solver.NewExecutor(cfg.GetMPIArgs(), cfg.GetOpenMCExec(), cfg.GetBatches(), *dryRun)
	exec.SetLogger(logfLogger{})

	session, err := sweep.OpenSession(cfg.GetLedgerPath(), "run", cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := &sweep.Runner{
		Cases:     cases,
		Options:   opts,
		Solver:    exec,
		FS:        fsys,
		OutputDir: cfg.GetOutputDir(),
		Ledger:    session.Recorder(),
		SweepID:   session.SweepID,
	}
	statepoints, err := runner.Run(ctx)
	session.Finish(err)
	if err != nil {
		stop()
		log.Fatalf("sweep failed: %v", err)
	}
	for _, sp := range statepoints {
		log.Printf("Statepoint: %s", sp)
	}
	log.Printf("Completed %d case(s)", len(statepoints))
}

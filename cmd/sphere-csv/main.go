// Command sphere-csv converts each case's statepoint into a neutron and a
// photon CSV table.
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
	"github.com/banshee-data/ironsphere/internal/sweep"
	"github.com/banshee-data/ironsphere/internal/version"
)

var (
	configPath  = flag.String("config", config.DefaultConfigPath, "Sweep configuration file")
	inputDir    = flag.String("input", "", "Directory holding the case directories (default: output_dir)")
	outputDir   = flag.String("output", "", "Directory for the CSV files (default: output_dir)")
	ledgerPath  = flag.String("ledger", "", "Ledger database (overrides ledger_path)")
	caseKeys    = flag.String("case", "", "Comma-separated case keys to extract (default: all)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println(version.String("sphere-csv"))
		return
	}

	cfg, err := config.LoadSweepConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *ledgerPath != "" {
		cfg.LedgerPath = ledgerPath
	}
	in, out := cfg.GetOutputDir(), cfg.GetOutputDir()
	if *inputDir != "" {
		in = *inputDir
	}
	if *outputDir != "" {
		out = *outputDir
	}

	cases, err := cfg.Cases()
	if err != nil {
		log.Fatalf("invalid case set: %v", err)
	}
	var keys []string
	for _, k := range strings.Split(*caseKeys, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	if cases, err = sweep.Select(cases, keys); err != nil {
		log.Fatalf("%v", err)
	}

	fsys := fsutil.OSFileSystem{}
	neutron, photon, err := sweep.LoadGroups(fsys, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	session, err := sweep.OpenSession(cfg.GetLedgerPath(), "extract", cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	extractor := &sweep.Extractor{
		Cases:     cases,
		Batches:   cfg.GetBatches(),
		Neutron:   neutron,
		Photon:    photon,
		FS:        fsys,
		InputDir:  in,
		OutputDir: out,
		Ledger:    session.Recorder(),
		SweepID:   session.SweepID,
	}
	written, err := extractor.Run(ctx)
	session.Finish(err)
	if err != nil {
		stop()
		log.Fatalf("extraction failed: %v", err)
	}
	for _, path := range written {
		log.Printf("Wrote %s", path)
	}
}

// Command sphere-analyze plots flux, spectral index, heating and current
// spectra from one statepoint. The charts open in the browser and a static
// PNG is saved next to the statepoint.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/banshee-data/ironsphere/internal/fsutil"
	"github.com/banshee-data/ironsphere/internal/plotting"
	"github.com/banshee-data/ironsphere/internal/results"
	"github.com/banshee-data/ironsphere/internal/statepoint"
	"github.com/banshee-data/ironsphere/internal/version"
)

var (
	pngPath     = flag.String("png", "", "PNG output path (default: <statepoint>.png)")
	noBrowser   = flag.Bool("no-browser", false, "Write the HTML charts without opening a browser")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		log.Printf("Unsupported platform: %s", runtime.GOOS)
		return
	}

	if err := exec.Command(cmd, args...).Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] statepoint\n", filepath.Base(os.Args[0]))
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if *showVersion {
		fmt.Println(version.String("sphere-analyze"))
		return
	}
	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	spPath := flag.Arg(0)

	sp, err := statepoint.Open(spPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	neutron, photon, err := results.GroupsFromStatepoint(sp)
	if err != nil {
		log.Fatalf("%v", err)
	}
	res, err := results.Load(sp, neutron, photon)
	if err != nil {
		log.Fatalf("%v", err)
	}
	charts := plotting.Charts(res)

	out := *pngPath
	if out == "" {
		out = strings.TrimSuffix(spPath, filepath.Ext(spPath)) + ".png"
	}
	if err := plotting.SavePNG(fsutil.OSFileSystem{}, out, charts); err != nil {
		log.Fatalf("failed to save plot: %v", err)
	}
	log.Printf("Saved %s", out)

	f, err := os.CreateTemp("", "ironsphere-*.html")
	if err != nil {
		log.Fatalf("failed to create chart page: %v", err)
	}
	if err := plotting.RenderHTML(f, filepath.Base(spPath), charts); err != nil {
		f.Close()
		log.Fatalf("%v", err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("Charts written to %s", f.Name())

	if !*noBrowser {
		openBrowser("file://" + f.Name())
	}
}

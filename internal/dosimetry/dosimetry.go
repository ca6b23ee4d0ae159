// Package dosimetry locates the tabulated dosimetry cross sections used by
// the spectral-index tallies inside an IRDFF-style evaluated data tape.
package dosimetry

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/banshee-data/ironsphere/internal/endf"
	"github.com/banshee-data/ironsphere/internal/monitoring"
	"github.com/banshee-data/ironsphere/internal/nuclide"
	"github.com/banshee-data/ironsphere/internal/security"
)

// ErrReactionNotFound is returned when a tape has no material/section for a reaction.
var ErrReactionNotFound = errors.New("dosimetry reaction not found")

// Reaction names a target nuclide and the (MF, MT) section holding its
// response. MF10 sections carry one table per final state; the first
// (ground) state is used.
type Reaction struct {
	Nuclide string
	MF      int
	MT      int
}

func (r Reaction) String() string {
	return fmt.Sprintf("%s MF%d/MT%d", r.Nuclide, r.MF, r.MT)
}

// Reactions are the four spectral-index responses, in tally order.
var Reactions = []Reaction{
	{Nuclide: "Rh103", MF: 10, MT: 4},
	{Nuclide: "In115", MF: 10, MT: 4},
	{Nuclide: "Al27", MF: 3, MT: 107},
	{Nuclide: "S32", MF: 3, MT: 103},
}

// CrossSection is a located response function.
type CrossSection struct {
	Reaction Reaction
	Sigma    endf.Tabulated1D
}

// Options controls where the tape comes from and how misses are handled.
type Options struct {
	// EndfPath is the extracted tape.
	EndfPath string
	// ArchivePath is a .tar.xz holding the tape, extracted next to EndfPath
	// when EndfPath does not exist yet.
	ArchivePath string
	// Encoding of the tape text, e.g. "cp1250".
	Encoding string
	// AllowPartial downgrades missing reactions from an error to a warning.
	AllowPartial bool
}

// Load extracts the tape if needed, parses it and looks up every reaction.
func Load(opts Options) ([]CrossSection, error) {
	if err := EnsureExtracted(opts.EndfPath, opts.ArchivePath); err != nil {
		return nil, err
	}

	enc, err := endf.Encoding(opts.Encoding)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(opts.EndfPath)
	if err != nil {
		return nil, fmt.Errorf("open dosimetry tape: %w", err)
	}
	defer f.Close()

	materials, err := endf.ReadMaterials(f, enc)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", opts.EndfPath, err)
	}
	return Lookup(materials, Reactions, opts.AllowPartial)
}

// Lookup finds each reaction by ZA and section. Every miss is reported in
// the returned error unless allowPartial is set, in which case misses are
// logged and skipped.
func Lookup(materials []*endf.Material, reactions []Reaction, allowPartial bool) ([]CrossSection, error) {
	var (
		found  []CrossSection
		misses []error
	)
	for _, r := range reactions {
		sigma, err := lookupOne(materials, r)
		if err != nil {
			misses = append(misses, err)
			continue
		}
		found = append(found, CrossSection{Reaction: r, Sigma: sigma})
	}

	if len(misses) > 0 {
		joined := errors.Join(misses...)
		if !allowPartial {
			return nil, joined
		}
		for _, m := range misses {
			monitoring.Logf("WARNING: %v; spectral-index tally omitted", m)
		}
	}
	return found, nil
}

func lookupOne(materials []*endf.Material, r Reaction) (endf.Tabulated1D, error) {
	n, err := nuclide.Parse(r.Nuclide)
	if err != nil {
		return endf.Tabulated1D{}, err
	}
	mat := endf.FindByZA(materials, n.ZA(), r.MF, r.MT)
	if mat == nil {
		return endf.Tabulated1D{}, fmt.Errorf("%w: %s (ZA %d)", ErrReactionNotFound, r, n.ZA())
	}

	switch r.MF {
	case 3:
		return mat.CrossSection(r.MT)
	case 10:
		levels, err := mat.Levels(r.MT)
		if err != nil {
			return endf.Tabulated1D{}, err
		}
		if len(levels) == 0 {
			return endf.Tabulated1D{}, fmt.Errorf("%w: %s has no final states", ErrReactionNotFound, r)
		}
		return levels[0].Sigma, nil
	}
	return endf.Tabulated1D{}, fmt.Errorf("unsupported file MF%d for %s", r.MF, r)
}

// EnsureExtracted unpacks archivePath into the directory of endfPath when
// endfPath is missing. It is a no-op when the tape already exists.
func EnsureExtracted(endfPath, archivePath string) error {
	if _, err := os.Stat(endfPath); err == nil {
		return nil
	}
	if archivePath == "" {
		return fmt.Errorf("dosimetry tape %s not found and no archive configured", endfPath)
	}

	monitoring.Logf("Extracting %s...", archivePath)
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	if err := extractTarXZ(f, filepath.Dir(endfPath)); err != nil {
		return fmt.Errorf("extract %s: %w", archivePath, err)
	}
	if _, err := os.Stat(endfPath); err != nil {
		return fmt.Errorf("archive %s did not contain %s", archivePath, filepath.Base(endfPath))
	}
	return nil
}

func extractTarXZ(r io.Reader, dest string) error {
	xr, err := xz.NewReader(r)
	if err != nil {
		return err
	}
	tr := tar.NewReader(xr)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		target, err := security.SafeJoin(dest, strings.TrimPrefix(hdr.Name, "./"))
		if err != nil {
			return err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeMember(tr, target); err != nil {
				return err
			}
		default:
			monitoring.Logf("skipping archive member %s (type %c)", hdr.Name, hdr.Typeflag)
		}
	}
}

func writeMember(r io.Reader, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

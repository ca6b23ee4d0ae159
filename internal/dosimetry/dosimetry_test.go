package dosimetry

import (
	"archive/tar"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	"github.com/banshee-data/ironsphere/internal/endf"
	"github.com/banshee-data/ironsphere/internal/endf/endftest"
	"github.com/banshee-data/ironsphere/internal/monitoring"
)

func fullTape() *endftest.Tape {
	return endftest.NewTape().
		Material(4525, 45103, 102.0).
		Levels(4,
			endftest.Level{QM: -39.76e3, QI: -39.76e3, IZAP: 45103, LFS: 1, X: []float64{4e4, 1e6, 2e7}, Y: []float64{0, 0.3, 0.05}},
			endftest.Level{QM: -1e5, QI: -1e5, IZAP: 45103, LFS: 2, X: []float64{1e5, 2e7}, Y: []float64{0, 0.01}},
		).
		EndMaterial().
		Material(4931, 49115, 113.9).
		Levels(4,
			endftest.Level{QM: -336.2e3, QI: -336.2e3, IZAP: 49115, LFS: 1, X: []float64{3.4e5, 2e7}, Y: []float64{0, 0.2}},
		).
		EndMaterial().
		Material(1325, 13027, 26.75).
		CrossSection(107, []float64{3.2e6, 1e7, 2e7}, []float64{0, 0.11, 0.02}, endf.LinLin).
		EndMaterial().
		Material(1625, 16032, 31.7).
		CrossSection(103, []float64{1e6, 2e7}, []float64{0, 0.2}, endf.LinLin).
		EndMaterial()
}

func readMaterials(t *testing.T, tape string) []*endf.Material {
	t.Helper()
	mats, err := endf.ReadMaterials(strings.NewReader(tape), nil)
	require.NoError(t, err)
	return mats
}

func TestLookup_AllReactions(t *testing.T) {
	xs, err := Lookup(readMaterials(t, fullTape().String()), Reactions, false)
	require.NoError(t, err)
	require.Len(t, xs, 4)

	for i, r := range Reactions {
		assert.Equal(t, r, xs[i].Reaction)
	}
	// Ground state of the MF10 rhodium section.
	assert.Equal(t, []float64{4e4, 1e6, 2e7}, xs[0].Sigma.X)
	assert.Equal(t, []float64{0, 0.11, 0.02}, xs[2].Sigma.Y)
}

func TestLookup_MissingIsError(t *testing.T) {
	tape := endftest.NewTape().
		Material(1325, 13027, 26.75).
		CrossSection(107, []float64{3.2e6, 2e7}, []float64{0, 0.1}, endf.LinLin).
		EndMaterial().
		String()

	_, err := Lookup(readMaterials(t, tape), Reactions, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReactionNotFound))
	for _, name := range []string{"Rh103", "In115", "S32"} {
		assert.Contains(t, err.Error(), name)
	}
	assert.NotContains(t, err.Error(), "Al27")
}

func TestLookup_AllowPartial(t *testing.T) {
	var logged []string
	prev := monitoring.Logf
	monitoring.SetLogger(func(format string, v ...interface{}) {
		logged = append(logged, format)
	})
	defer func() { monitoring.Logf = prev }()

	tape := endftest.NewTape().
		Material(1625, 16032, 31.7).
		CrossSection(103, []float64{1e6, 2e7}, []float64{0, 0.2}, endf.LinLin).
		EndMaterial().
		String()

	xs, err := Lookup(readMaterials(t, tape), Reactions, true)
	require.NoError(t, err)
	require.Len(t, xs, 1)
	assert.Equal(t, "S32", xs[0].Reaction.Nuclide)
	assert.Len(t, logged, 3)
}

func TestLookup_WrongSectionIsMiss(t *testing.T) {
	// Aluminium present but only with capture, not (n,alpha).
	tape := endftest.NewTape().
		Material(1325, 13027, 26.75).
		CrossSection(102, []float64{1e-5, 2e7}, []float64{0.23, 1e-4}, endf.LogLog).
		EndMaterial().
		String()

	_, err := Lookup(readMaterials(t, tape), []Reaction{{Nuclide: "Al27", MF: 3, MT: 107}}, false)
	assert.True(t, errors.Is(err, ErrReactionNotFound))
}

func writeTarXZ(t *testing.T, path string, members map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	tw := tar.NewWriter(xw)
	for name, body := range members {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0644,
			Size:     int64(len(body)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, xw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func TestLoad_ExtractsArchive(t *testing.T) {
	defer monitoring.Quiet()()
	dir := t.TempDir()
	archive := filepath.Join(dir, "IRDFF-II.tar.xz")
	writeTarXZ(t, archive, map[string]string{"IRDFF-II.endf": fullTape().String()})

	xs, err := Load(Options{
		EndfPath:    filepath.Join(dir, "IRDFF-II.endf"),
		ArchivePath: archive,
		Encoding:    "cp1250",
	})
	require.NoError(t, err)
	assert.Len(t, xs, 4)
	assert.FileExists(t, filepath.Join(dir, "IRDFF-II.endf"))
}

func TestEnsureExtracted_ExistingTapeSkipsArchive(t *testing.T) {
	dir := t.TempDir()
	tape := filepath.Join(dir, "IRDFF-II.endf")
	require.NoError(t, os.WriteFile(tape, []byte("x"), 0644))

	assert.NoError(t, EnsureExtracted(tape, filepath.Join(dir, "missing.tar.xz")))
}

func TestEnsureExtracted_Errors(t *testing.T) {
	defer monitoring.Quiet()()
	dir := t.TempDir()
	tape := filepath.Join(dir, "IRDFF-II.endf")

	assert.Error(t, EnsureExtracted(tape, ""))

	other := filepath.Join(dir, "other.tar.xz")
	writeTarXZ(t, other, map[string]string{"README": "nothing here"})
	err := EnsureExtracted(tape, other)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not contain")

	evil := filepath.Join(dir, "evil.tar.xz")
	writeTarXZ(t, evil, map[string]string{"../escape.endf": "x"})
	err = EnsureExtracted(tape, evil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "traversal")
	assert.NoFileExists(t, filepath.Join(filepath.Dir(dir), "escape.endf"))
}

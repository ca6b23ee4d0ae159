package results

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/ironsphere/internal/fsutil"
	"github.com/banshee-data/ironsphere/internal/groups"
	"github.com/banshee-data/ironsphere/internal/model"
)

// Table is a column-oriented CSV table with one row per energy group.
type Table struct {
	Header  []string
	Columns [][]float64
}

func (t *Table) add(name string, values []float64) {
	t.Header = append(t.Header, name)
	t.Columns = append(t.Columns, append([]float64(nil), values...))
}

// addRegions adds one column per matrix row, named "<prefix> (<label>)".
func (t *Table) addRegions(prefix string, labels []string, m *mat.Dense) {
	for i, label := range labels {
		t.add(fmt.Sprintf("%s (%s)", prefix, label), m.RawRowView(i))
	}
}

func newTable(g groups.Structure) *Table {
	t := &Table{}
	t.add("E_lo [eV]", g.Lower())
	t.add("E_hi [eV]", g.Upper())
	return t
}

func shellLabels() (regions, surfaces []string) {
	geom := model.ConcentricShells(model.SphereRadii, 1)
	return geom.RegionLabels(), geom.SurfaceLabels()
}

// NeutronTable has the group bounds, then flux per shell, current per
// surface, each spectral index per shell and total heating per shell.
func (r *Results) NeutronTable() *Table {
	regions, surfaces := shellLabels()
	t := newTable(r.Neutron)
	t.addRegions("Neutron flux", regions, r.NeutronFlux)
	t.addRegions("Neutron current", surfaces, r.NeutronCurrent)
	for _, nuc := range model.SpectralIndexNuclides {
		t.addRegions(nuc+" spectra index", regions, r.SpectralIndex[nuc])
	}
	_, _, total := r.HeatingSplit()
	t.addRegions("Total heating", regions, total)
	return t
}

// PhotonTable has the group bounds, then flux per shell and current per surface.
func (r *Results) PhotonTable() *Table {
	regions, surfaces := shellLabels()
	t := newTable(r.Photon)
	t.addRegions("Photon flux", regions, r.PhotonFlux)
	t.addRegions("Photon current", surfaces, r.PhotonCurrent)
	return t
}

// Rows returns the number of data rows.
func (t *Table) Rows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0])
}

// Column returns the values under a header name.
func (t *Table) Column(name string) ([]float64, bool) {
	for i, h := range t.Header {
		if h == name {
			return t.Columns[i], true
		}
	}
	return nil, false
}

// MarshalCSV renders the table. Values are written as the shortest decimal
// that round-trips, so equal inputs give equal bytes.
func (t *Table) MarshalCSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Header); err != nil {
		return nil, err
	}
	record := make([]string, len(t.Columns))
	for row := 0; row < t.Rows(); row++ {
		for c, col := range t.Columns {
			if len(col) != t.Rows() {
				return nil, fmt.Errorf("column %q has %d rows, want %d", t.Header[c], len(col), t.Rows())
			}
			record[c] = strconv.FormatFloat(col[row], 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// WriteCSV writes the table to path through a temporary file so readers
// never see a partial table.
func WriteCSV(fsys fsutil.FileSystem, path string, t *Table) error {
	data, err := t.MarshalCSV()
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := fsutil.WriteFileAtomic(fsys, path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

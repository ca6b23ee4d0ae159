//go:build hdf5

package statepoint

import (
	"fmt"
	"strings"

	"gonum.org/v1/hdf5"
)

// openHDF5 reads the solver's native statepoint layout:
//
//	/n_realizations
//	/tallies/tally <id>/{name, n_realizations, filters, nuclides, score_bins, results}
//	/tallies/filters/filter <id>/{type, n_bins, bins}
//
// results has shape (filter combinations, nuclides*scores, 2) holding the
// sum and sum of squares.
func openHDF5(path string) (*File, error) {
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sp := &File{Format: Format, Version: 1}
	if sp.NRealizations, err = readInt(&f.CommonFG, "n_realizations"); err != nil {
		return nil, err
	}

	tallies, err := f.OpenGroup("tallies")
	if err != nil {
		return nil, fmt.Errorf("open tallies: %w", err)
	}
	defer tallies.Close()

	n, err := tallies.NumObjects()
	if err != nil {
		return nil, err
	}
	for i := uint(0); i < n; i++ {
		name, err := tallies.ObjectNameByIndex(i)
		if err != nil {
			return nil, err
		}
		if !strings.HasPrefix(name, "tally ") {
			continue
		}
		var id int
		if _, err := fmt.Sscanf(name, "tally %d", &id); err != nil {
			return nil, fmt.Errorf("tally group %q: %w", name, err)
		}
		t, err := readTally(tallies, name, id)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if t.NRealizations == 0 {
			t.NRealizations = sp.NRealizations
		}
		sp.Tallies = append(sp.Tallies, t)
	}
	return sp, nil
}

func readTally(tallies *hdf5.Group, groupName string, id int) (Tally, error) {
	g, err := tallies.OpenGroup(groupName)
	if err != nil {
		return Tally{}, err
	}
	defer g.Close()

	t := Tally{ID: id}
	if t.Name, err = readString(&g.CommonFG, "name"); err != nil {
		return Tally{}, err
	}
	if t.NRealizations, err = readInt(&g.CommonFG, "n_realizations"); err != nil {
		t.NRealizations = 0
	}

	nFilters, err := readInt(&g.CommonFG, "n_filters")
	if err != nil {
		return Tally{}, err
	}
	if nFilters > 0 {
		ids, err := readInts(&g.CommonFG, "filters")
		if err != nil {
			return Tally{}, err
		}
		for _, fid := range ids {
			flt, err := readFilter(tallies, fid)
			if err != nil {
				return Tally{}, err
			}
			t.Filters = append(t.Filters, flt)
		}
	}

	if t.Nuclides, err = readStrings(&g.CommonFG, "nuclides"); err != nil {
		return Tally{}, err
	}
	if t.Scores, err = readStrings(&g.CommonFG, "score_bins"); err != nil {
		return Tally{}, err
	}

	ds, err := g.OpenDataset("results")
	if err != nil {
		return Tally{}, err
	}
	defer ds.Close()
	raw := make([]float64, ds.Space().SimpleExtentNPoints())
	if err := ds.Read(&raw); err != nil {
		return Tally{}, fmt.Errorf("read results: %w", err)
	}
	t.Sum = make([]float64, len(raw)/2)
	t.SumSq = make([]float64, len(raw)/2)
	for i := range t.Sum {
		t.Sum[i] = raw[2*i]
		t.SumSq[i] = raw[2*i+1]
	}
	return t, nil
}

func readFilter(tallies *hdf5.Group, id int) (Filter, error) {
	g, err := tallies.OpenGroup(fmt.Sprintf("filters/filter %d", id))
	if err != nil {
		return Filter{}, fmt.Errorf("filter %d: %w", id, err)
	}
	defer g.Close()

	var flt Filter
	if flt.Type, err = readString(&g.CommonFG, "type"); err != nil {
		return Filter{}, err
	}
	if flt.NBins, err = readInt(&g.CommonFG, "n_bins"); err != nil {
		return Filter{}, err
	}
	switch flt.Type {
	case "energy", "energyout":
		flt.Edges, err = readFloats(&g.CommonFG, "bins")
	case "cell", "surface", "material", "universe":
		flt.IDs, err = readInts(&g.CommonFG, "bins")
	case "particle":
		flt.Particles, err = readStrings(&g.CommonFG, "bins")
	}
	if err != nil {
		return Filter{}, fmt.Errorf("filter %d bins: %w", id, err)
	}
	return flt, nil
}

func readInt(g *hdf5.CommonFG, name string) (int, error) {
	ds, err := g.OpenDataset(name)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", name, err)
	}
	defer ds.Close()
	var v int32
	if err := ds.Read(&v); err != nil {
		return 0, fmt.Errorf("read %s: %w", name, err)
	}
	return int(v), nil
}

func readInts(g *hdf5.CommonFG, name string) ([]int, error) {
	ds, err := g.OpenDataset(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer ds.Close()
	raw := make([]int32, ds.Space().SimpleExtentNPoints())
	if err := ds.Read(&raw); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	out := make([]int, len(raw))
	for i, v := range raw {
		out[i] = int(v)
	}
	return out, nil
}

func readFloats(g *hdf5.CommonFG, name string) ([]float64, error) {
	ds, err := g.OpenDataset(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer ds.Close()
	out := make([]float64, ds.Space().SimpleExtentNPoints())
	if err := ds.Read(&out); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return out, nil
}

func readString(g *hdf5.CommonFG, name string) (string, error) {
	ds, err := g.OpenDataset(name)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", name, err)
	}
	defer ds.Close()
	var s string
	if err := ds.Read(&s); err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return strings.TrimRight(s, "\x00 "), nil
}

// readStrings returns one entry per element. Only the count matters to the
// reshape, so elements that cannot be decoded are left empty.
func readStrings(g *hdf5.CommonFG, name string) ([]string, error) {
	ds, err := g.OpenDataset(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer ds.Close()
	out := make([]string, ds.Space().SimpleExtentNPoints())
	if err := ds.Read(&out); err != nil {
		return make([]string, len(out)), nil
	}
	for i := range out {
		out[i] = strings.TrimRight(out[i], "\x00 ")
	}
	return out, nil
}

package model

import (
	"encoding/xml"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/ironsphere/internal/fsutil"
)

// Solver input file names.
const (
	MaterialsFile = "materials.xml"
	GeometryFile  = "geometry.xml"
	SettingsFile  = "settings.xml"
	TalliesFile   = "tallies.xml"
)

type xmlMaterials struct {
	XMLName       xml.Name      `xml:"materials"`
	CrossSections string        `xml:"cross_sections,omitempty"`
	Materials     []xmlMaterial `xml:"material"`
}

type xmlMaterial struct {
	ID         int          `xml:"id,attr"`
	Name       string       `xml:"name,attr"`
	Depletable bool         `xml:"depletable,attr"`
	Density    xmlDensity   `xml:"density"`
	Nuclides   []xmlNuclide `xml:"nuclide"`
}

type xmlDensity struct {
	Units string `xml:"units,attr"`
	Value string `xml:"value,attr"`
}

type xmlNuclide struct {
	Name string `xml:"name,attr"`
	AO   string `xml:"ao,attr"`
}

type xmlGeometry struct {
	XMLName  xml.Name     `xml:"geometry"`
	Cells    []xmlCell    `xml:"cell"`
	Surfaces []xmlSurface `xml:"surface"`
}

type xmlCell struct {
	ID       int    `xml:"id,attr"`
	Material int    `xml:"material,attr"`
	Region   string `xml:"region,attr"`
	Universe int    `xml:"universe,attr"`
}

type xmlSurface struct {
	ID       int    `xml:"id,attr"`
	Type     string `xml:"type,attr"`
	Coeffs   string `xml:"coeffs,attr"`
	Boundary string `xml:"boundary,attr,omitempty"`
}

type xmlSettings struct {
	XMLName         xml.Name  `xml:"settings"`
	RunMode         string    `xml:"run_mode"`
	Particles       int       `xml:"particles"`
	Batches         int       `xml:"batches"`
	Source          xmlSource `xml:"source"`
	PhotonTransport bool      `xml:"photon_transport"`
}

type xmlSource struct {
	Type     string       `xml:"type,attr"`
	Strength string       `xml:"strength,attr"`
	Space    xmlParamDist `xml:"space"`
	Energy   xmlParamDist `xml:"energy"`
}

type xmlParamDist struct {
	Type       string `xml:"type,attr"`
	Parameters string `xml:"parameters"`
}

type xmlTallies struct {
	XMLName xml.Name    `xml:"tallies"`
	Filters []xmlFilter `xml:"filter"`
	Tallies []xmlTally  `xml:"tally"`
}

type xmlFilter struct {
	ID            int    `xml:"id,attr"`
	Type          string `xml:"type,attr"`
	Bins          string `xml:"bins,omitempty"`
	Energy        string `xml:"energy,omitempty"`
	Y             string `xml:"y,omitempty"`
	Interpolation string `xml:"interpolation,omitempty"`
}

type xmlTally struct {
	ID      int    `xml:"id,attr"`
	Name    string `xml:"name,attr"`
	Filters string `xml:"filters"`
	Scores  string `xml:"scores"`
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func joinFloats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = formatFloat(v)
	}
	return strings.Join(parts, " ")
}

func joinInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " ")
}

func (m *Model) materialsXML() xmlMaterials {
	mat := xmlMaterial{
		ID:      m.Material.ID,
		Name:    m.Material.Name,
		Density: xmlDensity{Units: "g/cm3", Value: formatFloat(m.Material.DensityGCm3)},
	}
	for _, n := range m.Material.Nuclides {
		mat.Nuclides = append(mat.Nuclides, xmlNuclide{Name: n.Nuclide, AO: formatFloat(n.Fraction)})
	}
	return xmlMaterials{CrossSections: m.CrossSections, Materials: []xmlMaterial{mat}}
}

func (m *Model) geometryXML() xmlGeometry {
	var g xmlGeometry
	for _, c := range m.Geometry.Cells {
		g.Cells = append(g.Cells, xmlCell{ID: c.ID, Material: c.Material, Region: c.Region()})
	}
	for _, s := range m.Geometry.Surfaces {
		xs := xmlSurface{
			ID:     s.ID,
			Type:   "sphere",
			Coeffs: joinFloats([]float64{0, 0, 0, s.Radius}),
		}
		if s.Vacuum {
			xs.Boundary = "vacuum"
		}
		g.Surfaces = append(g.Surfaces, xs)
	}
	return g
}

func (m *Model) settingsXML() xmlSettings {
	return xmlSettings{
		RunMode:   m.Settings.RunMode,
		Particles: m.Settings.Particles,
		Batches:   m.Settings.Batches,
		Source: xmlSource{
			Type:     "independent",
			Strength: "1",
			Space:    xmlParamDist{Type: "point", Parameters: joinFloats(m.Source.Position[:])},
			Energy:   xmlParamDist{Type: "discrete", Parameters: joinFloats([]float64{m.Source.EnergyEV, 1})},
		},
		PhotonTransport: m.Settings.PhotonTransport,
	}
}

// talliesXML shares identical filters between tallies. Filter ids are
// assigned in order of first use so output is stable.
func (m *Model) talliesXML() xmlTallies {
	var out xmlTallies
	ids := make(map[string]int)
	for _, t := range m.Tallies {
		var refs []int
		for _, f := range t.Filters {
			xf := xmlFilter{Type: string(f.Kind)}
			switch f.Kind {
			case FilterParticle:
				xf.Bins = strings.Join(f.Particles, " ")
			case FilterCell, FilterSurface:
				xf.Bins = joinInts(f.IDs)
			case FilterEnergy:
				xf.Bins = joinFloats(f.Edges)
			case FilterEnergyFunction:
				xf.Energy = joinFloats(f.Function.Energy)
				xf.Y = joinFloats(f.Function.Y)
				xf.Interpolation = f.Function.Interpolation
			}
			key := strings.Join([]string{xf.Type, xf.Bins, xf.Energy, xf.Y, xf.Interpolation}, "|")
			id, ok := ids[key]
			if !ok {
				id = len(ids) + 1
				ids[key] = id
				xf.ID = id
				out.Filters = append(out.Filters, xf)
			}
			refs = append(refs, id)
		}
		out.Tallies = append(out.Tallies, xmlTally{
			ID:      t.ID,
			Name:    t.Name,
			Filters: joinInts(refs),
			Scores:  strings.Join(t.Scores, " "),
		})
	}
	return out
}

func marshalXML(v interface{}) ([]byte, error) {
	body, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	out := append([]byte(xml.Header), body...)
	return append(out, '\n'), nil
}

// WriteXML writes the four solver input files into dir.
func (m *Model) WriteXML(fsys fsutil.FileSystem, dir string) error {
	files := []struct {
		name string
		doc  interface{}
	}{
		{MaterialsFile, m.materialsXML()},
		{GeometryFile, m.geometryXML()},
		{SettingsFile, m.settingsXML()},
		{TalliesFile, m.talliesXML()},
	}
	for _, f := range files {
		data, err := marshalXML(f.doc)
		if err != nil {
			return fmt.Errorf("encode %s: %w", f.name, err)
		}
		if err := fsutil.WriteFileAtomic(fsys, filepath.Join(dir, f.name), data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	return nil
}

// Package endf reads the subset of ENDF-6 formatted evaluations needed to
// pull tabulated dosimetry cross sections out of a library tape: material
// splitting, MF1/MT451 identification, MF3 cross sections and MF10
// production cross sections by final state.
//
// Records are fixed-column: six 11-character fields, then MAT (4), MF (2),
// MT (3) and an optional sequence number.
package endf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

const (
	fieldWidth = 11
	dataWidth  = 6 * fieldWidth
)

// ErrSectionNotFound is returned when a material has no (MF, MT) section.
var ErrSectionNotFound = errors.New("endf section not found")

// SectionKey identifies a section within a material.
type SectionKey struct {
	MF int
	MT int
}

// Material is one MAT block of a tape with its sections kept as raw data lines.
type Material struct {
	MAT      int
	sections map[SectionKey][]string
	order    []SectionKey
}

// Sections lists the (MF, MT) pairs in tape order.
func (m *Material) Sections() []SectionKey {
	return append([]SectionKey(nil), m.order...)
}

// Has reports whether the material carries section (mf, mt).
func (m *Material) Has(mf, mt int) bool {
	_, ok := m.sections[SectionKey{mf, mt}]
	return ok
}

func (m *Material) section(mf, mt int) (*recordReader, error) {
	lines, ok := m.sections[SectionKey{mf, mt}]
	if !ok {
		return nil, fmt.Errorf("MAT %d MF%d MT%d: %w", m.MAT, mf, mt, ErrSectionNotFound)
	}
	return &recordReader{lines: lines}, nil
}

// ZA returns the material's 1000*Z + A identifier from the MF1/MT451 head record.
func (m *Material) ZA() (int, error) {
	r, err := m.section(1, 451)
	if err != nil {
		return 0, err
	}
	head, err := r.cont()
	if err != nil {
		return 0, fmt.Errorf("MAT %d MF1 MT451: %w", m.MAT, err)
	}
	return int(head.C1 + 0.5), nil
}

// CrossSection returns the MF3 cross section for reaction mt.
func (m *Material) CrossSection(mt int) (Tabulated1D, error) {
	r, err := m.section(3, mt)
	if err != nil {
		return Tabulated1D{}, err
	}
	if _, err := r.cont(); err != nil {
		return Tabulated1D{}, fmt.Errorf("MAT %d MF3 MT%d head: %w", m.MAT, mt, err)
	}
	_, tab, err := r.tab1()
	if err != nil {
		return Tabulated1D{}, fmt.Errorf("MAT %d MF3 MT%d: %w", m.MAT, mt, err)
	}
	return tab, nil
}

// Level is one final state of an MF10 section.
type Level struct {
	QM    float64
	QI    float64
	IZAP  int
	LFS   int
	Sigma Tabulated1D
}

// Levels returns the MF10 production cross sections for reaction mt, one per final state.
func (m *Material) Levels(mt int) ([]Level, error) {
	r, err := m.section(10, mt)
	if err != nil {
		return nil, err
	}
	head, err := r.cont()
	if err != nil {
		return nil, fmt.Errorf("MAT %d MF10 MT%d head: %w", m.MAT, mt, err)
	}
	levels := make([]Level, 0, head.N1)
	for i := 0; i < head.N1; i++ {
		c, tab, err := r.tab1()
		if err != nil {
			return nil, fmt.Errorf("MAT %d MF10 MT%d level %d: %w", m.MAT, mt, i, err)
		}
		levels = append(levels, Level{QM: c.C1, QI: c.C2, IZAP: c.L1, LFS: c.L2, Sigma: tab})
	}
	return levels, nil
}

// Encoding maps a tape encoding name to a decoder. Empty, "ascii" and
// "utf-8" need no transcoding and return nil.
func Encoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "", "ascii", "utf-8", "utf8":
		return nil, nil
	case "cp1250", "windows-1250":
		return charmap.Windows1250, nil
	case "cp1252", "windows-1252":
		return charmap.Windows1252, nil
	case "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	}
	return nil, fmt.Errorf("unsupported ENDF encoding %q", name)
}

// ReadMaterials splits a tape into materials. enc may be nil for ASCII tapes.
func ReadMaterials(r io.Reader, enc encoding.Encoding) ([]*Material, error) {
	if enc != nil {
		r = enc.NewDecoder().Reader(r)
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 256), 1<<20)

	var (
		materials []*Material
		current   *Material
		lineNo    int
	)
	for sc.Scan() {
		lineNo++
		runes := []rune(strings.TrimRight(sc.Text(), "\r"))
		if len(runes) < dataWidth+9 {
			if len(strings.TrimSpace(string(runes))) == 0 {
				continue
			}
			// The tape identification line may be short.
			if lineNo == 1 {
				continue
			}
			return nil, fmt.Errorf("line %d: record shorter than %d columns", lineNo, dataWidth+9)
		}

		mat, err := parseInt(string(runes[66:70]))
		if err != nil {
			return nil, fmt.Errorf("line %d: MAT: %w", lineNo, err)
		}
		mf, err := parseInt(string(runes[70:72]))
		if err != nil {
			return nil, fmt.Errorf("line %d: MF: %w", lineNo, err)
		}
		mt, err := parseInt(string(runes[72:75]))
		if err != nil {
			return nil, fmt.Errorf("line %d: MT: %w", lineNo, err)
		}

		switch {
		case mat <= 0:
			// MEND or TEND
			current = nil
			continue
		case mf == 0 || mt == 0:
			// TPID, FEND or SEND
			continue
		}

		if current == nil || current.MAT != mat {
			current = &Material{MAT: mat, sections: make(map[SectionKey][]string)}
			materials = append(materials, current)
		}
		key := SectionKey{mf, mt}
		if _, seen := current.sections[key]; !seen {
			current.order = append(current.order, key)
		}
		current.sections[key] = append(current.sections[key], string(runes[:dataWidth]))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read tape: %w", err)
	}
	return materials, nil
}

// FindByZA returns the first material whose ZA matches and which carries
// section (mf, mt). It returns nil when nothing matches.
func FindByZA(materials []*Material, za, mf, mt int) *Material {
	for _, m := range materials {
		got, err := m.ZA()
		if err != nil || got != za {
			continue
		}
		if m.Has(mf, mt) {
			return m
		}
	}
	return nil
}

// cont is a CONT/HEAD record.
type cont struct {
	C1, C2         float64
	L1, L2, N1, N2 int
}

type recordReader struct {
	lines []string
	pos   int
}

func (r *recordReader) next() (string, error) {
	if r.pos >= len(r.lines) {
		return "", io.ErrUnexpectedEOF
	}
	line := r.lines[r.pos]
	r.pos++
	return line, nil
}

func field(line string, i int) string {
	runes := []rune(line)
	start := i * fieldWidth
	end := start + fieldWidth
	if start >= len(runes) {
		return ""
	}
	if end > len(runes) {
		end = len(runes)
	}
	return string(runes[start:end])
}

func (r *recordReader) cont() (cont, error) {
	line, err := r.next()
	if err != nil {
		return cont{}, err
	}
	var c cont
	if c.C1, err = parseFloat(field(line, 0)); err != nil {
		return cont{}, err
	}
	if c.C2, err = parseFloat(field(line, 1)); err != nil {
		return cont{}, err
	}
	ints := []*int{&c.L1, &c.L2, &c.N1, &c.N2}
	for i, p := range ints {
		if *p, err = parseInt(field(line, i+2)); err != nil {
			return cont{}, err
		}
	}
	return c, nil
}

// values reads n numbers laid out six per line.
func (r *recordReader) values(n int) ([]float64, error) {
	out := make([]float64, 0, n)
	for len(out) < n {
		line, err := r.next()
		if err != nil {
			return nil, err
		}
		for i := 0; i < 6 && len(out) < n; i++ {
			v, err := parseFloat(field(line, i))
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *recordReader) tab1() (cont, Tabulated1D, error) {
	c, err := r.cont()
	if err != nil {
		return cont{}, Tabulated1D{}, err
	}
	nr, np := c.N1, c.N2
	if nr < 0 || np < 0 {
		return cont{}, Tabulated1D{}, fmt.Errorf("invalid TAB1 sizes NR=%d NP=%d", nr, np)
	}

	interp, err := r.values(2 * nr)
	if err != nil {
		return cont{}, Tabulated1D{}, fmt.Errorf("TAB1 interpolation table: %w", err)
	}
	pairs, err := r.values(2 * np)
	if err != nil {
		return cont{}, Tabulated1D{}, fmt.Errorf("TAB1 data: %w", err)
	}

	tab := Tabulated1D{
		X:             make([]float64, np),
		Y:             make([]float64, np),
		Breakpoints:   make([]int, nr),
		Interpolation: make([]int, nr),
	}
	for i := 0; i < nr; i++ {
		tab.Breakpoints[i] = int(interp[2*i])
		tab.Interpolation[i] = int(interp[2*i+1])
	}
	for i := 0; i < np; i++ {
		tab.X[i] = pairs[2*i]
		tab.Y[i] = pairs[2*i+1]
	}
	return c, tab, nil
}

// parseFloat handles ENDF's Fortran-style numbers, where the exponent letter
// is usually omitted ("1.234567+6", "-2.5-3").
func parseFloat(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return 0, nil
	}
	if strings.ContainsAny(s, "dD") {
		s = strings.NewReplacer("d", "e", "D", "e").Replace(s)
	}
	if !strings.ContainsAny(s, "eE") {
		for i := len(s) - 1; i > 0; i-- {
			if s[i] == '+' || s[i] == '-' {
				s = s[:i] + "e" + s[i:]
				break
			}
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ENDF number %q", s)
	}
	return v, nil
}

func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid ENDF integer %q", s)
	}
	return v, nil
}

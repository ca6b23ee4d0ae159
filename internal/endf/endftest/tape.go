// Package endftest builds small ENDF-6 tapes for tests.
package endftest

import (
	"fmt"
	"strings"
)

// Level is one MF10 final state.
type Level struct {
	QM, QI float64
	IZAP   int
	LFS    int
	X, Y   []float64
	Interp int
}

// Tape accumulates records in ENDF-6 column layout.
type Tape struct {
	b   strings.Builder
	mat int
	za  float64
	awr float64
}

// NewTape starts a tape with a TPID record.
func NewTape() *Tape {
	t := &Tape{}
	t.b.WriteString(fmt.Sprintf("%-66s%4d%2d%3d%5d\n", " test dosimetry tape", 1, 0, 0, 0))
	return t
}

// formatNum renders v in 11 columns, omitting the exponent letter the way
// evaluators usually do.
func formatNum(v float64) string {
	s := fmt.Sprintf("%.6E", v) // -1.234567E+06
	s = strings.Replace(s, "E+0", "+", 1)
	s = strings.Replace(s, "E-0", "-", 1)
	s = strings.Replace(s, "E+", "+", 1)
	s = strings.Replace(s, "E-", "-", 1)
	return fmt.Sprintf("%11s", s)
}

func integer(v int) string { return fmt.Sprintf("%11d", v) }

func (t *Tape) record(fields [6]string, mf, mt int) {
	t.b.WriteString(strings.Join(fields[:], ""))
	t.b.WriteString(fmt.Sprintf("%4d%2d%3d%5d\n", t.mat, mf, mt, 0))
}

func (t *Tape) cont(c1, c2 float64, l1, l2, n1, n2, mf, mt int) {
	t.record([6]string{formatNum(c1), formatNum(c2), integer(l1), integer(l2), integer(n1), integer(n2)}, mf, mt)
}

func (t *Tape) list(vals []string, mf, mt int) {
	for i := 0; i < len(vals); i += 6 {
		var f [6]string
		for j := range f {
			f[j] = strings.Repeat(" ", 11)
			if i+j < len(vals) {
				f[j] = vals[i+j]
			}
		}
		t.record(f, mf, mt)
	}
}

func (t *Tape) tab1(c1, c2 float64, l1, l2 int, x, y []float64, interp, mf, mt int) {
	t.cont(c1, c2, l1, l2, 1, len(x), mf, mt)
	t.list([]string{integer(len(x)), integer(interp)}, mf, mt)
	pairs := make([]string, 0, 2*len(x))
	for i := range x {
		pairs = append(pairs, formatNum(x[i]), formatNum(y[i]))
	}
	t.list(pairs, mf, mt)
}

func (t *Tape) send(mf int) {
	t.b.WriteString(fmt.Sprintf("%-66s%4d%2d%3d%5d\n", "", t.mat, mf, 0, 99999))
}

func (t *Tape) fend() {
	t.b.WriteString(fmt.Sprintf("%-66s%4d%2d%3d%5d\n", "", t.mat, 0, 0, 0))
}

// Material opens a MAT block and writes its MF1/MT451 head record.
func (t *Tape) Material(mat int, za, awr float64) *Tape {
	t.mat, t.za, t.awr = mat, za, awr
	t.cont(za, awr, 0, 0, 0, 0, 1, 451)
	t.cont(0, 0, 0, 0, 0, 6, 1, 451)
	t.send(1)
	t.fend()
	return t
}

// CrossSection writes an MF3 section.
func (t *Tape) CrossSection(mt int, x, y []float64, interp int) *Tape {
	t.cont(t.za, t.awr, 0, 0, 0, 0, 3, mt)
	t.tab1(0, 0, 0, 0, x, y, interp, 3, mt)
	t.send(3)
	t.fend()
	return t
}

// Levels writes an MF10 section with one TAB1 per final state.
func (t *Tape) Levels(mt int, levels ...Level) *Tape {
	t.cont(t.za, t.awr, 0, 0, len(levels), 0, 10, mt)
	for _, l := range levels {
		interp := l.Interp
		if interp == 0 {
			interp = 2
		}
		t.tab1(l.QM, l.QI, l.IZAP, l.LFS, l.X, l.Y, interp, 10, mt)
	}
	t.send(10)
	t.fend()
	return t
}

// EndMaterial writes the MEND record.
func (t *Tape) EndMaterial() *Tape {
	t.b.WriteString(fmt.Sprintf("%-66s%4d%2d%3d%5d\n", "", 0, 0, 0, 0))
	t.mat = 0
	return t
}

// String closes the tape with TEND and returns its text.
func (t *Tape) String() string {
	return t.b.String() + fmt.Sprintf("%-66s%4d%2d%3d%5d\n", "", -1, 0, 0, 0)
}

// Package nuclide parses nuclide names such as "Fe56" or "Am242_m1" and
// converts them to the numeric identifiers used by evaluated data files.
package nuclide

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// symbols is indexed by atomic number; index 0 is the neutron.
var symbols = []string{
	"n", "H", "He", "Li", "Be", "B", "C", "N", "O", "F", "Ne",
	"Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar", "K", "Ca",
	"Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni", "Cu", "Zn",
	"Ga", "Ge", "As", "Se", "Br", "Kr", "Rb", "Sr", "Y", "Zr",
	"Nb", "Mo", "Tc", "Ru", "Rh", "Pd", "Ag", "Cd", "In", "Sn",
	"Sb", "Te", "I", "Xe", "Cs", "Ba", "La", "Ce", "Pr", "Nd",
	"Pm", "Sm", "Eu", "Gd", "Tb", "Dy", "Ho", "Er", "Tm", "Yb",
	"Lu", "Hf", "Ta", "W", "Re", "Os", "Ir", "Pt", "Au", "Hg",
	"Tl", "Pb", "Bi", "Po", "At", "Rn", "Fr", "Ra", "Ac", "Th",
	"Pa", "U", "Np", "Pu", "Am", "Cm", "Bk", "Cf", "Es", "Fm",
	"Md", "No", "Lr", "Rf", "Db", "Sg", "Bh", "Hs", "Mt", "Ds",
	"Rg", "Cn", "Nh", "Fl", "Mc", "Lv", "Ts", "Og",
}

var atomicNumbers = func() map[string]int {
	m := make(map[string]int, len(symbols))
	for z, s := range symbols {
		m[s] = z
	}
	return m
}()

// Nuclide identifies an isotope by atomic number, mass number and
// metastable state.
type Nuclide struct {
	Z int
	A int
	M int
}

// Parse converts a GNDS-style name ("Fe56", "Rh103", "Am242_m1") into a Nuclide.
func Parse(name string) (Nuclide, error) {
	base, meta, hasMeta := strings.Cut(name, "_m")

	i := 0
	for i < len(base) && unicode.IsLetter(rune(base[i])) {
		i++
	}
	if i == 0 || i == len(base) {
		return Nuclide{}, fmt.Errorf("invalid nuclide name %q", name)
	}

	z, ok := atomicNumbers[base[:i]]
	if !ok || z == 0 {
		return Nuclide{}, fmt.Errorf("unknown element %q in %q", base[:i], name)
	}
	a, err := strconv.Atoi(base[i:])
	if err != nil || a < z {
		return Nuclide{}, fmt.Errorf("invalid mass number in %q", name)
	}

	var m int
	if hasMeta {
		m, err = strconv.Atoi(meta)
		if err != nil || m < 1 {
			return Nuclide{}, fmt.Errorf("invalid metastable state in %q", name)
		}
	}
	return Nuclide{Z: z, A: a, M: m}, nil
}

// MustParse is Parse for compile-time constant names.
func MustParse(name string) Nuclide {
	n, err := Parse(name)
	if err != nil {
		panic(err)
	}
	return n
}

// ZA returns the ENDF material identifier 1000*Z + A.
func (n Nuclide) ZA() int {
	return 1000*n.Z + n.A
}

// ID returns the nuclide in ZZZAAAMMMM form.
func (n Nuclide) ID() int {
	return n.Z*10000000 + n.A*10000 + n.M
}

// Symbol returns the element symbol.
func (n Nuclide) Symbol() string {
	if n.Z <= 0 || n.Z >= len(symbols) {
		return ""
	}
	return symbols[n.Z]
}

func (n Nuclide) String() string {
	s := fmt.Sprintf("%s%d", n.Symbol(), n.A)
	if n.M > 0 {
		s += fmt.Sprintf("_m%d", n.M)
	}
	return s
}

package endf

import "fmt"

// ENDF interpolation law codes.
const (
	Histogram = 1
	LinLin    = 2
	LinLog    = 3
	LogLin    = 4
	LogLog    = 5
)

// Tabulated1D is a TAB1 function: points plus interpolation regions, where
// region i ends at point index Breakpoints[i] (1-based, as on the tape).
type Tabulated1D struct {
	X             []float64
	Y             []float64
	Breakpoints   []int
	Interpolation []int
}

// Len returns the number of tabulated points.
func (t Tabulated1D) Len() int { return len(t.X) }

// SingleInterpolation returns the interpolation law when every region uses
// the same one. Tables with no regions default to lin-lin.
func (t Tabulated1D) SingleInterpolation() (int, error) {
	if len(t.Interpolation) == 0 {
		return LinLin, nil
	}
	law := t.Interpolation[0]
	for _, l := range t.Interpolation[1:] {
		if l != law {
			return 0, fmt.Errorf("table mixes interpolation laws %v", t.Interpolation)
		}
	}
	return law, nil
}

// InterpolationName returns the solver's name for an ENDF interpolation law.
func InterpolationName(law int) (string, error) {
	switch law {
	case Histogram:
		return "histogram", nil
	case LinLin:
		return "linear-linear", nil
	case LinLog:
		return "linear-log", nil
	case LogLin:
		return "log-linear", nil
	case LogLog:
		return "log-log", nil
	}
	return "", fmt.Errorf("unknown ENDF interpolation law %d", law)
}

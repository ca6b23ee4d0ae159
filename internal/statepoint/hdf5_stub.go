//go:build !hdf5

package statepoint

func openHDF5(string) (*File, error) {
	return nil, ErrHDF5Unsupported
}

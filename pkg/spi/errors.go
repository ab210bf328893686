package spi

import "errors"

var (
	// ErrBusy indicates a transfer was started on a Handle while another
	// one is still in progress.
	ErrBusy = errors.New("spi: transfer already in progress")
	// ErrIntermediateState indicates the driver state was observed between
	// the two real states.
	ErrIntermediateState = errors.New("spi: driver observed in intermediate state")
)

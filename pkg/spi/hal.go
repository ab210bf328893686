package spi

// Registers is the interrupt control of a SPI master peripheral. It stays
// usable from the interrupt side while the peripheral itself is owned by a
// transfer.
type Registers interface {
	// ResetEnd clears the END event.
	ResetEnd()
	// EnableEndInterrupt enables the END interrupt.
	EnableEndInterrupt()
	// DisableEndInterrupt disables the END interrupt.
	DisableEndInterrupt()
}

// Master is an idle SPI master peripheral as supplied by the board support.
type Master interface {
	Registers() Registers
	// DMATransfer starts a full duplex transfer in place over buf. The
	// master and buf are owned by the returned Transfer until Wait.
	DMATransfer(buf []byte) Transfer
}

// Transfer is a DMA transfer in progress.
type Transfer interface {
	IsDone() bool
	// Wait blocks until the transfer is done and hands back the buffer and
	// the idle master.
	Wait() ([]byte, Master)
}

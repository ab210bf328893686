package framework

import "context"

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// RunFunc is the func form of Runnable.
type RunFunc func(context.Context) error

// Run implements Runnable.
func (f RunFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Handler is the code bound to an interrupt vector.
// It runs to completion and must not block.
type Handler interface {
	OnInterrupt()
}

// HandlerFunc is the func form of Handler.
type HandlerFunc func()

// OnInterrupt implements Handler.
func (f HandlerFunc) OnInterrupt() {
	f()
}

// Vector identifies an interrupt line, hardware or software.
type Vector uint8

// MaxVectors is the number of vectors a Dispatcher can bind.
const MaxVectors = 64

// PriorityLevels is the total levels of priorities.
// Level 0 is the most urgent.
const PriorityLevels int = 16

// Predefine priority levels
const (
	PrLvTop    int = 0
	PrLvHigh   int = 4
	PrLvNormal int = 8
	PrLvLow    int = 12
	PrLvIdle   int = PriorityLevels - 1

	// PrLvPeripheral is the alias of priority level for peripheral
	// completion interrupts.
	PrLvPeripheral = PrLvHigh
	// PrLvTask is the alias of priority level for software task dispatch.
	PrLvTask = PrLvNormal
)

// TaskPriority maps an application priority (1 lowest, larger is more
// urgent) onto a dispatcher level below PrLvPeripheral.
func TaskPriority(prio int) int {
	lv := PrLvIdle - prio
	if lv <= PrLvPeripheral {
		lv = PrLvPeripheral + 1
	}
	if lv > PrLvIdle {
		lv = PrLvIdle
	}
	return lv
}

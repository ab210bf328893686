// Package board assembles a simulated board: the interrupt dispatcher, the
// monotonic timer, the SPI master with its async driver, the fair shared
// value and telemetry.
package board

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"

	"github.com/robotalks/mcuasync/pkg/executor"
	"github.com/robotalks/mcuasync/pkg/fairshare"
	fx "github.com/robotalks/mcuasync/pkg/framework"
	"github.com/robotalks/mcuasync/pkg/hal/sim"
	"github.com/robotalks/mcuasync/pkg/monotonic"
	"github.com/robotalks/mcuasync/pkg/spi"
	"github.com/robotalks/mcuasync/pkg/telemetry"
	"github.com/robotalks/mcuasync/pkg/telemetry/sink"
)

// Vectors
const (
	VecSPIM0 fx.Vector = 3
	// VecSWI0 is the first software interrupt handed out to executors.
	VecSWI0 fx.Vector = 20
	MaxSWI            = 6
)

// EventQueueLen is the number of telemetry events buffered before
// dropping.
const EventQueueLen = 256

// Board is a simulated board.
type Board struct {
	Config     *Config
	Dispatcher *fx.Dispatcher
	Mono       *monotonic.Monotonic
	SPIM       *sim.SPIM
	SPI        *spi.Handle
	Backend    *spi.Backend
	Share      *fairshare.FairShare[uint32]
	Telemetry  *telemetry.Publisher

	eventCh chan telemetry.Event

	lock      sync.Mutex
	executors []*executor.Executor
}

// NewBoard creates the Board.
func (c *Config) NewBoard() (*Board, error) {
	if err := fairshare.CheckCapacity(c.Capacity); err != nil {
		return nil, err
	}
	w, err := sink.Open(c.TelemetryURL, c.ID)
	if err != nil {
		return nil, err
	}
	clk := c.Clock
	if clk == nil {
		clk = clock.New()
	}
	b := &Board{
		Config:     c,
		Dispatcher: fx.NewDispatcher(),
		Mono:       monotonic.New(clk),
		Share:      fairshare.New[uint32](0, fairshare.WithCapacity(c.Capacity)),
		Telemetry:  telemetry.NewPublisher(c.ID, w),
		eventCh:    make(chan telemetry.Event, EventQueueLen),
	}
	b.Telemetry.Clock = clk
	b.SPIM = sim.NewSPIM(sim.SPIMConfig{
		Clock:        clk,
		Latency:      c.SPILatency,
		Jitter:       c.SPIJitter,
		Dispatcher:   b.Dispatcher,
		Vector:       VecSPIM0,
		Loopback:     c.SPILoopback,
		SpuriousRate: c.SpuriousRate,
	})
	b.SPI, b.Backend = spi.NewStorage().Split(b.SPIM)
	b.Dispatcher.Bind(VecSPIM0, fx.PrLvPeripheral, fx.HandlerFunc(b.onSPIM0))
	glog.Infof("board %s: telemetry %q", c.ID, c.TelemetryURL)
	return b, nil
}

func (b *Board) onSPIM0() {
	before := b.Backend.Spurious()
	b.Backend.OnInterrupt()
	if after := b.Backend.Spurious(); after != before {
		b.Emit(&telemetry.SpuriousInterrupt{Vector: uint32(VecSPIM0), Count: after})
	}
}

// Executor creates an executor on the next free software interrupt. prio
// follows the task convention: 1 is the lowest, larger is more urgent.
func (b *Board) Executor(name string, prio int) (*executor.Executor, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if len(b.executors) >= MaxSWI {
		return nil, fmt.Errorf("no free software interrupt for %s", name)
	}
	return b.newExecutor(name, prio), nil
}

func (b *Board) newExecutor(name string, prio int) *executor.Executor {
	vec := VecSWI0 + fx.Vector(len(b.executors))
	e := executor.New(name, b.Dispatcher, vec, fx.TaskPriority(prio))
	b.executors = append(b.executors, e)
	return e
}

// Job is a task to spawn at a priority.
type Job struct {
	Name string
	Prio int
	Task executor.Task
}

// Spawn spawns the task on an idle executor at the same priority, or on a
// new one.
func (b *Board) Spawn(name string, prio int, task executor.Task) (*executor.Executor, error) {
	es, err := b.SpawnAll(Job{Name: name, Prio: prio, Task: task})
	if err != nil {
		return nil, err
	}
	return es[0], nil
}

// SpawnAll spawns every job or none of them. Idle executors at the
// priority of a job are reused before new software interrupts are taken.
func (b *Board) SpawnAll(jobs ...Job) ([]*executor.Executor, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	picked := make([]*executor.Executor, len(jobs))
	taken := make(map[*executor.Executor]bool)
	fresh := 0
	for n, job := range jobs {
		if e := b.idleExecutor(fx.TaskPriority(job.Prio), taken); e != nil {
			picked[n], taken[e] = e, true
			continue
		}
		fresh++
	}
	if free := MaxSWI - len(b.executors); fresh > free {
		return nil, fmt.Errorf("no free software interrupt for %d tasks, %d left", fresh, free)
	}
	for n, job := range jobs {
		if picked[n] == nil {
			picked[n] = b.newExecutor(job.Name, job.Prio)
		}
		if !picked[n].Spawn(job.Task) {
			return nil, fmt.Errorf("executor %s is busy, %s not spawned", picked[n].Name(), job.Name)
		}
		glog.V(1).Infof("board %s: %s spawned on executor %s", b.Config.ID, job.Name, picked[n].Name())
	}
	return picked, nil
}

func (b *Board) idleExecutor(level int, taken map[*executor.Executor]bool) *executor.Executor {
	for _, e := range b.executors {
		if !taken[e] && e.PriorityLevel() == level && e.Idle() {
			return e
		}
	}
	return nil
}

// Idle reports whether all executors have finished their tasks.
func (b *Board) Idle() bool {
	b.lock.Lock()
	defer b.lock.Unlock()
	for _, e := range b.executors {
		if !e.Idle() {
			return false
		}
	}
	return true
}

// WaitIdle checks every interval until the board is idle or ctx is done.
func (b *Board) WaitIdle(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for !b.Idle() {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Emit queues an event for publishing. It never blocks, events are dropped
// when the queue is full.
func (b *Board) Emit(ev telemetry.Event) {
	select {
	case b.eventCh <- ev:
	default:
		glog.Warningf("board %s: telemetry queue full, dropped %T", b.Config.ID, ev)
	}
}

// Run runs the dispatcher and the telemetry publisher until ctx is done.
func (b *Board) Run(ctx context.Context) error {
	return fx.NewRunnerWith(ctx).Go(
		fx.NamedRun("dispatcher", fx.RunFunc(b.Dispatcher.Run)),
		fx.NamedRun("telemetry", fx.RunFunc(b.publish)),
	).Wait()
}

func (b *Board) publish(ctx context.Context) error {
	defer b.Telemetry.Close()
	for {
		select {
		case ev := <-b.eventCh:
			b.Telemetry.Emit(ev)
		case <-ctx.Done():
			b.flush()
			return ctx.Err()
		}
	}
}

func (b *Board) flush() {
	for {
		select {
		case ev := <-b.eventCh:
			b.Telemetry.Emit(ev)
		default:
			return
		}
	}
}

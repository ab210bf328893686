package board

import (
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/mcuasync/pkg/async"
	"github.com/robotalks/mcuasync/pkg/fairshare"
	"github.com/robotalks/mcuasync/pkg/monotonic"
	"github.com/robotalks/mcuasync/pkg/spi"
	"github.com/robotalks/mcuasync/pkg/telemetry"
)

// Round is one access of a ShareTask: wait Before, then take the shared
// value, hold it for Hold and increment it before releasing.
type Round struct {
	Before time.Duration
	Hold   time.Duration
}

type shareState uint8

const (
	shareIdle shareState = iota
	shareDelaying
	shareRequesting
	shareHolding
	shareDone
)

// ShareTask is a task contending for the board's shared value.
type ShareTask struct {
	Name   string
	Rounds []Round

	board     *Board
	state     shareState
	round     int
	delay     *monotonic.DelayFuture
	access    *fairshare.AccessFuture[uint32]
	requested bool
	guard     *fairshare.Guard[uint32]
}

// NewShareTask creates a ShareTask.
func (b *Board) NewShareTask(name string, rounds ...Round) *ShareTask {
	return &ShareTask{Name: name, Rounds: rounds, board: b}
}

// Poll implements async.Future.
func (t *ShareTask) Poll(w async.Waker) (struct{}, bool) {
	for {
		switch t.state {
		case shareIdle:
			if t.round >= len(t.Rounds) {
				glog.Infof("%s: exiting", t.Name)
				t.state = shareDone
				continue
			}
			if t.round == 0 {
				glog.Infof("%s: starting", t.Name)
			}
			t.delay = t.board.Mono.Delay(t.Rounds[t.round].Before)
			t.state = shareDelaying
		case shareDelaying:
			if _, ok := t.delay.Poll(w); !ok {
				return struct{}{}, false
			}
			glog.Infof("%s: trying to take access", t.Name)
			t.access = t.board.Share.Access()
			t.requested = false
			t.state = shareRequesting
		case shareRequesting:
			guard, ok := t.access.Poll(w)
			if !t.requested {
				t.requested = true
				ticket, _ := t.access.Ticket()
				t.board.Emit(&telemetry.AccessRequested{Task: t.Name, Ticket: uint32(ticket), Queued: !ok})
			}
			if !ok {
				return struct{}{}, false
			}
			t.guard = guard
			glog.Infof("%s: got access", t.Name)
			t.board.Emit(&telemetry.AccessGranted{Task: t.Name, Ticket: uint32(guard.Ticket()), Value: *guard.Value()})
			t.delay = t.board.Mono.Delay(t.Rounds[t.round].Hold)
			t.state = shareHolding
		case shareHolding:
			if _, ok := t.delay.Poll(w); !ok {
				return struct{}{}, false
			}
			val := t.guard.Value()
			*val++
			glog.Infof("%s: releasing access with val %d", t.Name, *val)
			t.board.Emit(&telemetry.AccessReleased{Task: t.Name, Ticket: uint32(t.guard.Ticket()), Value: *val})
			t.guard.Release()
			t.guard, t.access, t.delay = nil, nil, nil
			t.round++
			t.state = shareIdle
		default:
			return struct{}{}, true
		}
	}
}

// SpawnShareDemo spawns four tasks at priorities 1 to 4. The first takes
// the value right away and again after Gap, the others ask for it one
// StartStep after another while it is held, and are served in the order
// they asked regardless of their priorities.
func (b *Board) SpawnShareDemo() ([]*ShareTask, error) {
	c := b.Config
	tasks := []*ShareTask{
		b.NewShareTask("task1", Round{Hold: c.Hold}, Round{Before: c.Gap, Hold: c.Hold}),
		b.NewShareTask("task2", Round{Before: c.StartStep, Hold: c.Hold}),
		b.NewShareTask("task3", Round{Before: 2 * c.StartStep, Hold: c.Hold}),
		b.NewShareTask("task4", Round{Before: 3 * c.StartStep, Hold: c.Hold}),
	}
	jobs := make([]Job, len(tasks))
	for n, task := range tasks {
		jobs[n] = Job{Name: task.Name, Prio: n + 1, Task: task}
	}
	if _, err := b.SpawnAll(jobs...); err != nil {
		return nil, err
	}
	return tasks, nil
}

type transferState uint8

const (
	transferIdle transferState = iota
	transferRunning
	transferPausing
	transferDone
)

// TransferTask runs a number of SPI transfers through the async driver.
type TransferTask struct {
	Name  string
	Count int
	Pause time.Duration
	// Pattern is the first outgoing buffer, each following transfer sends
	// the bytes received by the previous one.
	Pattern []byte
	// Received holds the bytes of the last completed transfer.
	Received []byte

	board   *Board
	state   transferState
	done    int
	started time.Time
	xfer    *spi.TransferFuture
	delay   *monotonic.DelayFuture
}

// NewTransferTask creates a TransferTask.
func (b *Board) NewTransferTask(name string, count int, pattern []byte, pause time.Duration) *TransferTask {
	return &TransferTask{Name: name, Count: count, Pause: pause, Pattern: pattern, board: b}
}

// Poll implements async.Future.
func (t *TransferTask) Poll(w async.Waker) (struct{}, bool) {
	for {
		switch t.state {
		case transferIdle:
			if t.done >= t.Count {
				glog.Infof("%s: %d transfers completed", t.Name, t.done)
				t.state = transferDone
				continue
			}
			buf := t.Pattern
			if t.Received != nil {
				buf = t.Received
			}
			out := make([]byte, len(buf))
			copy(out, buf)
			t.started = t.board.Mono.Now()
			t.xfer = t.board.SPI.Transfer(out)
			t.board.Emit(&telemetry.TransferStarted{Task: t.Name, Length: uint32(len(out))})
			t.state = transferRunning
		case transferRunning:
			buf, ok := t.xfer.Poll(w)
			if !ok {
				return struct{}{}, false
			}
			t.Received = buf
			t.done++
			elapsed := t.board.Mono.Now().Sub(t.started)
			glog.V(2).Infof("%s: transfer %d done in %s: % x", t.Name, t.done, elapsed, buf)
			t.board.Emit(&telemetry.TransferCompleted{
				Task:     t.Name,
				Length:   uint32(len(buf)),
				Data:     buf,
				Duration: int64(elapsed),
			})
			t.xfer = nil
			t.delay = t.board.Mono.Delay(t.Pause)
			t.state = transferPausing
		case transferPausing:
			if _, ok := t.delay.Poll(w); !ok {
				return struct{}{}, false
			}
			t.delay = nil
			t.state = transferIdle
		default:
			return struct{}{}, true
		}
	}
}

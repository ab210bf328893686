// Package executor runs a single task off a software interrupt.
package executor

import (
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/mcuasync/pkg/async"
	fx "github.com/robotalks/mcuasync/pkg/framework"
)

// Task is the operation run by an Executor.
type Task = async.Future[struct{}]

// Executor holds at most one task. Every time its vector fires the task is
// polled with a waker which pends the same vector again, so a suspended
// task resumes at the executor's priority.
type Executor struct {
	name       string
	dispatcher *fx.Dispatcher
	vector     fx.Vector
	level      int
	waker      async.Waker

	lock sync.Mutex
	task Task
}

// New creates an Executor bound to vec at the priority level.
func New(name string, d *fx.Dispatcher, vec fx.Vector, priorityLevel int) *Executor {
	e := &Executor{name: name, dispatcher: d, vector: vec, level: priorityLevel}
	e.waker = async.WakeFunc(d.Pender(vec))
	d.Bind(vec, priorityLevel, e)
	return e
}

// Name implements framework.Named.
func (e *Executor) Name() string {
	return e.name
}

// PriorityLevel is the dispatcher level the executor runs at.
func (e *Executor) PriorityLevel() int {
	return e.level
}

// Spawn installs the task if the executor is idle and schedules its first
// poll. It returns false when a task is already running.
func (e *Executor) Spawn(task Task) bool {
	e.lock.Lock()
	if e.task != nil {
		e.lock.Unlock()
		glog.V(2).Infof("executor %s: busy, spawn rejected", e.name)
		return false
	}
	e.task = task
	e.lock.Unlock()
	glog.V(2).Infof("executor %s: task spawned", e.name)
	e.dispatcher.Pend(e.vector)
	return true
}

// Idle reports whether no task is installed.
func (e *Executor) Idle() bool {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.task == nil
}

// OnInterrupt implements framework.Handler.
func (e *Executor) OnInterrupt() {
	e.lock.Lock()
	task := e.task
	e.lock.Unlock()
	if task == nil {
		return
	}
	if _, done := task.Poll(e.waker); done {
		e.lock.Lock()
		e.task = nil
		e.lock.Unlock()
		glog.V(2).Infof("executor %s: task completed", e.name)
	}
}

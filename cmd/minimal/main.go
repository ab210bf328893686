package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"encoding/hex"
	"flag"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/mcuasync/pkg/board"
	fx "github.com/robotalks/mcuasync/pkg/framework"
)

var (
	count   = 4
	pattern = "deadbeef"
	pause   = 100 * time.Millisecond
)

func init() {
	board.SetupFlags()
	flag.IntVar(&count, "count", count, "Number of transfers")
	flag.StringVar(&pattern, "pattern", pattern, "First outgoing bytes in hex")
	flag.DurationVar(&pause, "pause", pause, "Pause between transfers")
}

func main() {
	flag.Parse()
	defer glog.Flush()

	buf, err := hex.DecodeString(pattern)
	if err != nil {
		glog.Exitf("invalid pattern: %v", err)
	}
	b, err := board.NewConfig().NewBoard()
	if err != nil {
		glog.Exitf("create board: %v", err)
	}
	glog.Info("init")
	task := b.NewTransferTask("task", count, buf, pause)
	if _, err := b.Spawn(task.Name, 1, task); err != nil {
		glog.Exit(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	err = fx.NewRunnerWith(ctx).HandleSignals().Go(
		fx.NamedRun("board", b),
		fx.NamedRun("watch", fx.RunFunc(func(ctx context.Context) error {
			defer cancel()
			return b.WaitIdle(ctx, 10*time.Millisecond)
		})),
	).Wait()
	if err != nil {
		glog.Exit(err)
	}
	glog.Infof("last received: % x", task.Received)
}

package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/mcuasync/pkg/board"
	fx "github.com/robotalks/mcuasync/pkg/framework"
)

var keepRunning bool

func init() {
	board.SetupFlags()
	flag.BoolVar(&keepRunning, "keep-running", keepRunning, "Keep running after all tasks exit")
}

func main() {
	flag.Parse()
	defer glog.Flush()

	b, err := board.NewConfig().NewBoard()
	if err != nil {
		glog.Exitf("create board: %v", err)
	}
	glog.Info("init")
	if _, err := b.SpawnShareDemo(); err != nil {
		glog.Exitf("spawn tasks: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	runner := fx.NewRunnerWith(ctx).HandleSignals()
	runner.Go(fx.NamedRun("board", b))
	if !keepRunning {
		runner.Go(fx.NamedRun("watch", fx.RunFunc(func(ctx context.Context) error {
			defer cancel()
			return b.WaitIdle(ctx, 10*time.Millisecond)
		})))
	}
	if err := runner.Wait(); err != nil {
		glog.Exit(err)
	}
}

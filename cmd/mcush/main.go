package main

import (
	"github.com/robotalks/mcuasync/pkg/board"
	"github.com/robotalks/mcuasync/pkg/cli/sh"

	_ "github.com/robotalks/mcuasync/pkg/cli/cmds/all"
)

//go-build: CGO_ENABLED=0

func init() {
	board.SetupFlags()
}

func main() {
	sh.Main()
}

// Package all registers all shell commands.
package all

import (
	_ "github.com/robotalks/mcuasync/pkg/cli/cmds/share"
	_ "github.com/robotalks/mcuasync/pkg/cli/cmds/spi"
)

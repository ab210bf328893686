package spi

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/mcuasync/pkg/cli/sh"
)

// ParseBytes parses hex bytes, either separated ("01 02") or not ("0102").
func ParseBytes(args []string) ([]byte, error) {
	return hex.DecodeString(strings.Join(args, ""))
}

var (
	// TransferCmd runs a DMA transfer and prints the received bytes.
	TransferCmd = ishell.Cmd{
		Name:    "transfer",
		Aliases: []string{"x"},
		Help:    "HEX...",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("HEX required"))
				return
			}
			buf, err := ParseBytes(c.Args)
			if err != nil {
				c.Err(fmt.Errorf("Invalid HEX: %v", err))
				return
			}
			out := sh.SessionFrom(c).Transfer(buf)
			sh.Print(c, hex.EncodeToString(out), func() string {
				return fmt.Sprintf("% x", out)
			})
		},
	}
)

func init() {
	sh.AddCmds(&TransferCmd)
}

package share

import (
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/mcuasync/pkg/cli/sh"
)

var (
	// AccessCmd requests access to the shared value under a name.
	AccessCmd = ishell.Cmd{
		Name:    "access",
		Aliases: []string{"a"},
		Help:    "NAME",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("NAME required"))
				return
			}
			name := c.Args[0]
			ticket, granted, err := sh.SessionFrom(c).Access(name)
			if err != nil {
				c.Err(err)
				return
			}
			res := struct {
				Name    string `json:"name"`
				Ticket  uint16 `json:"ticket"`
				Granted bool   `json:"granted"`
			}{name, uint16(ticket), granted}
			sh.Print(c, res, func() string {
				if granted {
					return fmt.Sprintf("%s: got access (ticket %d)", name, ticket)
				}
				return fmt.Sprintf("%s: waiting (ticket %d)", name, ticket)
			})
		},
	}

	// ReleaseCmd releases the access or withdraws the request of a name.
	ReleaseCmd = ishell.Cmd{
		Name:    "release",
		Aliases: []string{"r"},
		Help:    "NAME",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("NAME required"))
				return
			}
			if err := sh.SessionFrom(c).Release(c.Args[0]); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		},
	}

	// ValueCmd reads or writes the shared value while holding it.
	ValueCmd = ishell.Cmd{
		Name:    "value",
		Aliases: []string{"v"},
		Help:    "NAME [VALUE]",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("NAME required"))
				return
			}
			var set *uint32
			if len(c.Args) > 1 {
				val, err := strconv.ParseUint(c.Args[1], 0, 32)
				if err != nil {
					c.Err(fmt.Errorf("Invalid VALUE: %v", err))
					return
				}
				v := uint32(val)
				set = &v
			}
			val, err := sh.SessionFrom(c).Value(c.Args[0], set)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Print(c, val, func() string { return strconv.FormatUint(uint64(val), 10) })
		},
	}
)

func init() {
	sh.AddCmds(
		&AccessCmd,
		&ReleaseCmd,
		&ValueCmd,
	)
}

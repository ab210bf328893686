package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/mcuasync/pkg/board"
	"github.com/robotalks/mcuasync/pkg/fairshare"
	fx "github.com/robotalks/mcuasync/pkg/framework"
)

// Shell provides ishell backed interactive shell on a simulated board.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell   *ishell.Shell
	Config  *board.Config
	Session *Session

	cancel func()
	doneCh chan error
}

const shellKey = "$shell"

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&StatusCmd,
		&DemoCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *board.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(conf.ID + " > ")
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// SessionFrom gets the Session from ishell context.
func SessionFrom(c *ishell.Context) *Session {
	return ShellFrom(c).Session
}

// Print prints v as JSON or with the text formatter.
func Print(c *ishell.Context, v interface{}, text func() string) {
	if ShellFrom(c).OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(text())
}

// Start creates the board and runs it in background.
func (s *Shell) Start() error {
	b, err := s.Config.NewBoard()
	if err != nil {
		return err
	}
	s.Session = NewSession(b)
	s.Session.OnGranted = func(name string, ticket fairshare.Ticket) {
		if s.Interactive {
			s.Shell.Printf("%s: got access (ticket %d)\n", name, ticket)
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel, s.doneCh = cancel, make(chan error, 1)
	go func() {
		s.doneCh <- fx.NewRunnerWith(ctx).Go(fx.NamedRun("board", b)).Wait()
	}()
	return nil
}

// Stop releases all accesses and stops the board.
func (s *Shell) Stop() error {
	if s.cancel == nil {
		return nil
	}
	s.Session.Close()
	s.cancel()
	s.cancel = nil
	return <-s.doneCh
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if err := s.Start(); err != nil {
		log.Fatalf("start board %s failed: %v", s.Config.ID, err)
	}
	defer s.Stop()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// StatusCmd shows the state of the shared value and the SPI driver.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "",
		Func: func(c *ishell.Context) {
			st := SessionFrom(c).Status()
			Print(c, st, func() string {
				text := fmt.Sprintf("next=%d serving=%d waiting=%d busy=%v spi-idle=%v transfers=%d spurious=%d",
					st.Next, st.Serving, st.Waiting, st.Busy, st.SPIIdle, st.Transfers, st.Spurious)
				for _, h := range st.Holders {
					state := "waiting"
					if h.Granted {
						state = "holding"
					}
					text += fmt.Sprintf("\n  %s: ticket %d %s", h.Name, h.Ticket, state)
				}
				return text
			})
		},
	}

	// DemoCmd spawns the four contending tasks on the board.
	DemoCmd = ishell.Cmd{
		Name: "demo",
		Help: "",
		Func: func(c *ishell.Context) {
			if _, err := SessionFrom(c).Board.SpawnShareDemo(); err != nil {
				c.Err(err)
			}
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(board.NewConfig()).Run(flag.Args()...)
}

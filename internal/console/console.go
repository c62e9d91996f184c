// Package console is an interactive register shell on one controller,
// for bring-up and for poking at a port the automatic run gave up on.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"hpmdfu/internal/hpm"
	"hpmdfu/util"
)

// ErrQuit is returned by Exec for the exit command.
var ErrQuit = errors.New("quit")

// Console executes commands against a device.  It does not own the
// device.
type Console struct {
	dev *hpm.Device
	key uint32
	out io.Writer
}

// New creates a console that writes results to out.
func New(dev *hpm.Device, key uint32, out io.Writer) *Console {
	return &Console{dev: dev, key: key, out: out}
}

// Run reads commands with line editing until exit, EOF or ctx is done.
func (c *Console) Run(ctx context.Context, historyFile string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          fmt.Sprintf("%s> ", c.dev.Name()),
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer(),
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()
	c.out = rl.Stdout()

	c.printHelp()
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			return nil // EOF
		}
		if err := c.Exec(ctx, line); err != nil {
			if errors.Is(err, ErrQuit) {
				return nil
			}
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
	}
}

func completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("read"),
		readline.PcItem("write"),
		readline.PcItem("cmd"),
		readline.PcItem("status"),
		readline.PcItem("unlock"),
		readline.PcItem("dbma"),
		readline.PcItem("dfu"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

// Exec runs one command line.
func (c *Console) Exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "help", "?":
		c.printHelp()
		return nil
	case "exit", "quit", "q":
		return ErrQuit
	case "read", "r":
		return c.cmdRead(args)
	case "write", "w":
		return c.cmdWrite(args)
	case "cmd", "c":
		return c.cmdCommand(args)
	case "status", "s":
		return c.cmdStatus(args)
	case "unlock":
		return c.cmdUnlock(args)
	case "dbma":
		return c.cmdDBMa(args)
	case "dfu":
		return c.cmdDFU(ctx, args)
	default:
		return fmt.Errorf("unknown command: %s (type 'help' for commands)", cmd)
	}
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `Commands:
  read <port> <reg> [n]        - read a register (n bytes, default 64)
  write <port> <reg> <hex>     - write bytes to a register
  cmd <port> <MNEM> [hex]      - issue a 4-character command, print the result
  status [port]                - connection and status mnemonic
  unlock <port> [key]          - LOCK handshake (key defaults to the host key)
  dbma <port> on|off           - enter or leave management mode
  dfu <port>                   - reboot the partner into DFU mode
  help                         - this text
  exit                         - leave the console`)
}

func parsePort(s string) (int, error) {
	p, err := strconv.Atoi(s)
	if err != nil || p < 0 || p >= hpm.NumPorts {
		return 0, fmt.Errorf("invalid port %q (want 0-%d)", s, hpm.NumPorts-1)
	}
	return p, nil
}

func usage(u string) error { return fmt.Errorf("usage: %s", u) }

func (c *Console) cmdRead(args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return usage("read <port> <reg> [n]")
	}
	port, err := parsePort(args[0])
	if err != nil {
		return err
	}
	reg, err := util.ParseByte(args[1])
	if err != nil {
		return err
	}
	n := hpm.BufferSize
	if len(args) == 3 {
		n, err = strconv.Atoi(args[2])
		if err != nil || n < 1 || n > hpm.BufferSize {
			return fmt.Errorf("invalid length %q (want 1-%d)", args[2], hpm.BufferSize)
		}
	}
	buf, err := c.dev.ReadRegister(port, reg)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, util.HexDump(buf.Bytes()[:n]))
	return nil
}

func (c *Console) cmdWrite(args []string) error {
	if len(args) < 3 {
		return usage("write <port> <reg> <hex>")
	}
	port, err := parsePort(args[0])
	if err != nil {
		return err
	}
	reg, err := util.ParseByte(args[1])
	if err != nil {
		return err
	}
	data, err := util.ParseHexBytes(strings.Join(args[2:], ""))
	if err != nil {
		return err
	}
	if len(data) > hpm.BufferSize {
		return fmt.Errorf("%d bytes exceed the %d-byte register", len(data), hpm.BufferSize)
	}
	if err := c.dev.WriteRegister(port, reg, data); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "wrote %d byte(s)\n", len(data))
	return nil
}

func (c *Console) cmdCommand(args []string) error {
	if len(args) < 2 {
		return usage("cmd <port> <MNEM> [hex]")
	}
	port, err := parsePort(args[0])
	if err != nil {
		return err
	}
	if len(args[1]) != 4 {
		return fmt.Errorf("command %q is not 4 characters", args[1])
	}
	var arg []byte
	if len(args) > 2 {
		if arg, err = util.ParseHexBytes(strings.Join(args[2:], "")); err != nil {
			return err
		}
	}
	res, err := c.dev.Command(port, hpm.Mnemonic(args[1]), arg)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s: result %d\n", args[1], res)
	return nil
}

func (c *Console) cmdStatus(args []string) error {
	ports := []int{0, 1, 2, 3, 4}
	if len(args) > 0 {
		p, err := parsePort(args[0])
		if err != nil {
			return err
		}
		ports = []int{p}
	}
	for _, p := range ports {
		conn, raw, err := c.dev.Connection(p)
		if err != nil {
			return err
		}
		mode, err := c.dev.Mode(p)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "port %d: %-6s (0x%02x) status %q\n", p, conn, raw, mode)
	}
	return nil
}

func (c *Console) cmdUnlock(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usage("unlock <port> [key]")
	}
	port, err := parsePort(args[0])
	if err != nil {
		return err
	}
	key := c.key
	if len(args) == 2 {
		if key, err = util.ParseUint32(args[1]); err != nil {
			return err
		}
	}
	if err := c.dev.Unlock(port, key); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "port %d unlocked\n", port)
	return nil
}

func (c *Console) cmdDBMa(args []string) error {
	if len(args) != 2 {
		return usage("dbma <port> on|off")
	}
	port, err := parsePort(args[0])
	if err != nil {
		return err
	}
	switch strings.ToLower(args[1]) {
	case "on", "1":
		if err := c.dev.EnsureManagementMode(port, c.key); err != nil {
			return err
		}
	case "off", "0":
		res, err := c.dev.Command(port, hpm.CmdDBMa, []byte{0x00})
		if err != nil {
			return err
		}
		if !res.OK() {
			return fmt.Errorf("DBMa off: result %d", res)
		}
	default:
		return usage("dbma <port> on|off")
	}
	mode, err := c.dev.Mode(port)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "port %d status %q\n", port, mode)
	return nil
}

func (c *Console) cmdDFU(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("dfu <port>")
	}
	port, err := parsePort(args[0])
	if err != nil {
		return err
	}
	if err := c.dev.TriggerUpdateMode(ctx, port); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "port %d: partner rebooting into DFU mode\n", port)
	return nil
}

// Package maincmd wires the vellum binary's subcommands onto
// github.com/mna/mainer's reflection-based dispatch, the same pattern the
// teacher repo's internal/maincmd uses.
package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mna/mainer"
)

const binName = "vellum"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <command> [<path>...]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <command> [<path>...]
       %[1]s -h|--help
       %[1]s -v|--version

Compiler, virtual machine, and all-in-one tool for the Vellum scripting
language.

The <command> can be one of:
       run <path>                Compile and execute the script at path.
       repl                      Start an interactive read-eval-print loop.
       tokenize <path>           Run the scanner phase and print the
                                 resulting tokens.
       disasm <path>             Compile the script and print the
                                 disassembled bytecode without running it.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.

More information on the Vellum repository:
       https://github.com/mna/vellum
`, binName)
)

// Cmd is the top-level command, populated from the process's command-line
// arguments by mainer.Parser.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	args  []string
	flags map[string]bool
	cmdFn func(context.Context, mainer.Stdio, []string) error
}

func (c *Cmd) SetArgs(args []string)          { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool) { c.flags = flags }

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) == 0 {
		return errors.New("no command specified")
	}

	cmdName := c.args[0]
	commands := buildCmds(c)
	c.cmdFn = commands[cmdName]
	if c.cmdFn == nil {
		return fmt.Errorf("unknown command: %s", cmdName)
	}

	switch cmdName {
	case "tokenize", "disasm", "run":
		if len(c.args[1:]) == 0 {
			return fmt.Errorf("%s: a script path is required", cmdName)
		}
	}
	return nil
}

// Main runs the command and maps its outcome to a process exit code per
// spec §6: 0 success, 65 compile error, 70 runtime error, 74 I/O error.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{EnvVars: false, EnvPrefix: binName + "_"}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	err := c.cmdFn(ctx, stdio, c.args[1:])
	return exitCodeFor(err)
}

// ExitCoder is implemented by errors that carry a specific process exit
// code, letting run/disasm report compile vs. I/O failures distinctly
// (spec §6) instead of a flat success/failure boolean.
type ExitCoder interface {
	ExitCode() int
}

func exitCodeFor(err error) mainer.ExitCode {
	if err == nil {
		return mainer.Success
	}
	var ec ExitCoder
	if errors.As(err, &ec) {
		return mainer.ExitCode(ec.ExitCode())
	}
	return mainer.Failure
}

// valid commands are methods taking (context.Context, mainer.Stdio,
// []string) and returning error, registered by lower-cased method name.
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) error {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) error)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type

		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}
		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p0 := mt.In(0); p0.Kind() != reflect.Ptr || p0.Elem().Name() != "Cmd" {
			continue
		}
		if p1 := mt.In(1); p1.Kind() != reflect.Interface || p1.Name() != "Context" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Slice || p3.Elem().Name() != "string" {
			continue
		}
		cmds[strings.ToLower(m.Name)] = vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) error)
	}
	return cmds
}

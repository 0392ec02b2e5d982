// Package cmdmain implements commands and subcommands.
//
// The design idea is taken from [perkeep/cmdmain], but most of the code is
// modified. This package uses the [RegisterSubCmd] to allow users to add new
// subcommands. The implementation uses the same mechanism as perkeep. See
// [Perkeep LICENSE] for perkeeps copyright and license information.
//
// [perkeep/cmdmain]: https://github.com/perkeep/perkeep/tree/56726780f66b5654c1d7c01dc85b0e686ddbffd2/pkg/cmdmain
// [Perkeep LICENSE]: https://github.com/perkeep/perkeep/blob/56726780f66b5654c1d7c01dc85b0e686ddbffd2/COPYING
package cmdmain

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"maps"
	"os"
	"slices"

	"github.com/mengelbart/mediarecorder/logging"
)

// ErrUsage is returned by Run when the command line does not name a known
// subcommand. Usage has already been printed.
var ErrUsage = errors.New("invalid usage")

type SubCmd interface {
	Help() string
	Exec(cmd string, args []string) error
}

var (
	subCmds = map[string]SubCmd{}
)

func RegisterSubCmd(name string, makeSubCmd func() SubCmd) {
	if _, ok := subCmds[name]; ok || name == "help" {
		log.Fatalf("duplicate subcommand: %q", name)
	}
	subCmds[name] = makeSubCmd()
}

func usage(w io.Writer, name string, fs *flag.FlagSet) func() {
	return func() {
		fmt.Fprintf(w, `%v records cameras and microphones into MP4 and WebM files

Usage:
	%v [flags] <command> [command flags]
`, name, name)

		fmt.Fprintln(w, "\nCommands:")
		fmt.Fprintf(w, "  %-8s %s\n", "help", "Print this help, or the help line of a command")
		for _, n := range slices.Sorted(maps.Keys(subCmds)) {
			fmt.Fprintf(w, "  %-8s %s\n", n, subCmds[n].Help())
		}

		fmt.Fprintln(w, "\nFlags:")
		fs.PrintDefaults()
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Run `%v <command> -h` to show full help for a command\n", name)
	}
}

// Run parses the global flags in args, configures logging and executes the
// selected subcommand.
func Run(name string, args []string, stderr io.Writer) error {
	var (
		logFile   string
		logFormat string
		logLevel  slog.Level
	)
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&logFile, "logfile", "", "Log file, empty string means stderr")
	fs.StringVar(&logFormat, "log-format", "text", "Logging format: text or json")
	fs.TextVar(&logLevel, "log-level", slog.LevelInfo, "Logging level: debug, info, warn, error or an offset such as info+2")
	fs.Usage = usage(stderr, name, fs)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return ErrUsage
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(stderr, "error: missing subcommand")
		fs.Usage()
		return ErrUsage
	}

	if fs.Arg(0) == "help" {
		return printHelp(stderr, name, fs)
	}
	subCmd, ok := subCmds[fs.Arg(0)]
	if !ok {
		fmt.Fprintf(stderr, "error: unknown subcommand %q\n", fs.Arg(0))
		fs.Usage()
		return ErrUsage
	}

	format, err := logging.NewFormat(logFormat)
	if err != nil {
		return err
	}
	var lf io.Writer
	if logFile != "" {
		f, err := os.Create(logFile)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		lf = f
	}
	logging.Configure(format, logLevel, lf)

	return subCmd.Exec(name, fs.Args()[1:])
}

func printHelp(w io.Writer, name string, fs *flag.FlagSet) error {
	if fs.NArg() < 2 {
		fs.Usage()
		return nil
	}
	subCmd, ok := subCmds[fs.Arg(1)]
	if !ok {
		fmt.Fprintf(w, "error: unknown subcommand %q\n", fs.Arg(1))
		return ErrUsage
	}
	fmt.Fprintf(w, "%v %v: %v\n\nRun `%v %v -h` to list its flags\n", name, fs.Arg(1), subCmd.Help(), name, fs.Arg(1))
	return nil
}

func Main() {
	err := Run(os.Args[0], os.Args[1:], os.Stderr)
	if errors.Is(err, ErrUsage) {
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

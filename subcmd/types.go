package subcmd

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/mengelbart/mediarecorder"
	"github.com/mengelbart/mediarecorder/cmdmain"
)

func init() {
	cmdmain.RegisterSubCmd("types", func() cmdmain.SubCmd { return new(types) })
}

type types struct{}

// Exec implements cmdmain.SubCmd.
func (t *types) Exec(cmd string, args []string) error {
	fs := flag.NewFlagSet("types", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Show whether mime types are supported and which container and codecs they select

Usage:
	%s types <mime type>...

Flags:
`, cmd)
		fs.PrintDefaults()
		fmt.Fprintln(os.Stderr)
	}
	fs.Parse(args)

	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MIME TYPE\tSUPPORTED\tFORMAT\tVIDEO\tAUDIO")
	for _, m := range fs.Args() {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\n",
			m,
			mediarecorder.IsTypeSupported(m),
			mediarecorder.SelectFormat(m),
			mediarecorder.SelectVideoCodec(m),
			mediarecorder.SelectAudioCodec(m),
		)
	}
	return w.Flush()
}

// Help implements cmdmain.SubCmd.
func (t *types) Help() string {
	return "Show supported mime types and codec selection"
}

package subcmd

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/mengelbart/mediarecorder/cmdmain"
)

// modules whose versions determine the recorder's media behavior
var mediaModules = []string{
	"github.com/go-gst/go-gst",
	"github.com/go-gst/go-glib",
	"github.com/pion/mediadevices",
}

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	version := newVersion(info)
	cmdmain.RegisterSubCmd("version", func() cmdmain.SubCmd { return version })
}

type Version struct {
	Path      string            `json:"path"`
	Version   string            `json:"version"`
	GitCommit string            `json:"git-commit,omitempty"`
	GitDate   string            `json:"git-date,omitempty"`
	GoVersion string            `json:"go-version"`
	Media     map[string]string `json:"media,omitempty"`
}

func newVersion(info *debug.BuildInfo) *Version {
	v := &Version{
		Path:      info.Main.Path,
		Version:   info.Main.Version,
		GoVersion: runtime.Version(),
		Media:     map[string]string{},
	}
	modified := false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			v.GitCommit = setting.Value
		case "vcs.time":
			v.GitDate = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if modified {
		v.GitCommit += "+dirty"
	}
	for _, dep := range info.Deps {
		for _, m := range mediaModules {
			if dep.Path == m {
				v.Media[dep.Path] = dep.Version
			}
		}
	}
	return v
}

// Exec implements cmdmain.SubCmd.
func (v *Version) Exec(cmd string, args []string) error {
	fs := flag.NewFlagSet("version", flag.ExitOnError)
	short := fs.Bool("short", false, "Print only the version")
	asJSON := fs.Bool("json", false, "Print version information as JSON")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Print version information

Usage:
	%s version [flags]

Flags:
`, cmd)
		fs.PrintDefaults()
		fmt.Fprintln(os.Stderr)
	}
	fs.Parse(args)

	switch {
	case *short:
		_, err := fmt.Fprintln(os.Stdout, v.Version)
		return err
	case *asJSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return v.write(os.Stdout)
}

func (v *Version) write(w io.Writer) error {
	_, err := fmt.Fprintf(w, `%s
	Version:	%s
	Git commit:	%s
	Built:		%s
	Go Version:	%s
`, v.Path, v.Version, v.GitCommit, v.GitDate, v.GoVersion)
	if err != nil {
		return err
	}
	for _, m := range mediaModules {
		if version, ok := v.Media[m]; ok {
			if _, err := fmt.Fprintf(w, "\tUsing:\t\t%s %s\n", m, version); err != nil {
				return err
			}
		}
	}
	return nil
}

// Help implements cmdmain.SubCmd.
func (v *Version) Help() string {
	return "Print version information"
}

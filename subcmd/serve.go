package subcmd

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/mengelbart/mediarecorder"
	"github.com/mengelbart/mediarecorder/capture/devices"
	"github.com/mengelbart/mediarecorder/cmdmain"
	"github.com/mengelbart/mediarecorder/flags"
	"github.com/mengelbart/mediarecorder/http"
)

func init() {
	cmdmain.RegisterSubCmd("serve", func() cmdmain.SubCmd { return new(serve) })
}

type serve struct {
	cert string
	key  string
}

// Exec implements cmdmain.SubCmd.
func (s *serve) Exec(cmd string, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	flags.RegisterInto(fs, append(recorderFlags,
		flags.HTTPAddrFlag,
		flags.OutputDirFlag,
	)...)
	fs.StringVar(&s.cert, "cert", "", "TLS Certificate, serves plain HTTP if empty")
	fs.StringVar(&s.key, "key", "", "TLS Certificate key")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Run an HTTP API controlling a recorder

Usage:
	%s serve [flags]

Flags:
`, cmd)
		fs.PrintDefaults()
		fmt.Fprintln(os.Stderr)
	}
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	stream, err := devices.Open(flags.DeviceConfig())
	if err != nil {
		return err
	}
	defer stream.Close()

	recorder, err := newRecorder("serve", stream)
	if err != nil {
		return err
	}
	defer func() {
		if recorder.State() == mediarecorder.Inactive {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := recorder.Stop(ctx); err != nil {
			slog.Error("failed to stop recording on shutdown", "error", err)
		}
	}()

	store, err := http.NewFileStore(flags.OutputDir)
	if err != nil {
		return err
	}
	api, err := http.NewApi(recorder, store, http.StartTimeout(flags.StartTimeout))
	if err != nil {
		return err
	}
	mux := httprouter.New()
	api.RegisterRoutes(mux)

	server, err := http.NewServer(
		http.Address(flags.HTTPAddr),
		http.Handle(mux),
		http.CertificateFile(s.cert),
		http.CertificateKeyFile(s.key),
		http.RequestLogger(slog.Default()),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return server.ListenAndServe(ctx)
}

// Help implements cmdmain.SubCmd.
func (s *serve) Help() string {
	return "Run an HTTP API controlling a recorder"
}

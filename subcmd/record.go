package subcmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/mengelbart/mediarecorder"
	"github.com/mengelbart/mediarecorder/capture/devices"
	"github.com/mengelbart/mediarecorder/cmdmain"
	"github.com/mengelbart/mediarecorder/flags"
)

func init() {
	cmdmain.RegisterSubCmd("record", func() cmdmain.SubCmd { return new(record) })
}

type record struct{}

// Exec implements cmdmain.SubCmd.
func (r *record) Exec(cmd string, args []string) error {
	fs := flag.NewFlagSet("record", flag.ExitOnError)
	flags.RegisterInto(fs, append(recorderFlags,
		flags.OutputFlag,
		flags.DurationFlag,
		flags.PauseAfterFlag,
		flags.PauseForFlag,
	)...)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Record from camera and microphone into a file

Usage:
	%s record [flags]

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

	recorder, err := newRecorder("record", stream)
	if err != nil {
		return err
	}
	var blob *mediarecorder.Blob
	recorder.OnDataAvailable(func(e mediarecorder.Event) {
		if e.Data != nil && e.Data.Size() > 0 {
			blob = e.Data
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, flags.StartTimeout)
	err = recorder.Start(startCtx, flags.Timeslice)
	cancel()
	if err != nil {
		return err
	}

	if err := waitRecording(ctx, recorder); err != nil {
		return err
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := recorder.Stop(stopCtx); err != nil {
		return err
	}
	if blob == nil {
		return errors.New("recording is empty")
	}
	path := outputPath(flags.Output, recorder.MimeType())
	if err := blob.Save(path); err != nil {
		return err
	}
	slog.Info("recording saved", "path", path, "size", blob.Size(), "mime-type", blob.Type)
	return nil
}

// waitRecording returns when the duration has elapsed or ctx is done,
// pausing and resuming the recorder on the way if requested.
func waitRecording(ctx context.Context, recorder *mediarecorder.MediaRecorder) error {
	var done, pause, resume <-chan time.Time
	if flags.Duration > 0 {
		t := time.NewTimer(flags.Duration)
		defer t.Stop()
		done = t.C
	}
	if flags.PauseAfter > 0 {
		t := time.NewTimer(flags.PauseAfter)
		defer t.Stop()
		pause = t.C
	}
	for {
		select {
		case <-ctx.Done():
			slog.Info("interrupted, stopping recording")
			return nil
		case <-done:
			return nil
		case <-pause:
			recorder.Pause()
			t := time.NewTimer(flags.PauseFor)
			defer t.Stop()
			resume = t.C
		case <-resume:
			recorder.Resume()
		}
	}
}

// Help implements cmdmain.SubCmd.
func (r *record) Help() string {
	return "Record from camera and microphone into a file"
}

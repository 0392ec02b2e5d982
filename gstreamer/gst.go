// Package gstreamer implements a recording engine on a GStreamer pipeline.
// Raw frames and samples enter through appsrc elements, are encoded and
// muxed, and the container bytes leave through an appsink into the
// recording target.
package gstreamer

import (
	"log/slog"
	"sync"
	"time"

	"github.com/go-gst/go-glib/glib"
	"github.com/go-gst/go-gst/gst"
)

var initOnce sync.Once

func initGStreamer() {
	initOnce.Do(func() {
		gst.Init(nil)
	})
}

// busWatch runs a main loop for the pipeline bus until quit is called. EOS
// and error messages are reported through the callbacks.
type busWatch struct {
	mainloop *glib.MainLoop
	done     chan struct{}
}

func watchBus(logger *slog.Logger, pipeline *gst.Pipeline, onEOS func(), onError func(error)) *busWatch {
	w := &busWatch{
		mainloop: glib.NewMainLoop(glib.MainContextDefault(), false),
		done:     make(chan struct{}),
	}
	pipeline.GetPipelineBus().AddWatch(func(msg *gst.Message) bool {
		switch msg.Type() {
		case gst.MessageEOS:
			onEOS()
		case gst.MessageError:
			err := msg.ParseError()
			logger.Error("pipeline error", "error", err.Error(), "debug", err.DebugString())
			onError(err)
		case gst.MessageWarning:
			warn := msg.ParseWarning()
			logger.Warn("pipeline warning", "warning", warn.Error(), "debug", warn.DebugString())
		}
		return true
	})
	go func() {
		defer close(w.done)
		w.mainloop.Run()
	}()
	return w
}

// quit stops the main loop. A quit issued before the loop runs is lost, so
// it is repeated until the loop has returned.
func (w *busWatch) quit() {
	for {
		w.mainloop.Quit()
		select {
		case <-w.done:
			return
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func SetProperties(e *gst.Element, pp map[string]any) error {
	for k, v := range pp {
		if err := e.SetProperty(k, v); err != nil {
			return err
		}
	}
	return nil
}

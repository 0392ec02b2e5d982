package mediarecorder

import (
	"sync"
	"time"

	"github.com/mengelbart/mediarecorder/capture"
)

// frameDriver repaints on every display refresh tick while it runs. Every
// tick schedules the next one after painting, so ticks never overlap.
type frameDriver struct {
	display capture.Display
	paint   func(now time.Time)

	lock    sync.Mutex
	running bool
	gen     uint64
	cancel  func()
}

func newFrameDriver(display capture.Display, paint func(time.Time)) *frameDriver {
	return &frameDriver{
		display: display,
		paint:   paint,
	}
}

func (d *frameDriver) start() {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.running {
		return
	}
	d.running = true
	d.gen++
	d.schedule(d.gen)
}

// schedule must be called with d.lock held.
func (d *frameDriver) schedule(gen uint64) {
	d.cancel = d.display.RequestFrame(func(now time.Time) {
		d.tick(gen, now)
	})
}

// halt cancels the pending tick. A tick that is already painting finishes
// but does not schedule another one.
func (d *frameDriver) halt() {
	d.lock.Lock()
	cancel := d.cancel
	d.running = false
	d.cancel = nil
	d.lock.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (d *frameDriver) isRunning() bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.running
}

func (d *frameDriver) current(gen uint64) bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.running && d.gen == gen
}

func (d *frameDriver) tick(gen uint64, now time.Time) {
	if !d.current(gen) {
		return
	}
	d.paint(now)

	d.lock.Lock()
	defer d.lock.Unlock()
	if d.running && d.gen == gen {
		d.schedule(gen)
	}
}

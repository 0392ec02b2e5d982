package mediarecorder

import (
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/mengelbart/mediarecorder/capture"
	"github.com/stretchr/testify/assert"
)

func TestFrameDriver(t *testing.T) {
	display := newManualDisplay()
	painted := 0
	d := newFrameDriver(display, func(time.Time) { painted++ })

	assert.Equal(t, 0, display.tick())
	d.start()
	d.start()
	assert.True(t, d.isRunning())
	assert.Equal(t, 1, display.pendingCount())

	for range 3 {
		assert.Equal(t, 1, display.tick())
	}
	assert.Equal(t, 3, painted)

	d.halt()
	assert.False(t, d.isRunning())
	assert.Equal(t, 0, display.tick())
	assert.Equal(t, 3, painted)

	d.start()
	display.tick()
	assert.Equal(t, 4, painted)
	d.halt()
	d.halt()
}

func TestFrameDriverHaltDuringPaint(t *testing.T) {
	display := newManualDisplay()
	var d *frameDriver
	painted := 0
	d = newFrameDriver(display, func(time.Time) {
		painted++
		d.halt()
	})
	d.start()
	assert.Equal(t, 1, display.tick())
	assert.Equal(t, 0, display.pendingCount())
	assert.Equal(t, 1, painted)
}

func TestFrameDriverRestartDropsStaleTick(t *testing.T) {
	display := newManualDisplay()
	var d *frameDriver
	painted := 0
	d = newFrameDriver(display, func(time.Time) {
		painted++
		if painted == 1 {
			d.halt()
			d.start()
		}
	})
	d.start()
	display.tick()
	// only the tick scheduled by the restart is pending
	assert.Equal(t, 1, display.pendingCount())
	display.tick()
	assert.Equal(t, 2, painted)
	d.halt()
}

func TestFrameDriverRefreshClock(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var painted atomic.Int32
		d := newFrameDriver(capture.NewRefreshClock(10), func(time.Time) { painted.Add(1) })
		d.start()
		time.Sleep(time.Second)
		synctest.Wait()
		d.halt()
		synctest.Wait()
		assert.InDelta(t, 10, painted.Load(), 1)

		time.Sleep(time.Second)
		synctest.Wait()
		assert.InDelta(t, 10, painted.Load(), 1)
	})
}

func TestPeriodicEmitter(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var emitted atomic.Int32
		e := newPeriodicEmitter(250*time.Millisecond, func() { emitted.Add(1) })
		time.Sleep(time.Second + time.Millisecond)
		synctest.Wait()
		assert.Equal(t, int32(4), emitted.Load())
		e.stop()
		e.stop()
		time.Sleep(time.Second)
		synctest.Wait()
		assert.Equal(t, int32(4), emitted.Load())
	})
}

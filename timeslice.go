package mediarecorder

import (
	"sync"
	"time"
)

// periodicEmitter calls emit once per period until stopped.
type periodicEmitter struct {
	period time.Duration
	emit   func()

	done chan struct{}
	once sync.Once
}

func newPeriodicEmitter(period time.Duration, emit func()) *periodicEmitter {
	e := &periodicEmitter{
		period: period,
		emit:   emit,
		done:   make(chan struct{}),
	}
	go e.run()
	return e
}

func (e *periodicEmitter) run() {
	ticker := time.NewTicker(e.period)
	defer ticker.Stop()
	for {
		select {
		case <-e.done:
			return
		case <-ticker.C:
			e.emit()
		}
	}
}

// stop does not wait for a running emit, so emit may call back into code
// that stops the emitter.
func (e *periodicEmitter) stop() {
	e.once.Do(func() {
		close(e.done)
	})
}

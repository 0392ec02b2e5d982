package mediarecorder

import (
	"sync"
	"time"
)

type EventType string

const (
	EventStart         EventType = "start"
	EventStop          EventType = "stop"
	EventPause         EventType = "pause"
	EventResume        EventType = "resume"
	EventDataAvailable EventType = "dataavailable"
	EventError         EventType = "error"
)

// Event is delivered for every lifecycle change. Data is set for
// dataavailable events, Err for error events.
type Event struct {
	Type EventType
	Data *Blob
	Err  error
	Time time.Time
}

type EventListener func(Event)

type listener struct {
	f EventListener
}

// eventTarget fans events out to registered listeners first and to the
// single handler slot of the event type second.
type eventTarget struct {
	lock      sync.Mutex
	listeners map[EventType][]*listener
	handlers  map[EventType]EventListener
}

func newEventTarget() *eventTarget {
	return &eventTarget{
		listeners: map[EventType][]*listener{},
		handlers:  map[EventType]EventListener{},
	}
}

// AddEventListener registers f for events of type typ. The returned function
// removes the registration.
func (t *eventTarget) AddEventListener(typ EventType, f EventListener) (remove func()) {
	l := &listener{f: f}
	t.lock.Lock()
	t.listeners[typ] = append(t.listeners[typ], l)
	t.lock.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.lock.Lock()
			defer t.lock.Unlock()
			ls := t.listeners[typ]
			for i, c := range ls {
				if c == l {
					t.listeners[typ] = append(ls[:i:i], ls[i+1:]...)
					break
				}
			}
		})
	}
}

func (t *eventTarget) setHandler(typ EventType, f EventListener) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if f == nil {
		delete(t.handlers, typ)
		return
	}
	t.handlers[typ] = f
}

func (t *eventTarget) dispatch(e Event) {
	t.lock.Lock()
	ls := make([]*listener, len(t.listeners[e.Type]))
	copy(ls, t.listeners[e.Type])
	h := t.handlers[e.Type]
	t.lock.Unlock()

	for _, l := range ls {
		l.f(e)
	}
	if h != nil {
		h(e)
	}
}

// OnStart sets the handler called when recording starts.
func (t *eventTarget) OnStart(f EventListener) {
	t.setHandler(EventStart, f)
}

// OnStop sets the handler called after the final dataavailable event.
func (t *eventTarget) OnStop(f EventListener) {
	t.setHandler(EventStop, f)
}

func (t *eventTarget) OnPause(f EventListener) {
	t.setHandler(EventPause, f)
}

func (t *eventTarget) OnResume(f EventListener) {
	t.setHandler(EventResume, f)
}

// OnDataAvailable sets the handler receiving recorded blobs.
func (t *eventTarget) OnDataAvailable(f EventListener) {
	t.setHandler(EventDataAvailable, f)
}

func (t *eventTarget) OnError(f EventListener) {
	t.setHandler(EventError, f)
}

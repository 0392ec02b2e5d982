package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync"

	"github.com/pion/mediadevices/pkg/io/video"
)

var errPlayerClosed = errors.New("player closed")

// Player decodes the first video track of a stream and keeps the most
// recent frame, like a hidden video element bound to the stream.
type Player struct {
	logger *slog.Logger
	stream Stream

	lock    sync.Mutex
	frame   image.Image
	release func()
	width   int
	height  int
	playing bool
	err     error

	ready  chan struct{}
	closed chan struct{}
	once   sync.Once
}

func NewPlayer(stream Stream) *Player {
	return &Player{
		logger: slog.Default(),
		stream: stream,
		ready:  make(chan struct{}),
		closed: make(chan struct{}),
	}
}

// Play starts decoding and blocks until the first frame is available, the
// track fails or ctx is done.
func (p *Player) Play(ctx context.Context) error {
	tracks := p.stream.VideoTracks()
	if len(tracks) == 0 {
		return errors.New("stream has no video track")
	}
	reader, err := tracks[0].NewReader()
	if err != nil {
		return fmt.Errorf("failed to open video track %v: %w", tracks[0].ID(), err)
	}
	go p.run(reader)

	select {
	case <-p.ready:
		p.lock.Lock()
		defer p.lock.Unlock()
		return p.err
	case <-p.closed:
		return errPlayerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Player) run(reader video.Reader) {
	first := true
	for {
		select {
		case <-p.closed:
			return
		default:
		}
		img, release, err := reader.Read()
		if err != nil {
			p.lock.Lock()
			p.playing = false
			if first {
				p.err = err
			}
			p.lock.Unlock()
			if first {
				close(p.ready)
			} else if !errors.Is(err, io.EOF) {
				p.logger.Warn("video track read failed", "error", err)
			}
			return
		}
		p.lock.Lock()
		select {
		case <-p.closed:
			p.lock.Unlock()
			if release != nil {
				release()
			}
			return
		default:
		}
		if p.release != nil {
			p.release()
		}
		p.frame, p.release = img, release
		if first {
			b := img.Bounds()
			p.width, p.height = b.Dx(), b.Dy()
			p.playing = true
		}
		p.lock.Unlock()
		if first {
			first = false
			close(p.ready)
		}
	}
}

// VideoSize returns the dimensions of the first decoded frame.
func (p *Player) VideoSize() (int, int) {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.width, p.height
}

func (p *Player) Playing() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.playing
}

// Paint draws the current frame onto the surface. It reports false when no
// frame is available.
func (p *Player) Paint(s *Surface) bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.frame == nil {
		return false
	}
	s.DrawImage(p.frame)
	return true
}

// Close detaches the player from its stream. The reader goroutine exits
// after its current read returns.
func (p *Player) Close() error {
	p.once.Do(func() {
		close(p.closed)
		p.lock.Lock()
		defer p.lock.Unlock()
		if p.release != nil {
			p.release()
			p.release = nil
		}
		p.frame = nil
		p.playing = false
		if p.err == nil {
			p.err = errPlayerClosed
		}
	})
	return nil
}

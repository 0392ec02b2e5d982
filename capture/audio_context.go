package capture

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/pion/mediadevices/pkg/io/audio"
	"github.com/pion/mediadevices/pkg/wave"
)

const (
	DefaultSampleRate = 48_000
	DefaultBlockSize  = 4096
)

var errContextClosed = errors.New("audio context closed")

// AudioBlock is one processed block of planar samples.
type AudioBlock struct {
	Channels   [][]float32
	SampleRate int
}

// AudioContext owns an audio processing graph: sources fed by capture
// tracks, sample taps and the destination sink. Closing the context stops
// all sources.
type AudioContext struct {
	logger     *slog.Logger
	sampleRate int

	lock    sync.Mutex
	closed  chan struct{}
	sources []*SourceNode
	dest    *DestinationNode
}

func NewAudioContext(sampleRate int) *AudioContext {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	c := &AudioContext{
		logger:     slog.Default(),
		sampleRate: sampleRate,
		closed:     make(chan struct{}),
	}
	c.dest = &DestinationNode{ctx: c}
	return c
}

func (c *AudioContext) SampleRate() int {
	return c.sampleRate
}

func (c *AudioContext) Destination() *DestinationNode {
	return c.dest
}

func (c *AudioContext) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// CreateMediaStreamSource creates a source node mixing all given tracks.
func (c *AudioContext) CreateMediaStreamSource(tracks []AudioTrack) (*SourceNode, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.isClosed() {
		return nil, errContextClosed
	}
	if len(tracks) == 0 {
		return nil, errors.New("no audio tracks")
	}
	s := &SourceNode{
		ctx:    c,
		tracks: tracks,
		signal: make(chan struct{}, 1),
		stop:   make(chan struct{}),
	}
	c.sources = append(c.sources, s)
	return s, nil
}

// CreateTap creates a node that hands fixed-size blocks of the given
// channel count to its process callback.
func (c *AudioContext) CreateTap(blockSize, channels int) (*TapNode, error) {
	if c.isClosed() {
		return nil, errContextClosed
	}
	if blockSize <= 0 {
		return nil, fmt.Errorf("invalid block size: %v", blockSize)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count: %v", channels)
	}
	return &TapNode{
		ctx:       c,
		blockSize: blockSize,
		channels:  channels,
	}, nil
}

func (c *AudioContext) Close() error {
	c.lock.Lock()
	if c.isClosed() {
		c.lock.Unlock()
		return nil
	}
	close(c.closed)
	sources := c.sources
	c.sources = nil
	c.lock.Unlock()

	for _, s := range sources {
		s.Disconnect()
	}
	return nil
}

// DestinationNode is the output sink of a context. A tap only processes
// while it is connected to the destination.
type DestinationNode struct {
	ctx *AudioContext
}

type TapNode struct {
	ctx       *AudioContext
	blockSize int
	channels  int

	lock      sync.Mutex
	process   func(AudioBlock)
	connected bool
}

func (t *TapNode) BlockSize() int {
	return t.blockSize
}

func (t *TapNode) Channels() int {
	return t.channels
}

// OnProcess sets the callback invoked for every block.
func (t *TapNode) OnProcess(f func(AudioBlock)) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.process = f
}

func (t *TapNode) Connect(d *DestinationNode) error {
	if d.ctx != t.ctx {
		return errors.New("destination belongs to a different audio context")
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	t.connected = true
	return nil
}

func (t *TapNode) Disconnect() {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.connected = false
}

func (t *TapNode) deliver(b AudioBlock) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if !t.connected || t.process == nil {
		return
	}
	t.process(b)
}

// SourceNode reads all tracks of a stream and mixes them into blocks for
// the connected tap.
type SourceNode struct {
	ctx    *AudioContext
	tracks []AudioTrack

	lock      sync.Mutex
	tap       *TapNode
	fifos     [][][]float32
	ended     []bool
	warnedFor map[int]bool
	signal    chan struct{}
	stop      chan struct{}
	stopOnce  sync.Once
}

// Connect opens a reader per track and starts feeding the tap.
func (s *SourceNode) Connect(t *TapNode) error {
	if t.ctx != s.ctx {
		return errors.New("tap belongs to a different audio context")
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.tap != nil {
		return errors.New("source already connected")
	}
	readers := make([]audio.Reader, 0, len(s.tracks))
	for _, track := range s.tracks {
		r, err := track.NewReader()
		if err != nil {
			return fmt.Errorf("failed to open audio track %v: %w", track.ID(), err)
		}
		readers = append(readers, r)
	}
	s.tap = t
	s.fifos = make([][][]float32, len(readers))
	s.ended = make([]bool, len(readers))
	for i := range s.fifos {
		s.fifos[i] = make([][]float32, t.channels)
	}
	s.warnedFor = map[int]bool{}
	for i, r := range readers {
		go s.read(i, r)
	}
	go s.mix()
	return nil
}

func (s *SourceNode) Disconnect() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	s.lock.Lock()
	defer s.lock.Unlock()
	s.tap = nil
	s.fifos = nil
	s.ended = nil
}

func (s *SourceNode) stopped() bool {
	select {
	case <-s.stop:
		return true
	case <-s.ctx.closed:
		return true
	default:
		return false
	}
}

func (s *SourceNode) read(idx int, r audio.Reader) {
	for !s.stopped() {
		chunk, release, err := r.Read()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.ctx.logger.Warn("audio track read failed", "track", idx, "error", err)
			}
			s.end(idx)
			return
		}
		planar := planarFloat32(chunk)
		rate := chunk.ChunkInfo().SamplingRate
		if release != nil {
			release()
		}

		s.lock.Lock()
		if s.tap == nil {
			s.lock.Unlock()
			return
		}
		if rate != 0 && rate != s.ctx.sampleRate && !s.warnedFor[idx] {
			s.warnedFor[idx] = true
			s.ctx.logger.Warn("audio track sample rate differs from context", "track", idx, "track-rate", rate, "context-rate", s.ctx.sampleRate)
		}
		fifo := s.fifos[idx]
		for ch := range fifo {
			fifo[ch] = append(fifo[ch], upmix(planar, ch)...)
		}
		s.lock.Unlock()

		select {
		case s.signal <- struct{}{}:
		default:
		}
	}
}

// end marks track idx as finished. Its buffered samples are still mixed,
// after that it contributes silence.
func (s *SourceNode) end(idx int) {
	s.lock.Lock()
	if s.ended != nil {
		s.ended[idx] = true
	}
	s.lock.Unlock()
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *SourceNode) mix() {
	for {
		select {
		case <-s.stop:
			return
		case <-s.ctx.closed:
			return
		case <-s.signal:
		}
		for {
			block, tap, ok := s.nextBlock()
			if !ok {
				break
			}
			tap.deliver(block)
		}
	}
}

func (s *SourceNode) nextBlock() (AudioBlock, *TapNode, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.tap == nil {
		return AudioBlock{}, nil, false
	}
	n := s.tap.blockSize
	full := false
	for i, fifo := range s.fifos {
		available := len(fifo) > 0 && len(fifo[0]) >= n
		if !available && !s.ended[i] {
			return AudioBlock{}, nil, false
		}
		full = full || available
	}
	if !full {
		return AudioBlock{}, nil, false
	}
	out := make([][]float32, s.tap.channels)
	for ch := range out {
		out[ch] = make([]float32, n)
	}
	for _, fifo := range s.fifos {
		for ch := range fifo {
			m := min(n, len(fifo[ch]))
			for i, v := range fifo[ch][:m] {
				out[ch][i] += v
			}
			fifo[ch] = fifo[ch][m:]
		}
	}
	return AudioBlock{Channels: out, SampleRate: s.ctx.sampleRate}, s.tap, true
}

// upmix returns the samples for output channel ch. Mono input is copied to
// every channel, missing channels are silent.
func upmix(planar [][]float32, ch int) []float32 {
	switch {
	case len(planar) == 0:
		return nil
	case len(planar) == 1:
		return planar[0]
	case ch < len(planar):
		return planar[ch]
	default:
		return make([]float32, len(planar[0]))
	}
}

func planarFloat32(chunk wave.Audio) [][]float32 {
	info := chunk.ChunkInfo()
	out := make([][]float32, info.Channels)
	for ch := range out {
		out[ch] = make([]float32, info.Len)
	}
	switch c := chunk.(type) {
	case *wave.Float32Interleaved:
		for i := 0; i < info.Len; i++ {
			for ch := 0; ch < info.Channels; ch++ {
				out[ch][i] = c.Data[i*info.Channels+ch]
			}
		}
	case *wave.Float32NonInterleaved:
		for ch := range out {
			copy(out[ch], c.Data[ch])
		}
	case *wave.Int16Interleaved:
		for i := 0; i < info.Len; i++ {
			for ch := 0; ch < info.Channels; ch++ {
				out[ch][i] = float32(c.Data[i*info.Channels+ch]) / 32768
			}
		}
	case *wave.Int16NonInterleaved:
		for ch := range out {
			for i, v := range c.Data[ch] {
				out[ch][i] = float32(v) / 32768
			}
		}
	default:
		for i := 0; i < info.Len; i++ {
			for ch := 0; ch < info.Channels; ch++ {
				out[ch][i] = float32(float64(c.At(i, ch).Int()) / math.MaxInt64)
			}
		}
	}
	return out
}

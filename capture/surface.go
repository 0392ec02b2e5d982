package capture

import (
	"image"
	"sync"
	"sync/atomic"

	"golang.org/x/image/draw"
)

// Surface is an off-screen RGBA canvas of fixed size.
type Surface struct {
	lock  sync.Mutex
	img   *image.RGBA
	draws atomic.Uint64
}

func NewSurface(width, height int) *Surface {
	return &Surface{
		img: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

func (s *Surface) Width() int {
	return s.img.Rect.Dx()
}

func (s *Surface) Height() int {
	return s.img.Rect.Dy()
}

// DrawImage scales src onto the whole surface.
func (s *Surface) DrawImage(src image.Image) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if src.Bounds().Size() == s.img.Rect.Size() {
		draw.Draw(s.img, s.img.Rect, src, src.Bounds().Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(s.img, s.img.Rect, src, src.Bounds(), draw.Src, nil)
	}
	s.draws.Add(1)
}

// Snapshot returns a copy of the current surface contents.
func (s *Surface) Snapshot() *image.RGBA {
	s.lock.Lock()
	defer s.lock.Unlock()
	out := image.NewRGBA(s.img.Rect)
	copy(out.Pix, s.img.Pix)
	return out
}

// DrawCount returns how many times the surface was painted.
func (s *Surface) DrawCount() uint64 {
	return s.draws.Load()
}

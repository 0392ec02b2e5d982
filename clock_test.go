package mediarecorder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMediaClock(t *testing.T) {
	now := time.Unix(0, 0)
	c := newMediaClock(func() time.Time { return now })

	now = now.Add(time.Second)
	assert.Equal(t, time.Second, c.elapsed())

	c.pause()
	now = now.Add(5 * time.Second)
	assert.Equal(t, time.Second, c.elapsed())
	c.pause()

	c.resume()
	now = now.Add(time.Second)
	assert.Equal(t, 2*time.Second, c.elapsed())
	c.resume()
	assert.Equal(t, 2*time.Second, c.elapsed())
}

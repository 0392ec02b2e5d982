package subcmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "out.webm", outputPath("out", "video/webm; codecs=vp8"))
	assert.Equal(t, "out.mp4", outputPath("out", "video/mp4"))
	assert.Equal(t, "dir/out.mkv", outputPath("dir/out.mkv", "video/webm"))
}

package subcmd

import (
	"bytes"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	v := newVersion(&debug.BuildInfo{
		Main: debug.Module{Path: "github.com/mengelbart/mediarecorder", Version: "v0.1.0"},
		Deps: []*debug.Module{
			{Path: "github.com/go-gst/go-gst", Version: "v1.4.0"},
			{Path: "golang.org/x/sync", Version: "v0.16.0"},
		},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.modified", Value: "true"},
		},
	})
	assert.Equal(t, "abc123+dirty", v.GitCommit)
	assert.Equal(t, map[string]string{"github.com/go-gst/go-gst": "v1.4.0"}, v.Media)

	var buf bytes.Buffer
	require.NoError(t, v.write(&buf))
	assert.Contains(t, buf.String(), "v0.1.0")
	assert.Contains(t, buf.String(), "github.com/go-gst/go-gst v1.4.0")
	assert.NotContains(t, buf.String(), "x/sync")
}

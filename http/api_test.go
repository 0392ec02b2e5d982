package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/mengelbart/mediarecorder"
	"github.com/mengelbart/mediarecorder/capture"
	"github.com/mengelbart/mediarecorder/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticEngine writes a fixed payload on finalize.
type staticEngine struct {
	target *mux.BufferTarget
}

func (e *staticEngine) AddVideoTrack(mux.VideoTrackConfig) (mux.VideoInput, error) {
	panic("no video tracks expected")
}

func (e *staticEngine) AddAudioTrack(mux.AudioTrackConfig) (mux.AudioInput, error) {
	panic("no audio tracks expected")
}

func (e *staticEngine) Start() error { return nil }

func (e *staticEngine) Finalize(context.Context) error {
	_, err := e.target.Write([]byte("webm-container"))
	return err
}

func (e *staticEngine) Close() error { return nil }

func newTestServer(t *testing.T) *httptest.Server {
	recorder, err := mediarecorder.New(
		capture.NewStream(),
		func(_ mux.Format, target *mux.BufferTarget) (mux.Engine, error) {
			return &staticEngine{target: target}, nil
		},
		mediarecorder.MimeType("video/webm; codecs=vp9,opus"),
	)
	require.NoError(t, err)
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	api, err := NewApi(recorder, store)
	require.NoError(t, err)

	router := httprouter.New()
	api.RegisterRoutes(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path string, v any) int {
	req, err := http.NewRequest(method, srv.URL+path, nil)
	require.NoError(t, err)
	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(v))
	}
	return res.StatusCode
}

func TestRecorderLifecycle(t *testing.T) {
	srv := newTestServer(t)

	var status recorderStatus
	assert.Equal(t, http.StatusOK, do(t, srv, "GET", "/api/v1/recorder", &status))
	assert.Equal(t, "inactive", status.State)
	assert.Equal(t, "video/webm; codecs=vp9,opus", status.MimeType)

	assert.Equal(t, http.StatusOK, do(t, srv, "POST", "/api/v1/recorder/start?timeslice=1000", &status))
	assert.Equal(t, "recording", status.State)
	assert.Equal(t, http.StatusConflict, do(t, srv, "POST", "/api/v1/recorder/start", nil))

	assert.Equal(t, http.StatusOK, do(t, srv, "POST", "/api/v1/recorder/pause", &status))
	assert.Equal(t, "paused", status.State)
	assert.Equal(t, http.StatusOK, do(t, srv, "POST", "/api/v1/recorder/request-data", &status))
	assert.Equal(t, http.StatusOK, do(t, srv, "POST", "/api/v1/recorder/resume", &status))
	assert.Equal(t, "recording", status.State)

	assert.Equal(t, http.StatusOK, do(t, srv, "POST", "/api/v1/recorder/stop", &status))
	assert.Equal(t, "inactive", status.State)

	var recordings []Recording
	assert.Equal(t, http.StatusOK, do(t, srv, "GET", "/api/v1/recordings", &recordings))
	require.Len(t, recordings, 1)
	assert.Equal(t, len("webm-container"), recordings[0].Size)
	assert.Contains(t, recordings[0].ID, ".webm")

	res, err := srv.Client().Get(srv.URL + "/api/v1/recordings/" + recordings[0].ID)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "video/webm; codecs=vp9,opus", res.Header.Get("Content-Type"))
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, "webm-container", string(body))
}

func TestStartInvalidTimeslice(t *testing.T) {
	srv := newTestServer(t)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, "POST", "/api/v1/recorder/start?timeslice=soon", nil))

	var status recorderStatus
	do(t, srv, "GET", "/api/v1/recorder", &status)
	assert.Equal(t, "inactive", status.State)
}

func TestRecordingNotFound(t *testing.T) {
	srv := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, do(t, srv, "GET", "/api/v1/recordings/missing.webm", nil))
}

func TestGetType(t *testing.T) {
	srv := newTestServer(t)

	var info typeInfo
	assert.Equal(t, http.StatusOK, do(t, srv, "GET", "/api/v1/types?mime=video/mp4", &info))
	assert.True(t, info.Supported)
	assert.Equal(t, "mp4", info.Format)
	assert.Equal(t, "H264", info.VideoCodec)
	assert.Equal(t, "AAC", info.AudioCodec)

	assert.Equal(t, http.StatusOK, do(t, srv, "GET", "/api/v1/types?mime=audio/ogg", &info))
	assert.False(t, info.Supported)

	assert.Equal(t, http.StatusBadRequest, do(t, srv, "GET", "/api/v1/types", nil))
}

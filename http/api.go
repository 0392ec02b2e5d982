package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/mengelbart/mediarecorder"
)

// Recorder is the recorder controlled through the API.
type Recorder interface {
	Start(ctx context.Context, timeslice time.Duration) error
	Stop(ctx context.Context) error
	Pause()
	Resume()
	RequestData()
	State() mediarecorder.RecordingState
	MimeType() string
	VideoBitsPerSecond() uint
	AudioBitsPerSecond() uint
	AddEventListener(typ mediarecorder.EventType, f mediarecorder.EventListener) (remove func())
}

type APIOption func(*API) error

func StartTimeout(d time.Duration) APIOption {
	return func(a *API) error {
		a.startTimeout = d
		return nil
	}
}

type API struct {
	logger       *slog.Logger
	recorder     Recorder
	store        *FileStore
	startTimeout time.Duration
}

// NewApi returns an API controlling recorder. Non-empty recorded blobs are
// saved to store.
func NewApi(recorder Recorder, store *FileStore, opts ...APIOption) (*API, error) {
	a := &API{
		logger:       slog.Default(),
		recorder:     recorder,
		store:        store,
		startTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	recorder.AddEventListener(mediarecorder.EventDataAvailable, a.saveRecording)
	return a, nil
}

func (a *API) RegisterRoutes(mux *httprouter.Router) {
	mux.HandlerFunc("GET", "/api/v1/recorder", a.GetRecorder)
	mux.HandlerFunc("POST", "/api/v1/recorder/start", a.Start)
	mux.HandlerFunc("POST", "/api/v1/recorder/pause", a.Pause)
	mux.HandlerFunc("POST", "/api/v1/recorder/resume", a.Resume)
	mux.HandlerFunc("POST", "/api/v1/recorder/stop", a.Stop)
	mux.HandlerFunc("POST", "/api/v1/recorder/request-data", a.RequestData)
	mux.HandlerFunc("GET", "/api/v1/recordings", a.ListRecordings)
	mux.GET("/api/v1/recordings/:id", a.GetRecording)
	mux.HandlerFunc("GET", "/api/v1/types", a.GetType)
}

func (a *API) saveRecording(e mediarecorder.Event) {
	if e.Data == nil || e.Data.Size() == 0 {
		return
	}
	rec, err := a.store.Save(e.Data)
	if err != nil {
		a.logger.Error("failed to save recording", "error", err)
		return
	}
	a.logger.Info("saved recording", "id", rec.ID, "size", rec.Size)
}

type recorderStatus struct {
	State              string `json:"state"`
	MimeType           string `json:"mime-type"`
	VideoBitsPerSecond uint   `json:"video-bits-per-second"`
	AudioBitsPerSecond uint   `json:"audio-bits-per-second"`
}

func (a *API) status() recorderStatus {
	return recorderStatus{
		State:              a.recorder.State().String(),
		MimeType:           a.recorder.MimeType(),
		VideoBitsPerSecond: a.recorder.VideoBitsPerSecond(),
		AudioBitsPerSecond: a.recorder.AudioBitsPerSecond(),
	}
}

func (a *API) GetRecorder(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, a.status())
}

func (a *API) Start(w http.ResponseWriter, r *http.Request) {
	var timeslice time.Duration
	if v := r.URL.Query().Get("timeslice"); v != "" {
		ms, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			a.writeError(w, http.StatusBadRequest, errors.New("timeslice must be a number of milliseconds"))
			return
		}
		timeslice = time.Duration(ms) * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(r.Context(), a.startTimeout)
	defer cancel()
	if err := a.recorder.Start(ctx, timeslice); err != nil {
		a.writeError(w, statusFor(err), err)
		return
	}
	a.writeJSON(w, http.StatusOK, a.status())
}

func (a *API) Pause(w http.ResponseWriter, r *http.Request) {
	a.recorder.Pause()
	a.writeJSON(w, http.StatusOK, a.status())
}

func (a *API) Resume(w http.ResponseWriter, r *http.Request) {
	a.recorder.Resume()
	a.writeJSON(w, http.StatusOK, a.status())
}

func (a *API) Stop(w http.ResponseWriter, r *http.Request) {
	if err := a.recorder.Stop(r.Context()); err != nil {
		a.writeError(w, statusFor(err), err)
		return
	}
	a.writeJSON(w, http.StatusOK, a.status())
}

func (a *API) RequestData(w http.ResponseWriter, r *http.Request) {
	a.recorder.RequestData()
	a.writeJSON(w, http.StatusOK, a.status())
}

func (a *API) ListRecordings(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, a.store.List())
}

func (a *API) GetRecording(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	rec, content, err := a.store.Open(ps.ByName("id"))
	if errors.Is(err, ErrRecordingNotFound) {
		a.writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer content.Close()
	w.Header().Set("Content-Type", rec.MimeType)
	http.ServeContent(w, r, rec.ID, rec.Created, content)
}

type typeInfo struct {
	MimeType   string `json:"mime-type"`
	Supported  bool   `json:"supported"`
	Format     string `json:"format"`
	VideoCodec string `json:"video-codec"`
	AudioCodec string `json:"audio-codec"`
}

func (a *API) GetType(w http.ResponseWriter, r *http.Request) {
	mime := r.URL.Query().Get("mime")
	if mime == "" {
		a.writeError(w, http.StatusBadRequest, errors.New("missing mime query parameter"))
		return
	}
	a.writeJSON(w, http.StatusOK, typeInfo{
		MimeType:   mime,
		Supported:  mediarecorder.IsTypeSupported(mime),
		Format:     mediarecorder.SelectFormat(mime).String(),
		VideoCodec: mediarecorder.SelectVideoCodec(mime).String(),
		AudioCodec: mediarecorder.SelectAudioCodec(mime).String(),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, mediarecorder.ErrInvalidState), errors.Is(err, mediarecorder.ErrAborted):
		return http.StatusConflict
	case errors.Is(err, mediarecorder.ErrSetupFailure):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Warn("failed to write response", "error", err)
	}
}

func (a *API) writeError(w http.ResponseWriter, status int, err error) {
	a.writeJSON(w, status, map[string]string{"error": err.Error()})
}

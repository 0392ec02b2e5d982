package http

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mengelbart/mediarecorder"
)

var ErrRecordingNotFound = errors.New("recording not found")

type Recording struct {
	ID       string    `json:"id"`
	MimeType string    `json:"mime-type"`
	Size     int       `json:"size"`
	Created  time.Time `json:"created"`
}

// FileStore keeps recorded blobs as files in a directory.
type FileStore struct {
	dir string
	now func() time.Time

	lock       sync.Mutex
	seq        int
	recordings map[string]Recording
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{
		dir:        dir,
		now:        time.Now,
		recordings: map[string]Recording{},
	}, nil
}

func (s *FileStore) Save(b *mediarecorder.Blob) (Recording, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.seq++
	created := s.now()
	ext := mediarecorder.SelectFormat(b.Type).Extension()
	id := fmt.Sprintf("%v-%03d%v", created.UTC().Format("20060102T150405"), s.seq, ext)
	if err := b.Save(filepath.Join(s.dir, id)); err != nil {
		return Recording{}, err
	}
	rec := Recording{
		ID:       id,
		MimeType: b.Type,
		Size:     b.Size(),
		Created:  created,
	}
	s.recordings[id] = rec
	return rec, nil
}

// List returns all recordings, oldest first.
func (s *FileStore) List() []Recording {
	s.lock.Lock()
	defer s.lock.Unlock()
	list := make([]Recording, 0, len(s.recordings))
	for _, r := range s.recordings {
		list = append(list, r)
	}
	slices.SortFunc(list, func(a, b Recording) int {
		return strings.Compare(a.ID, b.ID)
	})
	return list
}

// Open returns the recording and its content. The caller closes the
// reader.
func (s *FileStore) Open(id string) (Recording, io.ReadSeekCloser, error) {
	s.lock.Lock()
	rec, ok := s.recordings[id]
	s.lock.Unlock()
	if !ok {
		return Recording{}, nil, ErrRecordingNotFound
	}
	f, err := os.Open(filepath.Join(s.dir, rec.ID))
	if err != nil {
		return Recording{}, nil, err
	}
	return rec, f, nil
}


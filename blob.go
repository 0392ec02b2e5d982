package mediarecorder

import (
	"io"
	"os"
)

// Blob is an encoded artifact together with its declared mime type.
type Blob struct {
	Data []byte
	Type string
}

func (b *Blob) Size() int {
	return len(b.Data)
}

func (b *Blob) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.Data)
	return int64(n), err
}

// Save writes the blob to a file.
func (b *Blob) Save(path string) error {
	return os.WriteFile(path, b.Data, 0o644)
}

package upload

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

var (
	ErrNoFile   = errors.New("Image file is required")
	ErrNotImage = errors.New("Only image files are allowed!")
	ErrTooLarge = errors.New("Image file is too large")
)

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// File is an uploaded image copied to the staging directory.
type File struct {
	Path string
	Name string
	Size int64
}

// Remove deletes the staged copy.
func (f *File) Remove() error {
	return os.Remove(f.Path)
}

// Stager copies a single multipart image field to local disk so it can be
// handed to the media host by path.
type Stager struct {
	dir      string
	maxBytes int64
	now      func() time.Time
}

func NewStager(dir string, maxBytes int64) *Stager {
	return &Stager{dir: dir, maxBytes: maxBytes, now: time.Now}
}

// MaxBytes is the per-file size limit.
func (s *Stager) MaxBytes() int64 {
	return s.maxBytes
}

// Stage reads field from the (already size-limited) request. ErrNoFile means
// the field was absent, which callers may treat as optional.
func (s *Stager) Stage(r *http.Request, field string) (*File, error) {
	src, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, ErrNoFile
	}
	if err != nil {
		return nil, errors.Wrap(err, "read form file")
	}
	defer src.Close()

	name := filepath.Base(header.Filename)
	if !allowedExt[strings.ToLower(filepath.Ext(name))] {
		return nil, ErrNotImage
	}
	if s.maxBytes > 0 && header.Size > s.maxBytes {
		return nil, ErrTooLarge
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create staging dir")
	}
	// CreateTemp fills the * so concurrent uploads of one name never share a file.
	pattern := fmt.Sprintf("%d-*-%s", s.now().UnixMilli(), strings.ReplaceAll(name, "*", "_"))
	dst, err := os.CreateTemp(s.dir, pattern)
	if err != nil {
		return nil, errors.Wrap(err, "create staging file")
	}
	path := dst.Name()

	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, errors.Wrap(err, "write staging file")
	}

	return &File{Path: path, Name: name, Size: n}, nil
}

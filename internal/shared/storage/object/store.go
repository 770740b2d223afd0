package object

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"documind-backend/internal/shared/util"
)

// ErrNotFound is returned by Open and Delete when the key does not exist.
var ErrNotFound = errors.New("object not found")

// ObjectStore defines the contract for saving and retrieving archived originals.
type ObjectStore interface {
	Save(ctx context.Context, folder string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}

// Presigner is implemented by stores that can hand out time-limited direct
// download URLs.
type Presigner interface {
	PresignGet(ctx context.Context, storageKey string, ttl time.Duration) (string, error)
}

// NewKey builds "<folder>/<uuid>_<name>" for a sanitized file name.
func NewKey(folder, fileName string) (string, error) {
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", err
	}
	return path.Join(util.SanitizeSegment(folder), uuid.NewString()+"_"+name), nil
}

// Sniff reads up to 3072 bytes from r and detects the content type. The
// returned reader replays the sniffed bytes followed by the rest of r.
func Sniff(r io.Reader) (io.Reader, string, error) {
	head := make([]byte, 3072)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, "", err
	}
	head = head[:n]
	mt := mimetype.Detect(head)
	return io.MultiReader(bytes.NewReader(head), r), mt.String(), nil
}

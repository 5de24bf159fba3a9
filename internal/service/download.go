package service

import (
	"io"
	"path"
	"strings"

	"github.com/noah-isme/marriage-appointment-client/internal/models"
	"github.com/noah-isme/marriage-appointment-client/internal/repository"
	appErrors "github.com/noah-isme/marriage-appointment-client/pkg/errors"
)

type downloadStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Path(filename string) string
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// saveBinary writes a streamed file into the downloads directory.
func saveBinary(storage downloadStorage, bin *repository.Binary, filename string) (*models.Download, error) {
	defer bin.Body.Close()
	counter := &countingReader{r: bin.Body}
	stored, err := storage.SaveStream(filename, counter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save download")
	}
	return &models.Download{
		Filename:    stored,
		Path:        storage.Path(stored),
		ContentType: bin.ContentType,
		Size:        counter.n,
	}, nil
}

// documentFilename is the last element of a stored document path, which may
// use either slash style.
func documentFilename(documentPath string) string {
	documentPath = strings.ReplaceAll(documentPath, "\\", "/")
	base := path.Base(documentPath)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

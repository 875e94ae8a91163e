// Package source describes where a document comes from: a filesystem path or an
// in-memory upload. Both pipelines accept either.
package source

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/insightdelivered/statement-structurer/internal/models"
)

// Source is a document given either by Path or by Data.
type Source struct {
	Name string // display name, usually the file name
	Path string
	Data []byte
}

// FromPath returns a source backed by a file on disk.
func FromPath(path string) Source {
	return Source{Name: filepath.Base(path), Path: path}
}

// FromBytes returns a source backed by an in-memory buffer.
func FromBytes(name string, data []byte) Source {
	return Source{Name: name, Data: data}
}

// Ext returns the lower-cased file extension of the source name.
func (s Source) Ext() string {
	name := s.Name
	if name == "" {
		name = s.Path
	}
	return strings.ToLower(filepath.Ext(name))
}

// Bytes loads the whole document. A missing file is ErrSourceUnreadable.
func (s Source) Bytes() ([]byte, error) {
	if s.Data != nil {
		return s.Data, nil
	}
	if s.Path == "" {
		return nil, fmt.Errorf("%w: no path or data given", models.ErrSourceUnreadable)
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSourceUnreadable, err)
	}
	return data, nil
}

// Reader returns a seekable reader over the document.
func (s Source) Reader() (*bytes.Reader, error) {
	data, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

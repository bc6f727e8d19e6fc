package models

import (
	"bytes"
	"io"
)

// ContentHandle gives access to the bytes of a chosen file.
type ContentHandle interface {
	Open() (io.ReadCloser, error)
}

type BytesContent []byte

func (b BytesContent) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b)), nil
}

// FileDescriptor is one member of a file selection.
type FileDescriptor struct {
	Name      string        `json:"name"`
	Extension string        `json:"extension"`
	Size      int64         `json:"size"`
	Content   ContentHandle `json:"-"`
}

// UploadProgress mirrors the progress bar of the submission tab.
type UploadProgress struct {
	Active  bool `json:"active"`
	Percent int  `json:"percent"`
}

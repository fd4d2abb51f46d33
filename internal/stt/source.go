package stt

import (
	"context"
	"io"
	"os"
)

// FileMicrophone reads raw PCM16 16kHz mono from a file, or stdin for "-".
type FileMicrophone struct {
	Path string
}

func (m FileMicrophone) Open(ctx context.Context) (io.ReadCloser, error) {
	if m.Path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(m.Path)
}

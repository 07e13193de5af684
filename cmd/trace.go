package cmd

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// traceWriter writes a trace file, zstd compressing when the file name ends
// in .zst. Close flushes the encoder before closing the file.
type traceWriter struct {
	w    io.Writer
	enc  *zstd.Encoder
	file *os.File
}

func newTraceWriter(path string) (*traceWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Could not create trace file %s", path)
	}

	tw := &traceWriter{w: f, file: f}
	if strings.EqualFold(filepath.Ext(path), ".zst") {
		enc, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "Could not start zstd for %s", path)
		}
		tw.enc = enc
		tw.w = enc
	}

	return tw, nil
}

func (tw *traceWriter) Write(p []byte) (int, error) {
	return tw.w.Write(p)
}

func (tw *traceWriter) Close() error {
	if tw.enc != nil {
		if err := tw.enc.Close(); err != nil {
			tw.file.Close()
			return err
		}
	}
	return tw.file.Close()
}

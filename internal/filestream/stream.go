// Package filestream reads files as a lazy, forward-only sequence of fixed size chunks.
package filestream

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"sync"
)

// ChunkSize is the size of every chunk but the last.
const ChunkSize = 4 << 10

var (
	ErrClosed      = errors.New("filestream: stream is closed")
	ErrIsDirectory = errors.New("is a directory")
)

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, ChunkSize)
		return &b
	},
}

// Stream is a finite byte stream over an open file. It is consumed once and is not safe for
// concurrent use.
type Stream struct {
	f    *os.File
	name string
	size int64
	buf  *[]byte
	done bool
}

// Open opens name for streaming. Directories are refused with ErrIsDirectory.
func Open(name string) (*Stream, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, &fs.PathError{Op: "open", Path: name, Err: ErrIsDirectory}
	}
	return &Stream{
		f:    f,
		name: name,
		size: info.Size(),
		buf:  bufPool.Get().(*[]byte),
	}, nil
}

func (s *Stream) Name() string { return s.name }

// Size is the file size observed when the stream was opened.
func (s *Stream) Size() int64 { return s.size }

// Next returns the next chunk, or io.EOF once the file is exhausted. The returned slice is
// only valid until the next call to Next or Close.
func (s *Stream) Next() ([]byte, error) {
	if s.f == nil {
		return nil, ErrClosed
	}
	if s.done {
		return nil, io.EOF
	}
	buf := *s.buf
	n, err := io.ReadFull(s.f, buf)
	switch {
	case err == nil:
		return buf[:n], nil
	case errors.Is(err, io.ErrUnexpectedEOF):
		s.done = true
		return buf[:n], nil
	default:
		s.done = true
		return nil, err
	}
}

// WriteTo drains the remaining chunks into w.
func (s *Stream) WriteTo(w io.Writer) (int64, error) {
	var written int64
	for {
		chunk, err := s.Next()
		if errors.Is(err, io.EOF) {
			return written, nil
		}
		if err != nil {
			return written, err
		}
		n, err := w.Write(chunk)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
}

// Close releases the file. It is safe to call more than once.
func (s *Stream) Close() error {
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	bufPool.Put(s.buf)
	s.buf = nil
	return err
}

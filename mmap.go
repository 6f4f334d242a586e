package datamorph

import (
	"fmt"
	"os"

	overflow "github.com/JohnCGriffin/overflow"
	"golang.org/x/exp/mmap"
)

// MmapSource is a bounded random-access byte reader over a memory-mapped
// file. It is the single owner of the file mapping; every RowIndexer,
// RowReader, and RowByteCache referencing it must not outlive it (§3
// Ownership). Safe for concurrent Read calls; Close is single-owner.
type MmapSource struct {
	path   string
	reader *mmap.ReaderAt
	length int64
	closed bool
}

// OpenMmapSource opens path for bounded random-access reads. Returns an
// error if the file does not exist, cannot be opened, or is empty.
func OpenMmapSource(path string) (*MmapSource, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("datamorph: stat %s: %w", path, err)
	}
	if fi.Size() == 0 {
		return nil, fmt.Errorf("datamorph: %s: %w", path, ErrEmptyFile)
	}

	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("datamorph: mmap %s: %w", path, err)
	}

	return &MmapSource{
		path:   path,
		reader: r,
		length: int64(r.Len()),
	}, nil
}

// Len returns the mapped file's length in bytes.
func (s *MmapSource) Len() int64 { return s.length }

// Path returns the path the source was opened from.
func (s *MmapSource) Path() string { return s.path }

// Read fills dst from offset, validating bounds with overflow-safe
// arithmetic: rather than computing offset+len(dst) (which could overflow),
// it checks offset > length - len(dst).
func (s *MmapSource) Read(offset int64, dst []byte) (int, error) {
	if s.closed {
		return 0, ErrDisposed
	}
	if offset < 0 {
		return 0, fmt.Errorf("datamorph: negative offset %d", offset)
	}
	remaining, ok := overflow.Sub64(s.length, int64(len(dst)))
	if !ok || offset > remaining {
		return 0, fmt.Errorf("datamorph: read [%d,%d) out of bounds for length %d", offset, offset+int64(len(dst)), s.length)
	}
	return s.reader.ReadAt(dst, offset)
}

// TryRead is the non-error-returning variant: it reports success/failure as
// (ok, message) instead of an error, matching §4.2's try_read contract. On
// failure the message is the text of the error Read returned.
func (s *MmapSource) TryRead(offset int64, dst []byte) (ok bool, message string) {
	n, err := s.Read(offset, dst)
	if err != nil {
		return false, err.Error()
	}
	return n == len(dst), ""
}

// Close releases the mapping. Safe to call once; subsequent reads fail with
// ErrDisposed.
func (s *MmapSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.reader.Close()
}

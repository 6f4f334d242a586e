package datamorph

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenMmapSource_EmptyFileErrors(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("os.WriteFile() error = %v", err)
	}

	_, err := OpenMmapSource(path)
	if !errors.Is(err, ErrEmptyFile) {
		t.Errorf("expected ErrEmptyFile, got %v", err)
	}
}

func TestOpenMmapSource_MissingFileErrors(t *testing.T) {
	t.Parallel()

	_, err := OpenMmapSource(filepath.Join(t.TempDir(), "does-not-exist.txt"))
	if err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestMmapSource_ReadBounds(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0o600); err != nil {
		t.Fatalf("os.WriteFile() error = %v", err)
	}

	src, err := OpenMmapSource(path)
	if err != nil {
		t.Fatalf("OpenMmapSource() error = %v", err)
	}
	defer src.Close()

	buf := make([]byte, 5)
	if _, err := src.Read(0, buf); err != nil || string(buf) != "hello" {
		t.Errorf("Read(0, ...) = %q, %v, want hello", buf, err)
	}

	if _, err := src.Read(6, buf); err != nil || string(buf) != "world" {
		t.Errorf("Read(6, ...) = %q, %v, want world", buf, err)
	}

	if _, err := src.Read(100, buf); err == nil {
		t.Error("expected an error reading past EOF")
	}

	if _, err := src.Read(-1, buf); err == nil {
		t.Error("expected an error for a negative offset")
	}
}

func TestMmapSource_TryRead(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.txt")
	if err := os.WriteFile(path, []byte("abc"), 0o600); err != nil {
		t.Fatalf("os.WriteFile() error = %v", err)
	}
	src, err := OpenMmapSource(path)
	if err != nil {
		t.Fatalf("OpenMmapSource() error = %v", err)
	}
	defer src.Close()

	buf := make([]byte, 3)
	ok, msg := src.TryRead(0, buf)
	if !ok || msg != "" {
		t.Errorf("TryRead(0) = %v, %q, want true, \"\"", ok, msg)
	}

	ok, msg = src.TryRead(10, buf)
	if ok || msg == "" {
		t.Errorf("TryRead(10) = %v, %q, want false, non-empty message", ok, msg)
	}
}

func TestMmapSource_CloseThenReadFails(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.txt")
	if err := os.WriteFile(path, []byte("abc"), 0o600); err != nil {
		t.Fatalf("os.WriteFile() error = %v", err)
	}
	src, err := OpenMmapSource(path)
	if err != nil {
		t.Fatalf("OpenMmapSource() error = %v", err)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := src.Read(0, make([]byte, 1)); !errors.Is(err, ErrDisposed) {
		t.Errorf("expected ErrDisposed, got %v", err)
	}
}

package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteAtomic(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")

	n, err := WriteAtomic(dir, "poster.jpg", strings.NewReader("hello"), 0)
	if err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 bytes written, got %d", n)
	}
	got, err := os.ReadFile(filepath.Join(dir, "poster.jpg"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestWriteAtomicReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	if _, err := WriteAtomic(dir, "a.txt", strings.NewReader("first"), 0); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if _, err := WriteAtomic(dir, "a.txt", strings.NewReader("second"), 0); err != nil {
		t.Fatalf("second write: %v", err)
	}
	got, _ := os.ReadFile(filepath.Join(dir, "a.txt"))
	if string(got) != "second" {
		t.Fatalf("expected replacement, got %q", got)
	}
}

func TestWriteAtomicTooLarge(t *testing.T) {
	dir := t.TempDir()
	_, err := WriteAtomic(dir, "big.bin", strings.NewReader("0123456789"), 4)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no files left behind, found %d", len(entries))
	}
}

func TestWriteAtomicExactLimit(t *testing.T) {
	dir := t.TempDir()
	if _, err := WriteAtomic(dir, "ok.bin", strings.NewReader("1234"), 4); err != nil {
		t.Fatalf("expected exact-limit write to succeed, got %v", err)
	}
}

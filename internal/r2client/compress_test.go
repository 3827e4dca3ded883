package r2client

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCompressFileRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	srcPath := filepath.Join(dir, "catalog.db")
	zstPath := filepath.Join(dir, "catalog.db.zst")
	outPath := filepath.Join(dir, "restored.db")

	original := strings.Repeat("CS 50|Introduction to Computer Science|Fall 2025\n", 500)
	if err := os.WriteFile(srcPath, []byte(original), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if err := CompressFile(srcPath, zstPath); err != nil {
		t.Fatalf("CompressFile() error = %v", err)
	}

	srcInfo, _ := os.Stat(srcPath)
	zstInfo, err := os.Stat(zstPath)
	if err != nil {
		t.Fatalf("compressed file missing: %v", err)
	}
	if zstInfo.Size() >= srcInfo.Size() {
		t.Errorf("compressed size %d not smaller than source %d for repetitive input", zstInfo.Size(), srcInfo.Size())
	}

	zstFile, err := os.Open(zstPath)
	if err != nil {
		t.Fatalf("open compressed: %v", err)
	}
	defer zstFile.Close()

	if err := Decompress(zstFile, outPath); err != nil {
		t.Fatalf("Decompress() error = %v", err)
	}
	restored, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read restored: %v", err)
	}
	if string(restored) != original {
		t.Error("round trip changed the content")
	}
}

func TestCompressFileMissingSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	err := CompressFile(filepath.Join(dir, "absent.db"), filepath.Join(dir, "out.zst"))
	if err == nil {
		t.Error("CompressFile() with a missing source should fail")
	}
}

func TestDecompressGarbageInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	err := Decompress(bytes.NewReader([]byte("not a zstd stream")), filepath.Join(dir, "out.db"))
	if err == nil {
		t.Error("Decompress() with garbage input should fail")
	}
}

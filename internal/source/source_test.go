package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestReadLines(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "app.log")
	writeFile(t, logPath, "2024-01-01 06:01:00 a\n\n   \n2024-01-01 06:02:00 b\r\n2024-01-01 06:03:00 c")

	lines, err := ReadLines(logPath)
	if err != nil {
		t.Fatal(err)
	}

	if len(lines) != 3 {
		t.Fatalf("expected 3 non-blank lines, got %d", len(lines))
	}
	wantNumbers := []int{1, 4, 5}
	for i, l := range lines {
		if l.Number != wantNumbers[i] {
			t.Errorf("line %d: expected number %d, got %d", i, wantNumbers[i], l.Number)
		}
		if l.Source != logPath {
			t.Errorf("line %d: expected source %q, got %q", i, logPath, l.Source)
		}
	}
	if lines[2].Text != "2024-01-01 06:03:00 c" {
		t.Errorf("unterminated last line not read: %q", lines[2].Text)
	}
}

func TestReadLinesEmptyFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "empty.log")
	writeFile(t, logPath, "")

	lines, err := ReadLines(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 0 {
		t.Errorf("expected no lines, got %d", len(lines))
	}
}

func TestReadLinesMissing(t *testing.T) {
	_, err := ReadLines(filepath.Join(t.TempDir(), "missing.log"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestResolvePlainPath(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "app.log")
	writeFile(t, logPath, "")

	got, err := Resolve(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if got != logPath {
		t.Errorf("expected %q, got %q", logPath, got)
	}

	if _, err := Resolve(dir); err == nil {
		t.Error("expected error for directory")
	}
	if _, err := Resolve(filepath.Join(dir, "nope.log")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestResolveGlob(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "2024", "01"), 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "2024", "01", "fileprocess.log"), "")
	writeFile(t, filepath.Join(dir, "2024", "01", "other.txt"), "")

	got, err := Resolve(filepath.Join(dir, "**", "*.log"))
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(got) != "fileprocess.log" {
		t.Errorf("expected fileprocess.log, got %q", got)
	}

	if _, err := Resolve(filepath.Join(dir, "*.csv")); !errors.Is(err, ErrNoMatch) {
		t.Errorf("expected ErrNoMatch, got %v", err)
	}
	if _, err := Resolve(filepath.Join(dir, "**", "*")); !errors.Is(err, ErrAmbiguous) {
		t.Errorf("expected ErrAmbiguous, got %v", err)
	}
}

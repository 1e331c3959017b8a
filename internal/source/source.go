package source

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/voidnologo/bokeh-graph/internal/model"
)

var (
	// ErrNoMatch is returned when a glob pattern matches no file.
	ErrNoMatch = errors.New("no file matches pattern")
	// ErrAmbiguous is returned when a glob pattern matches more than one file.
	ErrAmbiguous = errors.New("pattern matches more than one file")
)

// maxLineSize bounds a single log line; longer lines fail the read.
const maxLineSize = 1 << 20

// Resolve turns a path or glob pattern into exactly one absolute file path.
// Patterns like /var/log/**/app-2024-01-*.log are expanded via doublestar.
func Resolve(pattern string) (string, error) {
	if !hasMeta(pattern) {
		info, err := os.Stat(pattern)
		if err != nil {
			return "", fmt.Errorf("open log file %q: %w", pattern, err)
		}
		if info.IsDir() {
			return "", fmt.Errorf("open log file %q: is a directory", pattern)
		}
		return filepath.Abs(pattern)
	}

	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if err != nil {
		return "", fmt.Errorf("expand pattern %q: %w", pattern, err)
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %q", ErrNoMatch, pattern)
	case 1:
		return filepath.Abs(matches[0])
	default:
		return "", fmt.Errorf("%w: %q matches %d files (%s, %s, ...)", ErrAmbiguous, pattern, len(matches), matches[0], matches[1])
	}
}

// ReadLines reads the whole file at path. Blank lines are skipped but still
// advance the line number.
func ReadLines(path string) ([]model.RawLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log file %q: %w", path, err)
	}
	defer f.Close()

	var lines []model.RawLine
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	n := 0
	for scanner.Scan() {
		n++
		text := scanner.Text()
		if isBlank(text) {
			continue
		}
		lines = append(lines, model.RawLine{Text: text, Number: n, Source: path})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file %q at line %d: %w", path, n+1, err)
	}

	return lines, nil
}

func hasMeta(pattern string) bool {
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}

func isBlank(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\r':
		default:
			return false
		}
	}
	return true
}

// Package logtail reads the end of the newest .log files in a set of
// directories for the /logs command.
package logtail

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/timvw/hostshot/internal/model"
	"github.com/timvw/hostshot/internal/sysinfo"
)

// Status describes what was found in a directory.
type Status string

const (
	StatusOK      Status = "ok"
	StatusMissing Status = "missing"
	StatusNoLogs  Status = "no_logs"
	StatusError   Status = "error"
)

const (
	DefaultLines    = 15
	DefaultMaxFiles = 3
)

// Result is one file tail, or one directory-level status.
type Result struct {
	Dir      string
	Status   Status
	File     string // base name; empty for directory-level statuses
	Modified time.Time
	Size     int64
	Lines    []string
	Err      error
}

// Tailer tails the newest logs in Dirs.
type Tailer struct {
	Dirs     []string
	Lines    int
	MaxFiles int // per directory
}

// Tail returns results in directory order, newest file first within each.
func (t *Tailer) Tail() []Result {
	var results []Result
	for _, dir := range t.Dirs {
		results = append(results, t.tailDir(dir)...)
	}
	return results
}

func (t *Tailer) tailDir(dir string) []Result {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []Result{{Dir: dir, Status: StatusMissing}}
	}
	if err != nil {
		return []Result{{Dir: dir, Status: StatusError, Err: err}}
	}

	type logFile struct {
		name string
		info fs.FileInfo
	}
	var files []logFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".log") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, logFile{name: e.Name(), info: info})
	}
	if len(files) == 0 {
		return []Result{{Dir: dir, Status: StatusNoLogs}}
	}

	slices.SortFunc(files, func(a, b logFile) int {
		return b.info.ModTime().Compare(a.info.ModTime())
	})
	limit := t.MaxFiles
	if limit <= 0 {
		limit = DefaultMaxFiles
	}
	if len(files) > limit {
		files = files[:limit]
	}

	results := make([]Result, 0, len(files))
	for _, f := range files {
		r := Result{Dir: dir, File: f.name, Modified: f.info.ModTime(), Size: f.info.Size(), Status: StatusOK}
		lines, err := tailFile(filepath.Join(dir, f.name), t.lines())
		if err != nil {
			r.Status = StatusError
			r.Err = err
		} else {
			r.Lines = lines
		}
		results = append(results, r)
	}
	return results
}

func (t *Tailer) lines() int {
	if t.Lines <= 0 {
		return DefaultLines
	}
	return t.Lines
}

// tailFile reads backwards in growing chunks until it has n lines.
func tailFile(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()

	chunk := int64(n * 128)
	for {
		offset := max(size-chunk, 0)
		buf := make([]byte, size-offset)
		if _, err := f.ReadAt(buf, offset); err != nil && err != io.EOF {
			return nil, err
		}
		buf = bytes.TrimRight(buf, "\r\n")
		lines := strings.Split(strings.ReplaceAll(string(buf), "\r\n", "\n"), "\n")
		if offset > 0 {
			// The first line is probably partial.
			lines = lines[1:]
		}
		if len(lines) >= n || offset == 0 {
			if len(lines) > n {
				lines = lines[len(lines)-n:]
			}
			if len(lines) == 1 && lines[0] == "" {
				return nil, nil
			}
			return lines, nil
		}
		chunk *= 2
	}
}

// Messages renders results as chat messages, one per result, each at most
// maxChars long.
func Messages(results []Result, maxChars int) []string {
	if len(results) == 0 {
		return []string{"⚠️ No log directories configured."}
	}
	msgs := make([]string, 0, len(results))
	for _, r := range results {
		msgs = append(msgs, model.Truncate(message(r), maxChars))
	}
	return msgs
}

func message(r Result) string {
	switch r.Status {
	case StatusMissing:
		return fmt.Sprintf("⚠️ %s\n\nDirectory not found", r.Dir)
	case StatusNoLogs:
		return fmt.Sprintf("⚠️ %s\n\nNo .log files found", r.Dir)
	case StatusError:
		name := r.Dir
		if r.File != "" {
			name += " - " + r.File
		}
		return fmt.Sprintf("❌ %s\n\nCould not read: %v", name, r.Err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📄 %s - %s\n\n", r.Dir, r.File)
	fmt.Fprintf(&b, "📅 Modified: %s\n", r.Modified.Format(time.DateTime))
	fmt.Fprintf(&b, "📊 Size: %s\n", sysinfo.FormatBytes(uint64(r.Size)))
	fmt.Fprintf(&b, "📝 Lines shown: %d\n\n", len(r.Lines))
	b.WriteString(strings.Repeat("─", 31) + "\n")
	b.WriteString(strings.Join(r.Lines, "\n"))
	return b.String()
}

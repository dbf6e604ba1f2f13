package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/djherbis/times"
)

// ErrNotFound is returned when no export file matches the date window.
var ErrNotFound = errors.New("no matching export file")

// ExportFile is a candidate export found by the Locator.
type ExportFile struct {
	Path    string
	Name    string
	Date    time.Time
	Created time.Time
}

// Locator finds daily export files named <prefix><YYYY-MM-DD>_*.csv.
type Locator struct {
	Dir      string
	Prefix   string
	Lookback int

	now     func() time.Time
	created func(path string) (time.Time, error)
}

// NewLocator returns a locator for dir. A lookback below 1 disables widening.
func NewLocator(dir, prefix string, lookback int) *Locator {
	return &Locator{
		Dir:      dir,
		Prefix:   prefix,
		Lookback: lookback,
		now:      time.Now,
		created:  CreationTime,
	}
}

// WithClock replaces the clock used to decide what "today" is.
func (l *Locator) WithClock(now func() time.Time) *Locator {
	l.now = now
	return l
}

// Latest returns today's newest export.
func (l *Locator) Latest() (string, error) {
	today := l.now()
	return l.InRange(today, today)
}

// InRange returns the newest export whose embedded date falls within
// [start, end], compared by calendar date.
func (l *Locator) InRange(start, end time.Time) (string, error) {
	files, err := l.Scan(start, end)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w: %s%s..%s in %s", ErrNotFound, l.Prefix,
			start.Format(time.DateOnly), end.Format(time.DateOnly), l.Dir)
	}
	return files[0].Path, nil
}

// Find looks for today's export and, failing that, widens once to the
// lookback window. widened reports whether the fallback was used.
func (l *Locator) Find() (path string, widened bool, err error) {
	path, err = l.Latest()
	if err == nil || !errors.Is(err, ErrNotFound) || l.Lookback < 1 {
		return path, false, err
	}

	today := l.now()
	path, err = l.InRange(today.AddDate(0, 0, -l.Lookback), today)
	return path, true, err
}

// Scan lists matching exports in the window, newest creation time first.
func (l *Locator) Scan(start, end time.Time) ([]ExportFile, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", l.Dir, err)
	}

	from := start.Format(time.DateOnly)
	to := end.Format(time.DateOnly)

	var files []ExportFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		date, ok := l.match(name)
		if !ok {
			continue
		}
		day := date.Format(time.DateOnly)
		if day < from || day > to {
			continue
		}

		path := filepath.Join(l.Dir, name)
		created, err := l.created(path)
		if err != nil {
			continue
		}
		files = append(files, ExportFile{Path: path, Name: name, Date: date, Created: created})
	}

	sort.Slice(files, func(i, j int) bool {
		if !files[i].Created.Equal(files[j].Created) {
			return files[i].Created.After(files[j].Created)
		}
		return files[i].Name > files[j].Name
	})
	return files, nil
}

func (l *Locator) match(name string) (time.Time, bool) {
	rest, ok := strings.CutPrefix(name, l.Prefix)
	if !ok || len(rest) < len(time.DateOnly)+1 || !strings.HasSuffix(rest, ".csv") {
		return time.Time{}, false
	}
	if rest[len(time.DateOnly)] != '_' {
		return time.Time{}, false
	}
	date, err := time.Parse(time.DateOnly, rest[:len(time.DateOnly)])
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}

// CreationTime returns the file's birth time where the filesystem records
// it, else its inode change time, else its modification time.
func CreationTime(path string) (time.Time, error) {
	ts, err := times.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	if ts.HasBirthTime() {
		return ts.BirthTime(), nil
	}
	if ts.HasChangeTime() {
		return ts.ChangeTime(), nil
	}
	return ts.ModTime(), nil
}

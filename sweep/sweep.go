// Package sweep discards processed export files from a watched folder tree.
//
// Each immediate child folder of the root is expected to hold exactly one
// visible file once its export has been ingested. That file is moved to the
// trash. Folders with no visible file or several are reported and left alone.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Status is the outcome for one folder.
type Status string

const (
	Trashed    Status = "trashed"
	WouldTrash Status = "would-trash"
	Empty      Status = "empty"
	Ambiguous  Status = "ambiguous"
	Missing    Status = "missing"
	Failed     Status = "error"
)

// Result reports what happened in one folder.
type Result struct {
	Folder string
	Status Status
	Files  []string
	Dest   string
	Err    error
}

// Trasher moves a path out of the way and returns where it went.
type Trasher interface {
	Trash(path string) (string, error)
}

// Sweeper walks the child folders of a root.
type Sweeper struct {
	trash  Trasher
	dryRun bool
	log    zerolog.Logger
}

// New returns a Sweeper. With dryRun set nothing is moved.
func New(trash Trasher, dryRun bool, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		trash:  trash,
		dryRun: dryRun,
		log:    log.With().Str("component", "sweep").Logger(),
	}
}

// IsVisible reports whether name is a candidate for removal. Dot files,
// including .DS_Store, are not.
func IsVisible(name string) bool {
	return !strings.HasPrefix(name, ".")
}

// Sweep processes every child folder of root in name order. Only an
// unreadable root is an error; per-folder problems are in the results.
func (s *Sweeper) Sweep(ctx context.Context, root string) ([]Result, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read sweep root: %w", err)
	}

	var results []Result
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		folder := filepath.Join(root, e.Name())
		info, err := os.Stat(folder)
		if err != nil || !info.IsDir() {
			continue
		}
		results = append(results, s.Folder(folder))
	}
	return results, nil
}

// Folder processes a single folder.
func (s *Sweeper) Folder(folder string) Result {
	log := s.log.With().Str("folder", folder).Logger()
	res := Result{Folder: folder}

	entries, err := os.ReadDir(folder)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		res.Status, res.Err = Missing, err
		log.Warn().Msg("folder does not exist")
		return res
	case err != nil:
		res.Status, res.Err = Failed, err
		log.Error().Err(err).Msg("read folder")
		return res
	}

	for _, e := range entries {
		if IsVisible(e.Name()) {
			res.Files = append(res.Files, e.Name())
		}
	}
	sort.Strings(res.Files)

	switch len(res.Files) {
	case 0:
		res.Status = Empty
		log.Info().Msg("no visible files")
		return res
	case 1:
	default:
		res.Status = Ambiguous
		log.Warn().Strs("files", res.Files).Msg("multiple visible files, skipped")
		return res
	}

	path := filepath.Join(folder, res.Files[0])
	if s.dryRun {
		res.Status = WouldTrash
		log.Info().Str("file", path).Msg("would move to trash")
		return res
	}

	dest, err := s.trash.Trash(path)
	if err != nil {
		res.Status, res.Err = Failed, err
		log.Error().Err(err).Str("file", path).Msg("move to trash")
		return res
	}
	res.Status, res.Dest = Trashed, dest
	log.Info().Str("file", path).Str("dest", dest).Msg("moved to trash")
	return res
}

// Tally counts results by status.
func Tally(results []Result) map[Status]int {
	out := make(map[Status]int)
	for _, r := range results {
		out[r.Status]++
	}
	return out
}

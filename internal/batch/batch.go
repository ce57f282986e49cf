// Package batch runs one operation over every file matched by a glob on a
// bounded worker pool.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/UserUnknownFactor/psbtool/internal/logger"
)

// DefaultOutDir is used when neither a flag nor the environment names one.
const DefaultOutDir = "translation_out"

// ErrSkip may be returned by a task to count the file as skipped rather
// than failed.
var ErrSkip = errors.New("batch: skipped")

// ErrNoMatch is returned when the pattern matches no files.
var ErrNoMatch = errors.New("batch: pattern matched no files")

// Task is one file handed to a worker.
type Task struct {
	Input string
	// Output mirrors Input's path relative to the job root under OutDir.
	// It is empty when the job has no OutDir.
	Output string
	Log    logger.Logger
}

// Job describes a batch run.
type Job struct {
	// Pattern is a filepath.Glob pattern. A "**" path element matches any
	// number of directories.
	Pattern string

	// Root is the directory output paths are made relative to. Defaults to
	// the working directory.
	Root string

	OutDir  string
	Workers int

	Fn func(ctx context.Context, t Task) error
}

// Result summarises a finished run.
type Result struct {
	RunID     string        `json:"run_id"`
	Files     int           `json:"files"`
	Processed int           `json:"processed"`
	Skipped   int           `json:"skipped"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Run expands the pattern and calls Fn for every match. The first failing
// task cancels the others and its error is returned.
func Run(ctx context.Context, log logger.Logger, job Job) (Result, error) {
	res := Result{RunID: uuid.NewString()}
	start := time.Now()
	log = log.With("run", res.RunID)

	files, err := Expand(job.Pattern)
	if err != nil {
		return res, err
	}
	if len(files) == 0 {
		return res, fmt.Errorf("%w: %s", ErrNoMatch, job.Pattern)
	}
	res.Files = len(files)

	root := job.Root
	if root == "" {
		if root, err = os.Getwd(); err != nil {
			return res, err
		}
	}

	workers := job.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	log.Debug("batch start", "pattern", job.Pattern, "files", len(files), "workers", workers)

	var processed, skipped atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, in := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t := Task{Input: in, Log: log.With("file", in)}
			if job.OutDir != "" {
				out, err := OutputPath(job.OutDir, root, in)
				if err != nil {
					return err
				}
				t.Output = out
			}
			err := job.Fn(gctx, t)
			switch {
			case errors.Is(err, ErrSkip):
				skipped.Add(1)
				t.Log.Debug("skipped", "reason", err)
				return nil
			case err != nil:
				return fmt.Errorf("%s: %w", in, err)
			}
			processed.Add(1)
			return nil
		})
	}
	err = g.Wait()

	res.Processed = int(processed.Load())
	res.Skipped = int(skipped.Load())
	res.Elapsed = time.Since(start)
	if err != nil {
		return res, err
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	log.Info("batch done", "processed", res.Processed, "skipped", res.Skipped, "elapsed", res.Elapsed)
	return res, nil
}

// Expand returns the sorted files matched by pattern. Directories are
// dropped.
func Expand(pattern string) ([]string, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, errors.New("batch: empty pattern")
	}
	var matches []string
	var err error
	if strings.Contains(pattern, "**") {
		matches, err = expandRecursive(pattern)
	} else {
		matches, err = filepath.Glob(pattern)
	}
	if err != nil {
		return nil, err
	}

	files := matches[:0]
	for _, m := range matches {
		st, err := os.Stat(m)
		if err != nil || st.IsDir() {
			continue
		}
		files = append(files, m)
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

// expandRecursive handles one "**" element: the part before it is the walk
// root and the part after it is matched against the path below each
// directory.
func expandRecursive(pattern string) ([]string, error) {
	sep := string(filepath.Separator)
	pattern = filepath.Clean(pattern)
	i := strings.Index(pattern, "**")
	base := filepath.Clean(pattern[:i])
	if pattern[:i] == "" {
		base = "."
	}
	rest := strings.TrimPrefix(pattern[i+2:], sep)
	if rest == "" {
		rest = "*"
	}
	if _, err := filepath.Match(rest, ""); err != nil {
		return nil, err
	}

	var out []string
	err := filepath.WalkDir(base, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		matches, err := filepath.Glob(filepath.Join(path, rest))
		if err != nil {
			return err
		}
		out = append(out, matches...)
		return nil
	})
	return out, err
}

// OutputPath mirrors input under outDir, keeping its path relative to root.
// Inputs outside root keep only their base name.
func OutputPath(outDir, root, input string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	absIn, err := filepath.Abs(input)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absRoot, absIn)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = filepath.Base(input)
	}
	return filepath.Join(outDir, rel), nil
}

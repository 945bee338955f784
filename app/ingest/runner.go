package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-pkgz/fileutils"
	"github.com/hashicorp/go-multierror"

	"github.com/umputun/tweet-ingest/app/storage"
	"github.com/umputun/tweet-ingest/lib/record"
)

// Processor processes a batch of upstream records
type Processor interface {
	Process(ctx context.Context, batch []record.Upstream) (Stats, error)
}

// ProcessorFunc is an adapter to use an ordinary function as Processor
type ProcessorFunc func(ctx context.Context, batch []record.Upstream) (Stats, error)

// Process calls f(ctx, batch)
func (f ProcessorFunc) Process(ctx context.Context, batch []record.Upstream) (Stats, error) {
	return f(ctx, batch)
}

// Checkpoint keeps upstream files already processed, by file name
type Checkpoint struct {
	Files map[string]FileMark `json:"files"`
}

// FileMark identifies a processed file
type FileMark struct {
	Size      int64     `json:"size"`
	ModTime   time.Time `json:"mod_time"`
	Processed time.Time `json:"processed"`
	Records   int       `json:"records"`
}

// CheckpointStore loads and saves the checkpoint
type CheckpointStore interface {
	Load(ctx context.Context, cp *Checkpoint) error
	Save(ctx context.Context, cp *Checkpoint) error
}

// Runner feeds upstream files to the processor. Processed files are recorded in the checkpoint and skipped
// next time, unless changed. If ArchiveDir is set, processed files are moved there.
type Runner struct {
	Processor  Processor
	Checkpoint CheckpointStore // optional
	BatchSize  int
	ArchiveDir string
	Ext        string        // extension of upstream files in a directory, ".jsonl" if empty
	Settle     time.Duration // delay after the last write event before a watched file is processed

	cp *Checkpoint
}

const (
	defaultExt    = ".jsonl"
	defaultSettle = time.Second
)

// ProcessFile reads the file and sends its records to the processor
func (r *Runner) ProcessFile(ctx context.Context, path string) (ReadStats, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return ReadStats{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if fi.IsDir() {
		return ReadStats{}, fmt.Errorf("%s is a directory", path)
	}
	if err = r.loadCheckpoint(ctx); err != nil {
		return ReadStats{}, err
	}
	name := filepath.Base(path)
	if mark, ok := r.cp.Files[name]; ok && mark.Size == fi.Size() && mark.ModTime.Equal(fi.ModTime()) {
		log.Printf("[DEBUG] skip %s, already processed at %s", path, mark.Processed.Format(time.RFC3339))
		return ReadStats{}, nil
	}

	fh, err := os.Open(path) //nolint:gosec // path is controlled by the operator
	if err != nil {
		return ReadStats{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer fh.Close()

	stats, err := ReadUpstream(ctx, fh, r.BatchSize, func(batch []record.Upstream) error {
		_, e := r.Processor.Process(ctx, batch)
		return e
	})
	if err != nil {
		return stats, fmt.Errorf("failed to process %s: %w", path, err)
	}
	log.Printf("[INFO] processed %s, lines: %d, records: %d, invalid: %d", path, stats.Lines, stats.Records, stats.Invalid)

	r.cp.Files[name] = FileMark{Size: fi.Size(), ModTime: fi.ModTime(), Processed: time.Now(), Records: stats.Records}
	if r.Checkpoint != nil {
		if err = r.Checkpoint.Save(ctx, r.cp); err != nil {
			return stats, fmt.Errorf("failed to save checkpoint: %w", err)
		}
	}

	if r.ArchiveDir != "" {
		if err = fileutils.MoveFile(path, filepath.Join(r.ArchiveDir, name)); err != nil {
			return stats, fmt.Errorf("failed to archive %s: %w", path, err)
		}
		log.Printf("[DEBUG] %s archived to %s", path, r.ArchiveDir)
	}
	return stats, nil
}

// ProcessDir processes all upstream files of the directory in name order.
// A failed file is logged and doesn't stop others, the combined error is returned.
func (r *Runner) ProcessDir(ctx context.Context, dir string) error {
	files, err := r.listFiles(dir)
	if err != nil {
		return err
	}
	errs := new(multierror.Error)
	for _, f := range files {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, e := r.ProcessFile(ctx, f); e != nil {
			log.Printf("[WARN] %v", e)
			errs = multierror.Append(errs, e)
		}
	}
	return errs.ErrorOrNil()
}

// Watch processes the directory and keeps processing new and updated upstream files until ctx is canceled
func (r *Runner) Watch(ctx context.Context, dir string) error {
	if !fileutils.IsDir(dir) {
		return fmt.Errorf("%s is not a directory", dir)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()
	if err = watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to add %s to watcher: %w", dir, err)
	}

	if err = r.ProcessDir(ctx, dir); err != nil && ctx.Err() == nil {
		log.Printf("[WARN] failed to process %s, %v", dir, err)
	}

	settle := r.Settle
	if settle <= 0 {
		settle = defaultSettle
	}
	ticker := time.NewTicker(settle / 2)
	defer ticker.Stop()

	pending := map[string]time.Time{} // path -> last event
	log.Printf("[INFO] watching %s for upstream files", dir)
	for {
		select {
		case <-ctx.Done():
			log.Printf("[INFO] stopping watcher for %s, %v", dir, ctx.Err())
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
				if r.matches(ev.Name) {
					pending[ev.Name] = time.Now()
				}
			}
		case e, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[WARN] watcher error: %v", e)
		case now := <-ticker.C:
			for path, ts := range pending {
				if now.Sub(ts) < settle {
					continue
				}
				delete(pending, path)
				if !fileutils.IsFile(path) {
					continue // removed or archived meanwhile
				}
				if _, e := r.ProcessFile(ctx, path); e != nil {
					log.Printf("[WARN] %v", e)
				}
			}
		}
	}
}

func (r *Runner) listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read dir %s: %w", dir, err)
	}
	var res []string
	for _, e := range entries {
		if e.IsDir() || !r.matches(e.Name()) {
			continue
		}
		res = append(res, filepath.Join(dir, e.Name()))
	}
	slices.Sort(res)
	return res, nil
}

func (r *Runner) matches(name string) bool {
	ext := r.Ext
	if ext == "" {
		ext = defaultExt
	}
	return strings.HasSuffix(name, ext) && !strings.HasPrefix(filepath.Base(name), ".")
}

func (r *Runner) loadCheckpoint(ctx context.Context) error {
	if r.cp != nil {
		return nil
	}
	r.cp = &Checkpoint{Files: map[string]FileMark{}}
	if r.Checkpoint == nil {
		return nil
	}
	if err := r.Checkpoint.Load(ctx, r.cp); err != nil && !errors.Is(err, storage.ErrNotFound) {
		r.cp = nil
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if r.cp.Files == nil {
		r.cp.Files = map[string]FileMark{}
	}
	return nil
}

package inbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/fueltank/fueltank/internal/engine"
	"github.com/fueltank/fueltank/internal/store"
)

// KeyTracked holds the fingerprints of files already imported.
const KeyTracked = "inbox/files"

// maxFileSize caps a single statement export.
const maxFileSize = 4 << 20

// Ingester records parsed expenses, skipping rows already seen.
// *engine.Engine satisfies it.
type Ingester interface {
	IngestNew(format, text string, seen map[string]bool) (engine.IngestResult, error)
}

// Fingerprint identifies one version of a file and the rows imported from it.
type Fingerprint struct {
	MtimeNs int64    `json:"mtime_ns"`
	Size    int64    `json:"size"`
	Rows    []string `json:"rows,omitempty"`
}

func (fp Fingerprint) seen() map[string]bool {
	out := make(map[string]bool, len(fp.Rows))
	for _, r := range fp.Rows {
		out[r] = true
	}
	return out
}

// FileError reports a file that could not be read or parsed.
type FileError struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// Result summarizes one import run.
type Result struct {
	TotalFiles int         `json:"total_files"`
	Unchanged  int         `json:"unchanged"`
	Imported   int         `json:"imported"`
	Added      int         `json:"added"`
	Rejected   int         `json:"rejected"`
	Skipped    int         `json:"skipped"`
	Errors     []FileError `json:"errors,omitempty"`
}

// ProgressFunc is called as files are read.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// Importer scans a directory and feeds new or changed files to an Ingester.
type Importer struct {
	dir     string
	storage store.Storage
	target  Ingester
	log     *logrus.Logger
	workers int

	mu sync.Mutex // one run at a time
}

// New returns an importer for dir. Fingerprints are kept in st.
func New(dir string, st store.Storage, target Ingester, logger *logrus.Logger) *Importer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Importer{
		dir:     dir,
		storage: st,
		target:  target,
		log:     logger,
		workers: runtime.GOMAXPROCS(0),
	}
}

// Dir returns the watched directory.
func (im *Importer) Dir() string { return im.dir }

type readResult struct {
	text string
	err  error
}

// Run imports every file whose fingerprint changed since the last run.
// Files are read in parallel and ingested one at a time in path order.
// Rows imported from an earlier version of a file are skipped, so a
// statement that grows only adds its new rows. A file that fails to read or
// parse is reported and retried next run.
func (im *Importer) Run(ctx context.Context, progressFn ProgressFunc) (*Result, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	files, err := Scan(im.dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", im.dir, err)
	}
	result := &Result{TotalFiles: len(files)}
	if len(files) == 0 {
		return result, nil
	}

	tracked, err := im.loadTracked(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading tracked files: %w", err)
	}

	var changed []File
	for _, f := range files {
		fp, ok := tracked[f.Path]
		if ok && fp.MtimeNs == f.MtimeNs && fp.Size == f.Size {
			result.Unchanged++
			continue
		}
		changed = append(changed, f)
	}
	if len(changed) == 0 {
		return result, nil
	}

	texts := im.readAll(changed, func(n int) {
		if progressFn != nil {
			progressFn(n+result.Unchanged, result.TotalFiles)
		}
	})

	for i, f := range changed {
		if err := ctx.Err(); err != nil {
			break
		}
		if texts[i].err != nil {
			result.Errors = append(result.Errors, FileError{Path: f.Path, Err: texts[i].err.Error()})
			continue
		}
		res, err := im.target.IngestNew(f.Format, texts[i].text, tracked[f.Path].seen())
		if err != nil {
			im.log.WithError(err).WithField("file", f.Path).Warn("inbox file not imported")
			result.Errors = append(result.Errors, FileError{Path: f.Path, Err: err.Error()})
			continue
		}
		result.Imported++
		result.Added += len(res.Added)
		result.Rejected += len(res.Rejected)
		result.Skipped += res.Skipped
		tracked[f.Path] = Fingerprint{MtimeNs: f.MtimeNs, Size: f.Size, Rows: res.Rows}
		im.log.WithFields(logrus.Fields{
			"file":     f.Path,
			"added":    len(res.Added),
			"rejected": len(res.Rejected),
			"skipped":  res.Skipped,
		}).Info("inbox file imported")
	}

	if result.Imported > 0 {
		if err := im.saveTracked(ctx, tracked); err != nil {
			return result, fmt.Errorf("saving tracked files: %w", err)
		}
	}
	return result, ctx.Err()
}

// readAll loads files with a bounded worker pool.
func (im *Importer) readAll(files []File, progress func(int)) []readResult {
	numWorkers := im.workers
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	results := make([]readResult, len(files))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range files {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				text, err := readFile(files[idx].Path)
				results[idx] = readResult{text: text, err: err}
				progress(int(processed.Add(1)))
			}
		}()
	}
	wg.Wait()
	return results
}

func readFile(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // inbox path is configured by the local user
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxFileSize+1))
	if err != nil {
		return "", err
	}
	if len(data) > maxFileSize {
		return "", fmt.Errorf("file larger than %d bytes", maxFileSize)
	}
	return string(data), nil
}

func (im *Importer) loadTracked(ctx context.Context) (map[string]Fingerprint, error) {
	tracked := make(map[string]Fingerprint)
	raw, err := im.storage.Get(ctx, KeyTracked)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return tracked, nil
	}
	if err := json.Unmarshal(raw, &tracked); err != nil {
		im.log.WithError(err).Warn("discarding unreadable inbox fingerprints")
		return make(map[string]Fingerprint), nil
	}
	return tracked, nil
}

func (im *Importer) saveTracked(ctx context.Context, tracked map[string]Fingerprint) error {
	raw, err := json.Marshal(tracked)
	if err != nil {
		return err
	}
	return im.storage.Set(ctx, KeyTracked, raw)
}

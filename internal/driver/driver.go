// Package driver orchestrates folding across many files: it loads them
// into a FileSet, fans the extraction out across workers, consults the
// result cache, and streams progress events to an optional UI.
package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"crease/internal/foldcache"
	"crease/internal/folding"
	"crease/internal/markdown"
	"crease/internal/progress"
	"crease/internal/source"
	"crease/internal/syntax"
)

// Status tracks a file through the pipeline.
type Status uint8

const (
	StatusQueued Status = iota
	StatusWorking
	StatusDone
	StatusError
)

// Event is one progress update for the UI.
type Event struct {
	Path     string
	Status   Status
	Fraction float64
}

// Options configures a folding run.
type Options struct {
	Flavor          markdown.Flavor
	Collapsed       []syntax.Kind
	InitialCollapse bool
	// Jobs limits worker parallelism; <= 0 means GOMAXPROCS.
	Jobs int
	// Cache is consulted and filled when non-nil.
	Cache *foldcache.Cache
	// Events receives per-file updates when non-nil. The channel is not
	// closed by the driver.
	Events chan<- Event
}

// FileResult is the folding outcome for one file.
type FileResult struct {
	Path      string
	FileID    source.FileID
	Regions   []folding.Region
	Stats     folding.Stats
	FromCache bool
	Err       error
}

// ListMarkdownFiles returns the sorted *.md / *.markdown files under dir.
func ListMarkdownFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".md", ".markdown":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Fingerprint condenses the policy-affecting options into the cache key
// component. Anything that changes the produced regions must appear here.
func Fingerprint(opts Options) string {
	names := make([]string, 0, len(opts.Collapsed))
	for _, k := range opts.Collapsed {
		names = append(names, string(k))
	}
	sort.Strings(names)
	fp := strings.Join(names, ",")
	if opts.InitialCollapse {
		fp += "+initial"
	}
	return fp
}

// FoldPaths folds every path and returns per-file results in input order.
// Individual file failures land in FileResult.Err; only context
// cancellation aborts the whole run.
func FoldPaths(ctx context.Context, paths []string, opts Options) (*source.FileSet, []FileResult, error) {
	fileSet := source.NewFileSet()
	results := make([]FileResult, len(paths))

	// Preload sequentially: FileSet mutation is not synchronized, and I/O
	// is not where this pipeline spends its time.
	loaded := make(map[string]source.FileID, len(paths))
	for i, path := range paths {
		results[i].Path = path
		emit(opts.Events, Event{Path: path, Status: StatusQueued})
		id, err := fileSet.Load(path)
		if err != nil {
			results[i].Err = err
			continue
		}
		loaded[path] = id
		results[i].FileID = id
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	fingerprint := Fingerprint(opts)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, max(len(paths), 1)))

	for i, path := range paths {
		i, path := i, path
		if results[i].Err != nil {
			emit(opts.Events, Event{Path: path, Status: StatusError})
			continue
		}
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			emit(opts.Events, Event{Path: path, Status: StatusWorking})
			// Results are written by index; no worker shares a slot.
			results[i] = foldOne(gctx, fileSet.Get(loaded[path]), path, fingerprint, opts)
			status := StatusDone
			if results[i].Err != nil {
				status = StatusError
			}
			emit(opts.Events, Event{Path: path, Status: status, Fraction: 1})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fileSet, results, err
	}
	return fileSet, results, nil
}

func foldOne(ctx context.Context, f *source.File, path, fingerprint string, opts Options) FileResult {
	res := FileResult{Path: path, FileID: f.ID}

	key := foldcache.NewKey(f.Hash, string(opts.Flavor), fingerprint)
	var cached foldcache.Payload
	if hit, err := opts.Cache.Get(key, string(opts.Flavor), fingerprint, &cached); err == nil && hit {
		res.Regions = cached.Regions
		res.Stats.BadMappings = cached.BadMappings
		res.FromCache = true
		return res
	}

	// A binding per worker: goldmark instances are cheap and this keeps
	// workers from sharing parser state.
	binding := markdown.New(opts.Flavor)
	root := binding.Build(f)

	mon := progress.New(1,
		progress.WithContext(ctx),
		progress.WithSink(func(fraction float64) {
			emit(opts.Events, Event{Path: path, Status: StatusWorking, Fraction: fraction})
		}),
	)
	regions, stats := folding.Extract(root, f, folding.Options{
		Policy:          markdown.Policy(opts.Collapsed...),
		InitialCollapse: opts.InitialCollapse,
		Monitor:         mon,
	})
	mon.Done()

	res.Regions = folding.Sorted(regions)
	res.Stats = stats
	if !stats.Cancelled {
		_ = opts.Cache.Put(key, &foldcache.Payload{
			Flavor:      string(opts.Flavor),
			Fingerprint: fingerprint,
			Regions:     res.Regions,
			BadMappings: stats.BadMappings,
		})
	}
	return res
}

func emit(events chan<- Event, ev Event) {
	if events == nil {
		return
	}
	events <- ev
}

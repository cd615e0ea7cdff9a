package batch

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/mogaika/wows_replay_parser/analyzer"
	"github.com/mogaika/wows_replay_parser/replay"
)

const ReplayExt = ".wowsreplay"

type Result struct {
	Path     string
	Summary  *analyzer.Summary
	Err      error
	Duration time.Duration
}

// Reporter receives progress after every finished file. *status.Hub
// satisfies it.
type Reporter interface {
	Progress(progress float32, format string, a ...interface{})
}

// Pool analyzes replays with a fixed number of workers sharing one schema
// source.
type Pool struct {
	Workers  int
	Specs    replay.SchemaSource
	Decoder  analyzer.BlobDecoder
	Log      zerolog.Logger
	Reporter Reporter
}

func (p *Pool) analyze(path string) Result {
	start := time.Now()
	res := Result{Path: path}
	r, err := replay.ParseFile(path, p.Specs, p.Log)
	if err == nil {
		res.Summary, err = analyzer.Analyze(r, p.Decoder, p.Log.With().Str("replay", path).Logger())
	}
	res.Err = err
	res.Duration = time.Since(start)
	return res
}

// Run analyzes paths and returns results sorted by path. Files not yet
// started when ctx is done are reported with ctx.Err().
func (p *Pool) Run(ctx context.Context, paths []string) []Result {
	workers := p.Workers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan string)
	results := make(chan Result, len(paths))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				if err := ctx.Err(); err != nil {
					results <- Result{Path: path, Err: err}
					continue
				}
				results <- p.analyze(path)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, path := range paths {
			jobs <- path
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]Result, 0, len(paths))
	for res := range results {
		out = append(out, res)
		if res.Err != nil {
			p.Log.Warn().Err(res.Err).Str("replay", res.Path).Msg("Replay failed")
		} else {
			p.Log.Info().Str("replay", res.Path).Stringer("outcome", res.Summary.Outcome).
				Dur("took", res.Duration).Msg("Replay analyzed")
		}
		if p.Reporter != nil {
			p.Reporter.Progress(float32(len(out))/float32(len(paths)), "%d/%d %s", len(out), len(paths), filepath.Base(res.Path))
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Collect lists replay files under dir, sorted.
func Collect(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ReplayExt) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to walk %q", dir)
	}
	sort.Strings(paths)
	return paths, nil
}

package batch

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mogaika/wows_replay_parser/config"
	"github.com/mogaika/wows_replay_parser/packet"
	"github.com/mogaika/wows_replay_parser/replay"
	"github.com/mogaika/wows_replay_parser/schema"
)

type staticSpecs struct {
	mu    sync.Mutex
	calls int
}

func (s *staticSpecs) Get(config.Version) ([]*schema.EntitySpec, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return nil, nil
}

type progressLog struct {
	mu   sync.Mutex
	last float32
	n    int
}

func (p *progressLog) Progress(progress float32, format string, a ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = progress
	p.n++
}

func writeReplay(t *testing.T, path string) {
	t.Helper()
	version := append(binary.LittleEndian.AppendUint32(nil, 6), "12,6,0"...)
	stream := packet.AppendFrame(nil, 0x16, 0, version)
	data, err := replay.Pack(`{"clientVersionFromExe":"12,6,0,1"}`, nil, stream)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func fixtureDir(t *testing.T) string {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeReplay(t, filepath.Join(dir, "b.wowsreplay"))
	writeReplay(t, filepath.Join(dir, "sub", "a.wowsreplay"))
	writeReplay(t, filepath.Join(dir, "c.WOWSREPLAY"))
	if err := os.WriteFile(filepath.Join(dir, "broken.wowsreplay"), []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestCollect(t *testing.T) {
	dir := fixtureDir(t)
	paths, err := Collect(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "b.wowsreplay"),
		filepath.Join(dir, "broken.wowsreplay"),
		filepath.Join(dir, "c.WOWSREPLAY"),
		filepath.Join(dir, "sub", "a.wowsreplay"),
	}
	if len(paths) != len(want) {
		t.Fatalf("Collect=%v; expected %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("Collect[%d]=%v; expected %v", i, paths[i], want[i])
		}
	}
}

func TestRun(t *testing.T) {
	dir := fixtureDir(t)
	paths, err := Collect(dir)
	if err != nil {
		t.Fatal(err)
	}

	specs := &staticSpecs{}
	progress := &progressLog{}
	pool := &Pool{Workers: 3, Specs: specs, Log: zerolog.Nop(), Reporter: progress}
	results := pool.Run(context.Background(), paths)

	if len(results) != len(paths) {
		t.Fatalf("got %d results", len(results))
	}
	for i, res := range results {
		if res.Path != paths[i] {
			t.Errorf("results[%d].Path=%v; expected %v", i, res.Path, paths[i])
		}
		broken := filepath.Base(res.Path) == "broken.wowsreplay"
		if broken != (res.Err != nil) {
			t.Errorf("%s: err=%v", res.Path, res.Err)
		}
		if !broken && res.Summary == nil {
			t.Errorf("%s: no summary", res.Path)
		}
	}
	if specs.calls != 3 {
		t.Errorf("schema lookups=%d; expected 3", specs.calls)
	}
	if progress.n != len(paths) || progress.last != 1 {
		t.Errorf("progress n=%d last=%v", progress.n, progress.last)
	}
}

func TestRunCancelled(t *testing.T) {
	dir := fixtureDir(t)
	paths, _ := Collect(dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := (&Pool{Workers: 2, Specs: &staticSpecs{}, Log: zerolog.Nop()}).Run(ctx, paths)
	for _, res := range results {
		if res.Err != context.Canceled {
			t.Errorf("%s: err=%v; expected context.Canceled", res.Path, res.Err)
		}
	}
}

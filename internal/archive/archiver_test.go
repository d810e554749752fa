package archive

import (
	"bufio"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	"github.com/ndrandal/stocksim/internal/sim"
	"github.com/ndrandal/stocksim/internal/wire"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip: %v", err)
	}
	var lines []string
	sc := bufio.NewScanner(gz)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return lines
}

func fakeRun(id uint64, started time.Time, msgs int) *sim.Result {
	r := &sim.Result{ID: id, StartedAt: started}
	r.Messages = append(r.Messages, wire.Message{Type: wire.MsgRunStart, RunID: id, Steps: 3})
	for i := 1; i < msgs; i++ {
		r.Messages = append(r.Messages, wire.Message{Type: wire.MsgPrice, Tick: uint32(i), Locate: 1, Stock: "Nexo", Price: 10000})
	}
	return r
}

func TestExportWritesNDJSON(t *testing.T) {
	a := New(t.TempDir(), 1)
	r := fakeRun(0xabc, time.Date(2024, 3, 9, 14, 30, 5, 0, time.UTC), 4)

	if err := a.Export(context.Background(), r); err != nil {
		t.Fatalf("export: %v", err)
	}
	path := a.Path(r)
	if !strings.HasSuffix(path, filepath.Join("runs", "2024", "03", "09", "143005-0000000000000abc.jsonl.gz")) {
		t.Fatalf("unexpected path %s", path)
	}
	lines := readLines(t, path)
	if len(lines) != 4 {
		t.Fatalf("lines = %d, want 4", len(lines))
	}
	if got := gjson.Get(lines[0], "type").String(); got != "run_start" {
		t.Fatalf("first line type = %q", got)
	}
	if got := gjson.Get(lines[3], "price").String(); got != "10000.0000" {
		t.Fatalf("price = %q", got)
	}
}

func TestExportRejectsUnknownMessage(t *testing.T) {
	a := New(t.TempDir(), 1)
	r := &sim.Result{ID: 1, StartedAt: time.Now(), Messages: []wire.Message{{Type: 'Z'}}}
	if err := a.Export(context.Background(), r); err == nil {
		t.Fatal("expected encode error")
	}
}

func TestRotateRemovesOldestFirst(t *testing.T) {
	a := New(t.TempDir(), 1)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var paths []string
	for i := 0; i < 3; i++ {
		r := fakeRun(uint64(i+1), base.AddDate(0, 0, i), 50)
		if err := a.Export(context.Background(), r); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, a.Path(r))
	}

	info, err := os.Stat(paths[2])
	if err != nil {
		t.Fatal(err)
	}
	a.maxBytes = info.Size() // room for exactly one archive
	a.rotate()

	for _, p := range paths[:2] {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Fatalf("%s should have been rotated out", p)
		}
	}
	if _, err := os.Stat(paths[2]); err != nil {
		t.Fatalf("newest archive removed: %v", err)
	}
}

package archive

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ndrandal/stocksim/internal/sim"
	"github.com/ndrandal/stocksim/internal/wire"
)

// Archiver writes each finished run as a gzipped NDJSON file of its wire
// messages, deleting the oldest archives when total size exceeds maxBytes.
type Archiver struct {
	dir      string
	maxBytes int64
}

// New creates an Archiver rooted at dir.
func New(dir string, maxGB int) *Archiver {
	return &Archiver{
		dir:      dir,
		maxBytes: int64(maxGB) << 30,
	}
}

// Path returns where a run is archived: dir/runs/YYYY/MM/DD/HHMMSS-<id>.jsonl.gz.
// Paths sort chronologically.
func (a *Archiver) Path(r *sim.Result) string {
	t := r.StartedAt.UTC()
	name := fmt.Sprintf("%s-%s.jsonl.gz", t.Format("150405"), r.RunID())
	return filepath.Join(a.dir, "runs", t.Format("2006/01/02"), name)
}

// Export implements sim.Exporter.
func (a *Archiver) Export(ctx context.Context, r *sim.Result) error {
	path := a.Path(r)
	if err := a.writeRun(path, r.Messages); err != nil {
		return fmt.Errorf("archive run %s: %w", r.RunID(), err)
	}
	log.Printf("archiver: archived %d messages for run %s", len(r.Messages), r.RunID())
	a.rotate()
	return nil
}

func (a *Archiver) writeRun(path string, msgs []wire.Message) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	for i := range msgs {
		line, err := wire.EncodeJSON(&msgs[i])
		if err != nil {
			gz.Close()
			return fmt.Errorf("encode: %w", err)
		}
		gz.Write(line)
		gz.Write([]byte{'\n'})
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("gzip close: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// rotate deletes the oldest archive files until total size is under maxBytes.
func (a *Archiver) rotate() {
	root := filepath.Join(a.dir, "runs")

	type entry struct {
		path string
		size int64
	}

	var files []entry
	var total int64

	filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || !strings.HasSuffix(path, ".jsonl.gz") {
			return nil
		}
		files = append(files, entry{path: path, size: info.Size()})
		total += info.Size()
		return nil
	})

	if total <= a.maxBytes {
		return
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].path < files[j].path
	})

	for _, f := range files {
		if total <= a.maxBytes {
			break
		}
		if err := os.Remove(f.path); err != nil {
			log.Printf("archiver: remove %s: %v", f.path, err)
			continue
		}
		total -= f.size
		log.Printf("archiver: rotated out %s (%d bytes)", f.path, f.size)
	}
}

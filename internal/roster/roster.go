// Package roster persists the ordered list of company names carried from one
// run to the next.
package roster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Store loads and saves a roster. Load returns an empty slice, not an error,
// when nothing has been saved yet.
type Store interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, names []string) error
}

// Supply hands out fresh names that do not collide with exclude.
type Supply interface {
	Names(n int, exclude []string) []string
}

// FileStore keeps the roster in a small JSON document:
//
//	{"companies": ["Nexo Dynamics", ...], "updated_at": "2024-01-02T15:04:05Z"}
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (f *FileStore) Load(ctx context.Context) ([]string, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("read roster %s: invalid JSON", f.Path)
	}
	companies := gjson.GetBytes(data, "companies")
	if !companies.Exists() {
		return nil, nil
	}
	if !companies.IsArray() {
		return nil, fmt.Errorf("read roster %s: companies is not an array", f.Path)
	}
	var names []string
	for _, v := range companies.Array() {
		if s := v.String(); s != "" {
			names = append(names, s)
		}
	}
	return names, nil
}

type fileDoc struct {
	Companies []string  `json:"companies"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (f *FileStore) Save(ctx context.Context, names []string) error {
	if names == nil {
		names = []string{}
	}
	data, err := json.MarshalIndent(fileDoc{Companies: names, UpdatedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode roster: %w", err)
	}
	if dir := filepath.Dir(f.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create roster dir: %w", err)
		}
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write roster: %w", err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		return fmt.Errorf("write roster: %w", err)
	}
	return nil
}

// ImageDirStore recovers names from the price graphs an earlier run left in
// a directory: every "<name>.png" is one company. It is read-only.
type ImageDirStore struct {
	Dir string
}

func (d *ImageDirStore) Load(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", d.Dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".png") {
			continue
		}
		if name := strings.TrimSuffix(e.Name(), ".png"); name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Save is a no-op; the plot exporter writes the images.
func (d *ImageDirStore) Save(context.Context, []string) error { return nil }

type fallback struct {
	primary Store
	legacy  Store
}

// WithFallback loads from primary and, when that is empty, from legacy.
// Saves go to primary only.
func WithFallback(primary, legacy Store) Store {
	return &fallback{primary: primary, legacy: legacy}
}

func (f *fallback) Load(ctx context.Context) ([]string, error) {
	names, err := f.primary.Load(ctx)
	if err != nil || len(names) > 0 || f.legacy == nil {
		return names, err
	}
	return f.legacy.Load(ctx)
}

func (f *fallback) Save(ctx context.Context, names []string) error {
	return f.primary.Save(ctx, names)
}

// Resolve returns exactly n distinct names. A recovered roster is kept in
// order, truncated to n or extended with fresh names from supply. The result
// is saved back to store.
func Resolve(ctx context.Context, store Store, supply Supply, n int) ([]string, error) {
	if n < 0 {
		return nil, fmt.Errorf("resolve roster: negative company count %d", n)
	}
	recovered, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	names := dedupe(recovered)
	switch {
	case len(names) >= n:
		names = names[:n]
	default:
		names = append(names, supply.Names(n-len(names), names)...)
	}
	if err := store.Save(ctx, names); err != nil {
		return nil, fmt.Errorf("save roster: %w", err)
	}
	return names, nil
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

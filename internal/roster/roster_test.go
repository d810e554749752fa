package roster

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

type seqSupply struct {
	next  int
	calls int
}

func (s *seqSupply) Names(n int, exclude []string) []string {
	s.calls++
	skip := make(map[string]bool)
	for _, e := range exclude {
		skip[e] = true
	}
	var out []string
	for len(out) < n {
		s.next++
		name := "Co" + string(rune('A'+s.next-1))
		if !skip[name] {
			out = append(out, name)
		}
	}
	return out
}

type memStore struct {
	names   []string
	saved   []string
	loadErr error
	saveErr error
}

func (m *memStore) Load(context.Context) ([]string, error) { return m.names, m.loadErr }

func (m *memStore) Save(_ context.Context, names []string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append([]string(nil), names...)
	return nil
}

func TestFileStoreMissingIsEmpty(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "roster.json"))
	names, err := fs.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("expected empty roster, got %v", names)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "roster.json")
	fs := NewFileStore(path)
	want := []string{"Nexo Dynamics", "Vault Capital", "Helix Pharma"}
	if err := fs.Save(context.Background(), want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := fs.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if _, err := os.Stat(path + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("temp file left behind")
	}
}

func TestFileStoreInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.json")
	os.WriteFile(path, []byte("{not json"), 0o644)
	if _, err := NewFileStore(path).Load(context.Background()); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestFileStoreCompaniesNotArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.json")
	os.WriteFile(path, []byte(`{"companies": "Nexo"}`), 0o644)
	if _, err := NewFileStore(path).Load(context.Background()); err == nil {
		t.Fatal("expected error for non-array companies")
	}
}

func TestImageDirStore(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"Zeta Corp.png", "Alpha Inc.png", "notes.txt", "Mid png.png"} {
		os.WriteFile(filepath.Join(dir, f), nil, 0o644)
	}
	os.Mkdir(filepath.Join(dir, "sub.png"), 0o755)

	names, err := (&ImageDirStore{Dir: dir}).Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"Alpha Inc", "Mid png", "Zeta Corp"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("got %v, want %v", names, want)
	}
}

func TestImageDirStoreMissingDir(t *testing.T) {
	names, err := (&ImageDirStore{Dir: filepath.Join(t.TempDir(), "nope")}).Load(context.Background())
	if err != nil || len(names) != 0 {
		t.Fatalf("got %v, %v; want empty, nil", names, err)
	}
}

func TestWithFallbackUsesLegacyWhenEmpty(t *testing.T) {
	primary := &memStore{}
	legacy := &memStore{names: []string{"Old Co"}}
	s := WithFallback(primary, legacy)

	names, err := s.Load(context.Background())
	if err != nil || !reflect.DeepEqual(names, []string{"Old Co"}) {
		t.Fatalf("got %v, %v", names, err)
	}
	if err := s.Save(context.Background(), []string{"New Co"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !reflect.DeepEqual(primary.saved, []string{"New Co"}) || legacy.saved != nil {
		t.Fatal("save should only reach the primary store")
	}
}

func TestWithFallbackPrefersPrimary(t *testing.T) {
	s := WithFallback(&memStore{names: []string{"P"}}, &memStore{names: []string{"L"}})
	names, _ := s.Load(context.Background())
	if !reflect.DeepEqual(names, []string{"P"}) {
		t.Fatalf("got %v, want [P]", names)
	}
}

func TestResolveFresh(t *testing.T) {
	store := &memStore{}
	names, err := Resolve(context.Background(), store, &seqSupply{}, 3)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := []string{"CoA", "CoB", "CoC"}
	if !reflect.DeepEqual(names, want) || !reflect.DeepEqual(store.saved, want) {
		t.Fatalf("names %v saved %v, want %v", names, store.saved, want)
	}
}

func TestResolveTruncates(t *testing.T) {
	store := &memStore{names: []string{"X", "Y", "Z"}}
	supply := &seqSupply{}
	names, err := Resolve(context.Background(), store, supply, 2)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"X", "Y"}) {
		t.Fatalf("got %v", names)
	}
	if supply.calls != 0 {
		t.Fatal("supply should not be asked when the roster is long enough")
	}
}

func TestResolveExtendsWithoutCollision(t *testing.T) {
	store := &memStore{names: []string{"CoB", "Kept"}}
	names, err := Resolve(context.Background(), store, &seqSupply{}, 4)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := []string{"CoB", "Kept", "CoA", "CoC"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("got %v, want %v", names, want)
	}
}

func TestResolveDropsDuplicates(t *testing.T) {
	store := &memStore{names: []string{"A", "A", "B"}}
	names, _ := Resolve(context.Background(), store, &seqSupply{}, 2)
	if !reflect.DeepEqual(names, []string{"A", "B"}) {
		t.Fatalf("got %v", names)
	}
}

func TestResolveErrors(t *testing.T) {
	boom := errors.New("boom")
	if _, err := Resolve(context.Background(), &memStore{loadErr: boom}, &seqSupply{}, 1); !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}
	if _, err := Resolve(context.Background(), &memStore{saveErr: boom}, &seqSupply{}, 1); !errors.Is(err, boom) {
		t.Fatalf("expected save error, got %v", err)
	}
	if _, err := Resolve(context.Background(), &memStore{}, &seqSupply{}, -1); err == nil {
		t.Fatal("expected error for negative count")
	}
}

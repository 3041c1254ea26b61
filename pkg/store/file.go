package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"

	"github.com/chazu/steelframe/pkg/model"
)

// DefaultFileName is the file the file driver uses when given a directory.
const DefaultFileName = "local_models.json"

// File keeps every record in one JSON array on disk, rewritten whole on each
// change. The layout matches local_models.json files written by earlier
// tooling, so those load unchanged.
type File struct {
	mu   sync.Mutex
	path string
	mem  *Memory
}

// OpenFile reads path, or path/local_models.json when path is a directory.
// A missing file is an empty store.
func OpenFile(path string) (*File, error) {
	if path == "" {
		path = DefaultFileName
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, DefaultFileName)
	}

	f := &File{path: path, mem: NewMemory()}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("store: read %s: %w", path, err)
	}
	if len(data) == 0 {
		return f, nil
	}

	var recs []model.Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", path, err)
	}
	f.mem = NewMemory(recs...)
	return f, nil
}

// Path returns the backing file.
func (f *File) Path() string { return f.path }

func (f *File) List(ctx context.Context) ([]model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mem.List(ctx)
}

func (f *File) Load(ctx context.Context, id string) (model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mem.Load(ctx, id)
}

func (f *File) Save(ctx context.Context, rec model.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commit(ctx, func(next *Memory) error { return next.Save(ctx, rec) })
}

func (f *File) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commit(ctx, func(next *Memory) error { return next.Delete(ctx, id) })
}

// commit applies change to a copy of the records and swaps the copy in
// only once it is on disk. A failed write leaves memory and file agreeing.
func (f *File) commit(ctx context.Context, change func(next *Memory) error) error {
	recs, err := f.mem.List(ctx)
	if err != nil {
		return err
	}
	next := NewMemory(recs...)
	if err := change(next); err != nil {
		return err
	}
	if err := f.flush(ctx, next); err != nil {
		return err
	}
	f.mem = next
	return nil
}

func (f *File) Close() error { return nil }

// flush writes mem to a temporary file and renames it over the target, so
// readers never see a half-written array.
func (f *File) flush(ctx context.Context, mem *Memory) error {
	recs, err := mem.List(ctx)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode: %w", err)
	}

	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("store: mkdir %s: %w", dir, err)
		}
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("store: rename %s: %w", tmp, err)
	}
	return nil
}

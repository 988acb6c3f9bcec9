package save

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/lixenwraith/spook/config"
)

// FileExt is the extension FileStore gives save files
const FileExt = ".save"

// Entry describes one stored save
type Entry struct {
	Name     string
	Modified time.Time
	Size     int64
}

// Store persists encoded saves by name
type Store interface {
	// List returns saves newest first
	List(ctx context.Context) ([]Entry, error)
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
	Close() error
}

// NewStore opens the store selected by cfg.SaveBackend under cfg.SaveDir
func NewStore(cfg *config.Config) (Store, error) {
	switch cfg.SaveBackend {
	case config.SaveBackendSQLite:
		if err := os.MkdirAll(cfg.SaveDir, 0o755); err != nil {
			return nil, eris.Wrap(err, "create save dir")
		}
		return OpenSQLite(filepath.Join(cfg.SaveDir, "saves.db"))
	default:
		return NewFileStore(cfg.SaveDir)
	}
}

// FileStore keeps each save in <dir>/<name>.save
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed
func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, eris.New("save dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "create save dir")
	}
	return &FileStore{dir: filepath.Clean(dir)}, nil
}

// Dir returns the directory saves are kept in
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return "", eris.Errorf("invalid save name %q", name)
	}
	return filepath.Join(s.dir, name+FileExt), nil
}

func (s *FileStore) List(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, eris.Wrap(err, "read save dir")
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || filepath.Ext(de.Name()) != FileExt {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// Removed between ReadDir and Info
			continue
		}
		entries = append(entries, Entry{
			Name:     strings.TrimSuffix(de.Name(), FileExt),
			Modified: info.ModTime(),
			Size:     info.Size(),
		})
	}
	sortEntries(entries)
	return entries, nil
}

func (s *FileStore) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrapf(ErrNotFound, "%q", name)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "read save %q", name)
	}
	return data, nil
}

// Write replaces the save atomically through a temp file
func (s *FileStore) Write(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(name)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return eris.Wrap(err, "create temp save")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return eris.Wrapf(err, "write save %q", name)
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "close save %q", name)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return eris.Wrapf(err, "commit save %q", name)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(name)
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if errors.Is(err, fs.ErrNotExist) {
		return eris.Wrapf(ErrNotFound, "%q", name)
	}
	return eris.Wrapf(err, "delete save %q", name)
}

func (s *FileStore) Close() error { return nil }

// sortEntries orders newest first, then by name
func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Modified.Equal(entries[j].Modified) {
			return entries[i].Modified.After(entries[j].Modified)
		}
		return entries[i].Name < entries[j].Name
	})
}

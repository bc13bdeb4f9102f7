package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	papertrade "github.com/etnz/papertrade"
	"github.com/etnz/papertrade/common"
)

const (
	ledgerExt = ".jsonl"
	usersDir  = "users"
)

// File keeps each ledger as <dir>/<id>.jsonl and each user as
// <dir>/users/<name>.json. Writes go through a temporary file and a rename,
// so a crash never leaves a half written ledger behind.
type File struct {
	dir    string
	logger *common.Logger
	mu     sync.RWMutex
}

var _ Store = (*File)(nil)

// NewFile opens a file store rooted at dir, creating it if needed.
func NewFile(dir string, logger *common.Logger) (*File, error) {
	if err := os.MkdirAll(filepath.Join(dir, usersDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}
	logger.Debug().Str("path", dir).Msg("file store opened")
	return &File{dir: dir, logger: logger}, nil
}

func (f *File) ledgerPath(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("invalid portfolio id %q", id)
	}
	return filepath.Join(f.dir, id+ledgerExt), nil
}

func (f *File) userPath(name string) string {
	return filepath.Join(f.dir, usersDir, url.PathEscape(name)+".json")
}

func (f *File) CreateLedger(_ context.Context, l *papertrade.Ledger) error {
	path, err := f.ledgerPath(l.ID())
	if err != nil {
		return err
	}
	data, err := encode(l)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("portfolio %s: %w", l.ID(), ErrPortfolioExists)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return err
	}
	f.logger.Debug().Str("portfolio", l.ID()).Msg("portfolio created")
	return nil
}

func (f *File) LoadLedger(_ context.Context, id string) (*papertrade.Ledger, error) {
	path, err := f.ledgerPath(id)
	if err != nil {
		return nil, notFound(id)
	}
	f.mu.RLock()
	data, err := os.ReadFile(path)
	f.mu.RUnlock()
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read portfolio %s: %w", id, err)
	}
	return decode(id, data)
}

func (f *File) SaveLedger(_ context.Context, l *papertrade.Ledger) error {
	path, err := f.ledgerPath(l.ID())
	if err != nil {
		return err
	}
	data, err := encode(l)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return notFound(l.ID())
	}
	return writeFileAtomic(path, data)
}

func (f *File) DeleteLedger(_ context.Context, id string) error {
	path, err := f.ledgerPath(id)
	if err != nil {
		return notFound(id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(path); errors.Is(err, fs.ErrNotExist) {
		return notFound(id)
	} else if err != nil {
		return fmt.Errorf("cannot delete portfolio %s: %w", id, err)
	}
	return nil
}

func (f *File) ListLedgers(context.Context) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("cannot list portfolios: %w", err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ledgerExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ledgerExt))
	}
	slices.Sort(ids)
	return ids, nil
}

func (f *File) CreateUser(_ context.Context, u User) error {
	data, err := json.MarshalIndent(u, "", "  ")
	if err != nil {
		return err
	}
	path := f.userPath(u.Name)
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("user %q: %w", u.Name, ErrUserExists)
	}
	return writeFileAtomic(path, data)
}

func (f *File) User(_ context.Context, name string) (User, error) {
	f.mu.RLock()
	data, err := os.ReadFile(f.userPath(name))
	f.mu.RUnlock()
	if errors.Is(err, fs.ErrNotExist) {
		return User{}, fmt.Errorf("user %q: %w", name, ErrUserNotFound)
	}
	if err != nil {
		return User{}, fmt.Errorf("cannot read user %q: %w", name, err)
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return User{}, fmt.Errorf("cannot decode user %q: %w", name, err)
	}
	return u, nil
}

func (f *File) Close() error { return nil }

// writeFileAtomic replaces path with data.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

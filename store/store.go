// Package store persists portfolio ledgers and user accounts.
//
// Every backend stores a ledger as its JSONL encoding, so that the files
// written by the file backend and the records held by the badger backend
// decode through the same path and are checked against the ledger invariants
// on every load.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	papertrade "github.com/etnz/papertrade"
	"github.com/etnz/papertrade/common"
)

var (
	ErrPortfolioExists = errors.New("portfolio already exists")
	ErrUserExists      = errors.New("user already exists")
	ErrUserNotFound    = errors.New("user not found")
)

// User is a registered account owning exactly one portfolio.
type User struct {
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash"`
	PortfolioID  string    `json:"portfolio_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store persists ledgers and users.
//
// LoadLedger returns a ledger the caller owns: mutating it has no effect on
// the store until SaveLedger is called. Missing ledgers are reported with
// papertrade.ErrPortfolioNotFound.
type Store interface {
	CreateLedger(ctx context.Context, l *papertrade.Ledger) error
	LoadLedger(ctx context.Context, id string) (*papertrade.Ledger, error)
	SaveLedger(ctx context.Context, l *papertrade.Ledger) error
	DeleteLedger(ctx context.Context, id string) error
	ListLedgers(ctx context.Context) ([]string, error)

	CreateUser(ctx context.Context, u User) error
	User(ctx context.Context, name string) (User, error)

	Close() error
}

// Open returns the backend selected by cfg.
func Open(cfg common.StorageConfig, logger *common.Logger) (Store, error) {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	switch cfg.Backend {
	case common.BackendMemory:
		return NewMemory(), nil
	case common.BackendFile:
		return NewFile(cfg.Path, logger)
	case common.BackendBadger:
		return NewBadger(cfg.Path, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func encode(l *papertrade.Ledger) ([]byte, error) {
	var buf bytes.Buffer
	if err := papertrade.EncodeLedger(&buf, l); err != nil {
		return nil, fmt.Errorf("cannot encode portfolio %s: %w", l.ID(), err)
	}
	return buf.Bytes(), nil
}

func decode(id string, data []byte) (*papertrade.Ledger, error) {
	l, err := papertrade.DecodeLedger(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cannot decode portfolio %s: %w", id, err)
	}
	if l.ID() != id {
		return nil, fmt.Errorf("portfolio %s holds the ledger of %s", id, l.ID())
	}
	return l, nil
}

func notFound(id string) error {
	return fmt.Errorf("portfolio %s: %w", id, papertrade.ErrPortfolioNotFound)
}

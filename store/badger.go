package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	papertrade "github.com/etnz/papertrade"
	"github.com/etnz/papertrade/common"
	"github.com/timshannon/badgerhold/v4"
)

// ledgerRecord is the badgerhold value of a ledger.
type ledgerRecord struct {
	ID      string
	Data    []byte // JSONL encoding
	Updated time.Time
}

// Badger keeps ledgers and users in an embedded BadgerHold database.
type Badger struct {
	db     *badgerhold.Store
	logger *common.Logger
}

var _ Store = (*Badger)(nil)

// NewBadger opens, or creates, a BadgerHold database in dir.
func NewBadger(dir string, logger *common.Logger) (*Badger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create badger directory %s: %w", dir, err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = dir
	options.ValueDir = dir
	options.Logger = nil // Disable default badger logger

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	logger.Debug().Str("path", dir).Msg("BadgerHold store opened")
	return &Badger{db: db, logger: logger}, nil
}

func (b *Badger) CreateLedger(_ context.Context, l *papertrade.Ledger) error {
	data, err := encode(l)
	if err != nil {
		return err
	}
	err = b.db.Insert(l.ID(), ledgerRecord{ID: l.ID(), Data: data, Updated: time.Now().UTC()})
	if errors.Is(err, badgerhold.ErrKeyExists) {
		return fmt.Errorf("portfolio %s: %w", l.ID(), ErrPortfolioExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create portfolio %s: %w", l.ID(), err)
	}
	return nil
}

func (b *Badger) LoadLedger(_ context.Context, id string) (*papertrade.Ledger, error) {
	var rec ledgerRecord
	err := b.db.Get(id, &rec)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio %s: %w", id, err)
	}
	return decode(id, rec.Data)
}

func (b *Badger) SaveLedger(_ context.Context, l *papertrade.Ledger) error {
	data, err := encode(l)
	if err != nil {
		return err
	}
	err = b.db.Update(l.ID(), ledgerRecord{ID: l.ID(), Data: data, Updated: time.Now().UTC()})
	if errors.Is(err, badgerhold.ErrNotFound) {
		return notFound(l.ID())
	}
	if err != nil {
		return fmt.Errorf("failed to save portfolio %s: %w", l.ID(), err)
	}
	b.logger.Debug().Str("portfolio", l.ID()).Int("transactions", l.Len()).Msg("portfolio saved")
	return nil
}

func (b *Badger) DeleteLedger(_ context.Context, id string) error {
	err := b.db.Delete(id, ledgerRecord{})
	if errors.Is(err, badgerhold.ErrNotFound) {
		return notFound(id)
	}
	if err != nil {
		return fmt.Errorf("failed to delete portfolio %s: %w", id, err)
	}
	return nil
}

func (b *Badger) ListLedgers(context.Context) ([]string, error) {
	var recs []ledgerRecord
	if err := b.db.Find(&recs, nil); err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	slices.Sort(ids)
	return ids, nil
}

func (b *Badger) CreateUser(_ context.Context, u User) error {
	err := b.db.Insert(u.Name, u)
	if errors.Is(err, badgerhold.ErrKeyExists) {
		return fmt.Errorf("user %q: %w", u.Name, ErrUserExists)
	}
	if err != nil {
		return fmt.Errorf("failed to save user %q: %w", u.Name, err)
	}
	b.logger.Debug().Str("username", u.Name).Msg("user saved")
	return nil
}

func (b *Badger) User(_ context.Context, name string) (User, error) {
	var u User
	err := b.db.Get(name, &u)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return User{}, fmt.Errorf("user %q: %w", name, ErrUserNotFound)
	}
	if err != nil {
		return User{}, fmt.Errorf("failed to get user %q: %w", name, err)
	}
	return u, nil
}

// Close closes the BadgerHold database.
func (b *Badger) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

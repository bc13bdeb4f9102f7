package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	papertrade "github.com/etnz/papertrade"
	"github.com/etnz/papertrade/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// backends returns one fresh store per backend.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	logger := common.NewSilentLogger()

	file, err := NewFile(t.TempDir(), logger)
	require.NoError(t, err)
	badger, err := NewBadger(t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = badger.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"file":   file,
		"badger": badger,
	}
}

func sampleLedger(t *testing.T, id string) *papertrade.Ledger {
	t.Helper()
	l := papertrade.NewLedger(id, "alice", created)
	require.NoError(t, l.ApplyDeposit(papertrade.M(1000)))
	_, err := l.ApplyBuy("BTC", papertrade.Q(0.5), papertrade.M(100), created.Add(time.Hour))
	require.NoError(t, err)
	return l
}

func TestStore_LedgerLifecycle(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			l := sampleLedger(t, "p1")
			require.NoError(t, s.CreateLedger(ctx, l))
			assert.ErrorIs(t, s.CreateLedger(ctx, l), ErrPortfolioExists)

			got, err := s.LoadLedger(ctx, "p1")
			require.NoError(t, err)
			assert.Equal(t, "alice", got.Owner())
			assert.True(t, got.AvailableCash().Equal(papertrade.M(950)))
			assert.Equal(t, 1, got.Len())

			// the loaded ledger is a private copy
			_, err = got.ApplyBuy("ETH", papertrade.Q(1), papertrade.M(10), created)
			require.NoError(t, err)
			again, err := s.LoadLedger(ctx, "p1")
			require.NoError(t, err)
			assert.Equal(t, 1, again.Len())

			require.NoError(t, s.SaveLedger(ctx, got))
			again, err = s.LoadLedger(ctx, "p1")
			require.NoError(t, err)
			assert.Equal(t, 2, again.Len())
			h, ok := again.Holding("ETH")
			assert.True(t, ok)
			assert.True(t, h.Quantity.Equal(papertrade.Q(1)))

			require.NoError(t, s.CreateLedger(ctx, sampleLedger(t, "p0")))
			ids, err := s.ListLedgers(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"p0", "p1"}, ids)

			require.NoError(t, s.DeleteLedger(ctx, "p1"))
			_, err = s.LoadLedger(ctx, "p1")
			assert.ErrorIs(t, err, papertrade.ErrPortfolioNotFound)
			assert.ErrorIs(t, s.DeleteLedger(ctx, "p1"), papertrade.ErrPortfolioNotFound)
		})
	}
}

func TestStore_MissingLedger(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.LoadLedger(ctx, "nope")
			assert.ErrorIs(t, err, papertrade.ErrPortfolioNotFound)

			err = s.SaveLedger(ctx, sampleLedger(t, "nope"))
			assert.ErrorIs(t, err, papertrade.ErrPortfolioNotFound)

			ids, err := s.ListLedgers(ctx)
			require.NoError(t, err)
			assert.Empty(t, ids)
		})
	}
}

func TestStore_Users(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			u := User{Name: "alice", PasswordHash: "hash", PortfolioID: "p1", CreatedAt: created}
			require.NoError(t, s.CreateUser(ctx, u))
			assert.ErrorIs(t, s.CreateUser(ctx, u), ErrUserExists)

			got, err := s.User(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, u.PortfolioID, got.PortfolioID)
			assert.Equal(t, u.PasswordHash, got.PasswordHash)
			assert.True(t, u.CreatedAt.Equal(got.CreatedAt))

			_, err = s.User(ctx, "bob")
			assert.ErrorIs(t, err, ErrUserNotFound)
		})
	}
}

func TestFile_Layout(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFile(dir, common.NewSilentLogger())
	require.NoError(t, err)

	require.NoError(t, s.CreateLedger(ctx, sampleLedger(t, "p1")))
	require.NoError(t, s.CreateUser(ctx, User{Name: "a/b", PortfolioID: "p1"}))

	data, err := os.ReadFile(filepath.Join(dir, "p1.jsonl"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `{"command":"portfolio","id":"p1"`)

	_, err = os.Stat(filepath.Join(dir, "users", "a%2Fb.json"))
	assert.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".p1.jsonl.", "temporary file left behind")
	}
}

func TestFile_RejectsUnsafeIDs(t *testing.T) {
	ctx := context.Background()
	s, err := NewFile(t.TempDir(), common.NewSilentLogger())
	require.NoError(t, err)

	for _, id := range []string{"../p1", ".hidden", "a/b"} {
		_, err := s.LoadLedger(ctx, id)
		assert.ErrorIs(t, err, papertrade.ErrPortfolioNotFound, id)
		assert.Error(t, s.CreateLedger(ctx, papertrade.NewLedger(id, "", created)), id)
	}
}

func TestFile_CorruptedLedger(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFile(dir, common.NewSilentLogger())
	require.NoError(t, err)

	// a holding with no matching transaction breaks the ledger invariants
	content := `{"command":"portfolio","id":"p1","totalAdded":10,"availableCash":10}
{"command":"holding","symbol":"BTC","quantity":1}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "p1.jsonl"), []byte(content), 0o644))

	_, err = s.LoadLedger(ctx, "p1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, papertrade.ErrPortfolioNotFound)
}

func TestOpen(t *testing.T) {
	s, err := Open(common.StorageConfig{Backend: common.BackendMemory}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(common.StorageConfig{Backend: common.BackendFile, Path: t.TempDir()}, nil)
	require.NoError(t, err)
	assert.IsType(t, &File{}, s)

	_, err = Open(common.StorageConfig{Backend: "s3"}, nil)
	assert.Error(t, err)
}

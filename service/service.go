// Package service runs portfolio operations against a store: every mutation
// loads the ledger, applies one accounting operation and saves it back while
// holding that portfolio's lock.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"

	papertrade "github.com/etnz/papertrade"
	"github.com/etnz/papertrade/auth"
	"github.com/etnz/papertrade/common"
	"github.com/etnz/papertrade/store"
)

const maxUsernameLength = 64

// Service is safe for concurrent use. Operations on different portfolios run
// in parallel; operations on the same portfolio are serialized.
type Service struct {
	store      store.Store
	accounting *papertrade.AccountingSystem
	issuer     *auth.Issuer
	logger     *common.Logger
	locks      locks
	now        func() time.Time
}

// New creates a service. issuer may be nil when Register, Login and
// Authenticate are not used, as in the command line tool.
func New(st store.Store, as *papertrade.AccountingSystem, issuer *auth.Issuer, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{
		store:      st,
		accounting: as,
		issuer:     issuer,
		logger:     logger,
		now:        time.Now,
	}
}

// Create creates an empty portfolio owned by owner and returns its id.
func (s *Service) Create(ctx context.Context, owner string) (string, error) {
	l := papertrade.NewLedger("", owner, s.now())
	if err := s.store.CreateLedger(ctx, l); err != nil {
		return "", err
	}
	s.logger.Info().Str("portfolio", l.ID()).Str("owner", owner).Msg("portfolio created")
	return l.ID(), nil
}

// Register creates a user together with their portfolio.
func (s *Service) Register(ctx context.Context, username, password string) (store.User, error) {
	if err := validateUsername(username); err != nil {
		return store.User{}, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return store.User{}, &papertrade.ValidationError{Field: "password", Reason: err.Error()}
	}
	if _, err := s.store.User(ctx, username); err == nil {
		return store.User{}, fmt.Errorf("user %q: %w", username, store.ErrUserExists)
	}

	id, err := s.Create(ctx, username)
	if err != nil {
		return store.User{}, err
	}
	u := store.User{Name: username, PasswordHash: hash, PortfolioID: id, CreatedAt: s.now().UTC()}
	if err := s.store.CreateUser(ctx, u); err != nil {
		// lost a race with another registration of the same name
		if derr := s.store.DeleteLedger(ctx, id); derr != nil {
			s.logger.Warn().Err(derr).Str("portfolio", id).Msg("cannot delete orphan portfolio")
		}
		return store.User{}, err
	}
	s.logger.Info().Str("username", username).Str("portfolio", id).Msg("user registered")
	return u, nil
}

// Login checks the credentials and returns a bearer token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	if s.issuer == nil {
		return "", errors.New("authentication is not configured")
	}
	u, err := s.store.User(ctx, username)
	if errors.Is(err, store.ErrUserNotFound) {
		return "", auth.ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return "", err
	}
	return s.issuer.Issue(u.Name, u.PortfolioID)
}

// Authenticate verifies a bearer token and returns the portfolio it grants
// access to.
func (s *Service) Authenticate(ctx context.Context, token string) (store.User, error) {
	if s.issuer == nil {
		return store.User{}, errors.New("authentication is not configured")
	}
	claims, err := s.issuer.Verify(token)
	if err != nil {
		return store.User{}, err
	}
	u, err := s.store.User(ctx, claims.Subject)
	if errors.Is(err, store.ErrUserNotFound) {
		return store.User{}, fmt.Errorf("%w: unknown user %q", auth.ErrInvalidToken, claims.Subject)
	}
	return u, err
}

// Price returns the current market price of symbol.
func (s *Service) Price(ctx context.Context, symbol string) (papertrade.Money, error) {
	return s.accounting.Price(ctx, symbol)
}

// Deposit adds virtual cash to the portfolio.
func (s *Service) Deposit(ctx context.Context, id string, amount papertrade.Money) (papertrade.DepositResult, error) {
	var res papertrade.DepositResult
	err := s.update(ctx, id, func(l *papertrade.Ledger) (err error) {
		res, err = s.accounting.Deposit(l, amount)
		return err
	})
	if err != nil {
		return papertrade.DepositResult{}, err
	}
	s.logger.Info().Str("portfolio", id).Str("amount", amount.Decimal().String()).Msg("deposit")
	return res, nil
}

// Buy buys quantity units of symbol at the current price.
func (s *Service) Buy(ctx context.Context, id, symbol string, quantity papertrade.Quantity) (papertrade.Transaction, error) {
	return s.trade(ctx, id, symbol, quantity, s.accounting.Buy)
}

// Sell sells quantity units of symbol at the current price.
func (s *Service) Sell(ctx context.Context, id, symbol string, quantity papertrade.Quantity) (papertrade.Transaction, error) {
	return s.trade(ctx, id, symbol, quantity, s.accounting.Sell)
}

type tradeFunc func(context.Context, *papertrade.Ledger, string, papertrade.Quantity) (papertrade.Transaction, error)

func (s *Service) trade(ctx context.Context, id, symbol string, quantity papertrade.Quantity, apply tradeFunc) (papertrade.Transaction, error) {
	var tx papertrade.Transaction
	err := s.update(ctx, id, func(l *papertrade.Ledger) (err error) {
		tx, err = apply(ctx, l, symbol, quantity)
		return err
	})
	if err != nil {
		s.logger.Debug().Err(err).Str("portfolio", id).Str("symbol", symbol).Str("quantity", quantity.String()).Msg("trade rejected")
		return papertrade.Transaction{}, err
	}
	s.logger.Info().
		Str("portfolio", id).
		Str("command", string(tx.What())).
		Str("symbol", tx.Symbol).
		Str("quantity", tx.Quantity.String()).
		Str("price", tx.Price.Decimal().String()).
		Msg("trade executed")
	return tx, nil
}

// Report values the portfolio at current prices. Prices are fetched on a
// private copy, so slow quotes never block trades.
func (s *Service) Report(ctx context.Context, id string) (*papertrade.ValueReport, error) {
	l, err := s.Ledger(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.accounting.ValueReport(ctx, l)
}

// Transactions returns the portfolio trades in execution order.
func (s *Service) Transactions(ctx context.Context, id string) ([]papertrade.Transaction, error) {
	l, err := s.Ledger(ctx, id)
	if err != nil {
		return nil, err
	}
	return slices.Collect(l.Transactions()), nil
}

// Ledger returns a snapshot of the portfolio ledger.
func (s *Service) Ledger(ctx context.Context, id string) (*papertrade.Ledger, error) {
	unlock := s.locks.lock(id)
	defer unlock()
	return s.store.LoadLedger(ctx, id)
}

// Portfolios lists the ids of every stored portfolio.
func (s *Service) Portfolios(ctx context.Context) ([]string, error) {
	return s.store.ListLedgers(ctx)
}

// update applies fn to the stored ledger and saves the result. Nothing is
// saved when fn fails.
func (s *Service) update(ctx context.Context, id string, fn func(*papertrade.Ledger) error) error {
	unlock := s.locks.lock(id)
	defer unlock()

	l, err := s.store.LoadLedger(ctx, id)
	if err != nil {
		return err
	}
	if err := fn(l); err != nil {
		return err
	}
	return s.store.SaveLedger(ctx, l)
}

func validateUsername(name string) error {
	if name == "" {
		return &papertrade.ValidationError{Field: "username", Reason: "username is missing"}
	}
	if len(name) > maxUsernameLength {
		return &papertrade.ValidationError{Field: "username", Reason: fmt.Sprintf("longer than %d characters", maxUsernameLength)}
	}
	if strings.IndexFunc(name, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0 {
		return &papertrade.ValidationError{Field: "username", Reason: "must not contain spaces"}
	}
	return nil
}

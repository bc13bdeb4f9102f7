// Package cmd implements the pts CLI application to manage paper trading portfolios.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	papertrade "github.com/etnz/papertrade"
	"github.com/etnz/papertrade/auth"
	"github.com/etnz/papertrade/binance"
	"github.com/etnz/papertrade/common"
	"github.com/etnz/papertrade/service"
	"github.com/etnz/papertrade/store"
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&initCmd{}, "portfolio")
	c.Register(&listCmd{}, "portfolio")
	c.Register(&depositCmd{}, "portfolio")

	c.Register(&buyCmd{}, "transactions")
	c.Register(&sellCmd{}, "transactions")
	c.Register(&txCmd{}, "transactions")

	c.Register(&reportCmd{}, "reports")
	c.Register(&priceCmd{}, "reports")

	c.Register(&serveCmd{}, "server")

	c.Register(&topicCmd{}, "help")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configPath = flag.String("config", "papertrade.toml", "Path to the TOML configuration file")
var portfolioID = flag.String("p", "", "Portfolio to operate on. Defaults to the only portfolio if one exists.")

// app bundles what a subcommand needs to run an operation.
type app struct {
	config *common.Config
	logger *common.Logger
	store  store.Store
	svc    *service.Service
}

// openApp loads the configuration and opens the configured store.
func openApp() (*app, error) {
	config, err := common.LoadConfig(*configPath)
	if err != nil {
		return nil, err
	}
	return newApp(config, common.NewLogger(config.Logging.Level, config.Logging.Format))
}

func newApp(config *common.Config, logger *common.Logger) (*app, error) {
	st, err := store.Open(config.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("could not open storage: %w", err)
	}

	var oracle papertrade.PriceOracle = binance.NewClient(config.Oracle, logger)
	if config.Oracle.ZeroOnFailure {
		oracle = papertrade.ZeroOnFailure(oracle)
	}
	as := papertrade.NewAccountingSystem(oracle, config.Accounting.CostBasis)
	svc := service.New(st, as, auth.NewIssuer(config.Auth), logger)
	return &app{config: config, logger: logger, store: st, svc: svc}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("closing storage")
	}
}

// portfolio returns the portfolio selected by -p, or the only existing one.
func (a *app) portfolio(ctx context.Context) (string, error) {
	if *portfolioID != "" {
		return *portfolioID, nil
	}
	ids, err := a.svc.Portfolios(ctx)
	if err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", errors.New("no portfolio found, create one with 'pts init'")
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%d portfolios found, select one with -p", len(ids))
	}
}

// withPortfolio opens the app, resolves the portfolio and runs fn.
// Errors are printed and turned into an exit status.
func withPortfolio(ctx context.Context, fn func(a *app, id string) error) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	id, err := a.portfolio(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := fn(a, id); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if papertrade.IsValidationError(err) {
			return subcommands.ExitUsageError
		}
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	papertrade "github.com/etnz/papertrade"
	"github.com/etnz/papertrade/renderer"
	"github.com/google/subcommands"
)

// tradeFlags holds the flags shared by buy and sell.
type tradeFlags struct {
	symbol   string
	quantity string
}

func (t *tradeFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&t.symbol, "s", "", "Symbol of the asset, e.g. BTC")
	f.StringVar(&t.quantity, "q", "", "Quantity to trade")
}

// execute parses the flags and runs trade at the current market price.
func (t *tradeFlags) execute(ctx context.Context, trade func(*app, string, string, papertrade.Quantity) (papertrade.Transaction, error)) subcommands.ExitStatus {
	if t.symbol == "" {
		fmt.Fprintln(os.Stderr, "Error: -s is required")
		return subcommands.ExitUsageError
	}
	q, err := papertrade.ParseQuantity(t.quantity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	return withPortfolio(ctx, func(a *app, id string) error {
		tx, err := trade(a, id, t.symbol, q)
		if err != nil {
			return err
		}
		fmt.Println(renderer.Transaction(tx))
		return nil
	})
}

type buyCmd struct {
	tradeFlags
}

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "buy an asset at the current market price" }
func (*buyCmd) Usage() string {
	return `pts buy -s <symbol> -q <quantity>

  Buys the asset with the available cash, at the price returned by the oracle.

Usage Examples:
$ pts buy -s BTC -q 0.01
`
}

func (c *buyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.execute(ctx, func(a *app, id, symbol string, q papertrade.Quantity) (papertrade.Transaction, error) {
		return a.svc.Buy(ctx, id, symbol, q)
	})
}

type sellCmd struct {
	tradeFlags
}

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "sell a held asset at the current market price" }
func (*sellCmd) Usage() string {
	return `pts sell -s <symbol> -q <quantity>

  Sells part or all of a holding, at the price returned by the oracle.
`
}

func (c *sellCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.execute(ctx, func(a *app, id, symbol string, q papertrade.Quantity) (papertrade.Transaction, error) {
		return a.svc.Sell(ctx, id, symbol, q)
	})
}

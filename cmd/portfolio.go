package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/user"

	papertrade "github.com/etnz/papertrade"
	"github.com/google/subcommands"
)

type initCmd struct {
	owner string
}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "create a new empty portfolio" }
func (*initCmd) Usage() string {
	return `pts init [-owner <name>]

  Creates a new portfolio with no cash and no holdings, and prints its id.
  Use the id with -p when more than one portfolio exists.
`
}

func (c *initCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.owner, "owner", defaultOwner(), "Owner recorded in the portfolio")
}

func (c *initCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	id, err := a.svc.Create(ctx, c.owner)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println(id)
	return subcommands.ExitSuccess
}

func defaultOwner() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return ""
}

type listCmd struct{}

func (*listCmd) Name() string     { return "ls" }
func (*listCmd) Synopsis() string { return "list the portfolios in the store" }
func (*listCmd) Usage() string {
	return `pts ls

  Prints the id of every portfolio, one per line.
`
}

func (*listCmd) SetFlags(*flag.FlagSet) {}

func (*listCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	ids, err := a.svc.Portfolios(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing portfolios: %v\n", err)
		return subcommands.ExitFailure
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return subcommands.ExitSuccess
}

type depositCmd struct {
	amount string
}

func (*depositCmd) Name() string     { return "deposit" }
func (*depositCmd) Synopsis() string { return "add virtual cash to the portfolio" }
func (*depositCmd) Usage() string {
	return `pts deposit -a <amount>

  Adds cash to the portfolio. The amount counts as invested money when
  computing the performance.

Usage Examples:
$ pts deposit -a 1000
`
}

func (c *depositCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.amount, "a", "", "Amount of cash to add")
}

func (c *depositCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	amount, err := papertrade.ParseMoney(c.amount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	return withPortfolio(ctx, func(a *app, id string) error {
		res, err := a.svc.Deposit(ctx, id, amount)
		if err != nil {
			return err
		}
		fmt.Printf("Added %s: total added %s, available %s\n", amount, res.TotalAdded, res.AvailableCash)
		return nil
	})
}

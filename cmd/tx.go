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

type txCmd struct {
	head int
	tail int
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list all transactions of the portfolio" }
func (*txCmd) Usage() string {
	return `pts tx [-head <n>] [-tail <n>]

  Lists the transactions of the portfolio, oldest first.
`
}

func (p *txCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&p.head, "head", 0, "Show only the first N transactions.")
	f.IntVar(&p.tail, "tail", 0, "Show only the last N transactions.")
}

func (p *txCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.head > 0 && p.tail > 0 {
		fmt.Fprintln(os.Stderr, "Error: -head and -tail flags cannot be used together.")
		return subcommands.ExitUsageError
	}
	return withPortfolio(ctx, func(a *app, id string) error {
		transactions, err := a.svc.Transactions(ctx, id)
		if err != nil {
			return err
		}
		printMarkdown(os.Stdout, renderer.RenderTransactions(limit(transactions, p.head, p.tail)))
		return nil
	})
}

// limit keeps the first head or the last tail transactions. Zero means no limit.
func limit(transactions []papertrade.Transaction, head, tail int) []papertrade.Transaction {
	if head > 0 && len(transactions) > head {
		transactions = transactions[:head]
	}
	if tail > 0 && len(transactions) > tail {
		transactions = transactions[len(transactions)-tail:]
	}
	return transactions
}

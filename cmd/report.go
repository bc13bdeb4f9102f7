package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/papertrade/renderer"
	"github.com/google/subcommands"
)

type reportCmd struct {
	json bool
	html bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "value the portfolio at current market prices" }
func (*reportCmd) Usage() string {
	return `pts report [-json | -html]

  Fetches the current price of every holding and reports the total value
  and the performance of the portfolio and of each asset.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "Print the report as JSON")
	f.BoolVar(&c.html, "html", false, "Print the report as HTML")
}

func (c *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.json && c.html {
		fmt.Fprintln(os.Stderr, "Error: -json and -html flags cannot be used together.")
		return subcommands.ExitUsageError
	}
	return withPortfolio(ctx, func(a *app, id string) error {
		report, err := a.svc.Report(ctx, id)
		if err != nil {
			return err
		}
		switch {
		case c.json:
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		case c.html:
			html, err := renderer.ToHTML(renderer.RenderReport(report))
			if err != nil {
				return err
			}
			fmt.Print(html)
		default:
			printMarkdown(os.Stdout, renderer.RenderReport(report))
		}
		return nil
	})
}

type priceCmd struct {
	symbol string
}

func (*priceCmd) Name() string     { return "price" }
func (*priceCmd) Synopsis() string { return "print the current price of an asset" }
func (*priceCmd) Usage() string {
	return `pts price -s <symbol>

  Queries the price oracle, without touching any portfolio.
`
}

func (c *priceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "s", "", "Symbol of the asset, e.g. BTC")
}

func (c *priceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	p, err := a.svc.Price(ctx, c.symbol)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%s %s\n", c.symbol, p.Decimal())
	return subcommands.ExitSuccess
}

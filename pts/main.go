package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/papertrade/cmd"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// completion describes the command line for shell completion.
// Install it with COMP_INSTALL=1 pts.
var completion = &complete.Command{
	Flags: map[string]complete.Predictor{
		"config": predict.Files("*.toml"),
		"p":      predict.Something,
	},
	Sub: map[string]*complete.Command{
		"init":     {Flags: map[string]complete.Predictor{"owner": predict.Something}},
		"ls":       {},
		"deposit":  {Flags: map[string]complete.Predictor{"a": predict.Something}},
		"buy":      {Flags: map[string]complete.Predictor{"s": predict.Something, "q": predict.Something}},
		"sell":     {Flags: map[string]complete.Predictor{"s": predict.Something, "q": predict.Something}},
		"tx":       {Flags: map[string]complete.Predictor{"head": predict.Something, "tail": predict.Something}},
		"report":   {Flags: map[string]complete.Predictor{"json": predict.Nothing, "html": predict.Nothing}},
		"price":    {Flags: map[string]complete.Predictor{"s": predict.Something}},
		"serve":    {Flags: map[string]complete.Predictor{"port": predict.Something}},
		"topic":    {Args: predict.Set{"getting-started", "valuation", "configuration", "api"}},
		"help":     {},
		"flags":    {},
		"commands": {},
	},
}

func main() {
	name := path.Base(os.Args[0])
	// exits when invoked by the shell for completion
	completion.Complete(name)

	commander := subcommands.NewCommander(flag.CommandLine, name)
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

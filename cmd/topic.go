package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/etnz/papertrade/docs"
	"github.com/google/subcommands"
)

// topicCmd prints pages of the embedded pts manual.
type topicCmd struct {
	list bool
	raw  bool
}

func (*topicCmd) Name() string     { return "topic" }
func (*topicCmd) Synopsis() string { return "read the pts manual" }
func (*topicCmd) Usage() string {
	return `pts topic [-list] [-raw] [<name>...]

  Prints the overview of the manual, or the named pages one after the other.
  The name '*' selects every page. -list prints the page names only.
`
}

func (c *topicCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.list, "list", false, "print the names of the manual pages")
	f.BoolVar(&c.raw, "raw", false, "print markdown source instead of rendering it")
}

func (c *topicCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.write(os.Stdout, f.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "pts topic: %v\n", err)
		if names, lerr := docs.All(); lerr == nil {
			fmt.Fprintf(os.Stderr, "available pages: %s\n", strings.Join(names, ", "))
		}
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *topicCmd) write(w io.Writer, names []string) error {
	if c.list {
		pages, err := docs.All()
		if err != nil {
			return err
		}
		for _, p := range pages {
			fmt.Fprintln(w, p)
		}
		return nil
	}

	if len(names) == 0 {
		names = []string{"readme"}
	}
	md, err := docs.Topics(names...)
	if err != nil {
		return err
	}
	if c.raw {
		_, err = io.WriteString(w, md)
		return err
	}
	printMarkdown(w, md)
	return nil
}

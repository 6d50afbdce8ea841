package cli

import (
	"flag"
	"fmt"
	"io"

	"github.com/mrlokans/bookshelf/internal/catalogue"
	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// SearchCommand finds books by a case-insensitive substring of one field
type SearchCommand struct {
	base
	Field string
	Query string
	Stats bool
}

func NewSearchCommand(cfg *config.Config, out io.Writer) *SearchCommand {
	return &SearchCommand{base: newBase(cfg, out)}
}

func (cmd *SearchCommand) ParseFlags(args []string) error {
	fs := cmd.newFlagSet("search", "search <title|author|genre> <query> [options]")
	fs.BoolVar(&cmd.Stats, "stats", false, "Print a summary of the matches")

	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 2 {
		return usageError("search expects <field> <query>")
	}
	cmd.Field, cmd.Query = positional[0], positional[1]
	return nil
}

func (cmd *SearchCommand) Run() error {
	cat, closeFn, err := cmd.openCatalogue()
	if err != nil {
		return err
	}
	defer closeFn()

	if !cmd.Stats {
		found, err := cat.SearchBooks(cmd.Field, cmd.Query)
		if err != nil {
			return err
		}
		cmd.printBooks(found, "Nothing found.")
		return nil
	}

	found, summary, err := cat.SearchBooksWithStats(cmd.Field, cmd.Query)
	if err != nil {
		return err
	}
	cmd.printBooks(found, "Nothing found.")
	fmt.Fprintln(cmd.out)
	fmt.Fprintln(cmd.out, catalogue.FormatSummary(summary))
	return nil
}

// TopCommand ranks books by rating or popularity
type TopCommand struct {
	base
	Metric string
	Limit  int

	limitSet bool
}

func NewTopCommand(cfg *config.Config, out io.Writer) *TopCommand {
	return &TopCommand{base: newBase(cfg, out)}
}

func (cmd *TopCommand) ParseFlags(args []string) error {
	fs := cmd.newFlagSet("top", "top <rating|popularity> [options]")
	fs.IntVar(&cmd.Limit, "limit", 0, fmt.Sprintf("Number of books to show (default %d)", cmd.cfg.Query.DefaultTopLimit))

	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return usageError("top expects exactly one <metric>")
	}
	cmd.Metric = positional[0]
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "limit" {
			cmd.limitSet = true
		}
	})
	return nil
}

func (cmd *TopCommand) Run() error {
	// An omitted -limit reaches the catalogue as 0 and takes the default.
	if cmd.limitSet && cmd.Limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d: %w", cmd.Limit, entities.ErrValidation)
	}

	cat, closeFn, err := cmd.openCatalogue()
	if err != nil {
		return err
	}
	defer closeFn()

	ranked, err := cat.TopBooks(cmd.Metric, cmd.Limit)
	if err != nil {
		return err
	}
	if len(ranked) == 0 {
		fmt.Fprintf(cmd.out, "No books have a %s yet.\n", cmd.Metric)
		return nil
	}
	for i, book := range ranked {
		fmt.Fprintf(cmd.out, "%2d. %s\n", i+1, catalogue.FormatBook(book))
	}
	return nil
}

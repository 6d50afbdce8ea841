package cli

import (
	"fmt"
	"io"

	"github.com/mrlokans/bookshelf/internal/catalogue"
	"github.com/mrlokans/bookshelf/internal/config"
)

var sampleBooks = []struct{ title, author, genre string }{
	{"Война и мир", "Лев Толстой", "Роман"},
	{"1984", "George Orwell", "Антиутопия"},
	{"Преступление и наказание", "Фёдор Достоевский", "Классика"},
}

// SelfTestCommand seeds sample books and searches them to check that the
// database and the query path work end to end.
type SelfTestCommand struct {
	base
}

func NewSelfTestCommand(cfg *config.Config, out io.Writer) *SelfTestCommand {
	return &SelfTestCommand{base: newBase(cfg, out)}
}

func (cmd *SelfTestCommand) ParseFlags(args []string) error {
	positional, err := parseArgs(cmd.newFlagSet("selftest", "selftest [options]"), args)
	if err != nil {
		return err
	}
	if len(positional) > 0 {
		return usageError("selftest takes no arguments")
	}
	return nil
}

func (cmd *SelfTestCommand) Run() error {
	fmt.Fprintln(cmd.out, "Bookshelf self-test")
	fmt.Fprintln(cmd.out, "===================")
	fmt.Fprintf(cmd.out, "Database: %s\n\n", cmd.DatabasePath)

	cat, closeFn, err := cmd.openCatalogue()
	if err != nil {
		return err
	}
	defer closeFn()

	before, err := cat.Count()
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.out, "1. Adding sample books:")
	for _, sample := range sampleBooks {
		book, err := cat.AddBook(sample.title, sample.author, sample.genre, nil)
		if err != nil {
			return fmt.Errorf("failed to add %q: %w", sample.title, err)
		}
		fmt.Fprintf(cmd.out, "   %s\n", catalogue.FormatBook(*book))
	}
	after, err := cat.Count()
	if err != nil {
		return err
	}
	if after != before+int64(len(sampleBooks)) {
		return fmt.Errorf("catalogue has %d books after adding %d to %d", after, len(sampleBooks), before)
	}
	fmt.Fprintf(cmd.out, "   Books in catalogue: %d\n", after)

	fmt.Fprintln(cmd.out, "\n2. Searching by author \"Толстой\":")
	found, summary, err := cat.SearchBooksWithStats("author", "Толстой")
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return fmt.Errorf("search returned no books right after adding them")
	}
	for _, book := range found {
		fmt.Fprintf(cmd.out, "   %s\n", catalogue.FormatBook(book))
	}
	fmt.Fprintf(cmd.out, "\n%s\n\n", catalogue.FormatSummary(summary))

	fmt.Fprintln(cmd.out, "Self-test passed")
	return nil
}

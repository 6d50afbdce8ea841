package cli

import (
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/mrlokans/bookshelf/internal/catalogue"
	"github.com/mrlokans/bookshelf/internal/config"
)

// AddCommand adds one book to the catalogue
type AddCommand struct {
	base
	Title  string
	Author string
	Genre  string
	Rating *float64
}

func NewAddCommand(cfg *config.Config, out io.Writer) *AddCommand {
	return &AddCommand{base: newBase(cfg, out)}
}

func (cmd *AddCommand) ParseFlags(args []string) error {
	fs := cmd.newFlagSet("add", "add <title> <author> [genre] [options]")
	rating := fs.String("rating", "", "Initial rating between 0 and 10")

	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) < 2 || len(positional) > 3 {
		return usageError("add expects <title> <author> [genre], got %d arguments", len(positional))
	}

	cmd.Title, cmd.Author = positional[0], positional[1]
	if len(positional) == 3 {
		cmd.Genre = positional[2]
	}

	if *rating != "" {
		value, err := strconv.ParseFloat(*rating, 64)
		if err != nil {
			return usageError("rating must be a number, got %q", *rating)
		}
		cmd.Rating = &value
	}
	return nil
}

func (cmd *AddCommand) Run() error {
	cat, closeFn, err := cmd.openCatalogue()
	if err != nil {
		return err
	}
	defer closeFn()

	book, err := cat.AddBook(cmd.Title, cmd.Author, cmd.Genre, cmd.Rating)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.out, "Added book with id %d\n", book.ID)
	fmt.Fprintln(cmd.out, catalogue.FormatBook(*book))
	return nil
}

// GetCommand prints one book by id
type GetCommand struct {
	base
	ID uint
}

func NewGetCommand(cfg *config.Config, out io.Writer) *GetCommand {
	return &GetCommand{base: newBase(cfg, out)}
}

func (cmd *GetCommand) ParseFlags(args []string) error {
	id, err := parseSingleID(cmd.newFlagSet("get", "get <id> [options]"), "get", args)
	cmd.ID = id
	return err
}

func (cmd *GetCommand) Run() error {
	cat, closeFn, err := cmd.openCatalogue()
	if err != nil {
		return err
	}
	defer closeFn()

	book, err := cat.GetBook(cmd.ID)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.out, catalogue.FormatBook(*book))
	return nil
}

// ListCommand prints every book in id order
type ListCommand struct {
	base
}

func NewListCommand(cfg *config.Config, out io.Writer) *ListCommand {
	return &ListCommand{base: newBase(cfg, out)}
}

func (cmd *ListCommand) ParseFlags(args []string) error {
	positional, err := parseArgs(cmd.newFlagSet("list", "list [options]"), args)
	if err != nil {
		return err
	}
	if len(positional) > 0 {
		return usageError("list takes no arguments")
	}
	return nil
}

func (cmd *ListCommand) Run() error {
	cat, closeFn, err := cmd.openCatalogue()
	if err != nil {
		return err
	}
	defer closeFn()

	list, err := cat.GetAllBooks()
	if err != nil {
		return err
	}
	cmd.printBooks(list, "The catalogue is empty.")
	return nil
}

// DeleteCommand removes a book. Deleting a missing id is not an error.
type DeleteCommand struct {
	base
	ID uint
}

func NewDeleteCommand(cfg *config.Config, out io.Writer) *DeleteCommand {
	return &DeleteCommand{base: newBase(cfg, out)}
}

func (cmd *DeleteCommand) ParseFlags(args []string) error {
	id, err := parseSingleID(cmd.newFlagSet("delete", "delete <id> [options]"), "delete", args)
	cmd.ID = id
	return err
}

func (cmd *DeleteCommand) Run() error {
	cat, closeFn, err := cmd.openCatalogue()
	if err != nil {
		return err
	}
	defer closeFn()

	deleted, err := cat.DeleteBook(cmd.ID)
	if err != nil {
		return err
	}
	if deleted {
		fmt.Fprintf(cmd.out, "Deleted book %d\n", cmd.ID)
	} else {
		fmt.Fprintf(cmd.out, "No book with id %d\n", cmd.ID)
	}
	return nil
}

// RateCommand sets the rating of a book
type RateCommand struct {
	base
	ID     uint
	Rating float64
}

func NewRateCommand(cfg *config.Config, out io.Writer) *RateCommand {
	return &RateCommand{base: newBase(cfg, out)}
}

func (cmd *RateCommand) ParseFlags(args []string) error {
	positional, err := parseArgs(cmd.newFlagSet("rate", "rate <id> <rating> [options]"), args)
	if err != nil {
		return err
	}
	if len(positional) != 2 {
		return usageError("rate expects <id> <rating>")
	}
	if cmd.ID, err = parseID(positional[0]); err != nil {
		return err
	}
	if cmd.Rating, err = strconv.ParseFloat(positional[1], 64); err != nil {
		return usageError("rating must be a number, got %q", positional[1])
	}
	return nil
}

func (cmd *RateCommand) Run() error {
	cat, closeFn, err := cmd.openCatalogue()
	if err != nil {
		return err
	}
	defer closeFn()

	book, err := cat.RateBook(cmd.ID, cmd.Rating)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.out, catalogue.FormatBook(*book))
	return nil
}

// ReadCommand records one more read of a book, feeding the popularity ranking
type ReadCommand struct {
	base
	ID uint
}

func NewReadCommand(cfg *config.Config, out io.Writer) *ReadCommand {
	return &ReadCommand{base: newBase(cfg, out)}
}

func (cmd *ReadCommand) ParseFlags(args []string) error {
	id, err := parseSingleID(cmd.newFlagSet("read", "read <id> [options]"), "read", args)
	cmd.ID = id
	return err
}

func (cmd *ReadCommand) Run() error {
	cat, closeFn, err := cmd.openCatalogue()
	if err != nil {
		return err
	}
	defer closeFn()

	book, err := cat.MarkRead(cmd.ID)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.out, catalogue.FormatBook(*book))
	return nil
}

func parseSingleID(fs *flag.FlagSet, name string, args []string) (uint, error) {
	positional, err := parseArgs(fs, args)
	if err != nil {
		return 0, err
	}
	if len(positional) != 1 {
		return 0, usageError("%s expects exactly one <id>", name)
	}
	return parseID(positional[0])
}

package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/mrlokans/bookshelf/internal/catalogue"
	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// ErrUsage marks errors caused by malformed command lines.
var ErrUsage = errors.New("usage error")

// Command is one CLI sub-command.
type Command interface {
	ParseFlags(args []string) error
	Run() error
}

type commandInfo struct {
	summary string
	build   func(cfg *config.Config, out io.Writer) Command
}

var commands = map[string]commandInfo{
	"add":      {"Add a book: add <title> <author> [genre] [-rating N]", func(c *config.Config, w io.Writer) Command { return NewAddCommand(c, w) }},
	"get":      {"Show one book: get <id>", func(c *config.Config, w io.Writer) Command { return NewGetCommand(c, w) }},
	"list":     {"List the whole catalogue", func(c *config.Config, w io.Writer) Command { return NewListCommand(c, w) }},
	"search":   {"Search one field: search <title|author|genre> <query> [-stats]", func(c *config.Config, w io.Writer) Command { return NewSearchCommand(c, w) }},
	"top":      {"Rank books: top <rating|popularity> [-limit N]", func(c *config.Config, w io.Writer) Command { return NewTopCommand(c, w) }},
	"delete":   {"Delete a book: delete <id>", func(c *config.Config, w io.Writer) Command { return NewDeleteCommand(c, w) }},
	"rate":     {"Rate a book: rate <id> <rating>", func(c *config.Config, w io.Writer) Command { return NewRateCommand(c, w) }},
	"read":     {"Record that a book was read: read <id>", func(c *config.Config, w io.Writer) Command { return NewReadCommand(c, w) }},
	"export":   {"Export the catalogue to markdown: export -output <dir>", func(c *config.Config, w io.Writer) Command { return NewExportCommand(c, w) }},
	"selftest": {"Seed sample books and run a search to check the installation", func(c *config.Config, w io.Writer) Command { return NewSelfTestCommand(c, w) }},
	"telegram": {"Run the Telegram bot: telegram [-token T]", func(c *config.Config, w io.Writer) Command { return NewTelegramCommand(c, w) }},
}

// Lookup returns a fresh command by name.
func Lookup(name string, cfg *config.Config, out io.Writer) (Command, bool) {
	info, ok := commands[name]
	if !ok {
		return nil, false
	}
	return info.build(cfg, out), true
}

// PrintUsage writes the list of commands.
func PrintUsage(w io.Writer, program string) {
	fmt.Fprintf(w, "Usage: %s <command> [arguments] [options]\n\n", program)
	fmt.Fprintf(w, "Commands:\n")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-10s %s\n", name, commands[name].summary)
	}
	fmt.Fprintf(w, "\nEvery command accepts -db <path> (default: $DATABASE_PATH or %s).\n", config.DefaultDatabasePath)
	fmt.Fprintf(w, "Use '%s <command> -h' for help on a specific command.\n", program)
}

// ErrorMessage renders a command error for the terminal.
func ErrorMessage(err error) string {
	msg := catalogue.UserMessage(err)
	if errors.Is(err, entities.ErrStorage) || !isCatalogueError(err) {
		return fmt.Sprintf("%s (%v)", msg, err)
	}
	return msg
}

func isCatalogueError(err error) bool {
	return errors.Is(err, entities.ErrValidation) ||
		errors.Is(err, entities.ErrNotFound) ||
		errors.Is(err, entities.ErrStorage)
}

// base holds what every command shares: where to read defaults from,
// where to print, and the database flag.
type base struct {
	cfg          *config.Config
	out          io.Writer
	DatabasePath string
}

func newBase(cfg *config.Config, out io.Writer) base {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if out == nil {
		out = os.Stdout
	}
	return base{cfg: cfg, out: out}
}

func (b *base) newFlagSet(name, usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.StringVar(&b.DatabasePath, "db", b.cfg.Database.Path, "Path to the catalogue database file")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s %s\n\nOptions:\n", os.Args[0], usage)
		fs.PrintDefaults()
	}
	return fs
}

// openCatalogue opens the database and returns the facade plus a close func.
func (b *base) openCatalogue() (*catalogue.Catalogue, func(), error) {
	db, err := database.Open(b.DatabasePath, database.Options{LogSQL: b.cfg.Database.LogSQL})
	if err != nil {
		return nil, nil, err
	}
	cat := catalogue.New(books.NewRepository(db.DB), catalogue.Options{
		DefaultTopLimit: b.cfg.Query.DefaultTopLimit,
	})
	closeFn := func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing database: %v\n", err)
		}
	}
	return cat, closeFn, nil
}

func (b *base) printBooks(list []entities.Book, empty string) {
	if len(list) == 0 {
		fmt.Fprintln(b.out, empty)
		return
	}
	for _, book := range list {
		fmt.Fprintln(b.out, catalogue.FormatBook(book))
	}
}

// parseArgs parses flags that may appear before, between or after
// positional arguments and returns the positional ones.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return nil, err
			}
			return nil, fmt.Errorf("%v: %w", err, ErrUsage)
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

func usageError(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, ErrUsage)...)
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, usageError("book id must be a positive integer, got %q", raw)
	}
	return uint(id), nil
}

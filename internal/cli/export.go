package cli

import (
	"fmt"
	"io"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/exporters"
)

// ExportCommand writes the catalogue as markdown notes
type ExportCommand struct {
	base
	OutputDir string
}

func NewExportCommand(cfg *config.Config, out io.Writer) *ExportCommand {
	return &ExportCommand{base: newBase(cfg, out)}
}

func (cmd *ExportCommand) ParseFlags(args []string) error {
	fs := cmd.newFlagSet("export", "export -output <dir> [options]")
	fs.StringVar(&cmd.OutputDir, "output", cmd.cfg.Export.Dir, "Directory for the markdown notes (default: $EXPORT_DIR)")

	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) > 0 {
		return usageError("export takes no positional arguments")
	}
	if cmd.OutputDir == "" {
		return usageError("required flag -output not provided")
	}
	return nil
}

func (cmd *ExportCommand) Run() error {
	cat, closeFn, err := cmd.openCatalogue()
	if err != nil {
		return err
	}
	defer closeFn()

	list, err := cat.GetAllBooks()
	if err != nil {
		return err
	}

	result, err := exporters.NewMarkdownExporter(cmd.OutputDir).Export(list)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Fprintf(cmd.out, "Exported %d books to %s\n", result.BooksProcessed, cmd.OutputDir)
	if result.BooksFailed > 0 {
		fmt.Fprintf(cmd.out, "Failed to export %d books, see the log for details\n", result.BooksFailed)
	}
	return nil
}

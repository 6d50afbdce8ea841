package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"github.com/mrlokans/bookshelf/internal/catalogue"
	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/exporters"
	"github.com/mrlokans/bookshelf/internal/scheduler"
	"github.com/mrlokans/bookshelf/internal/telegram"
)

var ErrMissingToken = errors.New("telegram token is not set, pass -token or set TELEGRAM_TOKEN")

// RunBot starts the Telegram bot and, when enabled, the export scheduler.
// It blocks until SIGINT or SIGTERM.
func RunBot(cfg *config.Config, version string) error {
	log.Printf("Starting Bookshelf bot v%s", version)

	if cfg.Telegram.Token == "" {
		return ErrMissingToken
	}

	db, err := database.Open(cfg.Database.Path, database.Options{LogSQL: cfg.Database.LogSQL})
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()
	log.Printf("Database opened at %s", cfg.Database.Path)

	cat := catalogue.New(books.NewRepository(db.DB), catalogue.Options{
		DefaultTopLimit: cfg.Query.DefaultTopLimit,
	})

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return fmt.Errorf("failed to connect to Telegram: %w", err)
	}
	api.Debug = cfg.Telegram.Debug
	log.Printf("Telegram bot: authorized as @%s", api.Self.UserName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = cfg.Telegram.PollTimeout
	updates := api.GetUpdatesChan(updateConfig)

	return Serve(ctx, cfg, cat, api, updates, api.StopReceivingUpdates)
}

// Serve runs the bot loop over updates until ctx is done or the channel
// closes, then stops the scheduler within the configured shutdown timeout.
func Serve(ctx context.Context, cfg *config.Config, cat *catalogue.Catalogue, sender telegram.Sender,
	updates tgbotapi.UpdatesChannel, stopReceiving func()) error {

	var exportScheduler *scheduler.ExportScheduler
	if cfg.Export.ScheduleEnabled {
		if cfg.Export.Dir == "" {
			return fmt.Errorf("export schedule is enabled but EXPORT_DIR is not set")
		}
		exportScheduler = scheduler.NewExportScheduler(cat, exporters.NewMarkdownExporter(cfg.Export.Dir), cfg.Export.Schedule)
		// The scheduler is stopped below so that shutdown can be bounded
		if err := exportScheduler.Start(context.Background()); err != nil {
			return err
		}
	} else {
		log.Printf("Export scheduler: disabled")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return telegram.NewBot(sender, cat).Run(gctx, updates)
	})

	g.Go(func() error {
		<-gctx.Done()
		timeout := cfg.Global.ShutdownTimeout()
		log.Printf("Shutting down, waiting %v before giving up", timeout)

		if stopReceiving != nil {
			stopReceiving()
		}
		if exportScheduler != nil && exportScheduler.IsRunning() {
			log.Printf("Export scheduler: %s", exportStatus(exportScheduler))
			stopWithTimeout(exportScheduler.Stop, timeout)
		}
		return nil
	})

	err := g.Wait()
	log.Println("Bot exiting")
	return err
}

func stopWithTimeout(stop func(), timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		log.Printf("Export scheduler: did not stop within %v", timeout)
	}
}

// exportStatus summarises the pending and the latest export for the
// shutdown log.
func exportStatus(s *scheduler.ExportScheduler) string {
	var parts []string
	if next := s.GetNextRunTime(); next != nil {
		parts = append(parts, fmt.Sprintf("next run was due %s", next.Format(time.RFC3339)))
	}

	last := s.LastResult()
	switch {
	case last == nil:
		parts = append(parts, "no export ran this session")
	case last.Err != nil:
		parts = append(parts, fmt.Sprintf("last export at %s failed: %v", last.StartedAt.Format(time.RFC3339), last.Err))
	default:
		parts = append(parts, fmt.Sprintf("last export at %s wrote %d books (%d failed)",
			last.StartedAt.Format(time.RFC3339), last.Result.BooksProcessed, last.Result.BooksFailed))
	}
	return strings.Join(parts, ", ")
}

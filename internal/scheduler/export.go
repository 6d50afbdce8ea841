package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/exporters"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// BookSource is the read side of the catalogue used for exports.
type BookSource interface {
	GetAllBooks() ([]entities.Book, error)
}

// ExportScheduler periodically writes the catalogue to markdown.
type ExportScheduler struct {
	books    BookSource
	exporter exporters.BookExporter
	schedule string

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc

	runMu      sync.Mutex
	resultMu   sync.RWMutex
	lastResult *RunResult
}

// RunResult is the outcome of the most recent export run.
type RunResult struct {
	StartedAt time.Time
	Duration  time.Duration
	Result    exporters.ExportResult
	Err       error
}

func NewExportScheduler(books BookSource, exporter exporters.BookExporter, schedule string) *ExportScheduler {
	return &ExportScheduler{
		books:    books,
		exporter: exporter,
		schedule: schedule,
		cron:     cron.New(cron.WithParser(cronParser)),
	}
}

// Start schedules the export job. It stops on its own when ctx is cancelled.
func (s *ExportScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if err := ValidateCronSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.RunNow()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule export job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := GetNextRunTime(s.schedule)
	log.Printf("Export scheduler: started with schedule '%s' (%s). Next run: %v",
		s.schedule, GetCronDescription(s.schedule), nextRun)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running export to finish and stops the scheduler.
func (s *ExportScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	cancel := s.cancelFunc
	s.cancelFunc = nil
	entryID := s.entryID
	s.mu.Unlock()

	// Wait outside the lock, the running job records its result under s.resultMu
	<-s.cron.Stop().Done()
	s.cron.Remove(entryID)
	if cancel != nil {
		cancel()
	}

	log.Printf("Export scheduler: stopped")
}

func (s *ExportScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next export will occur
func (s *ExportScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// LastResult returns the outcome of the latest run, nil before the first one.
func (s *ExportScheduler) LastResult() *RunResult {
	s.resultMu.RLock()
	defer s.resultMu.RUnlock()
	return s.lastResult
}

// RunNow performs one export synchronously. Overlapping runs are serialised.
func (s *ExportScheduler) RunNow() RunResult {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	run := RunResult{StartedAt: time.Now()}
	defer func() {
		run.Duration = time.Since(run.StartedAt)
		s.resultMu.Lock()
		s.lastResult = &run
		s.resultMu.Unlock()
	}()

	books, err := s.books.GetAllBooks()
	if err != nil {
		run.Err = fmt.Errorf("failed to get books: %w", err)
		log.Printf("Export scheduler: %v", run.Err)
		return run
	}

	run.Result, run.Err = s.exporter.Export(books)
	if run.Err != nil {
		log.Printf("Export scheduler: export failed: %v", run.Err)
		return run
	}

	log.Printf("Export scheduler: exported %d books (%d failed) in %v",
		run.Result.BooksProcessed, run.Result.BooksFailed, time.Since(run.StartedAt).Round(time.Millisecond))
	return run
}

// ValidateCronSchedule validates a cron schedule string
func ValidateCronSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// GetCronDescription returns a human-readable description of a cron schedule
func GetCronDescription(schedule string) string {
	switch schedule {
	case "0 * * * *":
		return "Every hour at :00"
	case "*/15 * * * *":
		return "Every 15 minutes"
	case "*/30 * * * *":
		return "Every 30 minutes"
	case "0 */6 * * *":
		return "Every 6 hours"
	case "0 0 * * *":
		return "Daily at midnight"
	case "0 0 * * 0":
		return "Weekly on Sunday at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}

// GetNextRunTime calculates the next run time for a schedule
func GetNextRunTime(schedule string) (*time.Time, error) {
	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return nil, err
	}
	next := sched.Next(time.Now())
	return &next, nil
}

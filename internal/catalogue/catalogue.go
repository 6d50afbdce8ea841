// Package catalogue is the single entry point used by every front-end.
//
// It normalises raw front-end input (trimming, lower-casing enumerated
// names), delegates writes to the record store and reads to the search
// engine, and returns results or errors from the entities error taxonomy.
// Front-ends never talk to the store or the engine directly.
//
// # Usage
//
//	db, _ := database.NewDatabase(cfg.Database.Path)
//	cat := catalogue.New(books.NewRepository(db.DB), catalogue.Options{})
//	book, err := cat.AddBook("War and Peace", "Leo Tolstoy", "Novel", nil)
//	found, err := cat.SearchBooks("author", "tolstoy")
package catalogue

import (
	"fmt"
	"strings"

	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/search"
)

// Store is the record store the catalogue writes to and reads from.
type Store interface {
	AddWithRating(title, author, genre string, rating *float64) (uint, error)
	Get(id uint) (*entities.Book, error)
	ListAll() ([]entities.Book, error)
	Delete(id uint) (bool, error)
	SetRating(id uint, rating *float64) error
	IncrementPopularity(id uint) (int64, error)
	Count() (int64, error)
}

var _ Store = (*books.Repository)(nil)

type Options struct {
	// DefaultTopLimit is used by TopBooks when the caller passes 0.
	DefaultTopLimit int
}

type Catalogue struct {
	store           Store
	engine          *search.Engine
	defaultTopLimit int
}

func New(store Store, opts Options) *Catalogue {
	limit := opts.DefaultTopLimit
	if limit <= 0 {
		limit = search.DefaultTopLimit
	}
	return &Catalogue{
		store:           store,
		engine:          search.NewEngine(store),
		defaultTopLimit: limit,
	}
}

// DefaultTopLimit returns the limit TopBooks uses when none is given.
func (c *Catalogue) DefaultTopLimit() int {
	return c.defaultTopLimit
}

// AddBook validates and stores a new book and returns the stored record.
func (c *Catalogue) AddBook(title, author, genre string, rating *float64) (*entities.Book, error) {
	id, err := c.store.AddWithRating(strings.TrimSpace(title), strings.TrimSpace(author), strings.TrimSpace(genre), rating)
	if err != nil {
		return nil, err
	}
	return c.store.Get(id)
}

func (c *Catalogue) GetBook(id uint) (*entities.Book, error) {
	return c.store.Get(id)
}

// GetAllBooks lists the whole catalogue by ascending id.
func (c *Catalogue) GetAllBooks() ([]entities.Book, error) {
	return c.store.ListAll()
}

// SearchBooks runs a case-insensitive substring search on one field.
func (c *Catalogue) SearchBooks(field, query string) ([]entities.Book, error) {
	f, err := search.ParseField(normalizeName(field))
	if err != nil {
		return nil, err
	}
	return c.engine.Search(f, strings.TrimSpace(query))
}

// SearchBooksWithStats is SearchBooks plus a summary of the matches.
func (c *Catalogue) SearchBooksWithStats(field, query string) ([]entities.Book, search.Summary, error) {
	f, err := search.ParseField(normalizeName(field))
	if err != nil {
		return nil, search.Summary{}, err
	}
	return c.engine.SearchWithStats(f, strings.TrimSpace(query))
}

// TopBooks ranks books by metric. A zero limit selects the default limit.
func (c *Catalogue) TopBooks(metric string, limit int) ([]entities.Book, error) {
	m, err := search.ParseMetric(normalizeName(metric))
	if err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = c.defaultTopLimit
	}
	return c.engine.Top(m, limit)
}

// DeleteBook removes a book. It reports whether anything was removed.
func (c *Catalogue) DeleteBook(id uint) (bool, error) {
	return c.store.Delete(id)
}

// RateBook sets the rating of an existing book.
func (c *Catalogue) RateBook(id uint, rating float64) (*entities.Book, error) {
	if err := c.store.SetRating(id, &rating); err != nil {
		return nil, err
	}
	return c.store.Get(id)
}

// MarkRead records one more read of a book, feeding the popularity ranking.
func (c *Catalogue) MarkRead(id uint) (*entities.Book, error) {
	if _, err := c.store.IncrementPopularity(id); err != nil {
		return nil, err
	}
	return c.store.Get(id)
}

// Count returns the catalogue size.
func (c *Catalogue) Count() (int64, error) {
	return c.store.Count()
}

// ParseBookLine splits "Title | Author | Genre" input. Genre may be omitted.
func ParseBookLine(line string) (title, author, genre string, err error) {
	parts := strings.Split(line, "|")
	if len(parts) < 2 || len(parts) > 3 {
		return "", "", "", fmt.Errorf("book line %q: expected \"Title | Author | Genre\": %w", line, entities.ErrValidation)
	}
	title = strings.TrimSpace(parts[0])
	author = strings.TrimSpace(parts[1])
	if len(parts) == 3 {
		genre = strings.TrimSpace(parts[2])
	}
	if title == "" || author == "" {
		return "", "", "", fmt.Errorf("book line %q: title and author are required: %w", line, entities.ErrValidation)
	}
	return title, author, genre, nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

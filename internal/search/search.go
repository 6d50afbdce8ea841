// Package search answers read-only queries over the record store: field
// scoped substring search and top-N ranking by a numeric metric.
//
// Every call lists the store afresh, there is no cache. Matching uses
// Unicode case folding so non-Latin titles and authors compare the same
// way Latin ones do.
package search

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/mrlokans/bookshelf/internal/entities"
)

type Field string

const (
	FieldTitle  Field = "title"
	FieldAuthor Field = "author"
	FieldGenre  Field = "genre"
)

// Fields lists the searchable fields in display order.
var Fields = []Field{FieldTitle, FieldAuthor, FieldGenre}

type Metric string

const (
	MetricRating     Metric = "rating"
	MetricPopularity Metric = "popularity"
)

// Metrics lists the supported ranking metrics in display order.
var Metrics = []Metric{MetricRating, MetricPopularity}

// DefaultTopLimit is used by callers that do not pass an explicit limit.
const DefaultTopLimit = 10

// BookLister is the part of the record store the engine reads from.
type BookLister interface {
	ListAll() ([]entities.Book, error)
}

// Summary describes a search result set.
type Summary struct {
	Count         int
	Rated         int
	AverageRating *float64
	Genres        map[string]int
}

type Engine struct {
	store BookLister
}

func NewEngine(store BookLister) *Engine {
	return &Engine{store: store}
}

// ParseField validates a field name.
func ParseField(name string) (Field, error) {
	field := Field(name)
	for _, f := range Fields {
		if f == field {
			return field, nil
		}
	}
	return "", fmt.Errorf("search field %q: %w", name, entities.ErrInvalidField)
}

// ParseMetric validates a metric name.
func ParseMetric(name string) (Metric, error) {
	metric := Metric(name)
	for _, m := range Metrics {
		if m == metric {
			return metric, nil
		}
	}
	return "", fmt.Errorf("ranking metric %q: %w", name, entities.ErrInvalidMetric)
}

// Search returns the books whose field contains query, ignoring case,
// ordered by ascending id. An empty query matches every book.
func (e *Engine) Search(field Field, query string) ([]entities.Book, error) {
	if _, err := ParseField(string(field)); err != nil {
		return nil, err
	}

	all, err := e.store.ListAll()
	if err != nil {
		return nil, fmt.Errorf("search by %s: %w", field, err)
	}

	fold := cases.Fold()
	needle := fold.String(query)

	matches := []entities.Book{}
	for _, book := range all {
		if strings.Contains(fold.String(fieldValue(book, field)), needle) {
			matches = append(matches, book)
		}
	}

	sortByID(matches)
	return matches, nil
}

// SearchWithStats runs Search and summarises the matches.
func (e *Engine) SearchWithStats(field Field, query string) ([]entities.Book, Summary, error) {
	matches, err := e.Search(field, query)
	if err != nil {
		return nil, Summary{}, err
	}
	return matches, Summarize(matches), nil
}

// Top ranks books by metric, highest first. Books without a value for the
// metric are left out. Equal values keep ascending id order.
func (e *Engine) Top(metric Metric, limit int) ([]entities.Book, error) {
	if _, err := ParseMetric(string(metric)); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("top %s: limit %d must be positive: %w", metric, limit, entities.ErrValidation)
	}

	all, err := e.store.ListAll()
	if err != nil {
		return nil, fmt.Errorf("top %s: %w", metric, err)
	}

	ranked := []entities.Book{}
	for _, book := range all {
		if _, ok := metricValue(book, metric); ok {
			ranked = append(ranked, book)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		vi, _ := metricValue(ranked[i], metric)
		vj, _ := metricValue(ranked[j], metric)
		if vi != vj {
			return vi > vj
		}
		return ranked[i].ID < ranked[j].ID
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// Summarize derives counts and the average rating of a result set.
func Summarize(books []entities.Book) Summary {
	summary := Summary{
		Count:  len(books),
		Genres: make(map[string]int),
	}

	var total float64
	for _, book := range books {
		if book.Genre != "" {
			summary.Genres[book.Genre]++
		}
		if book.Rating != nil {
			summary.Rated++
			total += *book.Rating
		}
	}
	if summary.Rated > 0 {
		avg := total / float64(summary.Rated)
		summary.AverageRating = &avg
	}
	return summary
}

func fieldValue(book entities.Book, field Field) string {
	switch field {
	case FieldTitle:
		return book.Title
	case FieldAuthor:
		return book.Author
	case FieldGenre:
		return book.Genre
	}
	return ""
}

func metricValue(book entities.Book, metric Metric) (float64, bool) {
	switch metric {
	case MetricRating:
		if book.HasRating() {
			return *book.Rating, true
		}
	case MetricPopularity:
		if book.HasPopularity() {
			return float64(*book.Popularity), true
		}
	}
	return 0, false
}

func sortByID(books []entities.Book) {
	sort.SliceStable(books, func(i, j int) bool {
		return books[i].ID < books[j].ID
	})
}

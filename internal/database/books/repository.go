// Package books is the durable record store of the catalogue.
//
// The repository owns every Book row: it assigns ids, validates the
// mandatory fields and translates gorm failures into the catalogue error
// taxonomy (entities.ErrValidation, entities.ErrNotFound,
// entities.ErrStorage). Writes are serialised through a single mutex so
// two front-ends sharing one Repository never interleave partial updates.
//
// # Usage
//
//	db, err := database.NewDatabase("data/books.db")
//	repo := books.NewRepository(db.DB)
//	id, err := repo.Add("War and Peace", "Leo Tolstoy", "Novel")
//	book, err := repo.Get(id)
package books

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/entities"
)

const (
	MinRating = 0.0
	MaxRating = 10.0
)

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
	mu sync.Mutex
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Add stores a new unrated book and returns its id.
func (r *Repository) Add(title, author, genre string) (uint, error) {
	return r.AddWithRating(title, author, genre, nil)
}

// AddWithRating stores a new book. Title and author are trimmed and must be
// non-empty. The insert runs in a transaction so a failed create leaves no row.
func (r *Repository) AddWithRating(title, author, genre string, rating *float64) (uint, error) {
	book := entities.Book{
		Title:  strings.TrimSpace(title),
		Author: strings.TrimSpace(author),
		Genre:  strings.TrimSpace(genre),
	}
	if book.Title == "" {
		return 0, fmt.Errorf("add book: title is empty: %w", entities.ErrValidation)
	}
	if book.Author == "" {
		return 0, fmt.Errorf("add book %q: author is empty: %w", book.Title, entities.ErrValidation)
	}
	if rating != nil {
		if err := ValidateRating(*rating); err != nil {
			return 0, fmt.Errorf("add book %q: %w", book.Title, err)
		}
		value := *rating
		book.Rating = &value
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&book).Error
	})
	if err != nil {
		return 0, storageError("add book", err)
	}
	return book.ID, nil
}

// Get retrieves a book by its id.
func (r *Repository) Get(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Where("id = ?", id).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("get book %d: %w", id, entities.ErrNotFound)
	}
	if err != nil {
		return nil, storageError(fmt.Sprintf("get book %d", id), err)
	}
	return &book, nil
}

// ListAll returns every book ordered by ascending id.
func (r *Repository) ListAll() ([]entities.Book, error) {
	books := []entities.Book{}
	if err := r.db.Order("id ASC").Find(&books).Error; err != nil {
		return nil, storageError("list books", err)
	}
	if books == nil {
		books = []entities.Book{}
	}
	return books, nil
}

// Delete removes a book permanently. Deleting a missing id is not an error,
// the boolean reports whether a row was removed.
func (r *Repository) Delete(id uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := r.db.Where("id = ?", id).Delete(&entities.Book{})
	if result.Error != nil {
		return false, storageError(fmt.Sprintf("delete book %d", id), result.Error)
	}
	return result.RowsAffected > 0, nil
}

// SetRating assigns a rating to a book. A nil rating clears it.
func (r *Repository) SetRating(id uint, rating *float64) error {
	var value any = gorm.Expr("NULL")
	if rating != nil {
		if err := ValidateRating(*rating); err != nil {
			return fmt.Errorf("rate book %d: %w", id, err)
		}
		value = *rating
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	result := r.db.Model(&entities.Book{}).Where("id = ?", id).Update("rating", value)
	if result.Error != nil {
		return storageError(fmt.Sprintf("rate book %d", id), result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("rate book %d: %w", id, entities.ErrNotFound)
	}
	return nil
}

// IncrementPopularity bumps the read counter of a book and returns the new value.
func (r *Repository) IncrementPopularity(id uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var counters []int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entities.Book{}).Where("id = ?", id).
			Update("popularity", gorm.Expr("COALESCE(popularity, 0) + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&entities.Book{}).Where("id = ?", id).Pluck("popularity", &counters).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("mark book %d as read: %w", id, entities.ErrNotFound)
	}
	if err != nil {
		return 0, storageError(fmt.Sprintf("mark book %d as read", id), err)
	}
	if len(counters) == 0 {
		return 0, fmt.Errorf("mark book %d as read: %w", id, entities.ErrNotFound)
	}
	return counters[0], nil
}

// Count returns the number of stored books.
func (r *Repository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&entities.Book{}).Count(&count).Error; err != nil {
		return 0, storageError("count books", err)
	}
	return count, nil
}

// ValidateRating checks that a rating lies within [MinRating, MaxRating].
func ValidateRating(rating float64) error {
	if math.IsNaN(rating) || rating < MinRating || rating > MaxRating {
		return fmt.Errorf("rating %v outside %v..%v: %w", rating, MinRating, MaxRating, entities.ErrValidation)
	}
	return nil
}

func storageError(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, entities.ErrStorage)
}

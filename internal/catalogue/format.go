package catalogue

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/search"
)

// FormatBook renders a book on one line: `#3 "Title" by Author [Genre] ★ 8.5`.
func FormatBook(book entities.Book) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %q by %s", book.ID, book.Title, book.Author)
	if book.Genre != "" {
		fmt.Fprintf(&b, " [%s]", book.Genre)
	}
	if book.Rating != nil {
		fmt.Fprintf(&b, " ★ %s", FormatRating(*book.Rating))
	}
	if book.HasPopularity() {
		fmt.Fprintf(&b, " (read %d×)", *book.Popularity)
	}
	return b.String()
}

// FormatRating prints a rating without trailing zeros.
func FormatRating(rating float64) string {
	return strconv.FormatFloat(rating, 'f', -1, 64)
}

// FormatSummary renders a search summary on a few short lines.
func FormatSummary(summary search.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found: %d", summary.Count)
	if summary.AverageRating != nil {
		fmt.Fprintf(&b, "\nAverage rating: %.2f (%d rated)", *summary.AverageRating, summary.Rated)
	}
	if len(summary.Genres) > 0 {
		genres := make([]string, 0, len(summary.Genres))
		for genre := range summary.Genres {
			genres = append(genres, genre)
		}
		sort.Strings(genres)
		parts := make([]string, 0, len(genres))
		for _, genre := range genres {
			parts = append(parts, fmt.Sprintf("%s: %d", genre, summary.Genres[genre]))
		}
		fmt.Fprintf(&b, "\nGenres: %s", strings.Join(parts, ", "))
	}
	return b.String()
}

// UserMessage turns a catalogue error into a sentence safe to show a user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, entities.ErrInvalidField):
		return "Unknown search field. Use one of: title, author, genre."
	case errors.Is(err, entities.ErrInvalidMetric):
		return "Unknown ranking. Use one of: rating, popularity."
	case errors.Is(err, entities.ErrValidation):
		return "Invalid input: " + cause(err)
	case errors.Is(err, entities.ErrNotFound):
		return "Book not found."
	case errors.Is(err, entities.ErrStorage):
		return "The catalogue is unavailable right now, please try again later."
	default:
		return "Something went wrong, please try again."
	}
}

// cause strips the sentinel suffix from a wrapped validation error so the
// message keeps the operation and offending value only.
func cause(err error) string {
	msg := err.Error()
	return strings.TrimSuffix(msg, ": "+entities.ErrValidation.Error())
}

package entities

import "time"

// Book is a single catalogue record. Rating and Popularity stay nil until
// they are explicitly set, so ranking can tell "unrated" apart from zero.
type Book struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title      string    `gorm:"index;size:512;not null" json:"title"`
	Author     string    `gorm:"index;size:256;not null" json:"author"`
	Genre      string    `gorm:"index;size:128" json:"genre,omitempty"`
	Rating     *float64  `json:"rating,omitempty"`
	Popularity *int64    `json:"popularity,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}

// HasRating reports whether a rating was ever assigned.
func (b Book) HasRating() bool {
	return b.Rating != nil
}

// HasPopularity reports whether the book was ever marked as read.
func (b Book) HasPopularity() bool {
	return b.Popularity != nil && *b.Popularity > 0
}

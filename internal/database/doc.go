// Package database opens the sqlite file that holds the catalogue.
//
// # Architecture
//
//	database/
//	├── database.go      # Connection setup, schema creation
//	└── books/           # Record store: book CRUD, rating and popularity writes
//
// The parent directory of the database file is created on open and the
// books table is created if missing. There is no migration strategy beyond
// gorm's AutoMigrate.
//
// # Usage
//
//	db, err := database.NewDatabase("data/books.db")
//	repo := books.NewRepository(db.DB)
//	id, err := repo.Add("War and Peace", "Leo Tolstoy", "Novel")
//
// Failures to open or create the file are wrapped with entities.ErrStorage.
package database

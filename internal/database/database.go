package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// busyTimeoutMillis lets a second process sharing the file wait for the
// current writer instead of failing with SQLITE_BUSY.
const busyTimeoutMillis = 5000

type Options struct {
	// LogSQL enables gorm statement logging.
	LogSQL bool
}

type Database struct {
	DB   *gorm.DB
	Path string
}

func NewDatabase(dbPath string) (*Database, error) {
	return Open(dbPath, Options{})
}

func Open(dbPath string, opts Options) (*Database, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory %s: %v: %w", dir, err, entities.ErrStorage)
		}
	}

	logLevel := logger.Silent
	if opts.LogSQL {
		logLevel = logger.Info
	}

	dsn := fmt.Sprintf("%s?_busy_timeout=%d&_foreign_keys=on", dbPath, busyTimeoutMillis)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database %s: %v: %w", dbPath, err, entities.ErrStorage)
	}

	if err := db.AutoMigrate(&entities.Book{}); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("create schema in %s: %v: %w", dbPath, err, entities.ErrStorage)
	}

	if opts.LogSQL {
		log.Printf("Database initialized successfully at %s", dbPath)
	}

	return &Database{DB: db, Path: dbPath}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func closeQuietly(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

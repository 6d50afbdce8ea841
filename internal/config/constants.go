package config

const (
	// DefaultDatabasePath is where the catalogue lives unless DATABASE_PATH says otherwise
	DefaultDatabasePath = "data/books.db"

	// DefaultEnvFile is read on startup when present
	DefaultEnvFile = ".env"

	DefaultTopLimit       = 10
	DefaultExportSchedule = "0 * * * *"
)

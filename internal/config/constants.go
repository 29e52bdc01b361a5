package config

const (
	// DefaultDatabasePath is the default path for the SQLite catalog database
	DefaultDatabasePath = "./bookshelf.db"

	// DefaultPageSize is the number of books shown per list page
	DefaultPageSize = 10
)

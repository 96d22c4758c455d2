package config

const (
	// DefaultDatabasePath is the default path for the library database
	DefaultDatabasePath = "./bookstore.db"

	// DefaultConfigEnvVar names the environment variable holding the config file path
	DefaultConfigEnvVar = "BOOKSTORE_CONFIG"

	// FallbackAuthorID and FallbackCategoryID are seeded by the initial migrations and
	// used by the importer when a record does not name its authors or category.
	FallbackAuthorID   = 1
	FallbackCategoryID = 1
)

package config

import (
	"github.com/spf13/viper"
)

// Global configuration variables
var (
	// GoogleBooksAPIKey is the API key sent with Google Books requests.
	// Anonymous requests work but get a lower quota.
	GoogleBooksAPIKey string
	// FavoritesDBPath is the directory of the favorites database.
	FavoritesDBPath string
	// ExportDir is where favorites notes are written.
	ExportDir string
	// OverwriteFiles controls whether exported notes replace existing files
	OverwriteFiles bool
)

// InitConfig initializes the global configuration
func InitConfig() {
	// Set default values
	viper.SetDefault("GoogleBooksAPIKey", "")
	viper.SetDefault("FavoritesDBPath", "./favorites.db")
	viper.SetDefault("ExportDir", "./notes/")
	viper.SetDefault("OverwriteFiles", false)
	viper.SetDefault("cache.dbfile", "biblio_cache.db")
	viper.SetDefault("cache.ttl", "168h")

	// Get values from viper
	GoogleBooksAPIKey = viper.GetString("GoogleBooksAPIKey")
	FavoritesDBPath = viper.GetString("FavoritesDBPath")
	ExportDir = viper.GetString("ExportDir")
	OverwriteFiles = viper.GetBool("OverwriteFiles")
}

// SetOverwriteFiles sets the OverwriteFiles flag
func SetOverwriteFiles(overwrite bool) {
	OverwriteFiles = overwrite
}

package cmd

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/biblio/internal/config"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"
)

// CLI represents the complete command structure for the biblio application
type CLI struct {
	// Global flags
	APIKey  string `help:"Google Books API key (anonymous requests work with a lower quota)"`
	Verbose bool   `short:"v" help:"Enable debug logging"`

	// Cache flags
	CacheDBFile string `help:"Path to cache SQLite database file" default:"./biblio_cache.db"`
	CacheTTL    string `help:"Cache time-to-live duration (e.g., 168h for 7 days)" default:"168h"`

	// Favorites flags
	FavoritesDB string `help:"Path to the favorites database directory" default:"./favorites.db"`

	Search      SearchCmd      `cmd:"" help:"Search the book catalog"`
	Detail      DetailCmd      `cmd:"" help:"Show full details for a single volume"`
	Interactive InteractiveCmd `cmd:"" help:"Interactive search with live results"`
	Favorites   FavoritesCmd   `cmd:"" help:"Manage saved favorites"`
	Cache       CacheCmd       `cmd:"" help:"Manage the volume cache"`
}

// FavoritesCmd groups the favorites subcommands
type FavoritesCmd struct {
	List   FavoritesListCmd   `cmd:"" help:"List saved favorites"`
	Toggle FavoritesToggleCmd `cmd:"" help:"Add or remove a volume from favorites"`
	Clear  FavoritesClearCmd  `cmd:"" help:"Remove all favorites"`
	Export FavoritesExportCmd `cmd:"" help:"Export favorites as markdown notes"`
}

// CacheCmd groups the cache subcommands
type CacheCmd struct {
	Clear CacheClearCmd `cmd:"" help:"Remove cached volume data"`
}

// Execute runs the Kong-based CLI
func Execute() {
	var cli CLI

	ctx := kong.Parse(&cli,
		kong.Name("biblio"),
		kong.Description("A book catalog search tool backed by the Google Books API."),
		kong.UsageOnError(),
	)

	initLogging(cli.Verbose)
	initConfig()
	updateGlobalConfig(&cli)

	err := ctx.Run()
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetDefault("GoogleBooksAPIKey", "")
	viper.SetDefault("FavoritesDBPath", "./favorites.db")
	viper.SetDefault("ExportDir", "./notes/")
	viper.SetDefault("OverwriteFiles", false)

	// Cache defaults
	viper.SetDefault("cache.dbfile", "./biblio_cache.db")
	viper.SetDefault("cache.ttl", "168h") // 7 days

	// Enable environment variable support
	viper.AutomaticEnv()
	if err := viper.BindEnv("GoogleBooksAPIKey", "GOOGLE_BOOKS_API_KEY"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("Fatal error config file", "error", err)
			os.Exit(1)
		}
	}

	// Initialize global config
	config.InitConfig()
}

func updateGlobalConfig(cli *CLI) {
	if cli.APIKey != "" {
		config.GoogleBooksAPIKey = cli.APIKey
	}
	if cli.FavoritesDB != "" {
		config.FavoritesDBPath = cli.FavoritesDB
	}

	// Update cache config
	viper.Set("cache.dbfile", cli.CacheDBFile)
	viper.Set("cache.ttl", cli.CacheTTL)
}

func initLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	// Create a human-readable handler for logging
	handler := humanlog.NewHandler(os.Stderr, &humanlog.Options{
		Level: level,
	})

	// Set the default logger
	slog.SetDefault(slog.New(handler))
}

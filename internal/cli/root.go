package cli

import (
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/lazypower/resurface/internal/config"
	"github.com/lazypower/resurface/internal/journal"
	"github.com/lazypower/resurface/internal/store"
)

var (
	dbFlag     string
	configFlag string
)

var rootCmd = &cobra.Command{
	Use:   "resurface",
	Short: "Resurface highlights before you forget them",
	Long: "Resurface keeps a collection of highlights, scores how well each one has stuck,\n" +
		"and picks the next card to show so fading ideas come back around.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "Database path (default $RESURFACE_DB or ~/.resurface/resurface.db)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default ~/.resurface/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(recallCmd)
	rootCmd.AddCommand(commentCmd)
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(todayCmd)
}

// loadConfig reads the config file and lets --db win over it.
func loadConfig() (config.Config, error) {
	path := configFlag
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return config.Config{}, err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if dbFlag != "" {
		cfg.Database.Path = dbFlag
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path, err = store.DefaultDBPath()
		if err != nil {
			return cfg, fmt.Errorf("resolve db path: %w", err)
		}
	}
	return cfg, nil
}

// openJournal opens the configured database for CLI commands.
func openJournal() (*journal.Journal, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return journal.New(db, newRand()), nil
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

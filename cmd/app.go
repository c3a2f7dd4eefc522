package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/Karshmistry/CrimAII/internal/config"
	"github.com/Karshmistry/CrimAII/internal/database"
	"github.com/Karshmistry/CrimAII/internal/gallery"
	"github.com/spf13/cobra"

	// Record store backends register themselves by URL scheme.
	_ "github.com/Karshmistry/CrimAII/internal/database/mongo"
	_ "github.com/Karshmistry/CrimAII/internal/database/sqldb"
)

// openStore connects to the record store named by DATABASE_URL.
func openStore(ctx context.Context, cfg *config.Config) (database.Store, error) {
	slog.Info("connecting to database", "backend", database.Scheme(cfg.Database.URL))
	store, err := database.Open(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

// openGallery opens the reference image directory.
func openGallery(cfg *config.Config) (*gallery.Store, error) {
	g, err := gallery.New(cfg.Gallery)
	if err != nil {
		return nil, fmt.Errorf("failed to open gallery: %w", err)
	}
	return g, nil
}

// outputJSON writes data to stdout as indented JSON.
func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}

// mustGetString returns a string flag, panicking on an undefined flag.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

func mustGetInt(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Karshmistry/CrimAII/internal/cases"
	"github.com/Karshmistry/CrimAII/internal/config"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var importCmd = &cobra.Command{
	Use:   "import <manifest.yaml>",
	Short: "Register cases in bulk from a YAML manifest",
	Long: `Register every case listed in a YAML manifest. Image paths are resolved
relative to the manifest file.

Example manifest:

  cases:
    - name: John Doe
      age: "34"
      crime: Burglary
      image: photos/john.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().Bool("continue-on-error", true, "Keep importing after a failed entry")
	importCmd.Flags().Bool("json", false, "Output as JSON")
}

// ManifestEntry is one case in an import manifest.
type ManifestEntry struct {
	cases.Input `yaml:",inline"`
	Image       string `yaml:"image"`
}

// Manifest lists the cases to import.
type Manifest struct {
	Cases []ManifestEntry `yaml:"cases"`
}

// ImportFailure describes an entry that could not be registered.
type ImportFailure struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// ImportResult summarises an import run.
type ImportResult struct {
	Imported int             `json:"imported"`
	Failed   []ImportFailure `json:"failed,omitempty"`
}

// loadManifest parses a manifest and resolves image paths against its directory.
func loadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if len(m.Cases) == 0 {
		return nil, errors.New("manifest lists no cases")
	}

	base := filepath.Dir(path)
	for i := range m.Cases {
		img := m.Cases[i].Image
		if img != "" && !filepath.IsAbs(img) {
			m.Cases[i].Image = filepath.Join(base, img)
		}
	}
	return &m, nil
}

func importEntry(ctx context.Context, svc *cases.Service, e ManifestEntry) error {
	if e.Image == "" {
		return cases.ErrImageRequired
	}
	f, err := os.Open(e.Image)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = svc.Register(ctx, e.Input, f, filepath.Base(e.Image))
	return err
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()
	continueOnError := mustGetBool(cmd, "continue-on-error")
	jsonOutput := mustGetBool(cmd, "json")

	manifest, err := loadManifest(args[0])
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	g, err := openGallery(cfg)
	if err != nil {
		return err
	}
	svc := cases.NewService(g, store, nil, nil)

	var bar *progressbar.ProgressBar
	if !jsonOutput {
		fmt.Printf("Importing %d cases\n\n", len(manifest.Cases))
		bar = newProgressBar(len(manifest.Cases), "Registering cases", "cases")
	}

	var result ImportResult
	for i, e := range manifest.Cases {
		if err := importEntry(ctx, svc, e); err != nil {
			result.Failed = append(result.Failed, ImportFailure{Index: i, Name: e.Name, Error: err.Error()})
			if !continueOnError {
				break
			}
		} else {
			result.Imported++
		}
		if bar != nil {
			bar.Add(1)
		}
	}

	if jsonOutput {
		if err := outputJSON(result); err != nil {
			return err
		}
	} else {
		fmt.Printf("\n\nImported: %d\n", result.Imported)
		if len(result.Failed) > 0 {
			fmt.Printf("Failed:   %d\n", len(result.Failed))
			for _, f := range result.Failed {
				fmt.Printf("  #%d %s: %s\n", f.Index+1, f.Name, f.Error)
			}
		}
	}

	if len(result.Failed) > 0 {
		return fmt.Errorf("%d of %d cases failed to import", len(result.Failed), len(manifest.Cases))
	}
	return nil
}

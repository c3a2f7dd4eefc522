package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/Karshmistry/CrimAII/internal/config"
	"github.com/Karshmistry/CrimAII/internal/database"
	"github.com/Karshmistry/CrimAII/internal/matcher"
	"github.com/Karshmistry/CrimAII/internal/notify"
	"github.com/Karshmistry/CrimAII/internal/oracle"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match <probe-image>",
	Short: "Match a probe image against the gallery",
	Long: `Compare a probe image with every reference image in the gallery, in
filename order, and report the first one the verification oracle accepts.

A successful match is recorded as a detection unless --dry-run is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().String("source", "cli", "Source recorded on the detection")
	matchCmd.Flags().Bool("dry-run", false, "Report the match without recording a detection")
	matchCmd.Flags().Bool("json", false, "Output as JSON")
	matchCmd.Flags().Bool("notify", false, "Send configured notifications for a match")
}

// MatchOutput is the JSON form of a scan result.
type MatchOutput struct {
	Match           bool           `json:"match"`
	MatchedFilename string         `json:"matched_filename,omitempty"`
	Distance        float64        `json:"distance,omitempty"`
	Threshold       float64        `json:"threshold,omitempty"`
	Model           string         `json:"model,omitempty"`
	Recorded        bool           `json:"recorded"`
	Case            *database.Case `json:"case,omitempty"`
}

// readOnlyStore reads cases but discards detections.
type readOnlyStore struct {
	database.CaseReader
}

func (readOnlyStore) InsertDetection(context.Context, *database.Detection) error {
	return nil
}

func newMatchOutput(res *matcher.Result, dryRun bool) MatchOutput {
	out := MatchOutput{Match: res.Matched}
	if !res.Matched {
		return out
	}
	out.MatchedFilename = res.CandidateID
	out.Distance = res.Verdict.Distance
	out.Threshold = res.Verdict.Threshold
	out.Model = res.Verdict.Model
	out.Case = res.Case
	out.Recorded = res.Detection != nil && !dryRun
	return out
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	probe := args[0]
	source := mustGetString(cmd, "source")
	dryRun := mustGetBool(cmd, "dry-run")
	jsonOutput := mustGetBool(cmd, "json")

	if _, err := os.Stat(probe); err != nil {
		return fmt.Errorf("probe image: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	g, err := openGallery(cfg)
	if err != nil {
		return err
	}

	orc, err := oracle.New(&cfg.Oracle)
	if err != nil {
		return fmt.Errorf("failed to create verification oracle: %w", err)
	}
	if c, ok := orc.(interface{ Close() error }); ok {
		defer c.Close()
	}

	var target matcher.Store = store
	if dryRun {
		target = readOnlyStore{CaseReader: store}
	}

	var opts []matcher.Option
	if mustGetBool(cmd, "notify") && !dryRun {
		notifier, err := notify.FromConfig(&cfg.Notify, nil)
		if err != nil {
			return fmt.Errorf("failed to set up notifications: %w", err)
		}
		defer notifier.Close()
		opts = append(opts, matcher.WithNotifier(notifier))
	}

	m := matcher.New(g, orc, target, opts...)

	var bar *progressbar.ProgressBar
	var progress matcher.ProgressFunc
	if !jsonOutput {
		fmt.Printf("Matching %s using %s\n\n", probe, orc.Name())
		progress = func(done, total int) {
			if bar == nil {
				bar = newProgressBar(total, "Scanning gallery", "images")
			}
			bar.Set(done)
		}
	}

	res, err := m.MatchWithProgress(ctx, probe, source, progress)
	if bar != nil {
		bar.Finish()
		fmt.Println()
	}
	if err != nil {
		return fmt.Errorf("matching failed: %w", err)
	}

	out := newMatchOutput(res, dryRun)
	if jsonOutput {
		return outputJSON(out)
	}

	if !out.Match {
		fmt.Println("No match found")
		return nil
	}

	name := "Unknown"
	if out.Case != nil {
		name = out.Case.Name
	}
	fmt.Printf("Criminal Found: %s\n", name)
	fmt.Printf("  Image:     %s\n", out.MatchedFilename)
	fmt.Printf("  Distance:  %.4f (threshold %.4f, %s)\n", out.Distance, out.Threshold, out.Model)
	if out.Case != nil {
		fmt.Printf("  Crime:     %s\n", out.Case.Crime)
	}
	switch {
	case dryRun:
		fmt.Println("\nDry run: detection not recorded")
	case out.Recorded:
		fmt.Println("\nDetection recorded")
	}
	return nil
}

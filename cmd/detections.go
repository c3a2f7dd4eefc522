package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/Karshmistry/CrimAII/internal/config"
	"github.com/Karshmistry/CrimAII/internal/constants"
	"github.com/Karshmistry/CrimAII/internal/database"
	"github.com/spf13/cobra"
)

var detectionsCmd = &cobra.Command{
	Use:   "detections",
	Short: "List recorded detections",
	Long:  `Display the detection log, most recent first.`,
	RunE:  runDetections,
}

func init() {
	rootCmd.AddCommand(detectionsCmd)

	detectionsCmd.Flags().Int("limit", 0, "Show at most this many detections (0 = all)")
	detectionsCmd.Flags().Bool("json", false, "Output as JSON")
}

func runDetections(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()
	limit := mustGetInt(cmd, "limit")

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	dets, err := store.ListDetections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list detections: %w", err)
	}
	if limit > 0 && len(dets) > limit {
		dets = dets[:limit]
	}

	if mustGetBool(cmd, "json") {
		if dets == nil {
			dets = []database.Detection{}
		}
		return outputJSON(dets)
	}

	if len(dets) == 0 {
		fmt.Println("No detections found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DETECTED AT\tNAME\tCRIME\tSOURCE\tSTATUS")
	fmt.Fprintln(w, "-----------\t----\t-----\t------\t------")
	for i := range dets {
		d := &dets[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			d.DetectedAt.UTC().Format(constants.DisplayTimeLayout),
			d.CriminalName, d.CriminalDetails.Crime, d.Source, d.Status)
	}
	w.Flush()

	fmt.Printf("\nShowing %d detections\n", len(dets))
	return nil
}

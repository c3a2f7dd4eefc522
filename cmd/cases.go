package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/Karshmistry/CrimAII/internal/cases"
	"github.com/Karshmistry/CrimAII/internal/config"
	"github.com/Karshmistry/CrimAII/internal/constants"
	"github.com/Karshmistry/CrimAII/internal/database"
	"github.com/spf13/cobra"
)

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "Manage registered cases",
}

var casesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered cases",
	RunE:  runCasesList,
}

var casesDeleteCmd = &cobra.Command{
	Use:   "delete <image-filename>",
	Short: "Delete a case and its gallery image",
	Args:  cobra.ExactArgs(1),
	RunE:  runCasesDelete,
}

func init() {
	rootCmd.AddCommand(casesCmd)
	casesCmd.AddCommand(casesListCmd)
	casesCmd.AddCommand(casesDeleteCmd)

	casesListCmd.Flags().Bool("json", false, "Output as JSON")
}

func runCasesList(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	list, err := store.ListCases(ctx)
	if err != nil {
		return fmt.Errorf("failed to list cases: %w", err)
	}

	if mustGetBool(cmd, "json") {
		if list == nil {
			list = []database.Case{}
		}
		return outputJSON(list)
	}

	if len(list) == 0 {
		fmt.Println("No cases found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "IMAGE\tNAME\tCRIME\tREGISTERED")
	fmt.Fprintln(w, "-----\t----\t-----\t----------")
	for i := range list {
		c := &list[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ImageFilename, c.Name, c.Crime,
			c.CreatedAt.UTC().Format(constants.DisplayTimeLayout))
	}
	w.Flush()

	fmt.Printf("\nTotal: %d cases\n", len(list))
	return nil
}

func runCasesDelete(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

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
	if err := svc.Delete(ctx, args[0]); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("case %s not found", args[0])
		}
		return fmt.Errorf("failed to delete case: %w", err)
	}
	fmt.Printf("Deleted case %s\n", args[0])
	return nil
}

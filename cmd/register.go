package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Karshmistry/CrimAII/internal/cases"
	"github.com/Karshmistry/CrimAII/internal/config"
	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new case with its reference image",
	Long: `Copy a reference image into the gallery under a name derived from the
person's name and the registration time, and store the case record.`,
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)

	registerCmd.Flags().String("name", "", "Person's name (required)")
	registerCmd.Flags().String("image", "", "Path to the reference image (required)")
	registerCmd.Flags().String("age", "", "Age")
	registerCmd.Flags().String("father-name", "", "Father's name")
	registerCmd.Flags().String("gender", "", "Gender")
	registerCmd.Flags().String("blood-group", "", "Blood group")
	registerCmd.Flags().String("address", "", "Address")
	registerCmd.Flags().String("crime", "", "Crime")
	registerCmd.Flags().String("details", "", "Additional details")
	registerCmd.Flags().Bool("json", false, "Output as JSON")

	registerCmd.MarkFlagRequired("name")
	registerCmd.MarkFlagRequired("image")
}

func runRegister(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	in := cases.Input{
		Name:       mustGetString(cmd, "name"),
		Age:        mustGetString(cmd, "age"),
		FatherName: mustGetString(cmd, "father-name"),
		Gender:     mustGetString(cmd, "gender"),
		BloodGroup: mustGetString(cmd, "blood-group"),
		Address:    mustGetString(cmd, "address"),
		Crime:      mustGetString(cmd, "crime"),
		Details:    mustGetString(cmd, "details"),
	}
	imagePath := mustGetString(cmd, "image")

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	g, err := openGallery(cfg)
	if err != nil {
		return err
	}

	f, err := os.Open(imagePath)
	if err != nil {
		return fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	svc := cases.NewService(g, store, nil, nil)
	c, err := svc.Register(ctx, in, f, filepath.Base(imagePath))
	if err != nil {
		return fmt.Errorf("failed to register case: %w", err)
	}

	if mustGetBool(cmd, "json") {
		return outputJSON(c)
	}
	fmt.Printf("Criminal %s added successfully!\n", c.Name)
	fmt.Printf("  Image: %s\n", c.ImageFilename)
	return nil
}

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/msto63/vaani/internal/service"
	"github.com/msto63/vaani/pkg/core/health"
	"github.com/msto63/vaani/pkg/core/version"
	"github.com/spf13/cobra"
)

var doctorJSON bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check external tools and the language service",
	Long: `Checks that the OCR engine, the PDF tools, a local voice and the
language service are available. Exits non-zero when a required part is
missing.`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "print the report as JSON")

	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	registry := health.NewRegistry("vaani", version.Version)

	registry.Register(health.BinaryCheck("tesseract", "tesseract", true))
	registry.Register(health.BinaryCheck("pdfinfo", cfg.Capture.PdfinfoPath, false))
	registry.Register(health.BinaryCheck("pdftoppm", cfg.Capture.PdftoppmPath, false))
	if runtime.GOOS == "darwin" {
		registry.Register(health.BinaryCheck("local-voice", "say", false))
	} else {
		registry.Register(health.BinaryCheck("local-voice", "espeak-ng", false))
	}

	client := service.NewClient(service.Config{BaseURL: cfg.Service.BaseURL, Timeout: 10 * time.Second})
	registry.Register(health.ErrorCheck("language-service", client.HealthCheck))
	if cfg.Listen.Enabled {
		registry.Register(health.HTTPCheck("whisper", cfg.Listen.WhisperURL, 5*time.Second))
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()
	report := registry.Check(ctx)

	if doctorJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		fmt.Println("Vaani Doctor")
		fmt.Println("============")
		fmt.Println()
		for _, c := range report.Checks {
			mark := "✓"
			switch c.Status {
			case health.StatusDegraded:
				mark = "!"
			case health.StatusUnhealthy:
				mark = "✗"
			}
			fmt.Printf("  %s %-18s %s\n", mark, c.Name, c.Message)
		}
		fmt.Println()
		fmt.Printf("Overall: %s\n", report.Status)
	}

	if !report.Healthy() {
		return fmt.Errorf("required components are missing")
	}
	return nil
}

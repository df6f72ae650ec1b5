package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/rapidbounce/postfactory/config"
	"github.com/rapidbounce/postfactory/internal/pipeline"
	"github.com/rapidbounce/postfactory/internal/server"
	"github.com/rapidbounce/postfactory/internal/session"
	"github.com/rapidbounce/postfactory/internal/telemetry"
)

func generateCMD() *cobra.Command {
	var (
		cfgPath    string
		bookingURL string
		websiteURL string
	)
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Run the pipeline once and print the posts as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if bookingURL == "" {
				return fmt.Errorf("--booking-url is required")
			}
			cfg := config.LoadConfig(cfgPath)

			sessionLogger := log.New(os.Stderr, "[SESSION] ", log.LstdFlags)
			store := session.NewStore(cfg.Session, sessionLogger)

			tools, err := server.BuildTools(cfg)
			if err != nil {
				return err
			}

			orchLogger := log.New(os.Stderr, "[ORCH] ", log.LstdFlags)
			orch := pipeline.NewOrchestrator(cfg, orchLogger, telemetry.NewTelemetry(cfg.Telemetry), store, tools)

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.General.MaxProcessingTime)
			defer cancel()

			result, err := orch.Run(ctx, pipeline.RunInput{ListingURL: bookingURL, SiteURL: websiteURL})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	generate.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config/config.json)")
	generate.Flags().StringVar(&bookingURL, "booking-url", "", "hotel listing URL (required)")
	generate.Flags().StringVar(&websiteURL, "website-url", "", "hotel website URL (optional)")
	return generate
}

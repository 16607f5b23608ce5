package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/agenthands/districtlinker/internal/core/model"
	"github.com/agenthands/districtlinker/internal/logger"
	"github.com/agenthands/districtlinker/internal/server"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process one pipeline message in-process and print the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		msg, err := message()
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := logger.New(cfg.Telemetry.Environment)
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		components, err := server.NewComponents(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer components.Close(context.Background())

		store, err := components.Stores(msg)
		if err != nil {
			return err
		}
		report, err := components.Resolver.Process(ctx, store)
		if err != nil {
			return err
		}
		printReport(color.Output, report)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Configuration file (TOML)")
}

func printReport(w io.Writer, r *model.Report) {
	fmt.Fprintf(w, "%s %s (%s)\n", color.CyanString("Question:"), r.QuestionURI, r.Language)
	for _, o := range r.Outcomes {
		fmt.Fprintf(w, "  %s %q\n", o.Mention.ExternalID, o.Mention.TargetSubstring)
		if o.Region != nil {
			fmt.Fprintf(w, "    %s %s %s %q\n", color.GreenString(o.Region.Kind().String()), o.Region.Key(), o.Region.Direction(), o.Region.SurfaceForm())
		}
		for _, rel := range o.Related {
			fmt.Fprintf(w, "    %s %s %s %q\n", color.GreenString(rel.Kind().String()), rel.Key(), rel.Direction(), rel.SurfaceForm())
		}
		for _, err := range o.Errors {
			fmt.Fprintf(w, "    %s %s\n", color.RedString("error:"), err)
		}
	}
	for _, err := range r.Skipped {
		fmt.Fprintf(w, "  %s %s\n", color.YellowString("skipped:"), err)
	}
	for _, err := range r.WriteErrors {
		fmt.Fprintf(w, "  %s %s\n", color.RedString("write failed:"), err)
	}
	fmt.Fprintf(w, "%s %d of %d\n", color.CyanString("Written:"), r.Written, r.Records())
}

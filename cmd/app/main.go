package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/wristlog/internal"
	"github.com/starford/wristlog/internal/capture"
	"github.com/starford/wristlog/internal/daily"
	"github.com/starford/wristlog/internal/demux"
	"github.com/starford/wristlog/internal/models"
	"github.com/starford/wristlog/internal/protocol"
	"github.com/starford/wristlog/internal/recordservice"
	"github.com/starford/wristlog/internal/storage"
	pkgconfig "github.com/starford/wristlog/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func runMode(mode internal.Mode) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		opts := []internal.Option{
			internal.WithConfig(cfg),
			internal.WithMode(mode),
		}

		if err := internal.Run(ctx, opts...); err != nil {
			return fmt.Errorf("app run error: %w", err)
		}

		return nil
	}
}

func listDates(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	dates, err := storedDates(cfg.Store.Path, cmd.String("metric"))
	if err != nil {
		return err
	}
	for _, d := range dates {
		fmt.Println(d)
	}
	return nil
}

// storedDates lists the record dates of one metric in chronological order.
func storedDates(root, name string) ([]models.Date, error) {
	metric, err := recordservice.Metric(name)
	if err != nil {
		return nil, err
	}
	store, err := storage.NewFS(root)
	if err != nil {
		return nil, err
	}

	var dates []models.Date
	if metric == daily.HeartRate.Name {
		dates, err = daily.NewStore(daily.HeartRate, store).ListDates()
	} else {
		dates, err = daily.NewStore(daily.Steps, store).ListDates()
	}
	if err != nil {
		return nil, err
	}
	models.SortDates(dates)
	return dates, nil
}

func dumpCapture(_ context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		path = cfg.Capture.Path
	}
	if path == "" {
		return fmt.Errorf("capture: no file given and capture.path is not set")
	}

	r, err := capture.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	return capture.Replay(r, demux.Default, func(rep capture.Replayed) error {
		f := rep.Frame
		outcome := f.Outcome
		switch {
		case rep.Err != nil:
			outcome = "error: " + rep.Err.Error()
		case rep.Response != nil:
			outcome = fmt.Sprintf("%s %+v", protocol.Name(rep.Response), rep.Response)
		}
		fmt.Printf("%s %-3s %-14s %-40s %s\n",
			f.Time.Format("2006-01-02T15:04:05.000"), f.Direction, f.Endpoint, hex.EncodeToString(f.Data), outcome)
		return nil
	})
}

func main() {
	cmd := &cli.Command{
		Name:   "wristlog",
		Usage:  "Collect heart-rate and step history from an LS02 watch into daily records",
		Action: runMode(internal.ModeRun),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Connect to the watch, sync and serve the HTTP API",
				Action: runMode(internal.ModeRun),
			},
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API over stored records without a watch",
				Action: runMode(internal.ModeServe),
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: runMode(internal.ModeMCP),
			},
			{
				Name:  "dates",
				Usage: "Print the dates that have a record",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "metric",
						Aliases: []string{"m"},
						Usage:   "heart_rate or steps",
						Value:   "heart_rate",
					},
				},
				Action: listDates,
			},
			{
				Name:      "capture",
				Usage:     "Print a capture log, classifying every received buffer again",
				ArgsUsage: "[file]",
				Action:    dumpCapture,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// Command predict estimates the hiking time of GPX routes from the command line.
//
//	predict -i route.gpx [-model path] [-json] [-segments]
//	predict -submit a.gpx b.gpx
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"

	"github.com/samirrijal/trailpace/internal/adapters/gpx"
	"github.com/samirrijal/trailpace/internal/app"
	"github.com/samirrijal/trailpace/internal/core/domain"
	"github.com/samirrijal/trailpace/internal/pkg/config"
	"github.com/samirrijal/trailpace/internal/pkg/logging"
	"github.com/samirrijal/trailpace/internal/workflows"
)

func main() {
	input := flag.String("i", "", "GPX file to predict")
	modelPath := flag.String("model", "", "speed model artifact (overrides model.path)")
	name := flag.String("name", "", "route name (defaults to the GPX name)")
	asJSON := flag.Bool("json", false, "print the full outcome as JSON")
	segments := flag.Bool("segments", false, "print the per-segment table")
	submit := flag.Bool("submit", false, "run the routes through the Temporal workflow")
	flag.Parse()

	files := flag.Args()
	if *input != "" {
		files = append([]string{*input}, files...)
	}
	if len(files) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	cfg, err := config.Load("trailpace-cli")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *modelPath != "" {
		cfg.Model.Path = *modelPath
	}
	logger := logging.Setup(os.Stderr, cfg.Log.Level, "text")

	ctx := context.Background()

	if *submit {
		if err := submitRoutes(ctx, cfg, logger, files, *name); err != nil {
			log.Fatalf("submit: %v", err)
		}
		return
	}

	rt, err := app.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer rt.Close()

	failed := false
	for _, f := range files {
		outcome := predictFile(ctx, rt, f, *name)
		if !outcome.Success {
			failed = true
		}
		if *asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(outcome)
			continue
		}
		printOutcome(os.Stdout, f, outcome, *segments)
	}
	if failed {
		os.Exit(1)
	}
}

func predictFile(ctx context.Context, rt *app.Runtime, path, name string) domain.Outcome {
	r, err := gpx.ParseFile(path)
	if err != nil {
		return domain.NewOutcome(nil, domain.PredictionFailure(err.Error(), err))
	}
	if name == "" {
		name = routeName(r, path)
	}
	p, err := rt.Predictions.Predict(ctx, name, r.Points)
	if err != nil {
		slog.Warn("prediction failed", "file", path, "error", err)
	}
	return domain.NewOutcome(p, err)
}

func routeName(r *gpx.Route, path string) string {
	if r.Name != "" {
		return r.Name
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func printOutcome(w io.Writer, path string, o domain.Outcome, withSegments bool) {
	if !o.Success {
		fmt.Fprintf(w, "%s: %s (%s)\n", path, o.Error, o.ErrorKind)
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Route:\t%s\n", o.Name)
	fmt.Fprintf(tw, "Total time:\t%s\n", o.FormattedTime)
	fmt.Fprintf(tw, "Distance:\t%s\n", domain.FormatDistance(o.TotalDistanceKm))
	fmt.Fprintf(tw, "Elevation gain:\t%s\n", domain.FormatElevation(o.ElevationGainM))
	fmt.Fprintf(tw, "Elevation loss:\t%s\n", domain.FormatElevation(o.ElevationLossM))
	fmt.Fprintf(tw, "Average speed:\t%s\n", domain.FormatSpeed(o.AverageSpeedKmh))
	fmt.Fprintf(tw, "Model:\t%s\n", o.Model)
	_ = tw.Flush()

	if !withSegments {
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "km\telev m\tslope %\tkm/h\telapsed\t")
	for _, s := range o.Segments {
		fmt.Fprintf(tw, "%.2f\t%.0f\t%.1f\t%.2f\t%s\t\n",
			s.DistanceKm, s.ElevationM, s.SlopePercent, s.PredictedSpeedKmh, domain.FormatDuration(s.CumulativeTimeHours))
	}
	_ = tw.Flush()
	fmt.Fprintln(w)
}

func submitRoutes(ctx context.Context, cfg *config.Config, logger *slog.Logger, files []string, name string) error {
	input := workflows.PredictRoutesInput{}
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return err
		}
		route := workflows.RouteInput{GPX: data}
		if name != "" && len(files) == 1 {
			route.Name = name
		}
		input.Routes = append(input.Routes, route)
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    tlog.NewStructuredLogger(logger),
	})
	if err != nil {
		return fmt.Errorf("temporal client: %w", err)
	}
	defer c.Close()

	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "predict-routes-" + uuid.NewString(),
		TaskQueue: cfg.Temporal.TaskQueue,
	}, workflows.PredictRoutesWorkflow, input)
	if err != nil {
		return fmt.Errorf("start workflow: %w", err)
	}
	logger.Info("workflow started", "workflow_id", run.GetID(), "run_id", run.GetRunID(), "routes", len(files))

	var results []workflows.RouteResult
	if err := run.Get(ctx, &results); err != nil {
		return fmt.Errorf("workflow: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

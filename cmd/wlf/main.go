package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wlf-engine/wlf/pkg/api"
	"github.com/wlf-engine/wlf/pkg/component"
	"github.com/wlf-engine/wlf/pkg/config"
	"github.com/wlf-engine/wlf/pkg/log"
	"github.com/wlf-engine/wlf/pkg/metrics"
	"github.com/wlf-engine/wlf/pkg/router"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "wlf",
	Short: "wlf streams MySQL binlog rows through filters and replicators to Kafka, Redis, and Elasticsearch",
	Long: `wlf is a change-data-capture pipeline: a single binary that reads a
MySQL replication stream, runs it through configurable filter and
replicator transformers, and dispatches the resulting events to one or
more sinks.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"wlf version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(runCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the configured pipeline until interrupted",
	RunE:  runPipeline,
}

func init() {
	runCmd.Flags().StringP("config", "c", "", "path to a pipeline config file (.yaml/.yml or .properties)")
	runCmd.Flags().String("health-addr", ":8080", "address for the /health, /ready, and /metrics HTTP endpoints")
	_ = runCmd.MarkFlagRequired("config")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	healthAddr, err := cmd.Flags().GetString("health-addr")
	if err != nil {
		return err
	}

	pipeline, err := loadPipeline(path)
	if err != nil {
		return fmt.Errorf("load pipeline config %s: %w", path, err)
	}

	components, err := config.Build(pipeline)
	if err != nil {
		return fmt.Errorf("build pipeline components: %w", err)
	}
	if len(components) == 0 {
		return fmt.Errorf("pipeline config %s defines no components", path)
	}

	r := router.New()
	for _, c := range components {
		r.Register(c.ID(), c.Kind())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	healthServer := api.NewHealthServer()
	go func() {
		if err := healthServer.Start(healthAddr); err != nil {
			log.Logger.Warn().Err(err).Msg("health server stopped")
		}
	}()

	runComponents(ctx, r, components)
	return nil
}

// loadPipeline picks the YAML or Maxwell-properties loader by file
// extension: ".properties" is the legacy Maxwell format, everything else
// is parsed as this engine's native YAML schema.
func loadPipeline(path string) (*config.Pipeline, error) {
	if strings.EqualFold(filepath.Ext(path), ".properties") {
		return config.LoadProperties(path)
	}
	return config.LoadYAML(path)
}

// runComponents spawns one goroutine per component and waits for all of
// them to return. A component's own Run error is logged, and on exit that
// component's inbox is closed so a later PollEvent on it reports the
// terminal shutdown condition; sends to it from peers still succeed.
// There is no coordinated process-wide shutdown on a single component
// failure.
func runComponents(ctx context.Context, r *router.Router, components []component.Component) {
	var wg sync.WaitGroup
	wg.Add(len(components))

	for _, c := range components {
		metrics.RegisterComponent(c.ID(), true, "")
		go func(c component.Component) {
			defer wg.Done()
			defer r.Close(c.ID())

			logger := log.WithComponent(c.ID())
			if err := c.Run(ctx, r); err != nil && ctx.Err() == nil {
				metrics.UpdateComponent(c.ID(), false, err.Error())
				logger.Error().Err(err).Str("kind", c.Kind().String()).Msg("component exited with error")
				return
			}
			metrics.UpdateComponent(c.ID(), false, "stopped")
			logger.Info().Str("kind", c.Kind().String()).Msg("component stopped")
		}(c)
	}

	wg.Wait()
}

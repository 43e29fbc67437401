package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ironsheep/ad-template-matcher/internal/config"
	"github.com/ironsheep/ad-template-matcher/internal/httpapi"
	"github.com/ironsheep/ad-template-matcher/internal/logging"
	"github.com/ironsheep/ad-template-matcher/internal/matcher"
	"github.com/ironsheep/ad-template-matcher/internal/scoring"
	"github.com/ironsheep/ad-template-matcher/internal/server"
	"github.com/ironsheep/ad-template-matcher/internal/watch"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "template-matcher",
	Short: "template-matcher - analyze ad templates and pick the best one for an ad",
	Long: `template-matcher analyzes ad template images into a metadata cache
(photo slots and text capacity) and selects the cached template that best
fits an ad's photos and description.

Settings come from environment variables or a .env file:
  TEMPLATE_CACHE_PATH   cache file (default ./cache/layout_metadata.json)
  TEMPLATE_DIR          template image directory (default ./templates)
  DETECTOR_URL          layout detection service; offline heuristics if empty
  CLASSIFIER_URL        picture classification service; color heuristics if empty
  TEMPLATE_MATCHER_LOG_LEVEL=debug    Enable debug logging`,
	SilenceUsage: true,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the MCP protocol over stdin/stdout",
	Args:  cobra.NoArgs,
	RunE:  runMCP,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <template-name> <image>",
	Short: "Analyze a template image and cache its metadata",
	Args:  cobra.ExactArgs(2),
	RunE:  runAnalyze,
}

var selectCmd = &cobra.Command{
	Use:   "select <ad.json|->",
	Short: "Select the best cached template for an ad",
	Args:  cobra.ExactArgs(1),
	RunE:  runSelect,
}

var rankCmd = &cobra.Command{
	Use:   "rank <ad.json|->",
	Short: "Score every cached template for an ad",
	Args:  cobra.ExactArgs(1),
	RunE:  runRank,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached templates",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Analyze template images as they appear in the template directory",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "template-matcher %s\n", Version)
		fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
	},
}

var (
	logLevelFlag string
	addrFlag     string
	watchFlag    bool
	scanFlag     bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Override TEMPLATE_MATCHER_LOG_LEVEL (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "Listen address (default HTTP_ADDR or :8000)")
	serveCmd.Flags().BoolVar(&watchFlag, "watch", false, "Also watch the template directory")
	watchCmd.Flags().BoolVar(&scanFlag, "scan", false, "Analyze existing files before watching")
	rootCmd.AddCommand(mcpCmd, serveCmd, analyzeCmd, selectCmd, rankCmd, listCmd, watchCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration and builds the service. Logs go to stderr
// because stdout carries MCP traffic and command output.
func setup() (*config.Config, *matcher.Service, *logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	level := cfg.LogLevel
	if logLevelFlag != "" {
		level = logLevelFlag
	}
	log := logging.NewLogger("template-matcher", logging.ParseLevel(level))
	log.Debug("starting", "version", Version, "built", BuildTime, "commit", GitCommit)

	return cfg, buildService(cfg, log), log, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, svc, log, err := setup()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	server.Version = Version
	return server.New(svc, cfg.TemplateIDSuffix, log.With("mcp")).Run(ctx)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, svc, log, err := setup()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	if watchFlag {
		if err := os.MkdirAll(cfg.TemplateDir, 0o755); err != nil {
			return fmt.Errorf("create template dir: %w", err)
		}
		w := watch.New(cfg.TemplateDir, cfg.TemplateIDSuffix, cfg.WatchDebounce, svc, log.With("watch"))
		go func() {
			if err := w.Run(ctx); err != nil {
				log.Error("watcher stopped", "error", err)
			}
		}()
	}

	addr := cfg.HTTPAddr
	if addrFlag != "" {
		addr = addrFlag
	}
	api := httpapi.New(svc, httpapi.Options{
		TemplateDir:    cfg.TemplateDir,
		IDSuffix:       cfg.TemplateIDSuffix,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, log.With("http"))
	return api.ListenAndServe(ctx, addr)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, svc, _, err := setup()
	if err != nil {
		return err
	}
	id := matcher.TemplateID(args[0], cfg.TemplateIDSuffix)
	analysis, err := svc.AnalyzeFile(cmd.Context(), id, args[1])
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), analysis)
}

func runSelect(cmd *cobra.Command, args []string) error {
	_, svc, _, err := setup()
	if err != nil {
		return err
	}
	ad, err := readAd(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}
	best, err := svc.Select(cmd.Context(), ad)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), map[string]interface{}{
		"selected_template": best.TemplateID,
		"score":             best.Score,
	})
}

func runRank(cmd *cobra.Command, args []string) error {
	_, svc, _, err := setup()
	if err != nil {
		return err
	}
	ad, err := readAd(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}
	results, err := svc.Rank(cmd.Context(), ad)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), results)
}

func runList(cmd *cobra.Command, args []string) error {
	_, svc, _, err := setup()
	if err != nil {
		return err
	}
	snap, err := svc.Templates()
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), snap.Entries())
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, svc, log, err := setup()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	if err := os.MkdirAll(cfg.TemplateDir, 0o755); err != nil {
		return fmt.Errorf("create template dir: %w", err)
	}
	w := watch.New(cfg.TemplateDir, cfg.TemplateIDSuffix, cfg.WatchDebounce, svc, log.With("watch"))
	if scanFlag {
		n, err := w.ScanExisting(ctx)
		if err != nil {
			return err
		}
		log.Info("initial scan complete", "analyzed", n)
	}
	return w.Run(ctx)
}

// readAd decodes ad content from a file, or from stdin when path is "-".
func readAd(path string, stdin io.Reader) (scoring.AdContent, error) {
	var ad scoring.AdContent

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return ad, fmt.Errorf("read ad content: %w", err)
	}
	if err := json.Unmarshal(data, &ad); err != nil {
		return ad, fmt.Errorf("parse ad content %s: %w", path, err)
	}
	return ad, nil
}

func printJSON(w io.Writer, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

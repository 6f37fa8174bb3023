package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/chriscorrea/rusrime/internal/app"
	"github.com/chriscorrea/rusrime/internal/config"
	"github.com/chriscorrea/rusrime/internal/corpus"
	"github.com/chriscorrea/rusrime/internal/fetch"
	"github.com/chriscorrea/rusrime/internal/report"
	"github.com/chriscorrea/rusrime/internal/spinner"
	"github.com/chriscorrea/rusrime/internal/store"
)

var (
	v         = config.NewViper()
	configErr error
)

// options are the per-invocation settings that do not live in config.Config.
type options struct {
	word      string
	output    string
	group     bool
	quiet     bool
	debug     bool
	noHistory bool
}

// buildConfig loads the layered configuration and applies flag overrides
func buildConfig(cmd *cobra.Command, args []string) (config.Config, options, error) {
	if configErr != nil {
		return config.Config{}, options{}, configErr
	}

	cfg, err := config.Load(v)
	if err != nil {
		return config.Config{}, options{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("max-pages") {
		cfg.Corpus.MaxPages, _ = flags.GetInt("max-pages")
	}
	if flags.Changed("headless") {
		cfg.Corpus.Headless, _ = flags.GetBool("headless")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, options{}, err
	}

	var opts options
	if len(args) > 0 {
		opts.word = args[0]
	}
	opts.output, _ = flags.GetString("output")
	opts.group, _ = flags.GetBool("group")
	opts.quiet, _ = flags.GetBool("quiet")
	opts.debug, _ = flags.GetBool("debug")
	opts.noHistory, _ = flags.GetBool("no-history")

	return cfg, opts, nil
}

// setupLogger configures the default slog logger based on debug mode
func setupLogger(debug bool) {
	var level slog.Level
	if debug {
		level = slog.LevelDebug
	} else {
		level = slog.LevelError
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

// initConfig reads the config file named by --config or found in the
// default locations.
func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	used, err := config.ReadFile(v, cfgFile)
	if err != nil {
		configErr = err
		return
	}
	if used != "" {
		slog.Debug("Using config file", "path", used)
	}
}

var rootCmd = &cobra.Command{
	Use:   "rusrime WORD",
	Short: "Find rhymes for a Russian word in the poetic corpus",
	Long: `Rusrime searches the poetic subcorpus of the Russian National Corpus for
poems that end a line with WORD and lists the words and phrases the poets
rhymed with it.

Examples:
  rusrime кошка
  rusrime кошка -o rhymes.csv
  rusrime кошка --group --max-pages 3
  rusrime match кошка saved/*.html
  rusrime history кошка`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, opts, err := buildConfig(cmd, args)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		// configure logging pending debug flag
		setupLogger(opts.debug)

		// create context with signal handling for graceful shutdown
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		driver := corpus.New(cfg)
		defer func() {
			if err := driver.Close(); err != nil {
				slog.Debug("Failed to close browser", "error", err)
			}
		}()

		return search(ctx, cfg, opts, driver, app.Run)
	},
}

var matchCmd = &cobra.Command{
	Use:   "match WORD [sources...]",
	Short: "Find rhymes in saved poem pages, URLs, or standard input",
	Long: `Match runs the rhyme search on poem pages that were saved earlier. Sources
may be local HTML files, URLs, or "-" for standard input; with no sources the
page is read from standard input.

Examples:
  rusrime match кошка poem1.html poem2.html
  rusrime match кошка https://example.com/poem.html
  cat poem.html | rusrime match кошка`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, opts, err := buildConfig(cmd, args)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		setupLogger(opts.debug)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		sources := args[1:]
		if len(sources) == 0 {
			sources = []string{"-"}
		}

		return search(ctx, cfg, opts, fetch.NewFileSource(sources, cfg), app.Match)
	},
}

var historyCmd = &cobra.Command{
	Use:           "history WORD",
	Short:         "Show rhymes stored from earlier searches",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, opts, err := buildConfig(cmd, args)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		setupLogger(opts.debug)

		word, err := app.ValidateWord(opts.word)
		if err != nil {
			return err
		}
		if cfg.Store.Path == "" {
			return fmt.Errorf("history is disabled: store.path is empty")
		}

		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer st.Close()

		searches, err := st.History(cmd.Context(), word)
		if err != nil {
			return fmt.Errorf("failed to read history: %w", err)
		}
		return printHistory(os.Stdout, searches, opts.group)
	},
}

// runner collects results for a word from a source.
type runner func(ctx context.Context, cfg app.Config, src app.Source) ([]app.Result, error)

// search runs one search with a progress spinner, stores it in the history
// and writes the results.
func search(ctx context.Context, cfg config.Config, opts options, src app.Source, run runner) error {
	var sp *spinner.Spinner
	if !opts.quiet && spinner.Enabled(os.Stderr) {
		sp = spinner.New(ctx, os.Stderr, "Searching the corpus...")
		sp.Start()
		defer sp.Stop()
	}

	started := time.Now()
	results, err := run(ctx, app.Config{
		Word:      opts.word,
		Selectors: cfg.Selectors,
		Workers:   cfg.Workers,
		Quiet:     opts.quiet,
		Progress: func(p app.Progress) {
			if sp != nil {
				sp.Updatef("Searching: %d poems read, %d rhymes found", p.Poems, p.Rhymes)
			}
		},
	}, src)
	if sp != nil {
		sp.Stop()
	}
	if err != nil {
		if len(results) == 0 {
			return err
		}
		// keep what was found before the failure
		if !opts.quiet {
			fmt.Fprintf(os.Stderr, "Warning: search stopped early: %v\n", err)
		}
	}

	if !opts.noHistory && cfg.Store.Path != "" {
		saveHistory(cfg.Store.Path, opts, started, results)
	}

	if opts.output != "" {
		if err := report.Save(opts.output, report.Order(results, opts.group)); err != nil {
			return err
		}
		if !opts.quiet {
			fmt.Fprintf(os.Stderr, "Saved %d rhymes to %s\n", len(results), opts.output)
		}
	}

	return report.Table(os.Stdout, results, report.OptionsFor(os.Stdout, opts.group))
}

func saveHistory(path string, opts options, started time.Time, results []app.Result) {
	word, err := app.ValidateWord(opts.word)
	if err != nil {
		return
	}

	st, err := store.Open(path)
	if err != nil {
		if !opts.quiet {
			fmt.Fprintf(os.Stderr, "Warning: failed to open history: %v\n", err)
		}
		return
	}
	defer st.Close()

	// history is written even after cancellation so partial searches survive
	if _, err := st.SaveSearch(context.Background(), word, started, results); err != nil && !opts.quiet {
		fmt.Fprintf(os.Stderr, "Warning: failed to save history: %v\n", err)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./rusrime.yaml or ~/.config/rusrime/config.yaml)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress warnings and the progress spinner")
	rootCmd.PersistentFlags().BoolP("debug", "D", false, "Enable debug logging")
	_ = rootCmd.PersistentFlags().MarkHidden("debug")
	rootCmd.PersistentFlags().Bool("group", false, "List inflected forms of the same rhyme together")

	for _, cmd := range []*cobra.Command{rootCmd, matchCmd} {
		cmd.Flags().StringP("output", "o", "", "Also save results to a file (.csv, .yaml or .yml)")
		cmd.Flags().Bool("no-history", false, "Do not record this search in the history database")
	}

	rootCmd.Flags().Int("max-pages", 0, "Stop after this many result pages (0 reads all)")
	rootCmd.Flags().Bool("headless", true, "Run the browser without a window")
	matchCmd.Flags().Int("workers", 0, "Number of pages analyzed concurrently (default from config)")

	rootCmd.AddCommand(matchCmd, historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/scrapescript-lang/scrapescript/browser"
	"github.com/scrapescript-lang/scrapescript/compiler/lexer"
	"github.com/scrapescript-lang/scrapescript/compiler/parser"
	"github.com/scrapescript-lang/scrapescript/internal/cli/config"
	"github.com/scrapescript-lang/scrapescript/internal/cli/ui"
	"github.com/scrapescript-lang/scrapescript/internal/feed"
	"github.com/scrapescript-lang/scrapescript/internal/output"
	"github.com/scrapescript-lang/scrapescript/interpreter"
)

var (
	runBrowser  string
	runHeadless bool
	runOutput   string
	runFeed     string
	runVerbose  bool
)

func init() {
	runCmd.Flags().StringVar(&runBrowser, "browser", "", "Browser driver to use (overrides config)")
	runCmd.Flags().BoolVar(&runHeadless, "headless", true, "Run the browser in headless mode")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "Output file path (.json, .csv, .db)")
	runCmd.Flags().StringVar(&runFeed, "feed", "", "Tabular input file (.csv or .json) for data_schema runs")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Log per-statement progress")
}

var runCmd = &cobra.Command{
	Use:   "run <script>",
	Short: "Run a ScrapeScript file",
	Long:  "Tokenize, parse and execute a ScrapeScript file against a browser driver",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scriptPath := args[0]

		cfg, err := config.Load()
		if err != nil {
			fmt.Fprint(os.Stderr, ui.ConfigError(err.Error(), false))
			os.Exit(1)
		}

		source, err := os.ReadFile(scriptPath)
		if err != nil {
			return fmt.Errorf("failed to read script: %w", err)
		}

		// Front end: abort before touching the browser on any syntax error.
		if errorList := compileErrors(string(source), scriptPath); errorList.HasErrors() {
			for _, compileErr := range errorList {
				fmt.Fprint(os.Stderr, ui.SyntaxError(compileErr, string(source), false))
			}
			os.Exit(1)
		}

		tokens, _ := lexer.New(string(source)).ScanTokens()
		program, err := parser.New(tokens).Parse()
		if err != nil {
			return err
		}

		logger, err := buildLogger(cfg.Log.Level, runVerbose)
		if err != nil {
			return err
		}
		defer logger.Sync()

		driver, err := buildDriver(cfg)
		if err != nil {
			fmt.Fprint(os.Stderr, ui.ConfigError(err.Error(), false))
			os.Exit(1)
		}

		headless := cfg.Browser.Headless
		if cmd.Flags().Changed("headless") {
			headless = runHeadless
		}

		opts := interpreter.Options{
			Headless: headless,
			WhileCap: cfg.Run.WhileCap,
		}
		if runFeed != "" {
			records, err := feed.Load(runFeed)
			if err != nil {
				return err
			}
			opts.Feed = toFeedMaps(records)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		in := interpreter.New(program, driver, logger, opts)
		rows, runErr := in.Execute(ctx)

		// A failed run still reports the rows accumulated so far.
		if err := output.WriteJSON(os.Stdout, rows); err != nil {
			return err
		}

		outputPath := runOutput
		if outputPath == "" {
			outputPath = cfg.Output.Path
		}
		if outputPath != "" {
			if err := output.Write(outputPath, rows); err != nil {
				return err
			}
			ui.WriteSuccess(os.Stderr, fmt.Sprintf("saved %d rows to %s", len(rows), outputPath), false)
		}

		if runErr != nil {
			var scriptErr *interpreter.ScriptError
			if errors.As(runErr, &scriptErr) {
				fmt.Fprint(os.Stderr, ui.ScriptError(scriptErr.Message, false))
			} else {
				fmt.Fprintln(os.Stderr, runErr)
			}
			os.Exit(1)
		}

		return nil
	},
}

// buildLogger constructs the run's console logger; --verbose forces debug
func buildLogger(level string, verbose bool) (*zap.Logger, error) {
	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if verbose {
		zapLevel = zapcore.DebugLevel
	}

	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(zapLevel)
	zapCfg.OutputPaths = []string{"stderr"}
	zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.TimeOnly)
	return zapCfg.Build()
}

// buildDriver constructs the configured browser driver. The chromedp driver
// takes its click timeout from config; other drivers come from the registry
// as-is.
func buildDriver(cfg *config.Config) (browser.Automation, error) {
	impl := cfg.Browser.Impl
	if runBrowser != "" {
		impl = runBrowser
	}

	if impl == "chromedp" {
		timeout := time.Duration(cfg.Browser.ClickTimeoutMS) * time.Millisecond
		return browser.NewChromedp(timeout), nil
	}
	return browser.New(impl)
}

// toFeedMaps converts feed records to the interpreter's plain-map form
func toFeedMaps(records []feed.Record) []map[string]string {
	out := make([]map[string]string, len(records))
	for i, record := range records {
		out[i] = record
	}
	return out
}

// Command phonoscore scores recorded pronunciation attempts against a
// reference text and serves practice sentences.
//
// Usage:
//
//	phonoscore score  [flags] -text "the cat sat" attempt.wav
//	phonoscore batch  [flags] -manifest attempts.yaml
//	phonoscore sample [flags] -lang en -category 1
//	phonoscore import-samples [flags] -lang en -csv data_en.csv
//	phonoscore check  [flags] [-stt]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrWong99/phonoscore/internal/app"
	"github.com/MrWong99/phonoscore/internal/config"
	"github.com/MrWong99/phonoscore/internal/health"
	"github.com/MrWong99/phonoscore/internal/observe"
	"github.com/MrWong99/phonoscore/internal/sample"
	"github.com/MrWong99/phonoscore/internal/scoring"
	"github.com/MrWong99/phonoscore/pkg/audio"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	if len(args) == 0 {
		usage()
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd, rest := args[0], args[1:]; cmd {
	case "score":
		err = runScore(ctx, rest, stdout)
	case "batch":
		err = runBatch(ctx, rest, stdout)
	case "sample":
		err = runSample(ctx, rest, stdout)
	case "import-samples":
		err = runImport(ctx, rest, stdout)
	case "check":
		err = runCheck(ctx, rest, stdout)
	case "-h", "-help", "--help", "help":
		usage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "phonoscore: unknown command %q\n", cmd)
		usage()
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(os.Stderr, "phonoscore: %v\n", err)
		return 2
	default:
		slog.Error("command failed", "command", args[0], "err", err)
		return 1
	}
}

var errUsage = errors.New("usage")

func usage() {
	fmt.Fprint(os.Stderr, `usage: phonoscore <command> [flags]

commands:
  score           score one WAV recording against a reference text
  batch           score every attempt listed in a YAML manifest
  sample          print a random practice sentence with its IPA
  import-samples  load a sentence CSV into the PostgreSQL sample store
  check           verify phonemizers, sample stores and (optionally) STT

Run "phonoscore <command> -h" for the flags of a command.
`)
}

// ── Shared flags ─────────────────────────────────────────────────────────────

// common holds the flags every command accepts.
type common struct {
	configPath  string
	metricsFile string
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "phonoscore.yaml", "path to the YAML configuration file")
	fs.StringVar(&c.metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit (node-exporter textfile format)")
}

// env is the runtime a command works in.
type env struct {
	app   *app.App
	close func() error
}

// setup loads the config, installs the logger and the telemetry providers,
// and builds the application.
func setup(ctx context.Context, c common) (*env, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file %q not found, copy configs/example.yaml to get started: %w", c.configPath, err)
		}
		return nil, err
	}
	slog.SetDefault(newLogger(cfg.Log))

	prov, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
	if err != nil {
		return nil, err
	}
	metrics, err := observe.NewMetrics(prov.MeterProvider)
	if err != nil {
		_ = prov.Shutdown(ctx)
		return nil, err
	}

	reg := config.NewRegistry()
	registerBuiltinProviders(reg, metrics)

	application, err := app.New(ctx, cfg, reg, app.WithMetrics(metrics))
	if err != nil {
		_ = prov.Shutdown(ctx)
		return nil, err
	}

	slog.Debug("phonoscore ready",
		"version", version,
		"config", c.configPath,
		"stt", cfg.Providers.STT.Name,
		"languages", application.Languages(),
	)

	return &env{
		app: application,
		close: func() error {
			errs := []error{application.Close()}
			if c.metricsFile != "" {
				errs = append(errs, prov.WriteTextfile(c.metricsFile))
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			errs = append(errs, prov.Shutdown(shutdownCtx))
			return errors.Join(errs...)
		},
	}, nil
}

// ── score ────────────────────────────────────────────────────────────────────

func runScore(ctx context.Context, args []string, stdout io.Writer) (err error) {
	fs := flag.NewFlagSet("score", flag.ContinueOnError)
	var c common
	c.register(fs)
	lang := fs.String("lang", "en", "language code of the attempt")
	text := fs.String("text", "", "reference text the speaker read (required)")
	format := fs.String("format", formatJSON, "output format: json or legacy")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || *text == "" {
		return fmt.Errorf("%w: phonoscore score -text <reference> <attempt.wav>", errUsage)
	}
	if err := checkFormat(*format); err != nil {
		return err
	}

	clip, err := audio.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}

	e, err := setup(ctx, c)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, e.close()) }()

	res, err := e.app.Evaluate(ctx, *lang, clip, *text)
	if err != nil {
		return err
	}
	return writeJSON(stdout, render(res, *format))
}

// ── sample ───────────────────────────────────────────────────────────────────

func runSample(ctx context.Context, args []string, stdout io.Writer) (err error) {
	fs := flag.NewFlagSet("sample", flag.ContinueOnError)
	var c common
	c.register(fs)
	lang := fs.String("lang", "en", "language code")
	cat := fs.Int("category", 0, "difficulty: 0 any, 1 easy, 2 medium, 3 hard")
	if err := fs.Parse(args); err != nil {
		return err
	}
	category := sample.Category(*cat)
	if !category.Valid() {
		return fmt.Errorf("%w: -category must be between 0 and 3", errUsage)
	}

	e, err := setup(ctx, c)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, e.close()) }()

	s, err := e.app.Sample(ctx, *lang, category)
	if err != nil {
		return err
	}
	return writeJSON(stdout, s)
}

// ── import-samples ───────────────────────────────────────────────────────────

func runImport(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("import-samples", flag.ContinueOnError)
	var c common
	c.register(fs)
	lang := fs.String("lang", "", "language code of the sentences (required)")
	csvPath := fs.String("csv", "", "';'-delimited CSV file with a sentence column (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *lang == "" || *csvPath == "" {
		return fmt.Errorf("%w: phonoscore import-samples -lang <code> -csv <file>", errUsage)
	}

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	slog.SetDefault(newLogger(cfg.Log))
	if cfg.Samples.PostgresDSN == "" {
		return errors.New("samples.postgres_dsn is not configured")
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		return err
	}
	defer f.Close()
	sentences, err := sample.ReadCSV(f)
	if err != nil {
		return fmt.Errorf("read %q: %w", *csvPath, err)
	}

	store, err := sample.OpenPostgres(ctx, cfg.Samples.PostgresDSN)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Insert(ctx, *lang, sentences...)
	if err != nil {
		return err
	}
	slog.Info("sample sentences imported", "language", *lang, "read", len(sentences), "inserted", n)
	_, err = fmt.Fprintf(stdout, "imported %d of %d sentences\n", n, len(sentences))
	return err
}

// ── check ────────────────────────────────────────────────────────────────────

var errCheckFailed = errors.New("readiness check failed")

func runCheck(ctx context.Context, args []string, stdout io.Writer) (err error) {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	var c common
	c.register(fs)
	checkSTT := fs.Bool("stt", false, "also send a short test tone to the speech recognizer")
	timeout := fs.Duration("timeout", health.DefaultTimeout, "time limit of each check")
	if err := fs.Parse(args); err != nil {
		return err
	}

	e, err := setup(ctx, c)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, e.close()) }()

	rep := health.New(e.app.Checkers(*checkSTT)...).WithTimeout(*timeout).Run(ctx)
	if err := writeJSON(stdout, rep); err != nil {
		return err
	}
	if !rep.OK() {
		return errCheckFailed
	}
	return nil
}

// ── Output ───────────────────────────────────────────────────────────────────

const (
	formatJSON   = "json"
	formatLegacy = "legacy"
)

func checkFormat(f string) error {
	if f != formatJSON && f != formatLegacy {
		return fmt.Errorf("%w: -format must be %q or %q", errUsage, formatJSON, formatLegacy)
	}
	return nil
}

// render returns res in the requested output format.
func render(res *scoring.Result, format string) any {
	if format == formatLegacy {
		return app.Legacy(res)
	}
	return res
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// ── Logger ───────────────────────────────────────────────────────────────────

func newLogger(cfg config.LogConfig) *slog.Logger {
	var lvl slog.Level
	switch cfg.Level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if cfg.Format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/MrWong99/phonoscore/internal/app"
	"github.com/MrWong99/phonoscore/internal/scoring"
	"github.com/MrWong99/phonoscore/pkg/audio"
)

// manifest lists the attempts scored by the batch command.
type manifest struct {
	// Language is used for attempts that do not name their own.
	Language string    `yaml:"language"`
	Attempts []attempt `yaml:"attempts"`
}

type attempt struct {
	ID       string `yaml:"id"`
	Language string `yaml:"language"`
	// Audio is a WAV file path, relative to the manifest's directory.
	Audio string `yaml:"audio"`
	Text  string `yaml:"text"`
}

// batchResult is one output entry, in manifest order.
type batchResult struct {
	ID       string `json:"id"`
	Language string `json:"language"`
	Result   any    `json:"result,omitempty"`
	Error    string `json:"error,omitempty"`
}

// loadManifest decodes the manifest at path and resolves audio paths.
func loadManifest(path string) (*manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %q: %w", path, err)
	}
	defer f.Close()

	m := &manifest{}
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("manifest: decode %q: %w", path, err)
	}

	dir := filepath.Dir(path)
	var errs []error
	for i := range m.Attempts {
		a := &m.Attempts[i]
		if a.ID == "" {
			a.ID = fmt.Sprintf("%d", i+1)
		}
		if a.Language == "" {
			a.Language = m.Language
		}
		if a.Audio == "" {
			errs = append(errs, fmt.Errorf("attempts[%d].audio is required", i))
		} else if !filepath.IsAbs(a.Audio) {
			a.Audio = filepath.Join(dir, a.Audio)
		}
		if a.Text == "" {
			errs = append(errs, fmt.Errorf("attempts[%d].text is required", i))
		}
		if a.Language == "" {
			errs = append(errs, fmt.Errorf("attempts[%d].language is required when no default language is set", i))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	return m, nil
}

// scoreAll scores every attempt of m with at most workers in flight. A failed
// attempt is reported in its entry and does not stop the others. The result
// has one entry per attempt, in manifest order.
func scoreAll(ctx context.Context, a *app.App, m *manifest, workers int, format string) ([]batchResult, error) {
	out := make([]batchResult, len(m.Attempts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	for i, at := range m.Attempts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r := batchResult{ID: at.ID, Language: at.Language}
			res, err := scoreOne(ctx, a, at)
			if err != nil {
				slog.Warn("attempt failed", "id", at.ID, "err", err)
				r.Error = err.Error()
			} else {
				r.Result = render(res, format)
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func scoreOne(ctx context.Context, a *app.App, at attempt) (*scoring.Result, error) {
	clip, err := audio.ReadFile(at.Audio)
	if err != nil {
		return nil, err
	}
	return a.Evaluate(ctx, at.Language, clip, at.Text)
}

func runBatch(ctx context.Context, args []string, stdout io.Writer) (err error) {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	var c common
	c.register(fs)
	manifestPath := fs.String("manifest", "", "YAML manifest listing the attempts (required)")
	workers := fs.Int("workers", runtime.NumCPU(), "number of attempts scored in parallel")
	format := fs.String("format", formatJSON, "output format: json or legacy")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *manifestPath == "" {
		return fmt.Errorf("%w: phonoscore batch -manifest <file>", errUsage)
	}
	if err := checkFormat(*format); err != nil {
		return err
	}

	m, err := loadManifest(*manifestPath)
	if err != nil {
		return err
	}

	e, err := setup(ctx, c)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, e.close()) }()

	results, err := scoreAll(ctx, e.app, m, *workers, *format)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	slog.Info("batch scored", "attempts", len(results), "failed", failed)
	return writeJSON(stdout, results)
}

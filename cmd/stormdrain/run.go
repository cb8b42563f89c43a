package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/stormdrain/internal/app"
	"github.com/dshills/stormdrain/internal/bounds"
	"github.com/dshills/stormdrain/internal/config"
	"github.com/dshills/stormdrain/internal/record"
)

type runFlags struct {
	data  string
	view  string
	x, y  string
	watch bool
	stats bool
}

func newRunCmd(g *globalFlags) *cobra.Command {
	f := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Filter records through the linked views",
		Long: `Reads records as JSON lines, sets the limits of one view as a user
interaction would, and prints the rows inside the resulting bounds as JSON
lines. Limits are written lo:hi; leaving one out keeps that axis unset.`,
		Example: `  stormdrain run -c session.toml --data points.jsonl --view xy --x 0:10 --y -5:5`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSession(cmd, g, f)
		},
	}

	cmd.Flags().StringVarP(&f.data, "data", "d", "-", "JSON lines input file, - for stdin")
	cmd.Flags().StringVar(&f.view, "view", "", "view to interact with")
	cmd.Flags().StringVar(&f.x, "x", "", "x limits of the view as lo:hi")
	cmd.Flags().StringVar(&f.y, "y", "", "y limits of the view as lo:hi")
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "reload the config file on change and print again")
	cmd.Flags().BoolVar(&f.stats, "stats", false, "log exchange statistics on exit")
	return cmd
}

func runSession(cmd *cobra.Command, g *globalFlags, f *runFlags) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	schema, err := cfg.Schema()
	if err != nil {
		return err
	}
	if schema.Len() == 0 {
		return errors.New("dataset.fields must list the input columns")
	}

	batch, err := readData(cmd.InOrStdin(), f.data, schema)
	if err != nil {
		return err
	}

	sess, err := app.New(cfg, app.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sess.Load(ctx, batch); err != nil {
		return err
	}
	if f.view != "" {
		x, err := parseRange(f.x)
		if err != nil {
			return fmt.Errorf("--x: %w", err)
		}
		y, err := parseRange(f.y)
		if err != nil {
			return fmt.Errorf("--y: %w", err)
		}
		if err := sess.Interact(ctx, f.view, x, y); err != nil {
			return err
		}
	}

	out := &lockedWriter{w: cmd.OutOrStdout()}
	if err := out.write(sess.Output()); err != nil {
		return err
	}

	if f.watch {
		if err := watchConfig(ctx, g.configPath, sess, out, logger.Logger); err != nil {
			return err
		}
	}

	if f.stats {
		st := sess.Exchange().Stats()
		logger.Info("exchange stats",
			zap.Uint64("sent", st.MessagesSent),
			zap.Uint64("delivered", st.Delivered),
			zap.Uint64("failed", st.Failed),
			zap.Uint64("panicked", st.Panicked),
		)
	}
	return nil
}

// watchConfig applies config changes until ctx is done.
func watchConfig(ctx context.Context, path string, sess *app.Session, out *lockedWriter, logger *zap.Logger) error {
	if path == "" {
		return errors.New("--watch needs --config")
	}
	w, err := config.Watch(path, func(cfg *config.Config, err error) {
		if err != nil {
			return
		}
		if err := sess.ApplyConfig(ctx, cfg); err != nil {
			logger.Warn("applying config failed", zap.Error(err))
			return
		}
		if err := out.write(sess.Output()); err != nil {
			logger.Warn("writing output failed", zap.Error(err))
		}
	}, logger)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	<-ctx.Done()
	return nil
}

func readData(stdin io.Reader, path string, schema *record.Schema) (*record.Batch, error) {
	if path == "-" || path == "" {
		return record.DecodeJSONLines(schema, stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	b, err := record.DecodeJSONLines(schema, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// parseRange parses "lo:hi". An empty string is an unset range.
func parseRange(s string) (bounds.Range, error) {
	if s == "" {
		return bounds.Unset(), nil
	}
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		return bounds.Range{}, fmt.Errorf("want lo:hi, got %q", s)
	}
	low, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return bounds.Range{}, fmt.Errorf("lower limit: %w", err)
	}
	high, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err != nil {
		return bounds.Range{}, fmt.Errorf("upper limit: %w", err)
	}
	if low > high {
		return bounds.Range{}, fmt.Errorf("lower limit %g is greater than upper limit %g", low, high)
	}
	return bounds.NewRange(low, high), nil
}

// lockedWriter serializes batch output from the main and watch goroutines.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) write(b *record.Batch) error {
	if b == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return record.EncodeJSONLines(l.w, b)
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/bnema/aeye-cli/internal/adapters/metrics"
	"github.com/bnema/aeye-cli/internal/adapters/render/dashboard"
	"github.com/bnema/aeye-cli/internal/application"
	"github.com/bnema/aeye-cli/internal/domain"
)

const (
	watchLogFileName       = "watch.log"
	metricsShutdownTimeout = 2 * time.Second
	staleFactor            = 6
)

func newFeedCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Manage and watch camera feeds",
	}

	cmd.AddCommand(
		newFeedListCmd(app),
		newFeedAddCmd(app),
		newFeedRemoveCmd(app),
		newFeedWatchCmd(app),
	)

	return cmd
}

func newFeedListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured feed sources",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sources, err := app.catalog.List(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tNAME\tPATH")
			for _, source := range sources {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", source.ID, source.Label(), source.Path)
			}
			return w.Flush()
		},
	}
}

func newFeedAddCmd(app *app) *cobra.Command {
	var source domain.FeedSource

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add or replace a feed source",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.catalog.Add(cmd.Context(), source); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Saved feed source %s\n", strings.TrimSpace(string(source.ID)))
			return err
		},
	}

	cmd.Flags().StringVar((*string)(&source.ID), "id", "", "Source ID")
	cmd.Flags().StringVar(&source.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&source.Path, "path", "", "Image path on the server, e.g. /api/images/3")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("path")

	return cmd
}

func newFeedRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a feed source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.catalog.Remove(cmd.Context(), domain.FeedSourceID(args[0])); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Removed feed source %s\n", args[0])
			return err
		},
	}
}

type watchOptions struct {
	sources     []string
	interval    time.Duration
	duration    time.Duration
	plain       bool
	metricsAddr string
	saveDir     string
}

func newFeedWatchCmd(app *app) *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll camera feeds and show the latest frames",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFeedWatch(cmd, app, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.sources, "source", nil, "Source IDs to watch (default: all)")
	cmd.Flags().DurationVar(&opts.interval, "interval", 0, "Poll interval (default: feed.interval)")
	cmd.Flags().DurationVar(&opts.duration, "duration", 0, "Stop after this long (0 runs until interrupted)")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Skip the live board and print a summary when done")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve /metrics and /healthz on this address")
	cmd.Flags().StringVar(&opts.saveDir, "save-dir", "", "Write the last frame of each source to this directory")

	return cmd
}

func runFeedWatch(cmd *cobra.Command, app *app, opts watchOptions) error {
	session := app.sessions.Session()
	decision := app.guard.Evaluate(session, domain.PathFeed)
	switch decision.Kind {
	case domain.DecisionAllow:
	case domain.DecisionRedirectLogin:
		app.nav.Navigate(decision.Target)
		return errNotSignedIn
	default:
		app.nav.Navigate(decision.Target)
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, domain.PathFeed)
	}

	interval := opts.interval
	if interval == 0 {
		configured, err := configDuration(app.cfg, keyFeedInterval)
		if err != nil {
			return err
		}
		interval = configured
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}

	sources, err := app.catalog.Resolve(ctx, opts.sources)
	if err != nil {
		return err
	}

	logger := app.logger
	if !opts.plain && strings.TrimSpace(app.cfg.GetString(keyLogFile)) == "" {
		logger, err = app.openLogger(cmd.ErrOrStderr(), filepath.Join(app.configDir, watchLogFileName))
		if err != nil {
			return err
		}
	}

	var boardOpts []dashboard.BoardOption
	if opts.saveDir != "" {
		boardOpts = append(boardOpts, dashboard.WithFrameCopies())
	}
	board := dashboard.NewBoard(sources, boardOpts...)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	out := cmd.OutOrStdout()
	if opts.metricsAddr != "" {
		shutdown, addr, err := serveMetrics(opts.metricsAddr, registry)
		if err != nil {
			return err
		}
		defer shutdown()
		_, _ = fmt.Fprintf(out, "metrics: http://%s/metrics\n", addr)
	}

	poller := application.NewFeedPoller(app.client, board, collector, app.clock, logger)
	run, err := poller.Start(ctx, sources, interval)
	if err != nil {
		return err
	}

	renderOpts := dashboard.RenderOptions{
		Interval:   interval,
		StaleAfter: staleFactor * interval,
	}
	if role, ok := session.Role(); ok {
		renderOpts.Subject = session.Claims.Subject
		renderOpts.Role = role
	}

	if opts.plain {
		<-run.Done()
	} else {
		err = dashboard.Run(ctx, board, dashboard.LiveOptions{RenderOptions: renderOpts}, cmd.InOrStdin(), out)
		run.Stop()
		if err != nil {
			return fmt.Errorf("live board: %w", err)
		}
	}
	<-run.Done()

	if opts.saveDir != "" {
		if err := saveFrames(opts.saveDir, board.Frames()); err != nil {
			return err
		}
	}

	renderOpts.Now = app.clock.Now()
	summary, err := dashboard.Render(board.Frames(), renderOpts)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(out, summary); err != nil {
		return err
	}

	stats := run.Stats()
	for _, source := range sources {
		s := stats[source.ID]
		line := fmt.Sprintf("%s: attempts=%d ok=%d failed=%d skipped=%d", source.ID, s.Attempts, s.Successes, s.Failures, s.Skipped)
		if s.LastError != "" {
			line += " last_error=" + s.LastError
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

func serveMetrics(addr string, gatherer prometheus.Gatherer) (func(), string, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", fmt.Errorf("listen for metrics: %w", err)
	}

	server := &http.Server{
		Handler:           metrics.NewRouter(gatherer),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			_, _ = fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
		}
	}()

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
	return shutdown, listener.Addr().String(), nil
}

func saveFrames(dir string, frames []dashboard.Frame) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create save directory: %w", err)
	}
	for _, frame := range frames {
		if len(frame.Data) == 0 {
			continue
		}
		name := fmt.Sprintf("%s-%d%s", frame.SourceID, frame.Info.Seq, extensionFor(frame.Info.ContentType))
		if err := os.WriteFile(filepath.Join(dir, name), frame.Data, 0o644); err != nil {
			return fmt.Errorf("save frame for %s: %w", frame.SourceID, err)
		}
	}
	return nil
}

func extensionFor(contentType string) string {
	mediaType, _, _ := strings.Cut(contentType, ";")
	switch strings.TrimSpace(mediaType) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/arbiterhq/arbiter/internal/api"
	"github.com/arbiterhq/arbiter/internal/approval"
	"github.com/arbiterhq/arbiter/internal/config"
	"github.com/arbiterhq/arbiter/internal/db"
	"github.com/arbiterhq/arbiter/internal/decision"
	"github.com/arbiterhq/arbiter/internal/events"
	"github.com/arbiterhq/arbiter/internal/notify"
	"github.com/arbiterhq/arbiter/internal/session"
)

// newServeCmd creates the serve command for the decision server
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the decision server",
		Long: `Start the arbiter decision server.

The server provides REST endpoints and WebSocket streaming for:
  • Pending decision listing
  • Tool approval and question responses
  • Live decision lifecycle events

Example:
  arbiter serve                       # Listen on the configured address
  arbiter serve --addr 0.0.0.0:9000   # Listen on a custom address`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := cfgFile
			if cfgPath == "" {
				cfgPath = config.ConfigFileName
			}
			cfg, err := config.LoadFrom(cfgPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
			}

			logger := newLogger()
			return runServe(cfg, logger)
		},
	}

	cmd.Flags().String("addr", "", "listen address (overrides config)")

	return cmd
}

func runServe(cfg *config.Config, logger *slog.Logger) error {
	publisher := events.NewMemoryPublisher()
	defer publisher.Close()

	opts := []decision.Option{
		decision.WithPublisher(publisher),
		decision.WithLogger(logger),
	}

	var database *db.DB
	if cfg.Database.Path != "" {
		var err error
		database, err = db.Open(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer func() { _ = database.Close() }()
		opts = append(opts,
			decision.WithTaskReviewer(database),
			decision.WithAuditor(&auditRecorder{db: database, logger: logger}),
		)
	}

	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.Notify.Command != "" {
		notifier = notify.NewCommandNotifier(cfg.Notify.Command, cfg.Notify.Args, logger)
	}

	registry := decision.NewRegistry(opts...)
	sessions := session.NewManager(registry, cfg.Approvals, notifier, logger)
	server := api.NewServer(registry, publisher, database, sessions, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		cancel()
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting decision server", "addr", cfg.Server.Addr)
		return server.ListenAndServe(gctx, cfg.Server.Addr)
	})
	if cfg.Notify.Command != "" {
		g.Go(func() error {
			notifyOnDecisions(gctx, publisher, notifier)
			return nil
		})
	}
	return g.Wait()
}

// notifyOnDecisions runs the configured notify command for every decision
// that needs a human.
func notifyOnDecisions(ctx context.Context, publisher events.Publisher, notifier notify.Notifier) {
	ch := publisher.Subscribe(events.GlobalProcessID)
	defer publisher.Unsubscribe(events.GlobalProcessID, ch)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev.Type != events.EventDecisionRequired {
				continue
			}
			data, _ := ev.Data.(events.DecisionRequiredData)
			body := fmt.Sprintf("Decision %s is waiting", data.RequestID)
			if data.ToolName != "" {
				body = fmt.Sprintf("Agent wants to run %s", data.ToolName)
			}
			notifier.Notify(ctx, "Arbiter: decision required", body)
		}
	}
}

// auditRecorder persists terminal outcomes to the decision audit log.
type auditRecorder struct {
	db     *db.DB
	logger *slog.Logger
}

func (a *auditRecorder) RecordDecision(req approval.Request, outcome decision.Outcome) {
	rec := &db.DecisionRecord{
		RequestID:  req.ID,
		ToolCallID: req.ToolCallID,
		Kind:       string(req.Kind),
		ToolName:   req.ToolName,
		Outcome:    outcome.String(),
		Reason:     outcome.Status.Reason,
	}
	if err := a.db.AddDecisionRecord(rec); err != nil {
		a.logger.Warn("failed to record decision", "request_id", req.ID, "error", err)
	}
}

// newLogger builds the process logger. Verbose enables debug level.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agstack/OpenAgri-ReportingService/internal/logging"
	"github.com/agstack/OpenAgri-ReportingService/internal/render"
	"github.com/agstack/OpenAgri-ReportingService/internal/reports"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "reporting",
		Short:        "OpenAgri reporting service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	root.AddCommand(serveCommand(), renderCommand())
	return root
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.LogLevel, cfg.PrettyLogs)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	app, err := newApp(startCtx, cfg, log)
	if err != nil {
		log.Error("startup failed", zap.String("store", cfg.StoreDriver), zap.Error(err))
		return err
	}
	defer app.close(context.Background())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("reporting API listening", zap.String("addr", srv.Addr),
			zap.Bool("gatekeeper", cfg.UsingGatekeeper), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type renderFlags struct {
	reportType string
	format     string
	out        string
}

func renderCommand() *cobra.Command {
	var f renderFlags
	cmd := &cobra.Command{
		Use:   "render [input.jsonld]",
		Short: "Render a local JSON-LD file to a report",
		Long:  `Extract and render a JSON-LD document without the HTTP API or the farm calendar.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), f, args)
		},
	}
	cmd.Flags().StringVarP(&f.reportType, "type", "t", "", "Report type, e.g. irrigations")
	cmd.Flags().StringVarP(&f.format, "format", "f", "pdf", "Output format: pdf, xlsx")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "Output file (default <report>.<format>)")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func runRender(ctx context.Context, f renderFlags, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.UsingGatekeeper = false
	log, err := logging.New(cfg.LogLevel, cfg.PrettyLogs)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	typ, err := reports.ParseType(f.reportType)
	if err != nil {
		return err
	}
	format, err := render.ParseFormat(f.format)
	if err != nil {
		return err
	}
	req := reports.Request{Type: typ, Format: format, GeneratedAt: time.Now().UTC()}
	if len(args) == 1 {
		if req.Data, err = os.ReadFile(args[0]); err != nil {
			return fmt.Errorf("read input: %w", err)
		}
	}

	doc, err := newDispatcher(cfg, log).Generate(ctx, req)
	if err != nil {
		return err
	}
	out := f.out
	if out == "" {
		out = doc.Filename
	}
	if err := render.WriteFile(out, doc.Bytes); err != nil {
		return err
	}
	log.Info("report written", zap.String("path", out), zap.Int("bytes", len(doc.Bytes)))
	return nil
}

package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/hko-weather-proxy/internal/api/http"
)

func newServeCmd(envFiles *[]string) *cobra.Command {
	var noAutomation bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP proxy and the automation scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := loadComponents(*envFiles)
			if err != nil {
				return err
			}
			if noAutomation {
				c.cfg.AutomationEnabled = false
			}
			return serve(cmd.Context(), c)
		},
	}
	cmd.Flags().BoolVar(&noAutomation, "no-automation", false, "do not start the periodic refresh on startup")
	return cmd
}

func serve(parent context.Context, c *components) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if c.cfg.AutomationEnabled {
		if err := c.scheduler.Start(); err != nil {
			return err
		}
	}
	defer c.scheduler.Stop()

	app := httpapi.NewApp(c.logger)
	httpapi.RegisterRoutes(app, httpapi.NewHandler(c.service, c.scheduler, c.metrics))

	errCh := make(chan error, 1)
	go func() {
		c.logger.WithField("port", c.cfg.Port).Info("weather proxy listening")
		errCh <- app.Listen(":" + c.cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		c.logger.WithError(err).Error("error during shutdown")
		return err
	}
	c.logger.Info("weather proxy stopped")
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(flags *flagValues) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a freshly generated image sitemap on every request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			return a.serve(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":4001", "Listen address")
	return cmd
}

func (a *app) newServer() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET("/"+a.name, a.handleSitemap)
	return e
}

func (a *app) handleSitemap(c echo.Context) error {
	out, err := a.generator.Generate(c.Request().Context(), a.source)
	if err != nil {
		a.logger.Error(fmt.Sprintf("generating sitemap: %v", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "sitemap generation failed")
	}
	return c.Blob(http.StatusOK, "application/xml; charset=utf-8", out.Data)
}

// serve runs the preview server until ctx is done.
func (a *app) serve(ctx context.Context, addr string) error {
	e := a.newServer()

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(addr)
	}()
	a.logger.Info(fmt.Sprintf("serving /%s on %s", a.name, addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

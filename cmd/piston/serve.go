package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caffeineduck/piston/client"
	"github.com/caffeineduck/piston/internal/logging"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start an HTTP gateway in front of the service",
		Long: `Start an HTTP server that forwards requests to the Piston service,
resolving language versions from its cached runtime list.

Endpoints:
  GET    /health    Health check
  GET    /runtimes  List languages (cached)
  POST   /execute   Execute code, {"language":"...","files":[{"content":"..."}]}
  POST   /refresh   Re-fetch the runtime list`,
		Args:          cobra.NoArgs,
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().String("addr", "", "Listen address (default :8080)")
	cmd.Flags().Duration("shutdown-timeout", 0, "Grace period for in-flight requests (default 20s)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Serve.Addr, _ = cmd.Flags().GetString("addr")
	}
	if cmd.Flags().Changed("shutdown-timeout") {
		cfg.Serve.ShutdownTimeout, _ = cmd.Flags().GetDuration("shutdown-timeout")
	}

	logger := logging.New(cmd.ErrOrStderr(), cfg.LogFormat, slog.LevelInfo)

	ctx, cancel := commandContext(cmd, 0)
	defer cancel()

	c, err := newClient(ctx, cfg)
	if err != nil {
		return err
	}

	e := newServer(c, logger)

	errc := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.Serve.Addr, "base_url", cfg.BaseURL)
		if err := e.Start(cfg.Serve.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case s := <-quit:
		logger.Info("shutting down server", "signal", s.String())
	case err := <-errc:
		return fmt.Errorf("serve %s: %w", cfg.Serve.Addr, err)
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Serve.ShutdownTimeout)
	defer stop()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		return e.Close()
	}
	logger.Info("server stopped")
	return nil
}

type requestValidator struct {
	v *validator.Validate
}

func (rv *requestValidator) Validate(i any) error {
	if err := rv.v.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return nil
}

type executeRequest struct {
	Language       string        `json:"language" validate:"required"`
	Version        string        `json:"version"`
	Files          []client.File `json:"files" validate:"required,min=1,dive"`
	Stdin          string        `json:"stdin"`
	Args           []string      `json:"args"`
	RunTimeout     int64         `json:"run_timeout" validate:"gte=0"`
	CompileTimeout int64         `json:"compile_timeout" validate:"gte=0"`
}

type stageResponse struct {
	Code   uint8  `json:"code"`
	Output string `json:"output"`
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Signal string `json:"signal,omitempty"`
}

type executeResponse struct {
	Language string         `json:"language"`
	Version  string         `json:"version"`
	Run      stageResponse  `json:"run"`
	Compile  *stageResponse `json:"compile,omitempty"`
}

func newExecuteResponse(res client.Result) executeResponse {
	resp := executeResponse{
		Language: res.Language,
		Version:  res.Version,
		Run: stageResponse{
			Code:   res.ExitCode,
			Output: res.Output,
			Stdout: res.Stdout,
			Stderr: res.Stderr,
			Signal: res.Signal,
		},
	}
	if s := res.Compile; s != nil {
		resp.Compile = &stageResponse{
			Code:   s.ExitCode,
			Output: s.Output,
			Stdout: s.Stdout,
			Stderr: s.Stderr,
			Signal: s.Signal,
		}
	}
	return resp
}

// newServer wires the gateway routes around c.
func newServer(c *client.Client, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &requestValidator{v: validator.New(validator.WithRequiredStructEnabled())}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"request_id", v.RequestID,
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				logger.Error("request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			logger.Info("request", attrs...)
			return nil
		},
	}))

	h := &gateway{client: c}
	e.GET("/health", h.health)
	e.GET("/runtimes", h.runtimes)
	e.POST("/execute", h.execute)
	e.POST("/refresh", h.refresh)
	return e
}

type gateway struct {
	client *client.Client
}

func (g *gateway) health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (g *gateway) runtimes(c echo.Context) error {
	langs, err := g.client.Languages(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, langs)
}

func (g *gateway) execute(c echo.Context) error {
	var req executeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	job, err := client.NewJob().
		Language(req.Language).
		Version(req.Version).
		MainFile(req.Files[0]).
		Add(req.Files[1:]...).
		Stdin(req.Stdin).
		Args(req.Args...).
		RunTimeout(time.Duration(req.RunTimeout) * time.Millisecond).
		CompileTimeout(time.Duration(req.CompileTimeout) * time.Millisecond).
		Build()
	if err != nil {
		return httpError(err)
	}

	res, err := g.client.Submit(c.Request().Context(), job)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newExecuteResponse(res))
}

func (g *gateway) refresh(c echo.Context) error {
	if err := g.client.RefreshCache(c.Request().Context()); err != nil {
		return httpError(err)
	}
	langs, err := g.client.Languages(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"languages": len(langs)})
}

// httpError maps client errors onto gateway responses. Caller mistakes are
// 400s; anything the upstream service got wrong is a 502.
func httpError(err error) error {
	var (
		cfgErr *client.ConfigError
		svcErr *client.ServiceError
	)
	switch {
	case errors.Is(err, client.ErrUnknownLanguage), errors.As(err, &cfgErr):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	case errors.As(err, &svcErr):
		status := http.StatusBadRequest
		if svcErr.StatusCode >= http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		return echo.NewHTTPError(status, svcErr.Message).SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusBadGateway, fmt.Sprintf("upstream: %v", err)).SetInternal(err)
	}
}

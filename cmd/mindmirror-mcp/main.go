package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/mindmirror/mindmirror/internal/mcptools"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type config struct {
	ServiceURL      string
	Addr            string
	LogLevel        zerolog.Level
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() config {
	cfg := config{
		ServiceURL:      envOr("MINDMIRROR_SERVICE_URL", "http://localhost:8000"),
		Addr:            envOr("MCP_ADDR", ":8010"),
		LogLevel:        parseLevel(envOr("LOG_LEVEL", "info")),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
	var level string
	flag.StringVar(&cfg.ServiceURL, "service-url", cfg.ServiceURL, "Base URL of the MindMirror service")
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address for the streamable HTTP transport")
	flag.StringVar(&level, "log-level", cfg.LogLevel.String(), "Log level: debug|info|warn|error")
	flag.DurationVar(&cfg.RequestTimeout, "request-timeout", cfg.RequestTimeout, "Timeout for calls to the service")
	flag.Parse()
	cfg.LogLevel = parseLevel(level)
	return cfg
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func main() {
	cfg := loadConfig()
	zerolog.SetGlobalLevel(cfg.LogLevel)
	// stdout carries the stdio protocol.
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	s := server.NewMCPServer("mindmirror-mcp", "0.1.0", server.WithToolCapabilities(true))
	if err := mcptools.New(cfg.ServiceURL, cfg.RequestTimeout).RegisterTools(s); err != nil {
		log.Fatal().Err(err).Msg("register tools")
	}

	if useStdio() {
		log.Info().Str("service_url", cfg.ServiceURL).Msg("mindmirror mcp server (stdio)")
		if err := server.ServeStdio(s); err != nil {
			log.Fatal().Err(err).Msg("stdio server error")
		}
		return
	}

	streamSrv := server.NewStreamableHTTPServer(s,
		server.WithEndpointPath("/mcp"),
		server.WithHeartbeatInterval(30*time.Second),
	)
	srv := &http.Server{Addr: cfg.Addr, Handler: streamSrv, ReadTimeout: 5 * time.Second, IdleTimeout: 120 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown")
		}
		if err := streamSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("mcp shutdown")
		}
	}()

	log.Info().Str("addr", cfg.Addr).Str("service_url", cfg.ServiceURL).Msg("mindmirror mcp server (streamable http)")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server error")
	}
}

// useStdio picks stdio when forced by MCP_STDIO or when stdin is not a terminal.
func useStdio() bool {
	if os.Getenv("MCP_STDIO") == "true" {
		return true
	}
	if os.Getenv("MCP_HTTP") == "true" {
		return false
	}
	if fi, err := os.Stdin.Stat(); err == nil {
		return fi.Mode()&os.ModeCharDevice == 0
	}
	return false
}

package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/johnathanacortesd/LimpiarV/internal/cli"
	"github.com/johnathanacortesd/LimpiarV/internal/config"
	"github.com/johnathanacortesd/LimpiarV/internal/httpapi"
	"github.com/johnathanacortesd/LimpiarV/internal/logging"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	host := fs.String("host", "", "Host interface to bind (defaults to LIMPIARV_HTTP_HOST)")
	port := fs.Int("port", 0, "HTTP port (defaults to LIMPIARV_HTTP_PORT)")
	readTimeout := fs.Duration("read-timeout", 60*time.Second, "HTTP read timeout")
	writeTimeout := fs.Duration("write-timeout", 120*time.Second, "HTTP write timeout")
	shutdownTimeout := fs.Duration("shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	bindHost := cfg.HTTPHost
	if *host != "" {
		bindHost = *host
	}
	bindPort := cfg.HTTPPort
	if *port != 0 {
		bindPort = *port
	}
	if bindPort <= 0 || bindPort > 65535 {
		fmt.Fprintln(os.Stderr, "--port must be between 1 and 65535")
		return 2
	}

	if cfg.AccessPasswordHash == "" {
		logger.Warn().Msg("LIMPIARV_ACCESS_PASSWORD_HASH is empty, the process endpoint is unprotected")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		cancel()
	}()

	srv := httpapi.NewServer(logger, httpapi.Options{
		Host:               bindHost,
		Port:               bindPort,
		ReadTimeout:        *readTimeout,
		WriteTimeout:       *writeTimeout,
		ShutdownTimeout:    *shutdownTimeout,
		MaxUploadMB:        cfg.MaxUploadMB,
		AccessPasswordHash: cfg.AccessPasswordHash,
		AllowedOrigins:     cfg.CORSAllowedOriginsList(),
		Pipeline:           pipelineOptionsFromConfig(cfg),
	})

	if err := srv.Start(ctx); err != nil {
		logger.Error().Err(err).Str("host", bindHost).Int("port", bindPort).Msg("server failed")
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		return 1
	}

	return 0
}

// Command clima is a JSON-RPC tool server wrapping the OpenWeatherMap API:
// current conditions, city search, and configuration validation.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/toolrpc/toolrpc"
	"github.com/toolrpc/toolrpc/internal/weather"
	"github.com/toolrpc/toolrpc/logx"
)

const (
	serverName    = "clima-servidor"
	serverVersion = "1.0.0"
)

func main() {
	var (
		transportKind string
		addr          string
	)

	rootCmd := &cobra.Command{
		Use:   "clima",
		Short: "Servidor de información meteorológica sobre JSON-RPC",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(transportKind, addr)
		},
	}

	rootCmd.Flags().StringVar(&transportKind, "transport", "stdio", "transport to serve on: stdio or websocket")
	rootCmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8422", "listen address for the websocket transport")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(transportKind, addr string) error {
	cfg, err := weather.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		fmt.Fprintln(os.Stderr, "Por favor, asegúrate de tener configurada la variable OPENWEATHERMAP_API_KEY")
		os.Exit(1)
	}

	logger := logx.New(serverName)
	logger.Info("configuración cargada",
		toolrpc.LogF("instance_id", cfg.InstanceID),
		toolrpc.LogF("timeout", cfg.Timeout),
	)

	srv := toolrpc.NewServer(toolrpc.ServerInfo{
		Name:        serverName,
		Version:     serverVersion,
		Description: "Servidor MCP para consulta de información meteorológica",
	})

	svc := weather.NewService(cfg, logger)
	if err := svc.Register(srv); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The upstream API enforces its own quota; the local limiter keeps a
	// runaway client from burning through it.
	stack := append(
		toolrpc.DefaultMiddleware(logger),
		toolrpc.Timeout(cfg.Timeout),
		toolrpc.RateLimit(10, 20),
		toolrpc.SizeLimit(64*toolrpc.KB),
		toolrpc.OTel(),
	)
	serveOpts := toolrpc.WithMiddleware(stack...)

	logger.Info("servidor iniciado",
		toolrpc.LogF("transport", transportKind),
		toolrpc.LogF("version", serverVersion),
	)

	switch transportKind {
	case "stdio":
		err = toolrpc.ServeStdio(ctx, srv, serveOpts)
	case "websocket":
		err = toolrpc.ServeWebSocket(ctx, srv, addr, nil, serveOpts)
	default:
		return fmt.Errorf("unknown transport %q (expected stdio or websocket)", transportKind)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("servidor detenido")
	return nil
}

// Command calculadora is a JSON-RPC tool server exposing basic arithmetic
// over stdio or WebSocket.
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
	"github.com/toolrpc/toolrpc/internal/calc"
	"github.com/toolrpc/toolrpc/logx"
)

const (
	serverName    = "calculadora"
	serverVersion = "1.0.0"
)

func main() {
	var (
		transportKind string
		addr          string
	)

	rootCmd := &cobra.Command{
		Use:   "calculadora",
		Short: "Servidor de herramientas aritméticas sobre JSON-RPC",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(transportKind, addr)
		},
	}

	rootCmd.Flags().StringVar(&transportKind, "transport", "stdio", "transport to serve on: stdio or websocket")
	rootCmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8421", "listen address for the websocket transport")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(transportKind, addr string) error {
	logger := logx.New(serverName)

	srv := toolrpc.NewServer(toolrpc.ServerInfo{
		Name:        serverName,
		Version:     serverVersion,
		Description: "Servidor MCP para operaciones aritméticas básicas",
	})

	if err := calc.Register(srv); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveOpts := toolrpc.WithMiddleware(
		append(
			toolrpc.DefaultMiddleware(logger),
			toolrpc.OTel(),
		)...,
	)

	logger.Info("servidor iniciado",
		toolrpc.LogF("transport", transportKind),
		toolrpc.LogF("version", serverVersion),
	)

	var err error
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

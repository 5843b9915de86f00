package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/marcuscaisey/luals/luals/config"
	"github.com/marcuscaisey/luals/luals/jsonrpc"
	"github.com/marcuscaisey/luals/luals/lsp"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if port == stdioPort {
		logger.Info("Starting Lua language server. Reading from stdin, writing to stdout.")
		return serve(os.Stdin, os.Stdout, cfg, logger, os.Exit)
	}
	return serveTCP(cmd.Context(), port, cfg, logger)
}

// serve runs a single session over in and out.
func serve(in io.Reader, out io.Writer, cfg config.Config, logger *zap.Logger, exit func(int)) error {
	newHandler := func(client *jsonrpc.Client) jsonrpc.Handler {
		return lsp.NewHandler(client,
			lsp.WithLogger(logger),
			lsp.WithExitFunc(exit),
			lsp.WithAnalysisDefaults(cfg.Analysis),
		)
	}
	return jsonrpc.Serve(in, out, newHandler, jsonrpc.WithLogger(logger))
}

// serveTCP accepts connections on port until ctx is cancelled, running an independent session for each one. An exit
// notification ends the session which received it, rather than the process.
func serveTCP(ctx context.Context, port int, cfg config.Config, logger *zap.Logger) error {
	var lc net.ListenConfig
	lis, err := lc.Listen(ctx, "tcp", fmt.Sprintf("localhost:%d", port))
	if err != nil {
		return fmt.Errorf("serving over TCP: %w", err)
	}
	logger.Info("Starting Lua language server. Listening for connections.", zap.Stringer("address", lis.Addr()))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		return lis.Close()
	})
	g.Go(func() error {
		for {
			conn, err := lis.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return nil
				}
				return fmt.Errorf("serving over TCP: accepting connection: %w", err)
			}
			g.Go(func() error {
				stop := context.AfterFunc(ctx, func() { conn.Close() })
				defer stop()
				serveConn(conn, cfg, logger.With(zap.Stringer("remote", conn.RemoteAddr())))
				return nil
			})
		}
	})
	return g.Wait()
}

func serveConn(conn net.Conn, cfg config.Config, logger *zap.Logger) {
	logger.Info("Accepted connection")
	exit := func(code int) {
		logger.Info("Session exited", zap.Int("code", code))
		conn.Close()
	}
	err := serve(conn, conn, cfg, logger, exit)
	if err != nil && !errors.Is(err, net.ErrClosed) {
		logger.Error("Session failed", zap.Error(err))
	}
	if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		logger.Warn("Failed to close connection", zap.Error(err))
	}
	logger.Info("Connection closed")
}

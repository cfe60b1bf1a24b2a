package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"bilisub/config"
	"bilisub/videoServer"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 服务",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(configPath, envPath); err != nil {
			return err
		}
		cfg := config.Get()
		if listenAddr != "" {
			cfg = config.Update(func(c *config.Config) { c.Listen = listenAddr })
		}
		cl, err := newClients(cfg)
		if err != nil {
			return err
		}
		defer cl.close()

		server := &http.Server{
			Addr:         cfg.Listen,
			Handler:      videoServer.New(cfg, cl.bili, cl.bcut).Handler(),
			ReadTimeout:  5 * time.Minute,
			WriteTimeout: 15 * time.Minute,
			IdleTimeout:  120 * time.Second,
		}
		return runServer(cmd.Context(), server)
	},
}

// runServer ctx 结束后在 5 秒内关闭服务
func runServer(ctx context.Context, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("[HTTP] 服务器启动", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("[HTTP] 收到退出信号，正在关闭...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("[HTTP] 强制关闭服务器", "error", err)
		return err
	}
	slog.Info("[HTTP] 程序已安全退出")
	return nil
}

func init() {
	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "监听地址，覆盖配置文件")
}

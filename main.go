package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"gridbot/client"
)

// gridbot 入口：读取配置，连接服务端，加入下一局并按 Tick 回复移动
func main() {
	if err := run(); err != nil {
		client.Log.Errorf("fatal: %v", err)
		client.SyncLogger()
		fmt.Fprintf(os.Stderr, "gridbot: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := client.LoadConfig("")
	if err != nil {
		return err
	}
	// 使用第三方 zap 日志库写入控制台与 gridbot.log（带滚动）
	if err := client.InitLogger(cfg.LogFile, cfg.LogLevel); err != nil {
		return err
	}
	defer client.SyncLogger()

	session := uuid.NewString()
	log := client.Log.With("session", session)
	log.Infof("I am %s!", cfg.Username)

	// Ctrl+C / SIGTERM 与标准输入 quit 都只是取消 ctx
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if cfg.StdinQuit {
		go client.WatchStdin(ctx, os.Stdin, cancel)
	}

	metrics := &client.Metrics{}
	opts := client.Options{
		Username: cfg.Username,
		Password: cfg.Password,
		Game:     cfg.GameConfig(),
		Metrics:  metrics,
	}
	if cfg.RecordDir != "" {
		t, err := client.OpenTranscript(cfg.RecordDir, session)
		if err != nil {
			return fmt.Errorf("transcript: %w", err)
		}
		log.Infof("Recording transcript to %s", t.Path())
		opts.Transcript = t
	}

	if cfg.StatusAddr != "" {
		srv := &http.Server{Addr: cfg.StatusAddr, Handler: client.NewStatusMux(session, metrics)}
		go func() {
			log.Infof("Status listening on %s", cfg.StatusAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warnf("status listen: %v", err)
			}
		}()
		defer srv.Close()
	}

	log.Infof("Connecting to server %s", cfg.Server)
	conn, err := client.Dial(ctx, cfg.Server, cfg.DialTimeout)
	if err != nil {
		if opts.Transcript != nil {
			_ = opts.Transcript.Close()
		}
		return fmt.Errorf("cannot connect to server: %w", err)
	}

	c := client.New(conn, opts)
	runErr := c.Run(ctx)
	if err := c.Close(); err != nil && runErr == nil {
		log.Warnf("close: %v", err)
	}
	log.Infow("Terminated", "metrics", metrics.Snapshot())
	return runErr
}

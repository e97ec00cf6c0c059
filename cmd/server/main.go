// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoCompressor - 按目标大小压缩视频

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ZSC714725/videocompressor/internal/api"
	"github.com/ZSC714725/videocompressor/internal/config"
	"github.com/ZSC714725/videocompressor/internal/ffmpeg"
	"github.com/ZSC714725/videocompressor/internal/job"
	"github.com/ZSC714725/videocompressor/internal/logger"
	"github.com/ZSC714725/videocompressor/internal/notify"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config file")
	envFile := flag.String("env", ".env", "Path to .env file")
	bind := flag.String("bind", "", "Bind address (overrides config)")
	ffmpegBin := flag.String("ffmpeg", "", "FFmpeg binary path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}
	if err := cfg.ApplyEnv(*envFile); err != nil {
		log.Fatalf("Load env: %v", err)
	}
	if *bind != "" {
		cfg.Server.Bind = *bind
	}
	if *ffmpegBin != "" {
		cfg.FFmpeg.Path = *ffmpegBin
	}

	l := logger.NewWithConfig(logger.Config{
		Prefix: "videocompressor",
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	validator, err := ffmpeg.NewValidator(cfg.FFmpeg.AllowInput, cfg.FFmpeg.BlockInput)
	if err != nil {
		log.Fatalf("Input validator: %v", err)
	}
	ff, err := ffmpeg.New(ffmpeg.Config{
		Binary:         cfg.FFmpeg.Path,
		ProbeBinary:    cfg.FFmpeg.ProbePath,
		BundleDir:      cfg.FFmpeg.BundleDir,
		MaxLogLines:    cfg.FFmpeg.MaxLogLines,
		ValidatorInput: validator,
	})
	if err != nil {
		log.Fatalf("FFmpeg init: %v", err)
	}
	l.Info("ffmpeg %s ready", ff.Skills().FFmpeg.Version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifiers := []job.Notifier{notify.NewLog(l)}
	if cfg.Redis.Addr != "" {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		rn, err := notify.NewRedis(pingCtx, notify.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Channel:  cfg.Redis.Channel,
		})
		cancel()
		if err != nil {
			log.Fatalf("Redis: %v", err)
		}
		defer rn.Close()
		notifiers = append(notifiers, rn)
		l.Info("publishing job events to redis %s channel %s", cfg.Redis.Addr, cfg.Redis.Channel)
	}

	runner := job.NewRunner(job.Config{
		FFmpeg:      ff,
		Logger:      l,
		Notifiers:   notifiers,
		MinTargetMB: cfg.Job.MinTargetMB,
		MaxTargetMB: cfg.Job.MaxTargetMB,
		History:     cfg.Job.History,
		Context:     ctx,
	})
	handler := api.NewHandler(runner, ff, cfg.Job.DefaultTargetMB)

	r := gin.Default()
	r.Use(cors.Default())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handler.Register(r.Group("/api/v1"))

	srv := &http.Server{
		Addr:    cfg.Server.Bind,
		Handler: r,
	}

	go func() {
		l.Info("VideoCompressor listening on %s", cfg.Server.Bind)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server: %v", err)
		}
	}()

	<-ctx.Done()
	l.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error("server shutdown: %v", err)
	}
	// 运行中的编码已随 ctx 中断, 等待进程退出
	runner.Wait()
}

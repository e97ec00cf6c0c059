// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoCompressor - 按目标大小压缩视频

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZSC714725/videocompressor/internal/config"
	"github.com/ZSC714725/videocompressor/internal/ffmpeg"
	"github.com/ZSC714725/videocompressor/internal/job"
	"github.com/ZSC714725/videocompressor/internal/logger"
	"github.com/ZSC714725/videocompressor/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config file")
	target := flag.Int("target", 0, "Target size in MB (default from config)")
	plain := flag.Bool("plain", false, "Print progress lines instead of the TUI")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <input>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	input := flag.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal("Load config: %v", err)
	}
	if err := cfg.ApplyEnv(".env"); err != nil {
		fatal("Load env: %v", err)
	}
	if *target == 0 {
		*target = cfg.Job.DefaultTargetMB
	}

	// TUI 模式下日志不能写到终端
	var logOut io.Writer = io.Discard
	if *plain {
		logOut = os.Stderr
	}
	log := logger.NewWithConfig(logger.Config{
		Prefix: "shrink",
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: logOut,
	})

	validator, err := ffmpeg.NewValidator(cfg.FFmpeg.AllowInput, cfg.FFmpeg.BlockInput)
	if err != nil {
		fatal("Input validator: %v", err)
	}
	ff, err := ffmpeg.New(ffmpeg.Config{
		Binary:         cfg.FFmpeg.Path,
		ProbeBinary:    cfg.FFmpeg.ProbePath,
		BundleDir:      cfg.FFmpeg.BundleDir,
		MaxLogLines:    cfg.FFmpeg.MaxLogLines,
		ValidatorInput: validator,
	})
	if err != nil {
		fatal("FFmpeg init: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := job.NewRunner(job.Config{
		FFmpeg:      ff,
		Logger:      log,
		MinTargetMB: cfg.Job.MinTargetMB,
		MaxTargetMB: cfg.Job.MaxTargetMB,
		History:     1,
		Context:     ctx,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if *plain {
		go func() {
			<-sigChan
			cancel()
		}()
		code := runPlain(runner, job.Request{Input: input, TargetMB: *target})
		runner.Wait()
		os.Exit(code)
	}

	m := tui.NewModel(tui.Options{
		Runner:      runner,
		Input:       input,
		TargetMB:    *target,
		MinTargetMB: cfg.Job.MinTargetMB,
		MaxTargetMB: cfg.Job.MaxTargetMB,
	})
	program := tea.NewProgram(m)

	go func() {
		<-sigChan
		program.Quit()
	}()

	final, err := program.Run()
	// 退出界面即中断正在进行的编码
	cancel()
	runner.Wait()
	if err != nil {
		fatal("Error running program: %v", err)
	}
	if fm, ok := final.(tui.Model); ok && fm.Screen == tui.ScreenFailed {
		os.Exit(1)
	}
}

// runPlain prints one line per percent step and returns the exit code
func runPlain(runner job.Runner, req job.Request) int {
	j, err := runner.Submit(context.Background(), req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "compress %s: %v\n", req.Input, err)
		return 1
	}
	events, cancel, err := runner.Subscribe(j.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "subscribe: %v\n", err)
		return 1
	}
	defer cancel()

	info := j.Info()
	fmt.Printf("%s: %.1fs, target %d MB, video %d bps\n", info.Input, info.Duration, info.TargetMB, info.VideoBitrate)

	last := -1
	for ev := range events {
		switch ev.Type {
		case job.EventProgress:
			if ev.Percent != last {
				last = ev.Percent
				fmt.Printf("progress %3d%%\n", ev.Percent)
			}
		case job.EventFinished:
			fmt.Printf("done: %s\n", ev.Output)
			return 0
		case job.EventFailed:
			fmt.Fprintf(os.Stderr, "failed: %s\n", ev.Error)
			return 1
		}
	}

	// 通道提前关闭时以任务状态为准
	if j.State() == job.StateFinished {
		fmt.Printf("done: %s\n", j.Output)
		return 0
	}
	return 1
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

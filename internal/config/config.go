// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoCompressor - 按目标大小压缩视频

package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Server ServerConfig `yaml:"server"`
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`
	Job    JobConfig    `yaml:"job"`
	Log    LogConfig    `yaml:"log"`
	Redis  RedisConfig  `yaml:"redis"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Bind string `yaml:"bind"`
}

// FFmpegConfig FFmpeg / FFprobe 配置
type FFmpegConfig struct {
	Path        string   `yaml:"path"`
	ProbePath   string   `yaml:"probe_path"` // defaults to the ffprobe next to Path
	BundleDir   string   `yaml:"bundle_dir"`
	MaxLogLines int      `yaml:"max_log_lines"`
	AllowInput  []string `yaml:"allow_input"`
	BlockInput  []string `yaml:"block_input"`
}

// JobConfig bounds for the target size and the in-memory history
type JobConfig struct {
	DefaultTargetMB int `yaml:"default_target_mb"`
	MinTargetMB     int `yaml:"min_target_mb"`
	MaxTargetMB     int `yaml:"max_target_mb"`
	History         int `yaml:"history"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RedisConfig enables event publishing when Addr is set
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

// DefaultAllowInput matches the container types the picker offers
var DefaultAllowInput = []string{`(?i)\.(mp4|avi|mkv|mov|wmv)$`}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{Bind: ":8080"},
		FFmpeg: FFmpegConfig{
			Path:        "ffmpeg",
			BundleDir:   "ffmpeg/bin",
			MaxLogLines: 100,
			AllowInput:  append([]string(nil), DefaultAllowInput...),
		},
		Job: JobConfig{
			DefaultTargetMB: 20,
			MinTargetMB:     1,
			MaxTargetMB:     500,
			History:         50,
		},
		Log:   LogConfig{Level: "info", Format: "text"},
		Redis: RedisConfig{Channel: "videocompressor:events"},
	}
}

// Load 从 YAML 文件加载配置. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.fill()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// 填充空值
func (c *Config) fill() {
	def := Default()
	if c.Server.Bind == "" {
		c.Server.Bind = def.Server.Bind
	}
	if c.FFmpeg.Path == "" {
		c.FFmpeg.Path = def.FFmpeg.Path
	}
	if c.FFmpeg.MaxLogLines <= 0 {
		c.FFmpeg.MaxLogLines = def.FFmpeg.MaxLogLines
	}
	if len(c.FFmpeg.AllowInput) == 0 {
		c.FFmpeg.AllowInput = def.FFmpeg.AllowInput
	}
	if c.Job.MinTargetMB <= 0 {
		c.Job.MinTargetMB = def.Job.MinTargetMB
	}
	if c.Job.MaxTargetMB <= 0 {
		c.Job.MaxTargetMB = def.Job.MaxTargetMB
	}
	if c.Job.DefaultTargetMB <= 0 {
		c.Job.DefaultTargetMB = def.Job.DefaultTargetMB
	}
	if c.Job.History <= 0 {
		c.Job.History = def.Job.History
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
	if c.Redis.Channel == "" {
		c.Redis.Channel = def.Redis.Channel
	}
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	if c.Job.MinTargetMB > c.Job.MaxTargetMB {
		return fmt.Errorf("job.min_target_mb (%d) > job.max_target_mb (%d)", c.Job.MinTargetMB, c.Job.MaxTargetMB)
	}
	if c.Job.DefaultTargetMB < c.Job.MinTargetMB || c.Job.DefaultTargetMB > c.Job.MaxTargetMB {
		return fmt.Errorf("job.default_target_mb %d outside [%d, %d]", c.Job.DefaultTargetMB, c.Job.MinTargetMB, c.Job.MaxTargetMB)
	}
	return nil
}

// Environment variables read by ApplyEnv
const (
	EnvBind      = "VIDEOCOMPRESSOR_BIND"
	EnvFFmpeg    = "VIDEOCOMPRESSOR_FFMPEG"
	EnvFFprobe   = "VIDEOCOMPRESSOR_FFPROBE"
	EnvBundleDir = "VIDEOCOMPRESSOR_BUNDLE_DIR"
	EnvLogLevel  = "VIDEOCOMPRESSOR_LOG_LEVEL"
	EnvLogFormat = "VIDEOCOMPRESSOR_LOG_FORMAT"
	EnvRedisAddr = "VIDEOCOMPRESSOR_REDIS_ADDR"
	EnvRedisPass = "VIDEOCOMPRESSOR_REDIS_PASSWORD"
	EnvRedisDB   = "VIDEOCOMPRESSOR_REDIS_DB"
)

// ApplyEnv loads envFiles (missing files are ignored) and overrides c with
// any VIDEOCOMPRESSOR_* variable that is set.
func (c *Config) ApplyEnv(envFiles ...string) error {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}

	setString(&c.Server.Bind, EnvBind)
	setString(&c.FFmpeg.Path, EnvFFmpeg)
	setString(&c.FFmpeg.ProbePath, EnvFFprobe)
	setString(&c.FFmpeg.BundleDir, EnvBundleDir)
	setString(&c.Log.Level, EnvLogLevel)
	setString(&c.Log.Format, EnvLogFormat)
	setString(&c.Redis.Addr, EnvRedisAddr)
	setString(&c.Redis.Password, EnvRedisPass)

	if v := os.Getenv(EnvRedisDB); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRedisDB, err)
		}
		c.Redis.DB = db
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

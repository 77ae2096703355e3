package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Backend struct {
		BaseURL        string `yaml:"base_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"backend"`

	Storage struct {
		Driver         string `yaml:"driver"` // disk | s3
		UploadDir      string `yaml:"upload_dir"`
		RetentionHours int    `yaml:"retention_hours"` // 0 = keep forever
		S3             struct {
			Bucket string `yaml:"bucket"`
			Region string `yaml:"region"`
		} `yaml:"s3"`
	} `yaml:"storage"`

	Poll struct {
		IntervalSeconds int `yaml:"interval_seconds"`
	} `yaml:"poll"`

	Probe struct {
		TimeoutSeconds int `yaml:"timeout_seconds"`
	} `yaml:"probe"`

	Limits struct {
		MaxVideoSizeMB        int64   `yaml:"max_video_size_mb"`
		MinVideoDuration      float64 `yaml:"min_video_duration"`
		MaxStoryVideoDuration float64 `yaml:"max_story_video_duration"`
		MaxReelVideoDuration  float64 `yaml:"max_reel_video_duration"`
	} `yaml:"limits"`

	Prefs struct {
		Path string `yaml:"path"`
	} `yaml:"prefs"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		File   string `yaml:"file"`
	} `yaml:"log"`
}

func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var cfg Config
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if cfg.Storage.Driver != "disk" && cfg.Storage.Driver != "s3" {
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	if cfg.Storage.Driver == "s3" && cfg.Storage.S3.Bucket == "" {
		return nil, fmt.Errorf("storage.s3.bucket required for s3 driver")
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = "http://localhost:8000"
	}
	if c.Backend.TimeoutSeconds == 0 {
		c.Backend.TimeoutSeconds = 30
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "disk"
	}
	if c.Storage.UploadDir == "" {
		c.Storage.UploadDir = "post_data"
	}
	if c.Poll.IntervalSeconds == 0 {
		c.Poll.IntervalSeconds = 5
	}
	if c.Probe.TimeoutSeconds == 0 {
		c.Probe.TimeoutSeconds = 15
	}
	if c.Limits.MaxVideoSizeMB == 0 {
		c.Limits.MaxVideoSizeMB = 2048
	}
	if c.Limits.MinVideoDuration == 0 {
		c.Limits.MinVideoDuration = 3
	}
	if c.Limits.MaxStoryVideoDuration == 0 {
		c.Limits.MaxStoryVideoDuration = 60
	}
	if c.Limits.MaxReelVideoDuration == 0 {
		c.Limits.MaxReelVideoDuration = 90
	}
	if c.Prefs.Path == "" {
		c.Prefs.Path = "prefs.json"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// Environment variables override file values so deployments can tweak a
// shared config.yaml without editing it.
func (c *Config) applyEnv() {
	c.Server.Port = getenvInt("PORT", c.Server.Port)
	c.Backend.BaseURL = getenv("BACKEND_URL", c.Backend.BaseURL)
	c.Storage.Driver = getenv("STORAGE_DRIVER", c.Storage.Driver)
	c.Storage.UploadDir = getenv("UPLOAD_DIR", c.Storage.UploadDir)
	c.Storage.S3.Bucket = getenv("S3_BUCKET", c.Storage.S3.Bucket)
	c.Storage.S3.Region = getenv("AWS_REGION", c.Storage.S3.Region)
	c.Poll.IntervalSeconds = getenvInt("POLL_INTERVAL", c.Poll.IntervalSeconds)
	c.Log.Level = strings.ToLower(getenv("LOG_LEVEL", c.Log.Level))
	c.Log.Format = strings.ToLower(getenv("LOG_FORMAT", c.Log.Format))
	c.Log.File = getenv("LOG_FILE", c.Log.File)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

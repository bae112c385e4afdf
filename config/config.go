package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Script   ScriptConfig   `yaml:"script"`
	Speech   SpeechConfig   `yaml:"speech"`
	Video    VideoConfig    `yaml:"video"`
	Audience AudienceConfig `yaml:"audience"`
	Upload   UploadConfig   `yaml:"upload"`
	Outreach OutreachConfig `yaml:"outreach"`
	Queue    QueueConfig    `yaml:"queue"`
	Paths    PathsConfig    `yaml:"paths"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type ScriptConfig struct {
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

type SpeechConfig struct {
	Region       string `yaml:"region"`
	OutputFormat string `yaml:"output_format"`
}

type VideoConfig struct {
	FPS    int `yaml:"fps"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type AudienceConfig struct {
	DatasetPath string `yaml:"dataset_path"`
}

type UploadConfig struct {
	Visibility      string `yaml:"visibility"`
	CategoryID      string `yaml:"category_id"`
	DefaultLanguage string `yaml:"default_language"`
	MadeForKids     bool   `yaml:"made_for_kids"`
}

type OutreachConfig struct {
	Subject string `yaml:"subject"`
	AdText  string `yaml:"ad_text"`
}

type QueueConfig struct {
	Workers int `yaml:"workers"`
}

type PathsConfig struct {
	Database        string `yaml:"database"`
	Uploads         string `yaml:"uploads"`
	TempAssets      string `yaml:"temp_assets"`
	GeneratedVideos string `yaml:"generated_videos"`
	Thumbnails      string `yaml:"thumbnails"`
	Campaigns       string `yaml:"campaigns"`
	Logs            string `yaml:"logs"`
}

type LoggingConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

// Load reads config.yaml and returns a Config struct
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Dirs lists every directory the pipeline writes into.
func (c *Config) Dirs() []string {
	return []string{
		c.Paths.Uploads,
		c.Paths.TempAssets,
		c.Paths.GeneratedVideos,
		c.Paths.Thumbnails,
		c.Paths.Campaigns,
		c.Paths.Logs,
	}
}

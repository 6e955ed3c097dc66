package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Gemini struct {
		APIKey string `yaml:"apiKey"`
	} `yaml:"gemini"`
	Questions struct {
		CacheTTL string `yaml:"cacheTtl"`
	} `yaml:"questions"`
	Battle struct {
		CountdownTicks   int    `yaml:"countdownTicks"`
		BetweenQuestions string `yaml:"betweenQuestions"`
		TimeLimit        string `yaml:"timeLimit"`
		StaleAfter       string `yaml:"staleAfter"`
	} `yaml:"battle"`
	Challenge struct {
		TTL           string `yaml:"ttl"`
		SweepInterval string `yaml:"sweepInterval"`
	} `yaml:"challenge"`
	Matchmaking struct {
		MinPlayers    int    `yaml:"minPlayers"`
		MaxPlayers    int    `yaml:"maxPlayers"`
		Interval      string `yaml:"interval"`
		Topic         string `yaml:"topic"`
		QuestionCount int    `yaml:"questionCount"`
	} `yaml:"matchmaking"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/supportos/complaintstack/internal/logger"
	"github.com/supportos/complaintstack/internal/tracing"
)

type Config struct {
	AppConfig          *AppConfig
	Logger             *logger.Config
	Tracing            *tracing.JaegerConfig
	DatabaseConfig     *DatabaseConfig
	RedisConfig        *RedisConfig
	MailboxConfig      *MailboxConfig
	StorageConfig      *StorageConfig
	AnalyzerConfig     *AnalyzerConfig
	NotificationConfig *NotificationConfig
	PipelineConfig     *PipelineConfig
}

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:          &AppConfig{},
		Logger:             &logger.Config{},
		Tracing:            &tracing.JaegerConfig{},
		DatabaseConfig:     &DatabaseConfig{},
		RedisConfig:        &RedisConfig{},
		MailboxConfig:      &MailboxConfig{},
		StorageConfig:      &StorageConfig{},
		AnalyzerConfig:     &AnalyzerConfig{},
		NotificationConfig: &NotificationConfig{},
		PipelineConfig:     &PipelineConfig{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		log.Fatalf("Error loading complaintstack config: %v", err)
	}

	return config, nil
}

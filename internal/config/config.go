package config

import (
	"os"
	"strconv"
)

type Config struct {
	Storage   StorageConfig
	Telemetry TelemetryConfig
	Log       LogConfig
}

type StorageConfig struct {
	Endpoint      string
	DefaultRegion string
	UseSSL        bool
}

type TelemetryConfig struct {
	ServiceName  string
	Exporter     string
	OTLPEndpoint string
	OTLPInsecure bool
}

type LogConfig struct {
	Development bool
}

func Load() Config {
	return Config{
		Storage: StorageConfig{
			Endpoint:      env("PIXELEDGE_S3_ENDPOINT", ""),
			DefaultRegion: env("PIXELEDGE_S3_REGION", env("AWS_REGION", "us-east-1")),
			UseSSL:        envBool("PIXELEDGE_S3_USE_SSL", true),
		},
		Telemetry: TelemetryConfig{
			ServiceName:  env("PIXELEDGE_SERVICE_NAME", "pixeledge"),
			Exporter:     env("PIXELEDGE_TRACE_EXPORTER", "none"),
			OTLPEndpoint: env("PIXELEDGE_OTLP_ENDPOINT", ""),
			OTLPInsecure: envBool("PIXELEDGE_OTLP_INSECURE", false),
		},
		Log: LogConfig{
			Development: envBool("PIXELEDGE_LOG_DEV", false),
		},
	}
}

func env(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func envBool(key string, fallback bool) bool {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

package config

import "github.com/spf13/viper"

// Config holds typed configuration for the results API service.
type Config struct {
	LogLevel     string
	HTTPPort     string
	ProcessedDir string
	MetricsAddr  string
	OTelEndpoint string
}

// Load reads all values from the given viper instance.
func Load(v *viper.Viper) Config {
	return Config{
		LogLevel:     v.GetString("log_level"),
		HTTPPort:     v.GetString("http_port"),
		ProcessedDir: v.GetString("data.processed_dir"),
		MetricsAddr:  v.GetString("metrics_addr"),
		OTelEndpoint: v.GetString("otel_endpoint"),
	}
}

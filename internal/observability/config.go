package observability

import (
	"strings"

	"github.com/smallbiznis/scanverify/internal/config"
)

// Config is the slice of the app config the logger, tracer and meter read.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OTelEnabled       bool
	OTLPEndpoint      string
	OTLPProtocol      string
	OTelSamplingRatio float64
}

func LoadConfig(cfg config.Config) Config {
	name := strings.TrimSpace(cfg.AppName)
	if name == "" {
		name = "scanverify"
	}
	level := strings.TrimSpace(cfg.LogLevel)
	if level == "" {
		level = "info"
	}

	return Config{
		ServiceName:       name,
		Environment:       strings.TrimSpace(cfg.Environment),
		Version:           strings.TrimSpace(cfg.AppVersion),
		LogLevel:          level,
		LogFormat:         strings.TrimSpace(cfg.LogFormat),
		OTelEnabled:       cfg.OTelEnabled,
		OTLPEndpoint:      strings.TrimSpace(cfg.OTLPEndpoint),
		OTLPProtocol:      strings.TrimSpace(cfg.OTLPProtocol),
		OTelSamplingRatio: cfg.OTelSamplingRatio,
	}
}

// Debug turns on verbose request logging and gin debug mode.
func (c Config) Debug() bool {
	if c.LogLevel == "debug" {
		return true
	}
	switch strings.ToLower(c.Environment) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

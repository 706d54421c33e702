package config

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	DefaultLocalOffsetMinutes = 5*60 + 30
	DefaultRecentLimit        = 10
	maxRecentLimit            = 100
)

// StatsConfig tunes the read side of the scan service.
type StatsConfig struct {
	LocalOffsetMinutes int `mapstructure:"localOffsetMinutes"`
	RecentLimit        int `mapstructure:"recentLimit"`
}

func DefaultStatsConfig() StatsConfig {
	return StatsConfig{
		LocalOffsetMinutes: DefaultLocalOffsetMinutes,
		RecentLimit:        DefaultRecentLimit,
	}
}

// LocalOffset is the fixed UTC offset used to derive the local calendar day.
func (c StatsConfig) LocalOffset() time.Duration {
	return time.Duration(c.LocalOffsetMinutes) * time.Minute
}

type StatsConfigHolder struct {
	current atomic.Value // holds StatsConfig
}

// NewStaticStatsConfigHolder returns a holder that never reloads.
func NewStaticStatsConfigHolder(cfg StatsConfig) *StatsConfigHolder {
	holder := &StatsConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewStatsConfigHolder(log *zap.Logger) (*StatsConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("stats")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/scanverify")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SCANVERIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultStatsConfig()
	v.SetDefault("stats.localOffsetMinutes", defaults.LocalOffsetMinutes)
	v.SetDefault("stats.recentLimit", defaults.RecentLimit)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	var cfg StatsConfig
	if err := v.UnmarshalKey("stats", &cfg); err != nil {
		return nil, err
	}
	if err := validateStatsConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticStatsConfigHolder(cfg)

	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("stats.config")

	if fileLoaded {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated StatsConfig
			if err := v.UnmarshalKey("stats", &updated); err != nil {
				log.Warn("reload failed", zap.String("file", e.Name), zap.Error(err))
				return
			}
			if err := validateStatsConfig(updated); err != nil {
				log.Warn("invalid config ignored", zap.String("file", e.Name), zap.Error(err))
				return
			}
			holder.current.Store(updated)
			log.Info("reloaded",
				zap.String("file", e.Name),
				zap.Int("local_offset_minutes", updated.LocalOffsetMinutes),
				zap.Int("recent_limit", updated.RecentLimit),
			)
		})
	}

	return holder, nil
}

func (h *StatsConfigHolder) Get() StatsConfig {
	if h == nil {
		return DefaultStatsConfig()
	}
	cfg, ok := h.current.Load().(StatsConfig)
	if !ok {
		return DefaultStatsConfig()
	}
	return cfg
}

func validateStatsConfig(cfg StatsConfig) error {
	if cfg.LocalOffsetMinutes <= -24*60 || cfg.LocalOffsetMinutes >= 24*60 {
		return errors.New("stats.localOffsetMinutes must be within one day")
	}
	if cfg.RecentLimit < 1 || cfg.RecentLimit > maxRecentLimit {
		return errors.New("stats.recentLimit must be between 1 and 100")
	}
	return nil
}

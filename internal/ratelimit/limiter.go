package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/scanverify/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyScanSubmit = "scanverify:scan:submit:%s"

// ScanLimiter throttles scan submissions per client. A nil limiter allows
// everything.
type ScanLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

type Params struct {
	fx.In

	Lc  fx.Lifecycle
	Cfg config.Config
	Log *zap.Logger
}

func NewScanLimiter(p Params) (*ScanLimiter, error) {
	limitCfg := p.Cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(p.Cfg.Redis.Addr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.ScanRate <= 0 || limitCfg.ScanBurst <= 0 {
		return nil, errors.New("scan rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(p.Cfg.Redis.Password),
		DB:       p.Cfg.Redis.DB,
	})
	p.Lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	p.Log.Info("scan rate limit enabled",
		zap.String("redis_addr", addr),
		zap.Float64("rate", limitCfg.ScanRate),
		zap.Int("burst", limitCfg.ScanBurst),
	)

	return newScanLimiter(client, limitCfg.ScanRate, limitCfg.ScanBurst), nil
}

func newScanLimiter(client redis.Scripter, rate float64, burst int) *ScanLimiter {
	return &ScanLimiter{
		bucket: NewTokenBucket(client),
		rate:   rate,
		burst:  burst,
	}
}

func (l *ScanLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// Allow consumes one token for clientKey.
func (l *ScanLimiter) Allow(ctx context.Context, clientKey string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	clientKey = strings.TrimSpace(clientKey)
	if clientKey == "" {
		clientKey = "unknown"
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyScanSubmit, clientKey), l.rate, l.burst)
}

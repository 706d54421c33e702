package ratelimit

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/scanverify/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zaptest"
)

// fakeScripter emulates the bucket script without refill.
type fakeScripter struct {
	tokens map[string]float64
	keys   []string
	err    error
}

func newFakeScripter() *fakeScripter {
	return &fakeScripter{tokens: map[string]float64{}}
}

func (f *fakeScripter) run(ctx context.Context, keys []string, args ...interface{}) *redis.Cmd {
	cmd := redis.NewCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}

	key := keys[0]
	f.keys = append(f.keys, key)
	burst := float64(args[1].(int))
	tokens, ok := f.tokens[key]
	if !ok {
		tokens = burst
	}

	allowed := int64(0)
	if tokens >= 1 {
		allowed = 1
		tokens--
	}
	f.tokens[key] = tokens
	cmd.SetVal([]interface{}{allowed, strconv.FormatFloat(tokens, 'f', -1, 64), time.Now().UnixMilli()})
	return cmd
}

func (f *fakeScripter) Eval(ctx context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return f.run(ctx, keys, args...)
}

func (f *fakeScripter) EvalSha(ctx context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return f.run(ctx, keys, args...)
}

func (f *fakeScripter) EvalRO(ctx context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return f.run(ctx, keys, args...)
}

func (f *fakeScripter) EvalShaRO(ctx context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return f.run(ctx, keys, args...)
}

func (f *fakeScripter) ScriptExists(ctx context.Context, hashes ...string) *redis.BoolSliceCmd {
	cmd := redis.NewBoolSliceCmd(ctx)
	cmd.SetVal(make([]bool, len(hashes)))
	return cmd
}

func (f *fakeScripter) ScriptLoad(ctx context.Context, _ string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	cmd.SetVal("sha")
	return cmd
}

func TestTokenBucketExhaustsBurst(t *testing.T) {
	scripter := newFakeScripter()
	bucket := NewTokenBucket(scripter)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := bucket.Allow(ctx, "k", 2, 3)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "call %d", i)
		assert.Equal(t, 3, res.Limit)
	}

	res, err := bucket.Allow(ctx, "k", 2, 3)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, 500*time.Millisecond, res.RetryAfter)
}

func TestTokenBucketRejectsBadInput(t *testing.T) {
	bucket := NewTokenBucket(newFakeScripter())
	ctx := context.Background()

	_, err := bucket.Allow(ctx, "", 1, 1)
	assert.Error(t, err)
	_, err = bucket.Allow(ctx, "k", 0, 1)
	assert.Error(t, err)
	_, err = bucket.Allow(ctx, "k", 1, 0)
	assert.Error(t, err)

	var nilBucket *TokenBucket
	_, err = nilBucket.Allow(ctx, "k", 1, 1)
	assert.Error(t, err)
	assert.Nil(t, NewTokenBucket(nil))
}

func TestTokenBucketPropagatesRedisError(t *testing.T) {
	scripter := newFakeScripter()
	scripter.err = errors.New("connection refused")

	_, err := NewTokenBucket(scripter).Allow(context.Background(), "k", 1, 1)
	assert.EqualError(t, err, "connection refused")
}

func TestBucketTTL(t *testing.T) {
	assert.Equal(t, 4*time.Second, bucketTTL(20, 40))
	assert.Equal(t, time.Second, bucketTTL(100, 1))
	assert.Equal(t, time.Second, bucketTTL(0, 1))
}

func TestScanLimiterKeysByClient(t *testing.T) {
	scripter := newFakeScripter()
	limiter := newScanLimiter(scripter, 1, 1)
	ctx := context.Background()

	res, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	res, err = limiter.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	_, err = limiter.Allow(ctx, " ")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"scanverify:scan:submit:10.0.0.1",
		"scanverify:scan:submit:10.0.0.1",
		"scanverify:scan:submit:10.0.0.2",
		"scanverify:scan:submit:unknown",
	}, scripter.keys)
}

func TestNilScanLimiterAllows(t *testing.T) {
	var limiter *ScanLimiter
	assert.False(t, limiter.Enabled())

	res, err := limiter.Allow(context.Background(), "any")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestNewScanLimiterConfig(t *testing.T) {
	cases := []struct {
		name    string
		cfg     config.Config
		wantNil bool
		wantErr bool
	}{
		{name: "disabled", cfg: config.Config{}, wantNil: true},
		{
			name:    "missing redis",
			cfg:     config.Config{RateLimit: config.RateLimitConfig{Enabled: true, ScanRate: 1, ScanBurst: 1}},
			wantNil: true,
			wantErr: true,
		},
		{
			name: "bad rate",
			cfg: config.Config{
				Redis:     config.RedisConfig{Addr: "127.0.0.1:6379"},
				RateLimit: config.RateLimitConfig{Enabled: true, ScanRate: 0, ScanBurst: 1},
			},
			wantNil: true,
			wantErr: true,
		},
		{
			name: "enabled",
			cfg: config.Config{
				Redis:     config.RedisConfig{Addr: "127.0.0.1:6379"},
				RateLimit: config.RateLimitConfig{Enabled: true, ScanRate: 5, ScanBurst: 10},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lc := fxtest.NewLifecycle(t)
			limiter, err := NewScanLimiter(Params{Lc: lc, Cfg: tc.cfg, Log: zaptest.NewLogger(t)})
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.wantNil, limiter == nil)
			if limiter != nil {
				assert.True(t, limiter.Enabled())
			}
			lc.RequireStart().RequireStop()
		})
	}
}

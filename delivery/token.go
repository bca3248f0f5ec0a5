package delivery

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Token 是带过期时间的访问令牌。
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Valid reports whether t is usable at now, keeping skew in reserve.
func (t Token) Valid(now time.Time, skew time.Duration) bool {
	return t.AccessToken != "" && now.Add(skew).Before(t.ExpiresAt)
}

// TokenStore 持久化缓存的令牌，使多个进程共享同一令牌。没有令牌时返回 ok=false。
type TokenStore interface {
	Load(ctx context.Context) (tok Token, ok bool, err error)
	Save(ctx context.Context, tok Token) error
	Clear(ctx context.Context) error
}

// RefreshFunc 向授权服务换取新的访问令牌。
type RefreshFunc func(ctx context.Context) (Token, error)

// TokenCache 缓存访问令牌，到期（减去 skew）前复用，之后刷新。
// 缓存是显式传给上传客户端的对象，并发安全，同一时刻只有一个刷新请求。
type TokenCache struct {
	mu      sync.Mutex
	refresh RefreshFunc
	store   TokenStore
	skew    time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// TokenCacheOption configures a TokenCache.
type TokenCacheOption func(*TokenCache)

func WithTokenStore(s TokenStore) TokenCacheOption {
	return func(c *TokenCache) { c.store = s }
}

func WithSkew(d time.Duration) TokenCacheOption {
	return func(c *TokenCache) { c.skew = d }
}

func WithClock(now func() time.Time) TokenCacheOption {
	return func(c *TokenCache) { c.now = now }
}

func WithTokenLogger(l *zap.Logger) TokenCacheOption {
	return func(c *TokenCache) { c.logger = l }
}

// NewTokenCache creates a cache backed by an in-memory store unless another is given.
func NewTokenCache(refresh RefreshFunc, opts ...TokenCacheOption) *TokenCache {
	c := &TokenCache{
		refresh: refresh,
		skew:    time.Minute,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		c.store = NewMemoryTokenStore()
	}
	return c
}

// Get 返回有效的访问令牌，必要时刷新。
func (c *TokenCache) Get(ctx context.Context) (string, error) {
	if c.refresh == nil {
		return "", errors.New("delivery: 未配置令牌刷新函数")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	tok, ok, err := c.store.Load(ctx)
	if err != nil {
		// 共享存储不可用时仍可直接刷新
		c.logger.Warn("读取令牌缓存失败", zap.Error(err))
	}
	if ok && tok.Valid(c.now(), c.skew) {
		return tok.AccessToken, nil
	}

	tok, err = c.refresh(ctx)
	if err != nil {
		return "", err
	}
	if err := c.store.Save(ctx, tok); err != nil {
		c.logger.Warn("写入令牌缓存失败", zap.Error(err))
	}
	c.logger.Debug("访问令牌已刷新", zap.Time("expires_at", tok.ExpiresAt))
	return tok.AccessToken, nil
}

// Invalidate 丢弃缓存的令牌，例如服务端返回 401 时。
func (c *TokenCache) Invalidate(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn("清除令牌缓存失败", zap.Error(err))
	}
}

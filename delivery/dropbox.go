package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// DropboxOptions configures the Dropbox uploader.
type DropboxOptions struct {
	AppKey       string
	AppSecret    string
	RefreshToken string
	RootPath     string // 所有订单目录的父目录，例如 "/labels"
	APIURL       string
	ContentURL   string
	RetryMax     int
	Timeout      time.Duration

	// 以下两项仅在未传入 TokenCache 时使用
	TokenStore TokenStore
	TokenSkew  time.Duration
}

// DropboxSink 通过 Dropbox HTTP API 投递标签。访问令牌由调用方传入的 TokenCache 管理。
type DropboxSink struct {
	opts   DropboxOptions
	http   *retryablehttp.Client
	tokens *TokenCache
	logger *zap.Logger
}

// NewDropboxSink creates a sink. When tokens is nil a cache refreshing through this
// sink's own OAuth client is created from opts.TokenStore and opts.TokenSkew.
func NewDropboxSink(opts DropboxOptions, tokens *TokenCache, logger *zap.Logger) *DropboxSink {
	if opts.APIURL == "" {
		opts.APIURL = "https://api.dropboxapi.com"
	}
	if opts.ContentURL == "" {
		opts.ContentURL = "https://content.dropboxapi.com"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := retryablehttp.NewClient()
	client.RetryMax = opts.RetryMax
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.HTTPClient.Timeout = opts.Timeout
	client.Logger = nil // 由 zap 记录

	s := &DropboxSink{opts: opts, http: client, logger: logger}
	if tokens == nil {
		cacheOpts := []TokenCacheOption{WithTokenLogger(logger)}
		if opts.TokenStore != nil {
			cacheOpts = append(cacheOpts, WithTokenStore(opts.TokenStore))
		}
		if opts.TokenSkew > 0 {
			cacheOpts = append(cacheOpts, WithSkew(opts.TokenSkew))
		}
		tokens = NewTokenCache(s.RefreshToken, cacheOpts...)
	}
	s.tokens = tokens
	return s
}

// RefreshToken 用长期 refresh token 换取短期访问令牌。
func (s *DropboxSink) RefreshToken(ctx context.Context) (Token, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {s.opts.RefreshToken},
		"client_id":     {s.opts.AppKey},
		"client_secret": {s.opts.AppSecret},
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.opts.APIURL+"/oauth2/token", []byte(form.Encode()))
	if err != nil {
		return Token{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := s.http.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("刷新 Dropbox 令牌失败: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode != http.StatusOK {
		return Token{}, fmt.Errorf("刷新 Dropbox 令牌失败: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Token{}, fmt.Errorf("解析令牌响应失败: %w", err)
	}
	if payload.AccessToken == "" {
		return Token{}, fmt.Errorf("令牌响应缺少 access_token")
	}
	return Token{
		AccessToken: payload.AccessToken,
		ExpiresAt:   time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second),
	}, nil
}

// EnsureFolder 创建目录；409 path/conflict 视为已存在。
func (s *DropboxSink) EnsureFolder(ctx context.Context, folder string) error {
	arg, _ := json.Marshal(map[string]any{"path": s.fullPath(folder), "autorename": false})
	resp, body, err := s.call(ctx, func(token string) (*retryablehttp.Request, error) {
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.opts.APIURL+"/2/files/create_folder_v2", arg)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusConflict && strings.Contains(string(body), "path/conflict"):
		return nil
	default:
		return fmt.Errorf("创建 Dropbox 目录失败: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
}

// Upload 以覆盖模式上传文件。
func (s *DropboxSink) Upload(ctx context.Context, folder, name string, data []byte) error {
	arg, _ := json.Marshal(map[string]any{
		"path":       path.Join(s.fullPath(folder), name),
		"mode":       "overwrite",
		"autorename": false,
		"mute":       true,
	})
	resp, body, err := s.call(ctx, func(token string) (*retryablehttp.Request, error) {
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.opts.ContentURL+"/2/files/upload", bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/octet-stream")
		req.Header.Set("Dropbox-API-Arg", string(arg))
		return req, nil
	})
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("上传 Dropbox 文件失败: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// call 发送请求；令牌被拒（401）时作废缓存并重试一次。
func (s *DropboxSink) call(ctx context.Context, build func(token string) (*retryablehttp.Request, error)) (*http.Response, []byte, error) {
	for attempt := 0; ; attempt++ {
		token, err := s.tokens.Get(ctx)
		if err != nil {
			return nil, nil, err
		}
		req, err := build(token)
		if err != nil {
			return nil, nil, err
		}
		resp, err := s.http.Do(req)
		if err != nil {
			return nil, nil, fmt.Errorf("请求 Dropbox 失败: %w", err)
		}
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		resp.Body.Close()
		if readErr != nil {
			return nil, nil, readErr
		}
		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			s.logger.Warn("Dropbox 令牌被拒绝，重新获取")
			s.tokens.Invalidate(ctx)
			continue
		}
		return resp, body, nil
	}
}

func (s *DropboxSink) fullPath(folder string) string {
	return "/" + strings.Trim(path.Join(s.opts.RootPath, folder), "/")
}

var _ Sink = (*DropboxSink)(nil)

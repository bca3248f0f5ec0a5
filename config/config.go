package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ByLCY/labelkit/fonts"
	"github.com/ByLCY/labelkit/layout"
	"github.com/ByLCY/labelkit/logger"
)

// Config holds all labelkit configuration.
type Config struct {
	App      AppConfig
	Log      logger.Config
	Page     PageConfig
	Fonts    FontsConfig
	Output   OutputConfig
	Render   RenderConfig
	Order    OrderConfig
	Webhook  WebhookConfig
	Delivery DeliveryConfig
	Redis    RedisConfig
}

type AppConfig struct {
	Name string
	Env  string
	Port string
}

// PageConfig 以长度字符串描述标签版式，例如 "270mm"；裸数字按 mm 处理。
type PageConfig struct {
	Width      string
	Height     string
	Column     string
	TextWidth  string
	TextHeight string
}

type FontsConfig struct {
	Family      string
	Path        string // 主字体覆盖路径，亦可由 LABELKIT_FONT_PATH 指定
	Candidates  []string
	DigitSizePt float64
}

type OutputConfig struct {
	Dir             string
	FilenamePattern string
	Format          string // pdf, png
	DPI             float64
}

type RenderConfig struct {
	Parallelism int
	SkipVerify  bool
}

// OrderConfig 列出订单行属性名的别名（不区分大小写）。
type OrderConfig struct {
	TextKeys  []string
	FontKeys  []string
	ColorKeys []string
	SizeKeys  []string
	StyleKeys []string
}

type WebhookConfig struct {
	Path         string
	Secret       string
	MaxBodyBytes int64
	Timeout      time.Duration
}

type DeliveryConfig struct {
	Sink    string // dropbox, s3, local
	Dropbox DropboxConfig
	S3      S3Config
	Local   LocalConfig
}

type DropboxConfig struct {
	AppKey       string
	AppSecret    string
	RefreshToken string
	RootPath     string
	APIURL       string
	ContentURL   string
	TokenSkew    time.Duration
	RetryMax     int
}

type S3Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	Prefix       string
}

type LocalConfig struct {
	Dir string
}

// RedisConfig 启用后 Dropbox 访问令牌在多个进程之间共享。
type RedisConfig struct {
	Enabled   bool
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Load reads configuration from path (or labelkit.toml in the usual places) and
// LABELKIT_ environment variables.
//
// Priority (highest to lowest):
// 1. Environment variables with LABELKIT_ prefix (e.g., LABELKIT_WEBHOOK_SECRET)
// 2. labelkit.toml
// 3. Built-in defaults
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("labelkit")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/labelkit")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	v.SetEnvPrefix("LABELKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("fonts.path", "LABELKIT_FONT_PATH", "LABELKIT_FONTS_PATH")

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: logger.Config{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			Output:     v.GetString("log.output"),
			MaxSizeMB:  v.GetInt("log.max_size_mb"),
			MaxBackups: v.GetInt("log.max_backups"),
			MaxAgeDays: v.GetInt("log.max_age_days"),
		},
		Page: PageConfig{
			Width:      v.GetString("page.width"),
			Height:     v.GetString("page.height"),
			Column:     v.GetString("page.column"),
			TextWidth:  v.GetString("page.text_width"),
			TextHeight: v.GetString("page.text_height"),
		},
		Fonts: FontsConfig{
			Family:      v.GetString("fonts.family"),
			Path:        v.GetString("fonts.path"),
			Candidates:  v.GetStringSlice("fonts.candidates"),
			DigitSizePt: v.GetFloat64("fonts.digit_size_pt"),
		},
		Output: OutputConfig{
			Dir:             v.GetString("output.dir"),
			FilenamePattern: v.GetString("output.filename_pattern"),
			Format:          v.GetString("output.format"),
			DPI:             v.GetFloat64("output.dpi"),
		},
		Render: RenderConfig{
			Parallelism: v.GetInt("render.parallelism"),
			SkipVerify:  v.GetBool("render.skip_verify"),
		},
		Order: OrderConfig{
			TextKeys:  v.GetStringSlice("order.text_keys"),
			FontKeys:  v.GetStringSlice("order.font_keys"),
			ColorKeys: v.GetStringSlice("order.color_keys"),
			SizeKeys:  v.GetStringSlice("order.size_keys"),
			StyleKeys: v.GetStringSlice("order.style_keys"),
		},
		Webhook: WebhookConfig{
			Path:         v.GetString("webhook.path"),
			Secret:       v.GetString("webhook.secret"),
			MaxBodyBytes: v.GetInt64("webhook.max_body_bytes"),
			Timeout:      v.GetDuration("webhook.timeout"),
		},
		Delivery: DeliveryConfig{
			Sink: v.GetString("delivery.sink"),
			Dropbox: DropboxConfig{
				AppKey:       v.GetString("delivery.dropbox.app_key"),
				AppSecret:    v.GetString("delivery.dropbox.app_secret"),
				RefreshToken: v.GetString("delivery.dropbox.refresh_token"),
				RootPath:     v.GetString("delivery.dropbox.root_path"),
				APIURL:       v.GetString("delivery.dropbox.api_url"),
				ContentURL:   v.GetString("delivery.dropbox.content_url"),
				TokenSkew:    v.GetDuration("delivery.dropbox.token_skew"),
				RetryMax:     v.GetInt("delivery.dropbox.retry_max"),
			},
			S3: S3Config{
				Endpoint:     v.GetString("delivery.s3.endpoint"),
				Region:       v.GetString("delivery.s3.region"),
				Bucket:       v.GetString("delivery.s3.bucket"),
				AccessKey:    v.GetString("delivery.s3.access_key"),
				SecretKey:    v.GetString("delivery.s3.secret_key"),
				UsePathStyle: v.GetBool("delivery.s3.use_path_style"),
				Prefix:       v.GetString("delivery.s3.prefix"),
			},
			Local: LocalConfig{
				Dir: v.GetString("delivery.local.dir"),
			},
		},
		Redis: RedisConfig{
			Enabled:   v.GetBool("redis.enabled"),
			Addr:      v.GetString("redis.addr"),
			Password:  v.GetString("redis.password"),
			DB:        v.GetInt("redis.db"),
			KeyPrefix: v.GetString("redis.key_prefix"),
		},
	}

	applyDefaults(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "labelkit"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}

	def := logger.DefaultConfig()
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Format
		if cfg.App.Env == "production" {
			cfg.Log.Format = "json"
		}
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = def.Output
	}
	if cfg.Log.MaxSizeMB <= 0 {
		cfg.Log.MaxSizeMB = def.MaxSizeMB
	}
	if cfg.Log.MaxBackups <= 0 {
		cfg.Log.MaxBackups = def.MaxBackups
	}
	if cfg.Log.MaxAgeDays <= 0 {
		cfg.Log.MaxAgeDays = def.MaxAgeDays
	}

	if cfg.Page.Width == "" {
		cfg.Page.Width = fmt.Sprintf("%gmm", layout.DefaultPageWidthMM)
	}
	if cfg.Page.Height == "" {
		cfg.Page.Height = fmt.Sprintf("%gmm", layout.DefaultPageHeightMM)
	}
	if cfg.Page.Column == "" {
		cfg.Page.Column = fmt.Sprintf("%gmm", layout.DefaultColumnMM)
	}
	if cfg.Page.TextWidth == "" {
		cfg.Page.TextWidth = fmt.Sprintf("%gmm", layout.DefaultTextWidthMM)
	}
	if cfg.Page.TextHeight == "" {
		cfg.Page.TextHeight = fmt.Sprintf("%gmm", layout.DefaultTextHeightMM)
	}

	if cfg.Fonts.Family == "" {
		cfg.Fonts.Family = fonts.DefaultFamily
	}
	if cfg.Fonts.DigitSizePt <= 0 {
		cfg.Fonts.DigitSizePt = layout.DefaultDigitSizePt
	}

	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "output"
	}
	if cfg.Output.FilenamePattern == "" {
		cfg.Output.FilenamePattern = "label-${correlationId}-${copy}.${ext}"
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = "pdf"
	}
	if cfg.Output.DPI <= 0 {
		cfg.Output.DPI = 150
	}
	if cfg.Render.Parallelism <= 0 {
		cfg.Render.Parallelism = 4
	}

	if len(cfg.Order.TextKeys) == 0 {
		cfg.Order.TextKeys = []string{"text", "label text", "name on label"}
	}
	if len(cfg.Order.FontKeys) == 0 {
		cfg.Order.FontKeys = []string{"font"}
	}
	if len(cfg.Order.ColorKeys) == 0 {
		cfg.Order.ColorKeys = []string{"color", "colour"}
	}
	if len(cfg.Order.SizeKeys) == 0 {
		cfg.Order.SizeKeys = []string{"font size", "size"}
	}
	if len(cfg.Order.StyleKeys) == 0 {
		cfg.Order.StyleKeys = []string{"style"}
	}

	if cfg.Webhook.Path == "" {
		cfg.Webhook.Path = "/webhooks/orders"
	}
	if cfg.Webhook.MaxBodyBytes <= 0 {
		cfg.Webhook.MaxBodyBytes = 1 << 20
	}
	if cfg.Webhook.Timeout <= 0 {
		cfg.Webhook.Timeout = 60 * time.Second
	}

	if cfg.Delivery.Sink == "" {
		cfg.Delivery.Sink = "local"
	}
	if cfg.Delivery.Dropbox.APIURL == "" {
		cfg.Delivery.Dropbox.APIURL = "https://api.dropboxapi.com"
	}
	if cfg.Delivery.Dropbox.ContentURL == "" {
		cfg.Delivery.Dropbox.ContentURL = "https://content.dropboxapi.com"
	}
	if cfg.Delivery.Dropbox.TokenSkew <= 0 {
		cfg.Delivery.Dropbox.TokenSkew = time.Minute
	}
	if cfg.Delivery.Dropbox.RetryMax <= 0 {
		cfg.Delivery.Dropbox.RetryMax = 3
	}
	if cfg.Delivery.S3.Region == "" {
		cfg.Delivery.S3.Region = "us-east-1"
	}
	if cfg.Delivery.Local.Dir == "" {
		cfg.Delivery.Local.Dir = cfg.Output.Dir
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "labelkit:"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if _, err := c.Page.Bounds(); err != nil {
		return fmt.Errorf("page 配置无效: %w", err)
	}
	switch c.Output.Format {
	case "pdf", "png":
	default:
		return fmt.Errorf("output.format 只支持 pdf 或 png，当前为 %q", c.Output.Format)
	}
	switch c.Delivery.Sink {
	case "local":
	case "dropbox":
		d := c.Delivery.Dropbox
		if d.AppKey == "" || d.AppSecret == "" || d.RefreshToken == "" {
			return fmt.Errorf("delivery.dropbox 需要 app_key、app_secret 与 refresh_token")
		}
	case "s3":
		if c.Delivery.S3.Bucket == "" {
			return fmt.Errorf("delivery.s3.bucket 不能为空")
		}
	default:
		return fmt.Errorf("未知的 delivery.sink %q", c.Delivery.Sink)
	}
	if c.App.Env == "production" && c.Webhook.Secret == "" {
		return fmt.Errorf("生产环境必须配置 webhook.secret")
	}
	return nil
}

// Bounds 将长度字符串换算为页面几何。
func (p PageConfig) Bounds() (layout.PageBounds, error) {
	values := make([]float64, 0, 5)
	for _, raw := range []string{p.Width, p.Height, p.Column, p.TextWidth, p.TextHeight} {
		l, err := layout.ParseRawLengthStr(raw)
		if err != nil {
			return layout.PageBounds{}, err
		}
		values = append(values, l.ToMM())
	}
	return layout.PageBoundsFromMM(values[0], values[1], values[2], values[3], values[4])
}

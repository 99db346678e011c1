package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattmezza/wwalert/internal/util"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL       = "https://qyapi.weixin.qq.com/cgi-bin"
	DefaultTimeout       = 10 * time.Second
	DefaultAlertTemplate = `{{ .Message }}`

	// CorpSecretEnv holds the application secret used to obtain access tokens.
	CorpSecretEnv = "WWALERT_CORP_SECRET"
)

type Config struct {
	HostnameOverride  string           `yaml:"hostname"`
	Developers        DevelopersConfig `yaml:"developers"`
	WechatWork        WechatWorkConfig `yaml:"wechat_work"`
	Templates         TemplateConfig   `yaml:"templates"`
	EffectiveHostname string           `yaml:"-"` // Derived
}

// DevelopersConfig lists who gets paged. Direct recipients take precedence
// over bot keys.
type DevelopersConfig struct {
	WechatWorkIDs []string `yaml:"wechat_work_ids"`
	BotKeys       []string `yaml:"bot_keys"`
}

type WechatWorkConfig struct {
	AgentID    string        `yaml:"agent_id"`
	CorpID     string        `yaml:"corp_id"`
	CorpSecret string        `yaml:"corp_secret"` // Will be populated from ENV
	BaseURL    string        `yaml:"base_url"`
	TimeoutStr string        `yaml:"timeout"` // e.g., "10s"
	Timeout    time.Duration `yaml:"-"`       // Parsed
}

type TemplateConfig struct {
	Alert string `yaml:"alert"`
}

func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	// Unknown keys (e.g. "botKeys" for "bot_keys") are rejected instead of
	// silently leaving developers unconfigured.
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to unmarshal config YAML from %s: %w", filePath, err)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() error {
	if strings.TrimSpace(cfg.HostnameOverride) != "" {
		cfg.EffectiveHostname = cfg.HostnameOverride
	} else {
		hostname, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("failed to get OS hostname: %w", err)
		}
		cfg.EffectiveHostname = hostname
	}

	cfg.Developers.WechatWorkIDs = compact(cfg.Developers.WechatWorkIDs)
	cfg.Developers.BotKeys = compact(cfg.Developers.BotKeys)

	ww := &cfg.WechatWork
	ww.AgentID = strings.TrimSpace(ww.AgentID)
	if ww.BaseURL == "" {
		ww.BaseURL = DefaultBaseURL
	}
	ww.BaseURL = strings.TrimRight(ww.BaseURL, "/")

	if ww.TimeoutStr == "" {
		ww.Timeout = DefaultTimeout
	} else {
		timeout, err := util.ParseDurationString(ww.TimeoutStr)
		if err != nil {
			return fmt.Errorf("wechat_work has invalid timeout: %w", err)
		}
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		ww.Timeout = timeout
	}

	if secret := os.Getenv(CorpSecretEnv); secret != "" {
		ww.CorpSecret = secret
	} else if ww.CorpSecret != "" {
		fmt.Printf("Warning: WeChat Work corp secret found in config file. It should be set via ENV var %s.\n", CorpSecretEnv)
	}

	if cfg.Templates.Alert == "" {
		cfg.Templates.Alert = DefaultAlertTemplate
	}
	return nil
}

// compact drops blank entries and surrounding whitespace.
func compact(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

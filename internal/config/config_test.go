package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0644))
	return configFile
}

func TestLoadConfig(t *testing.T) {
	t.Setenv(CorpSecretEnv, "")

	testCases := []struct {
		name     string
		yaml     string
		expected *Config
		wantErr  bool
	}{
		{
			name: "valid_full_config",
			yaml: `
hostname: "test-host"
developers:
  wechat_work_ids: ["zhangsan", "lisi"]
  bot_keys: ["k1"]
wechat_work:
  agent_id: "1000002"
  corp_id: "ww123"
  base_url: "http://localhost:8080/cgi-bin/"
  timeout: "5s"
templates:
  alert: "[{{ .Hostname }}] {{ .Message }}"
`,
			expected: &Config{
				HostnameOverride:  "test-host",
				EffectiveHostname: "test-host",
				Developers: DevelopersConfig{
					WechatWorkIDs: []string{"zhangsan", "lisi"},
					BotKeys:       []string{"k1"},
				},
				WechatWork: WechatWorkConfig{
					AgentID:    "1000002",
					CorpID:     "ww123",
					BaseURL:    "http://localhost:8080/cgi-bin",
					TimeoutStr: "5s",
					Timeout:    5 * time.Second,
				},
				Templates: TemplateConfig{Alert: "[{{ .Hostname }}] {{ .Message }}"},
			},
		},
		{
			name: "minimal_config_with_defaults",
			yaml: `
hostname: "h"
developers:
  bot_keys: ["k1", "", "  k2  "]
`,
			expected: &Config{
				HostnameOverride:  "h",
				EffectiveHostname: "h",
				Developers: DevelopersConfig{
					BotKeys: []string{"k1", "k2"},
				},
				WechatWork: WechatWorkConfig{
					BaseURL: DefaultBaseURL,
					Timeout: DefaultTimeout,
				},
				Templates: TemplateConfig{Alert: DefaultAlertTemplate},
			},
		},
		{
			name: "invalid_yaml",
			yaml: `
developers:
  bot_keys: [
`,
			wantErr: true,
		},
		{
			name: "unknown_key_camel_case",
			yaml: `
developers:
  botKeys: ["k1"]
`,
			wantErr: true,
		},
		{
			name: "unknown_agent_id_spelling",
			yaml: `
wechat_work:
  agentId: "1000002"
`,
			wantErr: true,
		},
		{
			name: "invalid_timeout",
			yaml: `
wechat_work:
  timeout: "ten seconds"
`,
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := LoadConfig(writeConfig(t, tc.yaml))

			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, cfg)
		})
	}
}

func TestLoadConfigFileNotFound(t *testing.T) {
	_, err := LoadConfig("nonexistent.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfigEmptyFile(t *testing.T) {
	t.Setenv(CorpSecretEnv, "")
	cfg, err := LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Empty(t, cfg.Developers.WechatWorkIDs)
	assert.Empty(t, cfg.Developers.BotKeys)
	assert.Equal(t, DefaultBaseURL, cfg.WechatWork.BaseURL)
}

func TestLoadConfigDefaultHostname(t *testing.T) {
	hostname, err := os.Hostname()
	require.NoError(t, err)

	cfg, err := LoadConfig(writeConfig(t, "developers: {}\n"))
	require.NoError(t, err)
	assert.Equal(t, hostname, cfg.EffectiveHostname)
}

func TestCorpSecretFromEnvironment(t *testing.T) {
	content := `
wechat_work:
  agent_id: "1000002"
  corp_secret: "from-file"
`
	t.Run("env_overrides_file", func(t *testing.T) {
		t.Setenv(CorpSecretEnv, "from-env")
		cfg, err := LoadConfig(writeConfig(t, content))
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.WechatWork.CorpSecret)
	})

	t.Run("file_kept_without_env", func(t *testing.T) {
		t.Setenv(CorpSecretEnv, "")
		cfg, err := LoadConfig(writeConfig(t, content))
		require.NoError(t, err)
		assert.Equal(t, "from-file", cfg.WechatWork.CorpSecret)
	})
}

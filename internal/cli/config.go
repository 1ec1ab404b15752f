package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/modelkit/internal/fetch"
	"github.com/mesh-intelligence/modelkit/internal/paths"
	"github.com/mesh-intelligence/modelkit/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "MODELKIT"

	cfgKeyDataDir        = "data_dir"
	cfgKeyFormat         = "format"
	cfgKeyLogLevel       = "log_level"
	cfgKeyLogFormat      = "log_format"
	cfgKeyFetchRetries   = "fetch.retries"
	cfgKeyFetchRetryWait = "fetch.retry_wait"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	DataDir   string      `yaml:"data_dir,omitempty"`
	Format    string      `yaml:"format"`
	LogLevel  string      `yaml:"log_level"`
	LogFormat string      `yaml:"log_format"`
	Fetch     fetchConfig `yaml:"fetch"`
}

type fetchConfig struct {
	Retries   int    `yaml:"retries"`
	RetryWait string `yaml:"retry_wait"`
}

func defaultConfig() configFile {
	return configFile{
		Format:    types.FormatJSON,
		LogLevel:  "info",
		LogFormat: "text",
		Fetch: fetchConfig{
			Retries:   fetch.DefaultRetries,
			RetryWait: fetch.DefaultRetryWait.String(),
		},
	}
}

// loadConfig reads config.yaml from configDir, creating the directory and a
// default file on first run. Every key except data_dir can be overridden
// with a MODELKIT_ environment variable (fetch.retries is
// MODELKIT_FETCH_RETRIES); data_dir follows the paths precedence instead.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}
	if err := writeConfigIfMissing(paths.ConfigFile(configDir), defaultConfig()); err != nil {
		return nil, fmt.Errorf("write default config: %w", err)
	}

	def := defaultConfig()
	v := viper.New()
	v.SetDefault(cfgKeyFormat, def.Format)
	v.SetDefault(cfgKeyLogLevel, def.LogLevel)
	v.SetDefault(cfgKeyLogFormat, def.LogFormat)
	v.SetDefault(cfgKeyFetchRetries, def.Fetch.Retries)
	v.SetDefault(cfgKeyFetchRetryWait, def.Fetch.RetryWait)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range []string{cfgKeyFormat, cfgKeyLogLevel, cfgKeyLogFormat, cfgKeyFetchRetries, cfgKeyFetchRetryWait} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// writeConfigIfMissing creates path with cfg if the file does not exist.
func writeConfigIfMissing(path string, cfg configFile) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	header := "# modelkit configuration\n# data_dir is optional; --data-dir and MODELKIT_DATA_DIR also set it.\n"
	return os.WriteFile(path, append([]byte(header), data...), 0o644)
}

// retryWait parses fetch.retry_wait, accepting Go durations or plain seconds.
func retryWait(v *viper.Viper) (time.Duration, error) {
	raw := v.GetString(cfgKeyFetchRetryWait)
	if d, err := time.ParseDuration(raw); err == nil {
		return d, nil
	}
	secs := v.GetInt(cfgKeyFetchRetryWait)
	if secs == 0 && raw != "0" {
		return 0, fmt.Errorf("%w: fetch.retry_wait %q is not a duration", errBadFlag, raw)
	}
	return time.Duration(secs) * time.Second, nil
}

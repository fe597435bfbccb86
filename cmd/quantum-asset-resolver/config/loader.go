package config

import (
	"bytes"
	_ "embed"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/quantumauth-io/quantum-asset-resolver/internal/chains"
	"github.com/quantumauth-io/quantum-asset-resolver/internal/constants"
	"github.com/quantumauth-io/quantum-asset-resolver/internal/metadoc"
)

//go:embed config.yaml
var EmbeddedConfigYAML []byte

type MulticallSettings struct {
	Mode    string        `mapstructure:"mode"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type MetadataSettings struct {
	IPFSGateway       string        `mapstructure:"ipfsGateway"`
	RequestsPerSecond float64       `mapstructure:"requestsPerSecond"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxDocumentBytes  int64         `mapstructure:"maxDocumentBytes"`
}

type Config struct {
	chains.AllChainsConfig `mapstructure:",squash"`

	Multicall MulticallSettings `mapstructure:"multicall"`
	Metadata  MetadataSettings  `mapstructure:"metadata"`
}

func searchPaths() []string {
	home, _ := os.UserHomeDir()
	return []string{
		filepath.Join(home, ".config", constants.AppName),
		".",
	}
}

// Load reads .env, the embedded defaults, any config.yaml found on the search
// paths and finally QAR_* environment overrides.
func Load() (*Config, error) {
	// a missing .env is fine, the environment may be set externally
	_ = godotenv.Load()
	return LoadFrom(searchPaths(), EmbeddedConfigYAML)
}

func LoadFrom(paths []string, embedded []byte) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadConfig(bytes.NewReader(embedded)); err != nil {
		return nil, errors.Wrap(err, "config: read embedded defaults")
	}

	for _, dir := range paths {
		file := filepath.Join(dir, constants.ConfigFile)
		if _, err := os.Stat(file); err != nil {
			continue
		}
		v.SetConfigFile(file)
		if err := v.MergeInConfig(); err != nil {
			return nil, errors.Wrapf(err, "config: merge %s", file)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "config: unmarshal")
	}
	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if len(c.Networks) == 0 {
		return errors.New("config: no networks configured")
	}
	for name, n := range c.Networks {
		if len(n.RPCs) == 0 {
			return errors.Newf("config: network %q has no rpcs", name)
		}
	}

	switch chains.MulticallMode(c.Multicall.Mode) {
	case "", chains.MulticallAggregate3, chains.MulticallRPCBatch:
	default:
		return errors.Newf("config: invalid multicall.mode %q (allowed: aggregate3, batch)", c.Multicall.Mode)
	}
	if c.Multicall.Timeout < 0 {
		return errors.Newf("config: negative multicall.timeout %s", c.Multicall.Timeout)
	}
	return nil
}

func (c *Config) ChainConfig() chains.ChainConfig {
	all := c.AllChainsConfig
	return chains.ChainConfig{
		Chains:           &all,
		PreferredRPCName: c.PreferredRPC,
		MulticallMode:    chains.MulticallMode(c.Multicall.Mode),
	}
}

func (c *Config) DocumentConfig() metadoc.Config {
	return metadoc.Config{
		IPFSGateway:       c.Metadata.IPFSGateway,
		Timeout:           c.Metadata.Timeout,
		MaxDocumentBytes:  c.Metadata.MaxDocumentBytes,
		RequestsPerSecond: c.Metadata.RequestsPerSecond,
	}
}

// MulticallTimeout falls back to the library default when unset.
func (c *Config) MulticallTimeout() time.Duration {
	if c.Multicall.Timeout <= 0 {
		return constants.MulticallTimeout
	}
	return c.Multicall.Timeout
}

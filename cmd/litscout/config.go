// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/litscout/pkg/types"
)

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("litscout")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "litscout"))
		}
	}

	setDefaults(viper.GetViper(), types.DefaultConfig())

	viper.SetEnvPrefix("LITSCOUT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers every config key so environment overrides such as
// LITSCOUT_SCORING_ALPHA apply during Unmarshal.
func setDefaults(v *viper.Viper, d types.Config) {
	v.SetDefault("scoring.alpha", d.Scoring.Alpha)
	v.SetDefault("scoring.min_score", d.Scoring.MinScore)

	v.SetDefault("engine.pool_size", d.Engine.PoolSize)
	v.SetDefault("engine.fetch_timeout", d.Engine.FetchTimeout)
	v.SetDefault("engine.max_candidates", d.Engine.MaxCandidates)
	v.SetDefault("engine.page_size", d.Engine.PageSize)

	v.SetDefault("store.data_dir", d.Store.DataDir)
	v.SetDefault("store.snapshots_dir", d.Store.SnapshotsDir)

	v.SetDefault("encoder.backend", string(d.Encoder.Backend))
	v.SetDefault("encoder.model", d.Encoder.Model)
	v.SetDefault("encoder.base_url", d.Encoder.BaseURL)
	v.SetDefault("encoder.api_key", d.Encoder.APIKey)
	v.SetDefault("encoder.timeout", d.Encoder.Timeout)
	v.SetDefault("encoder.max_retries", d.Encoder.MaxRetries)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.rate_limit", d.Server.RateLimit)
	v.SetDefault("server.burst", d.Server.Burst)
	v.SetDefault("server.max_upload_bytes", d.Server.MaxUploadBytes)
}

// loadConfig decodes the merged configuration and validates it.
func loadConfig(v *viper.Viper) (types.Config, error) {
	cfg := types.DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

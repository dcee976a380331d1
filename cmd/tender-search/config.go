// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/tender-search/internal/delivery"
	"github.com/pdiddy/tender-search/internal/search"
	"github.com/pdiddy/tender-search/internal/secrets"
	"github.com/pdiddy/tender-search/pkg/types"
)

const (
	defaultTimeout       = 60 * time.Second
	defaultUserAgent     = "tender-search/0.1"
	defaultMaxRetries    = 5
	defaultCardService   = "http://localhost:8790/cards"
	defaultEmbeddingHost = "http://localhost:11434"
)

// setDefaults registers the values used when neither the config file, the
// environment nor a flag supplies one.
func setDefaults(v *viper.Viper) {
	v.SetDefault("search.timeout", defaultTimeout)
	v.SetDefault("search.user_agent", defaultUserAgent)
	v.SetDefault("search.max_retries", defaultMaxRetries)
	v.SetDefault("search.docsearch_endpoint", defaultCardService+"/"+types.SourceDocSearch)
	v.SetDefault("search.extendedsearch_endpoint", defaultCardService+"/"+types.SourceExtendedSearch)
	v.SetDefault("search.enable_docsearch", true)
	v.SetDefault("search.enable_extendedsearch", true)
	v.SetDefault("search.limit", search.DefaultLimit)

	v.SetDefault("ranking.mode", types.ModeBalanced)
	v.SetDefault("ranking.embedding_host", defaultEmbeddingHost)

	v.SetDefault("delivery.mode", delivery.ModeMailto)
	v.SetDefault("delivery.smtp_host", delivery.DefaultSMTPHost)
	v.SetDefault("delivery.smtp_port", delivery.DefaultSMTPPort)
	v.SetDefault("delivery.timeout", delivery.DefaultTimeout)
}

// loadConfig decodes the pipeline configuration and fills credentials that
// the config file left empty from the secrets directory.
func loadConfig(v *viper.Viper, sec map[string]string) (types.PipelineConfig, error) {
	var cfg types.PipelineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Delivery.Login = secrets.Lookup(sec, secrets.SMTPLogin, cfg.Delivery.Login)
	cfg.Delivery.Password = secrets.Lookup(sec, secrets.SMTPPassword, cfg.Delivery.Password)
	cfg.Ranking.APIKey = secrets.Lookup(sec, secrets.EmbeddingAPIKey, cfg.Ranking.APIKey)
	return cfg, nil
}

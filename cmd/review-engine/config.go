// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/review-engine/internal/llm"
	"github.com/pdiddy/review-engine/internal/search"
	"github.com/pdiddy/review-engine/internal/secrets"
	"github.com/pdiddy/review-engine/internal/store"
	"github.com/pdiddy/review-engine/pkg/types"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultDelay       = 1 * time.Second
	defaultTemperature = 0.3
	defaultDataDir     = "data"
	defaultStoreDir    = "data/index"
)

// setDefaults registers every configuration key so environment variables
// (REVIEW_ENGINE_SEARCH_MAX_RESULTS and so on) are seen by Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", defaultDataDir)

	v.SetDefault("search.timeout", defaultTimeout)
	v.SetDefault("search.user_agent", search.DefaultUserAgent)
	v.SetDefault("search.max_results", search.DefaultMaxResults)
	v.SetDefault("search.enable_arxiv", true)
	v.SetDefault("search.enable_semantic_scholar", true)
	v.SetDefault("search.enable_jstage", true)
	v.SetDefault("search.enable_ieee", false)
	v.SetDefault("search.enable_government", false)
	v.SetDefault("search.government_portals", []string{})
	v.SetDefault("search.semantic_scholar_api_key", "")
	v.SetDefault("search.ieee_api_key", "")
	v.SetDefault("search.inter_query_delay", defaultDelay)
	v.SetDefault("search.parallelism", search.DefaultParallelism)

	v.SetDefault("screening.criteria_file", "")
	v.SetDefault("screening.stage", string(types.StageTitleAbstract))

	for _, section := range []string{"strategy", "report"} {
		v.SetDefault(section+".provider", llm.ProviderGemini)
		v.SetDefault(section+".model", "")
		v.SetDefault(section+".api_key", "")
		v.SetDefault(section+".max_retries", 3)
		v.SetDefault(section+".temperature", defaultTemperature)
	}
	v.SetDefault("report.output_dir", "")

	v.SetDefault("retrieval.timeout", 2*defaultTimeout)
	v.SetDefault("retrieval.user_agent", search.DefaultUserAgent)
	v.SetDefault("retrieval.enabled", false)
	v.SetDefault("retrieval.mailto", "")
	v.SetDefault("retrieval.delay", defaultDelay)

	v.SetDefault("store.dir", defaultStoreDir)
	v.SetDefault("store.max_results", 20)
}

// loadConfig decodes the merged flags, file, environment and defaults into
// a PipelineConfig and fills API keys from the secrets directory.
func loadConfig() (types.PipelineConfig, error) {
	cfg, err := decodeConfig(viper.GetViper())
	if err != nil {
		return types.PipelineConfig{}, err
	}

	if cfg.Search.SemanticScholarAPIKey == "" {
		cfg.Search.SemanticScholarAPIKey = loadedSecrets.Get(secrets.SemanticScholarAPIKey)
	}
	if cfg.Search.IEEEAPIKey == "" {
		cfg.Search.IEEEAPIKey = loadedSecrets.Get(secrets.IEEEAPIKey)
	}
	fillAPIKey(&cfg.Strategy)
	fillAPIKey(&cfg.Report.AIConfig)
	return cfg, nil
}

// decodeConfig unmarshals v using the yaml struct tags, flattening inline
// embedded sections such as search.HTTPConfig.
func decodeConfig(v *viper.Viper) (types.PipelineConfig, error) {
	var cfg types.PipelineConfig
	err := v.Unmarshal(&cfg, viper.DecoderConfigOption(func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
		dc.Squash = true
	}))
	if err != nil {
		return types.PipelineConfig{}, fmt.Errorf("decoding configuration: %w", err)
	}
	return cfg, nil
}

func fillAPIKey(ai *types.AIConfig) {
	if ai.APIKey != "" {
		return
	}
	switch strings.ToLower(ai.Provider) {
	case llm.ProviderClaude, "anthropic":
		ai.APIKey = loadedSecrets.Get(secrets.AnthropicAPIKey)
	default:
		ai.APIKey = loadedSecrets.Get(secrets.GeminiAPIKey)
	}
}

// newCompleter builds the model client for one stage. A missing key is not
// an error: the stage falls back to its template output.
func newCompleter(ctx context.Context, ai types.AIConfig, stage string) (llm.Completer, error) {
	c, err := llm.New(ctx, ai, logger)
	if errors.Is(err, llm.ErrNoAPIKey) {
		logger.Warn("no API key configured; using fallback output", zap.String("stage", stage))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s model client: %w", stage, err)
	}
	return c, nil
}

// openStore opens the review database named by the configuration, with
// --store-dir taking precedence when the command defines it.
func openStore(cmd *cobra.Command, cfg types.PipelineConfig) (*store.Store, error) {
	sc := cfg.Store
	if f := cmd.Flags().Lookup("store-dir"); f != nil && f.Changed {
		sc.Dir = f.Value.String()
	}
	return store.Open(sc, logger)
}

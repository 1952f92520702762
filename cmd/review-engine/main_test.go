// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/review-engine/internal/search"
	"github.com/pdiddy/review-engine/pkg/types"
)

func TestDecodeConfig_Defaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg, err := decodeConfig(v)
	require.NoError(t, err)

	assert.Equal(t, defaultDataDir, cfg.DataDir)
	assert.Equal(t, defaultTimeout, cfg.Search.Timeout)
	assert.Equal(t, search.DefaultUserAgent, cfg.Search.UserAgent)
	assert.Equal(t, search.DefaultMaxResults, cfg.Search.MaxResults)
	assert.True(t, cfg.Search.EnableArxiv)
	assert.False(t, cfg.Search.EnableIEEE)
	assert.Equal(t, types.StageTitleAbstract, cfg.Screening.Stage)
	assert.Equal(t, "gemini", cfg.Strategy.Provider)
	assert.Equal(t, 3, cfg.Report.MaxRetries)
	assert.False(t, cfg.Retrieval.Enabled)
	assert.Equal(t, defaultDelay, cfg.Retrieval.Delay)
	assert.Equal(t, defaultStoreDir, cfg.Store.Dir)
}

func TestDecodeConfig_Environment(t *testing.T) {
	t.Setenv("REVIEW_ENGINE_SEARCH_MAX_RESULTS", "7")
	t.Setenv("REVIEW_ENGINE_SEARCH_TIMEOUT", "1m")
	t.Setenv("REVIEW_ENGINE_RETRIEVAL_ENABLED", "true")

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("REVIEW_ENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg, err := decodeConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Search.MaxResults)
	assert.Equal(t, time.Minute, cfg.Search.Timeout)
	assert.True(t, cfg.Retrieval.Enabled)
}

func TestConfigFlagNamesSearchedFile(t *testing.T) {
	usage := rootCmd.PersistentFlags().Lookup("config").Usage
	assert.Contains(t, usage, "./review-engine.yaml")
	assert.Contains(t, usage, "~/.config/review-engine/review-engine.yaml")
}

func TestParseDecision(t *testing.T) {
	tests := []struct {
		in      string
		want    types.Decision
		wantErr bool
	}{
		{in: "Include", want: types.DecisionInclude},
		{in: "exclude", want: types.DecisionExclude},
		{in: "UNCERTAIN", want: types.DecisionUncertain},
		{in: "maybe", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDecision(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAgreementLabel(t *testing.T) {
	tests := []struct {
		kappa float64
		want  string
	}{
		{-0.1, "poor"},
		{0, "slight"},
		{0.2, "slight"},
		{0.35, "fair"},
		{0.6, "moderate"},
		{0.75, "substantial"},
		{0.81, "almost perfect"},
		{1, "almost perfect"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, agreementLabel(tt.kappa), "kappa %v", tt.kappa)
	}
}

func searchFlagsCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringSlice("source", nil, "")
	cmd.Flags().StringSlice("portal", nil, "")
	cmd.Flags().Int("max-results", 0, "")
	cmd.Flags().Duration("delay", 0, "")
	require.NoError(t, cmd.Flags().Parse(args))
	return cmd
}

func TestApplySearchFlags(t *testing.T) {
	base := types.SearchConfig{
		MaxResults:            20,
		EnableArxiv:           true,
		EnableSemanticScholar: true,
		EnableJStage:          true,
	}

	t.Run("no flags keep config", func(t *testing.T) {
		sc := base
		require.NoError(t, applySearchFlags(searchFlagsCmd(t), &sc))
		assert.Equal(t, base, sc)
	})

	t.Run("sources select exactly", func(t *testing.T) {
		sc := base
		cmd := searchFlagsCmd(t, "--source", "arxiv,ieee", "--max-results", "5", "--delay", "2s")
		require.NoError(t, applySearchFlags(cmd, &sc))
		assert.True(t, sc.EnableArxiv)
		assert.True(t, sc.EnableIEEE)
		assert.False(t, sc.EnableSemanticScholar)
		assert.False(t, sc.EnableJStage)
		assert.Equal(t, 5, sc.MaxResults)
		assert.Equal(t, 2*time.Second, sc.InterQueryDelay)
	})

	t.Run("portals enable government after sources", func(t *testing.T) {
		sc := base
		cmd := searchFlagsCmd(t, "--source", "arxiv", "--portal", "uk,us")
		require.NoError(t, applySearchFlags(cmd, &sc))
		assert.True(t, sc.EnableGovernment)
		assert.Equal(t, []string{"uk", "us"}, sc.GovernmentPortals)
	})

	t.Run("unknown source", func(t *testing.T) {
		sc := base
		err := applySearchFlags(searchFlagsCmd(t, "--source", "scopus"), &sc)
		assert.ErrorContains(t, err, "unknown source")
	})
}

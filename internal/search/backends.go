// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/pdiddy/review-engine/internal/httputil"
	"github.com/pdiddy/review-engine/internal/normalize"
	"github.com/pdiddy/review-engine/pkg/types"
)

// Backends builds the connectors enabled in cfg, in a fixed order:
// arXiv, Semantic Scholar, J-STAGE, IEEE Xplore, government portals.
func Backends(cfg types.SearchConfig, log *zap.Logger) []Backend {
	if log == nil {
		log = zap.NewNop()
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	client := &http.Client{Timeout: cfg.Timeout}
	r := httputil.Retrier{Client: client, Log: log}
	n := normalize.New(log)

	var out []Backend
	if cfg.EnableArxiv {
		out = append(out, &ArxivBackend{Retrier: r, Normalizer: n, UserAgent: ua})
	}
	if cfg.EnableSemanticScholar {
		out = append(out, &SemanticScholarBackend{Retrier: r, Normalizer: n, UserAgent: ua,
			APIKey: cfg.SemanticScholarAPIKey})
	}
	if cfg.EnableJStage {
		out = append(out, &JStageBackend{Retrier: r, Normalizer: n, UserAgent: ua})
	}
	if cfg.EnableIEEE {
		if cfg.IEEEAPIKey == "" {
			log.Warn("IEEE Xplore enabled without an API key, skipping")
		} else {
			out = append(out, &IEEEBackend{Retrier: r, Normalizer: n, UserAgent: ua, APIKey: cfg.IEEEAPIKey})
		}
	}
	if cfg.EnableGovernment {
		out = append(out, &GovernmentBackend{Retrier: r, Normalizer: n, UserAgent: ua,
			PortalIDs: cfg.GovernmentPortals, Log: log})
	}
	return out
}

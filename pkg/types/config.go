package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "review-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the source connectors.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the maximum number of records per source (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// EnableArxiv controls whether the arXiv connector is used.
	EnableArxiv bool `json:"enable_arxiv" yaml:"enable_arxiv"`

	// EnableSemanticScholar controls whether the Semantic Scholar connector is used.
	EnableSemanticScholar bool `json:"enable_semantic_scholar" yaml:"enable_semantic_scholar"`

	// EnableJStage controls whether the J-STAGE connector is used.
	EnableJStage bool `json:"enable_jstage" yaml:"enable_jstage"`

	// EnableGovernment controls whether government portals are searched.
	EnableGovernment bool `json:"enable_government" yaml:"enable_government"`

	// EnableIEEE controls whether the IEEE Xplore connector is used. It
	// needs IEEEAPIKey.
	EnableIEEE bool `json:"enable_ieee" yaml:"enable_ieee"`

	// GovernmentPortals restricts government search to these portal IDs.
	GovernmentPortals []string `json:"government_portals,omitempty" yaml:"government_portals,omitempty"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// IEEEAPIKey is the IEEE Xplore metadata API key.
	IEEEAPIKey string `json:"ieee_api_key,omitempty" yaml:"ieee_api_key,omitempty"`

	// InterQueryDelay is the pause between consecutive queries to one source (default 1s).
	InterQueryDelay time.Duration `json:"inter_query_delay" yaml:"inter_query_delay"`

	// Parallelism bounds how many sources are queried at once (default 4).
	Parallelism int `json:"parallelism" yaml:"parallelism"`
}

// ScreeningConfig holds settings for the screening stage.
type ScreeningConfig struct {
	// CriteriaFile is a JSON or YAML ScreeningCriteria file. Empty uses defaults.
	CriteriaFile string `json:"criteria_file,omitempty" yaml:"criteria_file,omitempty"`

	// Stage is the screening stage recorded on automated decisions.
	Stage Stage `json:"stage" yaml:"stage"`
}

// AIConfig holds shared settings for stages that call a text-generation API.
type AIConfig struct {
	// Provider selects the API: "gemini" (default) or "claude".
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`

	// Model is the model identifier (e.g. "gemini-2.5-flash").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Temperature is the sampling temperature.
	Temperature float32 `json:"temperature" yaml:"temperature"`
}

// ReportConfig holds settings for report generation.
type ReportConfig struct {
	AIConfig `yaml:",inline"`

	// OutputDir is the directory for generated reports (e.g. "output/reports/").
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// StoreConfig holds settings for the review database.
type StoreConfig struct {
	// Dir is the directory holding review.db and exports.
	Dir string `json:"dir" yaml:"dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// RetrievalConfig holds settings for full-text PDF retrieval.
type RetrievalConfig struct {
	HTTPConfig `yaml:",inline"`

	// Enabled downloads PDFs for included papers during a run.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Mailto is the contact address sent to OpenAlex.
	Mailto string `json:"mailto,omitempty" yaml:"mailto,omitempty"`

	// Delay is the pause between consecutive downloads (default 1s).
	Delay time.Duration `json:"delay" yaml:"delay"`
}

// PipelineConfig groups all stage configurations for a review run.
type PipelineConfig struct {
	Search    SearchConfig    `json:"search" yaml:"search"`
	Screening ScreeningConfig `json:"screening" yaml:"screening"`
	Strategy  AIConfig        `json:"strategy" yaml:"strategy"`
	Report    ReportConfig    `json:"report" yaml:"report"`
	Store     StoreConfig     `json:"store" yaml:"store"`
	Retrieval RetrievalConfig `json:"retrieval" yaml:"retrieval"`

	// DataDir is the base directory for run outputs (contains runs/<run-id>/).
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

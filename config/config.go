// Package config defines the typed configuration surface recognized by
// the engine (spec section 6): splitter, builder, incremental, retriever,
// and observability settings, loadable from a YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SplitterMode selects a text-splitter strategy.
type SplitterMode string

const (
	SplitterModeFixed     SplitterMode = "fixed"
	SplitterModeMarkdown  SplitterMode = "markdown"
	SplitterModeEmbedding SplitterMode = "embedding"
)

// RetrieverMode selects a default retrieval depth/breadth profile.
type RetrieverMode string

const (
	RetrieverModeStandard RetrieverMode = "standard"
	RetrieverModeFast     RetrieverMode = "fast"
	RetrieverModeThorough RetrieverMode = "thorough"
	RetrieverModeIncident RetrieverMode = "incident"
)

// SplitterConfig configures the text splitter (spec 4.1, 6).
type SplitterConfig struct {
	MaxTokens        int          `yaml:"max_tokens"`
	Overlap          int          `yaml:"overlap"`
	Mode             SplitterMode `yaml:"mode"`
	SemanticThreshold float64     `yaml:"semantic_threshold"`
	MinChunkTokens   int          `yaml:"min_chunk_tokens"`
}

// BuilderConfig configures the hierarchical tree builder (spec 4.6, 6).
type BuilderConfig struct {
	ReductionDimension    int            `yaml:"reduction_dimension"`
	NumLayers             *int           `yaml:"num_layers"`
	AutoDepth             bool           `yaml:"auto_depth"`
	TargetTopNodes        int            `yaml:"target_top_nodes"`
	MaxLayers             int            `yaml:"max_layers"`
	SummarizationLength   int            `yaml:"summarization_length"`
	SummarizationPerLayer map[int]int    `yaml:"summarization_per_layer"`
	SummaryMaxWorkers     int            `yaml:"summary_max_workers"`
	CheckpointDir         string         `yaml:"checkpoint_dir"`
	BudgetUSD             *float64       `yaml:"budget_usd"`
	EmbeddingModelIDs     []string       `yaml:"embedding_model_ids"`
	ClusteringModelID     string         `yaml:"clustering_model_id"`
}

// IncrementalConfig configures the incremental update engine (spec 4.7, 6).
type IncrementalConfig struct {
	SimilarityThreshold     float64 `yaml:"similarity_threshold"`
	MaxChildrenForSummary   int     `yaml:"max_children_for_summary"`
	MaxSummaryContextTokens int     `yaml:"max_summary_context_tokens"`
	UseSafePropagation      bool    `yaml:"use_safe_propagation"`
}

// RerankWeights configures the ensemble reranker's linear combination.
type RerankWeights struct {
	Similarity float64 `yaml:"similarity"`
	Importance float64 `yaml:"importance"`
	Freshness  float64 `yaml:"freshness"`
}

// RetrieverConfig configures the multi-strategy retriever (spec 4.12, 6).
type RetrieverConfig struct {
	DefaultTopK        int           `yaml:"default_top_k"`
	MaxTopK            int           `yaml:"max_top_k"`
	DefaultMode        RetrieverMode `yaml:"default_mode"`
	ParallelStrategies bool          `yaml:"parallel_strategies"`
	TimeoutSeconds     float64       `yaml:"timeout_seconds"`
	RerankWeights      RerankWeights `yaml:"rerank_weights"`
	MinScore           float64       `yaml:"min_score"`
	MaxSameSource      int           `yaml:"max_same_source"`
}

// ObservabilityConfig configures logging/debug sinks (spec 6).
type ObservabilityConfig struct {
	UsageLogPath        string   `yaml:"usage_log_path"`
	EnforceBudget       bool     `yaml:"enforce_budget"`
	SummaryDebugLogPath string   `yaml:"summary_debug_log_path"`
	DebugEvents         []string `yaml:"debug_events"`
}

// Config is the full recognized configuration surface for the engine.
type Config struct {
	Splitter      SplitterConfig      `yaml:"splitter"`
	Builder       BuilderConfig       `yaml:"builder"`
	Incremental   IncrementalConfig   `yaml:"incremental"`
	Retriever     RetrieverConfig     `yaml:"retriever"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// Default returns a Config populated with the defaults named throughout
// spec.md (section 6's defaults plus the sane-default values implied by
// the examples in section 8).
func Default() *Config {
	return &Config{
		Splitter: SplitterConfig{
			MaxTokens:         512,
			Overlap:           50,
			Mode:              SplitterModeFixed,
			SemanticThreshold: 0.5,
			MinChunkTokens:    64,
		},
		Builder: BuilderConfig{
			ReductionDimension:  5,
			AutoDepth:           true,
			TargetTopNodes:      1,
			MaxLayers:           5,
			SummarizationLength: 200,
			SummaryMaxWorkers:   4,
		},
		Incremental: IncrementalConfig{
			SimilarityThreshold:     0.25,
			MaxChildrenForSummary:   50,
			MaxSummaryContextTokens: 12000,
			UseSafePropagation:      true,
		},
		Retriever: RetrieverConfig{
			DefaultTopK:        10,
			MaxTopK:            50,
			DefaultMode:        RetrieverModeStandard,
			ParallelStrategies: true,
			TimeoutSeconds:     10,
			RerankWeights:      RerankWeights{Similarity: 0.6, Importance: 0.25, Freshness: 0.15},
			MinScore:           0.0,
			MaxSameSource:      3,
		},
	}
}

// Load reads a YAML configuration file, starting from Default() so a
// partial file only overrides the fields it names.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

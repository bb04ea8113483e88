package model

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RetrievalConfig represents the tunable parameters of the retrieval engine
type RetrievalConfig struct {
	// Relationship queries only traverse the graph above this confidence
	RelationshipThreshold float64 `yaml:"relationship_threshold" json:"relationship_threshold"`

	// Ranking parameters, expected to sum to 1.0
	VectorWeight  float64 `yaml:"vector_weight" json:"vector_weight"`
	KeywordWeight float64 `yaml:"keyword_weight" json:"keyword_weight"`

	// Candidate limits
	TopK             int `yaml:"top_k" json:"top_k"`
	StandardLimit    int `yaml:"standard_limit" json:"standard_limit"`
	AggregationLimit int `yaml:"aggregation_limit" json:"aggregation_limit"`

	// Graph traversal parameters
	MaxHops      int `yaml:"max_hops" json:"max_hops"`
	FallbackHops int `yaml:"fallback_hops" json:"fallback_hops"`

	// Cache parameters
	CacheTTL time.Duration `yaml:"cache_ttl" json:"cache_ttl"`
}

// DefaultRetrievalConfig returns the empirically chosen default configuration
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		RelationshipThreshold: 0.7,
		VectorWeight:          0.7,
		KeywordWeight:         0.3,
		TopK:                  10,
		StandardLimit:         100,
		AggregationLimit:      1000,
		MaxHops:               1,
		FallbackHops:          2,
		CacheTTL:              10 * time.Minute,
	}
}

// LoadRetrievalConfig reads a YAML file on top of the default configuration.
// Keys missing from the file keep their default value.
func LoadRetrievalConfig(path string) (RetrievalConfig, error) {
	config := DefaultRetrievalConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return config, err
	}

	return config, nil
}

// Validate returns an error if a parameter is out of range
func (c RetrievalConfig) Validate() error {
	if c.RelationshipThreshold < 0 || c.RelationshipThreshold > 1 {
		return fmt.Errorf("relationship_threshold must be between 0 and 1, got %v", c.RelationshipThreshold)
	}
	if c.VectorWeight < 0 || c.KeywordWeight < 0 {
		return fmt.Errorf("weights must not be negative, got vector=%v keyword=%v", c.VectorWeight, c.KeywordWeight)
	}
	if c.TopK <= 0 || c.StandardLimit <= 0 || c.AggregationLimit <= 0 {
		return fmt.Errorf("top_k, standard_limit and aggregation_limit must be positive")
	}
	if c.MaxHops < 1 || c.FallbackHops < 1 {
		return fmt.Errorf("max_hops and fallback_hops must be at least 1")
	}
	return nil
}

package config

import (
	"fmt"
	"time"
)

// DomainConfig holds the configurable rules of the graph editor
type DomainConfig struct {
	// Graph constraints
	MaxNodesPerGraph int
	MaxContentLength int

	// Enrichment placement
	DefaultNodeWidth float64
	TransientGap     float64

	// Enrichment request
	EnrichmentTimeout time.Duration
	Temperature       float64
	MaxTokens         int

	// Transient labels shown while an answer is pending
	ThinkingLabel      string
	ChainThinkingLabel string

	// Persistence
	MinSaveInterval time.Duration
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxNodesPerGraph: 10000,
		MaxContentLength: 50000,

		DefaultNodeWidth: 300,
		TransientGap:     50,

		EnrichmentTimeout: 30 * time.Second,
		Temperature:       0.7,
		MaxTokens:         1000,

		ThinkingLabel:      "🤔 Thinking...",
		ChainThinkingLabel: "🔗 Chained Thinking...",

		MinSaveInterval: 50 * time.Millisecond,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	cfg := DefaultDomainConfig()
	cfg.MaxNodesPerGraph = 5000
	cfg.MaxContentLength = 20000
	return cfg
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	cfg := DefaultDomainConfig()
	cfg.MaxNodesPerGraph = 100000
	cfg.EnrichmentTimeout = 60 * time.Second
	return cfg
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if c.EnrichmentTimeout <= 0 {
		return fmt.Errorf("enrichment timeout must be positive")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive")
	}
	if c.DefaultNodeWidth <= 0 {
		return fmt.Errorf("default node width must be positive")
	}
	if c.MinSaveInterval < 0 {
		return fmt.Errorf("min save interval cannot be negative")
	}
	return nil
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/wallet-topups/internal/common"
	"github.com/Veraticus/wallet-topups/internal/llm"
)

// LoadLLMConfig loads AI assist configuration. It returns ErrMissingConfig
// when no provider is set so callers can run without AI assist.
func LoadLLMConfig(v Getter) (*llm.Config, error) {
	provider := strings.ToLower(v.GetString("llm.provider"))
	if provider == "" {
		return nil, fmt.Errorf("%w: llm.provider is not set", common.ErrMissingConfig)
	}

	cfg := llm.Config{
		Provider:    provider,
		Model:       v.GetString("llm.model"),
		BaseURL:     v.GetString("llm.base_url"),
		Temperature: v.GetFloat64("llm.temperature"),
		MaxTokens:   v.GetInt("llm.max_tokens"),
		MaxRetries:  v.GetInt("llm.max_retries"),
		RetryDelay:  v.GetDuration("llm.retry_delay"),
		CacheTTL:    v.GetDuration("llm.cache_ttl"),
		RateLimit:   v.GetInt("llm.rate_limit"),
		Timeout:     v.GetDuration("llm.timeout"),
	}

	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 60
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 400
	}

	switch provider {
	case "openai":
		cfg.APIKey = stringOr(v, "llm.openai_api_key", "OPENAI_API_KEY")
		if cfg.Model == "" {
			cfg.Model = "gpt-4o-mini"
		}
	case "anthropic":
		cfg.APIKey = stringOr(v, "llm.anthropic_api_key", "ANTHROPIC_API_KEY")
		if cfg.Model == "" {
			cfg.Model = "claude-3-5-haiku-latest"
		}
	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider %q", common.ErrConfig, provider)
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: %s API key not found in config or environment", common.ErrMissingConfig, provider)
	}
	return &cfg, nil
}

package conversation

import (
	"context"

	"github.com/ElYoussoupha/TonToumaBot/internal/observability/metrics"
	"github.com/ElYoussoupha/TonToumaBot/pkg/logging"
)

// FallbackLLMClient wraps a primary LLM client with a fallback provider.
// If the primary fails, it automatically retries with the fallback.
type FallbackLLMClient struct {
	primary  LLMClient
	fallback LLMClient
	metrics  *metrics.ChatMetrics
	logger   *logging.Logger
}

// NewFallbackLLMClient creates a new fallback-enabled LLM client.
// If fallback is nil, the client will only use the primary provider.
func NewFallbackLLMClient(primary, fallback LLMClient, m *metrics.ChatMetrics, logger *logging.Logger) *FallbackLLMClient {
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackLLMClient{
		primary:  primary,
		fallback: fallback,
		metrics:  m,
		logger:   logger,
	}
}

// Complete sends a completion request to the primary LLM.
// If it fails and a fallback is configured, retries with the fallback.
func (c *FallbackLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	resp, err := c.primary.Complete(ctx, req)
	if err == nil {
		c.metrics.ObserveProviderCall("llm_primary", "complete", "ok")
		return resp, nil
	}
	c.metrics.ObserveProviderCall("llm_primary", "complete", "error")

	c.logger.Warn("primary LLM failed, attempting fallback",
		"error", err.Error(),
		"fallback_available", c.fallback != nil,
	)

	if c.fallback == nil {
		return LLMResponse{}, err
	}

	fallbackResp, fallbackErr := c.fallback.Complete(ctx, req)
	if fallbackErr != nil {
		c.metrics.ObserveProviderCall("llm_fallback", "complete", "error")
		c.logger.Error("fallback LLM also failed",
			"primary_error", err.Error(),
			"fallback_error", fallbackErr.Error(),
		)
		return LLMResponse{}, fallbackErr
	}

	c.metrics.ObserveProviderCall("llm_fallback", "complete", "ok")
	c.logger.Info("fallback LLM succeeded after primary failure")
	return fallbackResp, nil
}

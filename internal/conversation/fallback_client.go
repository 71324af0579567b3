package conversation

import (
	"context"

	"github.com/nereadiving/dive-ai-assistant/pkg/logging"
)

// FallbackLLMClient wraps a primary LLM client with a fallback provider.
// If the primary fails, the request is retried once on the fallback.
type FallbackLLMClient struct {
	primary       LLMClient
	fallback      LLMClient
	fallbackModel string
	logger        *logging.Logger
}

// NewFallbackLLMClient creates a fallback-enabled LLM client. fallbackModel
// replaces req.Model when invoking the fallback provider (Bedrock needs its
// own model id). A nil fallback means primary-only.
func NewFallbackLLMClient(primary, fallback LLMClient, fallbackModel string, logger *logging.Logger) *FallbackLLMClient {
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackLLMClient{
		primary:       primary,
		fallback:      fallback,
		fallbackModel: fallbackModel,
		logger:        logger,
	}
}

// Complete tries the primary provider, then the fallback.
func (c *FallbackLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	resp, err := c.primary.Complete(ctx, req)
	if err == nil {
		return resp, nil
	}

	c.logger.Warn("primary LLM failed, attempting fallback",
		"error", err.Error(),
		"fallback_available", c.fallback != nil,
	)

	if c.fallback == nil {
		return LLMResponse{}, err
	}

	fbReq := req
	if c.fallbackModel != "" {
		fbReq.Model = c.fallbackModel
	}
	fbResp, fbErr := c.fallback.Complete(ctx, fbReq)
	if fbErr != nil {
		c.logger.Error("fallback LLM also failed",
			"primary_error", err.Error(),
			"fallback_error", fbErr.Error(),
		)
		return LLMResponse{}, fbErr
	}

	c.logger.Info("fallback LLM succeeded after primary failure")
	return fbResp, nil
}

package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	appconfig "github.com/bentacars/qualifier/internal/config"
	"github.com/bentacars/qualifier/internal/observability/metrics"
	"github.com/bentacars/qualifier/internal/phrasing"
	"github.com/bentacars/qualifier/pkg/logging"
)

// Phrasing providers accepted by PHRASER_PROVIDER.
const (
	ProviderNone    = "none"
	ProviderOpenAI  = "openai"
	ProviderGemini  = "gemini"
	ProviderBedrock = "bedrock"
)

// BuildLLMClient returns the client for one provider pinned to its model,
// plus the model id for labeling.
func BuildLLMClient(ctx context.Context, cfg *appconfig.Config, provider string) (phrasing.LLMClient, string, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case ProviderOpenAI:
		client, err := phrasing.NewOpenAILLMClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		if err != nil {
			return nil, "", err
		}
		model := firstNonEmpty(cfg.OpenAIModel, phrasing.DefaultOpenAIModel)
		return phrasing.PinModel(client, model), model, nil
	case ProviderGemini:
		client, err := phrasing.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, "", err
		}
		return phrasing.PinModel(client, cfg.GeminiModel), cfg.GeminiModel, nil
	case ProviderBedrock:
		if strings.TrimSpace(cfg.BedrockModelID) == "" {
			return nil, "", errors.New("bootstrap: BEDROCK_MODEL_ID is required for the bedrock phraser")
		}
		awsCfg, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, "", fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		client := phrasing.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg))
		return phrasing.PinModel(client, cfg.BedrockModelID), cfg.BedrockModelID, nil
	default:
		return nil, "", fmt.Errorf("bootstrap: unknown phraser provider %q", provider)
	}
}

// BuildPhraser wires the optional LLM phraser. It returns nil when phrasing
// is disabled; a broken fallback provider is logged and skipped.
func BuildPhraser(ctx context.Context, cfg *appconfig.Config, m *metrics.TurnMetrics, logger *logging.Logger) (*phrasing.Phraser, error) {
	if cfg == nil {
		return nil, errors.New("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	provider := strings.ToLower(strings.TrimSpace(cfg.PhraserProvider))
	if provider == "" || provider == ProviderNone {
		logger.Info("phraser disabled; replies are scripted")
		return nil, nil
	}

	primary, model, err := BuildLLMClient(ctx, cfg, provider)
	if err != nil {
		return nil, err
	}

	var fallback phrasing.LLMClient
	if fb := strings.ToLower(strings.TrimSpace(cfg.FallbackProvider)); fb != "" && fb != ProviderNone && fb != provider {
		fallback, _, err = BuildLLMClient(ctx, cfg, fb)
		if err != nil {
			logger.Warn("fallback phraser unavailable", "provider", fb, "error", err)
			fallback = nil
		}
	}

	opts := []phrasing.Option{phrasing.WithMetrics(m), phrasing.WithLogger(logger)}
	if cfg.PhraseTemp >= 0 {
		opts = append(opts, phrasing.WithTemperature(float32(cfg.PhraseTemp)))
	}
	if cfg.PhraseMaxTokens > 0 {
		opts = append(opts, phrasing.WithMaxTokens(int32(cfg.PhraseMaxTokens)))
	}

	logger.Info("phraser enabled", "provider", provider, "model", model, "fallback", fallback != nil)
	client := phrasing.NewFallbackLLMClient(primary, fallback, logger.Slog())
	return phrasing.NewPhraser(client, model, opts...), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

package frontdesk

import (
	"fmt"

	"github.com/casualjim/frontdesk/provider"
	"github.com/casualjim/frontdesk/provider/openai"
)

// ModelProvider selects which AI backend a ModelConfig builds. Keeping the
// switch in one factory avoids string-keyed dispatch at call sites.
type ModelProvider string

const (
	// ModelOpenAI targets the OpenAI chat completions API.
	ModelOpenAI ModelProvider = "openai"
)

// ModelConfig describes the AI model backing a receptionist.
type ModelConfig struct {
	Provider    ModelProvider
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int64

	// Breaker, when set, wraps the model in a circuit breaker so a dead
	// backend fails fast instead of queueing turns.
	Breaker *provider.BreakerConfig
}

// buildModel is the single place a ModelProvider value becomes a concrete
// provider.
func buildModel(cfg ModelConfig) (provider.Model, error) {
	var model provider.Model
	switch cfg.Provider {
	case ModelOpenAI, "":
		model = openai.New(openai.Config{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		})
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}

	if cfg.Breaker != nil {
		model = provider.NewBreaker(model, *cfg.Breaker)
	}
	return model, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package encoder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/pdiddy/litscout/internal/httputil"
	"github.com/pdiddy/litscout/pkg/types"
)

// DefaultOpenAIModel matches the model used to embed the stored records.
const DefaultOpenAIModel = openai.SmallEmbedding3

// OpenAI embeds text through the OpenAI embeddings API or any compatible
// endpoint.
type OpenAI struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAI creates an OpenAI encoder. A key is required unless BaseURL
// points at a compatible server.
func NewOpenAI(cfg types.EncoderConfig) (*OpenAI, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, ErrMissingAPIKey
	}
	model := openai.EmbeddingModel(cfg.Model)
	if model == "" {
		model = DefaultOpenAIModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	httpClient := httputil.NewClient(http.DefaultTransport, cfg.MaxRetries)
	httpClient.Timeout = timeout
	oc.HTTPClient = httpClient

	return &OpenAI{client: openai.NewClientWithConfig(oc), model: model}, nil
}

// Embed implements Encoder.
func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: o.model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, ErrEmptyEmbedding
	}
	return resp.Data[0].Embedding, nil
}

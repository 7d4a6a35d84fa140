// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package encoder turns query text into an embedding using an external
// embedding service. The model must be the one that produced the stored
// paper and concept embeddings, otherwise similarities are meaningless.
package encoder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/litscout/internal/secrets"
	"github.com/pdiddy/litscout/pkg/types"
)

// MaxQueryBytes is the default cap on query text. Uploaded papers are cut to
// their opening section, which carries the title and abstract.
const MaxQueryBytes = 8000

var (
	// ErrEmptyText is returned when there is nothing to encode.
	ErrEmptyText = errors.New("query text is empty")

	// ErrMissingAPIKey is returned when the OpenAI backend has no key and no
	// custom endpoint.
	ErrMissingAPIKey = errors.New("openai api key not set: add .secrets/openai-api-key or OPENAI_API_KEY")

	// ErrEmptyEmbedding is returned when the service answers without a vector.
	ErrEmptyEmbedding = errors.New("encoder returned an empty embedding")
)

// Encoder embeds one query text.
type Encoder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Func adapts a function to the Encoder interface.
type Func func(ctx context.Context, text string) ([]float32, error)

// Embed calls f.
func (f Func) Embed(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}

// New builds the encoder selected by cfg.Backend. Credentials come from cfg
// first, then from the secrets set.
func New(cfg types.EncoderConfig, s secrets.Secrets) (Encoder, error) {
	switch cfg.Backend {
	case types.EncoderOpenAI, "":
		if cfg.APIKey == "" {
			cfg.APIKey = s.Get(secrets.OpenAIAPIKey)
		}
		return NewOpenAI(cfg)
	case types.EncoderOllama:
		if cfg.BaseURL == "" {
			cfg.BaseURL = s.Get(secrets.OllamaURL)
		}
		return NewOllama(cfg), nil
	}
	return nil, fmt.Errorf("unknown encoder backend %q", cfg.Backend)
}

// PrepareText trims text and cuts it to at most max bytes on a rune
// boundary. Invalid UTF-8 bytes are dropped wherever they occur. A
// non-positive max uses MaxQueryBytes.
func PrepareText(text string, max int) (string, error) {
	if max <= 0 {
		max = MaxQueryBytes
	}
	text = strings.TrimSpace(text)
	if len(text) > max {
		cut := max
		for back := 0; cut > 0 && back < utf8.UTFMax && !utf8.RuneStart(text[cut]); back++ {
			cut--
		}
		text = text[:cut]
	}
	text = strings.TrimSpace(strings.ToValidUTF8(text, ""))
	if text == "" {
		return "", ErrEmptyText
	}
	return text, nil
}

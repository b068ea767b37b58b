package openai

import (
	"context"
	"strings"

	cache "github.com/patrickmn/go-cache"
)

// Translator renders the [CURRENT] sentence of a context block into the
// target language. Results are memoized: children reread the same pages.
type Translator struct {
	client *Client
}

func NewTranslator(client *Client) *Translator {
	return &Translator{client: client}
}

type translationResult struct {
	TranslatedText string `json:"translated_text"`
}

func (t *Translator) Translate(ctx context.Context, contextBlock, targetLang string) (string, error) {
	cacheKey := targetLang + "\x1f" + contextBlock
	if cached, ok := t.client.translations.Get(cacheKey); ok {
		return cached.(string), nil
	}

	var result translationResult
	err := t.client.chatStructured(ctx, "llm.translate", translationSystemPrompt(targetLang), contextBlock, "translation", &result)
	if err != nil {
		return "", err
	}

	translated := strings.TrimSpace(result.TranslatedText)
	if translated != "" {
		t.client.translations.Set(cacheKey, translated, cache.DefaultExpiration)
	}
	return translated, nil
}

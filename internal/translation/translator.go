package translation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"codeberg.org/ostrova/agora/internal/card"
)

var languageNames = map[card.Language]string{
	card.LanguageEnglish: "English",
	card.LanguageGerman:  "German",
}

// chatCompleter is the slice of the OpenAI client the translator needs
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Translator translates contributed text cards between the supported
// languages. Calls go through a circuit breaker so a flaky or offline
// API degrades to fast failures instead of stalling every contribution.
type Translator struct {
	apiKey  string
	client  chatCompleter
	breaker *gobreaker.CircuitBreaker
	cache   *TranslationCache
}

// NewTranslator creates a new translator instance
func NewTranslator(apiKey string) *Translator {
	return &Translator{
		apiKey:  apiKey,
		client:  openai.NewClient(apiKey),
		breaker: newBreaker(),
		cache:   NewTranslationCache(),
	}
}

func newBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "openai-translation",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
}

// Translate renders text from one supported language into the other.
// Results are cached per text and direction.
func (t *Translator) Translate(ctx context.Context, text string, from, to card.Language) (string, error) {
	if t.apiKey == "" {
		return "", fmt.Errorf("OpenAI API key not found")
	}
	if from == to {
		return text, nil
	}
	fromName, ok := languageNames[from]
	if !ok {
		return "", fmt.Errorf("unsupported source language: %s", from)
	}
	toName, ok := languageNames[to]
	if !ok {
		return "", fmt.Errorf("unsupported target language: %s", to)
	}

	key := cacheKey(text, from, to)
	if cached, ok := t.cache.Get(key); ok {
		return cached, nil
	}

	req := openai.ChatCompletionRequest{
		Model: openai.GPT4oMini,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Translate the following %s text to %s. Respond with only the translation, nothing else.\n\n%s",
					fromName, toName, text),
			},
		},
		MaxTokens:   200,
		Temperature: 0.3,
	}

	result, err := t.breaker.Execute(func() (interface{}, error) {
		resp, err := t.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", fmt.Errorf("OpenAI API error: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("no translation returned")
		}
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	})
	if err != nil {
		return "", err
	}

	translated := result.(string)
	t.cache.Add(key, translated)
	return translated, nil
}

// TranslateOrOriginal is the best-effort variant used when displaying
// contributions in the other language: a failed translation falls back
// to the untranslated text.
func (t *Translator) TranslateOrOriginal(ctx context.Context, text string, from, to card.Language) string {
	translated, err := t.Translate(ctx, text, from, to)
	if err != nil {
		return text
	}
	return translated
}

func cacheKey(text string, from, to card.Language) string {
	return fmt.Sprintf("%s:%s:%s", from, to, text)
}

// TranslationCache stores translations in memory for a session
type TranslationCache struct {
	mu           sync.RWMutex
	translations map[string]string
}

// NewTranslationCache creates a new translation cache
func NewTranslationCache() *TranslationCache {
	return &TranslationCache{
		translations: make(map[string]string),
	}
}

// Add adds a translation to the cache
func (tc *TranslationCache) Add(key, translation string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.translations[key] = translation
}

// Get retrieves a translation from the cache
func (tc *TranslationCache) Get(key string) (string, bool) {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	translation, ok := tc.translations[key]
	return translation, ok
}

// GetAll returns all cached translations
func (tc *TranslationCache) GetAll() map[string]string {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	// Return a copy to prevent external modification
	result := make(map[string]string)
	for k, v := range tc.translations {
		result[k] = v
	}
	return result
}

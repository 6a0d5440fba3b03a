package translation

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"codeberg.org/ostrova/agora/internal/card"
)

type fakeChatClient struct {
	reply string
	err   error
	calls int
}

func (f *fakeChatClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.reply}},
		},
	}, nil
}

func newFakeTranslator(client chatCompleter) *Translator {
	return &Translator{
		apiKey:  "test-api-key",
		client:  client,
		breaker: newBreaker(),
		cache:   NewTranslationCache(),
	}
}

func TestNewTranslator(t *testing.T) {
	translator := NewTranslator("test-api-key")

	if translator == nil {
		t.Fatal("NewTranslator returned nil")
	}

	if translator.apiKey != "test-api-key" {
		t.Errorf("Expected API key 'test-api-key', got '%s'", translator.apiKey)
	}

	if translator.client == nil {
		t.Error("OpenAI client not initialized")
	}
}

func TestTranslate_NoAPIKey(t *testing.T) {
	translator := NewTranslator("")

	_, err := translator.Translate(context.Background(), "Bürgerrat", card.LanguageGerman, card.LanguageEnglish)
	if err == nil {
		t.Error("Expected error for missing API key")
	}

	if err.Error() != "OpenAI API key not found" {
		t.Errorf("Expected 'OpenAI API key not found' error, got: %v", err)
	}
}

func TestTranslate_SameLanguage(t *testing.T) {
	client := &fakeChatClient{reply: "should not be used"}
	translator := newFakeTranslator(client)

	got, err := translator.Translate(context.Background(), "deliberation", card.LanguageEnglish, card.LanguageEnglish)
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got != "deliberation" {
		t.Errorf("Expected passthrough, got '%s'", got)
	}
	if client.calls != 0 {
		t.Error("Same-language translation should not call the API")
	}
}

func TestTranslate_UnsupportedLanguage(t *testing.T) {
	translator := newFakeTranslator(&fakeChatClient{reply: "x"})

	_, err := translator.Translate(context.Background(), "text", card.Language("fr"), card.LanguageEnglish)
	if err == nil {
		t.Error("Expected error for unsupported source language")
	}
}

func TestTranslate_CachesPerDirection(t *testing.T) {
	client := &fakeChatClient{reply: "citizens' assembly"}
	translator := newFakeTranslator(client)
	ctx := context.Background()

	first, err := translator.Translate(ctx, "Bürgerrat", card.LanguageGerman, card.LanguageEnglish)
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	second, err := translator.Translate(ctx, "Bürgerrat", card.LanguageGerman, card.LanguageEnglish)
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	if first != "citizens' assembly" || second != first {
		t.Errorf("Expected cached translation, got '%s' then '%s'", first, second)
	}
	if client.calls != 1 {
		t.Errorf("Expected 1 API call, got %d", client.calls)
	}

	// The reverse direction is a separate cache entry
	if _, err := translator.Translate(ctx, "Bürgerrat", card.LanguageEnglish, card.LanguageGerman); err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if client.calls != 2 {
		t.Errorf("Expected 2 API calls after direction change, got %d", client.calls)
	}
}

func TestTranslateOrOriginal_FallsBack(t *testing.T) {
	client := &fakeChatClient{err: errors.New("connection refused")}
	translator := newFakeTranslator(client)

	got := translator.TranslateOrOriginal(context.Background(), "Losverfahren", card.LanguageGerman, card.LanguageEnglish)
	if got != "Losverfahren" {
		t.Errorf("Expected original text on failure, got '%s'", got)
	}
}

func TestTranslate_BreakerOpensAfterFailures(t *testing.T) {
	client := &fakeChatClient{err: errors.New("connection refused")}
	translator := newFakeTranslator(client)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := translator.Translate(ctx, "Konsens", card.LanguageGerman, card.LanguageEnglish); err == nil {
			t.Fatal("Expected error from failing client")
		}
	}

	callsBefore := client.calls
	_, err := translator.Translate(ctx, "Konsens", card.LanguageGerman, card.LanguageEnglish)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Expected open breaker error, got: %v", err)
	}
	if client.calls != callsBefore {
		t.Error("Open breaker should short-circuit without calling the API")
	}
}

func TestTranslate_Integration(t *testing.T) {
	// Skip if no API key
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test: OPENAI_API_KEY not set")
	}

	translator := NewTranslator(apiKey)

	translation, err := translator.Translate(context.Background(), "Bürgerrat", card.LanguageGerman, card.LanguageEnglish)
	if err != nil {
		t.Errorf("Translate failed: %v", err)
	}

	if translation == "" {
		t.Error("Got empty translation")
	}

	t.Logf("Translation of 'Bürgerrat': %s", translation)
}

func TestTranslationCache(t *testing.T) {
	cache := NewTranslationCache()

	// Test empty cache
	_, found := cache.Get("de:en:Bürgerrat")
	if found {
		t.Error("Expected not found in empty cache")
	}

	// Test adding and retrieving
	cache.Add("de:en:Bürgerrat", "citizens' assembly")
	cache.Add("de:en:Losverfahren", "sortition")

	translation, found := cache.Get("de:en:Bürgerrat")
	if !found {
		t.Error("Expected to find entry in cache")
	}
	if translation != "citizens' assembly" {
		t.Errorf("Expected \"citizens' assembly\", got '%s'", translation)
	}

	// Test overwriting
	cache.Add("de:en:Bürgerrat", "citizens' council")
	translation, found = cache.Get("de:en:Bürgerrat")
	if !found || translation != "citizens' council" {
		t.Errorf("Expected 'citizens' council', got '%s'", translation)
	}
}

func TestTranslationCache_GetAll(t *testing.T) {
	cache := NewTranslationCache()

	cache.Add("de:en:Bürgerrat", "citizens' assembly")
	cache.Add("de:en:Losverfahren", "sortition")

	all := cache.GetAll()

	expected := map[string]string{
		"de:en:Bürgerrat":    "citizens' assembly",
		"de:en:Losverfahren": "sortition",
	}

	if !reflect.DeepEqual(all, expected) {
		t.Errorf("GetAll() = %v, want %v", all, expected)
	}

	// Test that modifying returned map doesn't affect cache
	all["de:en:Bürgerrat"] = "modified"

	translation, _ := cache.Get("de:en:Bürgerrat")
	if translation != "citizens' assembly" {
		t.Error("Cache was modified through returned map")
	}
}

func TestTranslationCache_EmptyCache(t *testing.T) {
	cache := NewTranslationCache()

	all := cache.GetAll()
	if len(all) != 0 {
		t.Errorf("Expected empty map, got %v", all)
	}
}

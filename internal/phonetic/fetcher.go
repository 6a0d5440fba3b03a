package phonetic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/ostrova/agora/internal/card"
)

var languageNames = map[card.Language]string{
	card.LanguageEnglish: "English",
	card.LanguageGerman:  "German",
}

// Fetcher handles fetching pronunciation breakdowns for vocabulary terms
type Fetcher struct {
	apiKey string
	client *openai.Client
}

// NewFetcher creates a new phonetic information fetcher
func NewFetcher(apiKey string) *Fetcher {
	return &Fetcher{
		apiKey: apiKey,
		client: openai.NewClient(apiKey),
	}
}

// Fetch returns a symbol-by-symbol pronunciation breakdown for a term
// in the given language.
func (f *Fetcher) Fetch(ctx context.Context, term string, language card.Language) (string, error) {
	if f.apiKey == "" {
		return "", fmt.Errorf("OpenAI API key not configured")
	}
	languageName, ok := languageNames[language]
	if !ok {
		return "", fmt.Errorf("unsupported language: %s", language)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: openai.GPT4o,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf("You are a %s language expert helping learners understand pronunciation. Provide detailed phonetic information using the International Phonetic Alphabet (IPA). For each IPA symbol used, give concrete examples of how it sounds using familiar words.", languageName),
			},
			{
				Role: openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(`For the %s term '%s':
1. Provide the complete IPA transcription
2. Break down EACH phonetic symbol used in the transcription
3. For EVERY symbol, explain how it's pronounced with examples
4. Include stress marks and explain which syllable is stressed

Example format:
Term: [IPA transcription]
• /d/ - like 'd' in 'door'
• /ˈ/ - stress mark (following syllable is stressed)`, languageName, term),
			},
		},
		Temperature: 0.3,
		MaxTokens:   500,
	}

	resp, err := f.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

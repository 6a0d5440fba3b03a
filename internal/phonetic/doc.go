// Package phonetic provides functionality for fetching detailed phonetic
// information about vocabulary terms using OpenAI's GPT models. It generates
// IPA transcriptions with detailed explanations for language learners.
package phonetic

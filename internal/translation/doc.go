// Package translation renders contributed text cards between English
// and German using the OpenAI API. It includes in-memory caching per
// text and direction, and a circuit breaker around the remote calls.
package translation

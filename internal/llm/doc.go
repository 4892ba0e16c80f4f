// Package llm provides language model clients that extract payment details
// from bank alert emails. It supports OpenAI and Anthropic, with retry logic,
// rate limiting, and response caching.
package llm

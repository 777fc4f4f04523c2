// Package openai implements ai.Provider with the official openai-go SDK and
// the /chat/completions endpoint, so any OpenAI-compatible server works.
//
// [New] reads OPENAI_API_KEY and OPENAI_API_BASE_URL from the environment;
// [OpenAIProvider.WithAPIKey] and [OpenAIProvider.WithBaseURL] override
// them.
package openai

// Package gemini implements [ai.Provider] over Google's Gemini
// generateContent REST endpoint.
//
// [New] reads GOOGLE_API_KEY (or GEMINI_API_KEY) and GEMINI_API_BASE_URL
// from the environment. Tool results are sent back as functionResponse
// parts; tool declarations are stripped of schema keywords Gemini rejects.
package gemini

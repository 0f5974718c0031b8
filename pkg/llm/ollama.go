package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

// OllamaHandler implements the Analyzer interface for a local Ollama server.
type OllamaHandler struct {
	model     string
	systemMsg string
	logger    *logrus.Logger
	ollamaURL string
}

// NewOllamaHandler creates a new Ollama handler
func NewOllamaHandler(ollamaURL, model, systemPrompt string, logger *logrus.Logger) *OllamaHandler {
	return &OllamaHandler{
		model:     model,
		systemMsg: systemPrompt,
		logger:    logger,
		ollamaURL: ollamaURL,
	}
}

// Analyze queries Ollama's generate endpoint with text and gets a response
func (h *OllamaHandler) Analyze(ctx context.Context, text, contextTag string) (string, error) {
	prompt := text
	if contextTag != "" {
		prompt = fmt.Sprintf("[context: %s]\n%s", contextTag, text)
	}
	requestBody := map[string]interface{}{
		"model":  h.model,
		"system": h.systemMsg,
		"prompt": prompt,
		"stream": false,
	}
	body, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/api/generate", h.ollamaURL), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	h.logger.WithField("chars", len(response.Response)).Debug("ollama generate ok")
	return response.Response, nil
}

// Reset clears the conversation history for Ollama (stateless per request)
func (h *OllamaHandler) Reset() {}

package llm

import (
	"context"
	"fmt"
	"sync"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// OpenAIHandler implements the Analyzer interface over any OpenAI-compatible
// chat-completion endpoint.
type OpenAIHandler struct {
	client    *openai.Client
	model     string
	systemMsg string
	logger    *logrus.Logger

	mu       sync.Mutex
	messages []openai.ChatCompletionMessage
}

// NewOpenAIHandler creates a new OpenAI-backed handler
func NewOpenAIHandler(apiKey, baseURL, model, systemPrompt string, logger *logrus.Logger) *OpenAIHandler {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	h := &OpenAIHandler{
		client:    openai.NewClientWithConfig(cfg),
		model:     model,
		systemMsg: systemPrompt,
		logger:    logger,
	}
	h.Reset()
	return h
}

// Analyze queries the model with text and gets a response
func (h *OpenAIHandler) Analyze(ctx context.Context, text, contextTag string) (string, error) {
	h.mu.Lock()
	messages := make([]openai.ChatCompletionMessage, len(h.messages), len(h.messages)+1)
	copy(messages, h.messages)
	h.mu.Unlock()

	prompt := text
	if contextTag != "" {
		prompt = fmt.Sprintf("[context: %s]\n%s", contextTag, text)
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := h.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    h.model,
		Messages: messages,
	})
	if err != nil {
		h.logger.WithError(err).Warn("chat completion failed")
		return "", fmt.Errorf("failed to query model: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}

	content := resp.Choices[0].Message.Content
	h.logger.WithField("chars", len(content)).Debug("chat completion ok")
	return content, nil
}

// Reset clears the conversation history
func (h *OpenAIHandler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: h.systemMsg},
	}
}

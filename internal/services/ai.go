package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// NoteSummarizer condenses the notes written on a task's timer transitions
// into a one-line timesheet description.
type NoteSummarizer interface {
	SummarizeNotes(ctx context.Context, taskName string, notes []string) (string, error)
}

// AIService summarizes timer notes with the OpenAI chat API.
type AIService struct {
	client *openai.Client
	model  string
}

func NewAIService(apiKey string) *AIService {
	return NewAIServiceWithConfig(openai.DefaultConfig(apiKey))
}

// NewAIServiceWithConfig allows pointing the client at another base URL.
func NewAIServiceWithConfig(cfg openai.ClientConfig) *AIService {
	return &AIService{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.GPT4oMini,
	}
}

// SummarizeNotes returns a single-sentence description of the work described by notes.
func (s *AIService) SummarizeNotes(ctx context.Context, taskName string, notes []string) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("OpenAI client not initialized")
	}
	if len(notes) == 0 {
		return "", nil
	}

	var b strings.Builder
	for _, n := range notes {
		b.WriteString("- ")
		b.WriteString(n)
		b.WriteByte('\n')
	}

	prompt := fmt.Sprintf(`You write timesheet line items.
Summarize the work notes below for the task %q in one sentence of at most 200 characters.
Return only the sentence.

Notes:
%s`, taskName, b.String())

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.2,
		},
	)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

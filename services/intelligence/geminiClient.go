// File: services/intelligence/geminiClient.go
package intelligence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"autoshop/models"
)

const DefaultGeminiModel = "models/gemini-1.5-pro"

// GeminiClient completes diagnosis conversations with Google's Gemini models.
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, modelName: modelName}, nil
}

// Complete sends the last user turn with everything before it as chat history. System turns
// become the model's system instruction.
func (g *GeminiClient) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	system, history, last, err := splitConversation(messages)
	if err != nil {
		return "", err
	}

	model := g.client.GenerativeModel(g.modelName)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	cs := model.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return "", fmt.Errorf("gemini generate error: %w", err)
	}
	return replyText(resp)
}

func (g *GeminiClient) Close() error {
	return g.client.Close()
}

func splitConversation(messages []models.ChatMessage) (string, []*genai.Content, string, error) {
	if len(messages) == 0 || messages[len(messages)-1].Role != models.RoleUser {
		return "", nil, "", errors.New("conversation must end with a user turn")
	}
	var system []string
	var history []*genai.Content
	for _, m := range messages[:len(messages)-1] {
		switch m.Role {
		case models.RoleSystem:
			system = append(system, m.Content)
		case models.RoleAssistant:
			history = appendTurn(history, "model", m.Content)
		default:
			history = appendTurn(history, "user", m.Content)
		}
	}
	return strings.Join(system, "\n\n"), history, messages[len(messages)-1].Content, nil
}

// appendTurn folds consecutive turns of one role together; a user turn whose reply failed
// is followed by the next question.
func appendTurn(history []*genai.Content, role, text string) []*genai.Content {
	if n := len(history); n > 0 && history[n-1].Role == role {
		history[n-1].Parts = append(history[n-1].Parts, genai.Text(text))
		return history
	}
	return append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(text)}})
}

func replyText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini returned no candidates")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}
	return sb.String(), nil
}

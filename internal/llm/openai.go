package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"therapy-agent/internal/emotion"
)

// HistoricalBucket keys the combined record inside a historical-mode
// request's SessionEmotions map.
const HistoricalBucket = "historical"

// EmotionPayload is one timeline/summary pair inside an agent request.
type EmotionPayload struct {
	Timeline emotion.Timeline `json:"timeline"`
	Summary  emotion.Summary  `json:"emotion_summary"`
}

// AgentRequest is the outbound payload for one conversational turn.  In
// historical mode SessionEmotions holds a single combined record under
// HistoricalBucket; in session-scoped mode it maps each selected session
// id to that session's own record and SessionIDs lists the selection.
type AgentRequest struct {
	Message         string                    `json:"message"`
	PatientID       int                       `json:"patient_id,omitempty"`
	SessionIDs      []int                     `json:"session_ids,omitempty"`
	SessionEmotions map[string]EmotionPayload `json:"session_emotions,omitempty"`
}

// Client generates recommendation replies for agent requests.  Errors are
// returned as-is so the caller can decide what to do with the pending
// message; implementations must not substitute fallback reply text.
type Client interface {
	Recommend(ctx context.Context, req AgentRequest) (string, error)
}

// systemPrompt frames the agent: it analyzes facial-emotion data from
// therapy sessions and offers recommendations, never diagnoses.
const systemPrompt = "You are an assistant for therapy clinicians. You are given " +
	"per-second facial-emotion timelines and per-emotion occurrence counts " +
	"recorded during a patient's therapy sessions. Analyze the data and answer " +
	"the clinician's question with concrete, practical recommendations in " +
	"markdown. Your answers are suggestions based on data analysis, never " +
	"definitive diagnoses. If the data is empty or inconclusive, say so."

// OpenAIClient calls the OpenAI chat completion API to produce
// recommendations.  Credentials and the model name come from the caller's
// configuration.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient constructs an OpenAI-backed agent client.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIClient{client: openai.NewClient(apiKey), model: model}
}

// Recommend serializes the request's emotion context into the prompt and
// returns the assistant's reply.
func (c *OpenAIClient) Recommend(ctx context.Context, req AgentRequest) (string, error) {
	if c.client == nil {
		return "", errors.New("openai client not initialized")
	}
	messages, err := buildMessages(req)
	if err != nil {
		return "", err
	}
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

// buildMessages turns an AgentRequest into the chat completion message
// list: system prompt, the emotion context as a JSON document, then the
// clinician's question.
func buildMessages(req AgentRequest) ([]openai.ChatCompletionMessage, error) {
	contextDoc, err := json.Marshal(struct {
		PatientID       int                       `json:"patient_id,omitempty"`
		SessionIDs      []int                     `json:"session_ids,omitempty"`
		SessionEmotions map[string]EmotionPayload `json:"session_emotions,omitempty"`
	}{req.PatientID, req.SessionIDs, req.SessionEmotions})
	if err != nil {
		return nil, fmt.Errorf("marshal emotion context: %w", err)
	}
	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleSystem, Content: "Emotion data for this conversation:\n" + string(contextDoc)},
		{Role: openai.ChatMessageRoleUser, Content: req.Message},
	}, nil
}

package llm

import (
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"therapy-agent/internal/emotion"
)

func TestBuildMessages(t *testing.T) {
	req := AgentRequest{
		Message:    "is the patient improving?",
		PatientID:  3,
		SessionIDs: []int{7, 9},
		SessionEmotions: map[string]EmotionPayload{
			"7": {
				Timeline: emotion.Timeline{0: "happy"},
				Summary:  emotion.Summary{"happy": 1},
			},
		},
	}

	messages, err := buildMessages(req)

	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, openai.ChatMessageRoleSystem, messages[0].Role)
	assert.Equal(t, systemPrompt, messages[0].Content)
	assert.Equal(t, openai.ChatMessageRoleSystem, messages[1].Role)
	assert.Contains(t, messages[1].Content, `"session_ids":[7,9]`)
	assert.Contains(t, messages[1].Content, `"happy"`)
	assert.Equal(t, openai.ChatMessageRoleUser, messages[2].Role)
	assert.Equal(t, "is the patient improving?", messages[2].Content)
}

func TestBuildMessagesOmitsEmptyContext(t *testing.T) {
	messages, err := buildMessages(AgentRequest{Message: "hello"})

	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.NotContains(t, messages[1].Content, "session_ids")
	assert.NotContains(t, messages[1].Content, "session_emotions")
}

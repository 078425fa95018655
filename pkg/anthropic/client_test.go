package anthropic

import (
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSDKMessage(t *testing.T) {
	sdkMsg := &sdk.Message{
		ID:         "msg_test_123",
		Model:      "claude-sonnet-4-5",
		StopReason: "end_turn",
		Content: []sdk.ContentBlockUnion{
			{Type: "text", Text: "Hello world. "},
			{Type: "text", Text: "Second block."},
		},
		Usage: sdk.Usage{
			InputTokens:  100,
			OutputTokens: 50,
		},
	}

	resp := fromSDKMessage(sdkMsg)
	require.NotNil(t, resp)
	assert.Equal(t, "msg_test_123", resp.ID)
	assert.Equal(t, "claude-sonnet-4-5", resp.Model)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, "Hello world. Second block.", resp.Text)
	assert.Equal(t, int64(100), resp.Usage.InputTokens)
	assert.Equal(t, int64(50), resp.Usage.OutputTokens)
}

func TestFromSDKMessage_EmptyContent(t *testing.T) {
	sdkMsg := &sdk.Message{
		ID:         "msg_empty",
		Model:      "claude-3-5-haiku-latest",
		StopReason: "max_tokens",
	}

	resp := fromSDKMessage(sdkMsg)
	require.NotNil(t, resp)
	assert.Empty(t, resp.Text)
	assert.Equal(t, "max_tokens", resp.StopReason)
	assert.Equal(t, int64(0), resp.Usage.InputTokens)
}

func TestFromSDKMessage_SkipsNonTextBlocks(t *testing.T) {
	sdkMsg := &sdk.Message{
		ID: "msg_mixed",
		Content: []sdk.ContentBlockUnion{
			{Type: "tool_use"},
			{Type: "text", Text: "kept"},
		},
	}

	resp := fromSDKMessage(sdkMsg)
	assert.Equal(t, "kept", resp.Text)
}

func TestToSDKMessages_MixedRoles(t *testing.T) {
	msgs := []Message{
		{Role: "user", Content: "Question"},
		{Role: "assistant", Content: "Answer"},
		{Role: "user", Content: "Follow-up"},
	}
	sdkMsgs := toSDKMessages(msgs)
	require.Len(t, sdkMsgs, 3)
}

func TestToSDKMessages_UnknownRoleDefaultsToUser(t *testing.T) {
	msgs := []Message{
		{Role: "unknown", Content: "text"},
	}
	sdkMsgs := toSDKMessages(msgs)
	require.Len(t, sdkMsgs, 1)
}

func TestToSDKMessages_Empty(t *testing.T) {
	sdkMsgs := toSDKMessages(nil)
	assert.Empty(t, sdkMsgs)
}

func TestToSDKParams(t *testing.T) {
	temp := 0.2
	req := MessageRequest{
		Model:       "claude-3-5-haiku-latest",
		MaxTokens:   1024,
		System:      "Answer briefly.",
		Messages:    []Message{{Role: "user", Content: "hi"}},
		Temperature: &temp,
	}

	params := toSDKParams(req)
	assert.Equal(t, sdk.Model("claude-3-5-haiku-latest"), params.Model)
	assert.Equal(t, int64(1024), params.MaxTokens)
	require.Len(t, params.System, 1)
	assert.Equal(t, "Answer briefly.", params.System[0].Text)
	require.Len(t, params.Messages, 1)
}

func TestToSDKParams_NoSystem(t *testing.T) {
	params := toSDKParams(MessageRequest{
		Model:     "claude-3-5-haiku-latest",
		MaxTokens: 256,
	})
	assert.Empty(t, params.System)
}

func TestNewClient_ReturnsNonNil(t *testing.T) {
	client := NewClient("test-api-key")
	require.NotNil(t, client)
}

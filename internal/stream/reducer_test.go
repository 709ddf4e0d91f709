package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduceFullTurn(t *testing.T) {
	events := []Event{
		ThinkingStartEvent(),
		ThinkingEndEvent(),
		TextEvent("Creating the "),
		TextEvent("header now."),
		ToolCallPreviewEvent("call_1", "create_file", nil),
		ToolCallBuildingEvent("call_1", "create_file", nil, 64),
		ToolCallStartEvent("call_1", "create_file", map[string]interface{}{"path": "/src/Header.tsx"}),
		ToolCallCompleteEvent("call_1", map[string]interface{}{"success": true, "path": "/src/Header.tsx"}),
		DoneEvent(),
	}

	state := Reduce(events)

	assert.Equal(t, "Creating the header now.", state.AssistantText)
	assert.False(t, state.Thinking)
	assert.True(t, state.Done)

	require.Equal(t, []string{"call_1"}, state.ToolCallOrder)
	call := state.ToolCalls["call_1"]
	require.NotNil(t, call)
	assert.Equal(t, "create_file", call.Name)
	assert.Equal(t, ToolStatusCompleted, call.Status)
	assert.Equal(t, "/src/Header.tsx", call.Result["path"])
}

func TestReduceToolStatusProgression(t *testing.T) {
	state := NewUIState()

	state.Apply(ToolCallPreviewEvent("call_1", "update_file", nil))
	assert.Equal(t, ToolStatusPlanned, state.ToolCalls["call_1"].Status)

	state.Apply(ToolCallBuildingEvent("call_1", "update_file", nil, 10))
	assert.Equal(t, ToolStatusBuilding, state.ToolCalls["call_1"].Status)
	require.NotNil(t, state.ToolCalls["call_1"].Progress)
	assert.Equal(t, 10, state.ToolCalls["call_1"].Progress.ArgsLength)

	state.Apply(ToolCallStartEvent("call_1", "update_file", nil))
	assert.Equal(t, ToolStatusInProgress, state.ToolCalls["call_1"].Status)

	state.Apply(ToolCallErrorEvent("call_1", "file /x.ts not found"))
	assert.Equal(t, ToolStatusError, state.ToolCalls["call_1"].Status)
	assert.Equal(t, "file /x.ts not found", state.ToolCalls["call_1"].Error)
}

func TestReduceInterleavedToolCallsKeepOrder(t *testing.T) {
	state := NewUIState()
	state.Apply(ToolCallPreviewEvent("call_1", "create_file", nil))
	state.Apply(ToolCallPreviewEvent("call_2", "read_file", nil))
	state.Apply(ToolCallCompleteEvent("call_2", map[string]interface{}{"success": true}))
	state.Apply(ToolCallCompleteEvent("call_1", map[string]interface{}{"success": true}))

	assert.Equal(t, []string{"call_1", "call_2"}, state.ToolCallOrder)
	assert.Equal(t, ToolStatusCompleted, state.ToolCalls["call_1"].Status)
	assert.Equal(t, ToolStatusCompleted, state.ToolCalls["call_2"].Status)
}

func TestReduceTruncationStatus(t *testing.T) {
	state := Reduce([]Event{
		TextEvent("partial work"),
		StatusEvent("truncated", "stopping early: iteration budget reached before the task finished"),
		DoneEvent(),
	})
	assert.Equal(t, "truncated", state.Status)
	assert.True(t, state.Done)
}

func TestReduceErrorEvent(t *testing.T) {
	state := Reduce([]Event{
		ThinkingStartEvent(),
		ErrorEvent("model timed out", true),
		DoneEvent(),
	})
	assert.Equal(t, "model timed out", state.Error)
	assert.True(t, state.Recoverable)
	assert.True(t, state.Done)
	assert.False(t, state.Thinking)
}

func TestReduceIgnoresUnknownEventTypes(t *testing.T) {
	state := NewUIState()
	state.Apply(Event{Type: "telemetry-v2"})
	assert.Empty(t, state.AssistantText)
	assert.False(t, state.Done)
}

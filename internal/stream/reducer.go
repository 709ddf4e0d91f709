package stream

const (
	ToolStatusPlanned    = "planned"
	ToolStatusBuilding   = "building"
	ToolStatusInProgress = "in-progress"
	ToolStatusCompleted  = "completed"
	ToolStatusError      = "error"
)

// ToolCallState is the per-call state machine the client rebuilds purely
// from the event sequence: planned → building* → in-progress →
// completed|error.
type ToolCallState struct {
	ID        string
	Name      string
	Status    string
	Args      map[string]interface{}
	Result    map[string]interface{}
	Error     string
	StartTime int64
	EndTime   int64
	Progress  *Progress
}

// UIState is the reduction of one turn's event stream into what the chat UI
// renders.
type UIState struct {
	AssistantText string
	ToolCalls     map[string]*ToolCallState
	ToolCallOrder []string
	Thinking      bool
	ThinkingSince int64
	Status        string
	StatusMessage string
	Error         string
	Recoverable   bool
	Done          bool
}

func NewUIState() *UIState {
	return &UIState{ToolCalls: map[string]*ToolCallState{}}
}

func (s *UIState) toolCall(id string) *ToolCallState {
	call, ok := s.ToolCalls[id]
	if !ok {
		call = &ToolCallState{ID: id}
		s.ToolCalls[id] = call
		s.ToolCallOrder = append(s.ToolCallOrder, id)
	}
	return call
}

// Apply folds one event into the state. Unknown event types are ignored so
// older clients tolerate protocol additions.
func (s *UIState) Apply(evt Event) {
	switch evt.Type {
	case EventThinkingStart:
		s.Thinking = true
		s.ThinkingSince = evt.Timestamp
	case EventThinkingEnd:
		s.Thinking = false
	case EventText:
		s.AssistantText += evt.Content
	case EventToolCallPreview:
		call := s.toolCall(evt.ID)
		call.Name = evt.Name
		call.Args = evt.Args
		call.Status = ToolStatusPlanned
	case EventToolCallBuilding:
		call := s.toolCall(evt.ID)
		if evt.Name != "" {
			call.Name = evt.Name
		}
		if evt.Args != nil {
			call.Args = evt.Args
		}
		call.Progress = evt.Progress
		call.Status = ToolStatusBuilding
	case EventToolCall:
		call := s.toolCall(evt.ID)
		switch evt.Status {
		case ToolCallStart:
			if evt.Name != "" {
				call.Name = evt.Name
			}
			if evt.Args != nil {
				call.Args = evt.Args
			}
			call.Status = ToolStatusInProgress
			call.StartTime = evt.Timestamp
		case ToolCallComplete:
			call.Status = ToolStatusCompleted
			call.Result = evt.Result
			call.EndTime = evt.Timestamp
		case ToolCallError:
			call.Status = ToolStatusError
			call.Error = evt.Error
			call.EndTime = evt.Timestamp
		}
	case EventStatus:
		s.Status = evt.Status
		s.StatusMessage = evt.Message
	case EventError:
		s.Error = evt.Error
		s.Recoverable = evt.Recoverable
	case EventDone:
		s.Done = true
		s.Thinking = false
	}
}

// Reduce replays a full event sequence into a fresh state.
func Reduce(events []Event) *UIState {
	state := NewUIState()
	for _, evt := range events {
		state.Apply(evt)
	}
	return state
}

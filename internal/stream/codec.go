// Package stream defines the newline-delimited JSON event protocol pushed to
// the browser over a single HTTP response body, plus the client-side reducer
// that rebuilds UI state from the event sequence.
package stream

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

const (
	EventThinkingStart    = "thinking-start"
	EventThinkingEnd      = "thinking-end"
	EventText             = "text"
	EventToolCallPreview  = "tool-call-preview"
	EventToolCallBuilding = "tool-call-building"
	EventToolCall         = "tool-call"
	EventStatus           = "status"
	EventError            = "error"
	EventDone             = "done"

	ToolCallStart    = "start"
	ToolCallComplete = "complete"
	ToolCallError    = "error"
)

type Progress struct {
	ArgsLength int `json:"argsLength"`
}

// Event is the wire union. Which fields are meaningful depends on Type; a
// serialized event never contains an unescaped newline, so one line is
// always one event.
type Event struct {
	Type        string                 `json:"type"`
	Timestamp   int64                  `json:"timestamp,omitempty"`
	Content     string                 `json:"content,omitempty"`
	ID          string                 `json:"id,omitempty"`
	Name        string                 `json:"name,omitempty"`
	Args        map[string]interface{} `json:"args,omitempty"`
	Progress    *Progress              `json:"progress,omitempty"`
	Status      string                 `json:"status,omitempty"`
	Message     string                 `json:"message,omitempty"`
	Result      map[string]interface{} `json:"result,omitempty"`
	Error       string                 `json:"error,omitempty"`
	Recoverable bool                   `json:"recoverable,omitempty"`
}

func now() int64 {
	return time.Now().UnixMilli()
}

func ThinkingStartEvent() Event {
	return Event{Type: EventThinkingStart, Timestamp: now()}
}

func ThinkingEndEvent() Event {
	return Event{Type: EventThinkingEnd}
}

func TextEvent(delta string) Event {
	return Event{Type: EventText, Content: delta}
}

func ToolCallPreviewEvent(id, name string, args map[string]interface{}) Event {
	return Event{Type: EventToolCallPreview, ID: id, Name: name, Args: args, Timestamp: now()}
}

func ToolCallBuildingEvent(id, name string, args map[string]interface{}, argsLength int) Event {
	return Event{
		Type:     EventToolCallBuilding,
		ID:       id,
		Name:     name,
		Args:     args,
		Progress: &Progress{ArgsLength: argsLength},
	}
}

func ToolCallStartEvent(id, name string, args map[string]interface{}) Event {
	return Event{Type: EventToolCall, Status: ToolCallStart, ID: id, Name: name, Args: args, Timestamp: now()}
}

func ToolCallCompleteEvent(id string, result map[string]interface{}) Event {
	return Event{Type: EventToolCall, Status: ToolCallComplete, ID: id, Result: result, Timestamp: now()}
}

func ToolCallErrorEvent(id, message string) Event {
	return Event{Type: EventToolCall, Status: ToolCallError, ID: id, Error: message, Timestamp: now()}
}

func StatusEvent(status, message string) Event {
	return Event{Type: EventStatus, Status: status, Message: message}
}

func ErrorEvent(message string, recoverable bool) Event {
	return Event{Type: EventError, Error: message, Recoverable: recoverable}
}

func DoneEvent() Event {
	return Event{Type: EventDone}
}

// Encoder writes events as single JSON lines, flushing after each so the
// browser sees progress immediately.
type Encoder struct {
	w       io.Writer
	flusher http.Flusher
}

func NewEncoder(w io.Writer) *Encoder {
	flusher, _ := w.(http.Flusher)
	return &Encoder{w: w, flusher: flusher}
}

func (e *Encoder) Encode(evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if _, err := e.w.Write(append(payload, '\n')); err != nil {
		return err
	}
	if e.flusher != nil {
		e.flusher.Flush()
	}
	return nil
}

// Decoder reassembles events from arbitrarily fragmented reads. A trailing
// partial line is buffered until a later chunk completes it; a line that is
// not valid JSON is skipped rather than treated as fatal.
type Decoder struct {
	buf bytes.Buffer
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed consumes one chunk and returns every event completed by it.
func (d *Decoder) Feed(chunk []byte) []Event {
	d.buf.Write(chunk)
	var out []Event
	for {
		raw := d.buf.Bytes()
		idx := bytes.IndexByte(raw, '\n')
		if idx < 0 {
			return out
		}
		line := make([]byte, idx)
		copy(line, raw[:idx])
		d.buf.Next(idx + 1)
		if evt, ok := parseLine(line); ok {
			out = append(out, evt)
		}
	}
}

// Flush parses whatever is left in the buffer as a final line. Call it at
// end of stream in case the sender omitted the trailing newline.
func (d *Decoder) Flush() []Event {
	line := bytes.TrimSpace(d.buf.Bytes())
	d.buf.Reset()
	if len(line) == 0 {
		return nil
	}
	if evt, ok := parseLine(line); ok {
		return []Event{evt}
	}
	return nil
}

func parseLine(line []byte) (Event, bool) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return Event{}, false
	}
	var evt Event
	if err := json.Unmarshal(trimmed, &evt); err != nil {
		return Event{}, false
	}
	if evt.Type == "" {
		return Event{}, false
	}
	return evt, true
}

package api

import (
	"encoding/json"
	"strings"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// Decoder turns raw response chunks into decoded stream events. Frames are
// separated by a blank line and chunk boundaries may fall anywhere, so an
// unterminated trailing fragment is carried over and prepended to the next
// chunk before re-splitting. The decoder holds no other state.
type Decoder struct {
	rest string
}

// Feed consumes one raw chunk and returns the events completed by it, in
// arrival order.
func (d *Decoder) Feed(chunk string) []Event {
	d.rest += chunk
	d.rest = strings.ReplaceAll(d.rest, "\r\n", "\n")

	var events []Event
	for {
		idx := strings.Index(d.rest, "\n\n")
		if idx < 0 {
			return events
		}
		frame := d.rest[:idx]
		d.rest = d.rest[idx+2:]
		if ev, ok := decodeFrame(frame); ok {
			events = append(events, ev)
		}
	}
}

// Flush decodes any carried fragment after the underlying stream ends. The
// final frame's separator may have been cut off by EOF.
func (d *Decoder) Flush() []Event {
	frame := d.rest
	d.rest = ""
	if ev, ok := decodeFrame(frame); ok {
		return []Event{ev}
	}
	return nil
}

// decodeFrame parses one frame. Frames without the data prefix are
// insignificant and skipped; frames whose payload is not JSON carrying a
// content string yield EventMalformed and are otherwise skipped too.
func decodeFrame(frame string) (Event, bool) {
	frame = strings.TrimRight(frame, "\n")
	if !strings.HasPrefix(frame, dataPrefix) {
		return Event{}, false
	}
	payload := frame[len(dataPrefix):]
	if payload == doneSentinel {
		return Event{Type: EventDone}, true
	}

	var delta struct {
		Content *string `json:"content"`
		ID      string  `json:"id"`
	}
	if err := json.Unmarshal([]byte(payload), &delta); err != nil || delta.Content == nil {
		return Event{Type: EventMalformed, Raw: frame}, true
	}
	return Event{Type: EventDelta, Text: *delta.Content, CorrelationID: delta.ID}, true
}

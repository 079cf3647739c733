package progressstream

import (
	"encoding/json"
	"fmt"
	"io"

	"pantry/internal/domain/events"
)

// EncodeSSE renders one event as a newline-delimited "data: <json>\n\n"
// frame per spec §4.8.
func EncodeSSE(event events.ProgressEvent) ([]byte, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal progress event: %w", err)
	}
	return []byte(fmt.Sprintf("data: %s\n\n", body)), nil
}

// WriteSSE encodes and writes event to w, flushing via an optional
// Flusher-like callback supplied by the HTTP handler (kept out of this
// package to avoid importing net/http here).
func WriteSSE(w io.Writer, event events.ProgressEvent) error {
	frame, err := EncodeSSE(event)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}

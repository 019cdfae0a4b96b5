package persistence

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lexcodex/nlcommand/framework"
)

// HistorySink records accepted and rejected interpretations into a
// HistoryStore. Other events are ignored.
type HistorySink struct {
	Store   HistoryStore
	Logger  *zap.Logger
	Timeout time.Duration
}

// NewHistorySink wraps store. A nil logger discards write failures.
func NewHistorySink(store HistoryStore, logger *zap.Logger) *HistorySink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistorySink{Store: store, Logger: logger, Timeout: 5 * time.Second}
}

// Emit implements framework.Telemetry.
func (h *HistorySink) Emit(event framework.Event) {
	if h == nil || h.Store == nil {
		return
	}
	if event.Type != framework.EventCommandAccepted && event.Type != framework.EventCommandRejected {
		return
	}
	entry := EntryFromEvent(event)
	ctx := context.Background()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}
	if err := h.Store.Record(ctx, entry); err != nil && h.Logger != nil {
		h.Logger.Warn("history write failed", zap.String("request_id", event.RequestID), zap.Error(err))
	}
}

// EntryFromEvent converts a pipeline outcome event into a history entry.
func EntryFromEvent(event framework.Event) Entry {
	entry := Entry{
		RequestID: event.RequestID,
		Domain:    event.Domain,
		Input:     metaString(event.Metadata, "input"),
		RawOutput: metaString(event.Metadata, "raw_output"),
		CreatedAt: event.Timestamp,
	}
	switch v := event.Metadata["duration_ms"].(type) {
	case int64:
		entry.DurationMS = v
	case int:
		entry.DurationMS = int64(v)
	case float64:
		entry.DurationMS = int64(v)
	}
	if event.Type == framework.EventCommandAccepted {
		entry.Action = metaString(event.Metadata, "action")
		entry.Command = metaString(event.Metadata, "command")
		return entry
	}
	entry.ErrorKind = metaString(event.Metadata, "error_kind")
	entry.ErrorMessage = event.Message
	if entry.ErrorMessage == "" {
		entry.ErrorMessage = "rejected"
	}
	return entry
}

func metaString(meta map[string]interface{}, key string) string {
	s, _ := meta[key].(string)
	return s
}

package simpleasset

import (
	"context"
	"log/slog"
)

// NoopEventSink is a no-operation implementation of EventSink
// Useful for production when you don't need event handling or for testing
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

// AssetCreated does nothing and returns nil
func (n *NoopEventSink) AssetCreated(ctx context.Context, asset *Asset, payload IngestionRequest) error {
	return nil
}

// LoggingEventSink is an event sink that logs events but takes no other action
// Useful for development and debugging
type LoggingEventSink struct {
	logger *slog.Logger
}

// NewLoggingEventSink creates a new logging event sink
func NewLoggingEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingEventSink{logger: logger}
}

// AssetCreated logs the asset creation event
func (l *LoggingEventSink) AssetCreated(ctx context.Context, asset *Asset, payload IngestionRequest) error {
	l.logger.Info("asset created",
		"asset_id", asset.ID,
		"name", asset.Name,
		"type", asset.Type,
		"mime_type", asset.MimeType,
		"file_size", asset.FileSize,
		"channel_id", asset.ChannelID,
		"tags", len(payload.Tags))
	return nil
}

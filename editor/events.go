package editor

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// EventChannel is the pubsub channel carrying catalog change events.
const EventChannel = "catalog"

// Event actions.
const (
	ActionUpsert  = "upsert"
	ActionDelete  = "delete"
	ActionLoad    = "load"
	ActionOverlay = "overlay"
	ActionImport  = "import"
	ActionRestore = "restore"
	ActionSave    = "save"
)

// Event is published on EventChannel after every catalog change or save.
type Event struct {
	Action   string `json:"action"`
	IDs      []int  `json:"ids,omitempty"`
	Format   string `json:"format,omitempty"`
	Path     string `json:"path,omitempty"`
	Revision uint64 `json:"revision"`
	Size     int    `json:"size"`
	Editor   string `json:"editor"`
}

func (s *Service) publish(ctx context.Context, ev Event) {
	if s.pubsub == nil {
		return
	}
	ev.Editor = ActorFrom(ctx).Editor
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := s.pubsub.Publish(ctx, EventChannel, string(payload)); err != nil {
		s.logger.Warn("catalog event publish failed",
			zap.String("action", ev.Action), zap.Error(err))
	}
}

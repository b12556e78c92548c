package server

import (
	"github.com/onnwee/twitch-recorder/recorder"
)

// StatusSource provides the current poll loop snapshot. *recorder.Recorder implements it.
type StatusSource interface {
	Snapshot() recorder.Snapshot
}

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	src StatusSource
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(src StatusSource) *Handlers {
	return &Handlers{src: src}
}

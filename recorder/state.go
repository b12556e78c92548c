package recorder

import (
	"errors"
	"net/http"

	"github.com/onnwee/twitch-recorder/twitchapi"
)

// Status names the outcome of one channel check.
type Status int

const (
	StatusOnline Status = iota
	StatusOffline
	StatusNotFound
	StatusUnauthorized
	StatusError
)

// String returns the label used in logs and metrics.
func (s Status) String() string {
	switch s {
	case StatusOnline:
		return "online"
	case StatusOffline:
		return "offline"
	case StatusNotFound:
		return "not_found"
	case StatusUnauthorized:
		return "unauthorized"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// ChannelState is the result of a status check. The set of implementations is
// closed: Online, Offline, NotFound, Unauthorized and Failed.
type ChannelState interface {
	Status() Status
	channelState()
}

// Online carries the first stream record returned by Helix.
type Online struct{ Stream twitchapi.Stream }

// Offline means Helix answered with an empty stream list.
type Offline struct{}

// NotFound means Helix answered 404.
type NotFound struct{}

// Unauthorized means Helix rejected the access token (401).
type Unauthorized struct{}

// Failed covers every other failure: transport errors, timeouts, other statuses, bad bodies.
type Failed struct{ Err error }

func (Online) Status() Status       { return StatusOnline }
func (Offline) Status() Status      { return StatusOffline }
func (NotFound) Status() Status     { return StatusNotFound }
func (Unauthorized) Status() Status { return StatusUnauthorized }
func (Failed) Status() Status       { return StatusError }

func (Online) channelState()       {}
func (Offline) channelState()      {}
func (NotFound) channelState()     {}
func (Unauthorized) channelState() {}
func (Failed) channelState()       {}

// classify maps a Helix streams lookup to a ChannelState. It is total: every
// (streams, err) pair yields exactly one state.
func classify(streams []twitchapi.Stream, err error) ChannelState {
	if err != nil {
		var se *twitchapi.StatusError
		if errors.As(err, &se) {
			switch se.StatusCode {
			case http.StatusUnauthorized:
				return Unauthorized{}
			case http.StatusNotFound:
				return NotFound{}
			}
		}
		return Failed{Err: err}
	}
	if len(streams) == 0 {
		return Offline{}
	}
	return Online{Stream: streams[0]}
}

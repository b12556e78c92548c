// Package recorder watches a Twitch channel and records it whenever it is live.
//
// The Recorder runs a single sequential loop: check the channel, then either
// sleep, refresh the app token, or run the capture pipeline until the stream
// ends. Only one network call or one capture is outstanding at any time.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/twitch-recorder/config"
	"github.com/onnwee/twitch-recorder/telemetry"
	"github.com/onnwee/twitch-recorder/twitchapi"
)

// ErrorBackoff is the fixed wait after a failed status check, independent of the poll interval.
const ErrorBackoff = 300 * time.Second

const tracerName = "recorder"

// TokenFetcher returns a fresh app access token.
type TokenFetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// StreamLister looks up the live streams of a login.
type StreamLister interface {
	GetStreams(ctx context.Context, accessToken, login string) ([]twitchapi.Stream, error)
}

// Snapshot is a point-in-time view of the loop for the status endpoint.
type Snapshot struct {
	Channel        string    `json:"channel"`
	Quality        string    `json:"quality"`
	State          string    `json:"state"`
	LastPoll       time.Time `json:"last_poll,omitzero"`
	Recording      string    `json:"recording,omitempty"`
	SessionID      string    `json:"session_id,omitempty"`
	RecordingSince time.Time `json:"recording_since,omitzero"`
}

// Recorder owns the configuration and the access token for the lifetime of the process.
type Recorder struct {
	cfg      config.Config
	refresh  time.Duration
	tokens   TokenFetcher
	streams  StreamLister
	capturer Capturer
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time

	// token is only touched by the loop goroutine.
	token string

	mu   sync.RWMutex
	snap Snapshot
}

// New wires a Recorder against the real Twitch endpoints and the streamlink/ffmpeg pipeline.
// cfg is copied; later changes by the caller have no effect.
func New(cfg config.Config) *Recorder {
	telemetry.Init()
	hc := telemetry.NewHTTPClient(twitchapi.RequestTimeout)
	return &Recorder{
		cfg:     cfg,
		refresh: cfg.Refresh,
		tokens: &twitchapi.AppTokenSource{
			ClientID:     cfg.TwitchClientID,
			ClientSecret: cfg.TwitchClientSecret,
			HTTPClient:   hc,
		},
		streams: &twitchapi.HelixClient{
			ClientID:   cfg.TwitchClientID,
			HTTPClient: hc,
		},
		capturer: &Pipeline{
			StreamlinkPath: cfg.StreamlinkPath,
			FFmpegPath:     cfg.FFmpegPath,
			DisableAds:     cfg.StreamlinkDisableAds,
		},
		sleep: sleepCtx,
		now:   time.Now,
		snap:  Snapshot{Channel: cfg.Channel, Quality: cfg.Quality, State: "starting"},
	}
}

// Refresh returns the effective poll interval (valid after Prepare).
func (r *Recorder) Refresh() time.Duration { return r.refresh }

// Snapshot returns the current loop state. Safe for concurrent use.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap
}

// Run prepares the output directories and the initial token, then loops until
// ctx is canceled. Startup failures are returned immediately unless ctx was
// canceled meanwhile; once the loop runs, the only error returned is the context's.
func (r *Recorder) Run(ctx context.Context) error {
	if err := r.Prepare(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return r.loop(ctx)
}

// Prepare clamps the poll interval, creates missing output directories and
// fetches the initial access token. It does not retry.
func (r *Recorder) Prepare(ctx context.Context) error {
	if r.refresh < config.MinRefresh {
		slog.Warn(fmt.Sprintf("check interval should not be lower than %d seconds", int(config.MinRefresh.Seconds())))
		r.refresh = config.MinRefresh
		slog.Info(fmt.Sprintf("system set check interval to %d seconds", int(config.MinRefresh.Seconds())))
	}

	if err := ensureDir(r.cfg.RootPath); err != nil {
		return err
	}
	if r.cfg.OutputInChannelDir {
		if err := ensureDir(filepath.Join(r.cfg.RootPath, r.cfg.Channel)); err != nil {
			return err
		}
	}

	if err := r.fetchToken(ctx); err != nil {
		return fmt.Errorf("fetch access token: %w", err)
	}

	slog.Info(fmt.Sprintf("checking for %s every %d seconds, recording with %s quality",
		r.cfg.Channel, int(r.refresh.Seconds()), r.cfg.Quality))
	return nil
}

// CheckChannel queries Helix once with the current token. It never returns an
// error: every outcome, including transport failures, is a ChannelState.
func (r *Recorder) CheckChannel(ctx context.Context) ChannelState {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "check_channel", telemetry.ChannelAttr(r.cfg.Channel))
	defer span.End()

	streams, err := r.streams.GetStreams(ctx, r.token, r.cfg.Channel)
	state := classify(streams, err)
	span.SetAttributes(attribute.String("twitch.state", state.Status().String()))
	if f, ok := state.(Failed); ok {
		telemetry.RecordError(span, f.Err)
	}
	return state
}

// OutputPath joins filename under the root directory, or under root/channel when nesting is on.
func (r *Recorder) OutputPath(filename string) string {
	if r.cfg.OutputInChannelDir {
		return filepath.Join(r.cfg.RootPath, r.cfg.Channel, filename)
	}
	return filepath.Join(r.cfg.RootPath, filename)
}

func (r *Recorder) loop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		state := r.CheckChannel(ctx)
		telemetry.ObservePoll(state.Status().String())
		r.setPolled(state.Status())

		var wait time.Duration
		switch s := state.(type) {
		case NotFound:
			slog.Error("channel not found, invalid channel or typo")
			wait = r.refresh
		case Failed:
			slog.Error(fmt.Sprintf("%s unexpected error. will try again in 5 minutes", r.now().Format("15h04m05s")), slog.Any("err", s.Err))
			wait = ErrorBackoff
		case Offline:
			slog.Info(fmt.Sprintf("%s currently offline, checking again in %d seconds", r.cfg.Channel, int(r.refresh.Seconds())))
			wait = r.refresh
		case Unauthorized:
			slog.Info("unauthorized, will attempt to log back in immediately")
			if err := r.fetchToken(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				slog.Error("access token refresh failed. will try again in 5 minutes", slog.Any("err", err))
				wait = ErrorBackoff
			}
		case Online:
			r.record(ctx, s.Stream)
			wait = r.refresh
		default:
			// unreachable while ChannelState stays sealed
			slog.Error("unhandled channel state", slog.String("state", state.Status().String()))
			wait = ErrorBackoff
		}

		if wait > 0 {
			if err := r.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
}

// record runs one capture session. The pipeline's exit status is logged and
// counted but never changes what the loop does next.
func (r *Recorder) record(ctx context.Context, stream twitchapi.Stream) {
	sessionID := uuid.NewString()
	ctx = telemetry.WithCorrelation(ctx, sessionID)
	logger := telemetry.LoggerWithCorr(ctx)
	logger.Info(fmt.Sprintf("%s online, stream recording in session", r.cfg.Channel))

	started := r.now()
	path := r.OutputPath(BuildFilename(r.cfg.Channel, stream.Title, started))
	logger.Debug("output file", slog.String("path", path), slog.String("title", stream.Title))

	ctx, span := telemetry.StartSpan(ctx, tracerName, "capture",
		telemetry.ChannelAttr(r.cfg.Channel),
		attribute.String("recorder.path", path),
		attribute.String("recorder.quality", r.cfg.Quality),
	)
	defer span.End()

	r.setRecording(path, sessionID, started)
	telemetry.RecordingsStarted.Inc()
	telemetry.SetLive(true)

	var err error
	dur := telemetry.TimeFunc(telemetry.RecordingDuration, func() {
		err = r.capturer.Capture(ctx, CaptureRequest{Channel: r.cfg.Channel, Quality: r.cfg.Quality, Path: path})
	})

	telemetry.SetLive(false)
	r.setRecording("", "", time.Time{})
	if err != nil {
		telemetry.RecordingsFailed.Inc()
		telemetry.RecordError(span, err)
		logger.Warn("capture pipeline exited with error", slog.Any("err", err), slog.Duration("duration", dur))
	} else {
		telemetry.RecordingsCompleted.Inc()
		telemetry.SetSpanSuccess(span)
	}
	logger.Info("processing is done, going back to checking...")
}

func (r *Recorder) fetchToken(ctx context.Context) error {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "fetch_access_token")
	defer span.End()

	tok, err := r.tokens.Fetch(ctx)
	telemetry.ObserveTokenFetch(err)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	r.token = tok
	telemetry.SetSpanSuccess(span)
	return nil
}

func (r *Recorder) setPolled(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap.State = s.String()
	r.snap.LastPoll = r.now()
}

func (r *Recorder) setRecording(path, sessionID string, since time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap.Recording = path
	r.snap.SessionID = sessionID
	r.snap.RecordingSince = since
}

// ensureDir creates path (and parents) when missing and logs the creation.
// An existing directory is left alone without logging.
func ensureDir(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("output path %s exists and is not a directory", path)
		}
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	slog.Info("creating folder " + path)
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

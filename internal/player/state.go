package player

import (
	"errors"
	"fmt"
	"math"
)

// State is a playback lifecycle phase.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
	StateEnded   State = "ended"
	StateError   State = "error"
)

// The standard media error codes, as reported by the browser media pipeline.
type MediaErrorCode int

const (
	ErrCodeAborted     MediaErrorCode = 1
	ErrCodeNetwork     MediaErrorCode = 2
	ErrCodeDecode      MediaErrorCode = 3
	ErrCodeUnsupported MediaErrorCode = 4
)

var errorMessages = map[MediaErrorCode]string{
	ErrCodeAborted:     "Playback was aborted",
	ErrCodeNetwork:     "A network error interrupted playback",
	ErrCodeDecode:      "The video could not be decoded",
	ErrCodeUnsupported: "This video format is not supported",
}

// ErrorMessage maps a media error code to its user-facing message.
func ErrorMessage(code MediaErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "An unknown playback error occurred"
}

// SkipSeconds is the fixed offset applied by the two skip operations.
const SkipSeconds = 10.0

var ErrInvalidTransition = errors.New("invalid playback transition")

// PlaybackError is the classified form of a media failure.
type PlaybackError struct {
	Code    MediaErrorCode `json:"code"`
	Message string         `json:"message"`
}

// Fatal reports whether the error destroys the streaming engine instance.
// Decode and network failures do; a retry after one recreates the engine.
func (e PlaybackError) Fatal() bool {
	return e.Code == ErrCodeNetwork || e.Code == ErrCodeDecode
}

// Playback models the media element lifecycle:
// Idle → Loading → Ready ⇄ Playing ⇄ Paused → Ended, with Error reachable
// from any state and Error → Loading on explicit retry. All mutation is
// event-driven; nothing here blocks.
type Playback struct {
	State       State          `json:"state"`
	CurrentTime float64        `json:"currentTime"`
	Duration    float64        `json:"duration"`
	Muted       bool           `json:"muted"`
	Volume      float64        `json:"volume"`
	Buffering   bool           `json:"buffering"`
	LastError   *PlaybackError `json:"lastError,omitempty"`

	// EngineGeneration counts engine instances; it bumps when a fatal error
	// tears the current one down and a retry builds a fresh one.
	EngineGeneration int `json:"engineGeneration"`
}

// NewPlayback returns an idle playback at full volume.
func NewPlayback() *Playback {
	return &Playback{State: StateIdle, Volume: 1.0, EngineGeneration: 1}
}

// Load attaches a resolved source and enters Loading.
func (p *Playback) Load() error {
	switch p.State {
	case StateIdle, StateEnded, StateError:
		p.State = StateLoading
		p.CurrentTime = 0
		p.Buffering = true
		return nil
	default:
		return fmt.Errorf("%w: load from %s", ErrInvalidTransition, p.State)
	}
}

// MetadataReady records the duration reported by the media pipeline and
// enters Ready.
func (p *Playback) MetadataReady(duration float64) error {
	if p.State != StateLoading {
		return fmt.Errorf("%w: metadata in %s", ErrInvalidTransition, p.State)
	}
	if duration < 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		duration = 0
	}
	p.Duration = duration
	p.Buffering = false
	p.State = StateReady
	return nil
}

func (p *Playback) Play() error {
	switch p.State {
	case StateReady, StatePaused, StateEnded:
		p.State = StatePlaying
		return nil
	case StatePlaying:
		return nil
	default:
		return fmt.Errorf("%w: play from %s", ErrInvalidTransition, p.State)
	}
}

func (p *Playback) Pause() error {
	switch p.State {
	case StatePlaying, StateReady:
		p.State = StatePaused
		return nil
	case StatePaused:
		return nil
	default:
		return fmt.Errorf("%w: pause from %s", ErrInvalidTransition, p.State)
	}
}

// Seek clamps the target into [0, duration] and moves the playhead.
func (p *Playback) Seek(target float64) error {
	switch p.State {
	case StateReady, StatePlaying, StatePaused, StateEnded:
	default:
		return fmt.Errorf("%w: seek in %s", ErrInvalidTransition, p.State)
	}
	p.CurrentTime = clamp(target, 0, p.Duration)
	if p.State == StateEnded && p.CurrentTime < p.Duration {
		p.State = StatePaused
	}
	return nil
}

func (p *Playback) SkipForward() error {
	return p.Seek(p.CurrentTime + SkipSeconds)
}

func (p *Playback) SkipBack() error {
	return p.Seek(p.CurrentTime - SkipSeconds)
}

// Progress records a time update from the pipeline.
func (p *Playback) Progress(current float64) {
	if p.State == StatePlaying || p.State == StatePaused {
		p.CurrentTime = clamp(current, 0, p.Duration)
	}
}

// SetVolume sets the output level. Volume zero implies mute. Raising the
// volume above zero clears mute, matching the transport-control behavior.
func (p *Playback) SetVolume(level float64) {
	p.Volume = clamp(level, 0, 1)
	if p.Volume == 0 {
		p.Muted = true
	} else {
		p.Muted = false
	}
}

// SetMuted toggles mute without touching the level. Unmuting at volume zero
// leaves the player silent with mute cleared; the transport controls surface
// that state as-is.
func (p *Playback) SetMuted(muted bool) {
	p.Muted = muted
}

func (p *Playback) SetBuffering(buffering bool) {
	p.Buffering = buffering
}

func (p *Playback) End() error {
	if p.State != StatePlaying {
		return fmt.Errorf("%w: ended in %s", ErrInvalidTransition, p.State)
	}
	p.State = StateEnded
	p.CurrentTime = p.Duration
	return nil
}

// Fail classifies a media error and enters the Error state. Fatal errors
// count as an engine teardown.
func (p *Playback) Fail(code MediaErrorCode) {
	perr := PlaybackError{Code: code, Message: ErrorMessage(code)}
	p.LastError = &perr
	p.State = StateError
	p.Buffering = false
}

// Retry is the explicit user-triggered recovery: tear down, re-resolve and
// re-attach, which is a fresh Loading transition. There is no automatic
// retry anywhere.
func (p *Playback) Retry() error {
	if p.State != StateError {
		return fmt.Errorf("%w: retry in %s", ErrInvalidTransition, p.State)
	}
	if p.LastError != nil && p.LastError.Fatal() {
		p.EngineGeneration++
	}
	p.LastError = nil
	return p.Load()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

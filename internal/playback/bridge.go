package playback

import "context"

// PlayerState is the embedded player's view of itself, as reported
// over the scripting bridge.
type PlayerState struct {
	IsPlaying       bool    `json:"is_playing"`
	PositionSeconds float64 `json:"position_seconds"`
}

// PlayerEventKind identifies a native event from the embedded player.
type PlayerEventKind string

const (
	PlayerEventPlay  PlayerEventKind = "PLAY"
	PlayerEventPause PlayerEventKind = "PAUSE"
	PlayerEventSeek  PlayerEventKind = "SEEK"
)

// PlayerEvent is a native state-change event captured from the
// embedded player's controls.
type PlayerEvent struct {
	Kind            PlayerEventKind `json:"kind"`
	PositionSeconds float64         `json:"position_seconds"`
}

// PlayerBridge is the embedded third-party player, reachable only
// through an async message-passing bridge. Commands may be delivered
// late or fail; no call assumes a synchronous state read.
type PlayerBridge interface {
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Seek(ctx context.Context, seconds float64) error
	State(ctx context.Context) (PlayerState, error)
}

package playback

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/studyhall/roomsync/internal/models"
)

const (
	// DefaultSeekTolerance is the position drift below which an
	// incoming state is considered already applied.
	DefaultSeekTolerance = 1.0

	// DefaultCommandDelay is the gap between issuing seek and
	// play/pause, so the two commands don't race inside the player.
	DefaultCommandDelay = 250 * time.Millisecond
)

// Mirror is the viewer half of the playback controller. It applies
// creator-issued PlaybackState updates to the embedded player through
// the bridge and keeps the player's native controls neutralized.
//
// On the creator's client the same type runs unlocked: native player
// events flow out through the OnChange callback instead.
type Mirror struct {
	bridge       PlayerBridge
	clock        clockwork.Clock
	role         models.RoomRole
	tolerance    float64
	commandDelay time.Duration

	// OnChange receives creator-originated state changes to forward
	// upstream. Never invoked for viewers.
	OnChange func(state PlayerState)

	mu       sync.Mutex
	mirrored *models.PlaybackState
}

// MirrorConfig holds tuning knobs for a playback mirror.
type MirrorConfig struct {
	SeekTolerance float64
	CommandDelay  time.Duration
}

// DefaultMirrorConfig returns the default mirror tuning.
func DefaultMirrorConfig() MirrorConfig {
	return MirrorConfig{
		SeekTolerance: DefaultSeekTolerance,
		CommandDelay:  DefaultCommandDelay,
	}
}

// NewMirror creates a playback mirror for a participant with the given
// room role.
func NewMirror(bridge PlayerBridge, clk clockwork.Clock, role models.RoomRole, config MirrorConfig) *Mirror {
	if config.SeekTolerance <= 0 {
		config.SeekTolerance = DefaultSeekTolerance
	}
	if config.CommandDelay <= 0 {
		config.CommandDelay = DefaultCommandDelay
	}
	return &Mirror{
		bridge:       bridge,
		clock:        clk,
		role:         role,
		tolerance:    config.SeekTolerance,
		commandDelay: config.CommandDelay,
	}
}

// InputLocked reports whether the embedding UI must install the
// input-blocking overlay over the player. Only the creator keeps
// native controls.
func (m *Mirror) InputLocked() bool {
	return m.role != models.RoomRoleCreator
}

// Mirrored returns the last applied state, nil before the first apply.
func (m *Mirror) Mirrored() *models.PlaybackState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mirrored == nil {
		return nil
	}
	copied := *m.mirrored
	return &copied
}

// Apply reconciles the player against an incoming authoritative state.
// Re-applying a state the player already matches (within the seek
// tolerance) issues no commands, so duplicate delivery causes no
// visible seeking or flicker. Stale updates are simply overwritten by
// later ones: last one applied wins.
func (m *Mirror) Apply(ctx context.Context, state *models.PlaybackState) error {
	m.mu.Lock()
	prev := m.mirrored
	copied := *state
	m.mirrored = &copied
	m.mu.Unlock()

	needSeek := prev == nil || math.Abs(prev.PositionSeconds-state.PositionSeconds) > m.tolerance
	needToggle := prev == nil || prev.IsPlaying != state.IsPlaying

	if !needSeek && !needToggle {
		return nil
	}

	if needSeek {
		if err := m.bridge.Seek(ctx, state.PositionSeconds); err != nil {
			return err
		}
		if needToggle {
			m.clock.Sleep(m.commandDelay)
		}
	}

	if needToggle {
		if state.IsPlaying {
			return m.bridge.Play(ctx)
		}
		return m.bridge.Pause(ctx)
	}
	return nil
}

// HandlePlayerEvent processes a native state-change event from the
// embedded player. Creator events are translated and forwarded as the
// new global truth; viewer events are noise from the neutralized
// controls and are dropped.
func (m *Mirror) HandlePlayerEvent(ev PlayerEvent) {
	if m.InputLocked() {
		log.Debug().
			Str("kind", string(ev.Kind)).
			Msg("dropping player event from locked viewer")
		return
	}
	if m.OnChange == nil {
		return
	}

	state := PlayerState{PositionSeconds: ev.PositionSeconds}
	switch ev.Kind {
	case PlayerEventPlay:
		state.IsPlaying = true
	case PlayerEventPause:
		state.IsPlaying = false
	case PlayerEventSeek:
		// A bare seek keeps the current play/pause mode.
		m.mu.Lock()
		if m.mirrored != nil {
			state.IsPlaying = m.mirrored.IsPlaying
		}
		m.mu.Unlock()
	}

	m.OnChange(state)
}

package playback

import "errors"

// ErrNotRoomCreator is returned when a viewer attempts to write the
// shared playback state
var ErrNotRoomCreator = errors.New("not room creator")

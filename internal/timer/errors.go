package timer

import "errors"

// ErrNotTimerOwner is returned when a participant other than the one
// who started the timer attempts to control it
var ErrNotTimerOwner = errors.New("not timer owner")

// ErrTimerAlreadyStarted is returned when Start is called while a
// session is already in progress
var ErrTimerAlreadyStarted = errors.New("timer already started")

// ErrTimerNotRunning is returned when Pause is called on an idle or
// paused timer
var ErrTimerNotRunning = errors.New("timer not running")

// ErrTimerNotPaused is returned when Resume is called on an idle or
// running timer
var ErrTimerNotPaused = errors.New("timer not paused")

// ErrTimerIdle is returned when Reset is called with no session open
var ErrTimerIdle = errors.New("timer idle")

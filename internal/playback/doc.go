// Package playback implements the per-device play state machine.
//
// Key events (PLAY, PAUSE, PLAY_PAUSE, STOP, PRESET_n) drive
// transitions between STANDBY, PLAYING, PAUSED, and STOPPED. Preset
// selection runs through the stream resolver before committing new
// content, and every content change lands in the device's recents.
package playback

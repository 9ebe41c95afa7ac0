// Package capture provides microphone acquisition and audio encoding for the
// recording session.
//
// The session depends only on the MediaDevices, Platform, and Recorder
// interfaces. The ffmpeg backend implements all three by spawning one ffmpeg
// process per take that reads the configured input device and streams the
// encoded container to stdout in chunks.
package capture

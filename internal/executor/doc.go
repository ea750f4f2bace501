// Package executor renders a compositing plan with ffmpeg.
//
// The executor never touches its inputs: ffmpeg writes to a hidden temporary
// file beside the requested output, which is renamed into place only after
// ffmpeg exits successfully. On failure the temporary file is removed and the
// last lines of ffmpeg's stderr are attached to the error.
package executor

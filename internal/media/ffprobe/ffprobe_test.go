package ffprobe

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "audio"},
			{CodecType: "video", Width: 1280, Height: 720},
			{CodecType: "audio"},
		},
		Format: Format{
			Duration: "123.45",
		},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if d, err := result.Duration(); err != nil || d != 123450*time.Millisecond {
		t.Fatalf("unexpected duration: %v %v", d, err)
	}
	if w, h, ok := result.FrameSize(); !ok || w != 1280 || h != 720 {
		t.Fatalf("unexpected frame: %dx%d %v", w, h, ok)
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{Duration: "bad"},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if _, err := result.Duration(); err == nil {
		t.Fatal("expected error for garbled duration")
	}
	if _, _, ok := result.FrameSize(); ok {
		t.Fatal("expected no frame size without video streams")
	}
}

func TestDurationFallsBackToVideoStream(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", Duration: "8.5"},
			{CodecType: "audio", Duration: "30"},
		},
		Format: Format{Duration: "N/A"},
	}
	if got := result.DurationSeconds(); got != 8.5 {
		t.Fatalf("expected stream fallback 8.5, got %v", got)
	}
}

func TestInspectRunsBinary(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub requires a POSIX shell")
	}
	dir := t.TempDir()
	stub := filepath.Join(dir, "ffprobe")
	script := "#!/bin/sh\necho '{\"streams\":[{\"codec_type\":\"video\",\"width\":640,\"height\":360}],\"format\":{\"duration\":\"12.000000\"}}'\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	media := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(media, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := NewProber(stub, 1, time.Millisecond, nil).ProbeDuration(context.Background(), media)
	if err != nil {
		t.Fatalf("ProbeDuration: %v", err)
	}
	if d != 12*time.Second {
		t.Fatalf("unexpected duration %v", d)
	}
}

func TestProberRetriesTransientFailures(t *testing.T) {
	media := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(media, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	calls := 0
	p := NewProber("ffprobe", 3, time.Millisecond, nil)
	p.inspect = func(ctx context.Context, binary, path string) (Result, error) {
		calls++
		if calls < 3 {
			return Result{}, errors.New("resource temporarily unavailable")
		}
		return Result{Streams: []Stream{{CodecType: "video"}}, Format: Format{Duration: "4.25"}}, nil
	}

	d, err := p.ProbeDuration(context.Background(), media)
	if err != nil {
		t.Fatalf("ProbeDuration: %v", err)
	}
	if calls != 3 || d != 4250*time.Millisecond {
		t.Fatalf("calls=%d duration=%v", calls, d)
	}
}

func TestProbeDurationRejectsAudioOnlyMedia(t *testing.T) {
	media := filepath.Join(t.TempDir(), "narration.m4a")
	if err := os.WriteFile(media, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	p := NewProber("ffprobe", 1, time.Millisecond, nil)
	p.inspect = func(ctx context.Context, binary, path string) (Result, error) {
		return Result{Streams: []Stream{{CodecType: "audio"}}, Format: Format{Duration: "30"}}, nil
	}
	if _, err := p.ProbeDuration(context.Background(), media); !errors.Is(err, ErrNoVideoStream) {
		t.Fatalf("expected ErrNoVideoStream, got %v", err)
	}
}

func TestProberGivesUpAfterAttempts(t *testing.T) {
	media := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(media, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	calls := 0
	p := NewProber("ffprobe", 2, time.Millisecond, nil)
	p.inspect = func(ctx context.Context, binary, path string) (Result, error) {
		calls++
		return Result{}, errors.New("invalid data found when processing input")
	}
	if _, err := p.ProbeDuration(context.Background(), media); err == nil {
		t.Fatal("expected error")
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestProberMissingFileIsNotRetried(t *testing.T) {
	calls := 0
	p := NewProber("ffprobe", 5, time.Millisecond, nil)
	p.inspect = func(ctx context.Context, binary, path string) (Result, error) {
		calls++
		return Result{}, nil
	}
	_, err := p.ProbeDuration(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no ffprobe calls, got %d", calls)
	}
}

package engine

import (
	"context"
	"errors"
	"time"

	"beatcanvas/capture"
	"beatcanvas/compositor"
	"beatcanvas/playlist"
)

// exportPoll is how often Export checks whether the track has finished.
const exportPoll = 100 * time.Millisecond

// Export renders t headlessly until it ends or ctx is cancelled and returns
// the finished recording. A cancelled ctx still yields the partial
// recording.
func (s *Session) Export(ctx context.Context, t playlist.Track, o TrackOptions, interval time.Duration) (*capture.Recording, error) {
	if err := s.LoadTrack(t, o); err != nil {
		return nil, err
	}
	// Put a painted frame on the canvas before the first one is captured.
	if err := s.Frame(time.Now()); err != nil && !errors.Is(err, compositor.ErrFrameSkipped) {
		return nil, err
	}
	if err := s.StartRecording(ctx); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(runCtx, interval) }()

	tick := time.NewTicker(exportPoll)
	defer tick.Stop()
wait:
	for !s.player.TrackDone() {
		select {
		case <-ctx.Done():
			s.log.Warn("interrupted, saving partial recording")
			break wait
		case <-tick.C:
		}
	}
	cancel()
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		s.log.Error("render loop", "err", err)
	}
	return s.StopRecording()
}

package main

import (
	"encoding/binary"
	"io"
	"sync"
)

// sampleStream adapts the console's mono float64 audio callback to the
// stereo 16-bit PCM io.Reader ebiten's audio.Player expects: push is
// called from the emulation goroutine once per emitted sample, Read is
// called from ebiten's audio-mixing goroutine, so the byte queue is
// guarded by a mutex rather than assumed single-threaded.
type sampleStream struct {
	sampleRate int

	mu    sync.Mutex
	queue []byte
}

func newSampleStream(sampleRate int) *sampleStream {
	return &sampleStream{sampleRate: sampleRate}
}

// push encodes one mono sample (range roughly [-1,1]) as a stereo
// 16-bit little-endian frame and appends it to the queue.
func (s *sampleStream) push(sample float64) {
	if sample > 1 {
		sample = 1
	} else if sample < -1 {
		sample = -1
	}
	v := int16(sample * 32767)

	var frame [4]byte
	binary.LittleEndian.PutUint16(frame[0:2], uint16(v))
	binary.LittleEndian.PutUint16(frame[2:4], uint16(v))

	s.mu.Lock()
	s.queue = append(s.queue, frame[:]...)
	// Bound the queue so a paused/minimized window doesn't grow this
	// without limit; one second of stereo 16-bit audio is plenty of
	// slack for the mixer to catch up.
	if max := s.sampleRate * 4; len(s.queue) > max {
		s.queue = s.queue[len(s.queue)-max:]
	}
	s.mu.Unlock()
}

// Read implements io.Reader, emitting silence when the queue has not
// caught up to the mixer's demand yet.
func (s *sampleStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := copy(p, s.queue)
	s.queue = s.queue[n:]

	for i := n; i < len(p); i++ {
		p[i] = 0
	}
	return len(p), nil
}

var _ io.Reader = (*sampleStream)(nil)

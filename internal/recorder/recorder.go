package recorder

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/audio"
)

// Kinds of captured audio.
const (
	KindCaller = "asr" // caller utterance handed to transcription
	KindBot    = "tts" // synthesized response played to the caller
)

// Recorder wraps PCM16 turns in WAV and queues them for upload on a
// background worker. Capture never blocks the audio path: when the
// queue is full the clip is dropped with a warning.
type Recorder struct {
	storage Storage
	jobs    chan uploadJob
	wg      sync.WaitGroup
	log     *zap.Logger

	mu    sync.Mutex
	turns map[string]int
}

type uploadJob struct {
	key  string
	data []byte
}

// New starts the upload worker with the given queue bound.
func New(storage Storage, bound int, log *zap.Logger) *Recorder {
	if bound <= 0 {
		bound = 128
	}
	r := &Recorder{
		storage: storage,
		jobs:    make(chan uploadJob, bound),
		log:     log,
		turns:   make(map[string]int),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

// Capture queues one turn of session audio. kind is KindCaller or
// KindBot; pcm16 is 16kHz mono.
func (r *Recorder) Capture(sessionID, kind string, pcm16 []byte) {
	if len(pcm16) == 0 {
		return
	}
	r.mu.Lock()
	turn := r.turns[sessionID]
	r.turns[sessionID]++
	r.mu.Unlock()

	key := fmt.Sprintf("%s_turn%03d_%s.wav", sessionID, turn, kind)
	job := uploadJob{key: key, data: audio.WrapWAV(pcm16, 16000)}
	select {
	case r.jobs <- job:
	default:
		r.log.Warn("recording queue full, clip dropped",
			zap.String("session", sessionID),
			zap.String("object", key))
	}
}

// CaptureCaller queues one caller utterance.
func (r *Recorder) CaptureCaller(sessionID string, pcm16 []byte) {
	r.Capture(sessionID, KindCaller, pcm16)
}

// CaptureBot queues one synthesized response.
func (r *Recorder) CaptureBot(sessionID string, pcm16 []byte) {
	r.Capture(sessionID, KindBot, pcm16)
}

// EndSession forgets the session's turn counter.
func (r *Recorder) EndSession(sessionID string) {
	r.mu.Lock()
	delete(r.turns, sessionID)
	r.mu.Unlock()
}

// Close drains pending uploads and stops the worker.
func (r *Recorder) Close() {
	close(r.jobs)
	r.wg.Wait()
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for job := range r.jobs {
		if err := r.storage.Upload(job.key, "audio/wav", job.data); err != nil {
			r.log.Warn("recording upload failed",
				zap.String("object", job.key),
				zap.Error(err))
		}
	}
}

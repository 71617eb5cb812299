package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/flow"
)

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ []byte) (string, error) {
	return f.text, f.err
}

type fakeSynth struct {
	pcm []byte
	err error
}

func (f *fakeSynth) Synthesize(_ context.Context, _ string) ([]byte, error) { return f.pcm, f.err }

type fakeSink struct {
	mu    sync.Mutex
	plays []struct {
		session string
		n       int
		end     bool
	}
}

func (f *fakeSink) Play(sessionID string, pcm []byte, endCall bool) {
	f.mu.Lock()
	f.plays = append(f.plays, struct {
		session string
		n       int
		end     bool
	}{sessionID, len(pcm), endCall})
	f.mu.Unlock()
}

type fakeResolver struct {
	sessions map[string]*flow.Session
}

func (f *fakeResolver) FlowSession(id string) (*flow.Session, bool) {
	s, ok := f.sessions[id]
	return s, ok
}

type scriptedExtractor struct {
	results []flow.Result
	i       int
}

func (s *scriptedExtractor) Extract(_ context.Context, _ flow.Question, _ string, _ *flow.Session) (flow.Result, error) {
	if s.i >= len(s.results) {
		return flow.Result{IsClear: false}, nil
	}
	r := s.results[s.i]
	s.i++
	return r, nil
}

func TestASRWorker_TranscriptFlowsDownstream(t *testing.T) {
	in := NewQueue[[]byte](nil)
	out := NewQueue[string](nil)
	w := &ASRWorker{In: in, Out: out, Transcriber: &fakeTranscriber{text: "हाँ"}, Log: zap.NewNop()}
	go w.Run()
	defer in.Close()

	in.Put("s1", make([]byte, 640))
	item, ok := out.Get()
	if !ok {
		t.Fatalf("no transcript")
	}
	if item.SessionID != "s1" || item.Payload != "हाँ" {
		t.Fatalf("got %+v", item)
	}
}

func TestASRWorker_FailureBecomesEmptyTranscript(t *testing.T) {
	in := NewQueue[[]byte](nil)
	out := NewQueue[string](nil)
	w := &ASRWorker{In: in, Out: out, Transcriber: &fakeTranscriber{err: errors.New("down")}, Log: zap.NewNop()}
	go w.Run()
	defer in.Close()

	in.Put("s1", make([]byte, 640))
	item, ok := out.Get()
	if !ok {
		t.Fatalf("no item")
	}
	if item.Payload != "" {
		t.Fatalf("expected empty transcript, got %q", item.Payload)
	}
}

func TestFlowWorker_AdvancesAndSpeaks(t *testing.T) {
	in := NewQueue[string](nil)
	out := NewQueue[SpeakRequest](nil)
	m := flow.NewMachine(flow.DefaultQuestions("L&T Finance"),
		&scriptedExtractor{results: []flow.Result{{Value: "YES", IsClear: true}}}, 3)
	s := flow.NewSession("s1", "राम")
	m.FirstQuestion(s)

	w := &FlowWorker{
		In:       in,
		Out:      out,
		Machine:  m,
		Sessions: &fakeResolver{sessions: map[string]*flow.Session{"s1": s}},
		Log:      zap.NewNop(),
	}
	go w.Run()
	defer in.Close()

	in.Put("s1", "हाँ")
	item, ok := out.Get()
	if !ok {
		t.Fatalf("no speak request")
	}
	if item.Payload.Text == "" || item.Payload.EndCall {
		t.Fatalf("unexpected request %+v", item.Payload)
	}
}

func TestFlowWorker_DeadSessionDiscarded(t *testing.T) {
	in := NewQueue[string](nil)
	out := NewQueue[SpeakRequest](nil)
	w := &FlowWorker{
		In:       in,
		Out:      out,
		Machine:  flow.NewMachine(flow.DefaultQuestions("x"), &scriptedExtractor{}, 3),
		Sessions: &fakeResolver{sessions: map[string]*flow.Session{}},
		Log:      zap.NewNop(),
	}
	go w.Run()

	in.Put("gone", "हाँ")
	// Give the worker a beat, then verify nothing came out.
	time.Sleep(50 * time.Millisecond)
	if out.Len() != 0 {
		t.Fatalf("dead session produced output")
	}
	in.Close()
}

func TestTTSWorker_PlaysAudio(t *testing.T) {
	in := NewQueue[SpeakRequest](nil)
	sink := &fakeSink{}
	w := &TTSWorker{In: in, Synth: &fakeSynth{pcm: make([]byte, 1280)}, Sink: sink, Log: zap.NewNop()}
	go w.Run()

	in.Put("s1", SpeakRequest{Text: "नमस्ते"})
	waitFor(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.plays) == 1
	})
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.plays[0].n != 1280 || sink.plays[0].end {
		t.Fatalf("got %+v", sink.plays[0])
	}
	in.Close()
}

func TestTTSWorker_SynthesisFailureStillEndsCall(t *testing.T) {
	in := NewQueue[SpeakRequest](nil)
	sink := &fakeSink{}
	w := &TTSWorker{In: in, Synth: &fakeSynth{err: errors.New("down")}, Sink: sink, Log: zap.NewNop()}
	go w.Run()

	in.Put("s1", SpeakRequest{Text: "धन्यवाद", EndCall: true})
	waitFor(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.plays) == 1
	})
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if !sink.plays[0].end {
		t.Fatalf("end flag lost on synthesis failure")
	}
	in.Close()
}

func TestTTSWorker_SynthesisFailureRetriesQuestion(t *testing.T) {
	in := NewQueue[SpeakRequest](nil)
	retry := NewQueue[string](nil)
	sink := &fakeSink{}
	w := &TTSWorker{
		In:    in,
		Synth: &fakeSynth{err: errors.New("down")},
		Sink:  sink,
		Retry: retry,
		Log:   zap.NewNop(),
	}
	go w.Run()
	defer in.Close()

	in.Put("s1", SpeakRequest{Text: "नमस्ते"})
	item, ok := retry.Get()
	if !ok {
		t.Fatalf("no retry enqueued")
	}
	if item.SessionID != "s1" || item.Payload != "" {
		t.Fatalf("retry item %+v, want empty transcript for s1", item)
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.plays) != 0 {
		t.Fatalf("sink played %d times after failed synthesis", len(sink.plays))
	}
}

// blockingTranscriber stalls on payloads whose first byte is 1 until
// released, and answers everything else immediately.
type blockingTranscriber struct {
	release chan struct{}
}

func (b *blockingTranscriber) Transcribe(_ context.Context, audio []byte) (string, error) {
	if len(audio) > 0 && audio[0] == 1 {
		<-b.release
		return "slow", nil
	}
	return "fast", nil
}

func TestASRWorker_SlowSessionDoesNotBlockOthers(t *testing.T) {
	in := NewQueue[[]byte](nil)
	out := NewQueue[string](nil)
	tr := &blockingTranscriber{release: make(chan struct{})}
	w := &ASRWorker{In: in, Out: out, Transcriber: tr, Log: zap.NewNop()}
	go w.Run()
	defer in.Close()

	stuck := make([]byte, 640)
	stuck[0] = 1
	in.Put("s1", stuck)
	in.Put("s2", make([]byte, 640))

	// s2's transcript arrives while s1 is still mid-transcription.
	item, ok := out.Get()
	if !ok {
		t.Fatalf("no transcript")
	}
	if item.SessionID != "s2" || item.Payload != "fast" {
		t.Fatalf("got %+v, want s2 first", item)
	}

	close(tr.release)
	item, ok = out.Get()
	if !ok {
		t.Fatalf("no second transcript")
	}
	if item.SessionID != "s1" || item.Payload != "slow" {
		t.Fatalf("got %+v, want s1 after release", item)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

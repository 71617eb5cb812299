package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/asr"
	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/bridge"
	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/config"
	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/dialer"
	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/extract"
	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/flow"
	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/httpserver"
	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/logging"
	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/metrics"
	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/pipeline"
	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/playback"
	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/recorder"
	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/store"
	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/tts"
	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/vad"
)

func main() {
	cfg := config.Load()
	logger := logging.New()
	defer func() { _ = logger.Sync() }()

	reg := prometheus.NewRegistry()
	metrics.Register(reg)

	db, err := store.Open(cfg.SQLitePath)
	if err != nil {
		logger.Fatal("database open failed", zap.Error(err))
	}
	st := store.New(db, logger)
	writer := store.NewWriter(st, 64, logger)

	var rec *recorder.Recorder
	if cfg.SupabaseURL != "" {
		storage := recorder.NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseBucket)
		rec = recorder.New(storage, 128, logger)
	} else {
		logger.Warn("SUPABASE_URL not set, call recording disabled")
	}

	utterances := pipeline.NewQueue[[]byte](metrics.QueueDepth.WithLabelValues("utterance"))
	transcripts := pipeline.NewQueue[string](metrics.QueueDepth.WithLabelValues("transcript"))
	speaks := pipeline.NewQueue[pipeline.SpeakRequest](metrics.QueueDepth.WithLabelValues("speak"))

	extractor := extract.NewLLMExtractor(
		extract.NewChatClient(cfg.LLMAPIURL, cfg.LLMAPIKey, cfg.LLMModelID),
		cfg.CompanyName, logger)
	machine := flow.NewMachine(flow.DefaultQuestions(cfg.CompanyName), extractor, cfg.MaxRetries)

	var synth tts.Synthesizer
	if cfg.DeepgramKey != "" {
		synth = tts.NewDeepgramSynthesizer(cfg.DeepgramKey, cfg.DeepgramModel)
	} else {
		synth = tts.NewHTTPSynthesizer(cfg.TTSAPIURL)
	}

	sessions := bridge.NewRegistry()
	handler := &bridge.Handler{
		Sessions:      sessions,
		Detectors:     vad.NewRegistry(vad.DefaultTelephony()),
		Tokens:        playback.NewController(),
		Machine:       machine,
		NewClassifier: func() vad.Classifier { return vad.NewEnergyClassifier() },
		Utterances:    utterances,
		Transcripts:   transcripts,
		Speaks:        speaks,
		Names:         st,
		OnSessionEnd: func(streamSid, callSid string, fs *flow.Session) {
			snapshot, rows := store.Snapshot(callSid, fs)
			writer.Enqueue(snapshot, rows)
		},
		Log: logger,
	}
	if rec != nil {
		handler.Audio = rec
	}

	asrWorker := &pipeline.ASRWorker{
		In:          utterances,
		Out:         transcripts,
		Transcriber: asr.NewHTTPClient(cfg.ASRAPIURL),
		Log:         logger,
	}
	flowWorker := &pipeline.FlowWorker{
		In:       transcripts,
		Out:      speaks,
		Machine:  machine,
		Sessions: sessions,
		OnDecision: func(sessionID string, fs *flow.Session, d flow.Decision) {
			callSid := ""
			if s := sessions.Get(sessionID); s != nil {
				callSid = s.CallSid
			}
			snapshot, rows := store.Snapshot(callSid, fs)
			writer.Enqueue(snapshot, rows)
		},
		Log: logger,
	}
	ttsWorker := &pipeline.TTSWorker{
		In:    speaks,
		Synth: synth,
		Sink:  handler,
		Retry: transcripts,
		Log:   logger,
	}
	go asrWorker.Run()
	go flowWorker.Run()
	go ttsWorker.Run()

	dial := dialer.New(dialer.Config{
		AccountSID:    cfg.TwilioAccountSID,
		AuthToken:     cfg.TwilioAuthToken,
		FromNumber:    cfg.TwilioFromNumber,
		StreamBaseURL: cfg.StreamBaseURL,
	}, logger)

	srv := httpserver.NewServer(httpserver.Deps{
		Store:   st,
		Dialer:  dial,
		Stream:  handler,
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Log:     logger,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           srv.Echo,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("address", cfg.HTTPAddress))
		serverErrors <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	case sig := <-sigChan:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		_ = server.Close()
	}

	// Stop the stage workers, then flush persistence and recordings.
	utterances.Close()
	transcripts.Close()
	speaks.Close()
	writer.Close()
	if rec != nil {
		rec.Close()
	}
}

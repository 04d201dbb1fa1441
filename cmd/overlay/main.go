// Command overlay runs the tracking and focus engine against a detector
// source and streams per-tick snapshots to rendering clients over gRPC.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/focus.overlay/internal/analysis"
	"github.com/banshee-data/focus.overlay/internal/config"
	"github.com/banshee-data/focus.overlay/internal/detect"
	"github.com/banshee-data/focus.overlay/internal/engine"
	"github.com/banshee-data/focus.overlay/internal/monitor"
	"github.com/banshee-data/focus.overlay/internal/monitoring"
	"github.com/banshee-data/focus.overlay/internal/stream"
	"github.com/banshee-data/focus.overlay/internal/tracking"
	"github.com/banshee-data/focus.overlay/internal/version"
)

var (
	configPath  = flag.String("config", "", "Path to a tuning JSON file (defaults are used when empty)")
	listen      = flag.String("listen", "localhost:50061", "gRPC snapshot stream listen address")
	debugListen = flag.String("debug-listen", "localhost:8081", "Debug HTTP listen address (empty disables)")
	logLevel    = flag.String("log-level", "ops", "Log streams to enable: ops, diag or trace")
	showVersion = flag.Bool("version", false, "Print version and exit")
	replayPath  = flag.String("replay", "", "Replay detections from a JSON-lines file instead of the synthetic scene")
	replayLoop  = flag.Bool("replay-loop", false, "Loop the replay file")
	recordPath  = flag.String("record", "", "Record every detection batch to a JSON-lines file")
	memoryPath  = flag.String("memory", "", "Path to a JSON memory file used as analysis context")
	maxClients  = flag.Int("max-clients", 8, "Maximum concurrent snapshot stream clients")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	level, err := monitoring.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	monitoring.SetLevel(os.Stderr, level)
	log.Printf("focus overlay %s", version.String())

	tuning := config.EmptyTuningConfig()
	if *configPath != "" {
		tuning, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	detector, closeDetector, err := buildDetector()
	if err != nil {
		log.Fatalf("failed to set up detector: %v", err)
	}
	defer closeDetector()

	analyzer, err := buildAnalyzer()
	if err != nil {
		log.Fatalf("failed to set up analysis: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	streamCfg := stream.DefaultConfig()
	streamCfg.ListenAddr = *listen
	streamCfg.MaxClients = *maxClients
	publisher := stream.NewPublisher(streamCfg)
	if err := publisher.Start(); err != nil {
		log.Fatalf("failed to start snapshot stream: %v", err)
	}
	defer publisher.Stop()

	tracker := tracking.NewTracker(tracking.TrackerConfigFromTuning(tuning))
	eng := engine.New(engine.ConfigFromTuning(tuning), tracker, detector, analyzer, engine.WithSink(publisher))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return eng.Run(ctx)
	})

	if *debugListen != "" {
		g.Go(func() error {
			return serveDebug(ctx, eng)
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatalf("overlay stopped: %v", err)
	}
	log.Printf("Graceful shutdown complete")
}

// buildDetector returns the replay or synthetic detector, wrapped in a
// recorder when -record is set. The returned func closes any open files.
func buildDetector() (detect.Detector, func(), error) {
	var detector detect.Detector
	closers := []func(){}
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if *replayPath != "" {
		replay, err := detect.OpenReplay(*replayPath, *replayLoop)
		if err != nil {
			return nil, closeAll, err
		}
		log.Printf("replaying %d frames from %s (loop=%v)", replay.Len(), *replayPath, *replayLoop)
		detector = replay
	} else {
		detector = detect.NewSyntheticDetector(detect.SyntheticConfig{
			Objects:  detect.DefaultScene(),
			Jitter:   0.004,
			DropRate: 0.05,
		})
		log.Printf("using synthetic scene")
	}

	if *recordPath != "" {
		f, err := os.Create(*recordPath)
		if err != nil {
			return nil, closeAll, fmt.Errorf("create recording: %w", err)
		}
		closers = append(closers, func() {
			if err := f.Close(); err != nil {
				log.Printf("close recording: %v", err)
			}
		})
		detector = &detect.Recording{Detector: detector, Recorder: detect.NewRecorder(f)}
		log.Printf("recording detections to %s", *recordPath)
	}
	return detector, closeAll, nil
}

// buildAnalyzer assembles the provider cascade from the environment.
// With no provider keys set it returns nil and locks stay on the
// placeholder description.
func buildAnalyzer() (analysis.Analyzer, error) {
	var providers []analysis.Provider
	if key := os.Getenv("MISTRAL_API_KEY"); key != "" {
		providers = append(providers, analysis.NewMistralProvider(key))
	}
	if key := os.Getenv("MINIMAX_API_KEY"); key != "" {
		providers = append(providers, analysis.NewMinimaxProvider(key, os.Getenv("MINIMAX_GROUP_ID")))
	}
	if len(providers) == 0 {
		log.Printf("no analysis providers configured; locks will not be described")
		return nil, nil
	}

	cascade := &analysis.Cascade{Providers: providers}
	if *memoryPath != "" {
		mem, err := analysis.LoadStaticMemory(*memoryPath)
		if err != nil {
			return nil, err
		}
		log.Printf("loaded %d memory records from %s", mem.Len(), *memoryPath)
		cascade.Memory = mem
	}
	return cascade, nil
}

func serveDebug(ctx context.Context, eng *engine.Engine) error {
	mux := http.NewServeMux()
	monitor.AttachAdminRoutes(mux, eng, eng.Tracker())

	server := &http.Server{
		Addr:    *debugListen,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("debug routes on http://%s/debug/", *debugListen)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("debug server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}
	return nil
}

// Package stream serves per-tick track snapshots to rendering clients over
// a server-streaming gRPC method.
//
// Messages are google.protobuf.Struct values, so clients need only the
// well-known types, not generated stubs.
package stream

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"

	"github.com/banshee-data/focus.overlay/internal/monitoring"
	"github.com/banshee-data/focus.overlay/internal/tracking"
)

var streamLog = monitoring.NewComponent("stream")

// Config holds configuration for the snapshot gRPC server.
type Config struct {
	// ListenAddr is the address to listen on (e.g., "localhost:50061")
	ListenAddr string

	// MaxClients is the maximum number of concurrent streaming clients
	MaxClients int

	// ClientBuffer is the per-client queue depth; slow clients drop frames
	ClientBuffer int
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		ListenAddr:   "localhost:50061",
		MaxClients:   8,
		ClientBuffer: 4,
	}
}

// Publisher manages the gRPC server and snapshot fan-out.
type Publisher struct {
	config   Config
	server   *grpc.Server
	listener net.Listener

	frameChan chan tracking.Snapshot
	clients   map[string]*clientStream
	clientsMu sync.RWMutex
	nextID    atomic.Uint64
	latest    atomic.Pointer[tracking.Snapshot]

	// Stats
	frameCount     atomic.Uint64
	clientCount    atomic.Int32
	droppedFrames  atomic.Uint64
	lastStatsTime  time.Time
	lastFrameCount uint64
	lastStatsMu    sync.Mutex

	// Lifecycle
	running atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// clientStream is one connected streaming client.
type clientStream struct {
	id      string
	opts    StreamOptions
	frameCh chan tracking.Snapshot
}

// PublisherStats contains publisher statistics.
type PublisherStats struct {
	FrameCount    uint64 `json:"frame_count"`
	DroppedFrames uint64 `json:"dropped_frames"`
	ClientCount   int32  `json:"client_count"`
	Running       bool   `json:"running"`
}

// NewPublisher creates a Publisher with the given configuration.
func NewPublisher(cfg Config) *Publisher {
	if cfg.ClientBuffer <= 0 {
		cfg.ClientBuffer = 4
	}
	return &Publisher{
		config:    cfg,
		frameChan: make(chan tracking.Snapshot, 64),
		clients:   make(map[string]*clientStream),
		stopCh:    make(chan struct{}),
	}
}

// Start binds ListenAddr and serves in the background.
func (p *Publisher) Start() error {
	lis, err := net.Listen("tcp", p.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return p.StartOnListener(lis)
}

// StartOnListener serves on an existing listener.
func (p *Publisher) StartOnListener(lis net.Listener) error {
	if !p.running.CompareAndSwap(false, true) {
		return fmt.Errorf("publisher already running")
	}
	p.listener = lis
	p.server = grpc.NewServer()
	RegisterService(p.server, NewServer(p))

	p.wg.Add(1)
	go p.broadcastLoop()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		streamLog.Opsf("gRPC server listening on %s", lis.Addr())
		if err := p.server.Serve(lis); err != nil && p.running.Load() {
			streamLog.Opsf("gRPC server error: %v", err)
		}
	}()
	return nil
}

// Stop closes every stream and stops the server.
func (p *Publisher) Stop() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.stopCh)
	if p.server != nil {
		// Streams never end on their own, so GracefulStop would wait forever.
		p.server.Stop()
	}
	p.wg.Wait()
	streamLog.Opsf("gRPC server stopped")
}

// Publish queues a snapshot for every client. It never blocks; when the
// queue is full the snapshot is dropped.
func (p *Publisher) Publish(snap tracking.Snapshot) {
	p.latest.Store(&snap)
	if !p.running.Load() {
		return
	}
	select {
	case p.frameChan <- snap:
		count := p.frameCount.Add(1)
		p.logPeriodicStats(count, len(snap.Tracks))
	default:
		dropped := p.droppedFrames.Add(1)
		streamLog.Tracef("dropped snapshot %d (total dropped: %d), queue full", snap.Seq, dropped)
	}
}

// logPeriodicStats logs throughput every 5 seconds.
func (p *Publisher) logPeriodicStats(frameCount uint64, trackCount int) {
	p.lastStatsMu.Lock()
	defer p.lastStatsMu.Unlock()

	now := time.Now()
	if p.lastStatsTime.IsZero() {
		p.lastStatsTime = now
		p.lastFrameCount = frameCount
		return
	}
	elapsed := now.Sub(p.lastStatsTime)
	if elapsed >= 5*time.Second {
		fps := float64(frameCount-p.lastFrameCount) / elapsed.Seconds()
		streamLog.Diagf("stats: fps=%.1f dropped=%d clients=%d tracks=%d",
			fps, p.droppedFrames.Load(), p.clientCount.Load(), trackCount)
		p.lastStatsTime = now
		p.lastFrameCount = frameCount
	}
}

// broadcastLoop distributes snapshots to every client.
func (p *Publisher) broadcastLoop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			return
		case snap := <-p.frameChan:
			p.clientsMu.RLock()
			for _, client := range p.clients {
				select {
				case client.frameCh <- snap:
				default:
					// Slow client: drop this frame for it only.
					p.droppedFrames.Add(1)
				}
			}
			p.clientsMu.RUnlock()
		}
	}
}

// addClient registers a client, or returns nil when the server is full.
func (p *Publisher) addClient(opts StreamOptions) *clientStream {
	p.clientsMu.Lock()
	defer p.clientsMu.Unlock()

	if p.config.MaxClients > 0 && len(p.clients) >= p.config.MaxClients {
		return nil
	}
	client := &clientStream{
		id:      fmt.Sprintf("client-%d", p.nextID.Add(1)),
		opts:    opts,
		frameCh: make(chan tracking.Snapshot, p.config.ClientBuffer),
	}
	// Seed new clients with the latest frame so they never start blank.
	if last := p.latest.Load(); last != nil {
		client.frameCh <- *last
	}
	p.clients[client.id] = client
	p.clientCount.Add(1)
	streamLog.Diagf("client connected: %s (total: %d)", client.id, p.clientCount.Load())
	return client
}

// removeClient unregisters a client.
func (p *Publisher) removeClient(id string) {
	p.clientsMu.Lock()
	defer p.clientsMu.Unlock()
	if _, ok := p.clients[id]; !ok {
		return
	}
	delete(p.clients, id)
	p.clientCount.Add(-1)
	streamLog.Diagf("client disconnected: %s (remaining: %d)", id, p.clientCount.Load())
}

// Addr returns the bound address, or nil before Start.
func (p *Publisher) Addr() net.Addr {
	if p.listener == nil {
		return nil
	}
	return p.listener.Addr()
}

// Stats returns current publisher statistics.
func (p *Publisher) Stats() PublisherStats {
	return PublisherStats{
		FrameCount:    p.frameCount.Load(),
		DroppedFrames: p.droppedFrames.Load(),
		ClientCount:   p.clientCount.Load(),
		Running:       p.running.Load(),
	}
}

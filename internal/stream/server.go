package stream

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/focus.overlay/internal/tracking"
)

// Service and method names on the wire.
const (
	ServiceName         = "focusoverlay.OverlayService"
	StreamSnapshotsName = "StreamSnapshots"
	StreamSnapshotsPath = "/" + ServiceName + "/" + StreamSnapshotsName
)

// SnapshotStreamer is the server-side contract of the overlay service.
type SnapshotStreamer interface {
	StreamSnapshots(req *structpb.Struct, stream grpc.ServerStream) error
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SnapshotStreamer)(nil),
	Streams: []grpc.StreamDesc{{
		StreamName:    StreamSnapshotsName,
		Handler:       streamSnapshotsHandler,
		ServerStreams: true,
	}},
	Metadata: "focusoverlay/overlay.proto",
}

func streamSnapshotsHandler(srv any, stream grpc.ServerStream) error {
	req := new(structpb.Struct)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(SnapshotStreamer).StreamSnapshots(req, stream)
}

// RegisterService registers the overlay service with a gRPC server.
func RegisterService(s *grpc.Server, srv SnapshotStreamer) {
	s.RegisterService(&serviceDesc, srv)
}

// StreamOptions are the request fields a client may set.
type StreamOptions struct {
	IncludeDetections bool // "include_detections"
	AnalyzedOnly      bool // "analyzed_only"
}

func parseStreamOptions(req *structpb.Struct) StreamOptions {
	f := req.GetFields()
	return StreamOptions{
		IncludeDetections: f["include_detections"].GetBoolValue(),
		AnalyzedOnly:      f["analyzed_only"].GetBoolValue(),
	}
}

// Ensure Server implements the service contract.
var _ SnapshotStreamer = (*Server)(nil)

// Server implements the overlay service on top of a Publisher.
type Server struct {
	publisher *Publisher
}

// NewServer creates a service bound to publisher.
func NewServer(publisher *Publisher) *Server {
	return &Server{publisher: publisher}
}

// StreamSnapshots sends every published snapshot until the client leaves.
func (s *Server) StreamSnapshots(req *structpb.Struct, stream grpc.ServerStream) error {
	opts := parseStreamOptions(req)
	client := s.publisher.addClient(opts)
	if client == nil {
		return status.Error(codes.ResourceExhausted, "too many clients")
	}
	defer s.publisher.removeClient(client.id)

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.publisher.stopCh:
			return status.Error(codes.Unavailable, "server stopping")
		case snap := <-client.frameCh:
			msg, err := SnapshotToStruct(snap, opts)
			if err != nil {
				return status.Errorf(codes.Internal, "encode snapshot: %v", err)
			}
			if err := stream.SendMsg(msg); err != nil {
				return err
			}
		}
	}
}

// SnapshotToStruct encodes a snapshot for the wire.
func SnapshotToStruct(snap tracking.Snapshot, opts StreamOptions) (*structpb.Struct, error) {
	tracks := make([]any, 0, len(snap.Tracks))
	for _, v := range snap.Tracks {
		if opts.AnalyzedOnly && !v.IsAnalyzed {
			continue
		}
		tracks = append(tracks, trackFields(v))
	}
	m := map[string]any{
		"seq":                snap.Seq,
		"timestamp":          snap.Timestamp.UTC().Format(time.RFC3339Nano),
		"dwell_threshold_ms": snap.DwellThresholdMs,
		"tracks":             tracks,
	}
	if opts.IncludeDetections {
		dets := make([]any, 0, len(snap.Detections))
		for _, d := range snap.Detections {
			dets = append(dets, map[string]any{
				"class": d.Class,
				"score": d.Score,
				"bbox":  []any{d.Box.X, d.Box.Y, d.Box.W, d.Box.H},
			})
		}
		m["detections"] = dets
	}
	return structpb.NewStruct(m)
}

func trackFields(v tracking.TrackView) map[string]any {
	points := make([]any, 0, len(v.SegmentPoints))
	for _, p := range v.SegmentPoints {
		points = append(points, map[string]any{"x": p.X, "y": p.Y, "active": p.Active})
	}
	return map[string]any{
		"id":              v.ID,
		"source":          string(v.Source),
		"class":           v.Class,
		"label":           v.Label,
		"color":           v.Color,
		"sx":              v.Smoothed.X,
		"sy":              v.Smoothed.Y,
		"sw":              v.Smoothed.W,
		"sh":              v.Smoothed.H,
		"distance_factor": v.DistanceFactor,
		"depth_meters":    v.DepthMeters,
		"focus_progress":  v.FocusProgress,
		"focus_state":     string(v.FocusState),
		"is_analyzed":     v.IsAnalyzed,
		"is_ai_attached":  v.IsAiAttached,
		"description":     v.Description,
		"segment_points":  points,
	}
}

// SnapshotClient reads snapshots from a StreamSnapshots call.
type SnapshotClient struct {
	stream grpc.ClientStream
}

// OpenSnapshotStream starts StreamSnapshots on conn. req may be nil.
func OpenSnapshotStream(ctx context.Context, conn grpc.ClientConnInterface, req *structpb.Struct) (*SnapshotClient, error) {
	if req == nil {
		req = &structpb.Struct{}
	}
	cs, err := conn.NewStream(ctx, &serviceDesc.Streams[0], StreamSnapshotsPath)
	if err != nil {
		return nil, err
	}
	if err := cs.SendMsg(req); err != nil {
		return nil, err
	}
	if err := cs.CloseSend(); err != nil {
		return nil, err
	}
	return &SnapshotClient{stream: cs}, nil
}

// Recv blocks for the next snapshot.
func (c *SnapshotClient) Recv() (*structpb.Struct, error) {
	msg := new(structpb.Struct)
	if err := c.stream.RecvMsg(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

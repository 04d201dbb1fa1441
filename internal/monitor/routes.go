package monitor

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"tailscale.com/tsweb"

	"github.com/banshee-data/focus.overlay/internal/engine"
	"github.com/banshee-data/focus.overlay/internal/httputil"
	"github.com/banshee-data/focus.overlay/internal/monitoring"
	"github.com/banshee-data/focus.overlay/internal/tracking"
)

//go:embed templates/*
var adminTemplateFS embed.FS

var attachTemplate = template.Must(template.ParseFS(adminTemplateFS, "templates/attach.html.tmpl"))

var monitorLog = monitoring.NewComponent("monitor")

// attachTimeout bounds how long an attach request waits for the engine loop.
const attachTimeout = 2 * time.Second

// EngineView is the part of the engine the debug pages read and drive.
type EngineView interface {
	Latest() tracking.Snapshot
	Stats() engine.Stats
	Running() bool
	Attach(ctx context.Context, class, label, color, description string) (string, error)
}

// JitterSource reports per-track smoothing jitter.
type JitterSource interface {
	JitterMetrics() []tracking.JitterMetrics
}

type tracksResponse struct {
	Snapshot tracking.Snapshot        `json:"snapshot"`
	Jitter   []tracking.JitterMetrics `json:"jitter"`
}

// AttachAdminRoutes registers the overlay debug endpoints under /debug/ on
// mux. These routes are reachable only from localhost or the tailnet.
// jitter may be nil.
func AttachAdminRoutes(mux *http.ServeMux, eng EngineView, jitter JitterSource) {
	debug := tsweb.Debugger(mux)

	debug.KVFunc("Engine running", func() any { return eng.Running() })
	debug.KVFunc("Live tracks", func() any { return len(eng.Latest().Tracks) })
	debug.KVFunc("Detection batches", func() any { return eng.Stats().Batches })
	debug.KVFunc("Detector ticks skipped (busy)", func() any { return eng.Stats().SkippedBusy })
	debug.KVFunc("Analyses dispatched", func() any { return eng.Stats().AnalysesDispatched })
	debug.KVFunc("Analysis results applied", func() any { return eng.Stats().ResultsApplied })

	debug.HandleFunc("tracks", "current track snapshot as JSON", func(w http.ResponseWriter, r *http.Request) {
		resp := tracksResponse{Snapshot: eng.Latest()}
		if jitter != nil {
			resp.Jitter = jitter.JitterMetrics()
		}
		httputil.WriteJSON(w, http.StatusOK, resp)
	})

	debug.HandleFunc("stats", "engine, tracker and analysis counters as JSON", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, eng.Stats())
	})

	debug.HandleFunc("tracks-chart", "scatter of smoothed track centres with focus progress", func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := renderTracksPage(&buf, eng.Latest()); err != nil {
			httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("render error: %v", err))
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	})

	debug.HandleFunc("attach", "attach a label to the nearest matching track", func(w http.ResponseWriter, r *http.Request) {
		snap := eng.Latest()
		buf := bytes.NewBuffer(nil)
		data := struct {
			TrackCount int
			Seq        uint64
		}{len(snap.Tracks), snap.Seq}
		if err := attachTemplate.Execute(buf, data); err != nil {
			http.Error(w, "Failed to render template", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.Copy(w, buf)
	})

	debug.HandleSilentFunc("attach-api", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		class := strings.TrimSpace(r.FormValue("class"))
		if class == "" {
			class = tracking.AnyClass
		}
		label := strings.TrimSpace(r.FormValue("label"))
		color := strings.TrimSpace(r.FormValue("color"))
		description := strings.TrimSpace(r.FormValue("description"))
		if label == "" && description == "" {
			http.Error(w, "Missing label or description", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), attachTimeout)
		defer cancel()
		id, err := eng.Attach(ctx, class, label, color, description)
		switch {
		case errors.Is(err, engine.ErrNoCandidate):
			http.Error(w, fmt.Sprintf("No track matches class %q", class), http.StatusNotFound)
			return
		case errors.Is(err, engine.ErrNotRunning):
			http.Error(w, "Engine not running", http.StatusServiceUnavailable)
			return
		case err != nil:
			monitorLog.Opsf("attach %q failed: %v", class, err)
			http.Error(w, "Attach failed", http.StatusInternalServerError)
			return
		}
		monitorLog.Diagf("attached label %q to %s via debug form", label, id)
		io.WriteString(w, fmt.Sprintf("Attached %q to %s", label, id))
	})
}

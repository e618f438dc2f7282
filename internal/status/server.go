// Package status serves a read-only view of the dial over HTTP.
package status

import (
	"encoding/json"
	"net"
	"net/http"
	"time"

	"ble-dial.klederson.com/internal/dial"
	"ble-dial.klederson.com/internal/logger"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// SnapshotSource returns the latest published dial state.
type SnapshotSource interface {
	Snapshot() *dial.Snapshot
}

// DialView is the JSON body of /v1/dial.
type DialView struct {
	Active    bool         `json:"active"`
	Session   string       `json:"session,omitempty"`
	Capacity  int          `json:"capacity"`
	Divisions int          `json:"divisions"`
	Rotation  float64      `json:"rotation_deg"`
	Excluded  []int        `json:"excluded"`
	Slotted   int          `json:"slotted"`
	Devices   []DeviceView `json:"devices"`
}

// DeviceView is one slotted device.
type DeviceView struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Slot     int       `json:"slot"`
	Angle    float64   `json:"angle_deg"`
	RSSI     int       `json:"rssi"`
	Stale    bool      `json:"stale"`
	LastSeen time.Time `json:"last_seen"`
	Hue      float64   `json:"hue"`
}

// NewDialView converts a snapshot to its JSON form.
func NewDialView(s *dial.Snapshot) DialView {
	ring := s.Ring()
	v := DialView{
		Active:    s.Active(),
		Session:   s.Session(),
		Capacity:  ring.Capacity(),
		Divisions: ring.Divisions(),
		Rotation:  ring.Rotation(),
		Excluded:  ring.Excluded(),
		Slotted:   s.Len(),
		Devices:   []DeviceView{},
	}
	if v.Excluded == nil {
		v.Excluded = []int{}
	}
	for _, id := range s.Slotted() {
		slot, _ := s.Slot(id)
		rec, _ := s.Record(id)
		v.Devices = append(v.Devices, DeviceView{
			ID:       id,
			Name:     rec.Name,
			Slot:     slot,
			Angle:    ring.MidpointAngle(slot),
			RSSI:     rec.Signal.Display(),
			Stale:    rec.Signal.IsStale(),
			LastSeen: rec.LastSeen,
			Hue:      dial.Hue(id),
		})
	}
	return v
}

// Server is the status endpoint.
type Server struct {
	src     SnapshotSource
	metrics fasthttp.RequestHandler
	version string
	srv     *fasthttp.Server
}

// New builds a Server. metrics may be nil to disable /metrics.
func New(src SnapshotSource, metrics http.Handler, version string) *Server {
	s := &Server{src: src, version: version}
	if metrics != nil {
		s.metrics = fasthttpadaptor.NewFastHTTPHandler(metrics)
	}
	s.srv = &fasthttp.Server{
		Handler:            s.Handle,
		Name:               "ble-dial",
		ReadTimeout:        5 * time.Second,
		WriteTimeout:       5 * time.Second,
		MaxRequestBodySize: 1 << 10,
	}
	return s
}

// Handle routes one request.
func (s *Server) Handle(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() && !ctx.IsHead() {
		ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
		return
	}
	switch string(ctx.Path()) {
	case "/healthz":
		writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok", "version": s.version})
	case "/v1/dial":
		snap := s.src.Snapshot()
		if snap == nil {
			writeJSON(ctx, fasthttp.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		writeJSON(ctx, fasthttp.StatusOK, NewDialView(snap))
	case "/metrics":
		if s.metrics == nil {
			ctx.SetStatusCode(fasthttp.StatusNotFound)
			return
		}
		s.metrics(ctx)
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	}
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	logger.Info("status_server_listening", "addr", ln.Addr().String())
	return s.srv.Serve(ln)
}

// ListenAndServe binds addr and serves.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.srv.Shutdown()
}

func writeJSON(ctx *fasthttp.RequestCtx, code int, body any) {
	b, err := json.Marshal(body)
	if err != nil {
		logger.Error("status_encode_failed", "error", err)
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(code)
	_, _ = ctx.Write(b)
}

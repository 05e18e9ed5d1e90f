// Package stream serves the simulation over websockets: every step it
// broadcasts a tone-mapped RGB frame to all subscribers and accepts
// interactive dye and force input from them.
package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/san-kum/liquidlab/internal/elements"
	"github.com/san-kum/liquidlab/internal/field"
	"github.com/san-kum/liquidlab/internal/solver"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// handlers share this value, so origin policy is fixed here rather
	// than assigned per request
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Frame is one broadcast snapshot. RGB holds width*height*3 tone-mapped
// bytes in row-major order, base64-encoded by the JSON marshaller.
type Frame struct {
	Step     uint64  `json:"step"`
	Width    int     `json:"w"`
	Height   int     `json:"h"`
	Residual float64 `json:"residual"`
	RGB      []byte  `json:"rgb"`
}

// Input is an interactive perturbation from a client. Coordinates are
// normalized to [0,1] like share links.
type Input struct {
	Type      string     `json:"t"` // "d" dye splat, "f" force push
	X         float64    `json:"x"`
	Y         float64    `json:"y"`
	Radius    float64    `json:"r"`
	Color     [3]float64 `json:"c"`
	Intensity float64    `json:"i"`
	Direction [2]float64 `json:"d"`
	Strength  float64    `json:"s"`
}

// Server steps the simulation on its own loop and fans frames out to
// websocket subscribers. Client input lands in a queue drained before each
// step, so the solver state is only ever touched from the loop goroutine.
type Server struct {
	state *solver.State
	dt    float64
	rate  time.Duration
	log   *slog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte

	inputs chan Input
}

func NewServer(state *solver.State, dt float64, fps int, log *slog.Logger) *Server {
	if fps <= 0 {
		fps = 30
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		state:   state,
		dt:      dt,
		rate:    time.Second / time.Duration(fps),
		log:     log,
		clients: make(map[*websocket.Conn]chan []byte),
		inputs:  make(chan Input, 256),
	}
}

// ListenAndServe runs the HTTP endpoint and the step loop until ctx is
// canceled or the server fails.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)

	srv := &http.Server{Addr: addr, Handler: mux}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	go s.loop(ctx)

	s.log.Info("streaming simulation", "addr", addr, "fps", int(time.Second/s.rate))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		return err
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	out := make(chan []byte, 4)

	s.mu.Lock()
	s.clients[conn] = out
	n := len(s.clients)
	s.mu.Unlock()
	s.log.Info("subscriber connected", "remote", r.RemoteAddr, "subscribers", n)

	go s.writeLoop(conn, out)
	go s.readLoop(conn, r.RemoteAddr)
}

func (s *Server) writeLoop(conn *websocket.Conn, out chan []byte) {
	for msg := range out {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			s.drop(conn)
			return
		}
	}
}

func (s *Server) readLoop(conn *websocket.Conn, remote string) {
	defer s.drop(conn)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("subscriber read failed", "remote", remote, "error", err)
			}
			return
		}
		var in Input
		if err := json.Unmarshal(msg, &in); err != nil {
			s.log.Warn("discarding malformed input", "remote", remote, "error", err)
			continue
		}
		select {
		case s.inputs <- in:
		default:
			// input queue full, shed rather than stall the reader
		}
	}
}

func (s *Server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	out, ok := s.clients[conn]
	if ok {
		delete(s.clients, conn)
		close(out)
	}
	n := len(s.clients)
	s.mu.Unlock()
	if ok {
		conn.Close()
		s.log.Info("subscriber disconnected", "subscribers", n)
	}
}

func (s *Server) loop(ctx context.Context) {
	ticker := time.NewTicker(s.rate)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.drainInputs()
			if err := s.state.Step(s.dt); err != nil {
				s.log.Error("simulation diverged, clearing fields", "error", err)
				s.state.Clear()
				continue
			}
			s.broadcast()
		}
	}
}

func (s *Server) drainInputs() {
	g := s.state.Grid()
	w := float64(g.Width)
	h := float64(g.Height)
	for {
		select {
		case in := <-s.inputs:
			pos := elements.Vec2{X: in.X * w, Y: in.Y * h}
			radius := math.Max(in.Radius*w, 1e-3)
			switch in.Type {
			case "d":
				color := elements.Color{R: in.Color[0], G: in.Color[1], B: in.Color[2]}
				s.state.InjectDye(pos, radius, color, in.Intensity)
			case "f":
				dir := elements.Vec2{X: in.Direction[0], Y: in.Direction[1]}
				s.state.ApplyForce(pos, radius, dir, in.Strength)
			default:
				s.log.Warn("discarding input with unknown type", "type", in.Type)
			}
		default:
			return
		}
	}
}

func (s *Server) broadcast() {
	s.mu.Lock()
	n := len(s.clients)
	s.mu.Unlock()
	if n == 0 {
		return
	}

	snap := s.state.DyeSnapshot()
	frame := encodeFrame(snap, s.state.Report())
	s.state.ReleaseSnapshot(snap)

	msg, err := json.Marshal(frame)
	if err != nil {
		s.log.Error("frame marshal failed", "error", err)
		return
	}

	s.mu.Lock()
	for _, out := range s.clients {
		select {
		case out <- msg:
		default:
			// slow subscriber, skip this frame for it
		}
	}
	s.mu.Unlock()
}

func encodeFrame(dye *field.Dye, report solver.StepReport) Frame {
	g := dye.Grid()
	rgb := make([]byte, g.Cells()*3)
	for i := 0; i < g.Cells(); i++ {
		rgb[i*3] = toneMap(dye.C[field.ChannelR][i])
		rgb[i*3+1] = toneMap(dye.C[field.ChannelG][i])
		rgb[i*3+2] = toneMap(dye.C[field.ChannelB][i])
	}
	return Frame{
		Step:     report.Step,
		Width:    g.Width,
		Height:   g.Height,
		Residual: report.Residual,
		RGB:      rgb,
	}
}

func toneMap(v float64) byte {
	if v <= 0 {
		return 0
	}
	return byte(math.Round(255 * (1 - math.Exp(-v))))
}

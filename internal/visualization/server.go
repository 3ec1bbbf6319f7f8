package visualization

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/nvandessel/coopnet/internal/network"
	"github.com/nvandessel/coopnet/internal/sweep"
)

// Server serves a sweep report page plus JSON and DOT views of each run's
// final network state.
type Server struct {
	title      string
	net        *network.Network
	report     *sweep.Report
	httpServer *http.Server
	listener   net.Listener
	mu         sync.Mutex
	addr       string
}

// NewServer creates a report server for one sweep.
func NewServer(title string, net *network.Network, report *sweep.Report) *Server {
	return &Server{title: title, net: net, report: report}
}

// Addr returns the address the server is listening on (e.g., "localhost:PORT").
// Returns empty string if the server hasn't started yet.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/report", s.handleReport)
	mux.HandleFunc("GET /api/runs/{index}/network", s.handleNetwork)
	return mux
}

// ListenAndServe starts the HTTP server on addr (an OS-assigned localhost
// port when empty) and blocks until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = "localhost:0"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.mu.Lock()
	s.listener = ln
	s.addr = ln.Addr().String()
	s.httpServer = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	err = s.httpServer.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := RenderHTML(s.title, s.report)
	if err != nil {
		http.Error(w, "render error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.report)
}

// handleNetwork renders the final assignment of one run. ?format=dot
// returns Graphviz text; anything else returns JSON.
func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || idx < 0 || idx >= len(s.report.Runs) {
		http.Error(w, "unknown run: "+r.PathValue("index"), http.StatusNotFound)
		return
	}
	run := s.report.Runs[idx]
	if run.Failed() {
		http.Error(w, "run failed: "+run.Err, http.StatusConflict)
		return
	}

	if r.URL.Query().Get("format") == string(FormatDOT) {
		dot, err := RenderDOT(s.net, run.Final)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
		w.Write([]byte(dot))
		return
	}

	g, err := RenderJSON(s.net, run.Final)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(g)
}

// browserCommands maps GOOS to the command that opens a URL.
var browserCommands = map[string][]string{
	"linux":   {"xdg-open"},
	"darwin":  {"open"},
	"windows": {"cmd", "/c", "start"},
}

// OpenBrowser opens url in the user's default browser.
func OpenBrowser(url string) error {
	args, ok := browserCommands[runtime.GOOS]
	if !ok {
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return exec.Command(args[0], append(args[1:], url)...).Start()
}

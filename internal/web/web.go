package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"panelseq/internal/config"
	appLog "panelseq/internal/log"
	"panelseq/internal/metrics"
	"panelseq/internal/panel"
	"panelseq/internal/schedule"

	"golang.org/x/crypto/bcrypt"
	"periph.io/x/conn/v3/physic"
)

// Server exposes the panel lifecycle over HTTP.
type Server struct {
	cfg *config.Config
	ctl *schedule.Controller
	mux *http.ServeMux
}

// NewServer constructs a new Server. All lifecycle calls go through ctl.
func NewServer(cfg *config.Config, ctl *schedule.Controller) *Server {
	s := &Server{
		cfg: cfg,
		ctl: ctl,
		mux: http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials disable auth rather than locking everyone out.
	ba := s.cfg.BasicAuth
	return ba.Username != "" && (ba.Password != "" || ba.PasswordHash != "")
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password
	hash := []byte(s.cfg.BasicAuth.PasswordHash)

	checkPassword := func(p string) bool {
		if len(hash) > 0 {
			return bcrypt.CompareHashAndPassword(hash, []byte(p)) == nil
		}
		return secureCompare(p, password)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !checkPassword(p) {
			w.Header().Set("WWW-Authenticate", `Basic realm="panelctl", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Run serves on cfg.Listen until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/panel", s.handleStatus)
	s.mux.HandleFunc("POST /api/panel/{op}", s.handleOp)
	s.mux.Handle("GET /metrics", metrics.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// modeDTO is a JSON-friendly view of panel.ModeInfo.
type modeDTO struct {
	Name      string `json:"name"`
	Preferred bool   `json:"preferred"`
	ClockKHz  int64  `json:"clock_khz"`
	HDisplay  int    `json:"hdisplay"`
	HTotal    int    `json:"htotal"`
	VDisplay  int    `json:"vdisplay"`
	VTotal    int    `json:"vtotal"`
	VRefresh  int    `json:"vrefresh"`
	WidthMM   int    `json:"width_mm"`
	HeightMM  int    `json:"height_mm"`
}

// statusResponse is the JSON response shape for /api/panel.
type statusResponse struct {
	State       string    `json:"state"`
	Panel       string    `json:"panel"`
	Compatible  string    `json:"compatible"`
	Modes       []modeDTO `json:"modes"`
	Lanes       int       `json:"lanes"`
	Format      string    `json:"format"`
	Diagnostics string    `json:"diagnostics,omitempty"`
}

func (s *Server) status() statusResponse {
	st := s.ctl.Status()
	resp := statusResponse{
		State:      st.State.String(),
		Panel:      st.Profile.Name,
		Compatible: st.Profile.Compatible,
		Modes:      make([]modeDTO, 0, len(st.Modes)),
		Lanes:      st.Profile.Link.Lanes,
		Format:     st.Profile.Link.Format,
	}
	for _, m := range st.Modes {
		resp.Modes = append(resp.Modes, modeDTO{
			Name:      m.Name,
			Preferred: m.Preferred(),
			ClockKHz:  int64(m.Clock / physic.KiloHertz),
			HDisplay:  m.HDisplay,
			HTotal:    m.HTotal,
			VDisplay:  m.VDisplay,
			VTotal:    m.VTotal,
			VRefresh:  m.VRefresh,
			WidthMM:   m.WidthMM,
			HeightMM:  m.HeightMM,
		})
	}
	if st.Diagnostics != nil {
		resp.Diagnostics = st.Diagnostics.Error()
	}
	return resp
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

// handleOp runs one lifecycle operation.
//
// POST /api/panel/{prepare|enable|disable|unprepare}
//
// Calls that do not apply to the current state succeed without effect. A
// failed call answers with the error code and the unchanged state.
func (s *Server) handleOp(w http.ResponseWriter, r *http.Request) {
	op := panel.Op(r.PathValue("op"))
	switch op {
	case panel.OpPrepare, panel.OpEnable, panel.OpDisable, panel.OpUnprepare:
	default:
		writeError(w, http.StatusNotFound, "unknown operation")
		return
	}

	appLog.Info("api panel request", "op", op)
	if err := s.ctl.Do(op); err != nil {
		status := http.StatusInternalServerError
		if panel.CodeOf(err) == panel.ResourceMissing {
			status = http.StatusConflict
		}
		type opError struct {
			Error string `json:"error"`
			Code  string `json:"code,omitempty"`
			State string `json:"state"`
		}
		writeJSON(w, status, opError{
			Error: err.Error(),
			Code:  string(panel.CodeOf(err)),
			State: s.ctl.Status().State.String(),
		})
		return
	}
	writeJSON(w, http.StatusOK, s.status())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

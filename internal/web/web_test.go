package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"panelseq/internal/config"
	"panelseq/internal/hw"
	"panelseq/internal/panel"
	"panelseq/internal/profiles"
	"panelseq/internal/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type noSleep struct{}

func (noSleep) Sleep(time.Duration) {}

type deadBacklight struct{}

func (deadBacklight) Enable() error  { return errors.New("no pwm") }
func (deadBacklight) Disable() error { return nil }

func newServer(t *testing.T, cfg *config.Config, opts *panel.Opts) *Server {
	t.Helper()
	prof := profiles.Sharp()
	res := hw.Simulated(prof)
	if opts.BacklightPolicy == panel.BacklightRequired {
		res.Backlight = deadBacklight{}
	}
	opts.Clock = noSleep{}
	p, err := panel.New(prof, res, opts)
	require.NoError(t, err)
	return NewServer(cfg, schedule.NewController(p))
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func decodeStatus(t *testing.T, rec *httptest.ResponseRecorder) statusResponse {
	t.Helper()
	var st statusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	return st
}

func TestHealth(t *testing.T) {
	h := newServer(t, config.DefaultConfig(), &panel.Opts{}).Handler()
	rec := do(t, h, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestStatus(t *testing.T) {
	h := newServer(t, config.DefaultConfig(), &panel.Opts{}).Handler()
	rec := do(t, h, http.MethodGet, "/api/panel")
	require.Equal(t, http.StatusOK, rec.Code)

	st := decodeStatus(t, rec)
	assert.Equal(t, "off", st.State)
	assert.Equal(t, "ls050t1sx01", st.Panel)
	assert.Equal(t, "sharp,ls050t1sx01", st.Compatible)
	require.Len(t, st.Modes, 1)
	assert.Equal(t, "1080x1920", st.Modes[0].Name)
	assert.True(t, st.Modes[0].Preferred)
	assert.EqualValues(t, 144000, st.Modes[0].ClockKHz)
	assert.Equal(t, 4, st.Lanes)
}

func TestLifecycleOverHTTP(t *testing.T) {
	h := newServer(t, config.DefaultConfig(), &panel.Opts{}).Handler()

	for _, step := range []struct{ op, want string }{
		{"enable", "off"}, // no-op from Off
		{"prepare", "prepared"},
		{"prepare", "prepared"},
		{"enable", "enabled"},
		{"disable", "prepared"},
		{"unprepare", "off"},
	} {
		rec := do(t, h, http.MethodPost, "/api/panel/"+step.op)
		require.Equal(t, http.StatusOK, rec.Code, step.op)
		assert.Equal(t, step.want, decodeStatus(t, rec).State, step.op)
	}
}

func TestUnknownOpAndMethod(t *testing.T) {
	h := newServer(t, config.DefaultConfig(), &panel.Opts{}).Handler()
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/panel/reboot").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/api/panel/prepare").Code)
}

func TestOpFailureReportsCode(t *testing.T) {
	h := newServer(t, config.DefaultConfig(), &panel.Opts{BacklightPolicy: panel.BacklightRequired}).Handler()
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/panel/prepare").Code)

	rec := do(t, h, http.MethodPost, "/api/panel/enable")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "backlight_failure", body["code"])
	assert.Equal(t, "prepared", body["state"])
}

func TestBasicAuth(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "admin", Password: "secret"}
	h := newServer(t, cfg, &panel.Opts{}).Handler()

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/api/panel").Code)

	req := httptest.NewRequest(http.MethodGet, "/api/panel", nil)
	req.SetBasicAuth("admin", "secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/panel", nil)
	req.SetBasicAuth("admin", "wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBasicAuthBcrypt(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "admin", PasswordHash: string(hash)}
	h := newServer(t, cfg, &panel.Opts{}).Handler()

	for pw, want := range map[string]int{"hunter2": http.StatusOK, "hunter3": http.StatusUnauthorized} {
		req := httptest.NewRequest(http.MethodGet, "/api/panel", nil)
		req.SetBasicAuth("admin", pw)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, pw)
	}
}

func TestBasicAuthDisabledWithoutPassword(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "admin"}
	h := newServer(t, cfg, &panel.Opts{}).Handler()
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/panel").Code)
}

func TestMetricsRoute(t *testing.T) {
	h := newServer(t, config.DefaultConfig(), &panel.Opts{}).Handler()
	rec := do(t, h, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

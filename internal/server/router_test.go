package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mbellec/scriptforge/internal/agent"
	"github.com/mbellec/scriptforge/internal/executor"
)

type stubExecutor struct {
	mu    sync.Mutex
	pid   int
	calls int
}

func (s *stubExecutor) ExecuteScript(string) (executor.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return executor.Result{
		PID:     s.pid,
		Message: fmt.Sprintf("Script lancé avec AutoHotkey (PID: %d)", s.pid),
	}, nil
}

func newTestAgent(t *testing.T, pid int) *agent.Agent {
	t.Helper()
	a, err := agent.New(agent.Config{
		ScriptsDir: t.TempDir(),
		Executor:   &stubExecutor{pid: pid},
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("new agent: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func setupRouter(t *testing.T, base string) (http.Handler, *agent.Agent) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	a := newTestAgent(t, 4242)
	r := NewRouter(a, base)
	return r.Handler(), a
}

func doReq(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestProcessEndpoint(t *testing.T) {
	h, a := setupRouter(t, "/api")
	req := commandRequest{Command: "hotkey ctrl+alt+t: lance le terminal", Description: "lance le terminal"}
	rec := doReq(t, h, http.MethodPost, "/api/commands", req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res agent.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("parse result: %v", err)
	}
	if !res.OK || res.Action != agent.ActionExecuted || res.Name == "" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if a.Running()[res.Name] != 4242 {
		t.Fatalf("script not tracked: %v", a.Running())
	}
}

func TestProcessRequiresCommand(t *testing.T) {
	h, _ := setupRouter(t, "")
	rec := doReq(t, h, http.MethodPost, "/commands", commandRequest{Description: "x"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestProcessRejectsInvalidJSON(t *testing.T) {
	h, _ := setupRouter(t, "")
	req := httptest.NewRequest(http.MethodPost, "/commands", bytes.NewReader([]byte("{broken")))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGenerateThenListAndFind(t *testing.T) {
	h, _ := setupRouter(t, "")
	req := commandRequest{Command: "text macro @@:: mon.email@example.com", Description: "raccourci email"}
	rec := doReq(t, h, http.MethodPost, "/scripts", req)
	if rec.Code != http.StatusOK {
		t.Fatalf("generate expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doReq(t, h, http.MethodGet, "/scripts", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list expected 200, got %d", rec.Code)
	}
	var listResp struct {
		Scripts []scriptInfo `json:"scripts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("parse list: %v", err)
	}
	if len(listResp.Scripts) != 1 || listResp.Scripts[0].Kind != "text_macro" {
		t.Fatalf("unexpected list: %+v", listResp)
	}

	rec = doReq(t, h, http.MethodGet, "/scripts/find?q=email", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("find expected 200, got %d", rec.Code)
	}
	var info scriptInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("parse find: %v", err)
	}
	if info.Name != listResp.Scripts[0].Name {
		t.Fatalf("find returned %q, want %q", info.Name, listResp.Scripts[0].Name)
	}
}

func TestFindRequiresQuery(t *testing.T) {
	h, _ := setupRouter(t, "")
	rec := doReq(t, h, http.MethodGet, "/scripts/find", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestFindMiss(t *testing.T) {
	h, _ := setupRouter(t, "")
	rec := doReq(t, h, http.MethodGet, "/scripts/find?q=rien", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestExecuteAndStopByName(t *testing.T) {
	gin.SetMode(gin.TestMode)
	// A pid above any real pid_max keeps the stop's kill harmless.
	a := newTestAgent(t, 1<<30)
	h := NewRouter(a, "").Handler()
	gen := a.Generate("hotkey ctrl+alt+t: lance le terminal", "lance le terminal")
	if !gen.OK {
		t.Fatalf("generate: %+v", gen)
	}

	rec := doReq(t, h, http.MethodPost, "/scripts/"+gen.Name+"/execute", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("execute expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(a.Running()) != 1 {
		t.Fatalf("tracking = %v", a.Running())
	}

	rec = doReq(t, h, http.MethodPost, "/scripts/"+gen.Name+"/stop", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stop expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(a.Running()) != 0 {
		t.Fatalf("tracking should be empty: %v", a.Running())
	}
}

func TestExecuteUnknownScript(t *testing.T) {
	h, _ := setupRouter(t, "")
	rec := doReq(t, h, http.MethodPost, "/scripts/inconnu/execute", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	var res agent.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("parse result: %v", err)
	}
	if res.OK || res.Message == "" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestStopUntracked(t *testing.T) {
	h, _ := setupRouter(t, "")
	rec := doReq(t, h, http.MethodPost, "/scripts/fantome/stop", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRejectsTraversalName(t *testing.T) {
	h, _ := setupRouter(t, "")
	rec := doReq(t, h, http.MethodPost, "/scripts/a..b/execute", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp errorResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse error resp: %v", err)
	}
	if resp.Error != "invalid script name" {
		t.Fatalf("unexpected error: %q", resp.Error)
	}
}

func TestRunningEndpoint(t *testing.T) {
	h, a := setupRouter(t, "")
	res := a.Process("hotkey ctrl+alt+t: lance le terminal", "lance le terminal")
	if !res.OK {
		t.Fatalf("process: %+v", res)
	}
	rec := doReq(t, h, http.MethodGet, "/running", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Running map[string]int `json:"running"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse running: %v", err)
	}
	if resp.Running[res.Name] != 4242 {
		t.Fatalf("unexpected running map: %v", resp.Running)
	}
}

func TestPruneEndpoint(t *testing.T) {
	h, a := setupRouter(t, "")
	gen := a.Generate("hotkey ctrl+alt+t: lance le terminal", "lance le terminal")
	if !gen.OK {
		t.Fatalf("generate: %+v", gen)
	}
	if err := os.Remove(gen.Path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	rec := doReq(t, h, http.MethodPost, "/scripts/prune", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Removed []string `json:"removed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse prune: %v", err)
	}
	if len(resp.Removed) != 1 || resp.Removed[0] != gen.Name {
		t.Fatalf("unexpected removed: %v", resp.Removed)
	}
}

func TestReconcileEndpoint(t *testing.T) {
	h, _ := setupRouter(t, "/base")
	rec := doReq(t, h, http.MethodPost, "/base/reconcile", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestMetricsEndpointOptIn(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a := newTestAgent(t, 4242)

	plain := NewRouter(a, "")
	rec := doReq(t, plain.Handler(), http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("metrics should be off by default, got %d", rec.Code)
	}

	withMetrics := NewRouter(a, "")
	withMetrics.EnableMetrics()
	rec = doReq(t, withMetrics.Handler(), http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics expected 200, got %d", rec.Code)
	}
}

func TestNewServerStartClose(t *testing.T) {
	a := newTestAgent(t, 4242)
	srv, err := NewServer("127.0.0.1:0", "/x", a)
	if err != nil {
		t.Fatalf("NewServer error: %v", err)
	}
	_ = srv.Close()
}

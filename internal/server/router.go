package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mbellec/scriptforge/internal/agent"
	"github.com/mbellec/scriptforge/internal/catalog"
	"github.com/mbellec/scriptforge/internal/metrics"
)

// Router provides embeddable HTTP handlers for the script agent.
// Endpoints:
//
//	POST {basePath}/commands             body: {command, description}
//	POST {basePath}/scripts              body: {command, description} (generate only)
//	GET  {basePath}/scripts              list catalog entries with a live file
//	GET  {basePath}/scripts/find         query: q=...
//	POST {basePath}/scripts/prune        drop stale catalog entries
//	POST {basePath}/scripts/:name/execute
//	POST {basePath}/scripts/:name/stop
//	GET  {basePath}/running              query: usage=1 adds cpu/memory samples
//	POST {basePath}/reconcile            one reconciliation pass now
//
// basePath may be empty or start with '/'; no trailing slash.
type Router struct {
	agent    *agent.Agent
	basePath string
	metrics  bool
}

// NewRouter constructs a Router with a configurable basePath.
// Example basePath: "/api" results in /api/commands, /api/scripts, ...
func NewRouter(a *agent.Agent, basePath string) *Router {
	return &Router{agent: a, basePath: sanitizeBase(basePath)}
}

// EnableMetrics mounts the Prometheus handler at /metrics, outside the
// base path.
func (r *Router) EnableMetrics() { r.metrics = true }

// Handler returns an http.Handler powered by gin that can be mounted in
// any server or mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	if r.metrics {
		g.GET("/metrics", gin.WrapH(metrics.Handler()))
	}
	group := g.Group(r.basePath)
	group.POST("/commands", r.handleProcess)
	group.POST("/scripts", r.handleGenerate)
	group.GET("/scripts", r.handleList)
	group.GET("/scripts/find", r.handleFind)
	group.POST("/scripts/prune", r.handlePrune)
	group.POST("/scripts/:name/execute", r.handleExecute)
	group.POST("/scripts/:name/stop", r.handleStop)
	group.GET("/running", r.handleRunning)
	group.POST("/reconcile", r.handleReconcile)
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
// Close the returned server to stop listening.
func NewServer(addr, basePath string, a *agent.Agent) (*http.Server, error) {
	r := NewRouter(a, basePath)
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server, nil
}

// --- Handlers ---

type errorResp struct {
	Error string `json:"error"`
}

type okResp struct {
	OK bool `json:"ok"`
}

type commandRequest struct {
	Command     string `json:"command"`
	Description string `json:"description"`
}

// scriptInfo is the outward shape of one catalog entry. The catalog
// keys entries by name, so Entry itself does not serialize it.
type scriptInfo struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Kind        string    `json:"kind"`
	Description string    `json:"description"`
	Created     time.Time `json:"created"`
}

func toScriptInfo(e catalog.Entry) scriptInfo {
	return scriptInfo{
		Name:        e.Name,
		Path:        e.Path,
		Kind:        string(e.Kind),
		Description: e.Description,
		Created:     e.Created,
	}
}

// writeResult maps a structured result to a status code: failures are
// client-visible errors, not server crashes.
func writeResult(c *gin.Context, res agent.Result) {
	code := http.StatusOK
	if !res.OK {
		code = http.StatusBadRequest
	}
	writeJSON(c, code, res)
}

func bindCommand(c *gin.Context) (commandRequest, bool) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return commandRequest{}, false
	}
	if req.Command == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "command required"})
		return commandRequest{}, false
	}
	return req, true
}

func (r *Router) handleProcess(c *gin.Context) {
	req, ok := bindCommand(c)
	if !ok {
		return
	}
	writeResult(c, r.agent.Process(req.Command, req.Description))
}

func (r *Router) handleGenerate(c *gin.Context) {
	req, ok := bindCommand(c)
	if !ok {
		return
	}
	writeResult(c, r.agent.Generate(req.Command, req.Description))
}

func (r *Router) handleList(c *gin.Context) {
	entries := r.agent.List()
	infos := make([]scriptInfo, len(entries))
	for i, e := range entries {
		infos[i] = toScriptInfo(e)
	}
	writeJSON(c, http.StatusOK, gin.H{"scripts": infos})
}

func (r *Router) handleFind(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "q query param required"})
		return
	}
	entry, found := r.agent.Find(q)
	if !found {
		writeJSON(c, http.StatusNotFound, errorResp{Error: "no script matches " + q})
		return
	}
	writeJSON(c, http.StatusOK, toScriptInfo(entry))
}

func (r *Router) handlePrune(c *gin.Context) {
	removed, err := r.agent.Prune()
	if err != nil {
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	if removed == nil {
		removed = []string{}
	}
	writeJSON(c, http.StatusOK, gin.H{"removed": removed})
}

func (r *Router) handleExecute(c *gin.Context) {
	name := c.Param("name")
	if !isSafeName(name) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid script name"})
		return
	}
	writeResult(c, r.agent.Execute(name))
}

func (r *Router) handleStop(c *gin.Context) {
	name := c.Param("name")
	if !isSafeName(name) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid script name"})
		return
	}
	writeResult(c, r.agent.Stop(name))
}

func (r *Router) handleRunning(c *gin.Context) {
	resp := gin.H{"running": r.agent.Running()}
	if c.Query("usage") == "1" || c.Query("usage") == "true" {
		resp["usage"] = r.agent.Usage()
	}
	writeJSON(c, http.StatusOK, resp)
}

func (r *Router) handleReconcile(c *gin.Context) {
	r.agent.ReconcileOnce()
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/yumeleng/scholar-qa-go/internal/dialog"
	"github.com/yumeleng/scholar-qa-go/internal/field"
	"github.com/yumeleng/scholar-qa-go/internal/kb"
	"github.com/yumeleng/scholar-qa-go/internal/logger"
	"github.com/yumeleng/scholar-qa-go/internal/metrics"
	"github.com/yumeleng/scholar-qa-go/internal/ratelimit"
)

type fakeAnswerer struct {
	lastQuestion string
	answer       string
}

func (f *fakeAnswerer) Answer(_ context.Context, _ *dialog.Context, question string) string {
	f.lastQuestion = question
	return f.answer
}

type fakeGraph struct {
	hIndexes  []int64
	fields    []kb.FieldCount
	years     []kb.YearCount
	network   kb.Network
	experts   map[string][]kb.Expert
	rangeHits []kb.Expert
	err       error
}

func (f *fakeGraph) HIndexDistribution(context.Context) ([]int64, error) {
	return f.hIndexes, f.err
}

func (f *fakeGraph) FieldDistribution(_ context.Context, limit int) ([]kb.FieldCount, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.fields) {
		return f.fields[:limit], nil
	}
	return f.fields, nil
}

func (f *fakeGraph) YearlyPublicationCounts(context.Context) ([]kb.YearCount, error) {
	return f.years, f.err
}

func (f *fakeGraph) CollaborationNetwork(_ context.Context, _ string, _, _ int) (kb.Network, error) {
	return f.network, f.err
}

func (f *fakeGraph) FieldNetwork(_ context.Context, _ string, _ int) (kb.Network, error) {
	return f.network, f.err
}

func (f *fakeGraph) ExpertsByInterest(_ context.Context, fieldName string) ([]kb.Expert, error) {
	return f.experts[fieldName], f.err
}

func (f *fakeGraph) ExpertsByInterestFuzzy(_ context.Context, fieldName string) ([]kb.Expert, error) {
	return f.experts["fuzzy:"+fieldName], f.err
}

func (f *fakeGraph) ExpertsByHIndexRange(context.Context, int64, int64) ([]kb.Expert, error) {
	return f.rangeHits, f.err
}

type testEnv struct {
	handler  *Handler
	answerer *fakeAnswerer
	graph    *fakeGraph
	sessions *dialog.Manager
	limiter  *ratelimit.SessionLimiter
}

func setupTestHandler(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	answerer := &fakeAnswerer{answer: "测试回答"}
	graph := &fakeGraph{}

	sessions := dialog.NewManager(dialog.ManagerConfig{
		TTL:         5 * time.Minute,
		SweepPeriod: time.Hour,
	})
	t.Cleanup(sessions.Stop)

	limiter := ratelimit.NewSessionLimiter(ratelimit.SessionLimiterConfig{
		Burst:         100,
		PerSecond:     100,
		CleanupPeriod: time.Hour,
	})
	t.Cleanup(limiter.Stop)

	m := metrics.New(prometheus.NewRegistry())
	log := logger.NewWithWriter("error", io.Discard)

	handler := NewHandler(HandlerConfig{
		Engine:        answerer,
		Sessions:      sessions,
		Limiter:       limiter,
		Graph:         graph,
		Normalizer:    field.NewNormalizer(),
		Metrics:       m,
		Logger:        log,
		AnswerTimeout: 5 * time.Second,
		FieldLimit:    10,
		EdgeLimit:     50,
	})

	return &testEnv{
		handler:  handler,
		answerer: answerer,
		graph:    graph,
		sessions: sessions,
		limiter:  limiter,
	}
}

func newTestRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.POST("/api/qa", h.HandleQA)
	router.GET("/api/stats/h-index", h.HandleHIndexStats)
	router.GET("/api/stats/fields", h.HandleFieldStats)
	router.GET("/api/stats/yearly", h.HandleYearlyStats)
	router.GET("/api/network/collaboration", h.HandleCollaborationNetwork)
	router.GET("/api/network/fields", h.HandleFieldNetwork)
	router.GET("/api/experts", h.HandleExperts)
	return router
}

func postQA(t *testing.T, router *gin.Engine, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/qa", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleQAAssignsSessionID(t *testing.T) {
	env := setupTestHandler(t)
	router := newTestRouter(env.handler)

	w := postQA(t, router, map[string]string{"question": "谁研究机器学习"})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp qaResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SessionID == "" {
		t.Error("response has no session_id")
	}
	if resp.Answer != "测试回答" {
		t.Errorf("answer = %q, want engine output", resp.Answer)
	}
	if env.answerer.lastQuestion != "谁研究机器学习" {
		t.Errorf("engine saw question %q", env.answerer.lastQuestion)
	}
}

func TestHandleQAKeepsProvidedSessionID(t *testing.T) {
	env := setupTestHandler(t)
	router := newTestRouter(env.handler)

	w := postQA(t, router, map[string]string{
		"session_id": "abc-123",
		"question":   "他的h指数是多少",
	})

	var resp qaResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SessionID != "abc-123" {
		t.Errorf("session_id = %q, want abc-123", resp.SessionID)
	}
	if env.sessions.ActiveCount() != 1 {
		t.Errorf("ActiveCount = %d, want 1", env.sessions.ActiveCount())
	}
}

func TestHandleQARejectsEmptyQuestion(t *testing.T) {
	env := setupTestHandler(t)
	router := newTestRouter(env.handler)

	for _, body := range []any{
		map[string]string{},
		map[string]string{"question": "   "},
	} {
		if w := postQA(t, router, body); w.Code != http.StatusBadRequest {
			t.Errorf("status = %d for body %v, want 400", w.Code, body)
		}
	}
}

func TestHandleQARateLimitsSession(t *testing.T) {
	env := setupTestHandler(t)
	env.limiter.Stop()

	limiter := ratelimit.NewSessionLimiter(ratelimit.SessionLimiterConfig{
		Burst:         1,
		PerSecond:     0.001,
		CleanupPeriod: time.Hour,
	})
	t.Cleanup(limiter.Stop)
	env.handler.limiter = limiter

	router := newTestRouter(env.handler)
	body := map[string]string{"session_id": "chatty", "question": "谁研究机器学习"}

	if w := postQA(t, router, body); w.Code != http.StatusOK {
		t.Fatalf("first question status = %d, want 200", w.Code)
	}
	w := postQA(t, router, body)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second question status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("429 response missing Retry-After header")
	}
}

func TestHandleHIndexStats(t *testing.T) {
	env := setupTestHandler(t)
	env.graph.hIndexes = []int64{40, 25, 10}
	router := newTestRouter(env.handler)

	req := httptest.NewRequest(http.MethodGet, "/api/stats/h-index", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		HIndexes []int64 `json:"h_indexes"`
		Count    int     `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 3 || len(resp.HIndexes) != 3 {
		t.Errorf("response = %+v, want 3 values", resp)
	}
}

func TestHandleFieldStatsRespectsLimit(t *testing.T) {
	env := setupTestHandler(t)
	env.graph.fields = []kb.FieldCount{
		{Field: "Machine Learning", Count: 30},
		{Field: "Computer Vision", Count: 20},
		{Field: "Robotics", Count: 5},
	}
	router := newTestRouter(env.handler)

	req := httptest.NewRequest(http.MethodGet, "/api/stats/fields?limit=2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp struct {
		Fields []kb.FieldCount `json:"fields"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Fields) != 2 {
		t.Errorf("fields = %d entries, want 2", len(resp.Fields))
	}
}

func TestHandleCollaborationNetworkRequiresExpert(t *testing.T) {
	env := setupTestHandler(t)
	router := newTestRouter(env.handler)

	req := httptest.NewRequest(http.MethodGet, "/api/network/collaboration", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d without expert param, want 400", w.Code)
	}
}

func TestHandleCollaborationNetwork(t *testing.T) {
	env := setupTestHandler(t)
	env.graph.network = kb.Network{
		Nodes: []kb.NetworkNode{{Name: "张三"}, {Name: "李四"}},
		Links: []kb.NetworkLink{{Source: "张三", Target: "李四", Weight: 2}},
	}
	router := newTestRouter(env.handler)

	req := httptest.NewRequest(http.MethodGet, "/api/network/collaboration?expert=张三&depth=1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp kb.Network
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Nodes) != 2 || len(resp.Links) != 1 {
		t.Errorf("network = %+v, want 2 nodes and 1 link", resp)
	}
}

func TestHandleExpertsNormalizesFieldAndFallsBack(t *testing.T) {
	env := setupTestHandler(t)
	env.graph.experts = map[string][]kb.Expert{
		"fuzzy:Natural Language Generation": {{Name: "Ehud Reiter"}},
	}
	router := newTestRouter(env.handler)

	req := httptest.NewRequest(http.MethodGet, "/api/experts?field=自然语言生成", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Field   string      `json:"field"`
		Experts []kb.Expert `json:"experts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Field != "Natural Language Generation" {
		t.Errorf("field = %q, want the canonical name", resp.Field)
	}
	if len(resp.Experts) != 1 || resp.Experts[0].Name != "Ehud Reiter" {
		t.Errorf("experts = %+v, want the fuzzy match", resp.Experts)
	}
}

func TestHandleExpertsByHIndexRange(t *testing.T) {
	env := setupTestHandler(t)
	env.graph.rangeHits = []kb.Expert{{Name: "张三"}}
	router := newTestRouter(env.handler)

	req := httptest.NewRequest(http.MethodGet, "/api/experts?min_h=10&max_h=50", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Experts []kb.Expert `json:"experts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Experts) != 1 {
		t.Errorf("experts = %+v, want 1 entry", resp.Experts)
	}
}

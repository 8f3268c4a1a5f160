package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"signal-forest/internal/dataset"
	"signal-forest/internal/domain"
	"signal-forest/internal/ml/common"
	"signal-forest/internal/ml/training"
	"signal-forest/internal/provider"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type modelStub struct {
	runErr     error
	predictErr error
	lastReq    training.Request
	lastRows   []dataset.Row
	lastLimit  int
	trained    bool
}

func (s *modelStub) Trained() bool { return s.trained }

func (s *modelStub) Run(ctx context.Context, req training.Request) (*training.RunResult, error) {
	s.lastReq = req
	if s.runErr != nil {
		return nil, s.runErr
	}
	return &training.RunResult{Run: domain.TrainingRun{ID: 7, Symbol: "AAPL", Status: domain.RunSucceeded}}, nil
}

func (s *modelStub) Predict(ctx context.Context, rows []dataset.Row) (*training.Prediction, error) {
	s.lastRows = rows
	if s.predictErr != nil {
		return nil, s.predictErr
	}
	labels := make([]string, len(rows))
	for i := range labels {
		labels[i] = "H"
	}
	return &training.Prediction{Symbol: "AAPL", Labels: labels}, nil
}

func (s *modelStub) ListRuns(ctx context.Context, limit int) ([]domain.TrainingRun, error) {
	s.lastLimit = limit
	return []domain.TrainingRun{{ID: 2}, {ID: 1}}, nil
}

type candleStub struct {
	err error
}

func (s candleStub) GetDailyCandles(ctx context.Context, symbol string, from, to time.Time) ([]*domain.Candle, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []*domain.Candle{{Symbol: symbol, Close: 1}}, nil
}

func newTestRouter(candles CandleReader, model SignalModel, key string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	New(trace.NewNoopTracerProvider().Tracer("handler-test"), candles, model, key).RegisterRoutes(r)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func TestTriggerTrainingServiceUnavailable(t *testing.T) {
	r := newTestRouter(nil, nil, "")
	if w := do(r, http.MethodPost, "/api/ml/train", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestTriggerTrainingWithoutBody(t *testing.T) {
	stub := &modelStub{}
	r := newTestRouter(nil, stub, "")
	w := do(r, http.MethodPost, "/api/ml/train", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body training.RunResult
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if body.Run.ID != 7 {
		t.Fatalf("unexpected response payload: %+v", body)
	}
}

func TestTriggerTrainingOverrides(t *testing.T) {
	stub := &modelStub{}
	r := newTestRouter(nil, stub, "")
	w := do(r, http.MethodPost, "/api/ml/train", `{"symbol":"msft","learner":"dt","bags":3,"classifier":false}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if stub.lastReq.Symbol != "msft" || stub.lastReq.Learner != "dt" || stub.lastReq.Bags != 3 {
		t.Fatalf("overrides not forwarded: %+v", stub.lastReq)
	}
	if stub.lastReq.Classifier == nil || *stub.lastReq.Classifier {
		t.Fatalf("classifier override not forwarded: %+v", stub.lastReq.Classifier)
	}
}

func TestTriggerTrainingErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bags", common.ErrInvalidConfig), http.StatusBadRequest},
		{training.ErrRunInProgress, http.StatusConflict},
		{fmt.Errorf("load candles: %w", provider.ErrNoData), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		r := newTestRouter(nil, &modelStub{runErr: tc.err}, "")
		if w := do(r, http.MethodPost, "/api/ml/train", "{}"); w.Code != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, w.Code)
		}
	}
}

func TestTriggerTrainingBadJSON(t *testing.T) {
	r := newTestRouter(nil, &modelStub{}, "")
	if w := do(r, http.MethodPost, "/api/ml/train", `{"bags":"many"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestPredict(t *testing.T) {
	stub := &modelStub{}
	r := newTestRouter(nil, stub, "")
	w := do(r, http.MethodPost, "/api/ml/predict", `{"rows":[{"Close":1.5,"RSI14":40},{"Close":2}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(stub.lastRows) != 2 || stub.lastRows[0]["RSI14"] != 40 {
		t.Fatalf("rows not forwarded: %+v", stub.lastRows)
	}
	var body training.Prediction
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(body.Labels) != 2 || body.Labels[0] != "H" {
		t.Fatalf("unexpected response payload: %+v", body)
	}
}

func TestPredictNotTrained(t *testing.T) {
	r := newTestRouter(nil, &modelStub{predictErr: common.ErrNotTrained}, "")
	if w := do(r, http.MethodPost, "/api/ml/predict", `{"rows":[{}]}`); w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestPredictMissingFeature(t *testing.T) {
	err := fmt.Errorf("%w: RSI14", common.ErrMissingFeature)
	r := newTestRouter(nil, &modelStub{predictErr: err}, "")
	if w := do(r, http.MethodPost, "/api/ml/predict", `{"rows":[{}]}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestListRunsLimit(t *testing.T) {
	stub := &modelStub{}
	r := newTestRouter(nil, stub, "")
	if w := do(r, http.MethodGet, "/api/ml/runs?limit=5", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if stub.lastLimit != 5 {
		t.Fatalf("expected limit 5, got %d", stub.lastLimit)
	}
	do(r, http.MethodGet, "/api/ml/runs?limit=9999", "")
	if stub.lastLimit != 20 {
		t.Fatalf("expected default limit 20, got %d", stub.lastLimit)
	}
}

func TestMLRoutesRequireKey(t *testing.T) {
	r := newTestRouter(nil, &modelStub{}, "secret")
	if w := do(r, http.MethodGet, "/api/ml/runs", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestGetCandles(t *testing.T) {
	r := newTestRouter(candleStub{}, nil, "")
	w := do(r, http.MethodGet, "/api/candles/aapl?days=30", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Symbol  string          `json:"symbol"`
		Days    int             `json:"days"`
		Candles []domain.Candle `json:"candles"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if body.Symbol != "AAPL" || body.Days != 30 || len(body.Candles) != 1 {
		t.Fatalf("unexpected response payload: %+v", body)
	}

	if w := do(r, http.MethodGet, "/api/candles/aapl?days=0", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	r = newTestRouter(candleStub{err: provider.ErrNoData}, nil, "")
	if w := do(r, http.MethodGet, "/api/candles/zzzz", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/salesetl/internal/config"
	"github.com/JonMunkholm/salesetl/internal/extract"
	"github.com/JonMunkholm/salesetl/internal/frame"
	"github.com/JonMunkholm/salesetl/internal/pipeline"
	"github.com/JonMunkholm/salesetl/internal/transform"
)

type stubExecutor struct {
	res *pipeline.Result
	err error
}

func (s *stubExecutor) Run(context.Context) (*pipeline.Result, error) {
	return s.res, s.err
}

func sampleResult(t *testing.T) *pipeline.Result {
	t.Helper()
	emp := frame.New("empregados", "id_empregado", "nome")
	emp.Append(int64(1), "Ana")
	prod := frame.New("produtos", "id_produto", "nome", "categoria")
	prod.Append(int64(10), "Caneta", "Papelaria")
	sales := frame.New("vendas", "id_venda", "data", "id_produto", "id_empregado", "quantidade", "valor_unitario", "valor_total")
	sales.Append(int64(1), "2024-01-05", int64(10), int64(1), int64(2), 5.0, nil)
	sales.Append(int64(2), "2024-01-06", int64(10), int64(1), int64(1), 5.0, nil)
	views, err := transform.Transform(emp, prod, sales, transform.Options{})
	require.NoError(t, err)

	dir := t.TempDir()
	pdf := filepath.Join(dir, "relatorio.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.3 test"), 0o644))

	return &pipeline.Result{RunID: "run-1", Views: views, ReportPath: pdf, RowCounts: views.RowCounts()}
}

func newTestServer(exec pipeline.Executor, sec config.SecurityConfig) (*Server, *pipeline.Runner) {
	runner := pipeline.NewRunner(exec)
	return NewServer(runner, &config.Config{Security: sec}), runner
}

func do(t *testing.T, s *Server, method, path string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&er))
	return er
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(&stubExecutor{}, config.SecurityConfig{})
	rec := do(t, s, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","busy":false}`, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestBeforeFirstRun(t *testing.T) {
	s, _ := newTestServer(&stubExecutor{}, config.SecurityConfig{})
	for _, path := range []string{"/api/runs/latest", "/api/views", "/api/views/resumo", "/reports/latest.pdf", "/snapshots/latest.parquet"} {
		rec := do(t, s, http.MethodGet, path)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, "NORUN001", decodeError(t, rec).Code, path)
	}
}

func TestRunAndInspect(t *testing.T) {
	s, _ := newTestServer(&stubExecutor{res: sampleResult(t)}, config.SecurityConfig{})

	rec := do(t, s, http.MethodPost, "/api/runs")
	require.Equal(t, http.StatusCreated, rec.Code)
	var res map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, "run-1", res["run_id"])

	rec = do(t, s, http.MethodGet, "/api/runs/latest")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/views")
	require.Equal(t, http.StatusOK, rec.Code)
	var infos []ViewInfo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&infos))
	assert.Len(t, infos, len(transform.ViewNames))
	assert.Contains(t, infos, ViewInfo{Name: "resumo", Rows: 2})

	rec = do(t, s, http.MethodGet, "/api/views/total_por_func")
	require.Equal(t, http.StatusOK, rec.Code)
	var view ViewResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.Equal(t, []string{"id_empregado", "nome_emp", "total_vendas"}, view.Columns)
	assert.Equal(t, [][]any{{1.0, "Ana", 15.0}}, view.Rows)

	rec = do(t, s, http.MethodGet, "/api/views/resumo?limit=1")
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.Len(t, view.Rows, 1)
	assert.Equal(t, 2, view.Total)

	rec = do(t, s, http.MethodGet, "/reports/latest.pdf")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-1.3 test", rec.Body.String())

	rec = do(t, s, http.MethodGet, "/snapshots/latest.parquet")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestViewErrors(t *testing.T) {
	s, runner := newTestServer(&stubExecutor{res: sampleResult(t)}, config.SecurityConfig{})
	_, err := runner.Run(context.Background())
	require.NoError(t, err)

	rec := do(t, s, http.MethodGet, "/api/views/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "VIEW001", decodeError(t, rec).Code)

	rec = do(t, s, http.MethodGet, "/api/views/resumo?limit=-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"missing input", fmt.Errorf("load vendas.csv: %w", &extract.MissingInputError{Path: "vendas.csv"}), http.StatusUnprocessableEntity, "IN001"},
		{"missing column", fmt.Errorf("transform: %w", &transform.MissingColumnError{Table: "vendas", Column: "quantidade"}), http.StatusUnprocessableEntity, "COL001"},
		{"database", errors.New("write fVendas: dial tcp: connection refused"), http.StatusInternalServerError, "DB001"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "ERR000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(&stubExecutor{res: &pipeline.Result{RunID: "r"}, err: tt.err}, config.SecurityConfig{})
			rec := do(t, s, http.MethodPost, "/api/runs")
			assert.Equal(t, tt.wantCode, rec.Code)
			er := decodeError(t, rec)
			assert.Equal(t, tt.wantErr, er.Code)
			assert.Equal(t, "r", er.RunID)
		})
	}
}

type blockingExecutor struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingExecutor) Run(context.Context) (*pipeline.Result, error) {
	close(b.started)
	<-b.release
	return &pipeline.Result{RunID: "slow"}, nil
}

func TestRunConflict(t *testing.T) {
	exec := &blockingExecutor{started: make(chan struct{}), release: make(chan struct{})}
	s, _ := newTestServer(exec, config.SecurityConfig{})

	done := make(chan int, 1)
	go func() { done <- do(t, s, http.MethodPost, "/api/runs").Code }()
	<-exec.started

	rec := do(t, s, http.MethodPost, "/api/runs")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "RUN001", decodeError(t, rec).Code)

	close(exec.release)
	assert.Equal(t, http.StatusCreated, <-done)
}

func TestRunRequiresAPIKey(t *testing.T) {
	s, _ := newTestServer(&stubExecutor{res: sampleResult(t)}, config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"secret"}})

	assert.Equal(t, http.StatusUnauthorized, do(t, s, http.MethodPost, "/api/runs").Code)
	assert.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/api/runs", "X-API-Key", "secret").Code)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/runs/latest").Code)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{pipeline.ErrRunInProgress, "RUN001"},
		{errors.New("publish: upload x: RequestError: send request failed, timeout"), "S3001"},
		{errors.New("pq: password authentication failed for user"), "DB004"},
		{errors.New("Error 1049: Unknown database 'dw'"), "DB005"},
		{errors.New("context deadline exceeded"), "DB003"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MapError(tt.err).Code, fmt.Sprint(tt.err))
	}
}

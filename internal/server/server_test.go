package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"rostermatch/internal"
	"rostermatch/internal/config"
	"rostermatch/internal/logger"
	"rostermatch/internal/metrics"
	"rostermatch/internal/pipeline"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	baseCSV   = "Aluno,Turma,Professor,Nivel\nJoao Silva,6A,Carla,6.1\nMaria Pereira,6B,Carla,6.2\n"
	rosterCSV = "Name\n\"Silva, Joao\"\n\"Pereira, Ana Maria\"\n\"Xyz, Qwerty\"\n"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Config{
		MatchThreshold:    80,
		MatchAlgorithm:    "token_sort_ratio",
		MatchWorkers:      1,
		MaxUploadMB:       1,
		RequestTimeoutSec: 5,
	}
	registry := prometheus.NewRegistry()
	log := logger.Discard()
	svc := pipeline.NewProcessingService(cfg, log, metrics.New(registry))
	return New(cfg, log, svc, registry)
}

type formFile struct {
	field, name, content string
}

func multipartRequest(t *testing.T, path string, files []formFile, fields map[string]string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestCompareEndpoint(t *testing.T) {
	s := newTestServer(t)
	req := multipartRequest(t, "/compare",
		[]formFile{{baseField, "base.csv", baseCSV}, {rosterField, "toefl.csv", rosterCSV}},
		map[string]string{"threshold": "80", "algorithm": "token_sort_ratio"})
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report internal.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.True(t, report.Success)
	require.Len(t, report.Results, 2)
	assert.Equal(t, "Joao Silva", report.Results[0].MatchedName)
	assert.Equal(t, "FUND-6A", report.Results[0].ClassLabel)
	assert.Equal(t, []string{"Xyz, Qwerty"}, report.Unmatched)
	assert.Equal(t, 66.67, report.Statistics.MatchPercentage)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	for _, key := range []string{"results", "unmatched_list", "suggestions", "statistics"} {
		assert.Contains(t, raw, key)
	}
}

func TestCompareEndpointErrors(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name   string
		files  []formFile
		fields map[string]string
		kind   string
	}{
		{name: "missing roster", files: []formFile{{baseField, "base.csv", baseCSV}}, kind: "missing_input"},
		{name: "unsupported", files: []formFile{{baseField, "base.txt", "x"}, {rosterField, "toefl.csv", rosterCSV}}, kind: "unsupported_format"},
		{name: "bad threshold", files: []formFile{{baseField, "base.csv", baseCSV}, {rosterField, "toefl.csv", rosterCSV}}, fields: map[string]string{"threshold": "high"}, kind: "invalid_options"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, multipartRequest(t, "/compare", tc.files, tc.fields))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tc.kind, body["error_kind"])
		})
	}
}

func TestCompareRejectsNonMultipart(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/compare", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, multipartRequest(t, "/upload", []formFile{{baseField, "base.csv", baseCSV}}, nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Files map[string]internal.FileInfo `json:"files"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	info := body.Files[baseField]
	assert.Equal(t, "base.csv", info.Name)
	assert.Equal(t, 2, info.Rows)
	assert.Equal(t, []string{"Aluno", "Turma", "Professor", "Nivel"}, info.Columns)

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, multipartRequest(t, "/upload", nil, map[string]string{"x": "y"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportEndpoint(t *testing.T) {
	s := newTestServer(t)
	report := internal.Report{
		Success:   true,
		Results:   []internal.MatchResult{{InputName: "Silva, Joao", MatchedName: "Joao Silva", ClassLabel: "FUND-6A"}},
		Unmatched: []string{"Xyz, Qwerty"},
	}
	payload, err := json.Marshal(report)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/export", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "comparacao_nomes_")

	f, err := excelize.OpenReader(w.Body)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue("Resultados_Comparacao", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Joao Silva", v)
}

func TestExportEndpointFailure(t *testing.T) {
	s := newTestServer(t)
	s.writeXLSX = func(internal.Report, io.Writer) error { return errors.New("disk full") }

	req := httptest.NewRequest(http.MethodPost, "/export", strings.NewReader(`{"success":true}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Header().Get("Content-Disposition"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "internal", body["error_kind"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, multipartRequest(t, "/compare",
		[]formFile{{baseField, "base.csv", baseCSV}, {rosterField, "toefl.csv", rosterCSV}}, nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `rostermatch_comparisons_total{status="success"} 1`)
}

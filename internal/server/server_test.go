package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	apperrors "github.com/agbru/cgbench/internal/errors"
	"github.com/agbru/cgbench/internal/logging"
	"github.com/agbru/cgbench/internal/report"
)

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()
	s := NewServer(":0", WithRunID("run-42"))

	rec := get(t, s, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "healthy" || resp.RunID != "run-42" || resp.Finished || resp.Passed != nil {
		t.Errorf("unexpected health before the report: %+v", resp)
	}

	s.SetReport(&report.Report{RunID: "run-42", Passed: true})
	resp = HealthResponse{}
	if err := json.NewDecoder(get(t, s, "/health").Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Finished || resp.Passed == nil || !*resp.Passed {
		t.Errorf("unexpected health after the report: %+v", resp)
	}
}

func TestHandleReport(t *testing.T) {
	t.Parallel()
	s := NewServer(":0")

	rec := get(t, s, "/report")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status before the report = %d, want 404", rec.Code)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil || errResp.Error != "Not Found" {
		t.Errorf("error body = %+v, %v", errResp, err)
	}

	s.SetReport(&report.Report{RunID: "abc", Schedule: report.Schedule{RepeatCount: 7}})
	rec = get(t, s, "/report")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var got report.Report
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.RunID != "abc" || got.Schedule.RepeatCount != 7 {
		t.Errorf("report = %+v", got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()
	s := NewServer(":0")
	for _, path := range []string{"/health", "/report", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("POST %s = %d", path, rec.Code)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	runs := prometheus.NewCounter(prometheus.CounterOpts{Name: "cgbench_timed_runs_total", Help: "runs"})
	reg.MustRegister(runs)
	runs.Add(3)

	s := NewServer(":0", WithRegistry(reg))
	get(t, s, "/health")
	get(t, s, "/report")

	body := get(t, s, "/metrics").Body.String()
	for _, want := range []string{
		"cgbench_timed_runs_total 3",
		`cgbench_http_requests_total{code="200",path="/health"} 1`,
		`cgbench_http_requests_total{code="404",path="/report"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("/metrics lacks %q:\n%s", want, body)
		}
	}
}

func TestLoggingMiddleware(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "json", Out: &buf})
	if err != nil {
		t.Fatal(err)
	}
	s := NewServer(":0", WithLogger(logger))
	get(t, s, "/health")
	if !strings.Contains(buf.String(), `"path":"/health"`) {
		t.Errorf("request not logged: %s", buf.String())
	}
}

func TestWithOptions(t *testing.T) {
	t.Parallel()
	timeouts := Timeouts{ShutdownTimeout: time.Second, ReadTimeout: 2 * time.Second, WriteTimeout: 3 * time.Second, IdleTimeout: 4 * time.Second}
	nop := logging.NewNopLogger()
	s := NewServer(":1234", WithTimeouts(timeouts), WithLogger(nop), WithLogger(nil))

	if s.timeouts != timeouts || s.httpServer.ReadTimeout != 2*time.Second || s.httpServer.IdleTimeout != 4*time.Second {
		t.Errorf("timeouts not applied: %+v", s.httpServer)
	}
	if s.logger != logging.Logger(nop) {
		t.Error("a nil logger should keep the previous one")
	}
	if s.httpServer.Addr != ":1234" {
		t.Errorf("Addr = %q", s.httpServer.Addr)
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	t.Parallel()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	s := NewServer(ln.Addr().String())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestStartReportsListenError(t *testing.T) {
	t.Parallel()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	err = NewServer(ln.Addr().String()).Start(context.Background())
	var serverErr apperrors.ServerError
	if !errors.As(err, &serverErr) {
		t.Errorf("expected a ServerError, got %v", err)
	}
}

func TestConcurrentRequests(t *testing.T) {
	t.Parallel()
	s := NewServer(":0")
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i == 10 {
				s.SetReport(&report.Report{RunID: "late"})
			}
			path := "/health"
			if i%2 == 0 {
				path = "/report"
			}
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			if rec.Code != http.StatusOK && rec.Code != http.StatusNotFound {
				t.Errorf("%s = %d", path, rec.Code)
			}
		}()
	}
	wg.Wait()
}

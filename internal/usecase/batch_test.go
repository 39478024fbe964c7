package usecase

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func TestBatchSubmitLineByLine(t *testing.T) {
	var mu sync.Mutex
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(body))
		mu.Unlock()

		if strings.Contains(string(body), "reject") {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := NewBatchService(zerolog.Nop())

	text := "alpha\n\n  \nreject_me\nbeta\n"
	report, err := svc.Submit(context.Background(), BatchSubmit{Text: text, URL: srv.URL})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if report.Total != 3 {
		t.Errorf("expected 3 submitted lines (blanks skipped), got %d", report.Total)
	}
	if report.Succeeded != 2 || report.Failed != 1 {
		t.Errorf("expected 2 ok / 1 failed, got %d/%d", report.Succeeded, report.Failed)
	}
	if len(report.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(report.Results))
	}
	if report.Results[1].Line != "reject_me" || report.Results[1].Success {
		t.Errorf("failing line misreported: %+v", report.Results[1])
	}

	mu.Lock()
	defer mu.Unlock()
	if len(bodies) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(bodies))
	}
	if bodies[0] != "line=alpha" {
		t.Errorf("unexpected form body %q", bodies[0])
	}
}

func TestBatchSubmitEncodesFormValues(t *testing.T) {
	var mu sync.Mutex
	var gotLines []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm failed: %v", err)
		}
		mu.Lock()
		gotLines = append(gotLines, r.PostFormValue("line"))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := NewBatchService(zerolog.Nop())

	report, err := svc.Submit(context.Background(), BatchSubmit{
		Text: "a=b&c=d\nplain",
		URL:  srv.URL,
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if report.Succeeded != 2 {
		t.Fatalf("expected 2 successes, got %+v", report)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(gotLines) != 2 || gotLines[0] != "a=b&c=d" || gotLines[1] != "plain" {
		t.Errorf("form values corrupted in transit: %q", gotLines)
	}
}

func TestBatchSubmitGetWithCustomParam(t *testing.T) {
	var mu sync.Mutex
	var gotMethods []string
	var gotValues []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotMethods = append(gotMethods, r.Method)
		gotValues = append(gotValues, r.URL.Query().Get("entry"))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := NewBatchService(zerolog.Nop())

	report, err := svc.Submit(context.Background(), BatchSubmit{
		Text:      "first value\nsecond&tricky",
		URL:       srv.URL,
		Method:    "GET",
		ParamName: "entry",
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if report.Succeeded != 2 {
		t.Fatalf("expected 2 successes, got %+v", report)
	}

	mu.Lock()
	defer mu.Unlock()
	for _, m := range gotMethods {
		if m != http.MethodGet {
			t.Errorf("expected GET requests, got %q", m)
		}
	}
	if len(gotValues) != 2 || gotValues[0] != "first value" || gotValues[1] != "second&tricky" {
		t.Errorf("query values corrupted in transit: %q", gotValues)
	}
}

func TestBatchSubmitUnreachableTarget(t *testing.T) {
	svc := NewBatchService(zerolog.Nop())

	report, err := svc.Submit(context.Background(), BatchSubmit{Text: "one\ntwo", URL: "http://127.0.0.1:1/submit"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if report.Total != 2 || report.Failed != 2 {
		t.Errorf("expected both lines to fail, got %+v", report)
	}
	for _, r := range report.Results {
		if r.Error == "" {
			t.Errorf("expected transport error recorded for %q", r.Line)
		}
	}
}

func TestBatchSubmitCancelledContext(t *testing.T) {
	svc := NewBatchService(zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := svc.Submit(ctx, BatchSubmit{Text: "one\ntwo", URL: "http://127.0.0.1:1/submit"})
	if err == nil {
		t.Fatal("expected context error")
	}
	if report.Total != 0 {
		t.Errorf("no lines should be submitted after cancellation, got %d", report.Total)
	}
}

package classifier

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// fakeGenAI returns a canned reply or error.
type fakeGenAI struct {
	reply string
	err   error
}

func (f *fakeGenAI) Generate(_ context.Context, _, _ string) (string, error) {
	return f.reply, f.err
}

func TestGenAIClassifierPredict(t *testing.T) {
	clf := NewGenAIClassifier(&fakeGenAI{reply: "demo_request|0.85"}, []string{"demo_request", "pricing_inquiry"})

	pred, err := clf.Predict(context.Background(), "i want a demo")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.Intent != "demo_request" {
		t.Errorf("expected demo_request, got %q", pred.Intent)
	}
	if pred.Confidence == nil || *pred.Confidence != 0.85 {
		t.Errorf("expected confidence 0.85, got %v", pred.Confidence)
	}
}

func TestGenAIClassifierMalformedReply(t *testing.T) {
	// A reply without the separator degrades to nil confidence, not an error.
	clf := NewGenAIClassifier(&fakeGenAI{reply: "demo_request"}, nil)
	pred, err := clf.Predict(context.Background(), "text")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.Intent != "demo_request" || pred.Confidence != nil {
		t.Errorf("expected degraded prediction, got %+v", pred)
	}

	// Out-of-range confidence is treated the same way.
	clf = NewGenAIClassifier(&fakeGenAI{reply: "demo_request|7"}, nil)
	pred, _ = clf.Predict(context.Background(), "text")
	if pred.Confidence != nil {
		t.Errorf("out-of-range confidence should be dropped, got %v", pred.Confidence)
	}
}

func TestGenAIClassifierError(t *testing.T) {
	clf := NewGenAIClassifier(&fakeGenAI{err: errors.New("rate limited")}, nil)
	if _, err := clf.Predict(context.Background(), "text"); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestHTTPClassifierPredict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"intent":"pricing_inquiry","confidence":0.72}`))
	}))
	defer srv.Close()

	clf, err := NewHTTPClassifier(WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("NewHTTPClassifier failed: %v", err)
	}
	pred, err := clf.Predict(context.Background(), "pricing please")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.Intent != "pricing_inquiry" {
		t.Errorf("expected pricing_inquiry, got %q", pred.Intent)
	}
	if pred.Confidence == nil || *pred.Confidence != 0.72 {
		t.Errorf("expected confidence 0.72, got %v", pred.Confidence)
	}
}

func TestHTTPClassifierNullConfidence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"intent":"pricing_inquiry","confidence":null}`))
	}))
	defer srv.Close()

	clf, err := NewHTTPClassifier(WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("NewHTTPClassifier failed: %v", err)
	}
	pred, err := clf.Predict(context.Background(), "pricing please")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.Confidence != nil {
		t.Errorf("expected nil confidence, got %v", pred.Confidence)
	}
}

func TestHTTPClassifierServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	clf, err := NewHTTPClassifier(WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("NewHTTPClassifier failed: %v", err)
	}
	if _, err := clf.Predict(context.Background(), "text"); err == nil {
		t.Fatal("expected error for 500 response, got nil")
	}
}

func TestNewHTTPClassifierRequiresEndpoint(t *testing.T) {
	if _, err := NewHTTPClassifier(); err == nil {
		t.Fatal("expected error without endpoint, got nil")
	}
}

func TestStaticClassifier(t *testing.T) {
	clf := &Static{Predictions: map[string]Prediction{
		"hello": {Intent: "greeting", Confidence: Confidence(0.9)},
	}}

	pred, err := clf.Predict(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.Intent != "greeting" {
		t.Errorf("expected greeting, got %q", pred.Intent)
	}

	pred, _ = clf.Predict(context.Background(), "never seen")
	if pred.Intent != "" || pred.Confidence != nil {
		t.Errorf("unknown text should yield an empty prediction, got %+v", pred)
	}
}

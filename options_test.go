package nodepoll

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestNew_Valid(t *testing.T) {
	n, _ := NewNode("node-1", "10.0.0.1", 9090)

	p, err := New(WithNode(n))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if len(p.Nodes()) != 1 {
		t.Errorf("len(Nodes()) = %v, want %v", len(p.Nodes()), 1)
	}
}

func TestNew_NoNodesIsValid(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New() error = %v, want nil (empty membership is valid)", err)
	}
	if len(p.Nodes()) != 0 {
		t.Errorf("len(Nodes()) = %v, want 0", len(p.Nodes()))
	}
}

func TestNew_DuplicateNodeIDs(t *testing.T) {
	n1, _ := NewNode("node-1", "10.0.0.1", 9090)
	n2, _ := NewNode("node-1", "10.0.0.2", 9090) // same id, different host

	_, err := New(WithNodes(n1, n2))
	if err == nil {
		t.Error("New() expected error for duplicate node ids, got nil")
	}
	if err != nil && !strings.Contains(err.Error(), "duplicate node id") {
		t.Errorf("New() error = %v, want error containing 'duplicate node id'", err)
	}
}

func TestNew_Defaults(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if p.Port() != 8080 {
		t.Errorf("Port() = %v, want %v", p.Port(), 8080)
	}
	if p.PollPeriod() != 10*time.Second {
		t.Errorf("PollPeriod() = %v, want %v", p.PollPeriod(), 10*time.Second)
	}
	if p.MaxConcurrentPulls() != 50 {
		t.Errorf("MaxConcurrentPulls() = %v, want %v", p.MaxConcurrentPulls(), 50)
	}
}

func TestWithNodes(t *testing.T) {
	n1, _ := NewNode("node-1", "10.0.0.1", 9090)
	n2, _ := NewNode("node-2", "10.0.0.2", 9090)
	n3, _ := NewNode("node-3", "10.0.0.3", 9090)

	p, err := New(WithNodes(n1, n2, n3))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if len(p.Nodes()) != 3 {
		t.Errorf("len(Nodes()) = %v, want %v", len(p.Nodes()), 3)
	}
}

func TestWithPollPeriod(t *testing.T) {
	p, err := New(WithPollPeriod(30 * time.Second))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if p.PollPeriod() != 30*time.Second {
		t.Errorf("PollPeriod() = %v, want %v", p.PollPeriod(), 30*time.Second)
	}
}

func TestWithPollPeriod_Invalid(t *testing.T) {
	if _, err := New(WithPollPeriod(0)); err == nil {
		t.Error("New() expected error for zero poll period, got nil")
	}
	if _, err := New(WithPollPeriod(-time.Second)); err == nil {
		t.Error("New() expected error for negative poll period, got nil")
	}
}

func TestWithTickInterval_Invalid(t *testing.T) {
	if _, err := New(WithTickInterval(0)); err == nil {
		t.Error("New() expected error for zero tick interval, got nil")
	}
}

func TestWithMaxConcurrentPulls(t *testing.T) {
	p, err := New(WithMaxConcurrentPulls(5))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if p.MaxConcurrentPulls() != 5 {
		t.Errorf("MaxConcurrentPulls() = %v, want %v", p.MaxConcurrentPulls(), 5)
	}
}

func TestWithMaxConcurrentPulls_Invalid(t *testing.T) {
	if _, err := New(WithMaxConcurrentPulls(0)); err == nil {
		t.Error("New() expected error for zero max concurrent pulls, got nil")
	}
}

func TestWithRequestTimeout_Invalid(t *testing.T) {
	if _, err := New(WithRequestTimeout(0)); err == nil {
		t.Error("New() expected error for zero request timeout, got nil")
	}
}

func TestWithPort(t *testing.T) {
	p, err := New(WithPort(19200))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if p.Port() != 19200 {
		t.Errorf("Port() = %v, want %v", p.Port(), 19200)
	}
}

func TestWithPort_Invalid(t *testing.T) {
	if _, err := New(WithPort(0)); err == nil {
		t.Error("New() expected error for port 0, got nil")
	}
	if _, err := New(WithPort(70000)); err == nil {
		t.Error("New() expected error for port 70000, got nil")
	}
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	p, err := New(WithLogger(logger))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	p.logger.Info("test message")
	if !strings.Contains(buf.String(), "test message") {
		t.Error("custom logger was not used")
	}
}

func TestWithLogger_Nil(t *testing.T) {
	if _, err := New(WithLogger(nil)); err == nil {
		t.Error("New() expected error for nil logger, got nil")
	}
}

func TestWithReportCallback_NilIgnored(t *testing.T) {
	p, err := New(WithReportCallback(nil))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(p.reportCallbacks) != 0 {
		t.Errorf("len(reportCallbacks) = %v, want 0", len(p.reportCallbacks))
	}
}

func TestWithReportCallback_Multiple(t *testing.T) {
	cb := func(ResourceReport) {}

	p, err := New(
		WithReportCallback(cb),
		WithReportCallback(cb),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(p.reportCallbacks) != 2 {
		t.Errorf("len(reportCallbacks) = %v, want 2", len(p.reportCallbacks))
	}
}

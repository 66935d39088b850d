package nodepoll

import (
	"strings"
	"testing"
)

func TestNewNode_Valid(t *testing.T) {
	n, err := NewNode("node-1", "10.0.0.1", 9090)
	if err != nil {
		t.Fatalf("NewNode() error = %v", err)
	}

	if n.ID() != "node-1" {
		t.Errorf("ID() = %q, want %q", n.ID(), "node-1")
	}
	if n.Host() != "10.0.0.1" {
		t.Errorf("Host() = %q, want %q", n.Host(), "10.0.0.1")
	}
	if n.Port() != 9090 {
		t.Errorf("Port() = %v, want %v", n.Port(), 9090)
	}
	if n.Addr() != "10.0.0.1:9090" {
		t.Errorf("Addr() = %q, want %q", n.Addr(), "10.0.0.1:9090")
	}
}

func TestNewNode_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		host    string
		port    int
		wantErr string
	}{
		{name: "empty id", id: "", host: "10.0.0.1", port: 9090, wantErr: "id cannot be empty"},
		{name: "empty host", id: "node-1", host: "", port: 9090, wantErr: "host cannot be empty"},
		{name: "zero port", id: "node-1", host: "10.0.0.1", port: 0, wantErr: "port must be between"},
		{name: "port too large", id: "node-1", host: "10.0.0.1", port: 70000, wantErr: "port must be between"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNode(tt.id, tt.host, tt.port)
			if err == nil {
				t.Fatal("NewNode() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("NewNode() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestNode_AddrIPv6(t *testing.T) {
	n, err := NewNode("node-1", "fe80::1", 9090)
	if err != nil {
		t.Fatalf("NewNode() error = %v", err)
	}

	if n.Addr() != "[fe80::1]:9090" {
		t.Errorf("Addr() = %q, want %q", n.Addr(), "[fe80::1]:9090")
	}
}

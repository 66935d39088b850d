package config

import (
	"testing"
)

func TestBuildNodes(t *testing.T) {
	cfg := &Config{
		Nodes: []NodeConfig{
			{ID: "node-1", Host: "10.0.0.1", Port: 9090},
			{ID: "node-2", Host: "worker-2.internal", Port: 9091},
		},
	}

	nodes, err := BuildNodes(cfg)
	if err != nil {
		t.Fatalf("BuildNodes failed: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("len(nodes) = %d, want 2", len(nodes))
	}

	if nodes[0].ID() != "node-1" {
		t.Errorf("nodes[0].ID() = %q, want %q", nodes[0].ID(), "node-1")
	}
	if nodes[0].Addr() != "10.0.0.1:9090" {
		t.Errorf("nodes[0].Addr() = %q, want %q", nodes[0].Addr(), "10.0.0.1:9090")
	}
	if nodes[1].Addr() != "worker-2.internal:9091" {
		t.Errorf("nodes[1].Addr() = %q, want %q", nodes[1].Addr(), "worker-2.internal:9091")
	}
}

func TestBuildNodes_GeneratesIDs(t *testing.T) {
	cfg := &Config{
		Nodes: []NodeConfig{
			{Host: "10.0.0.1", Port: 9090},
			{Host: "10.0.0.2", Port: 9090},
		},
	}

	nodes, err := BuildNodes(cfg)
	if err != nil {
		t.Fatalf("BuildNodes failed: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("len(nodes) = %d, want 2", len(nodes))
	}

	if nodes[0].ID() == "" || nodes[1].ID() == "" {
		t.Error("generated ids must not be empty")
	}
	if nodes[0].ID() == nodes[1].ID() {
		t.Errorf("generated ids must be unique, both are %q", nodes[0].ID())
	}
}

func TestBuildNodes_Empty(t *testing.T) {
	nodes, err := BuildNodes(&Config{})
	if err != nil {
		t.Fatalf("BuildNodes failed: %v", err)
	}
	if len(nodes) != 0 {
		t.Errorf("len(nodes) = %d, want 0", len(nodes))
	}
}

func TestBuildNodes_InvalidNode(t *testing.T) {
	// Parse-level validation catches these for file configs; BuildNodes
	// still surfaces SDK validation for configs constructed in code.
	cfg := &Config{
		Nodes: []NodeConfig{
			{ID: "node-1", Host: "", Port: 9090},
		},
	}
	if _, err := BuildNodes(cfg); err == nil {
		t.Fatal("expected error for node without host")
	}
}

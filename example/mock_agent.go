package main

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// mockAgent serves a node agent's resource endpoint with drifting load.
type mockAgent struct {
	mu        sync.Mutex
	totalCPU  float64
	totalMem  float64
	usedCPU   float64
	usedMem   float64
	nextDrift time.Time
}

// StartMockAgent runs a mock node agent on addr. The agent reports a fixed
// capacity and a load that drifts every few seconds, so the cluster view
// visibly changes between polls.
// Call this in a goroutine before starting the Poller.
func StartMockAgent(addr string, totalCPU, totalMem float64) {
	agent := &mockAgent{
		totalCPU: totalCPU,
		totalMem: totalMem,
		usedCPU:  rand.Float64() * totalCPU,
		usedMem:  rand.Float64() * totalMem,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/resources", func(w http.ResponseWriter, r *http.Request) {
		// simulate small latency variance
		time.Sleep(time.Duration(10+rand.Intn(40)) * time.Millisecond)

		agent.mu.Lock()
		// drift usage every 3-8 seconds
		if time.Now().After(agent.nextDrift) {
			agent.usedCPU = rand.Float64() * agent.totalCPU
			agent.usedMem = rand.Float64() * agent.totalMem
			agent.nextDrift = time.Now().Add(time.Duration(3+rand.Intn(6)) * time.Second)
		}
		resp := map[string]any{
			"total_resources": map[string]float64{
				"cpu":       agent.totalCPU,
				"memory_gb": agent.totalMem,
			},
			"available_resources": map[string]float64{
				"cpu":       agent.totalCPU - agent.usedCPU,
				"memory_gb": agent.totalMem - agent.usedMem,
			},
			"load":         agent.usedCPU / agent.totalCPU,
			"collected_at": time.Now().Format(time.RFC3339Nano),
		}
		agent.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock agent error", "addr", addr, "error", err)
	}
}

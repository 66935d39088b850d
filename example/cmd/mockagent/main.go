// Standalone mock node agent for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockagent -port 9091
//
// Then in another terminal:
//
//	go run ./cmd/nodepoll serve -c example/config.yaml
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"time"
)

func main() {
	port := flag.Int("port", 9091, "port to listen on")
	totalCPU := flag.Float64("cpu", 8, "total CPU capacity to report")
	totalMem := flag.Float64("memory", 32, "total memory (GB) to report")
	flag.Parse()

	addr := fmt.Sprintf(":%d", *port)
	fmt.Printf("Mock node agent starting on %s\n", addr)
	fmt.Printf("Reporting %.0f cpu / %.0f GB memory with drifting load\n", *totalCPU, *totalMem)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	var (
		mu        sync.Mutex
		usedCPU   = rand.Float64() * *totalCPU
		usedMem   = rand.Float64() * *totalMem
		nextDrift time.Time
	)

	http.HandleFunc("/v1/resources", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Duration(10+rand.Intn(40)) * time.Millisecond)

		mu.Lock()
		if time.Now().After(nextDrift) {
			usedCPU = rand.Float64() * *totalCPU
			usedMem = rand.Float64() * *totalMem
			nextDrift = time.Now().Add(time.Duration(3+rand.Intn(6)) * time.Second)
			slog.Info("load drift", "load", usedCPU / *totalCPU)
		}
		resp := map[string]any{
			"total_resources": map[string]float64{
				"cpu":       *totalCPU,
				"memory_gb": *totalMem,
			},
			"available_resources": map[string]float64{
				"cpu":       *totalCPU - usedCPU,
				"memory_gb": *totalMem - usedMem,
			},
			"load":         usedCPU / *totalCPU,
			"collected_at": time.Now().Format(time.RFC3339Nano),
		}
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	if err := http.ListenAndServe(addr, nil); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nodepoll/nodepoll"
)

func main() {
	// start mock node agents (see mock_agent.go)
	go StartMockAgent(":9091", 8, 32)
	go StartMockAgent(":9092", 16, 64)
	go StartMockAgent(":9093", 4, 16)
	time.Sleep(100 * time.Millisecond)

	nodes := make([]nodepoll.Node, 0, 3)
	for i, port := range []int{9091, 9092, 9093} {
		n, err := nodepoll.NewNode(fmt.Sprintf("node-%d", i+1), "localhost", port)
		if err != nil {
			slog.Error("failed to create node", "error", err)
			os.Exit(1)
		}
		nodes = append(nodes, n)
	}

	// start the manager; the callback prints each pull as it lands
	p, err := nodepoll.New(
		nodepoll.WithNodes(nodes...),
		nodepoll.WithPollPeriod(5*time.Second),
		nodepoll.WithMaxConcurrentPulls(2),
		nodepoll.WithPort(8080),
		nodepoll.WithReportCallback(func(r nodepoll.ResourceReport) {
			fmt.Printf("  pull: %-7s load=%.2f available cpu=%.1f\n",
				r.NodeID, r.Load, r.AvailableResources["cpu"])
		}),
	)
	if err != nil {
		slog.Error("failed to create poller", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   nodepoll Demo                                       ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Cluster view: http://localhost:8080/api/resources   ║")
	fmt.Println("  ║   Live stream:  http://localhost:8080/api/resources/sse")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Nodes:                                              ║")
	fmt.Println("  ║   • 3 mock agents on :9091-:9093                      ║")
	fmt.Println("  ║   • 5s poll period, at most 2 pulls in flight         ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := p.Start(ctx); err != nil {
		slog.Error("nodepoll error", "error", err)
		os.Exit(1)
	}
}

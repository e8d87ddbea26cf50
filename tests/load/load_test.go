package load

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sbaerlocher/cgmetrics/internal/cgminer"
	"github.com/sbaerlocher/cgmetrics/internal/munin"
	"github.com/sbaerlocher/cgmetrics/internal/plugin"
	"github.com/sbaerlocher/cgmetrics/pkg/device"
)

// Load Test Configuration
type LoadTestConfig struct {
	DeviceCount       int
	ConcurrentWorkers int
	TestDuration      time.Duration
	MaxMemoryMB       int64
}

type LoadTestResult struct {
	TotalOperations   int64
	SuccessOperations int64
	FailedOperations  int64
	AvgLatency        time.Duration
	MemoryPeakMB      int64
	MemoryLeakMB      int64
	ErrorRate         float64
}

// Generate device records the way the daemon reports them: GPUs and PGAs
// interleaved, each type numbered from zero.
func generateRecords(count int) []device.Record {
	records := make([]device.Record, count)
	for i := 0; i < count; i++ {
		tag := "GPU"
		if i%2 == 1 {
			tag = "PGA"
		}
		records[i] = device.Record{
			tag:               float64(i / 2),
			"Enabled":         "Y",
			"Status":          "Alive",
			"Temperature":     40.5 + float64(i%40),
			"Total MH":        300.0 + float64(i)*0.25,
			"Accepted":        float64(1000 + i),
			"Rejected":        float64(i % 10),
			"Hardware Errors": float64(0),
			"Utility":         0.25 + float64(i%20),
			"Device Elapsed":  float64(3600),
		}
	}
	return records
}

func generateReply(t testing.TB, count int) string {
	t.Helper()

	payload := map[string]any{
		"STATUS": []map[string]any{{
			"STATUS": "S",
			"Code":   9,
			"Msg":    fmt.Sprintf("%d device(s)", count),
		}},
		"DEVS": generateRecords(count),
		"id":   1,
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to marshal device report: %v", err)
	}
	return string(raw)
}

func startFakeDaemon(t testing.TB, reply string) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to start fake daemon: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	padded := append([]byte(reply), 0, 0, 0, 0)

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				buf := make([]byte, 4096)
				if _, err := conn.Read(buf); err != nil && err != io.EOF {
					return
				}
				conn.Write(padded)
			}(conn)
		}
	}()

	return ln.Addr().String()
}

func classifyAll(t testing.TB, records []device.Record) []device.Device {
	t.Helper()

	registry := device.DefaultRegistry()
	devices := make([]device.Device, 0, len(records))
	for i, rec := range records {
		d, err := registry.Classify(rec)
		if err != nil {
			t.Fatalf("Classification of record %d failed: %v", i, err)
		}
		devices = append(devices, d)
	}
	return devices
}

func TestLoad_LargeDeviceReport(t *testing.T) {
	config := LoadTestConfig{
		DeviceCount: 500,
	}

	records := generateRecords(config.DeviceCount)

	start := time.Now()
	devices := classifyAll(t, records)
	classifyDuration := time.Since(start)

	start = time.Now()
	fetchLines := munin.Render(munin.Fetch, devices)
	fetchDuration := time.Since(start)

	start = time.Now()
	configLines := munin.Render(munin.Config, devices)
	configDuration := time.Since(start)

	// Five graphs with one value line per device plus five separators.
	expectedFetch := 5 + 5*config.DeviceCount
	if len(fetchLines) != expectedFetch {
		t.Errorf("Expected %d fetch lines, got %d", expectedFetch, len(fetchLines))
	}

	// Separators, 16 header lines, 18 declaration lines per device.
	expectedConfig := 5 + 16 + 18*config.DeviceCount
	if len(configLines) != expectedConfig {
		t.Errorf("Expected %d config lines, got %d", expectedConfig, len(configLines))
	}

	if fetchLines[0] != "multigraph cgminer_hashrate" {
		t.Errorf("Unexpected first fetch line: %q", fetchLines[0])
	}
	if fetchLines[1] != "gpu_0.value 300000000" {
		t.Errorf("Unexpected first value line: %q", fetchLines[1])
	}

	t.Logf("Large Report Results:")
	t.Logf("  Devices: %d", config.DeviceCount)
	t.Logf("  Classify: %v", classifyDuration)
	t.Logf("  Render fetch: %v (%d lines)", fetchDuration, len(fetchLines))
	t.Logf("  Render config: %v (%d lines)", configDuration, len(configLines))

	if classifyDuration > 2*time.Second {
		t.Errorf("Classification too slow: %v", classifyDuration)
	}
	if fetchDuration > 1*time.Second {
		t.Errorf("Fetch rendering too slow: %v", fetchDuration)
	}
	if configDuration > 1*time.Second {
		t.Errorf("Config rendering too slow: %v", configDuration)
	}
}

func TestLoad_SustainedRunsAgainstDaemon(t *testing.T) {
	config := LoadTestConfig{
		DeviceCount:       200,
		ConcurrentWorkers: 10,
		TestDuration:      5 * time.Second,
		MaxMemoryMB:       200,
	}

	addr := startFakeDaemon(t, generateReply(t, config.DeviceCount))

	var initialMem, peakMem runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&initialMem)
	initialMemMB := int64(initialMem.Alloc) / 1024 / 1024

	var operations int64
	var failures int64
	var totalLatency int64

	ctx, cancel := context.WithTimeout(context.Background(), config.TestDuration)
	defer cancel()

	var wg sync.WaitGroup

	for i := 0; i < config.ConcurrentWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			runner := plugin.NewRunner(cgminer.NewClient(addr, 5*time.Second), device.DefaultRegistry())

			for {
				select {
				case <-ctx.Done():
					return
				default:
					start := time.Now()

					mode := munin.Fetch
					if workerID%3 == 0 {
						mode = munin.Config
					}

					var buf bytes.Buffer
					if err := runner.Run(context.Background(), mode, &buf); err != nil {
						atomic.AddInt64(&failures, 1)
					} else if buf.Len() == 0 {
						atomic.AddInt64(&failures, 1)
					}

					atomic.AddInt64(&operations, 1)
					atomic.AddInt64(&totalLatency, time.Since(start).Nanoseconds())

					runtime.ReadMemStats(&peakMem)
					if currentMB := int64(peakMem.Alloc) / 1024 / 1024; currentMB > config.MaxMemoryMB {
						t.Errorf("Memory usage exceeded limit: %d MB > %d MB", currentMB, config.MaxMemoryMB)
						cancel()
						return
					}

					time.Sleep(10 * time.Millisecond)
				}
			}
		}(i)
	}

	wg.Wait()

	runtime.GC()
	var finalMem runtime.MemStats
	runtime.ReadMemStats(&finalMem)

	result := LoadTestResult{
		TotalOperations:   operations,
		SuccessOperations: operations - failures,
		FailedOperations:  failures,
		MemoryPeakMB:      int64(peakMem.Alloc) / 1024 / 1024,
		MemoryLeakMB:      int64(finalMem.Alloc)/1024/1024 - initialMemMB,
		ErrorRate:         float64(failures) / float64(operations) * 100,
	}
	if operations > 0 {
		result.AvgLatency = time.Duration(totalLatency / operations)
	}

	t.Logf("Sustained Run Results:")
	t.Logf("  Total Runs: %d", result.TotalOperations)
	t.Logf("  Success Rate: %.2f%%", float64(result.SuccessOperations)/float64(result.TotalOperations)*100)
	t.Logf("  Avg Latency: %v", result.AvgLatency)
	t.Logf("  Peak Memory: %d MB", result.MemoryPeakMB)
	t.Logf("  Memory Growth: %d MB", result.MemoryLeakMB)

	if result.ErrorRate > 1.0 {
		t.Errorf("Error rate too high: %.2f%%", result.ErrorRate)
	}

	if result.AvgLatency > 2*time.Second {
		t.Errorf("Average latency too high: %v", result.AvgLatency)
	}

	if result.MemoryLeakMB > 30 {
		t.Errorf("Potential memory leak detected: %d MB growth", result.MemoryLeakMB)
	}

	if operations < 100 {
		t.Errorf("Not enough runs completed: %d", operations)
	}
}

func BenchmarkClassify(b *testing.B) {
	records := generateRecords(500)
	registry := device.DefaultRegistry()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, rec := range records {
			if _, err := registry.Classify(rec); err != nil {
				b.Fatalf("Classification failed: %v", err)
			}
		}
	}
}

func BenchmarkRenderFetch(b *testing.B) {
	devices := classifyAll(b, generateRecords(500))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		lines := munin.Render(munin.Fetch, devices)
		if len(lines) == 0 {
			b.Fatal("Empty render")
		}
	}
}

func BenchmarkRenderConfig(b *testing.B) {
	devices := classifyAll(b, generateRecords(500))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		lines := munin.Render(munin.Config, devices)
		if len(lines) == 0 {
			b.Fatal("Empty render")
		}
	}
}

func BenchmarkFullRun_HighConcurrency(b *testing.B) {
	addr := startFakeDaemon(b, generateReply(b, 50))

	var ops int64
	var failures int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		runner := plugin.NewRunner(cgminer.NewClient(addr, 5*time.Second), device.DefaultRegistry())

		for pb.Next() {
			var buf strings.Builder
			atomic.AddInt64(&ops, 1)
			if err := runner.Run(context.Background(), munin.Fetch, &buf); err != nil {
				atomic.AddInt64(&failures, 1)
			}
		}
	})

	errorRate := float64(failures) / float64(ops) * 100
	b.ReportMetric(float64(ops), "runs")
	b.ReportMetric(errorRate, "error_%")
}

package main

import (
	"bytes"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

func main() {
	// Configuration
	clockInURL := "http://localhost:8080/api/v1/clock/in"
	clockOutURL := "http://localhost:8080/api/v1/clock/out"
	contentType := "application/json"

	numUsers := 5000
	concurrency := 50 // Number of concurrent requests to avoid local port exhaustion

	fmt.Printf("Starting load test: %d users (clock-in + clock-out each) with concurrency %d\n", numUsers, concurrency)

	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency) // Semaphore to limit concurrency

	var successCount int64
	var failCount int64

	startTime := time.Now()

	for i := 0; i < numUsers; i++ {
		wg.Add(1)
		sem <- struct{}{} // Acquire token

		// Even ids so the schedule mock returns an assignment.
		userID := int64((i + 1) * 2)

		go func(id int64) {
			defer wg.Done()
			defer func() { <-sem }() // Release token

			inPayload := []byte(fmt.Sprintf(`{"userId": %d}`, id))
			outPayload := []byte(fmt.Sprintf(`{"userId": %d, "reason": "Load test early exit."}`, id))

			for _, req := range []struct {
				url  string
				body []byte
			}{{clockInURL, inPayload}, {clockOutURL, outPayload}} {
				resp, err := http.Post(req.url, contentType, bytes.NewBuffer(req.body))
				if err != nil {
					atomic.AddInt64(&failCount, 1)
					continue
				}

				if resp.StatusCode >= 200 && resp.StatusCode < 300 {
					atomic.AddInt64(&successCount, 1)
				} else {
					atomic.AddInt64(&failCount, 1)
				}
				resp.Body.Close()
			}
		}(userID)
	}

	wg.Wait()
	duration := time.Since(startTime)

	totalRequests := numUsers * 2

	fmt.Println("\n--- Load Test Results ---")
	fmt.Printf("Total Duration: %v\n", duration)
	fmt.Printf("Total Requests: %d\n", totalRequests)
	fmt.Printf("Successful:     %d\n", successCount)
	fmt.Printf("Failed:         %d\n", failCount)
	fmt.Printf("Requests/Sec:   %.2f\n", float64(totalRequests)/duration.Seconds())
}

package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Fires stock movements at a single product to measure how the guarded
// ledger update holds up under concurrent writers. Positive and negative
// deltas are mixed so some requests are expected to hit 409s.
func main() {
	targetURL := flag.String("url", "http://localhost:8080", "Base URL of the inventory API")
	principal := flag.String("principal", "load-tester", "Caller principal (must own the target shop)")
	productID := flag.Int64("product", 1, "Product ID to record movements against")
	concurrency := flag.Int("c", 10, "Number of concurrent workers")
	duration := flag.Duration("d", 30*time.Second, "Duration of the load test")
	rps := flag.Int("rps", 500, "Requests per second limit")
	flag.Parse()

	endpoint := fmt.Sprintf("%s/v1/products/%d/movements", *targetURL, *productID)
	log.Printf("Starting load test on %s", endpoint)
	log.Printf("Concurrency: %d, Duration: %s, RPS: %d", *concurrency, *duration, *rps)

	var wg sync.WaitGroup
	var successCount, rejectedCount, errorCount atomic.Int64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(*rps), 100) // Allow bursts up to 100

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			client := &http.Client{
				Timeout: 5 * time.Second,
			}
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

			for {
				select {
				case <-ctx.Done():
					return
				default:
					limiter.Wait(ctx)

					// Skewed towards receipts so the product does not pin at zero.
					change := rng.Int63n(5) + 1
					if rng.Intn(3) == 0 {
						change = -change
					}
					payload := fmt.Sprintf(`{"quantity_change": %d}`, change)

					req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBufferString(payload))
					if err != nil {
						continue // Should not happen
					}
					req.Header.Set("Content-Type", "application/json")
					req.Header.Set("X-Principal", *principal)

					resp, err := client.Do(req)
					if err != nil {
						errorCount.Add(1)
						continue
					}

					switch resp.StatusCode {
					case http.StatusCreated:
						successCount.Add(1)
					case http.StatusConflict:
						rejectedCount.Add(1)
					default:
						errorCount.Add(1)
					}
					resp.Body.Close()
				}
			}
		}(i)
	}

	wg.Wait()

	totalRequests := successCount.Load() + rejectedCount.Load() + errorCount.Load()
	actualRPS := float64(totalRequests) / duration.Seconds()

	log.Println("Load test finished.")
	log.Printf("Total Requests: %d", totalRequests)
	log.Printf("Recorded (201 Created): %d", successCount.Load())
	log.Printf("Rejected insufficient stock (409): %d", rejectedCount.Load())
	log.Printf("Errors: %d", errorCount.Load())
	log.Printf("Actual RPS: %.2f", actualRPS)
}

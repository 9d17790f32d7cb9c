package main

import (
	"fmt"
	"net/http"
	"os"
	"time"
)

func main() {
	// Get health check URL from environment or use the root liveness probe,
	// which answers without touching the registry
	healthURL := os.Getenv("HEALTH_URL")
	if healthURL == "" {
		healthURL = "http://localhost:8080/"
	}

	// Create HTTP client with timeout
	client := &http.Client{
		Timeout: 3 * time.Second,
	}

	if err := check(client, healthURL); err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}

	// Success
	fmt.Println("Health check passed")
	os.Exit(0)
}

// check reports an error unless url answers 200 OK
func check(client *http.Client, url string) error {
	// Make health check request
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Check status code
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

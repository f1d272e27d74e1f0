// Package main provides a webhook hook for vigia. It forwards the
// notification JSON to the URL in VIGIA_WEBHOOK_URL, for wiring into
// chat bots or home automation.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Response represents the output to the hook executor.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func main() {
	url := os.Getenv("VIGIA_WEBHOOK_URL")
	if url == "" {
		writeErrorResponse("VIGIA_WEBHOOK_URL is not set")
		return
	}

	payload, err := io.ReadAll(os.Stdin)
	if err != nil {
		writeErrorResponse(fmt.Sprintf("failed to read notification: %v", err))
		return
	}

	client := &http.Client{Timeout: 4 * time.Second}
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		writeErrorResponse(fmt.Sprintf("webhook request failed: %v", err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		writeErrorResponse(fmt.Sprintf("webhook returned status %d", resp.StatusCode))
		return
	}

	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{
		Success: false,
		Error:   errMsg,
	})
}

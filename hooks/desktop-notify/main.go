// Package main provides a desktop notification hook for vigia.
// It shows a native notification for presence events via osascript on
// macOS and notify-send elsewhere.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Notification represents the input from the hook executor.
type Notification struct {
	Event      string  `json:"event"`
	PersonID   string  `json:"personId"`
	PersonName string  `json:"personName"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Response represents the output to the hook executor.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func main() {
	var n Notification
	if err := json.NewDecoder(os.Stdin).Decode(&n); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode notification: %v", err))
		return
	}

	if err := notify(title(n), body(n)); err != nil {
		writeErrorResponse(fmt.Sprintf("notification failed: %v", err))
		return
	}

	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}

func title(n Notification) string {
	switch n.Event {
	case "appeared":
		return "Vigia: person detected"
	case "departed":
		return "Vigia: person left"
	default:
		return "Vigia"
	}
}

func body(n Notification) string {
	name := n.PersonName
	if name == "" {
		return "Unrecognized person"
	}
	if n.Category == "known" {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, n.Category)
}

// notify shows a desktop notification using the platform's native tool.
func notify(title, body string) error {
	var cmd *exec.Cmd
	if runtime.GOOS == "darwin" {
		script := fmt.Sprintf(`display notification %q with title %q`, body, title)
		cmd = exec.Command("osascript", "-e", script)
	} else {
		cmd = exec.Command("notify-send", title, body)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{
		Success: false,
		Error:   errMsg,
	})
}

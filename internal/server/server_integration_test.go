package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rdiaz/vigia/internal/store"
)

func TestAPI_PersonWorkflow(t *testing.T) {
	// Setup
	tmpDir := t.TempDir()
	s, _ := store.New(filepath.Join(tmpDir, "test.db"))
	defer s.Close()

	srv := New(Config{Store: s})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// 1. Enroll a person
	createBody := `{"name": "Ana", "category": "known", "ratios": [0.45, 0.3, 0.6, 0.5]}`
	resp, err := client.Post(ts.URL+"/api/persons", "application/json", bytes.NewBufferString(createBody))
	if err != nil {
		t.Fatalf("POST /api/persons error = %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var created struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Category  string `json:"category"`
		HasRatios bool   `json:"has_ratios"`
	}
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()

	if created.Name != "Ana" || created.Category != "known" {
		t.Errorf("created = %+v, want Ana/known", created)
	}
	if !created.HasRatios {
		t.Error("created person should report has_ratios")
	}

	// 2. List persons
	resp, _ = client.Get(ts.URL + "/api/persons")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/persons status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var listed struct {
		Persons []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"persons"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()

	if len(listed.Persons) != 1 {
		t.Fatalf("len(persons) = %d, want 1", len(listed.Persons))
	}

	// 3. Update the person's category
	updateBody := `{"category": "delivery"}`
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/persons/"+created.ID, bytes.NewBufferString(updateBody))
	resp, _ = client.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	resp.Body.Close()

	// 4. Get single person
	resp, _ = client.Get(ts.URL + "/api/persons/" + created.ID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/persons/%s status = %d, want %d", created.ID, resp.StatusCode, http.StatusOK)
	}
	var got struct {
		Category string `json:"category"`
	}
	json.NewDecoder(resp.Body).Decode(&got)
	resp.Body.Close()
	if got.Category != "delivery" {
		t.Errorf("category after update = %s, want delivery", got.Category)
	}

	// 5. Delete person
	req, _ = http.NewRequest(http.MethodDelete, ts.URL+"/api/persons/"+created.ID, nil)
	resp, _ = client.Do(req)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	resp.Body.Close()

	// 6. Verify deleted
	resp, _ = client.Get(ts.URL + "/api/persons/" + created.ID)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("GET after delete status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	resp.Body.Close()
}

func TestAPI_PersonValidation(t *testing.T) {
	tmpDir := t.TempDir()
	s, _ := store.New(filepath.Join(tmpDir, "test.db"))
	defer s.Close()

	srv := New(Config{Store: s})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	cases := []struct {
		name string
		body string
	}{
		{"missing name", `{"category": "known"}`},
		{"bad category", `{"name": "Ana", "category": "burglar"}`},
		{"invalid json", `{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := ts.Client().Post(ts.URL+"/api/persons", "application/json", bytes.NewBufferString(tc.body))
			if err != nil {
				t.Fatalf("POST error = %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
			}
		})
	}
}

func TestAPI_Events(t *testing.T) {
	tmpDir := t.TempDir()
	s, _ := store.New(filepath.Join(tmpDir, "test.db"))
	defer s.Close()

	s.Events().Create(&store.Event{ID: "e1", Kind: "appeared", PersonName: "Ana", Confidence: 0.9})
	s.Events().Create(&store.Event{ID: "e2", Kind: "departed", PersonName: "Ana"})

	srv := New(Config{Store: s})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/events?limit=10")
	if err != nil {
		t.Fatalf("GET /api/events error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var listed struct {
		Events []struct {
			Kind       string `json:"kind"`
			PersonName string `json:"person_name"`
		} `json:"events"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)

	if len(listed.Events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(listed.Events))
	}

	// Stats endpoint
	resp, _ = ts.Client().Get(ts.URL + "/api/events/stats")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/events/stats status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var stats struct {
		Total    int `json:"total"`
		Appeared int `json:"appeared"`
		Departed int `json:"departed"`
	}
	json.NewDecoder(resp.Body).Decode(&stats)
	if stats.Total != 2 || stats.Appeared != 1 || stats.Departed != 1 {
		t.Errorf("stats = %+v, want total 2, appeared 1, departed 1", stats)
	}
}

func TestAPI_HealthCheck(t *testing.T) {
	srv := New(Config{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var health struct {
		Status string `json:"status"`
		Uptime string `json:"uptime"`
	}
	json.NewDecoder(resp.Body).Decode(&health)

	if health.Status != "ok" {
		t.Errorf("status = %s, want ok", health.Status)
	}
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"qc-tracker/backend/internal/app"
	"qc-tracker/backend/internal/config"
	"qc-tracker/backend/internal/models"

	"github.com/sirupsen/logrus/hooks/test"
)

func setupIntegrationEnv(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("DATABASE_DSN", "file:integration_"+models.NewID()+"?mode=memory&cache=shared")
	t.Setenv("DB_MAX_OPEN_CONNS", "1")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("EMAIL_HOST", "")
	t.Setenv("EMAIL_USER", "")
	t.Setenv("GMAIL_USER", "")
}

func TestApplicationStartup(t *testing.T) {
	setupIntegrationEnv(t)

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Server.Port != "5371" {
		t.Errorf("Expected default port 5371, got %s", cfg.Server.Port)
	}

	log, _ := test.NewNullLogger()
	a, err := app.New(context.Background(), cfg, log)
	if err != nil {
		t.Fatalf("Failed to build application: %v", err)
	}
	defer a.Shutdown()

	server := httptest.NewServer(a.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("Health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
}

func TestConfigurationValues(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{
			name: "sqlite in development",
			env:  map[string]string{"ENVIRONMENT": "development", "STORE_DRIVER": "sqlite"},
		},
		{
			name:    "mongodb in production without url",
			env:     map[string]string{"ENVIRONMENT": "production", "STORE_DRIVER": "mongodb", "MONGODB_URL": ""},
			wantErr: true,
		},
		{
			name:    "production without smtp relay",
			env:     map[string]string{"ENVIRONMENT": "production", "STORE_DRIVER": "mongodb", "MONGODB_URL": "mongodb://db:27017/qc", "EMAIL_HOST": "", "EMAIL_USER": "", "GMAIL_USER": ""},
			wantErr: true,
		},
		{
			name: "production with gmail relay",
			env:  map[string]string{"ENVIRONMENT": "production", "STORE_DRIVER": "mongodb", "MONGODB_URL": "mongodb://db:27017/qc", "EMAIL_HOST": "", "EMAIL_USER": "", "GMAIL_USER": "qc.team@gmail.com"},
		},
		{
			name:    "unknown driver",
			env:     map[string]string{"STORE_DRIVER": "cassandra"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.LoadConfig()
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestQCWorkflowOverHTTP(t *testing.T) {
	setupIntegrationEnv(t)

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	log, _ := test.NewNullLogger()
	a, err := app.New(context.Background(), cfg, log)
	if err != nil {
		t.Fatalf("Failed to build application: %v", err)
	}
	defer a.Shutdown()

	server := httptest.NewServer(a.Handler())
	defer server.Close()

	send := func(method, path string, body interface{}) *http.Response {
		t.Helper()
		var buf bytes.Buffer
		if body != nil {
			if err := json.NewEncoder(&buf).Encode(body); err != nil {
				t.Fatalf("encode: %v", err)
			}
		}
		req, err := http.NewRequest(method, server.URL+path, &buf)
		if err != nil {
			t.Fatalf("new request: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s %s: %v", method, path, err)
		}
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	deadline := time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02")
	resp := send(http.MethodPost, "/api/qc-tasks", map[string]string{"name": "Check Lighting", "deadline": deadline})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	var task models.Task
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		t.Fatalf("decode task: %v", err)
	}

	resp = send(http.MethodPost, "/api/qc-tasks/"+task.ID+"/approve", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	resp = send(http.MethodGet, "/api/qc-reports", nil)
	var views []models.ReportView
	if err := json.NewDecoder(resp.Body).Decode(&views); err != nil {
		t.Fatalf("decode reports: %v", err)
	}
	if len(views) != 1 || views[0].Title != "Check Lighting" {
		t.Fatalf("Expected one report for Check Lighting, got %+v", views)
	}

	resp = send(http.MethodGet, "/api/qc-reports/"+views[0].ID+"/download", nil)
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Expected application/pdf, got %s", ct)
	}
}

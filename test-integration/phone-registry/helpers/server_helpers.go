package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/onsi/gomega"

	registryapp "github.com/stacklok/phone-registry-server/internal/app"
	"github.com/stacklok/phone-registry-server/internal/config"
	"github.com/stacklok/phone-registry-server/internal/jobs"
)

// DatabaseSettings locates the PostgreSQL instance used by the server under test
type DatabaseSettings struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// ServerTestHelper manages the phone registry API server lifecycle for testing
type ServerTestHelper struct {
	ctx        context.Context
	configPath string
	baseURL    string
	address    string
	httpClient *http.Client
	app        *registryapp.RegistryApp
}

// NewServerTestHelper creates a new server test helper listening on a free loopback port
func NewServerTestHelper(ctx context.Context, configPath string) (*ServerTestHelper, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to reserve a port: %w", err)
	}
	address := listener.Addr().String()
	if err := listener.Close(); err != nil {
		return nil, err
	}

	return &ServerTestHelper{
		ctx:        ctx,
		configPath: configPath,
		address:    address,
		baseURL:    "http://" + address,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// StartServer starts the phone registry API server programmatically
func (s *ServerTestHelper) StartServer() error {
	cfg, err := config.LoadConfig(config.WithConfigPath(s.configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app, err := registryapp.NewRegistryApp(s.ctx,
		registryapp.WithConfig(cfg),
		registryapp.WithAddress(s.address),
	)
	if err != nil {
		return fmt.Errorf("failed to build app: %w", err)
	}
	s.app = app

	go func() {
		if err := app.Start(); err != nil {
			// The test fails when it tries to connect
			fmt.Fprintf(os.Stderr, "Server start failed: %v\n", err)
		}
	}()

	return nil
}

// StopServer gracefully stops the phone registry API server
func (s *ServerTestHelper) StopServer() error {
	if s.app != nil {
		return s.app.Stop(5 * time.Second)
	}
	return nil
}

// WaitForServerReady waits until the readiness probe succeeds
func (s *ServerTestHelper) WaitForServerReady(timeout time.Duration) {
	gomega.Eventually(func() error {
		resp, err := s.httpClient.Get(s.baseURL + "/readiness")
		if err != nil {
			return err
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return nil
	}, timeout, 200*time.Millisecond).Should(gomega.Succeed(), "Server should be ready")
}

// Get makes a GET request against the server
func (s *ServerTestHelper) Get(path string) (*http.Response, error) {
	return s.httpClient.Get(s.baseURL + path)
}

// Post makes a POST request with a JSON body against the server
func (s *ServerTestHelper) Post(path, body string) (*http.Response, error) {
	return s.httpClient.Post(s.baseURL+path, "application/json", bytes.NewBufferString(body))
}

// DecodeJSON reads and decodes a response body, closing it
func DecodeJSON(resp *http.Response, out any) error {
	defer func() {
		_ = resp.Body.Close()
	}()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// TriggerSync starts a sync job and returns its id
func (s *ServerTestHelper) TriggerSync(path string) string {
	resp, err := s.Post(path, "")
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	gomega.Expect(resp.StatusCode).To(gomega.Equal(http.StatusAccepted))

	var accepted struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	gomega.Expect(DecodeJSON(resp, &accepted)).To(gomega.Succeed())
	gomega.Expect(accepted.JobID).NotTo(gomega.BeEmpty())
	return accepted.JobID
}

// WaitForJob polls a sync job until it reaches a terminal status
func (s *ServerTestHelper) WaitForJob(id string, timeout time.Duration) jobs.SyncJob {
	var job jobs.SyncJob
	gomega.Eventually(func() (jobs.Status, error) {
		resp, err := s.Get("/api/v1/sync/" + id)
		if err != nil {
			return "", err
		}
		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return "", fmt.Errorf("job lookup returned status %d", resp.StatusCode)
		}
		if err := DecodeJSON(resp, &job); err != nil {
			return "", err
		}
		return job.Status, nil
	}, timeout, 100*time.Millisecond).Should(gomega.Or(
		gomega.Equal(jobs.StatusCompleted),
		gomega.Equal(jobs.StatusFailed),
	))
	return job
}

// GetBaseURL returns the base URL of the server
func (s *ServerTestHelper) GetBaseURL() string {
	return s.baseURL
}

// WriteConfigYAML writes a server configuration that points at the mock
// Twilio API and the given database, and returns its path
func WriteConfigYAML(dir, twilioURL string, db DatabaseSettings) string {
	passwordFile := filepath.Join(dir, "db-password")
	gomega.Expect(os.WriteFile(passwordFile, []byte(db.Password), 0o600)).To(gomega.Succeed())

	tokenFile := filepath.Join(dir, "twilio-token")
	gomega.Expect(os.WriteFile(tokenFile, []byte(MockAuthToken), 0o600)).To(gomega.Succeed())

	configContent := fmt.Sprintf(`provider:
  accountSid: %s
  authTokenFile: %s
  baseURL: %s
  numbersBaseURL: %s
  timeout: 5s
  maxRetries: 0

sync:
  concurrency: 2

jobs:
  store: memory

database:
  host: %s
  port: %d
  user: %s
  passwordFile: %s
  database: %s
  sslMode: disable
`, MockAccountSID, tokenFile, twilioURL, twilioURL, db.Host, db.Port, db.User, passwordFile, db.Database)

	configPath := filepath.Join(dir, "config.yaml")
	gomega.Expect(os.WriteFile(configPath, []byte(configContent), 0o600)).To(gomega.Succeed())
	return configPath
}

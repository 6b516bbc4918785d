package e2e_test

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	sharedTempDir string

	// containerCleanup stops containers started by the tests, if any.
	containerCleanup func()
)

// binary is a command built once per test run.
type binary struct {
	pkg  string
	once sync.Once
	path string
	err  error
}

var (
	serverBinary = &binary{pkg: "./cmd/depot"}
	clientBinary = &binary{pkg: "./cmd/depot-cli"}
)

// TestMain sets up and tears down shared test resources.
func TestMain(m *testing.M) {
	// Create shared temp directory for the binaries
	var err error
	sharedTempDir, err = os.MkdirTemp("", "depot-e2e-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create temp dir: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if containerCleanup != nil {
		containerCleanup()
	}
	_ = os.RemoveAll(sharedTempDir)

	os.Exit(code)
}

// ServerConfig holds configuration for starting the depot server.
type ServerConfig struct {
	Port        int
	StoragePath string
	JournalType string // none, sqlite, postgres
	JournalDSN  string
}

// build compiles the binary once per test run and returns its path.
func (b *binary) build(t *testing.T) string {
	t.Helper()

	b.once.Do(func() {
		b.path = filepath.Join(sharedTempDir, filepath.Base(b.pkg))

		cmd := exec.Command("go", "build", "-o", b.path, b.pkg)
		cmd.Dir = getProjectRoot(t)
		output, err := cmd.CombinedOutput()
		if err != nil {
			b.err = fmt.Errorf("build %s: %w\nOutput: %s", b.pkg, err, output)
		}
	})

	if b.err != nil {
		t.Fatalf("failed to build binary: %v", b.err)
	}

	return b.path
}

// getProjectRoot returns the root directory of the module.
func getProjectRoot(t *testing.T) string {
	t.Helper()

	// Find the go.mod file to determine project root
	dir, err := os.Getwd()
	require.NoError(t, err, "get working directory")

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// createConfigFile writes a server config file and returns its path.
// The built-in warehouse table is used.
func createConfigFile(t *testing.T, cfg ServerConfig) string {
	t.Helper()

	var sb strings.Builder
	fmt.Fprintf(&sb, `server:
  port: %d

storage:
  type: filesystem
  path: "%s"

journal:
  type: %s
  dsn: "%s"

log:
  level: error
`,
		cfg.Port,
		cfg.StoragePath,
		cfg.JournalType,
		cfg.JournalDSN,
	)

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(configPath, []byte(sb.String()), 0o600)
	require.NoError(t, err, "write config file")

	return configPath
}

// startServer starts the depot binary with the given config file.
// Returns the base URL and a function that stops the server.
func startServer(t *testing.T, cfg ServerConfig, configPath string) (string, func()) {
	t.Helper()

	cmd := exec.Command(serverBinary.build(t), "serve", "--config", configPath)

	// Capture output for debugging
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Start()
	require.NoError(t, err, "start server")

	baseURL := fmt.Sprintf("http://localhost:%d", cfg.Port)

	stop := func() {
		if cmd.Process != nil {
			_ = cmd.Process.Signal(syscall.SIGTERM)
			_ = cmd.Wait()
			cmd.Process = nil
		}
	}
	t.Cleanup(stop)

	waitForServer(t, baseURL, 10*time.Second)

	return baseURL, stop
}

// waitForServer polls the health endpoint until it responds or times out.
func waitForServer(t *testing.T, baseURL string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 1 * time.Second}

	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/healthz")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	t.Fatalf("server failed to start within %v", timeout)
}

// runCommand runs a built binary and returns its combined output.
func runCommand(t *testing.T, b *binary, args ...string) (string, error) {
	t.Helper()

	cmd := exec.Command(b.build(t), args...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

// getOpenPort finds an available TCP port.
func getOpenPort(t *testing.T) int {
	t.Helper()

	l, err := net.Listen("tcp", ":0")
	require.NoError(t, err, "find open port")

	addr := l.Addr().(*net.TCPAddr)
	port := addr.Port

	err = l.Close()
	require.NoError(t, err, "close port")

	return port
}

// upload posts content as the multipart file field and returns the status
// and plain-text body.
func upload(t *testing.T, baseURL, warehouse, name, contentType string, content []byte) (int, string) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{"name": "file", "filename": name}))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(baseURL+"/upload/"+warehouse, mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

// get performs a GET request and returns the response with its body read.
func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

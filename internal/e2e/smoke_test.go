package e2e

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)
	backend := newBackend(t)

	stdout, stderr, err := runAeye(t, binaryPath, home, backend.URL, "session")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "status: unauthenticated")

	stdout, stderr, err = runAeye(t, binaryPath, home, backend.URL, "login", "-u", "dana", "-p", "secret")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "Logged in as dana (USER)")

	stdout, stderr, err = runAeye(t, binaryPath, home, backend.URL, "open", "/admin")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "redirect_default /feed")

	stdout, stderr, err = runAeye(t, binaryPath, home, backend.URL, "logout")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "-> /login")

	stdout, stderr, err = runAeye(t, binaryPath, home, backend.URL, "open", "/feed")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "redirect_login /login")
}

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "dana",
		"role": "ROLE_USER",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("e2e-key"))
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(signed))
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "aeye-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/aeye")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build aeye binary: %s", string(output))
	return binaryPath
}

func runAeye(t *testing.T, binaryPath, home, baseURL string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(),
		"HOME="+home,
		"AEYE_SERVER_BASE_URL="+baseURL,
		"AEYE_CREDENTIAL_BACKEND=file",
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

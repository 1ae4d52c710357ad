package e2e_test

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/paradox/internal/api"
	"github.com/mcoot/paradox/internal/factory"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath   string
	serverURL    string
	identityFile string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	projectRoot := findProjectRoot(t)

	binaryPath := filepath.Join(t.TempDir(), "paradox-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/paradox")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath:   binaryPath,
		serverURL:    serverURL,
		identityFile: filepath.Join(t.TempDir(), "identity"),
	}
}

// as returns a runner sharing the binary but acting with its own identity file
func (r *cliRunner) as(t *testing.T) *cliRunner {
	t.Helper()
	return &cliRunner{
		binaryPath:   r.binaryPath,
		serverURL:    r.serverURL,
		identityFile: filepath.Join(t.TempDir(), "identity"),
	}
}

func (r *cliRunner) command(args ...string) *exec.Cmd {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--identity-file", r.identityFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	cmd.Env = append(os.Environ(), "PARADOX_IDENTITY=")
	return cmd
}

func (r *cliRunner) run(args ...string) (string, error) {
	output, err := r.command(args...).CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

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

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	addr     string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	projectRoot := findProjectRoot(t)
	app, err := factory.New(t.Context(), factory.Config{
		Logger:      logger,
		CatalogPath: filepath.Join(projectRoot, "data/catalog.json"),
	})
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		Engine:      app.Engine,
		Catalog:     app.Catalog,
		Leaderboard: app.Leaderboard,
		Hub:         app.Hub,
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = "127.0.0.1"
	serverConfig.Port = 0
	server := api.NewServer(router, serverConfig, logger)
	require.NoError(t, server.Listen())

	go func() {
		if err := server.Start(); err != nil {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := "http://" + server.Addr()
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		addr: serverURL,
		shutdown: func() {
			app.Hub.Close()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
			_ = app.Close()
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type playerState struct {
	Level            int  `json:"level"`
	Score            int  `json:"score"`
	Coins            int  `json:"coins"`
	BonusCoins       int  `json:"bonus_coins"`
	ReferralRedeemed bool `json:"referral_redeemed"`
	HintTier         int  `json:"hint_tier"`
}

type userResponse struct {
	IdentityID        string      `json:"identity_id"`
	DisplayName       string      `json:"display_name"`
	ReferralCode      string      `json:"referral_code"`
	ReferralSuccesses int         `json:"referral_successes"`
	Profile           playerState `json:"profile"`
}

type outcomeResponse struct {
	Message string      `json:"message"`
	Cost    int         `json:"cost"`
	Hints   []string    `json:"hints"`
	Profile playerState `json:"profile"`
}

type leaderboardEntry struct {
	Rank       int    `json:"rank"`
	IdentityID string `json:"identity_id"`
	Level      int    `json:"level"`
}

type sseEvent struct {
	Event string `json:"event"`
	Data  string `json:"data"`
}

func decode[T any](t *testing.T, output string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(output), &v), "output: %s", output)
	return v
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	resp := decode[struct {
		Status string `json:"status"`
	}](t, output)
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_UserCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("user", "present", "alice")
	require.NoError(t, err, "output: %s", output)
	assert.Contains(t, output, `"user_present": false`)

	output, err = cli.run("user", "register", "alice", "--name", "Alice", "--email", "alice@example.com")
	require.NoError(t, err, "output: %s", output)
	registered := decode[userResponse](t, output)
	assert.Equal(t, "alice", registered.IdentityID)
	assert.Equal(t, 100, registered.Profile.Coins)
	assert.True(t, strings.HasPrefix(registered.ReferralCode, "Ali"))

	// The identity file now drives later commands
	output, err = cli.run("user", "show")
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, "Alice", decode[userResponse](t, output).DisplayName)

	output, err = cli.run("user", "register", "alice", "--name", "Alice", "--email", "other@example.com")
	require.Error(t, err)
	assert.Contains(t, output, "IDENTITY_EXISTS")

	output, err = cli.run("user", "delete")
	require.NoError(t, err, "output: %s", output)

	output, err = cli.run("user", "show", "alice")
	require.Error(t, err)
	assert.Contains(t, output, "IDENTITY_NOT_FOUND")
}

func TestCLI_ProgressionFlow(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	alice := newCLIRunner(t, ts.addr)
	bob := alice.as(t)

	output, err := alice.run("user", "register", "alice", "--name", "Alice", "--email", "alice@example.com")
	require.NoError(t, err, "output: %s", output)
	aliceCode := decode[userResponse](t, output).ReferralCode

	output, err = bob.run("user", "register", "bob", "--name", "Bob", "--email", "bob@example.com")
	require.NoError(t, err, "output: %s", output)

	// Bob redeems Alice's code
	output, err = bob.run("referral", aliceCode)
	require.NoError(t, err, "output: %s", output)
	referral := decode[outcomeResponse](t, output)
	assert.Equal(t, 200, referral.Profile.Coins)
	assert.True(t, referral.Profile.ReferralRedeemed)

	output, err = bob.run("referral", aliceCode)
	require.Error(t, err)
	assert.Contains(t, output, "REFERRAL_ALREADY_REDEEMED")

	// Hint for the current level, resolved by the CLI
	output, err = bob.run("hint", "2")
	require.NoError(t, err, "output: %s", output)
	hint := decode[outcomeResponse](t, output)
	assert.Equal(t, 30, hint.Cost)
	assert.Len(t, hint.Hints, 2)
	assert.Equal(t, 170, hint.Profile.Coins)

	output, err = bob.run("answer", "klein")
	require.Error(t, err)
	assert.Contains(t, output, "INCORRECT_ANSWER")

	output, err = bob.run("answer", "mobius")
	require.NoError(t, err, "output: %s", output)
	answer := decode[outcomeResponse](t, output)
	assert.Equal(t, 2, answer.Profile.Level)
	assert.Equal(t, 10, answer.Profile.Score)
	assert.Equal(t, 270, answer.Profile.Coins)

	output, err = alice.run("user", "show")
	require.NoError(t, err, "output: %s", output)
	aliceUser := decode[userResponse](t, output)
	assert.Equal(t, 1, aliceUser.ReferralSuccesses)
	assert.Equal(t, 200, aliceUser.Profile.Coins)

	output, err = alice.run("leaderboard")
	require.NoError(t, err, "output: %s", output)
	board := decode[[]leaderboardEntry](t, output)
	require.Len(t, board, 2)
	assert.Equal(t, "bob", board[0].IdentityID)
	assert.Equal(t, 1, board[0].Rank)

	output, err = alice.run("coins", "500")
	require.Error(t, err)
	assert.Contains(t, output, "VALIDATION_FAILED")
}

func TestCLI_CatalogCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("catalog", "questions")
	require.NoError(t, err, "output: %s", output)
	assert.NotContains(t, output, "mobius")
	assert.Len(t, decode[[]map[string]any](t, output), 5)

	output, err = cli.run("members", "positions")
	require.NoError(t, err, "output: %s", output)
	positions := decode[[]string](t, output)
	require.NotEmpty(t, positions)

	output, err = cli.run("members", "add", "Dana", "--position", positions[0])
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, "Dana", decode[map[string]any](t, output)["name"])

	output, err = cli.run("members", "add", "Eve", "--position", "Wizard")
	require.Error(t, err)
	assert.Contains(t, output, "VALIDATION_FAILED")
}

func TestCLI_EventStream(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	stream := cli.command("events", "--json")
	stdout, err := stream.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, stream.Start())
	defer func() {
		_ = stream.Process.Kill()
		_ = stream.Wait()
	}()

	events := make(chan sseEvent, 8)
	go func() {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			var evt sseEvent
			if json.Unmarshal(scanner.Bytes(), &evt) == nil {
				events <- evt
			}
		}
		close(events)
	}()

	next := func() sseEvent {
		select {
		case evt, ok := <-events:
			require.True(t, ok, "stream closed")
			return evt
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for event")
			return sseEvent{}
		}
	}

	assert.Equal(t, "connected", next().Event)

	other := cli.as(t)
	output, err := other.run("user", "register", "carol", "--name", "Carol", "--email", "carol@example.com")
	require.NoError(t, err, "output: %s", output)

	evt := next()
	assert.Equal(t, "player_registered", evt.Event)
	assert.Contains(t, evt.Data, `"carol"`)
}

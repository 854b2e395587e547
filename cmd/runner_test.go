package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/filmx/internal/repositories"
	"github.com/desertthunder/filmx/internal/services"
	"github.com/desertthunder/filmx/internal/session"
	"github.com/desertthunder/filmx/internal/shared"
	tu "github.com/desertthunder/filmx/internal/testing"
)

const (
	anaEmail    = "ana@example.com"
	anaPassword = "s3cret-pass"
)

type harness struct {
	fake    *tu.FakeAPI
	config  *shared.Config
	backend repositories.CredentialStore
}

// newHarness starts a fake API with one account and a shared in-memory credential backend.
func newHarness(t *testing.T) *harness {
	t.Helper()

	fake := tu.NewFakeAPI(t)
	fake.AddUser("Ana Lima", anaEmail, anaPassword)

	config := shared.DefaultConfig()
	config.API.BaseURL = fake.URL()
	config.API.RateLimit = 0
	config.Storage.Backend = shared.StorageMemory

	return &harness{fake: fake, config: config, backend: repositories.NewMemoryCredentialRepository()}
}

// runner builds a fresh Runner, standing in for a separate invocation of the binary.
func (h *harness) runner(t *testing.T, input string) (*Runner, *bytes.Buffer) {
	t.Helper()

	out := &bytes.Buffer{}
	r := NewRunner(RunnerOpts{
		Config:  h.config,
		Backend: h.backend,
		Logger:  shared.NewLogger(io.Discard),
		Output:  out,
		Input:   strings.NewReader(input),
	})
	t.Cleanup(func() { r.Close() })
	return r, out
}

func run(r *Runner, args ...string) error {
	app := &cli.Command{
		Name:      "filmx",
		Writer:    io.Discard,
		ErrWriter: io.Discard,
		Commands:  r.register(),
	}
	return app.Run(context.Background(), append([]string{"filmx"}, args...))
}

func (h *harness) stored(t *testing.T) (string, bool) {
	t.Helper()
	value, ok, err := h.backend.Load(context.Background(), h.config.Storage.Key)
	if err != nil {
		t.Fatalf("failed to read backend: %v", err)
	}
	return value, ok
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	r, _ := h.runner(t, "")
	if err := run(r, "auth", "login", "--email", anaEmail, "--password", anaPassword); err != nil {
		t.Fatalf("login failed: %v", err)
	}
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			input := strings.NewReader("")
			httpClient := &http.Client{}
			api := services.NewAPIService("http://example.test", httpClient)
			backend := repositories.NewMemoryCredentialRepository()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				Input:      input,
				HTTPClient: httpClient,
				API:        api,
				Backend:    backend,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.input != input {
				t.Error("expected input to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
			if runner.backend != backend {
				t.Error("expected backend to be set")
			}
			if runner.session != nil {
				t.Error("expected session to be built lazily")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.input != os.Stdin {
				t.Error("expected input to default to os.Stdin")
			}
		})

		t.Run("with nil httpClient uses configured timeout", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.API.Timeout = 3 * time.Second
			runner := NewRunner(RunnerOpts{Config: config})

			if runner.httpClient == nil || runner.httpClient.Timeout != 3*time.Second {
				t.Errorf("expected client with 3s timeout, got %+v", runner.httpClient)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			if err := runner.writeJSON(data, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)
			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{"setup", "auth", "api", "tui"} {
			if !names[want] {
				t.Errorf("expected %s command to be registered", want)
			}
		}
	})

	t.Run("prompt", func(t *testing.T) {
		t.Run("reads successive lines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output, Input: strings.NewReader("first\r\nsecond")})

			first, err := runner.prompt("Email", false)
			if err != nil || first != "first" {
				t.Fatalf("expected first, got %q (err=%v)", first, err)
			}
			second, err := runner.prompt("Password", true)
			if err != nil || second != "second" {
				t.Fatalf("expected second, got %q (err=%v)", second, err)
			}
			if output.String() != "Email: Password: " {
				t.Errorf("unexpected prompts %q", output.String())
			}
		})

		t.Run("empty input", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Input: strings.NewReader("")})

			_, err := runner.prompt("Email", false)
			if !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})
	})
}

func TestAuthCommands(t *testing.T) {
	t.Run("Login With Flags", func(t *testing.T) {
		h := newHarness(t)
		r, out := h.runner(t, "")

		if err := run(r, "auth", "login", "--email", anaEmail, "--password", anaPassword); err != nil {
			t.Fatalf("login failed: %v", err)
		}

		if !strings.Contains(out.String(), "✓ Logged in as Ana Lima <ana@example.com>") {
			t.Errorf("unexpected output %q", out.String())
		}
		if _, ok := h.stored(t); !ok {
			t.Error("expected credential to be stored")
		}
	})

	t.Run("Login Prompts For Missing Values", func(t *testing.T) {
		h := newHarness(t)
		r, out := h.runner(t, anaEmail+"\n"+anaPassword+"\n")

		if err := run(r, "auth", "login"); err != nil {
			t.Fatalf("login failed: %v", err)
		}
		if !strings.Contains(out.String(), "Email: Password: ") {
			t.Errorf("expected prompts, got %q", out.String())
		}
		if !r.session.Current().Authenticated() {
			t.Error("expected authenticated session")
		}
	})

	t.Run("Login JSON", func(t *testing.T) {
		h := newHarness(t)
		r, out := h.runner(t, "")

		if err := run(r, "auth", "login", "--email", anaEmail, "--password", anaPassword, "--json"); err != nil {
			t.Fatalf("login failed: %v", err)
		}

		var rep statusReport
		if err := json.Unmarshal(out.Bytes(), &rep); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, out.String())
		}
		if rep.Status != "authenticated" || rep.User == nil || rep.User.Email != anaEmail {
			t.Errorf("unexpected report %+v", rep)
		}
		if rep.Storage != "memory" {
			t.Errorf("expected memory storage, got %q", rep.Storage)
		}
	})

	t.Run("Rejected Login", func(t *testing.T) {
		h := newHarness(t)
		r, _ := h.runner(t, "")

		err := run(r, "auth", "login", "--email", anaEmail, "--password", "wrong")
		if !session.IsAuthError(err) {
			t.Fatalf("expected auth error, got %v", err)
		}
		if err.Error() != "Invalid credentials" {
			t.Errorf("expected server message, got %q", err.Error())
		}
		if _, ok := h.stored(t); ok {
			t.Error("expected nothing to be stored")
		}
	})

	t.Run("Status Restores Session In New Invocation", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		r, out := h.runner(t, "")
		if err := run(r, "auth", "status"); err != nil {
			t.Fatalf("status failed: %v", err)
		}

		output := out.String()
		for _, want := range []string{"Status:  authenticated", "User:    Ana Lima <ana@example.com>", "Storage: memory", "API:     " + h.fake.URL()} {
			if !strings.Contains(output, want) {
				t.Errorf("expected %q in output:\n%s", want, output)
			}
		}
		if h.fake.Calls("/users/me") != 2 {
			t.Errorf("expected login and status to each verify once, got %d", h.fake.Calls("/users/me"))
		}
	})

	t.Run("Status Anonymous JSON", func(t *testing.T) {
		h := newHarness(t)
		r, out := h.runner(t, "")

		if err := run(r, "auth", "status", "--json"); err != nil {
			t.Fatalf("status failed: %v", err)
		}

		var rep statusReport
		if err := json.Unmarshal(out.Bytes(), &rep); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if rep.Status != "anonymous" || rep.User != nil {
			t.Errorf("unexpected report %+v", rep)
		}
	})

	t.Run("Revoked Credential Is Cleared", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		stored, _ := h.stored(t)
		h.fake.Revoke(stored)

		r, out := h.runner(t, "")
		if err := run(r, "auth", "status"); err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if !strings.Contains(out.String(), "Status:  anonymous") {
			t.Errorf("expected anonymous status, got:\n%s", out.String())
		}
		if _, ok := h.stored(t); ok {
			t.Error("expected revoked credential to be removed")
		}
	})

	t.Run("Whoami", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		t.Run("text", func(t *testing.T) {
			r, out := h.runner(t, "")
			if err := run(r, "auth", "whoami"); err != nil {
				t.Fatalf("whoami failed: %v", err)
			}
			want := "Name: Ana Lima\nEmail: ana@example.com\nMember since: 2024-03-15\n"
			if out.String() != want {
				t.Errorf("expected %q, got %q", want, out.String())
			}
		})

		t.Run("csv", func(t *testing.T) {
			r, out := h.runner(t, "")
			if err := run(r, "auth", "whoami", "--format", "csv"); err != nil {
				t.Fatalf("whoami failed: %v", err)
			}
			if !strings.HasPrefix(out.String(), "ID,Name,Email,Member Since\n") {
				t.Errorf("unexpected CSV %q", out.String())
			}
		})

		t.Run("to file", func(t *testing.T) {
			base := filepath.Join(t.TempDir(), "me")
			r, out := h.runner(t, "")
			if err := run(r, "auth", "whoami", "--format", "markdown", "--output", base); err != nil {
				t.Fatalf("whoami failed: %v", err)
			}
			tu.AssertFileExists(t, base+".md")
			if !strings.Contains(out.String(), "Profile written to "+base+".md") {
				t.Errorf("unexpected output %q", out.String())
			}
		})

		t.Run("unknown format", func(t *testing.T) {
			r, _ := h.runner(t, "")
			err := run(r, "auth", "whoami", "--format", "yaml")
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	})

	t.Run("Whoami Anonymous", func(t *testing.T) {
		h := newHarness(t)
		r, _ := h.runner(t, "")

		err := run(r, "auth", "whoami")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Logout", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		r, out := h.runner(t, "")
		if err := run(r, "auth", "logout"); err != nil {
			t.Fatalf("logout failed: %v", err)
		}
		if !strings.Contains(out.String(), "✓ Logged out") {
			t.Errorf("unexpected output %q", out.String())
		}
		if _, ok := h.stored(t); ok {
			t.Error("expected credential to be removed")
		}

		r2, out2 := h.runner(t, "")
		if err := run(r2, "auth", "status"); err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if !strings.Contains(out2.String(), "Status:  anonymous") {
			t.Errorf("expected anonymous after logout, got:\n%s", out2.String())
		}
	})

	t.Run("Register Does Not Log In", func(t *testing.T) {
		h := newHarness(t)
		r, out := h.runner(t, "")

		err := run(r, "auth", "register", "--name", "Bea Souza", "--email", "bea@example.com", "--password", "long-enough-pass")
		if err != nil {
			t.Fatalf("register failed: %v", err)
		}

		output := out.String()
		if !strings.Contains(output, "✓ Account created for Bea Souza <bea@example.com>") {
			t.Errorf("unexpected output %q", output)
		}
		if !strings.Contains(output, "filmx auth login --email bea@example.com") {
			t.Errorf("expected next step hint, got %q", output)
		}
		if h.fake.Users() != 2 {
			t.Errorf("expected account to be created, got %d users", h.fake.Users())
		}
		if _, ok := h.stored(t); ok {
			t.Error("expected registration to store nothing")
		}
	})

	t.Run("Register Duplicate", func(t *testing.T) {
		h := newHarness(t)
		r, _ := h.runner(t, "")

		err := run(r, "auth", "register", "--name", "Ana", "--email", anaEmail, "--password", "whatever-pass")
		if !session.IsAuthError(err) || err.Error() != "Email already registered" {
			t.Errorf("expected duplicate message, got %v", err)
		}
	})

	t.Run("Refresh", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		r, out := h.runner(t, "")
		if err := run(r, "auth", "refresh"); err != nil {
			t.Fatalf("refresh failed: %v", err)
		}
		if !strings.Contains(out.String(), "✓ Session verified for Ana Lima <ana@example.com>") {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("Refresh Rejected", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		r, _ := h.runner(t, "")
		_, st, err := r.resolve(context.Background())
		if err != nil || !st.Authenticated() {
			t.Fatalf("expected restored session, got %v (err=%v)", st, err)
		}

		h.fake.SetMeStatus(http.StatusUnauthorized)
		err = run(r, "auth", "refresh")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if _, ok := h.stored(t); ok {
			t.Error("expected credential to be removed")
		}
	})
}

func TestAPICommands(t *testing.T) {
	t.Run("Get Uses Session Credential", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		r, out := h.runner(t, "")
		if err := run(r, "api", "get", "/users/me"); err != nil {
			t.Fatalf("api get failed: %v", err)
		}

		if !strings.Contains(out.String(), `"email": "ana@example.com"`) {
			t.Errorf("unexpected output %s", out.String())
		}
		stored, _ := h.stored(t)
		if got := h.fake.LastAuthorization("/users/me"); got != "Bearer "+stored {
			t.Errorf("expected stored credential to be sent, got %q", got)
		}
	})

	t.Run("Get Anonymous", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		r, _ := h.runner(t, "")
		err := run(r, "api", "get", "--anonymous", "/users/me")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected 401 to map to ErrNotAuthenticated, got %v", err)
		}
		if got := h.fake.LastAuthorization("/users/me"); got != "" {
			t.Errorf("expected no credential, got %q", got)
		}
	})

	t.Run("Post", func(t *testing.T) {
		h := newHarness(t)
		r, out := h.runner(t, "")

		body := `{"username":"ana@example.com","password":"s3cret-pass"}`
		if err := run(r, "api", "post", "--compact", "--data", body, "/login/"); err != nil {
			t.Fatalf("api post failed: %v", err)
		}
		if !strings.Contains(out.String(), `"access_token":`) {
			t.Errorf("unexpected output %s", out.String())
		}
	})

	t.Run("Post Invalid JSON", func(t *testing.T) {
		h := newHarness(t)
		r, _ := h.runner(t, "")

		err := run(r, "api", "post", "--data", "{nope", "/login/")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Missing Path", func(t *testing.T) {
		h := newHarness(t)
		r, _ := h.runner(t, "")

		err := run(r, "api", "get")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestStorageBackends(t *testing.T) {
	newConfig := func(t *testing.T, fake *tu.FakeAPI) *shared.Config {
		config := shared.DefaultConfig()
		config.API.BaseURL = fake.URL()
		config.API.RateLimit = 0
		config.Database.Path = filepath.Join(t.TempDir(), "filmx.db")
		return config
	}

	invoke := func(t *testing.T, config *shared.Config, args ...string) string {
		t.Helper()
		out := &bytes.Buffer{}
		r := NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(io.Discard), Output: out})
		defer r.Close()
		if err := run(r, args...); err != nil {
			t.Fatalf("%v failed: %v", args, err)
		}
		return out.String()
	}

	t.Run("SQLite Persists Across Invocations", func(t *testing.T) {
		fake := tu.NewFakeAPI(t)
		fake.AddUser("Ana Lima", anaEmail, anaPassword)
		config := newConfig(t, fake)
		config.Storage.Backend = shared.StorageSQLite

		invoke(t, config, "auth", "login", "--email", anaEmail, "--password", anaPassword)
		tu.AssertFileExists(t, config.Database.Path)

		out := invoke(t, config, "auth", "status")
		if !strings.Contains(out, "Status:  authenticated") || !strings.Contains(out, "Storage: sqlite") {
			t.Errorf("expected restored sqlite session, got:\n%s", out)
		}
	})

	t.Run("Redis Persists Across Invocations", func(t *testing.T) {
		fake := tu.NewFakeAPI(t)
		fake.AddUser("Ana Lima", anaEmail, anaPassword)
		mr := miniredis.RunT(t)

		config := newConfig(t, fake)
		config.Storage.Backend = shared.StorageRedis
		config.Redis.Addr = mr.Addr()

		invoke(t, config, "auth", "login", "--email", anaEmail, "--password", anaPassword)
		if !mr.Exists("filmx:credential:" + config.Storage.Key) {
			t.Fatalf("expected credential in redis, keys: %v", mr.Keys())
		}

		out := invoke(t, config, "auth", "status")
		if !strings.Contains(out, "Status:  authenticated") || !strings.Contains(out, "Storage: redis") {
			t.Errorf("expected restored redis session, got:\n%s", out)
		}

		invoke(t, config, "auth", "logout")
		if mr.Exists("filmx:credential:" + config.Storage.Key) {
			t.Error("expected logout to delete the redis key")
		}
	})

	t.Run("Unavailable Storage Still Logs In", func(t *testing.T) {
		fake := tu.NewFakeAPI(t)
		fake.AddUser("Ana Lima", anaEmail, anaPassword)

		blocker := filepath.Join(t.TempDir(), "blocker")
		if err := os.WriteFile(blocker, []byte("not a directory"), 0o600); err != nil {
			t.Fatalf("failed to create blocker: %v", err)
		}

		config := newConfig(t, fake)
		config.Storage.Backend = shared.StorageSQLite
		config.Database.Path = filepath.Join(blocker, "filmx.db")

		out := invoke(t, config, "auth", "login", "--email", anaEmail, "--password", anaPassword)
		if !strings.Contains(out, "✓ Logged in as Ana Lima") {
			t.Errorf("expected login to succeed, got %q", out)
		}
		if !strings.Contains(out, "Credential storage is unavailable") {
			t.Errorf("expected storage warning, got %q", out)
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("Config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		r := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: &bytes.Buffer{}})

		if err := run(r, "setup", "config", "--config", path); err != nil {
			t.Fatalf("setup config failed: %v", err)
		}
		tu.AssertFileExists(t, path)

		if err := run(r, "setup", "config", "--config", path); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected second run to refuse overwrite, got %v", err)
		}
	})

	t.Run("Database", func(t *testing.T) {
		dir := t.TempDir()
		dbPath := filepath.Join(dir, "data", "filmx.db")
		configPath := filepath.Join(dir, "config.toml")

		conf := "[database]\npath = \"" + filepath.ToSlash(dbPath) + "\"\n"
		if err := os.WriteFile(configPath, []byte(conf), 0o644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		out := &bytes.Buffer{}
		r := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: out})
		if err := run(r, "setup", "database", "--config", configPath); err != nil {
			t.Fatalf("setup database failed: %v", err)
		}

		tu.AssertFileExists(t, dbPath)
		if !strings.Contains(out.String(), "✓ Database ready at") {
			t.Errorf("unexpected output %q", out.String())
		}
	})
}

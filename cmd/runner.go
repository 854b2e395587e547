package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/term"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/filmx/internal/repositories"
	"github.com/desertthunder/filmx/internal/services"
	"github.com/desertthunder/filmx/internal/session"
	"github.com/desertthunder/filmx/internal/shared"
	"github.com/desertthunder/filmx/internal/token"
)

const redisPingTimeout = 2 * time.Second

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The session and its storage backend are built on first use so commands that never touch the
// session (setup) do not open the database or dial redis.
type Runner struct {
	config     *shared.Config
	configPath string
	api        *services.APIService
	session    *session.Manager
	store      *session.Store
	backend    repositories.CredentialStore
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	reader     *bufio.Reader
	closers    []func() error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        *services.APIService
	Session    *session.Manager
	Backend    repositories.CredentialStore
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.API.Timeout}
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		api:        opts.API,
		session:    opts.Session,
		backend:    opts.Backend,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner and by any session built after the call.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close stops the session and releases the storage backend.
func (r *Runner) Close() error {
	if r.session != nil {
		r.session.Close()
	}

	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// manager returns the session manager, building it and its dependencies on first use.
func (r *Runner) manager() (*session.Manager, error) {
	if r.session != nil {
		return r.session, nil
	}

	if r.api == nil {
		r.api = services.NewAPIService(
			r.config.API.BaseURL,
			r.httpClient,
			services.WithLimiter(services.NewLimiter(r.config.API.RateLimit, r.config.API.Burst)),
			services.WithUserAgent(r.config.API.UserAgent),
			services.WithAPILogger(shared.WithLogger(r.logger, "component", "api")),
		)
	}

	r.store = session.NewStore(r.credentialBackend(), r.config.Storage.Key, shared.WithLogger(r.logger, "component", "store"))

	mgr, err := session.NewManager(session.Options{
		Store:  r.store,
		API:    r.api,
		Codec:  token.NewCodec(r.config.Session.ExpiryLeeway),
		Logger: shared.WithLogger(r.logger, "component", "session"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	r.session = mgr
	return mgr, nil
}

// credentialBackend opens the configured storage backend. A backend that cannot be opened yields nil,
// which the session store treats as memory-only.
func (r *Runner) credentialBackend() repositories.CredentialStore {
	if r.backend != nil {
		return r.backend
	}

	switch r.config.Storage.Backend {
	case shared.StorageSQLite:
		db, err := openDatabase(r.config)
		if err != nil {
			r.logger.Warn("credential storage unavailable, continuing in memory", "backend", shared.StorageSQLite, "error", err)
			return nil
		}
		r.closers = append(r.closers, db.Close)
		r.backend = repositories.NewSQLiteCredentialRepository(db)

	case shared.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     r.config.Redis.Addr,
			Password: r.config.Redis.Password,
			DB:       r.config.Redis.DB,
		})
		r.closers = append(r.closers, client.Close)

		repo := repositories.NewRedisCredentialRepository(client, r.config.Redis.Prefix)
		ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
		defer cancel()
		if err := repo.Ping(ctx); err != nil {
			r.logger.Warn("redis unreachable", "addr", r.config.Redis.Addr, "error", err)
		}
		r.backend = repo

	case shared.StorageMemory:
		r.backend = repositories.NewMemoryCredentialRepository()

	default:
		r.logger.Warn("unknown storage backend, continuing in memory", "backend", r.config.Storage.Backend)
		return nil
	}

	return r.backend
}

// storageName describes where the credential currently lives.
func (r *Runner) storageName() string {
	if r.backend == nil || r.store == nil || !r.store.Durable() {
		return "memory only"
	}
	return r.backend.Name()
}

// prompt reads a line from the runner's input. Secret prompts disable echo when the input is a terminal.
func (r *Runner) prompt(label string, secret bool) (string, error) {
	r.writePlain("%s: ", label)

	if f, ok := r.input.(*os.File); ok && secret && term.IsTerminal(f.Fd()) {
		value, err := term.ReadPassword(f.Fd())
		r.writePlain("\n")
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
		}
		return string(value), nil
	}

	if r.reader == nil {
		r.reader = bufio.NewReader(r.input)
	}
	line, err := r.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, strings.ToLower(label))
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

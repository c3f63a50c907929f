package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"vawter.tech/stopper"

	"github.com/mmr-tortoise/foreman/internal/model"
	"github.com/mmr-tortoise/foreman/internal/port"
	"github.com/mmr-tortoise/foreman/internal/procfile"
)

// DefaultGracePeriod is how long instances get to exit after SIGTERM
// before they are killed.
const DefaultGracePeriod = 5 * time.Second

// Engine starts, executes and restarts the processes declared in one
// Procfile. It also serves as the manifest context handed to exporters.
type Engine struct {
	procfile *procfile.Procfile
	log      zerolog.Logger
	out      io.Writer
	grace    time.Duration
	shell    string
	pidDir   string
	scanner  *port.Scanner
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithOutput sets where prefixed process output is written.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) { e.out = w }
}

// WithGracePeriod sets the delay between SIGTERM and SIGKILL on shutdown.
func WithGracePeriod(d time.Duration) Option {
	return func(e *Engine) { e.grace = d }
}

// WithPidDir overrides the directory holding instance pid files.
func WithPidDir(dir string) Option {
	return func(e *Engine) { e.pidDir = dir }
}

// New parses the Procfile at path and returns an Engine for it.
func New(path string, opts ...Option) (*Engine, error) {
	pf, err := procfile.Load(path)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		procfile: pf,
		log:      zerolog.Nop(),
		out:      os.Stdout,
		grace:    DefaultGracePeriod,
		shell:    "/bin/sh",
		scanner:  port.NewScanner(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.pidDir == "" {
		e.pidDir = filepath.Join(pf.Dir(), "tmp", "pids")
	}
	return e, nil
}

// Dir returns the directory processes run in.
func (e *Engine) Dir() string {
	return e.procfile.Dir()
}

// Entries returns the Procfile entries in declaration order.
func (e *Engine) Entries() []procfile.Entry {
	return e.procfile.Entries()
}

// ProcessNames returns the process type names in declaration order.
func (e *Engine) ProcessNames() []string {
	return e.procfile.Names()
}

// instance is one planned process: an entry, its instance number and port.
type instance struct {
	entry procfile.Entry
	num   int
	port  int
}

func (i instance) name() string {
	return fmt.Sprintf("%s.%d", i.entry.Name, i.num)
}

// Start runs every process type with its configured concurrency and blocks
// until ctx is cancelled or any instance exits, at which point the
// remaining instances are terminated.
//
// Recognized options: env, port, concurrency.
func (e *Engine) Start(ctx context.Context, opts model.OptionSet) error {
	env, err := e.loadEnv(opts)
	if err != nil {
		return err
	}
	concurrency, err := procfile.ParseConcurrency(opts.String("concurrency"))
	if err != nil {
		return err
	}
	alloc, err := e.allocator(opts)
	if err != nil {
		return err
	}

	var plan []instance
	for idx, entry := range e.procfile.Entries() {
		for n := 1; n <= concurrency.Count(entry.Name); n++ {
			as, err := alloc.Assign(entry.Name, idx, n)
			if err != nil {
				return err
			}
			plan = append(plan, instance{entry: entry, num: n, port: as.Port})
		}
	}
	if len(plan) == 0 {
		return errors.New("no processes to start")
	}

	e.warnBusy(alloc, plan)
	return e.run(ctx, plan, env)
}

// Execute runs a single instance of the named process type in the
// foreground.
func (e *Engine) Execute(ctx context.Context, name string, opts model.OptionSet) error {
	entry, ok := e.procfile.Lookup(name)
	if !ok {
		return fmt.Errorf("no such process: %s", name)
	}
	env, err := e.loadEnv(opts)
	if err != nil {
		return err
	}
	alloc, err := e.allocator(opts)
	if err != nil {
		return err
	}
	as, err := alloc.Assign(name, e.procfile.IndexOf(name), 1)
	if err != nil {
		return err
	}

	plan := []instance{{entry: entry, num: 1, port: as.Port}}
	e.warnBusy(alloc, plan)
	return e.run(ctx, plan, env)
}

// Restart sends SIGHUP to every running instance of the named process type
// recorded in the pid directory by a running Start.
func (e *Engine) Restart(ctx context.Context, name string) error {
	if _, ok := e.procfile.Lookup(name); !ok {
		return fmt.Errorf("no such process: %s", name)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	pids, err := e.readPids(name)
	if err != nil {
		return err
	}

	signalled := 0
	for path, pid := range pids {
		if err := signalGroup(pid, sigRestart); err != nil {
			e.log.Debug().Str("process", name).Int("pid", pid).Err(err).Msg("removing stale pid file")
			_ = os.Remove(path)
			continue
		}
		e.log.Info().Str("process", name).Int("pid", pid).Msg("restart signal sent")
		signalled++
	}
	if signalled == 0 {
		return fmt.Errorf("no running instances of %s", name)
	}
	return nil
}

func (e *Engine) allocator(opts model.OptionSet) (*port.Allocator, error) {
	base, _, err := opts.Int("port")
	if err != nil {
		return nil, err
	}
	return port.NewAllocator(e.scanner, base), nil
}

func (e *Engine) warnBusy(alloc *port.Allocator, plan []instance) {
	assignments := make([]port.Assignment, 0, len(plan))
	for _, inst := range plan {
		assignments = append(assignments, port.Assignment{Process: inst.entry.Name, Instance: inst.num, Port: inst.port})
	}
	for _, as := range alloc.Busy(assignments) {
		e.log.Warn().Str("instance", fmt.Sprintf("%s.%d", as.Process, as.Instance)).Int("port", as.Port).Msg("port already in use")
	}
}

// loadEnv reads opts["env"] when given, otherwise .env next to the Procfile
// if it exists.
func (e *Engine) loadEnv(opts model.OptionSet) (map[string]string, error) {
	path := opts.String("env")
	if path == "" {
		path = filepath.Join(e.procfile.Dir(), procfile.DefaultEnvFile)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
	}
	return procfile.LoadEnv(path)
}

func (e *Engine) command(inst instance, env map[string]string) *exec.Cmd {
	// #nosec G204: the command line comes from the application's own Procfile
	cmd := exec.Command(e.shell, "-c", inst.entry.Command)
	cmd.Dir = e.procfile.Dir()

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cmd.Env = os.Environ()
	for _, k := range keys {
		cmd.Env = append(cmd.Env, k+"="+env[k])
	}
	cmd.Env = append(cmd.Env, "PORT="+strconv.Itoa(inst.port))
	setProcessGroup(cmd)
	return cmd
}

// run launches plan and supervises it until every instance has exited.
//
// The first instance to exit, or cancellation of ctx, triggers shutdown:
// every remaining instance gets SIGTERM, the stopper is stopped with the
// grace period, and whatever is still running when the grace period
// expires gets SIGKILL.
func (e *Engine) run(ctx context.Context, plan []instance, env map[string]string) error {
	// sctx tracks one waiter goroutine per instance plus the killer below.
	// Its Stopping channel is the shutdown broadcast and its Done channel
	// closes when the grace period given to Stop runs out.
	sctx := stopper.WithContext(ctx)
	mux := newMultiplexer(e.out, e.now, plan)

	var (
		mu       sync.Mutex
		running  = make(map[string]*exec.Cmd)
		startErr error

		// exited receives the name of each instance as it exits; the
		// first receive starts the shutdown.
		exited = make(chan string, len(plan))

		// drained is closed once launching is over and the last running
		// instance has exited.
		drained      = make(chan struct{})
		closeDrained = sync.OnceFunc(func() { close(drained) })
		launched     bool

		// terminated is closed once SIGTERM has been sent, so the killer
		// never sends SIGKILL ahead of it.
		terminated = make(chan struct{})

		shutdown atomic.Bool
		first    sync.Once
		firstErr error
	)

	// Instances are started one after another so that a failing start
	// stops the launch; the ones already running are shut down normally.
	for _, inst := range plan {
		cmd := e.command(inst, env)
		w := mux.writer(inst.name())
		cmd.Stdout = w
		cmd.Stderr = w

		if err := cmd.Start(); err != nil {
			startErr = fmt.Errorf("failed to start %s: %w", inst.name(), err)
			break
		}
		pid := cmd.Process.Pid
		mux.system("%s started with pid %d", inst.name(), pid)
		e.log.Info().Str("instance", inst.name()).Int("pid", pid).Int("port", inst.port).Msg("process started")
		if err := e.writePid(inst, pid); err != nil {
			e.log.Warn().Str("instance", inst.name()).Err(err).Msg("could not record pid")
		}

		// The waiter removes the pid file as soon as the instance exits;
		// the deferred removal covers an instance whose waiter was
		// refused because the stopper was already stopping.
		sctx.Defer(func() { e.removePid(inst) })

		mu.Lock()
		running[inst.name()] = cmd
		mu.Unlock()

		waiter := func(*stopper.Context) error {
			err := cmd.Wait()
			w.Flush()
			e.removePid(inst)

			mu.Lock()
			delete(running, inst.name())
			if launched && len(running) == 0 {
				closeDrained()
			}
			mu.Unlock()

			mux.system("%s exited: %s", inst.name(), exitStatus(err))
			e.log.Info().Str("instance", inst.name()).Err(err).Msg("process exited")

			// Only the instance that brought the run down can fail it;
			// exits caused by our own signals are expected.
			first.Do(func() {
				if err != nil && !shutdown.Load() {
					firstErr = fmt.Errorf("%s exited: %w", inst.name(), err)
				}
			})
			exited <- inst.name()
			return nil
		}
		if !sctx.Go(waiter) {
			// Nothing will reap this instance; kill it here rather than
			// leave an orphaned process group behind.
			_ = signalGroup(pid, sigKill)
			_ = cmd.Wait()
			w.Flush()
			mu.Lock()
			delete(running, inst.name())
			mu.Unlock()
		}
	}

	mu.Lock()
	launched = true
	if len(running) == 0 {
		closeDrained()
	}
	mu.Unlock()

	// The killer waits for the grace period to run out, which the stopper
	// signals by closing Done, and kills whatever is still running.
	sctx.Go(func(sctx *stopper.Context) error {
		select {
		case <-drained:
			return nil
		case <-terminated:
		}
		select {
		case <-drained:
		case <-sctx.Done():
			mu.Lock()
			for name, cmd := range running {
				e.log.Warn().Str("instance", name).Msg("grace period expired, killing")
				_ = signalGroup(cmd.Process.Pid, sigKill)
			}
			mu.Unlock()
		}
		return nil
	})

	if startErr == nil {
		select {
		case <-exited:
		case <-sctx.Stopping():
		case <-sctx.Done():
		}
	}
	shutdown.Store(true)

	mux.system("sending SIGTERM to all processes")
	mu.Lock()
	for _, cmd := range running {
		_ = signalGroup(cmd.Process.Pid, sigTerminate)
	}
	mu.Unlock()
	close(terminated)

	sctx.Stop(e.grace)
	if err := sctx.Wait(); err != nil {
		return err
	}
	if startErr != nil {
		return startErr
	}
	return firstErr
}

func exitStatus(err error) string {
	if err == nil {
		return "exit status 0"
	}
	return err.Error()
}

// Package watchdog implements the process supervisor state machine: launch,
// monitor, throttle-restart, and gracefully terminate a child process.
//
// Grounded on the original TrollVNC TRWatchDog (src/TRWatchDog.h) for the
// state/configuration/error surface, and on IntuitionEngine's
// coprocessor_manager.go for the stop-then-wait-with-timeout launch shape,
// reimplemented over internal/procrunner and internal/lifecycle.SerialQueue
// instead of NSTask/GCD.
package watchdog

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/trollvnc/trollvncd/internal/lifecycle"
	"github.com/trollvnc/trollvncd/internal/procrunner"
)

// State is one of the six watchdog states.
type State int32

const (
	Stopped State = iota
	Starting
	Running
	Stopping
	Crashed
	Throttled
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Starting:
		return "Starting"
	case Running:
		return "Running"
	case Stopping:
		return "Stopping"
	case Crashed:
		return "Crashed"
	case Throttled:
		return "Throttled"
	default:
		return "Unknown"
	}
}

// TerminationReason classifies how the most recent generation ended.
type TerminationReason int

const (
	TerminationReasonExit TerminationReason = iota
	TerminationReasonUncaughtSignal
)

// KeepAlive is the keep-alive policy: either "always"/"never", or a
// structured condition set. The zero value is the structured form with no
// sub-conditions set, which is equivalent to Always.
type KeepAlive struct {
	// Simple, when non-nil, overrides everything: true means always
	// restart, false means never.
	Simple *bool

	SuccessfulExit  *bool
	Crashed         *bool
	OtherJobEnabled *bool
}

// Always is the keep-alive policy that always restarts.
func Always() KeepAlive { t := true; return KeepAlive{Simple: &t} }

// Never is the keep-alive policy that never restarts.
func Never() KeepAlive { f := false; return KeepAlive{Simple: &f} }

func (k KeepAlive) shouldRestart(exitStatus int, reason TerminationReason) bool {
	if k.Simple != nil {
		return *k.Simple
	}
	if k.SuccessfulExit == nil && k.Crashed == nil && k.OtherJobEnabled == nil {
		return true
	}
	if k.SuccessfulExit != nil {
		if (exitStatus == 0) != *k.SuccessfulExit {
			return false
		}
	}
	if k.Crashed != nil {
		crashed := reason == TerminationReasonUncaughtSignal || exitStatus != 0
		if crashed != *k.Crashed {
			return false
		}
	}
	if k.OtherJobEnabled != nil && !*k.OtherJobEnabled {
		return false
	}
	return true
}

// Config is the watchdog's static configuration, validated by Validate.
type Config struct {
	Label                  string
	ProgramArguments       []string
	Environment            []string
	WorkingDirectory       string
	StdinPath              string
	StdoutPath             string
	StderrPath             string
	UserName               string
	GroupName              string
	ProcessGroupIdentifier int
	ExitTimeout            time.Duration
	ThrottleInterval       time.Duration
	KeepAlive              KeepAlive
}

// Validate checks the configuration for launchability.
func (c *Config) Validate() error {
	if c.Label == "" {
		return &ConfigError{Code: ConfigErrorMissingLabel, Msg: "label must not be empty"}
	}
	if len(c.ProgramArguments) == 0 || c.ProgramArguments[0] == "" {
		return &ConfigError{Code: ConfigErrorMissingProgram, Msg: "program_arguments[0] is required"}
	}
	path := c.ProgramArguments[0]
	if !filepath.IsAbs(path) {
		return &ConfigError{Code: ConfigErrorInvalidExecutable, Msg: "program path must be absolute"}
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return &ConfigError{Code: ConfigErrorInvalidExecutable, Msg: "program path must exist and be a file"}
	}
	if info.Mode()&0111 == 0 {
		return &ConfigError{Code: ConfigErrorInvalidExecutable, Msg: "program path must be executable"}
	}
	if c.WorkingDirectory != "" {
		info, err := os.Stat(c.WorkingDirectory)
		if err != nil || !info.IsDir() {
			return &ConfigError{Code: ConfigErrorInvalidWorkingDirectory, Msg: "working_directory must be a directory"}
		}
	}
	return nil
}

// Watchdog supervises one child process according to Config.
type Watchdog struct {
	cfg    Config
	runner *procrunner.Runner
	log    *slog.Logger
	queue  *lifecycle.SerialQueue

	state int32 // atomic State

	handle         procrunner.Handle
	pid            int
	processStart   time.Time
	lastStart      time.Time
	lastExitTime   time.Time
	lastExitStatus int
	lastSignal     int
	lastReason     TerminationReason
	restartCount   uint64
	totalUptime    time.Duration
	throttleTimer  *time.Timer
	generation     uint64
	stopSettled    chan struct{}
}

// New constructs a Watchdog. runner performs the actual OS process
// operations; log receives state-transition diagnostics.
func New(cfg Config, runner *procrunner.Runner, log *slog.Logger) *Watchdog {
	if log == nil {
		log = slog.Default()
	}
	return &Watchdog{
		cfg:    cfg,
		runner: runner,
		log:    log,
		queue:  lifecycle.NewSerialQueue(),
	}
}

// State returns an atomic snapshot of the current state.
func (w *Watchdog) State() State {
	return State(atomic.LoadInt32(&w.state))
}

func (w *Watchdog) setState(s State) {
	atomic.StoreInt32(&w.state, int32(s))
	w.log.Debug("watchdog state transition", "label", w.cfg.Label, "state", s.String())
}

// IsActive reports whether the watchdog is Starting, Running, or Stopping.
func (w *Watchdog) IsActive() bool {
	switch w.State() {
	case Starting, Running, Stopping:
		return true
	}
	return false
}

// IsRunning reports whether the watchdog is Running.
func (w *Watchdog) IsRunning() bool { return w.State() == Running }

// IsThrottled reports whether the watchdog is Throttled.
func (w *Watchdog) IsThrottled() bool { return w.State() == Throttled }

// Start validates configuration and begins launching the child. Returns an
// error without changing state if validation fails or state is not
// Stopped/Crashed.
func (w *Watchdog) Start() error {
	if err := w.cfg.Validate(); err != nil {
		return err
	}
	cur := w.State()
	if cur != Stopped && cur != Crashed {
		return &RuntimeError{Code: RuntimeErrorInvalidState, Msg: "start requires Stopped or Crashed"}
	}
	var launchErr error
	w.queue.Sync(func() {
		launchErr = w.doStart()
	})
	return launchErr
}

func (w *Watchdog) doStart() error {
	w.setState(Starting)
	w.lastStart = time.Now()
	w.generation++

	h, pid, err := w.runner.Launch(w.cfg.ProgramArguments, w.cfg.Environment, w.cfg.WorkingDirectory,
		procrunnerStdio(w.cfg), w.cfg.ProcessGroupIdentifier)
	if err != nil {
		w.lastExitTime = time.Now()
		w.setState(Crashed)
		w.applyKeepAliveLocked(1, TerminationReasonUncaughtSignal)
		return &RuntimeError{Code: RuntimeErrorTaskLaunchFailed, Msg: err.Error()}
	}

	w.handle = h
	w.pid = pid
	w.processStart = time.Now()
	if w.generation > 1 {
		atomic.AddUint64(&w.restartCount, 1)
	}
	w.setState(Running)

	go w.awaitExit(h, w.generation)
	return nil
}

func procrunnerStdio(cfg Config) procrunner.Stdio {
	return procrunner.Stdio{StdinPath: cfg.StdinPath, StdoutPath: cfg.StdoutPath, StderrPath: cfg.StderrPath}
}

// awaitExit waits for the child launched as generation gen to exit and
// feeds the result back onto the serial queue.
func (w *Watchdog) awaitExit(h procrunner.Handle, gen uint64) {
	st, err := w.runner.Wait(h)
	if err != nil {
		w.log.Warn("watchdog: wait failed", "label", w.cfg.Label, "error", err)
		return
	}
	w.queue.Async(func() {
		if w.generation != gen || w.State() == Stopping {
			w.handleStoppingExit(st)
			return
		}
		w.handleUnexpectedExit(st)
	})
}

func (w *Watchdog) handleStoppingExit(st procrunner.ExitStatus) {
	w.lastExitTime = time.Now()
	w.totalUptime += w.lastExitTime.Sub(w.processStart)
	if st.Signaled {
		w.lastReason = TerminationReasonUncaughtSignal
		w.lastSignal = int(st.Signal)
	} else {
		w.lastReason = TerminationReasonExit
		w.lastExitStatus = st.Code
	}
	w.setState(Stopped)
	if w.stopSettled != nil {
		close(w.stopSettled)
		w.stopSettled = nil
	}
}

func (w *Watchdog) handleUnexpectedExit(st procrunner.ExitStatus) {
	w.lastExitTime = time.Now()
	w.totalUptime += w.lastExitTime.Sub(w.processStart)
	exitStatus := st.Code
	reason := TerminationReasonExit
	if st.Signaled {
		reason = TerminationReasonUncaughtSignal
		w.lastSignal = int(st.Signal)
		exitStatus = 1
	}
	w.lastExitStatus = exitStatus
	w.lastReason = reason
	w.setState(Crashed)
	w.applyKeepAliveLocked(exitStatus, reason)
}

// applyKeepAliveLocked implements the Crashed-state transitions: restart
// immediately, throttle, or remain Stopped. Must run on the serial queue.
func (w *Watchdog) applyKeepAliveLocked(exitStatus int, reason TerminationReason) {
	if !w.cfg.KeepAlive.shouldRestart(exitStatus, reason) {
		w.setState(Stopped)
		return
	}

	elapsed := time.Since(w.lastStart)
	if w.cfg.ThrottleInterval <= 0 || elapsed >= w.cfg.ThrottleInterval {
		w.doStart()
		return
	}

	w.setState(Throttled)
	wait := w.cfg.ThrottleInterval - elapsed
	w.throttleTimer = time.AfterFunc(wait, func() {
		w.queue.Async(func() {
			if w.State() == Throttled {
				w.doStart()
			}
		})
	})
}

// TimeUntilNextRestart reports the remaining throttle wait, or 0 if not
// throttled.
func (w *Watchdog) TimeUntilNextRestart() time.Duration {
	if w.State() != Throttled {
		return 0
	}
	remaining := w.cfg.ThrottleInterval - time.Since(w.lastStart)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Stop sends SIGTERM to the running child and transitions through Stopping
// to Stopped once it exits or the exit timeout elapses (escalating to
// SIGKILL). Idempotent: a no-op unless currently Starting or Running.
func (w *Watchdog) Stop() error {
	if !w.IsActive() || w.State() == Stopping {
		return nil
	}
	w.queue.Async(func() {
		w.beginStop()
	})
	return nil
}

// beginStop transitions a live child (Starting or Running) to Stopping and
// begins terminating it in the background, returning a channel that closes
// once the generation has settled to Stopped. If a stop is already
// in-flight, it returns that stop's existing channel. If there is no live
// child (Stopped, Crashed, or Throttled), it returns nil. Must run on the
// serial queue.
func (w *Watchdog) beginStop() chan struct{} {
	switch w.State() {
	case Stopping:
		return w.stopSettled
	case Starting, Running:
		w.setState(Stopping)
		w.stopSettled = make(chan struct{})
		h, timeout := w.handle, w.cfg.ExitTimeout
		go func() {
			w.runner.TerminateAndWait(h, timeout)
		}()
		return w.stopSettled
	default:
		return nil
	}
}

// Restart cycles the watchdog through Stopping then Starting, from any
// state: a live child (Starting, Running, or already Stopping) is
// terminated and awaited to completion, any pending throttle wake-up is
// cancelled, and only then is the child relaunched. Unlike the bare
// Stop()+Start() sequence, Restart blocks until the stop has actually
// settled before starting, so it never races Start's Stopped/Crashed
// precondition.
func (w *Watchdog) Restart() error {
	if err := w.cfg.Validate(); err != nil {
		return err
	}
	var settled chan struct{}
	w.queue.Sync(func() {
		if w.throttleTimer != nil {
			w.throttleTimer.Stop()
			w.throttleTimer = nil
		}
		settled = w.beginStop()
	})
	if settled != nil {
		<-settled
	}
	var err error
	w.queue.Sync(func() {
		err = w.doStart()
	})
	return err
}

// SendSignal delivers sig to the child if active (Running or Stopping).
func (w *Watchdog) SendSignal(sig os.Signal) bool {
	s := w.State()
	if s != Running && s != Stopping {
		return false
	}
	return w.runner.Signal(w.handle, sig) == nil
}

// ProcessIdentifier returns the current child PID, or 0 if not running.
func (w *Watchdog) ProcessIdentifier() int {
	if w.State() != Running {
		return 0
	}
	return w.pid
}

// RestartCount returns the number of Starting->Running transitions after
// the first.
func (w *Watchdog) RestartCount() uint64 { return atomic.LoadUint64(&w.restartCount) }

// TotalUptime sums process_end-process_start across generations, plus the
// live delta if currently running.
func (w *Watchdog) TotalUptime() time.Duration {
	total := w.totalUptime
	if w.State() == Running {
		total += time.Since(w.processStart)
	}
	return total
}

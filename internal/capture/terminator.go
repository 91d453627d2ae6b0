package capture

import (
	"errors"
	"os"
	"syscall"
	"time"

	"github.com/petems/whisper-cli/internal/sysexec"
	"github.com/rs/zerolog"
)

// State is where a recorder process is in its shutdown.
type State int

const (
	Running State = iota
	StoppingGraceful
	StoppingForced
	Terminated
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case StoppingGraceful:
		return "stopping-graceful"
	case StoppingForced:
		return "stopping-forced"
	case Terminated:
		return "terminated"
	}
	return "unknown"
}

// ErrStillRunning means the process survived SIGKILL for the whole kill wait.
var ErrStillRunning = errors.New("recorder process still running after kill")

// Terminator escalates a stop request: SIGTERM, wait Grace, SIGKILL, wait
// KillWait.
type Terminator struct {
	proc     sysexec.Process
	grace    time.Duration
	killWait time.Duration
	log      zerolog.Logger

	state State
}

func NewTerminator(p sysexec.Process, grace, killWait time.Duration, log zerolog.Logger) *Terminator {
	return &Terminator{proc: p, grace: grace, killWait: killWait, log: log, state: Running}
}

func (t *Terminator) State() State { return t.state }

// Stop drives the process to Terminated, returning ErrStillRunning if even
// the forced stage times out.
func (t *Terminator) Stop() error {
	if t.exited(0) {
		t.enter(Terminated)
		return nil
	}

	t.enter(StoppingGraceful)
	if err := t.proc.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		t.log.Warn().Err(err).Int("pid", t.proc.Pid()).Msg("SIGTERM failed")
	}
	if t.exited(t.grace) {
		t.enter(Terminated)
		return nil
	}

	t.enter(StoppingForced)
	if err := t.proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		t.log.Warn().Err(err).Int("pid", t.proc.Pid()).Msg("SIGKILL failed")
	}
	if t.exited(t.killWait) {
		t.enter(Terminated)
		return nil
	}

	t.log.Error().Int("pid", t.proc.Pid()).Dur("kill_wait", t.killWait).Msg("Recorder did not exit")
	return ErrStillRunning
}

func (t *Terminator) exited(wait time.Duration) bool {
	if wait <= 0 {
		select {
		case <-t.proc.Done():
			return true
		default:
			return false
		}
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-t.proc.Done():
		return true
	case <-timer.C:
		return false
	}
}

func (t *Terminator) enter(s State) {
	t.log.Debug().Int("pid", t.proc.Pid()).Stringer("from", t.state).Stringer("to", s).Msg("Recorder state")
	t.state = s
}

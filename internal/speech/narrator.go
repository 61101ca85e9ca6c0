package speech

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// WordsPerMinute is the pace used to estimate narration progress.
const WordsPerMinute = 150

// State is the narrator's playback state.
type State int

const (
	Idle State = iota
	Speaking
	Paused
)

func (s State) String() string {
	switch s {
	case Speaking:
		return "speaking"
	case Paused:
		return "paused"
	default:
		return "idle"
	}
}

// Narrator owns the single active utterance. Starting a new one cancels
// the previous; Pause and Resume act only on the current one.
type Narrator struct {
	mu      sync.Mutex
	engine  Engine
	opts    Options
	logger  *slog.Logger
	now     func() time.Time
	onEnd   func()
	cmd     *exec.Cmd
	cancel  context.CancelFunc
	state   State
	gen     uint64
	started time.Time
	paused  time.Time
	idle    time.Duration
	length  time.Duration
}

// NewNarrator creates a narrator. engine may be nil, in which case every
// Speak fails with ErrUnsupported.
func NewNarrator(engine Engine, opts Options, logger *slog.Logger) *Narrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Narrator{engine: engine, opts: opts, logger: logger, now: time.Now}
}

// Supported reports whether an engine is configured.
func (n *Narrator) Supported() bool {
	return n.engine != nil
}

// OnEnd registers a callback run when an utterance finishes naturally.
func (n *Narrator) OnEnd(fn func()) {
	n.mu.Lock()
	n.onEnd = fn
	n.mu.Unlock()
}

// SetOptions replaces the voice options for subsequent utterances.
func (n *Narrator) SetOptions(opts Options) {
	n.mu.Lock()
	n.opts = opts
	n.mu.Unlock()
}

// Speak cancels any current utterance and starts reading text.
func (n *Narrator) Speak(text string) error {
	if n.engine == nil {
		return ErrUnsupported
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("nothing to read")
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	cmd := n.engine.Command(ctx, text, n.opts)
	if err := cmd.Start(); err != nil {
		cancel()
		return err
	}

	n.gen++
	gen := n.gen
	n.cmd = cmd
	n.cancel = cancel
	n.state = Speaking
	n.started = n.now()
	n.idle = 0
	n.length = EstimateDuration(text)

	n.logger.Debug("narration started", "engine", n.engine.Name(), "words", len(strings.Fields(text)))

	go n.wait(cmd, gen)
	return nil
}

func (n *Narrator) wait(cmd *exec.Cmd, gen uint64) {
	err := cmd.Wait()

	n.mu.Lock()
	if n.gen != gen {
		n.mu.Unlock()
		return
	}
	n.state = Idle
	n.cmd = nil
	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
	onEnd := n.onEnd
	n.mu.Unlock()

	if err != nil {
		n.logger.Warn("narration ended with error", "error", err)
		return
	}
	if onEnd != nil {
		onEnd()
	}
}

// Pause suspends the current utterance. No-op unless speaking.
func (n *Narrator) Pause() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state != Speaking || n.cmd == nil || n.cmd.Process == nil {
		return nil
	}
	if err := suspend(n.cmd.Process); err != nil {
		return err
	}
	n.state = Paused
	n.paused = n.now()
	return nil
}

// Resume continues a paused utterance. No-op unless paused.
func (n *Narrator) Resume() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state != Paused || n.cmd == nil || n.cmd.Process == nil {
		return nil
	}
	if err := resume(n.cmd.Process); err != nil {
		return err
	}
	n.idle += n.now().Sub(n.paused)
	n.state = Speaking
	return nil
}

// Toggle pauses when speaking and resumes when paused.
func (n *Narrator) Toggle() error {
	switch n.State() {
	case Speaking:
		return n.Pause()
	case Paused:
		return n.Resume()
	}
	return nil
}

// Stop cancels the current utterance.
func (n *Narrator) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopLocked()
}

func (n *Narrator) stopLocked() {
	if n.cmd != nil && n.state == Paused && n.cmd.Process != nil {
		// A stopped process must be continued before it can observe the kill.
		_ = resume(n.cmd.Process)
	}
	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
	n.gen++
	n.cmd = nil
	n.state = Idle
}

// State returns the playback state.
func (n *Narrator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Progress estimates how much of the current utterance has been read, in
// percent, from elapsed speaking time.
func (n *Narrator) Progress() float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state == Idle || n.length <= 0 {
		return 0
	}
	end := n.now()
	if n.state == Paused {
		end = n.paused
	}
	elapsed := end.Sub(n.started) - n.idle
	return min(float64(elapsed)/float64(n.length)*100, 100)
}

// EstimateDuration returns the reading time of text at WordsPerMinute.
func EstimateDuration(text string) time.Duration {
	words := len(strings.Fields(text))
	return time.Duration(float64(words) / WordsPerMinute * float64(time.Minute))
}

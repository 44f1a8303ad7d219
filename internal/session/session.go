// Package session drives the interactive request loop: read a request,
// run one cycle of the crew, report, repeat until the user leaves.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/ShayCichocki/troupe/pkg/models"
)

// PromptText is shown whenever the session waits for a request.
const PromptText = "What would you like to do today?"

// State is the session loop state.
type State string

const (
	StateAwaitingRequest State = "awaiting_request"
	StateExecuting       State = "executing"
	StateTerminated      State = "terminated"
)

// Crew runs one execution cycle per request.
type Crew interface {
	Kickoff(ctx context.Context, request string) (*models.CrewOutput, error)
}

// Prompter reads one line of input. It returns io.EOF when input ends.
type Prompter interface {
	Prompt(ctx context.Context, message string) (string, error)
}

// Reporter presents the outcome of a cycle. err is the cycle-level error,
// if any; out may still carry partial task results.
type Reporter interface {
	Report(out *models.CrewOutput, err error)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(out *models.CrewOutput, err error)

// Report calls f.
func (f ReporterFunc) Report(out *models.CrewOutput, err error) { f(out, err) }

// Tracker scopes a context to a single cycle, for example so a stop signal
// cancels the cycle and not the session. signals.Watcher implements it.
type Tracker interface {
	Track(parent context.Context) (context.Context, func())
}

// Config holds the session collaborators. Crew and Prompter are required.
type Config struct {
	Crew     Crew
	Prompter Prompter
	Reporter Reporter
	Tracker  Tracker
}

// Session is a single-caller request loop over an assembled crew.
type Session struct {
	cfg Config

	mu     sync.RWMutex
	state  State
	cycles int
}

// New creates a session in the AwaitingRequest state.
func New(cfg Config) (*Session, error) {
	if cfg.Crew == nil {
		return nil, errors.New("session: crew is required")
	}
	if cfg.Prompter == nil {
		return nil, errors.New("session: prompter is required")
	}
	if cfg.Reporter == nil {
		cfg.Reporter = ReporterFunc(func(*models.CrewOutput, error) {})
	}
	return &Session{cfg: cfg, state: StateAwaitingRequest}, nil
}

// State returns the current loop state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Cycles returns how many requests have been executed.
func (s *Session) Cycles() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cycles
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	if state == StateExecuting {
		s.cycles++
	}
	s.mu.Unlock()
}

// IsExitCommand reports whether line asks to end the session.
func IsExitCommand(line string) bool {
	line = strings.TrimSpace(line)
	return strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit")
}

// Run loops until the user exits, input ends, or ctx is cancelled. A failed
// cycle is reported and the loop continues. Run returns an error only when
// reading input fails for a reason other than end of input.
func (s *Session) Run(ctx context.Context) error {
	defer s.setState(StateTerminated)

	for {
		s.setState(StateAwaitingRequest)

		line, err := s.cfg.Prompter.Prompt(ctx, PromptText)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read request: %w", err)
		}

		request := strings.TrimSpace(line)
		if request == "" {
			continue
		}
		if IsExitCommand(request) {
			return nil
		}

		s.execute(ctx, request)
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (s *Session) execute(ctx context.Context, request string) {
	s.setState(StateExecuting)

	cycleCtx, release := ctx, func() {}
	if s.cfg.Tracker != nil {
		cycleCtx, release = s.cfg.Tracker.Track(ctx)
	}
	defer release()

	out, err := s.cfg.Crew.Kickoff(cycleCtx, request)
	if err != nil {
		log.Printf("[session] WARNING: cycle failed: %v", err)
	}
	s.cfg.Reporter.Report(out, err)
}

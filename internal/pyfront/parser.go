package pyfront

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/roach88/unwind/internal/syntax"
)

//go:embed dump.py
var dumpScript string

// DefaultInterpreter is the interpreter used when none is configured.
const DefaultInterpreter = "python3"

// Parser parses Python source by running an external interpreter.
// A Parser is safe for concurrent use; each Parse runs its own process.
type Parser struct {
	interpreter string
	logger      *slog.Logger

	mu     sync.Mutex
	probed bool
	caps   syntax.Capabilities
}

// Option configures a Parser.
type Option func(*Parser)

// WithInterpreter sets the interpreter command, e.g. "python3.12" or a full path.
func WithInterpreter(path string) Option {
	return func(p *Parser) {
		if path != "" {
			p.interpreter = path
		}
	}
}

// WithLogger sets the logger for interpreter diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// New creates a Parser. The interpreter is not started until first use.
func New(opts ...Option) *Parser {
	p := &Parser{
		interpreter: DefaultInterpreter,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Interpreter returns the interpreter command.
func (p *Parser) Interpreter() string {
	return p.interpreter
}

// envelope is the dump script's reply.
type envelope struct {
	Version      string              `json:"version"`
	Capabilities syntax.Capabilities `json:"capabilities"`
	Tree         json.RawMessage     `json:"tree"`
	Error        *SyntaxError        `json:"error"`
}

// Parse parses source and returns the module node. Invalid source yields a
// *SyntaxError; a missing or failing interpreter yields a plain error.
func (p *Parser) Parse(ctx context.Context, source string) (*syntax.Node, error) {
	env, err := p.run(ctx, source)
	if err != nil {
		return nil, err
	}
	if env.Error != nil {
		return nil, env.Error
	}
	if len(env.Tree) == 0 {
		return nil, fmt.Errorf("%s: dump has neither tree nor error", p.interpreter)
	}
	p.remember(env)
	return syntax.DecodeJSON(env.Tree)
}

// Capabilities reports the grammar capabilities of the interpreter. The
// first successful probe is cached; failed probes are retried on the next call.
func (p *Parser) Capabilities(ctx context.Context) (syntax.Capabilities, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.probed {
		return p.caps, nil
	}

	env, err := p.run(ctx, "", "--probe")
	if err != nil {
		return syntax.Capabilities{}, err
	}
	p.caps, p.probed = capabilitiesOf(env), true
	p.logger.Debug("probed interpreter",
		"interpreter", p.interpreter,
		"version", env.Version,
		"pattern_matching", p.caps.PatternMatching,
	)
	return p.caps, nil
}

// remember seeds the capability cache from a full parse so a later
// Capabilities call does not start another process.
func (p *Parser) remember(env *envelope) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.probed {
		p.caps, p.probed = capabilitiesOf(env), true
	}
}

func capabilitiesOf(env *envelope) syntax.Capabilities {
	caps := env.Capabilities
	caps.Version = env.Version
	return caps
}

func (p *Parser) run(ctx context.Context, source string, args ...string) (*envelope, error) {
	path, err := exec.LookPath(p.interpreter)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInterpreterNotFound, p.interpreter)
	}

	cmdArgs := append([]string{"-c", dumpScript}, args...)
	cmd := exec.CommandContext(ctx, path, cmdArgs...)
	cmd.Env = append(os.Environ(), "PYTHONIOENCODING=utf-8")
	cmd.Stdin = strings.NewReader(source)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s exited with code %d: %s",
				p.interpreter, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("run %s: %w", p.interpreter, err)
	}

	var env envelope
	if err := json.Unmarshal(stdout.Bytes(), &env); err != nil {
		return nil, fmt.Errorf("decode %s output: %w", p.interpreter, err)
	}
	return &env, nil
}

var _ syntax.Parser = (*Parser)(nil)

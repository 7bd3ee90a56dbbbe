package fabric

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrScriptEmpty is returned by LoadScript for a script without steps.
var ErrScriptEmpty = errors.New("fabric: script has no steps")

// ScriptStep is one scripted action. Actions:
//
//	wait        pause for Frames ticks
//	screenshot  capture the screen under Label
//	enable      re-enable the node named Node
//	disable     mask the node named Node out of traversal
//	quit        stop the game cleanly
type ScriptStep struct {
	Action string `json:"action" validate:"oneof=wait screenshot enable disable quit"`
	Label  string `json:"label,omitempty"`
	Node   string `json:"node,omitempty" validate:"required_if=Action enable,required_if=Action disable"`
	Frames int    `json:"frames,omitempty" validate:"gte=0"`
}

type scriptFile struct {
	Steps []ScriptStep `json:"steps" validate:"dive"`
}

var validateScript = validator.New(validator.WithRequiredStructEnabled())

// Script sequences actions across ticks for unattended runs such as visual
// regression captures. Attach one through RunConfig.Script; Game steps it
// once per Update.
type Script struct {
	steps  []ScriptStep
	cursor int
	wait   int
	done   bool
	quit   bool
}

// LoadScript parses and validates a JSON script.
func LoadScript(data []byte) (*Script, error) {
	var f scriptFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(f.Steps) == 0 {
		return nil, ErrScriptEmpty
	}
	if err := validateScript.Struct(&f); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	return &Script{steps: f.Steps}, nil
}

// Done reports whether every step has run.
func (s *Script) Done() bool { return s.done }

// step runs at most one action per tick. A quit step sets the flag Game
// checks after stepping.
func (s *Script) step(g *Game) error {
	if s.done {
		return nil
	}
	if s.wait > 0 {
		s.wait--
		return nil
	}
	if s.cursor >= len(s.steps) {
		s.done = true
		return nil
	}

	st := s.steps[s.cursor]
	s.cursor++

	switch st.Action {
	case "wait":
		if st.Frames > 0 {
			s.wait = st.Frames - 1
		}
	case "screenshot":
		g.Screenshot(st.Label)
	case "enable", "disable":
		n, ok := g.exec.graph.NodeByName(st.Node)
		if !ok {
			return fmt.Errorf("script step %d: node %q: %w", s.cursor, st.Node, ErrUnknownNode)
		}
		ctx := g.exec.CurrentContext()
		if st.Action == "enable" {
			n.EnableExecution(ctx)
		} else {
			n.DisableExecution(ctx)
		}
	case "quit":
		s.quit = true
	}

	if s.cursor >= len(s.steps) && s.wait == 0 {
		s.done = true
	}
	return nil
}

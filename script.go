package sway

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// scriptStep represents a single action in a gesture script.
type scriptStep struct {
	Action  string  `yaml:"action"`
	Pointer int     `yaml:"pointer,omitempty"`
	X       float64 `yaml:"x,omitempty"`
	Y       float64 `yaml:"y,omitempty"`
	FromX   float64 `yaml:"from_x,omitempty"`
	FromY   float64 `yaml:"from_y,omitempty"`
	ToX     float64 `yaml:"to_x,omitempty"`
	ToY     float64 `yaml:"to_y,omitempty"`
	From    float64 `yaml:"from,omitempty"`
	To      float64 `yaml:"to,omitempty"`
	Frames  int     `yaml:"frames,omitempty"`
	Label   string  `yaml:"label,omitempty"`
}

// gestureScript is the top-level YAML structure for a gesture script.
type gestureScript struct {
	Steps []scriptStep `yaml:"steps"`
}

// ScriptRunner sequences injected pointer gestures across frames. Attach to
// a Scene via SetScriptRunner.
type ScriptRunner struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool
	marks     []string
}

var scriptActions = map[string]bool{
	"press": true, "move": true, "release": true, "tap": true,
	"drag": true, "pinch": true, "wait": true, "mark": true,
	"screenshot": true,
}

// LoadScript parses a YAML gesture script and returns a ScriptRunner ready
// to be attached to a Scene via SetScriptRunner.
func LoadScript(data []byte) (*ScriptRunner, error) {
	var script gestureScript
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("parse gesture script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse gesture script: no steps")
	}
	for i, st := range script.Steps {
		if !scriptActions[st.Action] {
			return nil, fmt.Errorf("parse gesture script: step %d: unknown action %q", i, st.Action)
		}
		if st.Pointer < 0 || st.Pointer >= maxPointers {
			return nil, fmt.Errorf("parse gesture script: step %d: pointer %d out of range", i, st.Pointer)
		}
	}
	return &ScriptRunner{steps: script.Steps}, nil
}

// ReadScriptFile loads a gesture script from disk.
func ReadScriptFile(path string) (*ScriptRunner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gesture script: %w", err)
	}
	return LoadScript(data)
}

// SetScriptRunner attaches a ScriptRunner to the scene. The runner's step
// method is called from Scene.Update before processInput each frame.
func (s *Scene) SetScriptRunner(runner *ScriptRunner) {
	s.runner = runner
}

// Done reports whether all steps in the script have been executed.
func (r *ScriptRunner) Done() bool {
	return r.done
}

// Marks returns the labels of executed "mark" steps in order.
func (r *ScriptRunner) Marks() []string {
	return r.marks
}

// step advances the runner by one frame. Called from Scene.Update.
func (r *ScriptRunner) step(s *Scene) {
	if r.done {
		return
	}
	// Wait for pending injections to drain before advancing.
	if len(s.injectQueue) > 0 {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "press":
		s.InjectPress(st.Pointer, st.X, st.Y)
	case "move":
		s.InjectMove(st.Pointer, st.X, st.Y)
	case "release":
		s.InjectRelease(st.Pointer, st.X, st.Y)
	case "tap":
		s.InjectTap(st.Pointer, st.X, st.Y)
	case "drag":
		s.InjectDrag(st.Pointer, st.FromX, st.FromY, st.ToX, st.ToY, st.Frames)
	case "pinch":
		s.InjectPinch(st.X, st.Y, st.From, st.To, st.Frames)
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	case "screenshot":
		s.Screenshot(st.Label)
	case "mark":
		r.marks = append(r.marks, st.Label)
		Logger().Info("script mark", "label", st.Label, "step", r.cursor-1)
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && len(s.injectQueue) == 0 {
		r.done = true
	}
}

package input

import (
	"encoding/json"
	"fmt"
	"os"
)

// scriptStep is a single action in an input script
type scriptStep struct {
	Action string  `json:"action"`
	Key    string  `json:"key,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	FromX  float64 `json:"fromX,omitempty"`
	FromY  float64 `json:"fromY,omitempty"`
	ToX    float64 `json:"toX,omitempty"`
	ToY    float64 `json:"toY,omitempty"`
	DY     float64 `json:"dy,omitempty"`
	Frames int     `json:"frames,omitempty"`
}

type script struct {
	Steps []scriptStep `json:"steps"`
}

// Script replays recorded input one frame at a time.
//
// Supported steps:
//
//	{"action":"key","key":"r"}
//	{"action":"move","x":10,"y":20}
//	{"action":"click","x":10,"y":20}
//	{"action":"drag","fromX":0,"fromY":0,"toX":50,"toY":40,"frames":5}
//	{"action":"wheel","x":10,"y":20,"dy":1}
//	{"action":"wait","frames":3}
//	{"action":"quit"}
type Script struct {
	frames [][]Event
	cursor int
}

// LoadScriptFile reads a JSON script from disk
func LoadScriptFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return ParseScript(data)
}

// ParseScript parses a JSON script and expands it into per-frame events
func ParseScript(data []byte) (*Script, error) {
	var s script
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse input script: %w", err)
	}
	if len(s.Steps) == 0 {
		return nil, fmt.Errorf("parse input script: no steps")
	}

	var frames [][]Event
	for i, st := range s.Steps {
		switch st.Action {
		case "key":
			if !ValidKey(st.Key) {
				return nil, fmt.Errorf("parse input script: step %d: unknown key %q", i, st.Key)
			}
			frames = append(frames, []Event{KeyEvent{Key: st.Key}})
		case "move":
			frames = append(frames, []Event{MotionEvent{X: st.X, Y: st.Y}})
		case "click":
			frames = append(frames,
				[]Event{MotionEvent{X: st.X, Y: st.Y}, ButtonEvent{Button: ButtonLeft, Pressed: true, X: st.X, Y: st.Y}},
				[]Event{ButtonEvent{Button: ButtonLeft, Pressed: false, X: st.X, Y: st.Y}},
			)
		case "drag":
			frames = append(frames, dragFrames(st)...)
		case "wheel":
			frames = append(frames, []Event{MotionEvent{X: st.X, Y: st.Y}, WheelEvent{DY: st.DY}})
		case "wait":
			if st.Frames < 1 {
				return nil, fmt.Errorf("parse input script: step %d: wait needs frames >= 1", i)
			}
			for n := 0; n < st.Frames; n++ {
				frames = append(frames, nil)
			}
		case "quit":
			frames = append(frames, []Event{QuitEvent{}})
		default:
			return nil, fmt.Errorf("parse input script: step %d: unknown action %q", i, st.Action)
		}
	}

	return &Script{frames: frames}, nil
}

// dragFrames presses at from, moves linearly over frames-2 frames and
// releases at to. The sequence takes at least two frames.
func dragFrames(st scriptStep) [][]Event {
	frames := st.Frames
	if frames < 2 {
		frames = 2
	}

	out := [][]Event{{
		MotionEvent{X: st.FromX, Y: st.FromY},
		ButtonEvent{Button: ButtonLeft, Pressed: true, X: st.FromX, Y: st.FromY},
	}}
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		out = append(out, []Event{MotionEvent{
			X: st.FromX + (st.ToX-st.FromX)*t,
			Y: st.FromY + (st.ToY-st.FromY)*t,
		}})
	}
	out = append(out, []Event{
		MotionEvent{X: st.ToX, Y: st.ToY},
		ButtonEvent{Button: ButtonLeft, Pressed: false, X: st.ToX, Y: st.ToY},
	})
	return out
}

// Next returns the events for the next frame. Once the script is
// exhausted it returns nil.
func (s *Script) Next() []Event {
	if s.cursor >= len(s.frames) {
		return nil
	}
	ev := s.frames[s.cursor]
	s.cursor++
	return ev
}

// Done reports whether every frame has been replayed
func (s *Script) Done() bool {
	return s.cursor >= len(s.frames)
}

// Len returns the number of frames the script spans
func (s *Script) Len() int {
	return len(s.frames)
}

package crop

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// StepKind is the type of a scripted pointer step.
type StepKind int

const (
	StepDown StepKind = iota
	StepMove
	StepUp
)

func (k StepKind) String() string {
	switch k {
	case StepDown:
		return "down"
	case StepMove:
		return "move"
	case StepUp:
		return "up"
	default:
		return "unknown"
	}
}

// Step is one pointer sample in a gesture script.
type Step struct {
	Kind  StepKind
	Event PointerEvent
}

// ParseScript reads a gesture script. Each non-empty line is one of
//
//	down X Y
//	move X Y
//	up
//	display LEFT TOP WIDTH HEIGHT
//
// where display sets the surface placement used by the following steps.
// Text after # is ignored. Without a display line coordinates are image
// pixels.
func ParseScript(r io.Reader) ([]Step, error) {
	var steps []Step
	var display DisplayRect
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		args, err := parseFloats(fields[1:])
		if err != nil {
			return nil, fmt.Errorf("script line %d: %w", n, err)
		}
		switch strings.ToLower(fields[0]) {
		case "down", "move":
			if len(args) != 2 {
				return nil, fmt.Errorf("script line %d: %s needs X Y", n, fields[0])
			}
			kind := StepDown
			if strings.EqualFold(fields[0], "move") {
				kind = StepMove
			}
			steps = append(steps, Step{Kind: kind, Event: PointerEvent{X: args[0], Y: args[1], Display: display}})
		case "up":
			if len(args) != 0 {
				return nil, fmt.Errorf("script line %d: up takes no arguments", n)
			}
			steps = append(steps, Step{Kind: StepUp, Event: PointerEvent{Display: display}})
		case "display":
			if len(args) != 4 {
				return nil, fmt.Errorf("script line %d: display needs LEFT TOP WIDTH HEIGHT", n)
			}
			display = DisplayRect{Left: args[0], Top: args[1], Width: args[2], Height: args[3]}
		default:
			return nil, fmt.Errorf("script line %d: unknown step %q", n, fields[0])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return steps, nil
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid number %q", f)
		}
		out = append(out, v)
	}
	return out, nil
}

// Replay feeds steps to the session in order.
func (s *Session) Replay(steps []Step) {
	for _, st := range steps {
		if s.Done() {
			return
		}
		switch st.Kind {
		case StepDown:
			s.PointerDown(st.Event)
		case StepMove:
			s.PointerMove(st.Event)
		case StepUp:
			s.PointerUp()
		}
	}
}

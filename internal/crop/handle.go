package crop

// Handle identifies what a pointer-down grabbed.
type Handle int

const (
	HandleNone Handle = iota
	HandleNW
	HandleNE
	HandleSE
	HandleSW
	HandleBody
)

// corners lists the corner handles in hit-test priority order.
var corners = [...]Handle{HandleNW, HandleNE, HandleSE, HandleSW}

func (h Handle) String() string {
	switch h {
	case HandleNW:
		return "nw"
	case HandleNE:
		return "ne"
	case HandleSE:
		return "se"
	case HandleSW:
		return "sw"
	case HandleBody:
		return "body"
	default:
		return ""
	}
}

// IsCorner reports whether h resizes the region.
func (h Handle) IsCorner() bool {
	return h >= HandleNW && h <= HandleSW
}

func (h Handle) north() bool { return h == HandleNW || h == HandleNE }
func (h Handle) south() bool { return h == HandleSW || h == HandleSE }
func (h Handle) west() bool  { return h == HandleNW || h == HandleSW }
func (h Handle) east() bool  { return h == HandleNE || h == HandleSE }

// Gesture is the state of the pointer interaction.
type Gesture int

const (
	Idle Gesture = iota
	Moving
	Resizing
)

func (g Gesture) String() string {
	switch g {
	case Moving:
		return "moving"
	case Resizing:
		return "resizing"
	default:
		return "idle"
	}
}

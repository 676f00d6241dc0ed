package bytecode

import "github.com/vellum-lang/vellum/pkg/value"

// state is the per-frame flag set driving the VM's control flow.
type state uint16

const (
	// stLooping marks a frame driven by an iterator or while loop.
	stLooping state = 1 << iota

	// stJoining marks a frame that accumulates a joiner.
	stJoining

	// stDisplay wraps joined values for document display.
	stDisplay

	// stBreaking, stContinuing, and stReturning are set by break,
	// continue, and return and checked at Flow instructions.
	stBreaking
	stContinuing
	stReturning

	// stForceReturning makes the return ignore any joined
	// accumulator and hand back the output value verbatim.
	stForceReturning

	// stDone marks an exhausted iterator.
	stDone
)

func (s state) has(f state) bool    { return s&f != 0 }
func (s *state) set(f state)        { *s |= f }
func (s *state) clear(f state)      { *s &^= f }

// interrupted reports whether the frame must stop at the next Flow
// check.
func (s state) interrupted() bool {
	return s.has(stBreaking | stContinuing | stReturning | stDone)
}

// flowKind classifies how a scope finished.
type flowKind uint8

const (
	flowDone flowKind = iota
	flowBreak
	flowContinue
	flowReturn
)

// flow is the classified result of one scope run: the kind, the
// scope's value, and whether a return was forced.
type flow struct {
	kind   flowKind
	value  value.Value
	forced bool
}

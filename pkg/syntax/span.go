package syntax

import "fmt"

// FileID identifies one source file within an evaluation.
// IDs are assigned by the world when sources are registered.
type FileID uint16

// NoFile is the FileID used for spans with no source attribution,
// such as values synthesized by the engine itself.
const NoFile FileID = 0

// Span is a byte range within one source file. Detached spans
// (zero value) are legal and mean "no source location".
type Span struct {
	File  FileID `json:"file,omitempty"`
	Start uint32 `json:"start,omitempty"`
	End   uint32 `json:"end,omitempty"`
}

// Detached reports whether the span carries no source location.
func (s Span) Detached() bool {
	return s.File == NoFile && s.Start == 0 && s.End == 0
}

// Union returns the smallest span covering both s and other.
// If either side is detached, the other is returned unchanged.
func (s Span) Union(other Span) Span {
	if s.Detached() {
		return other
	}
	if other.Detached() || other.File != s.File {
		return s
	}
	out := s
	if other.Start < out.Start {
		out.Start = other.Start
	}
	if other.End > out.End {
		out.End = other.End
	}
	return out
}

// String returns "file:start-end" for diagnostics.
func (s Span) String() string {
	if s.Detached() {
		return "<detached>"
	}
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

package syntax

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Source is one parsed source file: its identity, its AST root, and a
// fingerprint of the parse for cache keying.
type Source struct {
	ID   FileID `json:"id"`
	Path string `json:"path"`
	Root *Expr  `json:"root"`
}

// NewSource builds a source from an AST root.
func NewSource(id FileID, path string, root *Expr) *Source {
	return &Source{ID: id, Path: path, Root: root}
}

// DecodeSource decodes a CBOR-encoded source document as delivered by
// the external parser.
func DecodeSource(data []byte) (*Source, error) {
	var src Source
	if err := cbor.Unmarshal(data, &src); err != nil {
		return nil, fmt.Errorf("malformed source document: %w", err)
	}
	if src.Root == nil {
		return nil, fmt.Errorf("source document %q has no AST root", src.Path)
	}
	return &src, nil
}

// Encode serializes the source as CBOR.
func (s *Source) Encode() ([]byte, error) {
	return cbor.Marshal(s)
}

// Fingerprint returns a stable content hash of the parsed AST. Two
// sources with equal fingerprints compile to identical modules.
func (s *Source) Fingerprint() string {
	data, err := cbor.Marshal(s.Root)
	if err != nil {
		// The AST is a closed tree of plain structs; marshalling it
		// cannot fail unless the tree was corrupted in memory.
		panic(fmt.Sprintf("fingerprint of %q: %v", s.Path, err))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

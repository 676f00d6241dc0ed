package bytecode

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/vellum-lang/vellum/pkg/syntax"
	"github.com/vellum-lang/vellum/pkg/value"
)

// Compiled modules can be snapshotted to CBOR for the module cache.
// Only plain constants survive a snapshot: scalars and leaf content
// nodes. Modules whose constants hold functions or evaluated imports
// fail to encode and simply stay uncached.

const (
	snapshotMagic   = "VLBC"
	snapshotVersion = 1
)

type wireSnapshot struct {
	Magic       string    `cbor:"magic"`
	Version     int       `cbor:"version"`
	Fingerprint string    `cbor:"fingerprint"`
	Code        *wireCode `cbor:"code"`
}

type wireCode struct {
	Name         string         `cbor:"name"`
	Span         syntax.Span    `cbor:"span"`
	Instructions []Instruction  `cbor:"instructions"`
	Spans        []syntax.Span  `cbor:"spans"`
	Constants    []wireValue    `cbor:"constants"`
	Strings      []string       `cbor:"strings"`
	Labels       []string       `cbor:"labels"`
	Closures     []*wireClosure `cbor:"closures"`
	Accesses     []*wireAccess  `cbor:"accesses"`
	Patterns     []*wirePattern `cbor:"patterns"`
	Selects      [][]SelectArm  `cbor:"selects"`
	Jumps        []int          `cbor:"jumps"`
	Registers    int            `cbor:"registers"`
	Joins        bool           `cbor:"joins"`
	Display      bool           `cbor:"display"`
	Exports      []Export       `cbor:"exports"`
}

type wireClosure struct {
	Name     string            `cbor:"name"`
	Span     syntax.Span       `cbor:"span"`
	Params   []CompiledParam   `cbor:"params"`
	Captures []CompiledCapture `cbor:"captures"`
	Code     *wireCode         `cbor:"code"`
	SelfReg  Register          `cbor:"selfReg"`
	HasSelf  bool              `cbor:"hasSelf"`
}

type wireAccess struct {
	Kind   AccessKind  `cbor:"kind"`
	Span   syntax.Span `cbor:"span"`
	Root   Readable    `cbor:"root"`
	Parent int         `cbor:"parent"`
	Field  string      `cbor:"field,omitempty"`
	Const  *wireValue  `cbor:"const,omitempty"`
}

type wirePattern struct {
	Kind  PatternKind `cbor:"kind"`
	Span  syntax.Span `cbor:"span"`
	Reg   Register    `cbor:"reg"`
	Name  string      `cbor:"name,omitempty"`
	Items []wireSlot  `cbor:"items,omitempty"`
}

type wireSlot struct {
	Kind PatternSlotKind `cbor:"kind"`
	Name string          `cbor:"name,omitempty"`
	Span syntax.Span     `cbor:"span"`
	Sub  *wirePattern    `cbor:"sub,omitempty"`
}

type wireValue struct {
	Kind  string      `cbor:"kind"`
	Bool  bool        `cbor:"bool,omitempty"`
	Int   int64       `cbor:"int,omitempty"`
	Float float64     `cbor:"float,omitempty"`
	Str   string      `cbor:"str,omitempty"`
	Elem  string      `cbor:"elem,omitempty"`
	Span  syntax.Span `cbor:"span"`
}

// EncodeModule serializes a compiled module for caching.
func EncodeModule(cm *CompiledModule) ([]byte, error) {
	code, err := encodeCode(cm.Code)
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(&wireSnapshot{
		Magic:       snapshotMagic,
		Version:     snapshotVersion,
		Fingerprint: cm.Fingerprint,
		Code:        code,
	})
}

// DecodeModule restores a compiled module from a snapshot.
func DecodeModule(data []byte) (*CompiledModule, error) {
	var snap wireSnapshot
	if err := cbor.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("malformed module snapshot: %w", err)
	}
	if snap.Magic != snapshotMagic {
		return nil, fmt.Errorf("not a module snapshot (magic %q)", snap.Magic)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	code, err := decodeCode(snap.Code)
	if err != nil {
		return nil, err
	}
	return &CompiledModule{Code: code, Fingerprint: snap.Fingerprint}, nil
}

func encodeCode(code *CompiledCode) (*wireCode, error) {
	out := &wireCode{
		Name:         code.Name,
		Span:         code.Span,
		Instructions: code.Instructions,
		Spans:        code.Spans,
		Strings:      code.Strings,
		Labels:       code.Labels,
		Selects:      code.Selects,
		Jumps:        code.Jumps,
		Registers:    code.Registers,
		Joins:        code.Joins,
		Display:      code.Display,
		Exports:      code.Exports,
	}
	for _, c := range code.Constants {
		wv, err := encodeValue(c)
		if err != nil {
			return nil, err
		}
		out.Constants = append(out.Constants, wv)
	}
	for _, a := range code.Accesses {
		wa := &wireAccess{
			Kind: a.Kind, Span: a.Span, Root: a.Root,
			Parent: a.Parent, Field: a.Field,
		}
		if a.Const != nil {
			wv, err := encodeValue(a.Const)
			if err != nil {
				return nil, err
			}
			wa.Const = &wv
		}
		out.Accesses = append(out.Accesses, wa)
	}
	for _, p := range code.Patterns {
		out.Patterns = append(out.Patterns, encodePattern(p))
	}
	for _, cl := range code.Closures {
		sub, err := encodeCode(cl.Code)
		if err != nil {
			return nil, err
		}
		out.Closures = append(out.Closures, &wireClosure{
			Name: cl.Name, Span: cl.Span, Params: cl.Params,
			Captures: cl.Captures, Code: sub,
			SelfReg: cl.SelfReg, HasSelf: cl.HasSelf,
		})
	}
	return out, nil
}

func decodeCode(in *wireCode) (*CompiledCode, error) {
	out := &CompiledCode{
		Name:         in.Name,
		Span:         in.Span,
		Instructions: in.Instructions,
		Spans:        in.Spans,
		Strings:      in.Strings,
		Labels:       in.Labels,
		Selects:      in.Selects,
		Jumps:        in.Jumps,
		Registers:    in.Registers,
		Joins:        in.Joins,
		Display:      in.Display,
		Exports:      in.Exports,
	}
	for _, wv := range in.Constants {
		v, err := decodeValue(wv)
		if err != nil {
			return nil, err
		}
		out.Constants = append(out.Constants, v)
	}
	for _, wa := range in.Accesses {
		a := &Access{
			Kind: wa.Kind, Span: wa.Span, Root: wa.Root,
			Parent: wa.Parent, Field: wa.Field,
		}
		if wa.Const != nil {
			v, err := decodeValue(*wa.Const)
			if err != nil {
				return nil, err
			}
			a.Const = v
		}
		out.Accesses = append(out.Accesses, a)
	}
	for _, wp := range in.Patterns {
		out.Patterns = append(out.Patterns, decodePattern(wp))
	}
	for _, wc := range in.Closures {
		sub, err := decodeCode(wc.Code)
		if err != nil {
			return nil, err
		}
		out.Closures = append(out.Closures, &CompiledClosure{
			Name: wc.Name, Span: wc.Span, Params: wc.Params,
			Captures: wc.Captures, Code: sub,
			SelfReg: wc.SelfReg, HasSelf: wc.HasSelf,
		})
	}
	return out, nil
}

func encodePattern(p *Pattern) *wirePattern {
	out := &wirePattern{
		Kind: p.Kind, Span: p.Span, Reg: p.Reg, Name: p.name,
	}
	for _, slot := range p.Items {
		ws := wireSlot{Kind: slot.Kind, Name: slot.Name, Span: slot.Span}
		if slot.Sub != nil {
			ws.Sub = encodePattern(slot.Sub)
		}
		out.Items = append(out.Items, ws)
	}
	return out
}

func decodePattern(wp *wirePattern) *Pattern {
	out := &Pattern{
		Kind: wp.Kind, Span: wp.Span, Reg: wp.Reg, name: wp.Name,
	}
	for _, ws := range wp.Items {
		slot := PatternSlot{Kind: ws.Kind, Name: ws.Name, Span: ws.Span}
		if ws.Sub != nil {
			slot.Sub = decodePattern(ws.Sub)
		}
		out.Items = append(out.Items, slot)
	}
	return out
}

func encodeValue(v value.Value) (wireValue, error) {
	switch v := v.(type) {
	case value.None:
		return wireValue{Kind: "none"}, nil
	case value.Auto:
		return wireValue{Kind: "auto"}, nil
	case value.Bool:
		return wireValue{Kind: "bool", Bool: bool(v)}, nil
	case value.Int:
		return wireValue{Kind: "int", Int: int64(v)}, nil
	case value.Float:
		return wireValue{Kind: "float", Float: float64(v)}, nil
	case value.Str:
		return wireValue{Kind: "str", Str: string(v)}, nil
	case value.Label:
		return wireValue{Kind: "label", Str: string(v)}, nil
	case *value.Content:
		if v.Body != nil || v.Tail != nil || len(v.Children) > 0 ||
			v.Styles != nil || v.Fields != nil || v.Label != "" {
			return wireValue{}, fmt.Errorf(
				"cannot snapshot composite content constant")
		}
		return wireValue{
			Kind: "content", Elem: string(v.Elem), Str: v.Text,
			Bool: v.Block, Span: v.Span,
		}, nil
	default:
		return wireValue{}, fmt.Errorf(
			"cannot snapshot %s constant", v.Kind())
	}
}

func decodeValue(wv wireValue) (value.Value, error) {
	switch wv.Kind {
	case "none":
		return value.None{}, nil
	case "auto":
		return value.Auto{}, nil
	case "bool":
		return value.Bool(wv.Bool), nil
	case "int":
		return value.Int(wv.Int), nil
	case "float":
		return value.Float(wv.Float), nil
	case "str":
		return value.Str(wv.Str), nil
	case "label":
		return value.Label(wv.Str), nil
	case "content":
		return &value.Content{
			Elem: value.ElemKind(wv.Elem), Text: wv.Str,
			Block: wv.Bool, Span: wv.Span,
		}, nil
	default:
		return nil, fmt.Errorf("unknown constant kind %q in snapshot", wv.Kind)
	}
}

// Package irtext implements a textual form of the lowered three-address
// IR: a writer that dumps a lowered.Block/Def tree as readable assembly-like
// text, and a reader that parses that text back into a live tree with
// freshly reconstructed symbols. It exists for inspecting and hand-authoring
// intermediate representations without going through a full front end, and
// is deliberately not a PL/0 source-language parser.
package irtext

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pl0beta/pl0c/pkg/symbols"
)

// encodeType renders t as a single token (or a colon-separated group for
// the composite types) that decodeType can parse back exactly.
func encodeType(t symbols.Type) string {
	switch v := t.(type) {
	case *symbols.IntType:
		prefix := "i"
		if v.Sign == symbols.Unsigned {
			prefix = "u"
		}
		return fmt.Sprintf("%s%d", prefix, v.Bits)
	case *symbols.LabelType:
		return "label"
	case *symbols.FunctionType:
		return "function"
	case *symbols.PointerType:
		return "ptr:" + encodeType(v.Pointee)
	case *symbols.ArrayType:
		dims := make([]string, len(v.Dims))
		for i, d := range v.Dims {
			dims[i] = strconv.Itoa(d)
		}
		return "arr:" + strings.Join(dims, "x") + ":" + encodeType(v.Element)
	default:
		panic(fmt.Sprintf("irtext: unsupported type %T", t))
	}
}

func decodeType(tok string) (symbols.Type, error) {
	switch tok {
	case "label":
		return &symbols.LabelType{}, nil
	case "function":
		return &symbols.FunctionType{}, nil
	case "i8":
		return symbols.Int8, nil
	case "i16":
		return symbols.Int16, nil
	case "i32":
		return symbols.Int32, nil
	case "u8":
		return symbols.UInt8, nil
	case "u16":
		return symbols.UInt16, nil
	case "u32":
		return symbols.UInt32, nil
	}
	if rest, ok := strings.CutPrefix(tok, "ptr:"); ok {
		inner, err := decodeType(rest)
		if err != nil {
			return nil, err
		}
		return &symbols.PointerType{Pointee: inner}, nil
	}
	if rest, ok := strings.CutPrefix(tok, "arr:"); ok {
		parts := strings.SplitN(rest, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("irtext: malformed array type %q", tok)
		}
		var dims []int
		for _, d := range strings.Split(parts[0], "x") {
			n, err := strconv.Atoi(d)
			if err != nil {
				return nil, fmt.Errorf("irtext: bad array dimension in %q: %w", tok, err)
			}
			dims = append(dims, n)
		}
		elem, err := decodeType(parts[1])
		if err != nil {
			return nil, err
		}
		return &symbols.ArrayType{Dims: dims, Element: elem}, nil
	}
	return nil, fmt.Errorf("irtext: unrecognized type token %q", tok)
}

func encodeClass(c symbols.AllocClass) string {
	switch c {
	case symbols.AllocImm:
		return "imm"
	case symbols.AllocReg:
		return "reg"
	default:
		return "auto"
	}
}

func decodeClass(tok string) (symbols.AllocClass, error) {
	switch tok {
	case "auto":
		return symbols.AllocAuto, nil
	case "imm":
		return symbols.AllocImm, nil
	case "reg":
		return symbols.AllocReg, nil
	}
	return 0, fmt.Errorf("irtext: unrecognized allocation class %q", tok)
}

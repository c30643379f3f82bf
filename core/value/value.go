// Package value defines the closed set of storable values and the
// columnar result types returned by query execution.
//
// A Value is a tagged union over the scalar kinds an embedded SQL engine
// can store (null, integer, real, text, blob) plus three array kinds
// (integer, real, text). Array kinds exist only to carry vector and set
// attributes of an element before they are exploded into per-row inserts;
// they are never bound into a single engine cell.
package value

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Kind identifies which member of the Value union is populated.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindText
	KindBlob
	KindIntArray
	KindFloatArray
	KindTextArray
)

// String returns the kind name as used in diagnostics and error messages.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "NULL"
	case KindInt:
		return "INTEGER"
	case KindFloat:
		return "REAL"
	case KindText:
		return "TEXT"
	case KindBlob:
		return "BLOB"
	case KindIntArray:
		return "INTEGER[]"
	case KindFloatArray:
		return "REAL[]"
	case KindTextArray:
		return "TEXT[]"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is an immutable tagged union. The zero Value is Null.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    []byte
	ia   []int64
	fa   []float64
	sa   []string
}

// Null returns the null Value.
func Null() Value { return Value{} }

// Int returns an integer Value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float returns a real Value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// Text returns a text Value.
func Text(v string) Value { return Value{kind: KindText, s: v} }

// Blob returns a blob Value. The slice is not copied.
func Blob(v []byte) Value { return Value{kind: KindBlob, b: v} }

// Ints returns an integer-array Value.
func Ints(v []int64) Value { return Value{kind: KindIntArray, ia: v} }

// Floats returns a real-array Value.
func Floats(v []float64) Value { return Value{kind: KindFloatArray, fa: v} }

// Texts returns a text-array Value.
func Texts(v []string) Value { return Value{kind: KindTextArray, sa: v} }

// Kind reports which member of the union is populated.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsArray reports whether the value is one of the array kinds.
func (v Value) IsArray() bool {
	switch v.kind {
	case KindIntArray, KindFloatArray, KindTextArray:
		return true
	}
	return false
}

// AsInt returns the integer payload. ok is false for any other kind.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

// AsFloat returns the real payload. ok is false for any other kind.
func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return v.f, true
}

// AsText returns the text payload. ok is false for any other kind.
func (v Value) AsText() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.s, true
}

// AsBlob returns the blob payload. ok is false for any other kind.
func (v Value) AsBlob() ([]byte, bool) {
	if v.kind != KindBlob {
		return nil, false
	}
	return v.b, true
}

// Len returns the element count of an array Value, or 0 for scalars.
func (v Value) Len() int {
	switch v.kind {
	case KindIntArray:
		return len(v.ia)
	case KindFloatArray:
		return len(v.fa)
	case KindTextArray:
		return len(v.sa)
	}
	return 0
}

// Index returns array slot i as a scalar Value. It panics if the value is
// not an array or i is out of range, mirroring slice indexing.
func (v Value) Index(i int) Value {
	switch v.kind {
	case KindIntArray:
		return Int(v.ia[i])
	case KindFloatArray:
		return Float(v.fa[i])
	case KindTextArray:
		return Text(v.sa[i])
	}
	panic(fmt.Sprintf("value: Index on non-array kind %s", v.kind))
}

// Elements explodes an array Value into scalar Values, one per slot.
// It returns nil for scalar kinds.
func (v Value) Elements() []Value {
	n := v.Len()
	if !v.IsArray() {
		return nil
	}
	out := make([]Value, n)
	for i := 0; i < n; i++ {
		out[i] = v.Index(i)
	}
	return out
}

// String renders the value for logs and error messages. Blobs are
// hex-encoded and truncated.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindText:
		return fmt.Sprintf("%q", v.s)
	case KindBlob:
		if len(v.b) > 16 {
			return "x'" + hex.EncodeToString(v.b[:16]) + "...'"
		}
		return "x'" + hex.EncodeToString(v.b) + "'"
	case KindIntArray, KindFloatArray, KindTextArray:
		parts := make([]string, v.Len())
		for i := range parts {
			parts[i] = v.Index(i).String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return v.kind.String()
	}
}

// Equal reports deep equality between two Values, including array contents.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindText:
		return v.s == o.s
	case KindBlob:
		if len(v.b) != len(o.b) {
			return false
		}
		for i := range v.b {
			if v.b[i] != o.b[i] {
				return false
			}
		}
		return true
	case KindIntArray:
		if len(v.ia) != len(o.ia) {
			return false
		}
		for i := range v.ia {
			if v.ia[i] != o.ia[i] {
				return false
			}
		}
		return true
	case KindFloatArray:
		if len(v.fa) != len(o.fa) {
			return false
		}
		for i := range v.fa {
			if v.fa[i] != o.fa[i] {
				return false
			}
		}
		return true
	case KindTextArray:
		if len(v.sa) != len(o.sa) {
			return false
		}
		for i := range v.sa {
			if v.sa[i] != o.sa[i] {
				return false
			}
		}
		return true
	}
	return false
}

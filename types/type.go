package types

import (
	"fmt"
	"strings"
)

// Infinity is the size reported for variable length types.
const Infinity = 0xFFFF

// ArgType describes a schema level type. The set of implementations is closed.
type ArgType interface {
	isArgType()
	String() string
}

type Primitive int

const (
	TypeUint8 Primitive = iota
	TypeUint16
	TypeUint32
	TypeUint64
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeFloat32
	TypeFloat64
	TypeVector2
	TypeVector3
	TypeString
	TypeUnicodeString
	TypeBlob
)

var primitiveNames = map[Primitive]string{
	TypeUint8:         "UINT8",
	TypeUint16:        "UINT16",
	TypeUint32:        "UINT32",
	TypeUint64:        "UINT64",
	TypeInt8:          "INT8",
	TypeInt16:         "INT16",
	TypeInt32:         "INT32",
	TypeInt64:         "INT64",
	TypeFloat32:       "FLOAT32",
	TypeFloat64:       "FLOAT64",
	TypeVector2:       "VECTOR2",
	TypeVector3:       "VECTOR3",
	TypeString:        "STRING",
	TypeUnicodeString: "UNICODE_STRING",
	TypeBlob:          "BLOB",
}

func (Primitive) isArgType() {}

func (p Primitive) String() string {
	if n, ok := primitiveNames[p]; ok {
		return n
	}
	return fmt.Sprintf("PRIMITIVE(%d)", int(p))
}

// ArrayType with a nil Size is length prefixed on the wire.
type ArrayType struct {
	SubType ArgType
	Size    *int
}

func (*ArrayType) isArgType() {}

func (a *ArrayType) String() string {
	if a.Size != nil {
		return fmt.Sprintf("ARRAY<%v>[%d]", a.SubType, *a.Size)
	}
	return fmt.Sprintf("ARRAY<%v>", a.SubType)
}

type FixedDictField struct {
	Name string
	Type ArgType
}

type FixedDictType struct {
	AllowNone bool
	Fields    []FixedDictField
}

func (*FixedDictType) isArgType() {}

func (d *FixedDictType) String() string {
	parts := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		parts[i] = f.Name + ":" + f.Type.String()
	}
	s := "FIXED_DICT{" + strings.Join(parts, ",") + "}"
	if d.AllowNone {
		s += "?"
	}
	return s
}

func (d *FixedDictType) FieldIndex(name string) int {
	for i, f := range d.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

type TupleType struct {
	SubType ArgType
	Size    int
}

func (*TupleType) isArgType() {}

func (t *TupleType) String() string {
	return fmt.Sprintf("TUPLE<%v>[%d]", t.SubType, t.Size)
}

// UnknownType keeps the unresolved name for diagnostics.
type UnknownType struct {
	Name string
}

func (UnknownType) isArgType() {}

func (u UnknownType) String() string {
	return "UNKNOWN(" + u.Name + ")"
}

func TypeSize(t ArgType) int {
	switch t := t.(type) {
	case Primitive:
		switch t {
		case TypeUint8, TypeInt8:
			return 1
		case TypeUint16, TypeInt16:
			return 2
		case TypeUint32, TypeInt32, TypeFloat32:
			return 4
		case TypeUint64, TypeInt64, TypeFloat64, TypeVector2:
			return 8
		case TypeVector3:
			return 12
		default:
			return Infinity
		}
	case *ArrayType:
		if t.Size == nil {
			return Infinity
		}
		return multiplySize(TypeSize(t.SubType), *t.Size)
	case *FixedDictType:
		if t.AllowNone {
			return Infinity
		}
		sum := 0
		for _, f := range t.Fields {
			s := TypeSize(f.Type)
			if s == Infinity {
				return Infinity
			}
			sum += s
		}
		if sum >= Infinity {
			return Infinity
		}
		return sum
	case *TupleType:
		return multiplySize(TypeSize(t.SubType), t.Size)
	}
	return 0
}

func multiplySize(elem, n int) int {
	if elem == Infinity {
		return Infinity
	}
	if s := elem * n; s < Infinity {
		return s
	}
	return Infinity
}

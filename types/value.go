package types

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/wows_replay_parser/utils"
)

// Value is a decoded runtime value. The set of implementations is closed.
type Value interface {
	isValue()
}

type (
	Uint8   uint8
	Uint16  uint16
	Uint32  uint32
	Uint64  uint64
	Int8    int8
	Int16   int16
	Int32   int32
	Int64   int64
	Float32 float32
	Float64 float64
	Vector2 mgl32.Vec2
	Vector3 mgl32.Vec3
	String  string
	Blob    []byte
	Array   []Value
	Dict    map[string]Value
)

func (Uint8) isValue()   {}
func (Uint16) isValue()  {}
func (Uint32) isValue()  {}
func (Uint64) isValue()  {}
func (Int8) isValue()    {}
func (Int16) isValue()   {}
func (Int32) isValue()   {}
func (Int64) isValue()   {}
func (Float32) isValue() {}
func (Float64) isValue() {}
func (Vector2) isValue() {}
func (Vector3) isValue() {}
func (String) isValue()  {}
func (Blob) isValue()    {}
func (Array) isValue()   {}
func (Dict) isValue()    {}

// Clone returns a deep copy of v. Scalars are returned as is.
func Clone(v Value) Value {
	switch v := v.(type) {
	case Array:
		out := make(Array, len(v))
		for i, e := range v {
			out[i] = Clone(e)
		}
		return out
	case Dict:
		out := make(Dict, len(v))
		for k, e := range v {
			out[k] = Clone(e)
		}
		return out
	case Blob:
		return append(Blob{}, v...)
	}
	return v
}

func ParseValue(r *utils.BufStack, t ArgType) (Value, error) {
	switch t := t.(type) {
	case Primitive:
		return parsePrimitive(r, t)
	case *ArrayType:
		var count int
		if t.Size != nil {
			count = *t.Size
		} else {
			n, err := r.ReadByte()
			if err != nil {
				return nil, err
			}
			count = int(n)
		}
		return parseElements(r, t.SubType, count)
	case *FixedDictType:
		if t.AllowNone {
			flag, err := r.ReadByte()
			if err != nil {
				return nil, err
			}
			switch flag {
			case 0:
				return Dict{}, nil
			case 1:
			default:
				return nil, utils.NewError(utils.KindStructural, "invalid FIXED_DICT none flag 0x%x", flag)
			}
		}
		d := make(Dict, len(t.Fields))
		for _, f := range t.Fields {
			v, err := ParseValue(r, f.Type)
			if err != nil {
				return nil, err
			}
			d[f.Name] = v
		}
		return d, nil
	case *TupleType:
		return parseElements(r, t.SubType, t.Size)
	}
	return nil, utils.NewError(utils.KindStructural, "cannot parse value of %v", t)
}

func parseElements(r *utils.BufStack, sub ArgType, count int) (Array, error) {
	arr := make(Array, 0, count)
	for i := 0; i < count; i++ {
		v, err := ParseValue(r, sub)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
	return arr, nil
}

func readSizedBytes(r *utils.BufStack) ([]byte, error) {
	size, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	n := int(size)
	if size == 0xFF {
		long, err := r.ReadLU16()
		if err != nil {
			return nil, err
		}
		// one unknown byte follows the extended length
		if err := r.Skip(1); err != nil {
			return nil, err
		}
		n = int(long)
	}
	return r.Read(n)
}

func parsePrimitive(r *utils.BufStack, p Primitive) (Value, error) {
	switch p {
	case TypeUint8:
		v, err := r.ReadByte()
		return Uint8(v), err
	case TypeUint16:
		v, err := r.ReadLU16()
		return Uint16(v), err
	case TypeUint32:
		v, err := r.ReadLU32()
		return Uint32(v), err
	case TypeUint64:
		v, err := r.ReadLU64()
		return Uint64(v), err
	case TypeInt8:
		v, err := r.ReadI8()
		return Int8(v), err
	case TypeInt16:
		v, err := r.ReadLI16()
		return Int16(v), err
	case TypeInt32:
		v, err := r.ReadLI32()
		return Int32(v), err
	case TypeInt64:
		v, err := r.ReadLI64()
		return Int64(v), err
	case TypeFloat32:
		v, err := r.ReadLF()
		return Float32(v), err
	case TypeFloat64:
		v, err := r.ReadLD()
		return Float64(v), err
	case TypeVector2:
		var v mgl32.Vec2
		err := r.ReadLFs(v[:])
		return Vector2(v), err
	case TypeVector3:
		var v mgl32.Vec3
		err := r.ReadLFs(v[:])
		return Vector3(v), err
	case TypeString, TypeUnicodeString:
		b, err := readSizedBytes(r)
		if err != nil {
			return nil, err
		}
		return String(utils.BytesToString(b)), nil
	case TypeBlob:
		b, err := readSizedBytes(r)
		if err != nil {
			return nil, err
		}
		return Blob(append([]byte(nil), b...)), nil
	}
	return nil, utils.NewError(utils.KindStructural, "unhandled primitive %v", p)
}

// DefaultValue is the value a freshly allocated slot of type t holds.
func DefaultValue(t ArgType) (Value, error) {
	switch t := t.(type) {
	case Primitive:
		switch t {
		case TypeUint8:
			return Uint8(0), nil
		case TypeUint16:
			return Uint16(0), nil
		case TypeUint32:
			return Uint32(0), nil
		case TypeUint64:
			return Uint64(0), nil
		case TypeInt8:
			return Int8(0), nil
		case TypeInt16:
			return Int16(0), nil
		case TypeInt32:
			return Int32(0), nil
		case TypeInt64:
			return Int64(0), nil
		case TypeFloat32:
			return Float32(0), nil
		case TypeFloat64:
			return Float64(0), nil
		case TypeVector2:
			return Vector2{}, nil
		case TypeVector3:
			return Vector3{}, nil
		case TypeString, TypeUnicodeString:
			return String(""), nil
		case TypeBlob:
			return Blob{}, nil
		}
	case *ArrayType:
		return Array{}, nil
	case *FixedDictType:
		d := Dict{}
		if t.AllowNone {
			return d, nil
		}
		for _, f := range t.Fields {
			v, err := DefaultValue(f.Type)
			if err != nil {
				return nil, err
			}
			d[f.Name] = v
		}
		return d, nil
	}
	return nil, utils.NewError(utils.KindStructural, "no default value for %v", t)
}

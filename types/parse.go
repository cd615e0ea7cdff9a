package types

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// ParseType resolves a schema node such as <Type>ARRAY<of>UINT8</of></Type>.
// Unresolved names produce UnknownType.
func ParseType(node *etree.Element, aliases map[string]ArgType) ArgType {
	name := strings.ToUpper(strings.TrimSpace(node.Text()))

	switch name {
	case "UINT8":
		return TypeUint8
	case "UINT16":
		return TypeUint16
	case "UINT32":
		return TypeUint32
	case "UINT64":
		return TypeUint64
	case "INT8":
		return TypeInt8
	case "INT16":
		return TypeInt16
	case "INT32":
		return TypeInt32
	case "INT64":
		return TypeInt64
	case "FLOAT", "FLOAT32":
		return TypeFloat32
	case "FLOAT64":
		return TypeFloat64
	case "VECTOR2":
		return TypeVector2
	case "VECTOR3":
		return TypeVector3
	case "STRING":
		return TypeString
	case "UNICODE_STRING":
		return TypeUnicodeString
	case "BLOB", "MAILBOX", "PYTHON", "USER_TYPE":
		return TypeBlob
	case "ARRAY":
		of := node.SelectElement("of")
		if of == nil {
			return UnknownType{Name: name}
		}
		arr := &ArrayType{SubType: ParseType(of, aliases)}
		if sizeNode := node.SelectElement("size"); sizeNode != nil {
			size, ok := parseSize(sizeNode)
			if !ok {
				return UnknownType{Name: name}
			}
			arr.Size = &size
		}
		return arr
	case "FIXED_DICT":
		d := &FixedDictType{}
		if an := node.SelectElement("AllowNone"); an != nil {
			d.AllowNone = strings.EqualFold(strings.TrimSpace(an.Text()), "true")
		}
		if props := node.SelectElement("Properties"); props != nil {
			for _, field := range props.ChildElements() {
				typeNode := field.SelectElement("Type")
				if typeNode == nil {
					return UnknownType{Name: name}
				}
				d.Fields = append(d.Fields, FixedDictField{
					Name: field.Tag,
					Type: ParseType(typeNode, aliases),
				})
			}
		}
		return d
	case "TUPLE":
		of := node.SelectElement("of")
		if of == nil {
			return UnknownType{Name: name}
		}
		t := &TupleType{SubType: ParseType(of, aliases)}
		if sizeNode := node.SelectElement("size"); sizeNode != nil {
			size, ok := parseSize(sizeNode)
			if !ok {
				return UnknownType{Name: name}
			}
			t.Size = size
		}
		return t
	}

	if alias, ok := aliases[name]; ok {
		return alias
	}
	if alias, ok := aliases[strings.TrimSpace(node.Text())]; ok {
		return alias
	}
	return UnknownType{Name: name}
}

func parseSize(node *etree.Element) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(node.Text()))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

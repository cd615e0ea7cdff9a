package packet

import (
	"strconv"

	"github.com/mogaika/wows_replay_parser/types"
	"github.com/mogaika/wows_replay_parser/utils"
)

// PathKey is one step into a compound value: a dict field or an array index.
type PathKey struct {
	Name    string
	Index   int
	IsIndex bool
}

func FieldKey(name string) PathKey { return PathKey{Name: name} }
func IndexKey(i int) PathKey       { return PathKey{Index: i, IsIndex: true} }

func (k PathKey) String() string {
	if k.IsIndex {
		return "[" + strconv.Itoa(k.Index) + "]"
	}
	return k.Name
}

type UpdateAction interface {
	isUpdateAction()
}

type SetKey struct {
	Key   string
	Value types.Value
}

// SetRange replaced [Start, Stop) with Values.
type SetRange struct {
	Start, Stop int
	Values      []types.Value
}

type RemoveRange struct {
	Start, Stop int
}

type SetElement struct {
	Index int
	Value types.Value
}

func (SetKey) isUpdateAction()      {}
func (SetRange) isUpdateAction()    {}
func (RemoveRange) isUpdateAction() {}
func (SetElement) isUpdateAction()  {}

// PropertyNesting is the mutated location and the mutation applied there.
// For SetKey and SetElement the last path key is the mutated slot.
type PropertyNesting struct {
	Path   []PathKey
	Action UpdateAction
}

func nestedError(format string, a ...interface{}) error {
	return utils.NewError(utils.KindStructural, "nested update: "+format, a...)
}

// ApplyNested interprets one bit packed update command against the value
// in slot and writes the result back through slot.
func ApplyNested(slot *types.Value, t types.ArgType, br *utils.BitReader, isSlice bool) (PropertyNesting, error) {
	ctl, err := br.Get(1)
	if err != nil {
		return PropertyNesting{}, err
	}
	if ctl == 0 {
		return applyLeaf(slot, t, br, isSlice)
	}

	switch t := t.(type) {
	case *types.FixedDictType:
		d, ok := (*slot).(types.Dict)
		if !ok {
			return PropertyNesting{}, nestedError("value %T is not a dict", *slot)
		}
		idx, err := br.Get(utils.BitsRequired(len(t.Fields)))
		if err != nil {
			return PropertyNesting{}, err
		}
		if int(idx) >= len(t.Fields) {
			return PropertyNesting{}, nestedError("field index %d out of range (%d)", idx, len(t.Fields))
		}
		field := t.Fields[idx]
		child, ok := d[field.Name]
		if !ok {
			return PropertyNesting{}, nestedError("dict has no field %q", field.Name)
		}
		n, err := ApplyNested(&child, field.Type, br, isSlice)
		if err != nil {
			return PropertyNesting{}, err
		}
		d[field.Name] = child
		n.Path = append([]PathKey{FieldKey(field.Name)}, n.Path...)
		return n, nil
	case *types.ArrayType:
		arr, ok := (*slot).(types.Array)
		if !ok {
			return PropertyNesting{}, nestedError("value %T is not an array", *slot)
		}
		idx, err := br.Get(utils.BitsRequired(len(arr)))
		if err != nil {
			return PropertyNesting{}, err
		}
		i := int(idx)
		if i == len(arr) {
			def, err := types.DefaultValue(t.SubType)
			if err != nil {
				return PropertyNesting{}, err
			}
			arr = append(arr, def)
			*slot = arr
		} else if i > len(arr) {
			return PropertyNesting{}, nestedError("array index %d out of range (%d)", i, len(arr))
		}
		n, err := ApplyNested(&arr[i], t.SubType, br, isSlice)
		if err != nil {
			return PropertyNesting{}, err
		}
		n.Path = append([]PathKey{IndexKey(i)}, n.Path...)
		return n, nil
	}
	return PropertyNesting{}, nestedError("type %v is neither dict nor array", t)
}

func parseAligned(br *utils.BitReader) (*utils.BufStack, error) {
	br.DiscardToByte()
	rest, err := br.GetAll()
	if err != nil {
		return nil, err
	}
	return utils.NewBufStack("nested", rest), nil
}

func applyLeaf(slot *types.Value, t types.ArgType, br *utils.BitReader, isSlice bool) (PropertyNesting, error) {
	switch t := t.(type) {
	case *types.FixedDictType:
		d, ok := (*slot).(types.Dict)
		if !ok {
			return PropertyNesting{}, nestedError("value %T is not a dict", *slot)
		}
		idx, err := br.Get(utils.BitsRequired(len(t.Fields)))
		if err != nil {
			return PropertyNesting{}, err
		}
		if int(idx) >= len(t.Fields) {
			return PropertyNesting{}, nestedError("field index %d out of range (%d)", idx, len(t.Fields))
		}
		field := t.Fields[idx]
		r, err := parseAligned(br)
		if err != nil {
			return PropertyNesting{}, err
		}
		v, err := types.ParseValue(r, field.Type)
		if err != nil {
			return PropertyNesting{}, err
		}
		d[field.Name] = v
		return PropertyNesting{
			Path:   []PathKey{FieldKey(field.Name)},
			Action: SetKey{Key: field.Name, Value: v},
		}, nil
	case *types.ArrayType:
		arr, ok := (*slot).(types.Array)
		if !ok {
			return PropertyNesting{}, nestedError("value %T is not an array", *slot)
		}
		if isSlice {
			return applySlice(slot, arr, t, br)
		}
		idx, err := br.Get(utils.BitsRequired(len(arr)))
		if err != nil {
			return PropertyNesting{}, err
		}
		i := int(idx)
		if i >= len(arr) {
			return PropertyNesting{}, nestedError("array index %d out of range (%d)", i, len(arr))
		}
		r, err := parseAligned(br)
		if err != nil {
			return PropertyNesting{}, err
		}
		if r.Empty() {
			return PropertyNesting{}, nestedError("no data for array element %d", i)
		}
		v, err := types.ParseValue(r, t.SubType)
		if err != nil {
			return PropertyNesting{}, err
		}
		arr[i] = v
		return PropertyNesting{
			Path:   []PathKey{IndexKey(i)},
			Action: SetElement{Index: i, Value: v},
		}, nil
	}
	return PropertyNesting{}, nestedError("type %v is neither dict nor array", t)
}

func applySlice(slot *types.Value, arr types.Array, t *types.ArrayType, br *utils.BitReader) (PropertyNesting, error) {
	bits := utils.BitsRequired(len(arr) + 1)
	i1, err := br.Get(bits)
	if err != nil {
		return PropertyNesting{}, err
	}
	i2, err := br.Get(bits)
	if err != nil {
		return PropertyNesting{}, err
	}
	start, stop := int(i1), int(i2)
	if start > stop {
		return PropertyNesting{}, nestedError("slice start %d > stop %d", start, stop)
	}
	if stop > len(arr) {
		return PropertyNesting{}, nestedError("slice stop %d out of range (%d)", stop, len(arr))
	}
	r, err := parseAligned(br)
	if err != nil {
		return PropertyNesting{}, err
	}
	var values []types.Value
	for !r.Empty() {
		v, err := types.ParseValue(r, t.SubType)
		if err != nil {
			return PropertyNesting{}, err
		}
		values = append(values, v)
	}

	spliced := make(types.Array, 0, len(arr)-(stop-start)+len(values))
	spliced = append(spliced, arr[:start]...)
	spliced = append(spliced, values...)
	spliced = append(spliced, arr[stop:]...)
	*slot = spliced

	if len(values) == 0 {
		return PropertyNesting{Action: RemoveRange{Start: start, Stop: stop}}, nil
	}
	return PropertyNesting{Action: SetRange{Start: start, Stop: stop, Values: values}}, nil
}

package types

import (
	"reflect"
	"testing"

	"github.com/beevik/etree"

	"github.com/mogaika/wows_replay_parser/utils"
)

func typeNode(t *testing.T, xml string) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xml); err != nil {
		t.Fatalf("bad xml %q: %v", xml, err)
	}
	return doc.Root()
}

func intPtr(i int) *int { return &i }

func TestTypeSize(t *testing.T) {
	for _, test := range []struct {
		in  ArgType
		out int
	}{
		{TypeUint32, 4},
		{TypeInt8, 1},
		{TypeVector3, 12},
		{TypeString, Infinity},
		{TypeBlob, Infinity},
		{&ArrayType{SubType: TypeUint8}, Infinity},
		{&ArrayType{SubType: TypeUint16, Size: intPtr(3)}, 6},
		{&ArrayType{SubType: TypeString, Size: intPtr(3)}, Infinity},
		{&FixedDictType{AllowNone: true, Fields: []FixedDictField{{"a", TypeUint8}}}, Infinity},
		{&FixedDictType{Fields: []FixedDictField{{"a", TypeUint8}, {"b", TypeFloat32}}}, 5},
		{&FixedDictType{Fields: []FixedDictField{{"a", TypeUint8}, {"b", TypeBlob}}}, Infinity},
		{&TupleType{SubType: TypeInt32, Size: 2}, 8},
		{UnknownType{Name: "X"}, 0},
	} {
		if r := TypeSize(test.in); r != test.out {
			t.Errorf("TypeSize(%v)=%d; expected %d", test.in, r, test.out)
		}
	}
}

func TestParseTypeArray(t *testing.T) {
	arg := ParseType(typeNode(t, "<Type> ARRAY <of> UINT8 </of> <size> 4 </size> </Type>"), nil)
	arr, ok := arg.(*ArrayType)
	if !ok {
		t.Fatalf("ParseType returned %v; expected array", utils.SDump(arg))
	}
	if arr.SubType != TypeUint8 {
		t.Errorf("SubType=%v; expected UINT8", arr.SubType)
	}
	if arr.Size == nil || *arr.Size != 4 {
		t.Errorf("Size=%v; expected 4", arr.Size)
	}
}

func TestParseTypeDictAndAlias(t *testing.T) {
	aliases := map[string]ArgType{"SHIP_ID": TypeInt64}
	arg := ParseType(typeNode(t, `<Type>FIXED_DICT
		<Properties>
			<shipId><Type>SHIP_ID</Type></shipId>
			<names><Type>ARRAY<of>UNICODE_STRING</of></Type></names>
			<blob><Type>USER_TYPE</Type></blob>
		</Properties>
		<AllowNone>true</AllowNone>
	</Type>`), aliases)

	d, ok := arg.(*FixedDictType)
	if !ok {
		t.Fatalf("ParseType returned %v; expected fixed dict", utils.SDump(arg))
	}
	if !d.AllowNone || len(d.Fields) != 3 {
		t.Fatalf("dict=%v", d)
	}
	if d.Fields[0].Name != "shipId" || d.Fields[0].Type != TypeInt64 {
		t.Errorf("field 0=%v; expected shipId:INT64", d.Fields[0])
	}
	if sub, ok := d.Fields[1].Type.(*ArrayType); !ok || sub.SubType != TypeUnicodeString || sub.Size != nil {
		t.Errorf("field 1=%v; expected unsized unicode array", d.Fields[1].Type)
	}
	if d.Fields[2].Type != TypeBlob {
		t.Errorf("field 2=%v; expected BLOB", d.Fields[2].Type)
	}
	if d.FieldIndex("names") != 1 || d.FieldIndex("nope") != -1 {
		t.Errorf("FieldIndex mismatch")
	}

	if u, ok := ParseType(typeNode(t, "<Type>SOMETHING_NEW</Type>"), aliases).(UnknownType); !ok || u.Name != "SOMETHING_NEW" {
		t.Errorf("expected unknown type for unresolved name, got %v", u)
	}
	if tup, ok := ParseType(typeNode(t, "<Type>TUPLE<of>FLOAT</of><size>3</size></Type>"), nil).(*TupleType); !ok || tup.Size != 3 || tup.SubType != TypeFloat32 {
		t.Errorf("expected FLOAT tuple of 3, got %v", tup)
	}
}

func TestParseValue(t *testing.T) {
	dictType := &FixedDictType{AllowNone: true, Fields: []FixedDictField{
		{"id", TypeInt32},
		{"name", TypeString},
		{"flags", &ArrayType{SubType: TypeUint8}},
	}}
	data := []byte{
		0x01,                   // not none
		0xFE, 0xFF, 0xFF, 0xFF, // id -2
		0x03, 'B', 'o', 't',    // name
		0x02, 0x07, 0x09, // flags
	}
	r := utils.NewBufStack("test", data)
	v, err := ParseValue(r, dictType)
	if err != nil {
		t.Fatal(err)
	}
	d := v.(Dict)
	if d["id"] != Int32(-2) || d["name"] != String("Bot") {
		t.Errorf("ParseValue=%v", utils.SDump(d))
	}
	flags := d["flags"].(Array)
	if len(flags) != 2 || flags[0] != Uint8(7) || flags[1] != Uint8(9) {
		t.Errorf("flags=%v; expected [7 9]", flags)
	}
	if !r.Empty() {
		t.Errorf("%d bytes left", r.Remaining())
	}

	if v, err := ParseValue(utils.NewBufStack("none", []byte{0x00}), dictType); err != nil || len(v.(Dict)) != 0 {
		t.Errorf("none dict=%v,%v; expected empty dict", v, err)
	}
	if _, err := ParseValue(utils.NewBufStack("bad", []byte{0x05}), dictType); !utils.IsKind(err, utils.KindStructural) {
		t.Errorf("bad none flag: expected structural error, got %v", err)
	}
	if _, err := ParseValue(utils.NewBufStack("empty", nil), TypeUint32); err == nil {
		t.Errorf("expected error parsing from empty data")
	}
}

func TestParseLongBlob(t *testing.T) {
	data := []byte{0xFF, 0x00, 0x01, 0x00}
	data = append(data, make([]byte, 256)...)
	data[4] = 0xAB
	v, err := ParseValue(utils.NewBufStack("blob", data), TypeBlob)
	if err != nil {
		t.Fatal(err)
	}
	b := v.(Blob)
	if len(b) != 256 || b[0] != 0xAB {
		t.Errorf("long blob len=%d first=%#x; expected 256, 0xab", len(b), b[0])
	}
}

func TestDefaultValue(t *testing.T) {
	dict := &FixedDictType{Fields: []FixedDictField{{"count", TypeUint16}, {"items", &ArrayType{SubType: TypeInt8}}}}
	v, err := DefaultValue(dict)
	if err != nil {
		t.Fatal(err)
	}
	d := v.(Dict)
	if d["count"] != Uint16(0) || len(d["items"].(Array)) != 0 {
		t.Errorf("DefaultValue=%v", utils.SDump(d))
	}
	if _, err := DefaultValue(&TupleType{SubType: TypeUint8, Size: 2}); err == nil {
		t.Errorf("expected error for tuple default")
	}
}

func TestClone(t *testing.T) {
	orig := Dict{
		"list": Array{Uint16(1), Dict{"x": Int8(2)}},
		"blob": Blob{1, 2},
		"name": String("a"),
	}
	c := Clone(orig).(Dict)
	if !reflect.DeepEqual(c, orig) {
		t.Fatalf("Clone=%v; expected %v", utils.SDump(c), utils.SDump(orig))
	}

	c["name"] = String("b")
	c["list"].(Array)[0] = Uint16(9)
	c["list"].(Array)[1].(Dict)["x"] = Int8(9)
	c["blob"].(Blob)[0] = 9

	expected := Dict{
		"list": Array{Uint16(1), Dict{"x": Int8(2)}},
		"blob": Blob{1, 2},
		"name": String("a"),
	}
	if !reflect.DeepEqual(orig, expected) {
		t.Errorf("original changed through clone: %v", utils.SDump(orig))
	}
}

package packet

import (
	"encoding/binary"
	"math"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mogaika/wows_replay_parser/config"
	"github.com/mogaika/wows_replay_parser/schema"
	"github.com/mogaika/wows_replay_parser/types"
	"github.com/mogaika/wows_replay_parser/utils"
)

type builder []byte

func (b *builder) u8(v uint8) *builder  { *b = append(*b, v); return b }
func (b *builder) u16(v uint16) *builder { *b = binary.LittleEndian.AppendUint16(*b, v); return b }
func (b *builder) u32(v uint32) *builder { *b = binary.LittleEndian.AppendUint32(*b, v); return b }
func (b *builder) i32(v int32) *builder  { return b.u32(uint32(v)) }
func (b *builder) f32(v float32) *builder {
	return b.u32(math.Float32bits(v))
}
func (b *builder) raw(v ...byte) *builder { *b = append(*b, v...); return b }

func (b *builder) vec3() *builder { return b.f32(1).f32(2).f32(3) }

func (b *builder) lstring(s string) *builder {
	b.u32(uint32(len(s)))
	*b = append(*b, s...)
	return b
}

// sized appends the strict inner size followed by body.
func (b *builder) sized(body []byte) *builder {
	b.u32(uint32(len(body)))
	*b = append(*b, body...)
	return b
}

func frame(raw uint32, clock float32, payload []byte) []byte {
	return AppendFrame(nil, raw, clock, payload)
}

func stream(frames ...[]byte) []byte {
	var out []byte
	for _, f := range frames {
		out = append(out, f...)
	}
	return out
}

func testSpecs() []*schema.EntitySpec {
	state := &types.FixedDictType{Fields: []types.FixedDictField{
		{Name: "a", Type: types.TypeUint8},
		{Name: "b", Type: types.TypeUint32},
	}}
	teamID := schema.Property{Name: "teamId", Type: types.TypeInt8, Flags: schema.FlagAllClients}
	avatar := &schema.EntitySpec{
		Name: "Avatar",
		Type: 1,
		ClientMethods: []schema.Method{
			{Name: "onChat", Args: []types.ArgType{types.TypeString}},
		},
		BaseProperties: []schema.Property{
			{Name: "name", Type: types.TypeString, Flags: schema.FlagBaseAndClient},
		},
		ClientPropertiesInternal: []schema.Property{teamID},
		ClientProperties: []schema.Property{
			teamID,
			{Name: "state", Type: state, Flags: schema.FlagAllClients},
			{Name: "list", Type: &types.ArrayType{SubType: types.TypeUint16}, Flags: schema.FlagAllClients},
		},
	}
	return []*schema.EntitySpec{avatar}
}

func newTestSession(version string) *Session {
	return NewSession(testSpecs(), config.MustVersion(version), zerolog.Nop())
}

// entityCreate builds an EntityCreate for entity 7 with teamId=1,
// state={a:5 b:10} and list=[3 4].
func entityCreate() []byte {
	var body builder
	body.u8(3)
	body.u8(0).u8(1)
	body.u8(1).u8(5).u32(10)
	body.u8(2).u8(2).u16(3).u16(4)

	var p builder
	p.i32(7).u16(1).i32(0).i32(0).vec3().vec3().sized(body)
	return frame(0x05, 1, p)
}

func nested(isSlice bool, bits ...byte) []byte {
	var p builder
	p.i32(7)
	if isSlice {
		p.u8(1)
	} else {
		p.u8(0)
	}
	p.sized(bits)
	return frame(0x23, 2, p)
}

func mustParse(t *testing.T, s *Session, data []byte) []Packet {
	t.Helper()
	packets, err := s.ParsePackets(data)
	if err != nil {
		t.Fatalf("ParsePackets: %v", err)
	}
	return packets
}

func TestKindOf(t *testing.T) {
	for _, tc := range []struct {
		raw     uint32
		version string
		want    Kind
	}{
		{0x08, "0.10.0", KindEntityMethod},
		{0x08, "12.6.0", KindEntityMethod},
		{0x22, "12.4.0", KindNestedPropertyUpdate},
		{0x22, "12.5.0", KindNestedPropertyUpdate},
		{0x22, "12.6.0", KindResult},
		{0x23, "12.6.0", KindNestedPropertyUpdate},
		{0x24, "12.5.0", KindCamera},
		{0x25, "13.0.0", KindCamera},
		{0x31, "11.0.0", KindCruiseState},
		{0x32, "11.0.0", KindUnknown},
		{0x99, "12.6.0", KindUnknown},
	} {
		v := config.MustVersion(tc.version)
		if got := KindOf(tc.raw, v); got != tc.want {
			t.Errorf("KindOf(0x%x, %v) = %v, want %v", tc.raw, v, got, tc.want)
		}
		if tc.want == KindUnknown {
			continue
		}
		if raw, ok := RawID(tc.want, v); !ok || raw != tc.raw {
			t.Errorf("RawID(%v, %v) = 0x%x %v, want 0x%x", tc.want, v, raw, ok, tc.raw)
		}
	}
}

func TestUnknownPacketContinues(t *testing.T) {
	s := newTestSession("12.6.0")
	var version builder
	version.lstring("12,6,0")
	packets := mustParse(t, s, stream(
		frame(0x99, 0.5, []byte{1, 2, 3}),
		frame(0x16, 1.5, version),
	))
	if len(packets) != 2 {
		t.Fatalf("got %d packets", len(packets))
	}
	u, ok := packets[0].(*UnknownPacket)
	if !ok || u.RawKind != 0x99 || !reflect.DeepEqual(u.Data, []byte{1, 2, 3}) {
		t.Errorf("unexpected first packet %#v", packets[0])
	}
	if v, ok := packets[1].(*VersionPacket); !ok || v.Version != "12,6,0" || v.Time() != 1.5 {
		t.Errorf("unexpected second packet %#v", packets[1])
	}
	if s.Stats.Unknown != 1 || s.Stats.Packets != 2 {
		t.Errorf("stats %+v", s.Stats)
	}
}

func TestFrameErrors(t *testing.T) {
	s := newTestSession("12.6.0")

	var oversize builder
	oversize.u32(100).u32(0x16).f32(0).raw(1, 2, 3, 4)
	if _, err := s.ParsePackets(oversize); !utils.IsKind(err, utils.KindStructural) {
		t.Errorf("oversize frame: got %v", err)
	}

	var version builder
	version.lstring("x")
	data := append(frame(0x16, 0, version), 1, 2, 3, 4, 5)
	packets, err := s.ParsePackets(data)
	if !utils.IsKind(err, utils.KindStructural) {
		t.Errorf("truncated header: got %v", err)
	}
	if len(packets) != 1 {
		t.Errorf("expected the packet before the damage, got %d", len(packets))
	}
}

func TestEntityFlow(t *testing.T) {
	s := newTestSession("12.6.0")
	var methods []*EntityMethodPacket
	s.OnPacket(KindEntityMethod, func(p Packet) {
		methods = append(methods, p.(*EntityMethodPacket))
	})

	var args builder
	args.u8(2).raw('h', 'i')
	var method builder
	method.i32(7).i32(0).sized(args)

	var prop builder
	prop.i32(7).i32(0).sized([]byte{2})

	packets := mustParse(t, s, stream(entityCreate(), frame(0x08, 1, method), frame(0x07, 1, prop)))
	if len(packets) != 3 || s.Stats.Invalid != 0 {
		t.Fatalf("got %d packets, stats %+v", len(packets), s.Stats)
	}

	create := packets[0].(*EntityCreatePacket)
	wantState := types.Dict{"a": types.Uint8(5), "b": types.Uint32(10)}
	if !reflect.DeepEqual(create.Values["state"], wantState) {
		t.Errorf("state = %#v", create.Values["state"])
	}

	if len(methods) != 1 {
		t.Fatalf("observer got %d methods", len(methods))
	}
	if methods[0].MethodName != "onChat" {
		t.Errorf("method name %q", methods[0].MethodName)
	}
	if v, ok := methods[0].Arg(0); !ok || v != types.String("hi") {
		t.Errorf("method arg %#v", v)
	}

	e, err := s.Entity(7)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := e.Property("teamId"); v != types.Int8(2) {
		t.Errorf("teamId = %#v", v)
	}
	if got, ok := s.FindEntity("Avatar"); !ok || got != e {
		t.Errorf("FindEntity failed")
	}
}

func TestInvalidPackets(t *testing.T) {
	s := newTestSession("12.6.0")

	var badSize builder
	badSize.i32(7).i32(0).u32(5).u8(2)

	var args builder
	args.u8(0)
	var badMethod builder
	badMethod.i32(7).i32(5).sized(args)

	var noEntity builder
	noEntity.i32(99).i32(0).sized([]byte{1})

	packets := mustParse(t, s, stream(
		entityCreate(),
		frame(0x07, 1, badSize),
		frame(0x08, 1, badMethod),
		frame(0x07, 1, noEntity),
	))
	if len(packets) != 4 {
		t.Fatalf("got %d packets", len(packets))
	}
	for i, want := range []utils.ErrorKind{utils.KindStructural, utils.KindReference, utils.KindReference} {
		inv, ok := packets[i+1].(*InvalidPacket)
		if !ok {
			t.Errorf("packet %d: expected invalid, got %T", i+1, packets[i+1])
			continue
		}
		if !utils.IsKind(inv.Err, want) {
			t.Errorf("packet %d: error %v, want kind %v", i+1, inv.Err, want)
		}
	}
	if s.Stats.Invalid != 3 {
		t.Errorf("stats %+v", s.Stats)
	}
}

func TestPlayerCreate(t *testing.T) {
	s := newTestSession("12.6.0")

	var base builder
	base.i32(1).u16(1).u8(3).raw('b', 'o', 'b').raw(0xAA, 0xBB)

	var cell builder
	cell.i32(1).i32(0).i32(0).vec3().vec3().sized([]byte{1, 0})

	var orphan builder
	orphan.i32(2).i32(0).i32(0).vec3().vec3().sized([]byte{3, 0})

	packets := mustParse(t, s, stream(frame(0x00, 0, base), frame(0x01, 0, cell), frame(0x01, 0, orphan)))
	if s.Stats.Invalid != 0 {
		t.Fatalf("stats %+v, packets %#v", s.Stats, packets)
	}
	bp := packets[0].(*BasePlayerCreatePacket)
	if !reflect.DeepEqual(bp.Data, []byte{0xAA, 0xBB}) {
		t.Errorf("base data %v", bp.Data)
	}
	e, _ := s.Entity(1)
	if e.BasePropertiesValues["name"] != types.String("bob") || e.ClientPropertiesValues["teamId"] != types.Int8(1) {
		t.Errorf("player entity %#v", e)
	}
	e2, err := s.Entity(2)
	if err != nil || e2.Spec.Name != "Avatar" || e2.ClientPropertiesValues["teamId"] != types.Int8(3) {
		t.Errorf("orphan entity %#v %v", e2, err)
	}

	fresh := newTestSession("12.6.0")
	packets = mustParse(t, fresh, frame(0x01, 0, cell))
	if inv, ok := packets[0].(*InvalidPacket); !ok || !utils.IsKind(inv.Err, utils.KindReference) {
		t.Errorf("cell create without player: %#v", packets[0])
	}
}

func TestNestedPropertyUpdate(t *testing.T) {
	s := newTestSession("12.6.0")
	packets := mustParse(t, s, stream(
		entityCreate(),
		// state.b = 99
		nested(false, 0xA8, 99, 0, 0, 0),
		// list[1] = 9
		nested(false, 0xC8, 9, 0),
		// list[1:2] = [7 8]
		nested(true, 0xC6, 7, 0, 8, 0),
		// del list[0:2]
		nested(true, 0xC2),
	))
	if s.Stats.Invalid != 0 {
		t.Fatalf("stats %+v", s.Stats)
	}

	for i, want := range []PropertyNesting{
		{
			Path:   []PathKey{FieldKey("state"), FieldKey("b")},
			Action: SetKey{Key: "b", Value: types.Uint32(99)},
		},
		{
			Path:   []PathKey{FieldKey("list"), IndexKey(1)},
			Action: SetElement{Index: 1, Value: types.Uint16(9)},
		},
		{
			Path:   []PathKey{FieldKey("list")},
			Action: SetRange{Start: 1, Stop: 2, Values: []types.Value{types.Uint16(7), types.Uint16(8)}},
		},
		{
			Path:   []PathKey{FieldKey("list")},
			Action: RemoveRange{Start: 0, Stop: 2},
		},
	} {
		p, ok := packets[i+1].(*NestedPropertyUpdatePacket)
		if !ok {
			t.Fatalf("packet %d is %T", i+1, packets[i+1])
		}
		if !reflect.DeepEqual(p.Nesting, want) {
			t.Errorf("packet %d nesting %#v, want %#v", i+1, p.Nesting, want)
		}
	}

	e, _ := s.Entity(7)
	if v, _ := e.Property("state"); !reflect.DeepEqual(v, types.Dict{"a": types.Uint8(5), "b": types.Uint32(99)}) {
		t.Errorf("state = %#v", v)
	}
	if v, _ := e.Property("list"); !reflect.DeepEqual(v, types.Array{types.Uint16(8)}) {
		t.Errorf("list = %#v", v)
	}
}

func TestNestedKeepsEmittedValues(t *testing.T) {
	s := newTestSession("12.6.0")
	packets := mustParse(t, s, stream(
		entityCreate(),
		nested(false, 0xA8, 99, 0, 0, 0),
		nested(false, 0xC8, 9, 0),
	))
	create, ok := packets[0].(*EntityCreatePacket)
	if !ok {
		t.Fatalf("packet 0 is %T", packets[0])
	}
	if v := create.Values["state"]; !reflect.DeepEqual(v, types.Dict{"a": types.Uint8(5), "b": types.Uint32(10)}) {
		t.Errorf("EntityCreate state=%v; expected unchanged", utils.SDump(v))
	}
	if v := create.Values["list"]; !reflect.DeepEqual(v, types.Array{types.Uint16(3), types.Uint16(4)}) {
		t.Errorf("EntityCreate list=%v; expected unchanged", utils.SDump(v))
	}

	e, _ := s.Entity(7)
	if v, _ := e.Property("list"); !reflect.DeepEqual(v, types.Array{types.Uint16(3), types.Uint16(9)}) {
		t.Errorf("list=%v", utils.SDump(v))
	}
}

func TestNestedErrors(t *testing.T) {
	s := newTestSession("12.6.0")
	packets := mustParse(t, s, stream(
		entityCreate(),
		// slice start 2 > stop 1
		nested(true, 0xC9),
		// first bit must be set
		nested(false, 0x00),
		// element leaf without data
		nested(false, 0xC8),
	))
	for i := 1; i < len(packets); i++ {
		inv, ok := packets[i].(*InvalidPacket)
		if !ok {
			t.Errorf("packet %d: expected invalid, got %T", i, packets[i])
			continue
		}
		if !utils.IsKind(inv.Err, utils.KindStructural) {
			t.Errorf("packet %d: %v", i, inv.Err)
		}
	}
	e, _ := s.Entity(7)
	if v, _ := e.Property("list"); !reflect.DeepEqual(v, types.Array{types.Uint16(3), types.Uint16(4)}) {
		t.Errorf("list changed: %#v", v)
	}
}

func TestApplyNestedAppend(t *testing.T) {
	elem := &types.FixedDictType{Fields: []types.FixedDictField{{Name: "x", Type: types.TypeUint8}}}
	typ := &types.ArrayType{SubType: elem}
	var value types.Value = types.Array{
		types.Dict{"x": types.Uint8(1)},
		types.Dict{"x": types.Uint8(2)},
		types.Dict{"x": types.Uint8(3)},
	}

	n, err := ApplyNested(&value, typ, utils.NewBitReader([]byte{0xE0, 7}), false)
	if err != nil {
		t.Fatal(err)
	}
	want := PropertyNesting{
		Path:   []PathKey{IndexKey(3), FieldKey("x")},
		Action: SetKey{Key: "x", Value: types.Uint8(7)},
	}
	if !reflect.DeepEqual(n, want) {
		t.Errorf("nesting %#v", n)
	}
	arr := value.(types.Array)
	if len(arr) != 4 || !reflect.DeepEqual(arr[3], types.Dict{"x": types.Uint8(7)}) {
		t.Errorf("value %#v", value)
	}
}

func TestCameraExtra(t *testing.T) {
	var cam builder
	for i := 0; i < 15; i++ {
		cam.f32(float32(i))
	}

	s := newTestSession("12.6.0")
	p := mustParse(t, s, frame(0x25, 0, cam))[0].(*CameraPacket)
	if !p.HasExtra || p.Extra != 14 || p.FOV != 7 {
		t.Errorf("new camera %#v", p)
	}

	old := newTestSession("12.5.0")
	p = mustParse(t, old, frame(0x24, 0, cam))[0].(*CameraPacket)
	if p.HasExtra {
		t.Errorf("old camera read extra field")
	}

	var mode builder
	mode.u32(3)
	m := mustParse(t, s, frame(0x27, 0, mode))[0].(*CameraModePacket)
	if m.Mode != 3 || m.HasExtra {
		t.Errorf("camera mode %#v", m)
	}
}

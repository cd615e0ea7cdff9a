package schema

import (
	"sync"
	"testing"
	"testing/fstest"

	"github.com/rs/zerolog"

	"github.com/mogaika/wows_replay_parser/config"
	"github.com/mogaika/wows_replay_parser/types"
	"github.com/mogaika/wows_replay_parser/utils"
)

const aliasXML = `<root>
	<TEAM_ID> INT8 </TEAM_ID>
	<RIBBON> FIXED_DICT
		<Properties>
			<ribbonId><Type>INT8</Type></ribbonId>
			<count><Type>UINT16</Type></count>
		</Properties>
	</RIBBON>
	<RIBBONS> ARRAY <of> RIBBON </of> </RIBBONS>
</root>`

const entitiesXML = `<root>
	<ClientServerEntities>
		<Avatar/>
		<Vehicle/>
	</ClientServerEntities>
</root>`

const avatarDef = `<root>
	<Implements>
		<Interface> HasChat </Interface>
	</Implements>
	<Properties>
		<name><Type>STRING</Type><Flags>ALL_CLIENTS</Flags></name>
		<teamId><Type>TEAM_ID</Type><Flags>CELL_PUBLIC_AND_OWN</Flags></teamId>
		<accountDBID><Type>INT64</Type><Flags>BASE_AND_CLIENT</Flags></accountDBID>
		<secret><Type>UINT32</Type><Flags>CELL_PRIVATE</Flags></secret>
		<weird><Type>UINT8</Type><Flags>SOMETHING_NEW</Flags></weird>
		<other><Type>UINT16</Type><Flags>OTHER_CLIENTS</Flags></other>
	</Properties>
	<ClientMethods>
		<onBattleEnd><Arg>INT8</Arg><Arg>UINT8</Arg></onBattleEnd>
		<receiveDamageStat><Arg>BLOB</Arg></receiveDamageStat>
		<onRibbon><Arg>INT8</Arg></onRibbon>
		<big>
			<Args><a>UINT32</a></Args>
			<VariableLengthHeaderSize><Value>0</Value></VariableLengthHeaderSize>
		</big>
	</ClientMethods>
</root>`

const hasChatDef = `<root>
	<Properties>
		<chatCount><Type>UINT8</Type><Flags>OWN_CLIENT</Flags></chatCount>
	</Properties>
	<ClientMethods>
		<onChatMessage><Arg>INT32</Arg><Arg>STRING</Arg></onChatMessage>
	</ClientMethods>
</root>`

const vehicleDef = `<root>
	<Properties>
		<privateVehicleState><Type>FIXED_DICT<Properties><ribbons><Type>RIBBONS</Type></ribbons></Properties></Type><Flags>OWN_CLIENT</Flags></privateVehicleState>
	</Properties>
</root>`

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"12.5.0/scripts/entities.xml":                       {Data: []byte(entitiesXML)},
		"12.5.0/scripts/entity_defs/alias.xml":              {Data: []byte(aliasXML)},
		"12.5.0/scripts/entity_defs/Avatar.def":             {Data: []byte(avatarDef)},
		"12.5.0/scripts/entity_defs/Vehicle.def":            {Data: []byte(vehicleDef)},
		"12.5.0/scripts/entity_defs/interfaces/HasChat.def": {Data: []byte(hasChatDef)},
	}
}

func names(props []Property) []string {
	out := make([]string, len(props))
	for i, p := range props {
		out[i] = p.Name
	}
	return out
}

func methodNames(methods []Method) []string {
	out := make([]string, len(methods))
	for i, m := range methods {
		out[i] = m.Name
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestLoad(t *testing.T) {
	specs, err := Load(testFS(), "12.5.0/scripts", zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if len(specs) != 2 || specs[0].Name != "Avatar" || specs[0].Type != 1 || specs[1].Name != "Vehicle" || specs[1].Type != 2 {
		t.Fatalf("specs=%v", utils.SDump(specs))
	}
	avatar := specs[0]

	for _, test := range []struct {
		what     string
		got, out []string
	}{
		{"ClientMethods", methodNames(avatar.ClientMethods), []string{"onRibbon", "onBattleEnd", "big", "onChatMessage", "receiveDamageStat"}},
		{"ClientProperties", names(avatar.ClientProperties), []string{"chatCount", "teamId", "other", "accountDBID", "name"}},
		{"ClientPropertiesInternal", names(avatar.ClientPropertiesInternal), []string{"chatCount", "name", "teamId", "other"}},
		{"CellProperties", names(avatar.CellProperties), []string{"teamId"}},
		{"BaseProperties", names(avatar.BaseProperties), []string{"accountDBID"}},
	} {
		if !equalStrings(test.got, test.out) {
			t.Errorf("%s=%v; expected %v", test.what, test.got, test.out)
		}
	}

	if avatar.Properties[5].Flags != FlagUnknown {
		t.Errorf("weird flags=%v; expected unknown", avatar.Properties[5].Flags)
	}
	if m, ok := avatar.ClientMethod(2); !ok || m.SortSize() != 4 {
		t.Errorf("ClientMethod(2)=%v; expected big with sort size 4", m)
	}
	if _, ok := avatar.ClientMethod(5); ok {
		t.Errorf("ClientMethod(5) should be out of range")
	}

	state := specs[1].ClientProperties[0].Type.(*types.FixedDictType)
	ribbons := state.Fields[0].Type.(*types.ArrayType)
	ribbon := ribbons.SubType.(*types.FixedDictType)
	if len(ribbon.Fields) != 2 || ribbon.Fields[1].Type != types.TypeUint16 {
		t.Errorf("ribbon alias=%v", ribbon)
	}
}

func TestLoadNestedInterfaceOrder(t *testing.T) {
	method := func(name string) string {
		return `<ClientMethods><` + name + `><Arg>UINT8</Arg></` + name + `></ClientMethods>`
	}
	fsys := fstest.MapFS{
		"s/entities.xml":          {Data: []byte(`<root><ClientServerEntities><E/></ClientServerEntities></root>`)},
		"s/entity_defs/alias.xml": {Data: []byte(`<root/>`)},
		"s/entity_defs/E.def": {Data: []byte(`<root><Implements><I>A</I><I>C</I></Implements>` +
			method("own") + `</root>`)},
		"s/entity_defs/interfaces/A.def": {Data: []byte(`<root><Implements><I>B</I></Implements>` +
			method("fromA") + `</root>`)},
		"s/entity_defs/interfaces/B.def": {Data: []byte(`<root>` + method("fromB") + `</root>`)},
		"s/entity_defs/interfaces/C.def": {Data: []byte(`<root><Implements><I>B</I></Implements>` +
			method("fromC") + `</root>`)},
	}
	specs, err := Load(fsys, "s", zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	expected := []string{"fromA", "fromB", "fromC", "fromB", "own"}
	if r := methodNames(specs[0].ClientMethods); !equalStrings(r, expected) {
		t.Errorf("ClientMethods=%v; expected %v", r, expected)
	}
}

func TestMethodSortSize(t *testing.T) {
	for _, test := range []struct {
		m   Method
		out int
	}{
		{Method{Args: []types.ArgType{types.TypeInt8, types.TypeUint8}, VariableLengthHeaderSize: 1}, 3},
		{Method{Args: []types.ArgType{types.TypeBlob}, VariableLengthHeaderSize: 1}, types.Infinity + 1},
		{Method{Args: []types.ArgType{types.TypeString, types.TypeString}, VariableLengthHeaderSize: 2}, types.Infinity + 2},
		{Method{VariableLengthHeaderSize: 1}, 1},
	} {
		if r := test.m.SortSize(); r != test.out {
			t.Errorf("SortSize(%v)=%d; expected %d", test.m.Args, r, test.out)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	missing := testFS()
	delete(missing, "12.5.0/scripts/entity_defs/interfaces/HasChat.def")

	cycle := testFS()
	cycle["12.5.0/scripts/entity_defs/interfaces/HasChat.def"] = &fstest.MapFile{Data: []byte(
		`<root><Implements><I>Loop</I></Implements></root>`)}
	cycle["12.5.0/scripts/entity_defs/interfaces/Loop.def"] = &fstest.MapFile{Data: []byte(
		`<root><Implements><I>HasChat</I></Implements></root>`)}

	noFlags := testFS()
	noFlags["12.5.0/scripts/entity_defs/Vehicle.def"] = &fstest.MapFile{Data: []byte(
		`<root><Properties><health><Type>FLOAT</Type></health></Properties></root>`)}

	for name, fsys := range map[string]fstest.MapFS{"missing": missing, "cycle": cycle, "noFlags": noFlags} {
		_, err := Load(fsys, "12.5.0/scripts", zerolog.Nop())
		if !utils.IsKind(err, utils.KindSchema) {
			t.Errorf("%s: expected schema error, got %v", name, err)
		}
	}
}

func TestCache(t *testing.T) {
	c := NewCache(testFS(), zerolog.Nop())
	v := config.MustVersion("12.5.0")

	var wg sync.WaitGroup
	results := make([][]*EntitySpec, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			specs, err := c.Get(v)
			if err != nil {
				t.Error(err)
			}
			results[i] = specs
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		if len(results[i]) == 0 || &results[i][0] != &results[0][0] {
			t.Errorf("Get #%d returned a different schema instance", i)
		}
	}
	if c.Len() != 1 {
		t.Errorf("Len()=%d; expected 1", c.Len())
	}
	if _, err := c.Get(config.MustVersion("0.9.0")); !utils.IsKind(err, utils.KindSchema) {
		t.Errorf("unknown version: expected schema error, got %v", err)
	}
}

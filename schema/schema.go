package schema

import (
	"io/fs"
	"path"
	"sort"

	"github.com/rs/zerolog"

	"github.com/mogaika/wows_replay_parser/types"
	"github.com/mogaika/wows_replay_parser/utils"
)

// EntitySpec is the wire schema of one entity type.
type EntitySpec struct {
	Name string
	// 1-based index from entities.xml
	Type int

	BaseMethods   []Method
	CellMethods   []Method
	ClientMethods []Method

	Properties               []Property
	BaseProperties           []Property
	CellProperties           []Property
	ClientProperties         []Property
	ClientPropertiesInternal []Property
}

const (
	clientFlags   = FlagAllClients | FlagOtherClients | FlagOwnClient | FlagCellPublicAndOwn | FlagBaseAndClient
	internalFlags = clientFlags &^ FlagBaseAndClient
	cellFlags     = FlagCellPublicAndOwn | FlagCellPublic
	baseFlags     = FlagBaseAndClient
)

func (s *EntitySpec) ClientMethod(id int) (*Method, bool) {
	if id < 0 || id >= len(s.ClientMethods) {
		return nil, false
	}
	return &s.ClientMethods[id], true
}

func (s *EntitySpec) ClientProperty(id int) (*Property, bool) {
	if id < 0 || id >= len(s.ClientProperties) {
		return nil, false
	}
	return &s.ClientProperties[id], true
}

func filterProperties(props []Property, mask Flag) []Property {
	var out []Property
	for _, p := range props {
		if p.Flags != FlagUnknown && p.Flags&mask != 0 {
			out = append(out, p)
		}
	}
	return out
}

func newEntitySpec(name string, typ int, def *definition) *EntitySpec {
	spec := &EntitySpec{
		Name:          name,
		Type:          typ,
		BaseMethods:   def.BaseMethods,
		CellMethods:   def.CellMethods,
		ClientMethods: def.ClientMethods,
		Properties:    def.Properties,
	}
	sort.SliceStable(spec.ClientMethods, func(i, j int) bool {
		return spec.ClientMethods[i].SortSize() < spec.ClientMethods[j].SortSize()
	})

	spec.BaseProperties = filterProperties(def.Properties, baseFlags)
	spec.CellProperties = filterProperties(def.Properties, cellFlags)
	spec.ClientPropertiesInternal = filterProperties(def.Properties, internalFlags)
	spec.ClientProperties = filterProperties(def.Properties, clientFlags)
	sort.SliceStable(spec.ClientProperties, func(i, j int) bool {
		return types.TypeSize(spec.ClientProperties[i].Type) < types.TypeSize(spec.ClientProperties[j].Type)
	})
	return spec
}

type loader struct {
	fsys    fs.FS
	root    string
	aliases map[string]types.ArgType
}

// interfaces appends the definitions implemented by def in depth-first
// pre-order: each interface comes before the interfaces it implements.
func (l *loader) interfaces(def *definition, file string, visiting map[string]bool, out []*definition) ([]*definition, error) {
	for _, iface := range def.Implements {
		name := path.Join(l.root, "entity_defs", "interfaces", iface+".def")
		if visiting[name] {
			return nil, utils.NewError(utils.KindSchema, "implements cycle through %q", name)
		}
		sub, err := parseDefinition(l.fsys, name, l.aliases)
		if err != nil {
			return nil, utils.WrapError(utils.KindSchema, err, "interface %q of %q", iface, file)
		}
		out = append(out, sub)

		visiting[name] = true
		out, err = l.interfaces(sub, name, visiting, out)
		delete(visiting, name)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (l *loader) resolve(file string) (*definition, error) {
	def, err := parseDefinition(l.fsys, file, l.aliases)
	if err != nil {
		return nil, err
	}
	defs, err := l.interfaces(def, file, map[string]bool{file: true}, nil)
	if err != nil {
		return nil, err
	}
	return mergeDefinitions(append(defs, def)), nil
}

// Load builds entity specs from the scripts directory root inside fsys.
func Load(fsys fs.FS, root string, log zerolog.Logger) ([]*EntitySpec, error) {
	aliases, unresolved, err := parseAliases(fsys, path.Join(root, "entity_defs", "alias.xml"))
	if err != nil {
		return nil, err
	}
	if len(unresolved) != 0 {
		log.Warn().Strs("aliases", unresolved).Msg("Unresolved alias types")
	}

	entities, err := readXML(fsys, path.Join(root, "entities.xml"))
	if err != nil {
		return nil, err
	}
	list := entities.SelectElement("ClientServerEntities")
	if list == nil {
		return nil, utils.NewError(utils.KindSchema, "entities.xml has no ClientServerEntities")
	}

	l := &loader{fsys: fsys, root: root, aliases: aliases}
	specs := make([]*EntitySpec, 0, len(list.ChildElements()))
	for i, node := range list.ChildElements() {
		def, err := l.resolve(path.Join(root, "entity_defs", node.Tag+".def"))
		if err != nil {
			return nil, utils.WrapError(utils.KindSchema, err, "entity %q", node.Tag)
		}
		specs = append(specs, newEntitySpec(node.Tag, i+1, def))
	}
	log.Debug().Int("entities", len(specs)).Int("aliases", len(aliases)).Str("root", root).Msg("Loaded schema")
	return specs, nil
}

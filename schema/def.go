package schema

import (
	"io/fs"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/mogaika/wows_replay_parser/types"
	"github.com/mogaika/wows_replay_parser/utils"
)

type Flag int

const (
	FlagAllClients       Flag = 1
	FlagCellPublicAndOwn Flag = 2
	FlagOwnClient        Flag = 4
	FlagBaseAndClient    Flag = 8
	FlagBase             Flag = 16
	FlagCellPrivate      Flag = 32
	FlagCellPublic       Flag = 64
	FlagOtherClients     Flag = 128
	FlagUnknown          Flag = 256
)

func ParseFlag(s string) Flag {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ALL_CLIENTS":
		return FlagAllClients
	case "CELL_PUBLIC_AND_OWN":
		return FlagCellPublicAndOwn
	case "OWN_CLIENT":
		return FlagOwnClient
	case "BASE_AND_CLIENT":
		return FlagBaseAndClient
	case "BASE":
		return FlagBase
	case "CELL_PRIVATE":
		return FlagCellPrivate
	case "CELL_PUBLIC":
		return FlagCellPublic
	case "OTHER_CLIENTS":
		return FlagOtherClients
	}
	return FlagUnknown
}

type Method struct {
	Name                     string
	Args                     []types.ArgType
	VariableLengthHeaderSize int
}

// SortSize orders methods the way the server assigns method ids.
func (m *Method) SortSize() int {
	size := 0
	for _, a := range m.Args {
		size += types.TypeSize(a)
	}
	if size >= types.Infinity {
		return types.Infinity + m.VariableLengthHeaderSize
	}
	return size + m.VariableLengthHeaderSize
}

type Property struct {
	Name  string
	Type  types.ArgType
	Flags Flag
}

type definition struct {
	BaseMethods   []Method
	CellMethods   []Method
	ClientMethods []Method
	Properties    []Property
	Implements    []string
}

func readXML(fsys fs.FS, name string) (*etree.Element, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, utils.WrapError(utils.KindSchema, err, "failed to read %q", name)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, utils.WrapError(utils.KindSchema, err, "failed to parse %q", name)
	}
	root := doc.Root()
	if root == nil {
		return nil, utils.NewError(utils.KindSchema, "%q has no root element", name)
	}
	return root, nil
}

func parseMethods(section *etree.Element, aliases map[string]types.ArgType) []Method {
	if section == nil {
		return nil
	}
	methods := make([]Method, 0, len(section.ChildElements()))
	for _, node := range section.ChildElements() {
		m := Method{Name: node.Tag, VariableLengthHeaderSize: 1}
		for _, child := range node.ChildElements() {
			switch child.Tag {
			case "Arg":
				m.Args = append(m.Args, types.ParseType(child, aliases))
			case "Args":
				for _, arg := range child.ChildElements() {
					m.Args = append(m.Args, types.ParseType(arg, aliases))
				}
			case "VariableLengthHeaderSize":
				if size, ok := parseHeaderSize(child); ok {
					m.VariableLengthHeaderSize = size
				}
			}
		}
		methods = append(methods, m)
	}
	return methods
}

func parseHeaderSize(node *etree.Element) (int, bool) {
	text := node.Text()
	if v := node.SelectElement("Value"); v != nil {
		text = v.Text()
	}
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func parseProperties(section *etree.Element, aliases map[string]types.ArgType) ([]Property, error) {
	if section == nil {
		return nil, nil
	}
	props := make([]Property, 0, len(section.ChildElements()))
	for _, node := range section.ChildElements() {
		flags := node.SelectElement("Flags")
		typ := node.SelectElement("Type")
		if flags == nil || typ == nil {
			return nil, utils.NewError(utils.KindSchema, "property %q is missing Flags or Type", node.Tag)
		}
		props = append(props, Property{
			Name:  node.Tag,
			Type:  types.ParseType(typ, aliases),
			Flags: ParseFlag(flags.Text()),
		})
	}
	return props, nil
}

func parseDefinition(fsys fs.FS, name string, aliases map[string]types.ArgType) (*definition, error) {
	root, err := readXML(fsys, name)
	if err != nil {
		return nil, err
	}
	def := &definition{
		BaseMethods:   parseMethods(root.SelectElement("BaseMethods"), aliases),
		CellMethods:   parseMethods(root.SelectElement("CellMethods"), aliases),
		ClientMethods: parseMethods(root.SelectElement("ClientMethods"), aliases),
	}
	if def.Properties, err = parseProperties(root.SelectElement("Properties"), aliases); err != nil {
		return nil, utils.WrapError(utils.KindSchema, err, "in %q", name)
	}
	if impl := root.SelectElement("Implements"); impl != nil {
		for _, i := range impl.ChildElements() {
			if n := strings.TrimSpace(i.Text()); n != "" {
				def.Implements = append(def.Implements, n)
			}
		}
	}
	return def, nil
}

// mergeDefinitions concatenates method and property lists in order.
// Implements of the inputs is not followed.
func mergeDefinitions(defs []*definition) *definition {
	merged := &definition{}
	for _, d := range defs {
		merged.BaseMethods = append(merged.BaseMethods, d.BaseMethods...)
		merged.CellMethods = append(merged.CellMethods, d.CellMethods...)
		merged.ClientMethods = append(merged.ClientMethods, d.ClientMethods...)
		merged.Properties = append(merged.Properties, d.Properties...)
	}
	return merged
}

func parseAliases(fsys fs.FS, name string) (map[string]types.ArgType, []string, error) {
	root, err := readXML(fsys, name)
	if err != nil {
		return nil, nil, err
	}
	aliases := make(map[string]types.ArgType)
	var unresolved []string
	for _, node := range root.ChildElements() {
		t := types.ParseType(node, aliases)
		if _, ok := t.(types.UnknownType); ok {
			unresolved = append(unresolved, node.Tag)
		}
		aliases[node.Tag] = t
	}
	return aliases, unresolved, nil
}

package packet

import (
	"github.com/mogaika/wows_replay_parser/schema"
	"github.com/mogaika/wows_replay_parser/types"
)

// Entity is a live in-replay object. Rows are never removed during a session.
type Entity struct {
	ID                     int32
	Type                   uint16
	Spec                   *schema.EntitySpec
	BasePropertiesValues   types.Dict
	ClientPropertiesValues types.Dict
}

func newEntity(id int32, typ uint16, spec *schema.EntitySpec) *Entity {
	return &Entity{
		ID:                     id,
		Type:                   typ,
		Spec:                   spec,
		BasePropertiesValues:   types.Dict{},
		ClientPropertiesValues: types.Dict{},
	}
}

func (e *Entity) Property(name string) (types.Value, bool) {
	v, ok := e.ClientPropertiesValues[name]
	return v, ok
}

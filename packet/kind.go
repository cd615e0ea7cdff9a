package packet

import (
	"fmt"

	"github.com/mogaika/wows_replay_parser/config"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindInvalid
	KindBasePlayerCreate
	KindCellPlayerCreate
	KindEntityControl
	KindEntityEnter
	KindEntityLeave
	KindEntityCreate
	KindEntityProperty
	KindEntityMethod
	KindPlayerPosition
	KindVersion
	KindPlayerEntity
	KindNestedPropertyUpdate
	KindCamera
	KindCameraMode
	KindMap
	KindPlayerOrientation
	KindCameraFreeLook
	KindCruiseState
	KindResult
)

var kindNames = map[Kind]string{
	KindUnknown:              "Unknown",
	KindInvalid:              "Invalid",
	KindBasePlayerCreate:     "BasePlayerCreate",
	KindCellPlayerCreate:     "CellPlayerCreate",
	KindEntityControl:        "EntityControl",
	KindEntityEnter:          "EntityEnter",
	KindEntityLeave:          "EntityLeave",
	KindEntityCreate:         "EntityCreate",
	KindEntityProperty:       "EntityProperty",
	KindEntityMethod:         "EntityMethod",
	KindPlayerPosition:       "PlayerPosition",
	KindVersion:              "Version",
	KindPlayerEntity:         "PlayerEntity",
	KindNestedPropertyUpdate: "NestedPropertyUpdate",
	KindCamera:               "Camera",
	KindCameraMode:           "CameraMode",
	KindMap:                  "Map",
	KindPlayerOrientation:    "PlayerOrientation",
	KindCameraFreeLook:       "CameraFreeLook",
	KindCruiseState:          "CruiseState",
	KindResult:               "Result",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Raw ids shared by every known client version.
var commonKinds = map[uint32]Kind{
	0x00: KindBasePlayerCreate,
	0x01: KindCellPlayerCreate,
	0x02: KindEntityControl,
	0x03: KindEntityEnter,
	0x04: KindEntityLeave,
	0x05: KindEntityCreate,
	0x07: KindEntityProperty,
	0x08: KindEntityMethod,
	0x0A: KindPlayerPosition,
	0x16: KindVersion,
	0x20: KindPlayerEntity,
}

type kindEra struct {
	// last version (inclusive) using this table, nil for the current era
	upTo  *config.Version
	kinds map[uint32]Kind
}

func versionPtr(s string) *config.Version {
	v := config.MustVersion(s)
	return &v
}

// Eras ordered oldest first.
var kindEras = []kindEra{
	{
		upTo: versionPtr("12.5.0"),
		kinds: map[uint32]Kind{
			0x22: KindNestedPropertyUpdate,
			0x24: KindCamera,
			0x26: KindCameraMode,
			0x27: KindMap,
			0x2B: KindPlayerOrientation,
			0x2E: KindCameraFreeLook,
			0x31: KindCruiseState,
		},
	},
	{
		kinds: map[uint32]Kind{
			0x22: KindResult,
			0x23: KindNestedPropertyUpdate,
			0x25: KindCamera,
			0x27: KindCameraMode,
			0x28: KindMap,
			0x2C: KindPlayerOrientation,
			0x2F: KindCameraFreeLook,
			0x32: KindCruiseState,
		},
	},
}

func eraFor(v config.Version) *kindEra {
	for i := range kindEras {
		if kindEras[i].upTo == nil || v.Compare(*kindEras[i].upTo) <= 0 {
			return &kindEras[i]
		}
	}
	return &kindEras[len(kindEras)-1]
}

// KindOf maps a raw wire id to its logical kind for a client version.
func KindOf(raw uint32, v config.Version) Kind {
	if k, ok := commonKinds[raw]; ok {
		return k
	}
	if k, ok := eraFor(v).kinds[raw]; ok {
		return k
	}
	return KindUnknown
}

// RawID is the inverse of KindOf.
func RawID(k Kind, v config.Version) (uint32, bool) {
	for raw, kk := range commonKinds {
		if kk == k {
			return raw, true
		}
	}
	for raw, kk := range eraFor(v).kinds {
		if kk == k {
			return raw, true
		}
	}
	return 0, false
}

var newCameraLayout = config.MustVersion("12.5.0")

func hasCameraExtra(v config.Version) bool {
	return v.Compare(newCameraLayout) > 0
}

package packet

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/wows_replay_parser/types"
)

// Packet is one decoded frame.
type Packet interface {
	Kind() Kind
	Time() float32
}

type Header struct {
	Clock float32
}

func (h Header) Time() float32 { return h.Clock }

type UnknownPacket struct {
	Header
	RawKind uint32
	Data    []byte
}

// InvalidPacket stands in for a frame that failed to decode. Err keeps
// the typed cause.
type InvalidPacket struct {
	Header
	RawKind  uint32
	Expected Kind
	Message  string
	Err      error
	Data     []byte
}

type BasePlayerCreatePacket struct {
	Header
	EntityID   int32
	EntityType uint16
	Values     types.Dict
	Data       []byte
}

type CellPlayerCreatePacket struct {
	Header
	EntityID  int32
	SpaceID   int32
	VehicleID int32
	Position  mgl32.Vec3
	Rotation  mgl32.Vec3
	Values    types.Dict
}

type EntityControlPacket struct {
	Header
	EntityID     int32
	IsControlled bool
}

type EntityEnterPacket struct {
	Header
	EntityID  int32
	SpaceID   int32
	VehicleID int32
}

type EntityLeavePacket struct {
	Header
	EntityID int32
}

type EntityCreatePacket struct {
	Header
	EntityID   int32
	EntityType uint16
	SpaceID    int32
	VehicleID  int32
	Position   mgl32.Vec3
	Rotation   mgl32.Vec3
	Values     types.Dict
}

type EntityMethodPacket struct {
	Header
	EntityID   int32
	MethodID   int32
	MethodName string
	Values     []types.Value
}

type EntityPropertyPacket struct {
	Header
	EntityID     int32
	PropertyID   int32
	PropertyName string
	Value        types.Value
}

type NestedPropertyUpdatePacket struct {
	Header
	EntityID      int32
	IsSlice       bool
	PropertyIndex int
	PropertyName  string
	Nesting       PropertyNesting
}

type PlayerPositionPacket struct {
	Header
	EntityID      int32
	VehicleID     int32
	Position      mgl32.Vec3
	PositionError mgl32.Vec3
	Rotation      mgl32.Vec3
	IsError       bool
}

type PlayerOrientationPacket struct {
	Header
	PID      uint32
	ParentID uint32
	Position mgl32.Vec3
	Rotation mgl32.Vec3
}

type MapPacket struct {
	Header
	SpaceID  int32
	ArenaID  int64
	Unknown1 uint32
	Unknown2 uint32
	Name     string
	Matrix   mgl32.Mat4
	Unknown3 bool
}

type CameraPacket struct {
	Header
	Unknown          mgl32.Vec3
	UnknownF         float32
	AbsolutePosition mgl32.Vec3
	FOV              float32
	Position         mgl32.Vec3
	Rotation         mgl32.Vec3
	HasExtra         bool
	Extra            float32
}

type CameraModePacket struct {
	Header
	Mode     uint32
	HasExtra bool
	Extra    uint32
}

type VersionPacket struct {
	Header
	Version string
}

type PlayerEntityPacket struct {
	Header
	EntityID int32
}

type CruiseStatePacket struct {
	Header
	Key   uint32
	Value int32
}

type CameraFreeLookPacket struct {
	Header
	Locked bool
}

type ResultPacket struct {
	Header
	Result string
}

func (*UnknownPacket) Kind() Kind              { return KindUnknown }
func (*InvalidPacket) Kind() Kind              { return KindInvalid }
func (*BasePlayerCreatePacket) Kind() Kind     { return KindBasePlayerCreate }
func (*CellPlayerCreatePacket) Kind() Kind     { return KindCellPlayerCreate }
func (*EntityControlPacket) Kind() Kind        { return KindEntityControl }
func (*EntityEnterPacket) Kind() Kind          { return KindEntityEnter }
func (*EntityLeavePacket) Kind() Kind          { return KindEntityLeave }
func (*EntityCreatePacket) Kind() Kind         { return KindEntityCreate }
func (*EntityMethodPacket) Kind() Kind         { return KindEntityMethod }
func (*EntityPropertyPacket) Kind() Kind       { return KindEntityProperty }
func (*NestedPropertyUpdatePacket) Kind() Kind { return KindNestedPropertyUpdate }
func (*PlayerPositionPacket) Kind() Kind       { return KindPlayerPosition }
func (*PlayerOrientationPacket) Kind() Kind    { return KindPlayerOrientation }
func (*MapPacket) Kind() Kind                  { return KindMap }
func (*CameraPacket) Kind() Kind               { return KindCamera }
func (*CameraModePacket) Kind() Kind           { return KindCameraMode }
func (*VersionPacket) Kind() Kind              { return KindVersion }
func (*PlayerEntityPacket) Kind() Kind         { return KindPlayerEntity }
func (*CruiseStatePacket) Kind() Kind          { return KindCruiseState }
func (*CameraFreeLookPacket) Kind() Kind       { return KindCameraFreeLook }
func (*ResultPacket) Kind() Kind               { return KindResult }

// Arg returns the i-th method argument if present.
func (p *EntityMethodPacket) Arg(i int) (types.Value, bool) {
	if i < 0 || i >= len(p.Values) {
		return nil, false
	}
	return p.Values[i], true
}

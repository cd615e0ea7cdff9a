package packet

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/wows_replay_parser/types"
	"github.com/mogaika/wows_replay_parser/utils"
)

func readVec3(r *utils.BufStack) (mgl32.Vec3, error) {
	var v mgl32.Vec3
	err := r.ReadLFs(v[:])
	return v, err
}

// readStrictSize reads the inner u32 size, which must match what is left.
func readStrictSize(r *utils.BufStack) error {
	size, err := r.ReadLU32()
	if err != nil {
		return err
	}
	if int(size) != r.Remaining() {
		return utils.NewError(utils.KindStructural, "invalid payload size: declared %d, %d remaining", size, r.Remaining())
	}
	return nil
}

func (s *Session) decodeBasePlayerCreate(r *utils.BufStack, h Header) (Packet, error) {
	p := &BasePlayerCreatePacket{Header: h, Values: types.Dict{}}
	var err error
	if p.EntityID, err = r.ReadLI32(); err != nil {
		return nil, err
	}
	if p.EntityType, err = r.ReadLU16(); err != nil {
		return nil, err
	}
	spec, err := s.Spec(p.EntityType)
	if err != nil {
		return nil, err
	}
	for _, prop := range spec.BaseProperties {
		v, err := types.ParseValue(r, prop.Type)
		if err != nil {
			return nil, utils.WrapError(utils.KindStructural, err, "base property %q", prop.Name)
		}
		p.Values[prop.Name] = v
	}
	// the rest is the unparsed base state
	p.Data = r.Rest()

	e := newEntity(p.EntityID, p.EntityType, spec)
	for k, v := range p.Values {
		e.BasePropertiesValues[k] = v
	}
	s.Entities[p.EntityID] = e
	s.hasPlayer = true
	s.playerType = p.EntityType
	return p, nil
}

func (s *Session) decodeCellPlayerCreate(r *utils.BufStack, h Header) (Packet, error) {
	p := &CellPlayerCreatePacket{Header: h, Values: types.Dict{}}
	var err error
	if p.EntityID, err = r.ReadLI32(); err != nil {
		return nil, err
	}
	if p.SpaceID, err = r.ReadLI32(); err != nil {
		return nil, err
	}
	if p.VehicleID, err = r.ReadLI32(); err != nil {
		return nil, err
	}
	if p.Position, err = readVec3(r); err != nil {
		return nil, err
	}
	if p.Rotation, err = readVec3(r); err != nil {
		return nil, err
	}
	if err := readStrictSize(r); err != nil {
		return nil, err
	}

	e, ok := s.Entities[p.EntityID]
	if !ok {
		if !s.hasPlayer {
			return nil, utils.NewError(utils.KindReference, "entity %d does not exist and no player was created", p.EntityID)
		}
		spec, err := s.Spec(s.playerType)
		if err != nil {
			return nil, err
		}
		s.log.Warn().Int32("entity", p.EntityID).Msg("CellPlayerCreate created non-existing entity")
		e = newEntity(p.EntityID, s.playerType, spec)
		s.Entities[p.EntityID] = e
	}

	for _, prop := range e.Spec.ClientPropertiesInternal {
		v, err := types.ParseValue(r, prop.Type)
		if err != nil {
			return nil, utils.WrapError(utils.KindStructural, err, "client property %q", prop.Name)
		}
		p.Values[prop.Name] = v
		if _, exists := e.ClientPropertiesValues[prop.Name]; !exists {
			e.ClientPropertiesValues[prop.Name] = v
		}
	}
	// trailing flag of unknown meaning
	_, _ = r.ReadByte()
	return p, nil
}

func (s *Session) decodeEntityControl(r *utils.BufStack, h Header) (Packet, error) {
	p := &EntityControlPacket{Header: h}
	var err error
	if p.EntityID, err = r.ReadLI32(); err != nil {
		return nil, err
	}
	if p.IsControlled, err = r.ReadBool(); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Session) decodeEntityEnter(r *utils.BufStack, h Header) (Packet, error) {
	p := &EntityEnterPacket{Header: h}
	var err error
	if p.EntityID, err = r.ReadLI32(); err != nil {
		return nil, err
	}
	if p.SpaceID, err = r.ReadLI32(); err != nil {
		return nil, err
	}
	if p.VehicleID, err = r.ReadLI32(); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Session) decodeEntityLeave(r *utils.BufStack, h Header) (Packet, error) {
	p := &EntityLeavePacket{Header: h}
	var err error
	if p.EntityID, err = r.ReadLI32(); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Session) decodeEntityCreate(r *utils.BufStack, h Header) (Packet, error) {
	p := &EntityCreatePacket{Header: h, Values: types.Dict{}}
	var err error
	if p.EntityID, err = r.ReadLI32(); err != nil {
		return nil, err
	}
	if p.EntityType, err = r.ReadLU16(); err != nil {
		return nil, err
	}
	if p.SpaceID, err = r.ReadLI32(); err != nil {
		return nil, err
	}
	if p.VehicleID, err = r.ReadLI32(); err != nil {
		return nil, err
	}
	if p.Position, err = readVec3(r); err != nil {
		return nil, err
	}
	if p.Rotation, err = readVec3(r); err != nil {
		return nil, err
	}
	if err := readStrictSize(r); err != nil {
		return nil, err
	}
	count, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	spec, err := s.Spec(p.EntityType)
	if err != nil {
		return nil, err
	}

	e := newEntity(p.EntityID, p.EntityType, spec)
	for i := 0; i < int(count); i++ {
		id, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		prop, ok := spec.ClientProperty(int(id))
		if !ok {
			return nil, utils.NewError(utils.KindReference, "property id %d out of range for %s (%d)", id, spec.Name, len(spec.ClientProperties))
		}
		v, err := types.ParseValue(r, prop.Type)
		if err != nil {
			return nil, utils.WrapError(utils.KindStructural, err, "client property %q", prop.Name)
		}
		p.Values[prop.Name] = v
		e.ClientPropertiesValues[prop.Name] = v
	}
	s.Entities[p.EntityID] = e
	return p, nil
}

func (s *Session) decodeEntityMethod(r *utils.BufStack, h Header) (Packet, error) {
	p := &EntityMethodPacket{Header: h}
	var err error
	if p.EntityID, err = r.ReadLI32(); err != nil {
		return nil, err
	}
	if p.MethodID, err = r.ReadLI32(); err != nil {
		return nil, err
	}
	if err := readStrictSize(r); err != nil {
		return nil, err
	}
	e, err := s.Entity(p.EntityID)
	if err != nil {
		return nil, err
	}
	method, ok := e.Spec.ClientMethod(int(p.MethodID))
	if !ok {
		return nil, utils.NewError(utils.KindReference, "method id %d out of range for %s (%d)", p.MethodID, e.Spec.Name, len(e.Spec.ClientMethods))
	}
	p.MethodName = method.Name
	p.Values = make([]types.Value, 0, len(method.Args))
	for i, arg := range method.Args {
		v, err := types.ParseValue(r, arg)
		if err != nil {
			return nil, utils.WrapError(utils.KindStructural, err, "argument %d of %s", i, method.Name)
		}
		p.Values = append(p.Values, v)
	}
	return p, nil
}

func (s *Session) decodeEntityProperty(r *utils.BufStack, h Header) (Packet, error) {
	p := &EntityPropertyPacket{Header: h}
	var err error
	if p.EntityID, err = r.ReadLI32(); err != nil {
		return nil, err
	}
	if p.PropertyID, err = r.ReadLI32(); err != nil {
		return nil, err
	}
	if err := readStrictSize(r); err != nil {
		return nil, err
	}
	e, err := s.Entity(p.EntityID)
	if err != nil {
		return nil, err
	}
	prop, ok := e.Spec.ClientProperty(int(p.PropertyID))
	if !ok {
		return nil, utils.NewError(utils.KindReference, "property id %d out of range for %s (%d)", p.PropertyID, e.Spec.Name, len(e.Spec.ClientProperties))
	}
	p.PropertyName = prop.Name
	if p.Value, err = types.ParseValue(r, prop.Type); err != nil {
		return nil, utils.WrapError(utils.KindStructural, err, "property %q", prop.Name)
	}
	e.ClientPropertiesValues[prop.Name] = p.Value
	return p, nil
}

func (s *Session) decodeNestedPropertyUpdate(r *utils.BufStack, h Header) (Packet, error) {
	p := &NestedPropertyUpdatePacket{Header: h}
	var err error
	if p.EntityID, err = r.ReadLI32(); err != nil {
		return nil, err
	}
	if p.IsSlice, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if err := readStrictSize(r); err != nil {
		return nil, err
	}
	payload := r.Rest()

	e, err := s.Entity(p.EntityID)
	if err != nil {
		return nil, err
	}

	br := utils.NewBitReader(payload)
	cont, err := br.Get(1)
	if err != nil {
		return nil, err
	}
	if cont != 1 {
		return nil, utils.NewError(utils.KindStructural, "invalid first bit %d in nested update", cont)
	}
	idx, err := br.Get(utils.BitsRequired(len(e.Spec.ClientProperties)))
	if err != nil {
		return nil, err
	}
	prop, ok := e.Spec.ClientProperty(int(idx))
	if !ok {
		return nil, utils.NewError(utils.KindReference, "nested property index %d out of range for %s", idx, e.Spec.Name)
	}
	p.PropertyIndex = int(idx)
	p.PropertyName = prop.Name

	value, ok := e.ClientPropertiesValues[prop.Name]
	if !ok {
		return nil, utils.NewError(utils.KindReference, "entity %d has no value for %q", p.EntityID, prop.Name)
	}
	// earlier packets may still reference the stored value
	value = types.Clone(value)
	nesting, err := ApplyNested(&value, prop.Type, br, p.IsSlice)
	if err != nil {
		return nil, err
	}
	e.ClientPropertiesValues[prop.Name] = value

	nesting.Path = append([]PathKey{FieldKey(prop.Name)}, nesting.Path...)
	p.Nesting = nesting
	return p, nil
}

func (s *Session) decodePlayerPosition(r *utils.BufStack, h Header) (Packet, error) {
	p := &PlayerPositionPacket{Header: h}
	var err error
	if p.EntityID, err = r.ReadLI32(); err != nil {
		return nil, err
	}
	if p.VehicleID, err = r.ReadLI32(); err != nil {
		return nil, err
	}
	if p.Position, err = readVec3(r); err != nil {
		return nil, err
	}
	if p.PositionError, err = readVec3(r); err != nil {
		return nil, err
	}
	if p.Rotation, err = readVec3(r); err != nil {
		return nil, err
	}
	if p.IsError, err = r.ReadBool(); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Session) decodePlayerOrientation(r *utils.BufStack, h Header) (Packet, error) {
	p := &PlayerOrientationPacket{Header: h}
	var err error
	if p.PID, err = r.ReadLU32(); err != nil {
		return nil, err
	}
	if p.ParentID, err = r.ReadLU32(); err != nil {
		return nil, err
	}
	if p.Position, err = readVec3(r); err != nil {
		return nil, err
	}
	if p.Rotation, err = readVec3(r); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Session) decodeMap(r *utils.BufStack, h Header) (Packet, error) {
	p := &MapPacket{Header: h}
	var err error
	if p.SpaceID, err = r.ReadLI32(); err != nil {
		return nil, err
	}
	if p.ArenaID, err = r.ReadLI64(); err != nil {
		return nil, err
	}
	if p.Unknown1, err = r.ReadLU32(); err != nil {
		return nil, err
	}
	if p.Unknown2, err = r.ReadLU32(); err != nil {
		return nil, err
	}
	if err = r.Skip(128); err != nil {
		return nil, err
	}
	if p.Name, err = r.ReadLString(); err != nil {
		return nil, err
	}
	if err = r.ReadLFs(p.Matrix[:]); err != nil {
		return nil, err
	}
	if p.Unknown3, err = r.ReadBool(); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Session) decodeCamera(r *utils.BufStack, h Header) (Packet, error) {
	p := &CameraPacket{Header: h}
	var err error
	if p.Unknown, err = readVec3(r); err != nil {
		return nil, err
	}
	if p.UnknownF, err = r.ReadLF(); err != nil {
		return nil, err
	}
	if p.AbsolutePosition, err = readVec3(r); err != nil {
		return nil, err
	}
	if p.FOV, err = r.ReadLF(); err != nil {
		return nil, err
	}
	if p.Position, err = readVec3(r); err != nil {
		return nil, err
	}
	if p.Rotation, err = readVec3(r); err != nil {
		return nil, err
	}
	if hasCameraExtra(s.Version) && r.Remaining() >= 4 {
		p.Extra, _ = r.ReadLF()
		p.HasExtra = true
	}
	return p, nil
}

func (s *Session) decodeCameraMode(r *utils.BufStack, h Header) (Packet, error) {
	p := &CameraModePacket{Header: h}
	var err error
	if p.Mode, err = r.ReadLU32(); err != nil {
		return nil, err
	}
	if hasCameraExtra(s.Version) && r.Remaining() >= 4 {
		p.Extra, _ = r.ReadLU32()
		p.HasExtra = true
	}
	return p, nil
}

func (s *Session) decodeVersion(r *utils.BufStack, h Header) (Packet, error) {
	p := &VersionPacket{Header: h}
	var err error
	if p.Version, err = r.ReadLString(); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Session) decodePlayerEntity(r *utils.BufStack, h Header) (Packet, error) {
	p := &PlayerEntityPacket{Header: h}
	var err error
	if p.EntityID, err = r.ReadLI32(); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Session) decodeCruiseState(r *utils.BufStack, h Header) (Packet, error) {
	p := &CruiseStatePacket{Header: h}
	var err error
	if p.Key, err = r.ReadLU32(); err != nil {
		return nil, err
	}
	if p.Value, err = r.ReadLI32(); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Session) decodeCameraFreeLook(r *utils.BufStack, h Header) (Packet, error) {
	p := &CameraFreeLookPacket{Header: h}
	var err error
	if p.Locked, err = r.ReadBool(); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Session) decodeResult(r *utils.BufStack, h Header) (Packet, error) {
	p := &ResultPacket{Header: h}
	var err error
	if p.Result, err = r.ReadLString(); err != nil {
		return nil, err
	}
	return p, nil
}

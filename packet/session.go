package packet

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mogaika/wows_replay_parser/config"
	"github.com/mogaika/wows_replay_parser/schema"
	"github.com/mogaika/wows_replay_parser/utils"
)

const frameHeaderSize = 12

type decodeFunc func(s *Session, r *utils.BufStack, h Header) (Packet, error)

var decoders = map[Kind]decodeFunc{
	KindBasePlayerCreate:     (*Session).decodeBasePlayerCreate,
	KindCellPlayerCreate:     (*Session).decodeCellPlayerCreate,
	KindEntityControl:        (*Session).decodeEntityControl,
	KindEntityEnter:          (*Session).decodeEntityEnter,
	KindEntityLeave:          (*Session).decodeEntityLeave,
	KindEntityCreate:         (*Session).decodeEntityCreate,
	KindEntityMethod:         (*Session).decodeEntityMethod,
	KindEntityProperty:       (*Session).decodeEntityProperty,
	KindNestedPropertyUpdate: (*Session).decodeNestedPropertyUpdate,
	KindPlayerPosition:       (*Session).decodePlayerPosition,
	KindPlayerOrientation:    (*Session).decodePlayerOrientation,
	KindMap:                  (*Session).decodeMap,
	KindCamera:               (*Session).decodeCamera,
	KindCameraMode:           (*Session).decodeCameraMode,
	KindVersion:              (*Session).decodeVersion,
	KindPlayerEntity:         (*Session).decodePlayerEntity,
	KindCruiseState:          (*Session).decodeCruiseState,
	KindCameraFreeLook:       (*Session).decodeCameraFreeLook,
	KindResult:               (*Session).decodeResult,
}

type Stats struct {
	Packets int
	Unknown int
	Invalid int
}

// Session holds the decode state of one replay. It is not safe for
// concurrent use.
type Session struct {
	ID       uuid.UUID
	Version  config.Version
	Specs    []*schema.EntitySpec
	Entities map[int32]*Entity
	Stats    Stats

	log       zerolog.Logger
	observers map[Kind][]func(Packet)

	hasPlayer  bool
	playerType uint16
}

func NewSession(specs []*schema.EntitySpec, version config.Version, log zerolog.Logger) *Session {
	id := uuid.New()
	return &Session{
		ID:        id,
		Version:   version,
		Specs:     specs,
		Entities:  make(map[int32]*Entity),
		log:       log.With().Str("session", id.String()).Str("version", version.String()).Logger(),
		observers: make(map[Kind][]func(Packet)),
	}
}

func (s *Session) Logger() zerolog.Logger {
	return s.log
}

// OnPacket registers fn to be called for every decoded packet of kind.
func (s *Session) OnPacket(kind Kind, fn func(Packet)) {
	s.observers[kind] = append(s.observers[kind], fn)
}

func (s *Session) Spec(entityType uint16) (*schema.EntitySpec, error) {
	idx := int(entityType) - 1
	if idx < 0 || idx >= len(s.Specs) {
		return nil, utils.NewError(utils.KindReference, "no entity spec for type %d", entityType)
	}
	return s.Specs[idx], nil
}

func (s *Session) Entity(id int32) (*Entity, error) {
	e, ok := s.Entities[id]
	if !ok {
		return nil, utils.NewError(utils.KindReference, "entity %d does not exist", id)
	}
	return e, nil
}

// FindEntity returns the first entity whose spec is named name.
func (s *Session) FindEntity(name string) (*Entity, bool) {
	for _, e := range s.Entities {
		if e.Spec != nil && e.Spec.Name == name {
			return e, true
		}
	}
	return nil, false
}

// AppendFrame appends one encoded frame to b.
func AppendFrame(b []byte, raw uint32, clock float32, payload []byte) []byte {
	b = binary.LittleEndian.AppendUint32(b, uint32(len(payload)))
	b = binary.LittleEndian.AppendUint32(b, raw)
	b = binary.LittleEndian.AppendUint32(b, math.Float32bits(clock))
	return append(b, payload...)
}

// ParsePacket reads one frame. Only frame level damage is returned as an
// error; payload problems produce an InvalidPacket.
func (s *Session) ParsePacket(r *utils.BufStack) (Packet, error) {
	if r.Remaining() < frameHeaderSize {
		return nil, utils.NewError(utils.KindStructural, "truncated frame header: %d bytes left at 0x%x", r.Remaining(), r.Pos())
	}
	size, _ := r.ReadLU32()
	raw, _ := r.ReadLU32()
	clock, _ := r.ReadLF()

	payload, err := r.SubBuf("payload", int(size))
	if err != nil {
		return nil, err
	}
	payload.SetName(fmt.Sprintf("0x%02x", raw))

	h := Header{Clock: clock}
	kind := KindOf(raw, s.Version)

	var p Packet
	if dec, ok := decoders[kind]; !ok {
		s.Stats.Unknown++
		p = &UnknownPacket{Header: h, RawKind: raw, Data: payload.Raw()}
	} else if p, err = dec(s, payload, h); err != nil {
		s.Stats.Invalid++
		s.log.Warn().Err(err).Stringer("kind", kind).Float32("clock", clock).
			Str("data", utils.FormatBytes(payload.Raw(), 64)).Msg("Invalid packet")
		utils.LogDump(s.log, "Invalid packet payload", payload.Raw())
		p = &InvalidPacket{
			Header:   h,
			RawKind:  raw,
			Expected: kind,
			Message:  err.Error(),
			Err:      err,
			Data:     payload.Raw(),
		}
	} else if left := payload.Remaining(); left > 0 {
		s.log.Warn().Stringer("kind", kind).Float32("clock", clock).Int("leftover", left).
			Msg("Packet had bytes remaining after parsing")
	}

	s.Stats.Packets++
	for _, fn := range s.observers[p.Kind()] {
		fn(p)
	}
	return p, nil
}

// ParsePackets decodes a whole inflated stream. On a frame level error the
// packets decoded so far are returned with the error.
func (s *Session) ParsePackets(data []byte) ([]Packet, error) {
	r := utils.NewBufStack("stream", data)
	packets := make([]Packet, 0, len(data)/64)
	for !r.Empty() {
		p, err := s.ParsePacket(r)
		if err != nil {
			return packets, err
		}
		packets = append(packets, p)
	}
	s.log.Debug().Int("packets", s.Stats.Packets).Int("unknown", s.Stats.Unknown).
		Int("invalid", s.Stats.Invalid).Int("entities", len(s.Entities)).Msg("Decoded packet stream")
	return packets, nil
}

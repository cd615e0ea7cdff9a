package analyzer

import (
	"github.com/rs/zerolog"

	"github.com/mogaika/wows_replay_parser/config"
	"github.com/mogaika/wows_replay_parser/packet"
	"github.com/mogaika/wows_replay_parser/replay"
	"github.com/mogaika/wows_replay_parser/types"
	"github.com/mogaika/wows_replay_parser/utils"
)

type DamageStat struct {
	Type   int64
	Flag   int64
	Hits   int64
	Damage float32
}

const (
	DamageFlagEnemy     = 0
	DamageFlagAlly      = 1
	DamageFlagSpotting  = 2
	DamageFlagPotential = 3
)

type ArenaPlayer struct {
	EntityID int64
	ID       int64
	ShipID   int64
	TeamID   int64
}

// BlobDecoder decodes the serialized sub-blobs some methods carry.
type BlobDecoder interface {
	DamageStats(version string, data []byte) ([]DamageStat, error)
	ArenaPlayers(version string, data []byte) ([]ArenaPlayer, error)
}

var (
	v0_11_4 = config.MustVersion("0.11.4")
	v12_0_0 = config.MustVersion("12.0.0")
	v12_5_0 = config.MustVersion("12.5.0")
)

type state struct {
	r   *replay.Replay
	dec BlobDecoder
	log zerolog.Logger

	playerEntity    int32
	hasPlayerEntity bool
	playerID        int64
	playerShipID    int64
	hasArenaPlayer  bool

	playerTeam  int8
	hasTeam     bool
	winningTeam int8
	hasWinner   bool

	dealt     map[int64]float32
	spotting  map[int64]float32
	potential map[int64]float32
	taken     float32

	ribbons      map[Ribbon]uint32
	achievements map[Achievement]uint32
}

func analysisError(format string, a ...interface{}) error {
	return utils.NewError(utils.KindAnalysis, format, a...)
}

func arg[T types.Value](p *packet.EntityMethodPacket, i int) (T, error) {
	var zero T
	v, ok := p.Arg(i)
	if !ok {
		return zero, analysisError("%s has no argument %d", p.MethodName, i)
	}
	t, ok := v.(T)
	if !ok {
		return zero, analysisError("%s argument %d is %T, expected %T", p.MethodName, i, v, zero)
	}
	return t, nil
}

// Analyze derives the player's battle summary. dec may be nil, in which
// case damage and arena derived values are skipped.
func Analyze(r *replay.Replay, dec BlobDecoder, log zerolog.Logger) (*Summary, error) {
	st := &state{
		r:            r,
		dec:          dec,
		log:          log,
		dealt:        map[int64]float32{},
		spotting:     map[int64]float32{},
		potential:    map[int64]float32{},
		ribbons:      map[Ribbon]uint32{},
		achievements: map[Achievement]uint32{},
	}

	for _, p := range r.Packets {
		var err error
		switch p := p.(type) {
		case *packet.BasePlayerCreatePacket:
			if !st.hasPlayerEntity {
				st.playerEntity = p.EntityID
				st.hasPlayerEntity = true
			}
		case *packet.CellPlayerCreatePacket:
			st.onCellPlayerCreate(p)
		case *packet.EntityMethodPacket:
			err = st.onMethod(p)
		}
		if err != nil {
			return nil, err
		}
	}

	if r.Version.AtLeast(v12_0_0) {
		st.readRibbonsProperty()
	}
	if r.Version.AtLeast(v12_5_0) {
		st.readBattleResult()
	}

	s := &Summary{
		Hash:            utils.Sha256Hex(r.MetaString),
		Outcome:         st.outcome(),
		DamageDealt:     sum(st.dealt),
		DamageTaken:     st.taken,
		DamageSpotting:  sum(st.spotting),
		DamagePotential: sum(st.potential),
		Achievements:    st.achievements,
		Ribbons:         st.ribbons,
	}
	log.Debug().Stringer("outcome", s.Outcome).Float32("damage", s.DamageDealt).
		Int("ribbons", len(s.Ribbons)).Int("achievements", len(s.Achievements)).Msg("Analyzed replay")
	return s, nil
}

func sum(m map[int64]float32) float32 {
	var total float32
	for _, v := range m {
		total += v
	}
	return total
}

func (st *state) outcome() Outcome {
	switch {
	case !st.hasTeam || !st.hasWinner || st.winningTeam == -2:
		return OutcomeUnknown
	case st.playerTeam == st.winningTeam:
		return OutcomeWin
	case st.winningTeam == -1:
		return OutcomeDraw
	}
	return OutcomeLoss
}

func (st *state) onCellPlayerCreate(p *packet.CellPlayerCreatePacket) {
	if st.hasPlayerEntity && p.EntityID != st.playerEntity {
		return
	}
	v, ok := p.Values["teamId"]
	if !ok {
		return
	}
	team, ok := v.(types.Int8)
	if !ok {
		st.log.Warn().Str("type", utils.SDump(v)).Msg("teamId is not an INT8")
		return
	}
	st.playerTeam = int8(team)
	st.hasTeam = true
}

func (st *state) onMethod(p *packet.EntityMethodPacket) error {
	switch p.MethodName {
	case "onArenaStateReceived":
		return st.onArenaState(p)
	case "onBattleEnd":
		if st.r.Version.Less(v12_5_0) {
			team, err := arg[types.Int8](p, 0)
			if err != nil {
				return err
			}
			st.winningTeam = int8(team)
			st.hasWinner = true
		}
	case "receiveDamageStat":
		return st.onDamageStat(p)
	case "receiveDamagesOnShip":
		return st.onDamagesOnShip(p)
	case "onRibbon":
		// a property since 12.0.0
		if st.r.Version.Less(v12_0_0) {
			id, err := arg[types.Int8](p, 0)
			if err != nil {
				return err
			}
			st.ribbons[Ribbon(id)]++
		}
	case "onAchievementEarned":
		return st.onAchievement(p)
	}
	return nil
}

func (st *state) onArenaState(p *packet.EntityMethodPacket) error {
	data, err := arg[types.Blob](p, 3)
	if err != nil {
		return err
	}
	if st.dec == nil {
		return nil
	}
	players, err := st.dec.ArenaPlayers(st.r.Meta.ClientVersionFromExe, data)
	if err != nil {
		return utils.WrapError(utils.KindAnalysis, err, "arena state")
	}
	for _, pl := range players {
		if st.hasPlayerEntity && pl.EntityID == int64(st.playerEntity) {
			st.playerID = pl.ID
			st.playerShipID = pl.ShipID
			st.hasArenaPlayer = true
		}
	}
	if !st.hasArenaPlayer {
		return analysisError("arena state does not include the player entity %d", st.playerEntity)
	}
	return nil
}

func (st *state) onDamageStat(p *packet.EntityMethodPacket) error {
	if len(p.Values) != 1 {
		return analysisError("receiveDamageStat has %d values, expected 1", len(p.Values))
	}
	data, err := arg[types.Blob](p, 0)
	if err != nil {
		return err
	}
	if st.dec == nil {
		return nil
	}
	stats, err := st.dec.DamageStats(st.r.Meta.ClientVersionFromExe, data)
	if err != nil {
		return utils.WrapError(utils.KindAnalysis, err, "damage stat")
	}
	for _, s := range stats {
		switch s.Flag {
		case DamageFlagEnemy:
			st.dealt[s.Type] = s.Damage
		case DamageFlagSpotting:
			st.spotting[s.Type] = s.Damage
		case DamageFlagPotential:
			st.potential[s.Type] = s.Damage
		}
	}
	return nil
}

func (st *state) onDamagesOnShip(p *packet.EntityMethodPacket) error {
	if !st.hasArenaPlayer || int64(p.EntityID) != st.playerShipID {
		return nil
	}
	list, err := arg[types.Array](p, 0)
	if err != nil {
		return err
	}
	for _, elem := range list {
		d, ok := elem.(types.Dict)
		if !ok {
			continue
		}
		// the other field is the attacker vehicleID
		if dmg, ok := d["damage"].(types.Float32); ok {
			st.taken += float32(dmg)
		}
	}
	return nil
}

func (st *state) onAchievement(p *packet.EntityMethodPacket) error {
	id, err := arg[types.Int32](p, 0)
	if err != nil {
		return err
	}
	value, err := arg[types.Uint32](p, 1)
	if err != nil {
		return err
	}

	var mine bool
	if st.r.Version.AtLeast(v0_11_4) {
		mine = st.hasArenaPlayer && int64(id) == st.playerID
	} else {
		mine = st.hasPlayerEntity && int32(id) == st.playerEntity
	}
	if mine {
		st.achievements[Achievement(value)]++
	}
	return nil
}

func (st *state) readRibbonsProperty() {
	if !st.hasPlayerEntity || st.r.Session == nil {
		return
	}
	e, ok := st.r.Session.Entities[st.playerEntity]
	if !ok {
		st.log.Warn().Int32("entity", st.playerEntity).Msg("No entity for the player")
		return
	}
	pvs, ok := e.ClientPropertiesValues["privateVehicleState"].(types.Dict)
	if !ok {
		return
	}
	list, ok := pvs["ribbons"].(types.Array)
	if !ok {
		return
	}
	for _, elem := range list {
		d, ok := elem.(types.Dict)
		if !ok {
			continue
		}
		id, ok1 := d["ribbonId"].(types.Int8)
		count, ok2 := d["count"].(types.Uint16)
		if !ok1 || !ok2 {
			st.log.Warn().Str("ribbon", utils.SDump(d)).Msg("Malformed ribbon entry")
			continue
		}
		if _, exists := st.ribbons[Ribbon(id)]; !exists {
			st.ribbons[Ribbon(id)] = uint32(count)
		}
	}
}

func (st *state) readBattleResult() {
	if st.r.Session == nil {
		return
	}
	logic, ok := st.r.Session.FindEntity("BattleLogic")
	if !ok {
		return
	}
	result, ok := logic.ClientPropertiesValues["battleResult"].(types.Dict)
	if !ok {
		return
	}
	if winner, ok := result["winnerTeamId"].(types.Int8); ok {
		st.winningTeam = int8(winner)
		st.hasWinner = true
	}
}

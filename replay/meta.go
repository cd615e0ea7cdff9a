package replay

import (
	"encoding/json"

	"github.com/mogaika/wows_replay_parser/config"
	"github.com/mogaika/wows_replay_parser/utils"
)

type VehicleMeta struct {
	ShipID   uint64 `json:"shipId"`
	Relation uint32 `json:"relation"`
	ID       uint32 `json:"id"`
	Name     string `json:"name"`
}

// Meta is the JSON header written by the client.
type Meta struct {
	MatchGroup           string              `json:"matchGroup"`
	GameMode             uint32              `json:"gameMode"`
	ClientVersionFromExe string              `json:"clientVersionFromExe"`
	ClientVersionFromXml string              `json:"clientVersionFromXml"`
	ScenarioUiCategoryID uint32              `json:"scenarioUiCategoryId"`
	MapDisplayName       string              `json:"mapDisplayName"`
	MapID                uint32              `json:"mapId"`
	WeatherParams        map[string][]string `json:"weatherParams,omitempty"`
	Duration             uint32              `json:"duration"`
	Name                 string              `json:"name"`
	Scenario             string              `json:"scenario"`
	PlayerID             uint32              `json:"playerID"`
	Vehicles             []VehicleMeta       `json:"vehicles"`
	PlayersPerTeam       uint32              `json:"playersPerTeam"`
	DateTime             string              `json:"dateTime"`
	MapName              string              `json:"mapName"`
	PlayerName           string              `json:"playerName"`
	ScenarioConfigID     uint32              `json:"scenarioConfigId"`
	TeamsCount           uint32              `json:"teamsCount"`
	PlayerVehicle        string              `json:"playerVehicle"`
	BattleDuration       uint32              `json:"battleDuration"`

	Logic     string `json:"logic,omitempty"`
	GameLogic string `json:"gameLogic,omitempty"`
	GameType  string `json:"gameType,omitempty"`
	EventType string `json:"eventType,omitempty"`
}

func ParseMeta(s string) (*Meta, error) {
	var m Meta
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, utils.WrapError(utils.KindStructural, err, "replay meta")
	}
	return &m, nil
}

// Version is the client version taken from clientVersionFromExe.
func (m *Meta) Version() (config.Version, error) {
	v, err := config.ParseExeVersion(m.ClientVersionFromExe)
	if err != nil {
		return config.Version{}, utils.WrapError(utils.KindStructural, err, "meta version")
	}
	return v, nil
}

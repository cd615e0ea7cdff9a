package analyzer

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
)

type Ribbon int8

const (
	RibbonAcousticHit                Ribbon = -99
	RibbonSonarHit                   Ribbon = -98
	RibbonUnknown                    Ribbon = -1
	RibbonArtillery                  Ribbon = 0
	RibbonTorpedoHit                 Ribbon = 1
	RibbonBomb                       Ribbon = 2
	RibbonPlaneShotDown              Ribbon = 3
	RibbonIncapacitation             Ribbon = 4
	RibbonDestroyed                  Ribbon = 5
	RibbonSetFire                    Ribbon = 6
	RibbonFlooding                   Ribbon = 7
	RibbonCitadel                    Ribbon = 8
	RibbonDefended                   Ribbon = 9
	RibbonCaptured                   Ribbon = 10
	RibbonAssistedInCapture          Ribbon = 11
	RibbonSuppressed                 Ribbon = 12
	RibbonSecondaryHit               Ribbon = 13
	RibbonOverPenetration            Ribbon = 14
	RibbonPenetration                Ribbon = 15
	RibbonNonPenetration             Ribbon = 16
	RibbonRicochet                   Ribbon = 17
	RibbonBuildingDestroyed          Ribbon = 18
	RibbonSpotted                    Ribbon = 19
	RibbonDiveBombOverPenetration    Ribbon = 20
	RibbonDiveBombPenetration        Ribbon = 21
	RibbonDiveBombNonPenetration     Ribbon = 22
	RibbonDiveBombRicochet           Ribbon = 23
	RibbonRocket                     Ribbon = 24
	RibbonRocketPenetration          Ribbon = 25
	RibbonRocketNonPenetration       Ribbon = 26
	RibbonShotDownByAircraft         Ribbon = 27
	RibbonTorpedoProtectionHit       Ribbon = 28
	RibbonBombBulge                  Ribbon = 29
	RibbonRocketTorpedoProtectionHit Ribbon = 30
	RibbonDepthChargeHit             Ribbon = 31
	RibbonBuffSeized                 Ribbon = 33
	RibbonSonarOneHit                Ribbon = 39
	RibbonSonarTwoHits               Ribbon = 40
	RibbonSonarNeutralized           Ribbon = 41
)

type ribbonInfo struct {
	name   string
	parent Ribbon
}

var ribbons = map[Ribbon]ribbonInfo{
	RibbonAcousticHit:                {"AcousticHit", RibbonAcousticHit},
	RibbonSonarHit:                   {"SonarHit", RibbonAcousticHit},
	RibbonUnknown:                    {"UnknownRibbon", RibbonUnknown},
	RibbonArtillery:                  {"Artillery", RibbonArtillery},
	RibbonTorpedoHit:                 {"TorpedoHit", RibbonTorpedoHit},
	RibbonBomb:                       {"Bomb", RibbonBomb},
	RibbonPlaneShotDown:              {"PlaneShotDown", RibbonPlaneShotDown},
	RibbonIncapacitation:             {"Incapacitation", RibbonIncapacitation},
	RibbonDestroyed:                  {"Destroyed", RibbonDestroyed},
	RibbonSetFire:                    {"SetFire", RibbonSetFire},
	RibbonFlooding:                   {"Flooding", RibbonFlooding},
	RibbonCitadel:                    {"Citadel", RibbonCitadel},
	RibbonDefended:                   {"Defended", RibbonDefended},
	RibbonCaptured:                   {"Captured", RibbonCaptured},
	RibbonAssistedInCapture:          {"AssistedInCapture", RibbonAssistedInCapture},
	RibbonSuppressed:                 {"Suppressed", RibbonSuppressed},
	RibbonSecondaryHit:               {"SecondaryHit", RibbonSecondaryHit},
	RibbonOverPenetration:            {"OverPenetration", RibbonArtillery},
	RibbonPenetration:                {"Penetration", RibbonArtillery},
	RibbonNonPenetration:             {"NonPenetration", RibbonArtillery},
	RibbonRicochet:                   {"Ricochet", RibbonArtillery},
	RibbonBuildingDestroyed:          {"BuildingDestroyed", RibbonBuildingDestroyed},
	RibbonSpotted:                    {"Spotted", RibbonSpotted},
	RibbonDiveBombOverPenetration:    {"DiveBombOverPenetration", RibbonBomb},
	RibbonDiveBombPenetration:        {"DiveBombPenetration", RibbonBomb},
	RibbonDiveBombNonPenetration:     {"DiveBombNonPenetration", RibbonBomb},
	RibbonDiveBombRicochet:           {"DiveBombRicochet", RibbonBomb},
	RibbonRocket:                     {"Rocket", RibbonRocket},
	RibbonRocketPenetration:          {"RocketPenetration", RibbonRocket},
	RibbonRocketNonPenetration:       {"RocketNonPenetration", RibbonRocket},
	RibbonShotDownByAircraft:         {"ShotDownByAircraft", RibbonShotDownByAircraft},
	RibbonTorpedoProtectionHit:       {"TorpedoProtectionHit", RibbonArtillery},
	RibbonBombBulge:                  {"BombBulge", RibbonBomb},
	RibbonRocketTorpedoProtectionHit: {"RocketTorpedoProtectionHit", RibbonRocket},
	RibbonDepthChargeHit:             {"DepthChargeHit", RibbonDepthChargeHit},
	RibbonBuffSeized:                 {"BuffSeized", RibbonBuffSeized},
	RibbonSonarOneHit:                {"SonarOneHit", RibbonSonarHit},
	RibbonSonarTwoHits:               {"SonarTwoHits", RibbonSonarHit},
	RibbonSonarNeutralized:           {"SonarNeutralized", RibbonSonarHit},
}

func (r Ribbon) String() string {
	if info, ok := ribbons[r]; ok {
		return info.name
	}
	return fmt.Sprintf("Unknown(%d)", int(r))
}

// Parent is the bucket a sub-ribbon is shown under. Unlisted ribbons are
// their own parent.
func (r Ribbon) Parent() Ribbon {
	if info, ok := ribbons[r]; ok {
		return info.parent
	}
	return r
}

type Achievement uint32

var achievements = map[Achievement]string{
	4282573744: "DevastatingStrike",
	4290962352: "HighCaliber",
	4111655856: "AADefenseExpert",
	4283622320: "ItsJustAFleshWound",
	4289913776: "Dreadnought",
	4288865200: "Confederate",
	4269990832: "KrakenUnleashed",
	4277330864: "FirstBlood",
	4273136560: "CloseQuartersExpert",
	4274185136: "Detonation",
	3909280688: "ShoulderToShoulder",
	4276282288: "Fireproof",
	4279428016: "DieHard",
	4292010928: "SoloWarrior",
	4281525168: "Witherer",
	4293059504: "DoubleStrike",
	4287816624: "Arsonist",
	3912426416: "StrikeTeam",
	3911377840: "GeneralOffensive",
	3910329264: "CoordinatedAttack",
	3908232112: "BrothersInArms",
	4042449840: "ClanBrawlTop1000",
	4043498416: "ClanBrawlTop100",
	4044546992: "ClanBrawlTop10",
	4045595568: "ClanBrawlTop1",
	4050838448: "JollyRoger",
	4275233712: "Unsinkable",
	4166181808: "NaturalSelection",
	4168278960: "Ray",
	4192396208: "SeaStar",
	4173521840: "UniversalSeaman",
	4191347632: "WeatherBeaten",
	4190299056: "OldTimer",
	4189250480: "ExperiencedOne",
	4187153328: "ImportantMissions",
	4186104752: "SpecialOrders",
	4185056176: "SecretInstructions",
	4177716144: "Exterminator",
	4176667568: "Raider",
	4175618992: "Ravager",
	4181910448: "Shield",
	4180861872: "Guardian",
	4179813296: "Protector",
	4164084656: "AnInstantBeforeVictory",
	4182959024: "SaveCommanderJenkins",
	4165133232: "CrashTester",
	4104315824: "SharkAmongShrimps",
	4103267248: "InsertCoin",
	4163036080: "MajorContribution",
	4170376112: "Assistant",
	4193444784: "WillToWin",
	4161987504: "TacticalExpertise",
	3879920560: "CombatScout",
}

func (a Achievement) String() string {
	if n, ok := achievements[a]; ok {
		return n
	}
	return fmt.Sprintf("Unknown(%d)", uint32(a))
}

var unknownName = regexp.MustCompile(`^Unknown\((-?\d+)\)$`)

// unknownID extracts n from "Unknown(n)".
func unknownID(s string) (int64, bool) {
	m := unknownName.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	return n, err == nil
}

func (r Ribbon) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Ribbon) UnmarshalText(text []byte) error {
	s := string(text)
	for id, info := range ribbons {
		if info.name == s {
			*r = id
			return nil
		}
	}
	if n, ok := unknownID(s); ok && n >= -128 && n <= 127 {
		*r = Ribbon(n)
		return nil
	}
	return errors.Errorf("Unknown ribbon %q", s)
}

func (a Achievement) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Achievement) UnmarshalText(text []byte) error {
	s := string(text)
	for id, name := range achievements {
		if name == s {
			*a = id
			return nil
		}
	}
	if n, ok := unknownID(s); ok && n >= 0 && n <= 0xFFFFFFFF {
		*a = Achievement(n)
		return nil
	}
	return errors.Errorf("Unknown achievement %q", s)
}

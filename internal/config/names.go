package config

import (
	"strings"
)

// NameTable maps engine codes to human readable names.
type NameTable map[string]string

// Resolve returns the name for code, falling back to the code itself. Config file keys are
// lowercased by viper so tables built by the loader are keyed by lowercase code.
func (n NameTable) Resolve(code string) string {
	if name, found := n[code]; found {
		return name
	}

	if name, found := n[strings.ToLower(code)]; found {
		return name
	}

	return code
}

func mergeNames(defaults NameTable, overrides NameTable) NameTable {
	merged := make(NameTable, len(defaults)+len(overrides))
	for code, name := range defaults {
		merged[strings.ToLower(code)] = name
	}

	for code, name := range overrides {
		merged[strings.ToLower(code)] = name
	}

	return merged
}

var DefaultMapNames = NameTable{ //nolint:gochecknoglobals
	"MP_Abandoned":  "Zavod 311",
	"MP_Damage":     "Lancang Dam",
	"MP_Flooded":    "Flood Zone",
	"MP_Journey":    "Golmud Railway",
	"MP_Naval":      "Paracel Storm",
	"MP_Prison":     "Operation Locker",
	"MP_Resort":     "Hainan Resort",
	"MP_Siege":      "Siege of Shanghai",
	"MP_TheDish":    "Rogue Transmission",
	"MP_Tremors":    "Dawnbreaker",
	"XP1_001":       "Silk Road",
	"XP1_002":       "Altai Range",
	"XP1_003":       "Guilin Peaks",
	"XP1_004":       "Dragon Pass",
	"XP0_Caspian":   "Caspian Border",
	"XP0_Firestorm": "Operation Firestorm",
	"XP0_Metro":     "Operation Metro",
	"XP0_Oman":      "Gulf of Oman",
	"XP2_001":       "Lost Islands",
	"XP2_002":       "Nansha Strike",
	"XP2_003":       "Wave Breaker",
	"XP2_004":       "Operation Mortar",
	"XP3_MarketPl":  "Pearl Market",
	"XP3_Prpganda":  "Propaganda",
	"XP3_UrbanGdn":  "Lumphini Garden",
	"XP3_WtrFront":  "Sunken Dragon",
}

var DefaultModeNames = NameTable{ //nolint:gochecknoglobals
	"AirSuperiority0":      "Air Superiority",
	"CaptureTheFlag0":      "Capture the Flag",
	"CarrierAssaultSmall0": "Carrier Assault",
	"CarrierAssaultLarge0": "Carrier Assault Large",
	"Chainlink0":           "Chain Link",
	"ConquestSmall0":       "Conquest Small",
	"ConquestLarge0":       "Conquest Large",
	"Elimination0":         "Defuse",
	"Domination0":          "Domination",
	"Obliteration":         "Obliteration",
	"RushLarge0":           "Rush",
	"SquadDeathMatch0":     "Squad DM",
	"TeamDeathMatch0":      "Team DM",
}

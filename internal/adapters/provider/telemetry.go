package provider

import (
	"time"

	"github.com/tidwall/gjson"

	"github.com/caliban/dropzone/internal/domain/model"
)

// decodeTelemetry turns the raw telemetry JSON array into the closed event
// union. Events with an unknown `_T` discriminator or an unparseable
// timestamp are skipped; partial telemetry is a valid input, not an error.
func decodeTelemetry(payload []byte) []model.Event {
	var events []model.Event
	gjson.ParseBytes(payload).ForEach(func(_, raw gjson.Result) bool {
		if ev := decodeEvent(raw); ev != nil {
			events = append(events, ev)
		}
		return true
	})
	return events
}

// decodeEvent maps one raw telemetry record onto its union member.
func decodeEvent(raw gjson.Result) model.Event {
	ts, err := time.Parse(time.RFC3339, raw.Get("_D").String())
	if err != nil {
		return nil
	}
	base := model.Base{TS: ts}

	switch model.EventKind(raw.Get("_T").String()) {
	case model.KindMatchStart:
		ev := model.MatchStart{Base: base, MapName: raw.Get("mapName").String()}
		raw.Get("characters").ForEach(func(_, c gjson.Result) bool {
			// LogMatchStart nests each character under a "character" key.
			if nested := c.Get("character"); nested.Exists() {
				c = nested
			}
			ev.Characters = append(ev.Characters, decodeCharacter(c))
			return true
		})
		return ev

	case model.KindMatchEnd:
		ev := model.MatchEnd{Base: base}
		raw.Get("characters").ForEach(func(_, c gjson.Result) bool {
			if nested := c.Get("character"); nested.Exists() {
				c = nested
			}
			ev.Characters = append(ev.Characters, decodeCharacter(c))
			return true
		})
		return ev

	case model.KindPlayerPosition:
		return model.PlayerPosition{
			Base:        base,
			Character:   decodeCharacter(raw.Get("character")),
			ElapsedTime: raw.Get("elapsedTime").Float(),
		}

	case model.KindPlayerKill:
		return model.PlayerKill{
			Base:             base,
			Killer:           decodeOptionalCharacter(raw.Get("killer")),
			Victim:           decodeCharacter(raw.Get("victim")),
			DamageCauserName: raw.Get("damageCauserName").String(),
			Distance:         raw.Get("killerDamageInfo.distance").Float(),
		}

	case model.KindPlayerTakeDamage:
		return model.PlayerTakeDamage{
			Base:               base,
			Attacker:           decodeOptionalCharacter(raw.Get("attacker")),
			Victim:             decodeCharacter(raw.Get("victim")),
			Damage:             raw.Get("damage").Float(),
			DamageTypeCategory: raw.Get("damageTypeCategory").String(),
		}

	case model.KindHeal:
		return model.Heal{
			Base:       base,
			Character:  decodeCharacter(raw.Get("character")),
			HealAmount: raw.Get("healAmount").Float(),
		}

	case model.KindPlayerMakeGroggy:
		return model.PlayerMakeGroggy{
			Base:     base,
			Attacker: decodeOptionalCharacter(raw.Get("attacker")),
			Victim:   decodeCharacter(raw.Get("victim")),
		}

	case model.KindPlayerRevive:
		return model.PlayerRevive{
			Base:    base,
			Reviver: decodeCharacter(raw.Get("reviver")),
			Victim:  decodeCharacter(raw.Get("victim")),
		}

	case model.KindGameStatePeriodic:
		gs := raw.Get("gameState")
		return model.GameStatePeriodic{
			Base:               base,
			ElapsedTime:        gs.Get("elapsedTime").Float(),
			SafetyZonePosition: decodeLocation(gs.Get("safetyZonePosition")),
			SafetyZoneRadius:   gs.Get("safetyZoneRadius").Float(),
		}

	case model.KindCarePackageSpawn:
		return model.CarePackageSpawn{
			Base:     base,
			Location: decodeLocation(raw.Get("itemPackage.location")),
		}

	default:
		return nil
	}
}

func decodeCharacter(raw gjson.Result) model.Character {
	return model.Character{
		Name:      raw.Get("name").String(),
		TeamID:    int(raw.Get("teamId").Int()),
		AccountID: raw.Get("accountId").String(),
		Location:  decodeLocation(raw.Get("location")),
	}
}

// decodeOptionalCharacter returns nil for absent or null actors, e.g. the
// killer of a bluezone death.
func decodeOptionalCharacter(raw gjson.Result) *model.Character {
	if !raw.Exists() || raw.Type == gjson.Null || raw.Get("accountId").String() == "" {
		return nil
	}
	c := decodeCharacter(raw)
	return &c
}

func decodeLocation(raw gjson.Result) model.Location {
	return model.Location{
		X: raw.Get("x").Float(),
		Y: raw.Get("y").Float(),
		Z: raw.Get("z").Float(),
	}
}

package model

import "time"

// EventKind discriminates the telemetry event union. Values match the
// upstream `_T` discriminator.
type EventKind string

// Known event kinds. Events with any other discriminator are ignored
// explicitly during decoding.
const (
	KindMatchStart        EventKind = "LogMatchStart"
	KindMatchEnd          EventKind = "LogMatchEnd"
	KindPlayerPosition    EventKind = "LogPlayerPosition"
	KindPlayerKill        EventKind = "LogPlayerKillV2"
	KindPlayerTakeDamage  EventKind = "LogPlayerTakeDamage"
	KindHeal              EventKind = "LogHeal"
	KindPlayerMakeGroggy  EventKind = "LogPlayerMakeGroggy"
	KindPlayerRevive      EventKind = "LogPlayerRevive"
	KindGameStatePeriodic EventKind = "LogGameStatePeriodic"
	KindCarePackageSpawn  EventKind = "LogCarePackageSpawn"
)

// Location is a point on the map in upstream centimeter coordinates.
type Location struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Character identifies a player as referenced by a telemetry event.
type Character struct {
	Name      string
	TeamID    int
	AccountID string
	Location  Location
}

// Event is the closed telemetry event union. Each concrete event carries a
// timestamp and kind-specific payload.
type Event interface {
	Kind() EventKind
	Time() time.Time
}

// Base carries the fields shared by every telemetry event.
type Base struct {
	TS time.Time
}

// Time returns the event timestamp.
func (b Base) Time() time.Time { return b.TS }

// MatchStart marks the beginning of the match.
type MatchStart struct {
	Base
	MapName    string
	Characters []Character
}

func (MatchStart) Kind() EventKind { return KindMatchStart }

// MatchEnd marks the end of the match.
type MatchEnd struct {
	Base
	Characters []Character
}

func (MatchEnd) Kind() EventKind { return KindMatchEnd }

// PlayerPosition is a periodic position sample for one player.
type PlayerPosition struct {
	Base
	Character   Character
	ElapsedTime float64 // seconds since match start
}

func (PlayerPosition) Kind() EventKind { return KindPlayerPosition }

// PlayerKill records a finishing blow. Killer is nil for environment deaths
// (bluezone, fall damage, redzone).
type PlayerKill struct {
	Base
	Killer           *Character
	Victim           Character
	DamageCauserName string
	Distance         float64
}

func (PlayerKill) Kind() EventKind { return KindPlayerKill }

// PlayerTakeDamage records damage applied to a player. Attacker is nil for
// environment damage.
type PlayerTakeDamage struct {
	Base
	Attacker           *Character
	Victim             Character
	Damage             float64
	DamageTypeCategory string
}

func (PlayerTakeDamage) Kind() EventKind { return KindPlayerTakeDamage }

// Heal records a player healing themselves.
type Heal struct {
	Base
	Character  Character
	HealAmount float64
}

func (Heal) Kind() EventKind { return KindHeal }

// PlayerMakeGroggy records a knockdown.
type PlayerMakeGroggy struct {
	Base
	Attacker *Character
	Victim   Character
}

func (PlayerMakeGroggy) Kind() EventKind { return KindPlayerMakeGroggy }

// PlayerRevive records a revive of a downed teammate.
type PlayerRevive struct {
	Base
	Reviver Character
	Victim  Character
}

func (PlayerRevive) Kind() EventKind { return KindPlayerRevive }

// GameStatePeriodic is the periodic circle/game state snapshot.
type GameStatePeriodic struct {
	Base
	ElapsedTime        float64
	SafetyZonePosition Location
	SafetyZoneRadius   float64
}

func (GameStatePeriodic) Kind() EventKind { return KindGameStatePeriodic }

// CarePackageSpawn records a care package appearing on the map.
type CarePackageSpawn struct {
	Base
	Location Location
}

func (CarePackageSpawn) Kind() EventKind { return KindCarePackageSpawn }

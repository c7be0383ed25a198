// Package player holds the persistent player model shared by every game
// subsystem.
package player

import "time"

// State is the player's current activity. Only an idle player may enter a
// realm, fight a world boss or challenge another player.
type State string

const (
	StateIdle        State = "空闲"
	StateCultivating State = "修炼中"
	StateBusy        State = "忙碌"
)

// String returns the display form of the state.
func (s State) String() string {
	if s == "" {
		return string(StateIdle)
	}
	return string(s)
}

// IsIdle reports whether the state allows new actions.
func (s State) IsIdle() bool {
	return s == StateIdle || s == ""
}

// Default stats for a freshly created player.
const (
	DefaultHP      = 100
	DefaultAttack  = 10
	DefaultDefense = 5
)

// Player is a cultivator's persistent record.
type Player struct {
	UserID     string
	Nickname   string
	LevelIndex int
	Experience int
	Gold       int
	State      State

	HP      int
	MaxHP   int
	Attack  int
	Defense int

	EquippedWeapon    string
	EquippedArmor     string
	EquippedAccessory string
	LearnedSkills     []string
	Buffs             []Buff

	PvPWins   int
	PvPLosses int
	LastPvPAt time.Time

	// Realm session. RealmData holds the encoded realm instance and
	// RealmPendingChoice the encoded prompt awaiting an answer.
	RealmID            string
	RealmFloor         int
	RealmData          string
	RealmPendingChoice string
}

// New creates an idle player with default stats.
func New(userID, nickname string) *Player {
	return &Player{
		UserID:   userID,
		Nickname: nickname,
		State:    StateIdle,
		HP:       DefaultHP,
		MaxHP:    DefaultHP,
		Attack:   DefaultAttack,
		Defense:  DefaultDefense,
	}
}

// Clone returns a deep copy so callers can mutate it without touching p.
func (p *Player) Clone() *Player {
	c := *p
	if p.LearnedSkills != nil {
		c.LearnedSkills = append([]string(nil), p.LearnedSkills...)
	}
	if p.Buffs != nil {
		c.Buffs = append([]Buff(nil), p.Buffs...)
	}
	return &c
}

// DisplayName returns the nickname, or the last four characters of the user
// id when no nickname is set.
func (p *Player) DisplayName() string {
	if p.Nickname != "" {
		return p.Nickname
	}
	id := []rune(p.UserID)
	if len(id) > 4 {
		return string(id[len(id)-4:])
	}
	return p.UserID
}

// InRealm reports whether the player has an active realm session.
func (p *Player) InRealm() bool {
	return p.RealmID != ""
}

// HasPendingChoice reports whether the realm session is waiting on a choice.
func (p *Player) HasPendingChoice() bool {
	return p.RealmPendingChoice != ""
}

// ClearRealm removes every trace of the realm session.
func (p *Player) ClearRealm() {
	p.RealmID = ""
	p.RealmFloor = 0
	p.RealmData = ""
	p.RealmPendingChoice = ""
}

// Heal restores amount hp without exceeding MaxHP and returns the hp gained.
func (p *Player) Heal(amount int) int {
	if amount <= 0 {
		return 0
	}
	before := p.HP
	p.HP += amount
	if p.HP > p.MaxHP {
		p.HP = p.MaxHP
	}
	return p.HP - before
}

// Hurt removes amount hp, never dropping below 1, and returns the hp lost.
func (p *Player) Hurt(amount int) int {
	if amount <= 0 {
		return 0
	}
	before := p.HP
	p.HP -= amount
	if p.HP < 1 {
		p.HP = 1
	}
	return before - p.HP
}

// TakeGold removes up to amount gold and returns how much was taken.
func (p *Player) TakeGold(amount int) int {
	if amount <= 0 {
		return 0
	}
	if amount > p.Gold {
		amount = p.Gold
	}
	p.Gold -= amount
	return amount
}

// PvPWinRate returns the win percentage over all decided PvP fights.
func (p *Player) PvPWinRate() float64 {
	total := p.PvPWins + p.PvPLosses
	if total == 0 {
		return 0
	}
	return float64(p.PvPWins) / float64(total) * 100
}

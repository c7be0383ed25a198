package realm

import (
	"encoding/json"
	"fmt"

	"github.com/lawnchairsociety/realmcore/internal/player"
)

// EventType identifies what happens on a floor.
type EventType string

const (
	EventMonster  EventType = "monster"
	EventTreasure EventType = "treasure"
	EventTrap     EventType = "trap"
	EventChoice   EventType = "choice"
	EventBlessing EventType = "blessing"
	EventMerchant EventType = "merchant"
	EventElite    EventType = "elite"
	EventMystery  EventType = "mystery"
	EventBoss     EventType = "boss"
)

// IsCombat reports whether the event is resolved by a fight.
func (t EventType) IsCombat() bool {
	return t == EventMonster || t == EventElite || t == EventBoss
}

// EffectKind says how an Effect is applied to the player.
type EffectKind string

const (
	EffectHeal EffectKind = "heal"
	EffectBuff EffectKind = "buff"
	EffectItem EffectKind = "item"
)

// Effect is an immediate heal, a timed buff or debuff, or an item grant.
type Effect struct {
	Kind     EffectKind      `json:"kind"`
	Buff     player.BuffType `json:"buff,omitempty"`
	Value    int             `json:"value,omitempty"`
	Duration int             `json:"duration,omitempty"`
	Percent  float64         `json:"percent,omitempty"`
	ItemID   string          `json:"item_id,omitempty"`
}

// Mystery outcomes.
const (
	MysteryHealAndBuff = "heal_and_buff"
	MysteryGoldBonus   = "gold_bonus"
	MysteryDamage      = "damage"
	MysteryDebuff      = "debuff"
)

// Mystery is the pre-rolled result of a mystery floor.
type Mystery struct {
	Outcome string  `json:"outcome"`
	Percent float64 `json:"percent,omitempty"`
	Gold    int     `json:"gold,omitempty"`
	Effect  *Effect `json:"effect,omitempty"`
}

// Choice option kinds.
const (
	OptionCombatIntense = "combat_intense"
	OptionBalanced      = "balanced"
	OptionSafe          = "safe"
	OptionRiskyChest    = "risky_chest"
	OptionSafeChest     = "safe_chest"
	OptionSkip          = "skip"
)

// Choice is one numbered option of a branching event.
type Choice struct {
	ID               int     `json:"id"`
	Text             string  `json:"text"`
	Option           string  `json:"option"`
	TrapChance       float64 `json:"trap_chance,omitempty"`
	RewardMultiplier float64 `json:"reward_multiplier"`
}

// Offering is one item on a merchant's table.
type Offering struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Cost        int    `json:"cost"`
	Effect      Effect `json:"effect"`
}

// EventData holds the pre-rolled payload of a floor. Only the fields of the
// floor's event type are set.
type EventData struct {
	TemplateID       string     `json:"template_id,omitempty"`
	RewardMultiplier float64    `json:"reward_multiplier,omitempty"`
	Gold             int        `json:"gold,omitempty"`
	Name             string     `json:"name,omitempty"`
	DamagePercent    float64    `json:"damage_percent,omitempty"`
	GoldLoss         int        `json:"gold_loss,omitempty"`
	Curse            bool       `json:"curse,omitempty"`
	Effect           *Effect    `json:"effect,omitempty"`
	Offerings        []Offering `json:"offerings,omitempty"`
	Mystery          *Mystery   `json:"mystery,omitempty"`
}

// FloorEvent is a single generated floor.
type FloorEvent struct {
	Type           EventType `json:"type"`
	Description    string    `json:"description"`
	Data           EventData `json:"data"`
	Choices        []Choice  `json:"choices,omitempty"`
	RequiresChoice bool      `json:"requires_choice,omitempty"`
}

// Instance is a generated realm. Its floors are fixed at creation.
type Instance struct {
	ID               string       `json:"id"`
	Type             string       `json:"realm_type"`
	Difficulty       string       `json:"difficulty"`
	LevelIndex       int          `json:"level_index"`
	TotalFloors      int          `json:"total_floors"`
	Floors           []FloorEvent `json:"floors"`
	RewardMultiplier float64      `json:"reward_multiplier"`
}

// Encode serializes the instance for storage on the player record.
func (i *Instance) Encode() (string, error) {
	b, err := json.Marshal(i)
	if err != nil {
		return "", fmt.Errorf("failed to encode realm instance: %w", err)
	}
	return string(b), nil
}

// DecodeInstance parses a stored instance and checks that it is usable.
func DecodeInstance(data string) (*Instance, error) {
	var inst Instance
	if err := json.Unmarshal([]byte(data), &inst); err != nil {
		return nil, fmt.Errorf("failed to decode realm instance: %w", err)
	}
	if inst.ID == "" || inst.TotalFloors <= 0 || len(inst.Floors) != inst.TotalFloors {
		return nil, fmt.Errorf("malformed realm instance %q: %d floors, total %d",
			inst.ID, len(inst.Floors), inst.TotalFloors)
	}
	return &inst, nil
}

// Pending choice kinds.
const (
	KindMerchant = "merchant"
	KindChoice   = "choice"
)

// PendingChoice is a prompt waiting for the player's answer.
type PendingChoice struct {
	Kind      string     `json:"kind"`
	Offerings []Offering `json:"offerings,omitempty"`
	Choices   []Choice   `json:"choices,omitempty"`
}

// Encode serializes the prompt for storage on the player record.
func (p *PendingChoice) Encode() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode pending choice: %w", err)
	}
	return string(b), nil
}

// DecodePending parses a stored prompt.
func DecodePending(data string) (*PendingChoice, error) {
	var p PendingChoice
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("failed to decode pending choice: %w", err)
	}
	switch p.Kind {
	case KindMerchant, KindChoice:
		return &p, nil
	default:
		return nil, fmt.Errorf("unknown pending choice kind %q", p.Kind)
	}
}

// Package realm generates multi-floor realms and runs each player's realm
// session: start, advance floor by floor, answer prompts, or leave.
package realm

import (
	"math/rand"
	"sync"
	"time"

	"github.com/lawnchairsociety/realmcore/internal/config"
	"github.com/lawnchairsociety/realmcore/internal/gameerr"
	"github.com/lawnchairsociety/realmcore/internal/logger"
	"github.com/lawnchairsociety/realmcore/internal/narrative"
	"github.com/lawnchairsociety/realmcore/internal/player"
)

// Status is how a realm operation left the session.
type Status int

const (
	StatusOngoing Status = iota
	StatusAwaitingChoice
	StatusCompleted
	StatusFailed
	StatusLeft
)

func (s Status) String() string {
	switch s {
	case StatusAwaitingChoice:
		return "awaiting_choice"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusLeft:
		return "left"
	default:
		return "ongoing"
	}
}

// Outcome is the result of a realm operation. Player is an updated copy;
// the caller persists it together with Items.
type Outcome struct {
	Status    Status
	Narrative string
	Player    *player.Player
	Items     map[string]int
}

// Engine runs realm sessions. It is safe for concurrent use.
type Engine struct {
	templates Templates
	rules     config.RealmConfig
	gen       *Generator

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// NewEngine creates an engine. A nil rng is replaced by a time-seeded one.
func NewEngine(templates Templates, rules config.RealmConfig, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{
		templates: templates,
		rules:     rules,
		gen:       NewGenerator(templates, rules),
		rng:       rng,
	}
}

// Generator returns the engine's realm generator.
func (e *Engine) Generator() *Generator {
	return e.gen
}

// EntryCost returns the gold needed to enter a realm of difficulty d.
func EntryCost(level int, d Difficulty) int {
	return int(float64(50+25*max(level, 0)) * d.CostMultiplier)
}

// CompletionBonus returns the gold granted for clearing every floor.
func CompletionBonus(level int, rewardMultiplier float64) int {
	return int(float64(200*(1+max(level, 0))) * rewardMultiplier)
}

func refuse(p *player.Player, s Session, err error) (Outcome, error) {
	status := StatusOngoing
	if s.State == StateAwaitingChoice {
		status = StatusAwaitingChoice
	}
	return Outcome{
		Status:    status,
		Narrative: gameerr.Narrative(err),
		Player:    p.Clone(),
		Items:     map[string]int{},
	}, err
}

func requireIdle(p *player.Player) error {
	if p.State.IsIdle() {
		return nil
	}
	return gameerr.Newf(gameerr.CodeInvalidState, "你当前正处于「%s」状态，无法探索秘境。", p.State)
}

// Start opens a new realm of the given type and difficulty. Empty strings
// select the defaults.
func (e *Engine) Start(p *player.Player, realmType, difficulty string) (Outcome, error) {
	s := SessionOf(p)
	if err := s.Check(ActionStart); err != nil {
		return refuse(p, s, err)
	}
	if err := requireIdle(p); err != nil {
		return refuse(p, s, err)
	}

	rt, ok := LookupType(realmType)
	if !ok {
		return refuse(p, s, gameerr.Newf(gameerr.CodeInvalidInput, "世间并无名为「%s」的秘境。", realmType))
	}
	d, ok := LookupDifficulty(difficulty)
	if !ok {
		return refuse(p, s, gameerr.Newf(gameerr.CodeInvalidInput, "秘境难度只有普通、困难、地狱三种，没有「%s」。", difficulty))
	}

	cost := EntryCost(p.LevelIndex, d)
	if p.Gold < cost {
		return refuse(p, s, gameerr.New(gameerr.CodeInsufficientResource,
			narrative.Sprintf("本次历练需要 %d 灵石作为盘缠，你的灵石不足。", cost)))
	}

	e.mu.Lock()
	inst, err := e.gen.Generate(rt, d, p.LevelIndex, e.rng)
	e.mu.Unlock()
	if err != nil {
		logger.Error("Realm generation failed", "user_id", p.UserID, "error", err)
		return refuse(p, s, err)
	}
	data, err := inst.Encode()
	if err != nil {
		return Outcome{}, err
	}

	out := p.Clone()
	out.Gold -= cost
	out.RealmID = inst.ID
	out.RealmFloor = 0
	out.RealmData = data
	out.RealmPendingChoice = ""

	levelName := e.templates.LevelName(p.LevelIndex)
	var b narrative.Builder
	b.Line("你消耗了 %d 灵石，开启了一场与你修为匹配的试炼。", cost)
	b.Line("📜 秘境：【%s·%s修士的%s试炼】", rt.Name, levelName, d.Name)
	b.Line("   类型：%s", rt.Description)
	b.Line("   难度：%s（奖励倍率×%.1f）", d.Name, d.RewardMultiplier)
	b.Line("   楼层：共 %d 层", inst.TotalFloors)
	b.Blank()
	b.Append("继续向前探索吧。")

	logger.Debug("Realm started", "user_id", p.UserID, "realm_id", inst.ID, "floors", inst.TotalFloors, "cost", cost)
	return Outcome{Status: StatusOngoing, Narrative: b.String(), Player: out, Items: map[string]int{}}, nil
}

// Advance moves one floor deeper and resolves that floor's event.
func (e *Engine) Advance(p *player.Player) (Outcome, error) {
	s := SessionOf(p)
	if err := s.Check(ActionAdvance); err != nil {
		return refuse(p, s, err)
	}
	if err := requireIdle(p); err != nil {
		return refuse(p, s, err)
	}

	out := p.Clone()
	inst := s.Instance
	if inst == nil || out.RealmFloor < 0 || out.RealmFloor >= len(inst.Floors) {
		logger.Warning("Discarding unreadable realm session", "user_id", p.UserID, "realm_id", p.RealmID, "floor", p.RealmFloor)
		out.ClearRealm()
		return Outcome{
			Status:    StatusFailed,
			Narrative: "秘境探索数据异常，已将你传送出来。",
			Player:    out,
			Items:     map[string]int{},
		}, nil
	}

	out.RealmFloor++
	ev := inst.Floors[out.RealmFloor-1]

	var b narrative.Builder
	b.Line("--- 第 %d/%d 层 ---", out.RealmFloor, inst.TotalFloors)
	if ev.Description != "" {
		b.Append(ev.Description)
	}

	e.mu.Lock()
	res, err := e.resolveFloor(out, inst, ev, &b)
	e.mu.Unlock()
	if err != nil {
		return refuse(p, s, err)
	}

	items := res.items
	if items == nil {
		items = map[string]int{}
	}

	switch {
	case !res.survived:
		out.ClearRealm()
		b.Append("你被迫退出了秘境，此行所耗盘缠付诸东流。")
		logger.Debug("Realm failed", "user_id", p.UserID, "realm_id", inst.ID, "floor", p.RealmFloor+1)
		return Outcome{Status: StatusFailed, Narrative: b.String(), Player: out, Items: items}, nil

	case out.HasPendingChoice():
		return Outcome{Status: StatusAwaitingChoice, Narrative: b.String(), Player: out, Items: items}, nil

	case out.RealmFloor >= inst.TotalFloors:
		bonus := CompletionBonus(out.LevelIndex, inst.RewardMultiplier)
		out.Gold += bonus
		out.ClearRealm()
		b.Blank()
		b.Line("恭喜！你成功探索完了【%s】的所有区域！", displayName(inst.Type, inst.Difficulty))
		b.Line("获得完成奖励：%d 灵石", bonus)
		logger.Debug("Realm completed", "user_id", p.UserID, "realm_id", inst.ID, "bonus", bonus)
		return Outcome{Status: StatusCompleted, Narrative: b.String(), Player: out, Items: items}, nil

	default:
		return Outcome{Status: StatusOngoing, Narrative: b.String(), Player: out, Items: items}, nil
	}
}

// Choose answers the pending prompt. The floor does not advance.
func (e *Engine) Choose(p *player.Player, choiceID int) (Outcome, error) {
	s := SessionOf(p)
	if err := s.Check(ActionChoose); err != nil {
		return refuse(p, s, err)
	}
	if err := requireIdle(p); err != nil {
		return refuse(p, s, err)
	}

	out := p.Clone()
	if s.Pending == nil {
		out.RealmPendingChoice = ""
		return Outcome{
			Status:    StatusOngoing,
			Narrative: "选择数据异常，已清除。",
			Player:    out,
			Items:     map[string]int{},
		}, nil
	}

	var (
		b     narrative.Builder
		items = map[string]int{}
		err   error
	)
	e.mu.Lock()
	if s.Pending.Kind == KindMerchant {
		err = e.buy(out, s.Pending.Offerings, choiceID, items, &b)
	} else {
		err = e.choose(out, s.Pending.Choices, choiceID, &b)
	}
	e.mu.Unlock()
	if err != nil {
		return refuse(p, s, err)
	}

	out.RealmPendingChoice = ""
	return Outcome{Status: StatusOngoing, Narrative: b.String(), Player: out, Items: items}, nil
}

// Leave abandons the realm with no penalty and no reward. It is allowed in
// any player state.
func (e *Engine) Leave(p *player.Player) (Outcome, error) {
	s := SessionOf(p)
	if err := s.Check(ActionLeave); err != nil {
		return refuse(p, s, err)
	}

	out := p.Clone()
	out.ClearRealm()
	logger.Debug("Realm left", "user_id", p.UserID, "realm_id", p.RealmID, "floor", p.RealmFloor)
	return Outcome{
		Status:    StatusLeft,
		Narrative: narrative.Sprintf("你离开了【%s】，回到了宗门。", s.realmName()),
		Player:    out,
		Items:     map[string]int{},
	}, nil
}

package realm

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/lawnchairsociety/realmcore/internal/config"
	"github.com/lawnchairsociety/realmcore/internal/gamedata"
	"github.com/lawnchairsociety/realmcore/internal/gameerr"
	"github.com/lawnchairsociety/realmcore/internal/player"
)

func testTemplates() *gamedata.Store {
	return gamedata.NewStore(gamedata.Data{
		Monsters: map[string]gamedata.MonsterTemplate{
			"slime": {Name: "青苔怪"},
			"wolf":  {Name: "灰狼"},
		},
		Bosses: map[string]gamedata.BossTemplate{
			"golem": {Name: "石魔"},
		},
		Items: map[string]gamedata.Item{
			"1101": {Name: "回春丹", Type: "丹药", Rank: gamedata.RankCommon, Price: 100},
			"1201": {Name: "长春功", Type: gamedata.TypeManual, Rank: gamedata.RankCommon, Price: 500},
		},
		Levels: []gamedata.Level{{Name: "练气一层"}, {Name: "练气二层"}},
	})
}

func testRules() config.RealmConfig {
	return config.RealmConfig{
		BaseFloors:            8,
		FloorsPerLevelDivisor: 5,
		BossScalingFactor:     1.0,
		EliteRewardMultiplier: 1.5,
	}
}

func testEngine() *Engine {
	return NewEngine(testTemplates(), testRules(), rand.New(rand.NewSource(1)))
}

func strongPlayer() *player.Player {
	p := player.New("user-0001", "青云")
	p.Attack = 2000
	p.Defense = 500
	p.Gold = 1000
	return p
}

// inRealm places p inside a hand-built realm with the given floors.
func inRealm(t *testing.T, p *player.Player, mult float64, floors ...FloorEvent) *player.Player {
	t.Helper()
	inst := &Instance{
		ID:               "trial_normal_test",
		Type:             "trial",
		Difficulty:       "normal",
		TotalFloors:      len(floors),
		Floors:           floors,
		RewardMultiplier: mult,
	}
	data, err := inst.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	p.RealmID = inst.ID
	p.RealmFloor = 0
	p.RealmData = data
	return p
}

func boss() FloorEvent {
	return FloorEvent{Type: EventBoss, Data: EventData{TemplateID: "golem"}}
}

func assertCode(t *testing.T, err error, want gameerr.Code) {
	t.Helper()
	if got := gameerr.GetCode(err); got != want {
		t.Fatalf("error code = %v (%v), want %v", got, err, want)
	}
}

func TestTotalFloors(t *testing.T) {
	g := NewGenerator(testTemplates(), testRules())
	tests := []struct {
		level int
		want  int
	}{
		{0, 8},
		{4, 8},
		{5, 9},
		{12, 10},
	}
	for _, tt := range tests {
		if got := g.TotalFloors(tt.level); got != tt.want {
			t.Errorf("TotalFloors(%d) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestGenerateBossOnlyOnLastFloor(t *testing.T) {
	g := NewGenerator(testTemplates(), testRules())
	d, _ := LookupDifficulty("hard")

	for _, rt := range Types() {
		for seed := int64(0); seed < 40; seed++ {
			level := int(seed % 15)
			inst, err := g.Generate(rt, d, level, rand.New(rand.NewSource(seed)))
			if err != nil {
				t.Fatalf("Generate(%s) error = %v", rt.Key, err)
			}
			if len(inst.Floors) != inst.TotalFloors || inst.TotalFloors != g.TotalFloors(level) {
				t.Fatalf("floors = %d, total = %d", len(inst.Floors), inst.TotalFloors)
			}
			for i, f := range inst.Floors {
				last := i == len(inst.Floors)-1
				if (f.Type == EventBoss) != last {
					t.Fatalf("%s seed %d: floor %d type %s", rt.Key, seed, i+1, f.Type)
				}
			}
			if !strings.HasPrefix(inst.ID, rt.Key+"_hard_") {
				t.Errorf("ID = %q, want prefix %q", inst.ID, rt.Key+"_hard_")
			}
			if inst.RewardMultiplier != 2.0 {
				t.Errorf("RewardMultiplier = %v, want 2.0", inst.RewardMultiplier)
			}
		}
	}
}

func TestGenerateDeterministicFloors(t *testing.T) {
	g := NewGenerator(testTemplates(), testRules())
	rt, _ := LookupType("ruin")
	d, _ := LookupDifficulty("normal")

	a, _ := g.Generate(rt, d, 7, rand.New(rand.NewSource(99)))
	b, _ := g.Generate(rt, d, 7, rand.New(rand.NewSource(99)))
	for i := range a.Floors {
		if a.Floors[i].Type != b.Floors[i].Type || a.Floors[i].Description != b.Floors[i].Description {
			t.Fatalf("floor %d differs: %s vs %s", i+1, a.Floors[i].Type, b.Floors[i].Type)
		}
	}
}

func TestGenerateEmptyPools(t *testing.T) {
	empty := gamedata.NewStore(gamedata.Data{
		Bosses: map[string]gamedata.BossTemplate{"golem": {Name: "石魔"}},
	})
	g := NewGenerator(empty, testRules())
	rt, _ := LookupType("trial")
	d, _ := LookupDifficulty("normal")

	_, err := g.Generate(rt, d, 0, rand.New(rand.NewSource(1)))
	assertCode(t, err, gameerr.CodeGenerationFailure)
}

func TestAdjustedWeightsSumToOne(t *testing.T) {
	for _, rt := range Types() {
		for total := 1; total <= 20; total++ {
			for floor := 1; floor <= total; floor++ {
				w := AdjustedWeights(rt.Weights, floor, total)
				if sum := w.Sum(); sum < 0.999999 || sum > 1.000001 {
					t.Fatalf("%s floor %d/%d: sum = %v", rt.Key, floor, total, sum)
				}
				if len(w) != 8 {
					t.Fatalf("%s: %d event types, want 8", rt.Key, len(w))
				}
			}
		}
	}
}

func TestAdjustedWeightsByProgress(t *testing.T) {
	rt, _ := LookupType("trial")
	weight := func(w Weights, et EventType) float64 {
		for _, e := range w {
			if e.Type == et {
				return e.Weight
			}
		}
		return 0
	}

	early := AdjustedWeights(rt.Weights, 1, 10)
	mid := AdjustedWeights(rt.Weights, 5, 10)
	late := AdjustedWeights(rt.Weights, 8, 10)

	if weight(early, EventTrap) >= weight(mid, EventTrap) {
		t.Error("early floors should have fewer traps")
	}
	if weight(early, EventTreasure) <= weight(mid, EventTreasure) {
		t.Error("early floors should have more treasure")
	}
	if weight(late, EventElite) <= weight(mid, EventElite) {
		t.Error("late floors should have more elites")
	}
	// The base table must not be modified.
	if rt.Weights[0].Weight != 0.35 {
		t.Errorf("base monster weight = %v, want 0.35", rt.Weights[0].Weight)
	}
}

func TestLookup(t *testing.T) {
	if rt, ok := LookupType(""); !ok || rt.Key != "trial" {
		t.Errorf("LookupType(\"\") = %v, %v", rt.Key, ok)
	}
	if rt, ok := LookupType("幽冥鬼域"); !ok || rt.Key != "ghost" {
		t.Errorf("LookupType(幽冥鬼域) = %v, %v", rt.Key, ok)
	}
	if _, ok := LookupType("volcano"); ok {
		t.Error("LookupType(volcano) should fail")
	}
	if d, ok := LookupDifficulty("地狱"); !ok || d.CostMultiplier != 2.0 {
		t.Errorf("LookupDifficulty(地狱) = %+v, %v", d, ok)
	}
	if len(Types()) != 5 || len(Difficulties()) != 3 {
		t.Errorf("Types/Difficulties = %d/%d, want 5/3", len(Types()), len(Difficulties()))
	}
}

func TestEntryCostAndBonus(t *testing.T) {
	hard, _ := LookupDifficulty("hard")
	if got := EntryCost(4, hard); got != 225 {
		t.Errorf("EntryCost(4, hard) = %d, want 225", got)
	}
	if got := CompletionBonus(2, 3.0); got != 1800 {
		t.Errorf("CompletionBonus(2, 3.0) = %d, want 1800", got)
	}
}

func TestTransitionTableIsExhaustive(t *testing.T) {
	actions := []Action{ActionStart, ActionAdvance, ActionChoose, ActionLeave}
	for _, s := range []State{StateNoRealm, StateExploring, StateAwaitingChoice} {
		row, ok := transitions[s]
		if !ok {
			t.Fatalf("no transitions for %s", s)
		}
		for _, a := range actions {
			if _, ok := row[a]; !ok {
				t.Errorf("transition %s/%s is not listed", s, a)
			}
		}
	}

	if !Allowed(StateNoRealm, ActionStart) || Allowed(StateExploring, ActionStart) {
		t.Error("Start is only legal outside a realm")
	}
	if Allowed(StateAwaitingChoice, ActionAdvance) {
		t.Error("Advance must be blocked while a choice is pending")
	}
	if !Allowed(StateAwaitingChoice, ActionLeave) || !Allowed(StateExploring, ActionLeave) {
		t.Error("Leave is legal from any in-realm state")
	}
}

func TestStart(t *testing.T) {
	e := testEngine()
	p := player.New("user-0001", "青云")
	p.Gold = 500
	p.LevelIndex = 1
	p.RealmPendingChoice = ""

	out, err := e.Start(p, "beast", "hard")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// (50 + 25) * 1.5
	if out.Player.Gold != 500-112 {
		t.Errorf("Gold = %d, want %d", out.Player.Gold, 500-112)
	}
	if out.Player.RealmFloor != 0 || !out.Player.InRealm() || out.Player.HasPendingChoice() {
		t.Errorf("session = %+v", out.Player)
	}
	inst, err := DecodeInstance(out.Player.RealmData)
	if err != nil {
		t.Fatalf("DecodeInstance() error = %v", err)
	}
	if inst.ID != out.Player.RealmID || inst.Type != "beast" || inst.Difficulty != "hard" {
		t.Errorf("instance = %s %s %s", inst.ID, inst.Type, inst.Difficulty)
	}
	if !strings.Contains(out.Narrative, "妖兽巢穴·练气二层修士的困难试炼") {
		t.Errorf("Narrative = %q", out.Narrative)
	}
	if p.Gold != 500 || p.InRealm() {
		t.Error("Start must not mutate the caller's player")
	}
}

func TestStartRefusals(t *testing.T) {
	e := testEngine()

	t.Run("insufficient gold", func(t *testing.T) {
		p := player.New("u", "")
		p.Gold = 49
		out, err := e.Start(p, "", "")
		assertCode(t, err, gameerr.CodeInsufficientResource)
		if out.Player.Gold != 49 || out.Player.InRealm() {
			t.Errorf("player changed: %+v", out.Player)
		}
		if out.Narrative == "" {
			t.Error("refusal should carry a narrative")
		}
	})

	t.Run("already in realm", func(t *testing.T) {
		p := inRealm(t, strongPlayer(), 1, boss())
		_, err := e.Start(p, "", "")
		assertCode(t, err, gameerr.CodeInvalidState)
	})

	t.Run("unknown type", func(t *testing.T) {
		p := strongPlayer()
		_, err := e.Start(p, "volcano", "normal")
		assertCode(t, err, gameerr.CodeInvalidInput)
	})

	t.Run("unknown difficulty", func(t *testing.T) {
		p := strongPlayer()
		out, err := e.Start(p, "trial", "nightmare")
		assertCode(t, err, gameerr.CodeInvalidInput)
		if out.Player.Gold != 1000 {
			t.Errorf("Gold = %d, want 1000", out.Player.Gold)
		}
	})

	t.Run("not idle", func(t *testing.T) {
		p := strongPlayer()
		p.State = player.StateCultivating
		_, err := e.Start(p, "", "")
		assertCode(t, err, gameerr.CodeInvalidState)
	})
}

func TestAdvanceRefusals(t *testing.T) {
	e := testEngine()

	_, err := e.Advance(strongPlayer())
	assertCode(t, err, gameerr.CodeNotFound)

	p := inRealm(t, strongPlayer(), 1, FloorEvent{Type: EventTreasure, Data: EventData{Gold: 10}}, boss())
	p.RealmFloor = 0
	p.RealmPendingChoice = `{"kind":"choice","choices":[{"id":1,"text":"x","option":"skip"}]}`
	out, err := e.Advance(p)
	assertCode(t, err, gameerr.CodeInvalidState)
	if out.Player.RealmFloor != 0 {
		t.Errorf("RealmFloor = %d, want unchanged 0", out.Player.RealmFloor)
	}
	if out.Status != StatusAwaitingChoice {
		t.Errorf("Status = %v, want awaiting_choice", out.Status)
	}

	busy := inRealm(t, strongPlayer(), 1, boss())
	busy.State = player.StateBusy
	_, err = e.Advance(busy)
	assertCode(t, err, gameerr.CodeInvalidState)
}

func TestAdvanceCorruptSession(t *testing.T) {
	e := testEngine()
	p := strongPlayer()
	p.RealmID = "trial_normal_x"
	p.RealmData = "{not json"
	p.RealmFloor = 2

	out, err := e.Advance(p)
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if out.Status != StatusFailed || out.Player.InRealm() || out.Player.RealmData != "" {
		t.Errorf("corrupt session not cleared: %v %+v", out.Status, out.Player)
	}

	// Floor index past the end is treated the same way.
	p = inRealm(t, strongPlayer(), 1, boss())
	p.RealmFloor = 1
	out, _ = e.Advance(p)
	if out.Status != StatusFailed || out.Player.InRealm() {
		t.Errorf("out-of-range floor not cleared: %v", out.Status)
	}
}

func TestAdvanceTreasure(t *testing.T) {
	e := testEngine()
	p := inRealm(t, strongPlayer(), 2.0, FloorEvent{Type: EventTreasure, Data: EventData{Gold: 100}}, boss())

	out, err := e.Advance(p)
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if out.Status != StatusOngoing {
		t.Errorf("Status = %v, want ongoing", out.Status)
	}
	if out.Player.Gold != 1200 {
		t.Errorf("Gold = %d, want 1200", out.Player.Gold)
	}
	if out.Player.RealmFloor != 1 {
		t.Errorf("RealmFloor = %d, want 1", out.Player.RealmFloor)
	}
	if !strings.HasPrefix(out.Narrative, "--- 第 1/2 层 ---") {
		t.Errorf("Narrative = %q", out.Narrative)
	}
}

func TestAdvanceTrap(t *testing.T) {
	e := testEngine()
	p := strongPlayer()
	p.Gold = 30
	p = inRealm(t, p, 1, FloorEvent{Type: EventTrap, Data: EventData{Name: "毒雾陷阱", DamagePercent: 0.2, GoldLoss: 100}}, boss())

	out, err := e.Advance(p)
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if out.Player.HP != 80 {
		t.Errorf("HP = %d, want 80", out.Player.HP)
	}
	if out.Player.Gold != 0 {
		t.Errorf("Gold = %d, want 0 (loss capped at balance)", out.Player.Gold)
	}
}

func TestAdvanceBlessingAndCurse(t *testing.T) {
	e := testEngine()
	curse := FloorEvent{Type: EventBlessing, Data: EventData{
		Name:   "虚弱诅咒",
		Curse:  true,
		Effect: &Effect{Kind: EffectBuff, Buff: player.DebuffAttack, Value: 5, Duration: 3},
	}}
	p := inRealm(t, strongPlayer(), 1, curse, boss())

	out, err := e.Advance(p)
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if len(out.Player.Buffs) != 1 || out.Player.Buffs[0].Type != player.DebuffAttack {
		t.Fatalf("Buffs = %+v", out.Player.Buffs)
	}
	if !strings.Contains(out.Narrative, "受到【虚弱诅咒】：攻击力-5，持续3场战斗") {
		t.Errorf("Narrative = %q", out.Narrative)
	}
}

func TestAdvanceMonsterVictoryTicksBuffs(t *testing.T) {
	e := testEngine()
	p := strongPlayer()
	p.AddBuff(player.BuffAttack, 8, 1)
	p = inRealm(t, p, 1, FloorEvent{Type: EventMonster, Data: EventData{TemplateID: "slime"}}, boss())

	out, err := e.Advance(p)
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if out.Status != StatusOngoing {
		t.Fatalf("Status = %v, want ongoing", out.Status)
	}
	// Level 0 monster: gold 10, exp 20.
	if out.Player.Gold != 1010 || out.Player.Experience != 20 {
		t.Errorf("Gold/Exp = %d/%d, want 1010/20", out.Player.Gold, out.Player.Experience)
	}
	if len(out.Player.Buffs) != 0 {
		t.Errorf("Buffs = %+v, want expired", out.Player.Buffs)
	}
}

func TestAdvanceEliteRewards(t *testing.T) {
	e := testEngine()
	p := inRealm(t, strongPlayer(), 2.0,
		FloorEvent{Type: EventElite, Data: EventData{TemplateID: "slime", RewardMultiplier: 1.5}}, boss())

	out, err := e.Advance(p)
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	// 10 * 2.0 * 1.5, 20 * 2.0 * 1.5
	if out.Player.Gold != 1030 || out.Player.Experience != 60 {
		t.Errorf("Gold/Exp = %d/%d, want 1030/60", out.Player.Gold, out.Player.Experience)
	}
}

func TestAdvanceDefeatForfeitsRealm(t *testing.T) {
	e := testEngine()
	p := player.New("user-0002", "紫霞")
	p.HP, p.MaxHP, p.Attack, p.Defense = 10, 10, 1, 0
	p = inRealm(t, p, 1, FloorEvent{Type: EventMonster, Data: EventData{TemplateID: "slime"}}, boss())

	out, err := e.Advance(p)
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if out.Status != StatusFailed {
		t.Errorf("Status = %v, want failed", out.Status)
	}
	if out.Player.InRealm() || out.Player.RealmFloor != 0 {
		t.Error("defeat should clear the session")
	}
	if out.Player.HP != 1 {
		t.Errorf("HP = %d, want 1", out.Player.HP)
	}
	if out.Player.Gold != 0 {
		t.Errorf("Gold = %d, want 0", out.Player.Gold)
	}
}

func TestAdvanceFinalBossCompletes(t *testing.T) {
	e := testEngine()
	p := inRealm(t, strongPlayer(), 1, boss())

	out, err := e.Advance(p)
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if out.Status != StatusCompleted {
		t.Fatalf("Status = %v, want completed", out.Status)
	}
	// Boss gold 1500 plus completion bonus 200.
	if out.Player.Gold != 1000+1500+200 {
		t.Errorf("Gold = %d, want %d", out.Player.Gold, 1000+1500+200)
	}
	if out.Player.InRealm() {
		t.Error("completion should clear the session")
	}
	if !strings.Contains(out.Narrative, "恭喜！你成功探索完了【试炼之地普通试炼】的所有区域！") {
		t.Errorf("Narrative = %q", out.Narrative)
	}
}

func TestAdvanceMissingTemplate(t *testing.T) {
	e := testEngine()
	p := inRealm(t, strongPlayer(), 1, FloorEvent{Type: EventMonster, Data: EventData{TemplateID: "gone"}}, boss())

	out, err := e.Advance(p)
	assertCode(t, err, gameerr.CodeGenerationFailure)
	if out.Player.RealmFloor != 0 {
		t.Errorf("RealmFloor = %d, want 0", out.Player.RealmFloor)
	}
}

func choiceFloor() FloorEvent {
	return choiceTemplatesFloor(0)
}

func choiceTemplatesFloor(i int) FloorEvent {
	t := choiceTemplates[i]
	return FloorEvent{Type: EventChoice, Description: t.desc, Choices: t.choices, RequiresChoice: true}
}

func TestChoiceFlow(t *testing.T) {
	e := testEngine()
	p := inRealm(t, strongPlayer(), 1, choiceFloor(), boss())

	out, err := e.Advance(p)
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if out.Status != StatusAwaitingChoice || !out.Player.HasPendingChoice() {
		t.Fatalf("Status = %v, pending = %q", out.Status, out.Player.RealmPendingChoice)
	}

	// Advancing again is refused and the floor stays put.
	blocked, err := e.Advance(out.Player)
	assertCode(t, err, gameerr.CodeInvalidState)
	if blocked.Player.RealmFloor != 1 {
		t.Errorf("RealmFloor = %d, want 1", blocked.Player.RealmFloor)
	}

	_, err = e.Choose(out.Player, 7)
	assertCode(t, err, gameerr.CodeInvalidInput)

	chosen, err := e.Choose(out.Player, 2)
	if err != nil {
		t.Fatalf("Choose() error = %v", err)
	}
	if chosen.Player.HasPendingChoice() {
		t.Error("Choose should clear the pending choice")
	}
	if chosen.Player.RealmFloor != 1 {
		t.Errorf("RealmFloor = %d, want 1", chosen.Player.RealmFloor)
	}
	if chosen.Narrative != "你选择了平衡的道路，稳步前进。" {
		t.Errorf("Narrative = %q", chosen.Narrative)
	}

	// The session continues to the boss.
	final, err := e.Advance(chosen.Player)
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if final.Status != StatusCompleted {
		t.Errorf("Status = %v, want completed", final.Status)
	}
}

func TestChooseSafePathGrantsGold(t *testing.T) {
	e := testEngine()
	p := strongPlayer()
	p.LevelIndex = 1
	p = inRealm(t, p, 1, choiceFloor(), boss())
	out, _ := e.Advance(p)

	chosen, err := e.Choose(out.Player, 3)
	if err != nil {
		t.Fatalf("Choose() error = %v", err)
	}
	gained := chosen.Player.Gold - out.Player.Gold
	if gained < 100 || gained > 200 {
		t.Errorf("gold gained = %d, want 100..200", gained)
	}
}

func TestChooseChest(t *testing.T) {
	e := testEngine()
	for i := 0; i < 30; i++ {
		p := inRealm(t, strongPlayer(), 1, choiceTemplatesFloor(1), boss())
		out, _ := e.Advance(p)

		chosen, err := e.Choose(out.Player, 1)
		if err != nil {
			t.Fatalf("Choose() error = %v", err)
		}
		trapped := chosen.Player.HP == 75
		gained := chosen.Player.Gold - out.Player.Gold
		if trapped == (gained > 0) {
			t.Fatalf("risky chest should either trap or pay: hp %d, gold +%d", chosen.Player.HP, gained)
		}
		if !trapped && (gained < 300 || gained > 600) {
			t.Fatalf("risky chest paid %d, want 300..600", gained)
		}
	}
}

func TestChooseSafeChestNeverTraps(t *testing.T) {
	e := testEngine()
	for i := 0; i < 30; i++ {
		p := inRealm(t, strongPlayer(), 1, choiceTemplatesFloor(1), boss())
		out, _ := e.Advance(p)

		chosen, err := e.Choose(out.Player, 2)
		if err != nil {
			t.Fatalf("Choose() error = %v", err)
		}
		if chosen.Player.HP != out.Player.HP {
			t.Fatalf("safe chest hurt the player: hp %d -> %d", out.Player.HP, chosen.Player.HP)
		}
		if gained := chosen.Player.Gold - out.Player.Gold; gained < 120 || gained > 240 {
			t.Fatalf("safe chest paid %d, want 120..240", gained)
		}
	}
}

func merchantFloor() FloorEvent {
	return merchantEvent(0, testTemplates().Items(), rand.New(rand.NewSource(1)))
}

func TestMerchant(t *testing.T) {
	e := testEngine()
	floor := merchantFloor()
	if len(floor.Data.Offerings) != 3 {
		t.Fatalf("offerings = %d, want 3 (manuals are never sold)", len(floor.Data.Offerings))
	}
	if floor.Data.Offerings[2].ID != "item_1101" || floor.Data.Offerings[2].Cost != 80 {
		t.Errorf("item offering = %+v", floor.Data.Offerings[2])
	}

	p := strongPlayer()
	p.Gold = 90
	p.HP = 50
	out, err := e.Advance(inRealm(t, p, 1, floor, boss()))
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	awaiting := out.Player

	t.Run("insufficient gold keeps the prompt", func(t *testing.T) {
		res, err := e.Choose(awaiting, 1)
		assertCode(t, err, gameerr.CodeInsufficientResource)
		if !res.Player.HasPendingChoice() || res.Player.Gold != 90 {
			t.Errorf("player changed: gold %d pending %v", res.Player.Gold, res.Player.HasPendingChoice())
		}
	})

	t.Run("out of range", func(t *testing.T) {
		_, err := e.Choose(awaiting, 5)
		assertCode(t, err, gameerr.CodeInvalidInput)
		_, err = e.Choose(awaiting, 0)
		assertCode(t, err, gameerr.CodeInvalidInput)
	})

	t.Run("buy item", func(t *testing.T) {
		res, err := e.Choose(awaiting, 3)
		if err != nil {
			t.Fatalf("Choose() error = %v", err)
		}
		if res.Player.Gold != 10 || res.Items["1101"] != 1 || res.Player.HasPendingChoice() {
			t.Errorf("gold %d items %v pending %v", res.Player.Gold, res.Items, res.Player.HasPendingChoice())
		}
	})

	t.Run("decline", func(t *testing.T) {
		res, err := e.Choose(awaiting, 4)
		if err != nil {
			t.Fatalf("Choose() error = %v", err)
		}
		if res.Player.Gold != 90 || res.Player.HasPendingChoice() {
			t.Errorf("decline changed gold or kept prompt")
		}
	})

	t.Run("buy heal", func(t *testing.T) {
		rich := awaiting.Clone()
		rich.Gold = 500
		res, err := e.Choose(rich, 1)
		if err != nil {
			t.Fatalf("Choose() error = %v", err)
		}
		if res.Player.HP != 80 || res.Player.Gold != 400 {
			t.Errorf("HP/Gold = %d/%d, want 80/400", res.Player.HP, res.Player.Gold)
		}
	})
}

func TestChooseRefusals(t *testing.T) {
	e := testEngine()

	_, err := e.Choose(strongPlayer(), 1)
	assertCode(t, err, gameerr.CodeNotFound)

	_, err = e.Choose(inRealm(t, strongPlayer(), 1, boss()), 1)
	assertCode(t, err, gameerr.CodeInvalidState)

	busy := inRealm(t, strongPlayer(), 1, choiceFloor(), boss())
	busy.RealmFloor = 1
	busy.RealmPendingChoice = `{"kind":"choice","choices":[{"id":1,"text":"x","option":"safe"}]}`
	busy.State = player.StateCultivating
	res, err := e.Choose(busy, 1)
	assertCode(t, err, gameerr.CodeInvalidState)
	if !res.Player.HasPendingChoice() || res.Player.Gold != busy.Gold {
		t.Errorf("busy player's prompt was resolved: gold %d pending %v", res.Player.Gold, res.Player.HasPendingChoice())
	}

	p := inRealm(t, strongPlayer(), 1, boss())
	p.RealmPendingChoice = "garbage"
	out, err := e.Choose(p, 1)
	if err != nil {
		t.Fatalf("Choose() error = %v", err)
	}
	if out.Player.HasPendingChoice() {
		t.Error("unreadable prompt should be cleared")
	}
}

func TestLeave(t *testing.T) {
	e := testEngine()

	_, err := e.Leave(strongPlayer())
	assertCode(t, err, gameerr.CodeNotFound)

	p := inRealm(t, strongPlayer(), 1, choiceFloor(), boss())
	p.RealmFloor = 1
	p.RealmPendingChoice = `{"kind":"choice"}`
	out, err := e.Leave(p)
	if err != nil {
		t.Fatalf("Leave() error = %v", err)
	}
	if out.Status != StatusLeft {
		t.Errorf("Status = %v, want left", out.Status)
	}
	got := out.Player
	if got.RealmID != "" || got.RealmFloor != 0 || got.RealmData != "" || got.RealmPendingChoice != "" {
		t.Errorf("realm fields not cleared: %+v", got)
	}
	if got.Gold != p.Gold {
		t.Errorf("Gold = %d, want %d", got.Gold, p.Gold)
	}

	busy := inRealm(t, strongPlayer(), 1, boss())
	busy.State = player.StateCultivating
	if out, err := e.Leave(busy); err != nil || out.Player.InRealm() {
		t.Errorf("Leave() while cultivating: err = %v, in realm = %v", err, out.Player.InRealm())
	}
}

func TestDecodeInstanceRejectsMalformed(t *testing.T) {
	for _, data := range []string{
		"",
		"[]",
		`{"id":"x","total_floors":2,"floors":[{"type":"boss"}]}`,
		`{"id":"","total_floors":1,"floors":[{"type":"boss"}]}`,
	} {
		if _, err := DecodeInstance(data); err == nil {
			t.Errorf("DecodeInstance(%q) should fail", data)
		}
	}
	if _, err := DecodePending(`{"kind":"riddle"}`); err == nil {
		t.Error("DecodePending should reject unknown kinds")
	}
}

// A strong, rested player walking every realm type to the end never hits an
// error and always finishes within the floor count.
func TestPlaythrough(t *testing.T) {
	e := NewEngine(testTemplates(), testRules(), rand.New(rand.NewSource(2024)))

	for _, rt := range Types() {
		p := strongPlayer()
		p.Gold = 100000
		p.LevelIndex = 6

		out, err := e.Start(p, rt.Key, "hell")
		if err != nil {
			t.Fatalf("Start(%s) error = %v", rt.Key, err)
		}
		total := e.Generator().TotalFloors(6)
		p = out.Player

		for steps := 0; ; steps++ {
			if steps > 2*total {
				t.Fatalf("%s: session did not finish", rt.Key)
			}
			if p.HasPendingChoice() {
				out, err = e.Choose(p, 1)
			} else {
				out, err = e.Advance(p)
			}
			if err != nil {
				t.Fatalf("%s step %d: error = %v", rt.Key, steps, err)
			}
			p = out.Player
			p.HP = p.MaxHP // rest between floors
			if out.Status == StatusCompleted {
				break
			}
			if out.Status == StatusFailed {
				t.Fatalf("%s: strong player failed: %s", rt.Key, out.Narrative)
			}
		}
	}
}

package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lawnchairsociety/realmcore/internal/player"
)

var testTables = []string{
	"boss_kills", "boss_attacks", "world_boss_participants",
	"active_world_bosses", "inventory", "players",
}

// getPostgresTestConfig returns a config when REALM_TEST_POSTGRES is set.
func getPostgresTestConfig() *Config {
	if os.Getenv("REALM_TEST_POSTGRES") == "" {
		return nil
	}

	env := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return def
	}

	port := 5432
	fmt.Sscanf(env("REALM_TEST_POSTGRES_PORT", "5432"), "%d", &port)

	return &Config{
		Driver: "postgres",
		Postgres: PostgresConfig{
			Host:            env("REALM_TEST_POSTGRES_HOST", "localhost"),
			Port:            port,
			User:            env("REALM_TEST_POSTGRES_USER", "realmcore"),
			Password:        env("REALM_TEST_POSTGRES_PASSWORD", "realmcore"),
			Database:        env("REALM_TEST_POSTGRES_DATABASE", "realmcore_test"),
			SSLMode:         "disable",
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Minute,
		},
	}
}

func truncateAll(db *Database) {
	for _, table := range testTables {
		db.db.Exec(fmt.Sprintf("DELETE FROM %s", table))
	}
}

// getDualTestDatabases returns a SQLite database and, when configured, a
// PostgreSQL one.
func getDualTestDatabases(t *testing.T) map[string]*Database {
	t.Helper()
	dbs := make(map[string]*Database)

	sqliteDB, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open SQLite database: %v", err)
	}
	dbs["sqlite"] = sqliteDB

	if pgConfig := getPostgresTestConfig(); pgConfig != nil {
		pgDB, err := OpenWithConfig(*pgConfig)
		if err != nil {
			t.Logf("PostgreSQL not available: %v", err)
		} else {
			truncateAll(pgDB)
			dbs["postgres"] = pgDB
		}
	}

	t.Cleanup(func() {
		for name, db := range dbs {
			if name == "postgres" {
				truncateAll(db)
			}
			db.Close()
		}
	})
	return dbs
}

func mustCreatePlayer(t *testing.T, db *Database, id string, level int) *player.Player {
	t.Helper()
	p := player.New(id, "道友"+id)
	p.LevelIndex = level
	if err := db.CreatePlayer(context.Background(), p); err != nil {
		t.Fatalf("CreatePlayer(%s) error = %v", id, err)
	}
	return p
}

func spawnTestBoss(t *testing.T, db *Database, id string, hp int) {
	t.Helper()
	created, err := db.CreateActiveBoss(context.Background(), ActiveBoss{
		BossID:     id,
		CurrentHP:  hp,
		MaxHP:      hp,
		LevelIndex: 3,
		SpawnedAt:  time.Now(),
	})
	if err != nil || !created {
		t.Fatalf("CreateActiveBoss(%s) = %v, %v", id, created, err)
	}
}

func TestDual_PlayerRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, db := range getDualTestDatabases(t) {
		t.Run(name, func(t *testing.T) {
			p := mustCreatePlayer(t, db, "u1001", 2)

			p.Gold = 1500
			p.Experience = 9000
			p.LearnedSkills = []string{"剑诀"}
			p.AddBuff(player.BuffAttack, 20, 3)
			p.RealmID = "trial_normal_x"
			p.RealmFloor = 4
			p.RealmData = `{"id":"trial_normal_x"}`
			p.LastPvPAt = time.Unix(1700000000, 0)
			if err := db.UpdatePlayer(ctx, p); err != nil {
				t.Fatalf("UpdatePlayer() error = %v", err)
			}

			got, err := db.GetPlayer(ctx, "u1001")
			if err != nil {
				t.Fatalf("GetPlayer() error = %v", err)
			}
			if got.Gold != 1500 || got.Experience != 9000 || got.LevelIndex != 2 {
				t.Errorf("progress = %d/%d/%d", got.Gold, got.Experience, got.LevelIndex)
			}
			if len(got.Buffs) != 1 || got.Buffs[0].Value != 20 || got.Buffs[0].Duration != 3 {
				t.Errorf("Buffs = %+v", got.Buffs)
			}
			if len(got.LearnedSkills) != 1 || got.LearnedSkills[0] != "剑诀" {
				t.Errorf("LearnedSkills = %v", got.LearnedSkills)
			}
			if got.RealmFloor != 4 || got.RealmData != p.RealmData {
				t.Errorf("realm session = %d %q", got.RealmFloor, got.RealmData)
			}
			if !got.LastPvPAt.Equal(p.LastPvPAt) {
				t.Errorf("LastPvPAt = %v, want %v", got.LastPvPAt, p.LastPvPAt)
			}
		})
	}
}

func TestDual_PlayerErrors(t *testing.T) {
	ctx := context.Background()
	for name, db := range getDualTestDatabases(t) {
		t.Run(name, func(t *testing.T) {
			mustCreatePlayer(t, db, "dup", 0)
			if err := db.CreatePlayer(ctx, player.New("dup", "")); !errors.Is(err, ErrPlayerExists) {
				t.Errorf("duplicate CreatePlayer() error = %v, want ErrPlayerExists", err)
			}
			if _, err := db.GetPlayer(ctx, "ghost"); !errors.Is(err, ErrPlayerNotFound) {
				t.Errorf("GetPlayer(ghost) error = %v, want ErrPlayerNotFound", err)
			}
			if err := db.UpdatePlayer(ctx, player.New("ghost", "")); !errors.Is(err, ErrPlayerNotFound) {
				t.Errorf("UpdatePlayer(ghost) error = %v, want ErrPlayerNotFound", err)
			}
		})
	}
}

func TestDual_UpdatePlayerBuffsLeavesGold(t *testing.T) {
	ctx := context.Background()
	for name, db := range getDualTestDatabases(t) {
		t.Run(name, func(t *testing.T) {
			p := mustCreatePlayer(t, db, "buffed", 0)
			p.Gold = 300
			if err := db.UpdatePlayer(ctx, p); err != nil {
				t.Fatalf("UpdatePlayer() error = %v", err)
			}

			buffs := []player.Buff{{Type: player.BuffAttack, Value: 5, Duration: 1}}
			if err := db.UpdatePlayerBuffs(ctx, "buffed", buffs); err != nil {
				t.Fatalf("UpdatePlayerBuffs() error = %v", err)
			}
			got, err := db.GetPlayer(ctx, "buffed")
			if err != nil {
				t.Fatalf("GetPlayer() error = %v", err)
			}
			if got.Gold != 300 {
				t.Errorf("Gold = %d, want 300", got.Gold)
			}
			if len(got.Buffs) != 1 || got.Buffs[0] != buffs[0] {
				t.Errorf("Buffs = %+v, want %+v", got.Buffs, buffs)
			}

			if err := db.UpdatePlayerBuffs(ctx, "ghost", nil); !errors.Is(err, ErrPlayerNotFound) {
				t.Errorf("UpdatePlayerBuffs(ghost) error = %v, want ErrPlayerNotFound", err)
			}
		})
	}
}

func TestDual_UpdatePlayersInTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	for name, db := range getDualTestDatabases(t) {
		t.Run(name, func(t *testing.T) {
			a := mustCreatePlayer(t, db, "a", 0)
			a.Gold = 999

			err := db.UpdatePlayersInTransaction(ctx, a, player.New("missing", ""))
			if !errors.Is(err, ErrPlayerNotFound) {
				t.Fatalf("error = %v, want ErrPlayerNotFound", err)
			}
			got, _ := db.GetPlayer(ctx, "a")
			if got.Gold != 0 {
				t.Errorf("Gold = %d, want 0 after rollback", got.Gold)
			}
		})
	}
}

func TestDual_SaveRealmProgressKeepsConcurrentCredit(t *testing.T) {
	ctx := context.Background()
	for name, db := range getDualTestDatabases(t) {
		t.Run(name, func(t *testing.T) {
			p := mustCreatePlayer(t, db, "walker", 0)
			p.Gold = 100
			if err := db.UpdatePlayer(ctx, p); err != nil {
				t.Fatalf("UpdatePlayer() error = %v", err)
			}
			before, err := db.GetPlayer(ctx, "walker")
			if err != nil {
				t.Fatalf("GetPlayer() error = %v", err)
			}

			after := before.Clone()
			after.Gold -= 50
			after.Experience += 7
			after.HP = 60
			after.RealmID = "trial_normal_x"
			after.RealmData = `{"id":"trial_normal_x"}`

			// A settlement credits the row between load and save.
			if _, err := db.DB().ExecContext(ctx, db.q(`UPDATE players SET gold = gold + ? WHERE user_id = ?`), 1000, "walker"); err != nil {
				t.Fatalf("credit error = %v", err)
			}

			if err := db.SaveRealmProgress(ctx, before, after, map[string]int{"1101": 2}); err != nil {
				t.Fatalf("SaveRealmProgress() error = %v", err)
			}
			got, err := db.GetPlayer(ctx, "walker")
			if err != nil {
				t.Fatalf("GetPlayer() error = %v", err)
			}
			if got.Gold != 1050 || got.Experience != 7 || got.HP != 60 {
				t.Errorf("gold/exp/hp = %d/%d/%d, want 1050/7/60", got.Gold, got.Experience, got.HP)
			}
			if got.RealmID != "trial_normal_x" || got.RealmData != after.RealmData {
				t.Errorf("realm fields = %q %q", got.RealmID, got.RealmData)
			}
			inv, err := db.GetInventory(ctx, "walker")
			if err != nil {
				t.Fatalf("GetInventory() error = %v", err)
			}
			if inv["1101"] != 2 {
				t.Errorf("inventory = %v, want 1101 x2", inv)
			}

			// Replaying the same transition finds the session already moved on.
			err = db.SaveRealmProgress(ctx, before, after, map[string]int{"1101": 2})
			if !errors.Is(err, ErrRealmConflict) {
				t.Errorf("replay error = %v, want ErrRealmConflict", err)
			}
			got, _ = db.GetPlayer(ctx, "walker")
			if got.Gold != 1050 {
				t.Errorf("Gold after refused replay = %d, want 1050", got.Gold)
			}
			if inv, _ := db.GetInventory(ctx, "walker"); inv["1101"] != 2 {
				t.Errorf("inventory after refused replay = %v, want 1101 x2", inv)
			}

			ghost := player.New("ghost", "")
			if err := db.SaveRealmProgress(ctx, ghost, ghost, nil); !errors.Is(err, ErrPlayerNotFound) {
				t.Errorf("SaveRealmProgress(ghost) error = %v, want ErrPlayerNotFound", err)
			}
		})
	}
}

func TestDual_InventoryAccumulates(t *testing.T) {
	ctx := context.Background()
	for name, db := range getDualTestDatabases(t) {
		t.Run(name, func(t *testing.T) {
			p := mustCreatePlayer(t, db, "inv", 0)
			p.Gold = 10
			if err := db.UpdatePlayerWithItems(ctx, p, map[string]int{"1101": 2, "1201": 0}); err != nil {
				t.Fatalf("UpdatePlayerWithItems() error = %v", err)
			}
			if err := db.AddItemsToInventory(ctx, "inv", map[string]int{"1101": 3}); err != nil {
				t.Fatalf("AddItemsToInventory() error = %v", err)
			}

			items, err := db.GetInventory(ctx, "inv")
			if err != nil {
				t.Fatalf("GetInventory() error = %v", err)
			}
			if items["1101"] != 5 || len(items) != 1 {
				t.Errorf("inventory = %v, want map[1101:5]", items)
			}
		})
	}
}

func TestDual_TopPlayersByLevel(t *testing.T) {
	ctx := context.Background()
	for name, db := range getDualTestDatabases(t) {
		t.Run(name, func(t *testing.T) {
			for i, lvl := range []int{1, 5, 3, 5} {
				mustCreatePlayer(t, db, fmt.Sprintf("p%d", i), lvl)
			}
			top, err := db.GetTopPlayersByLevel(ctx, 3)
			if err != nil {
				t.Fatalf("GetTopPlayersByLevel() error = %v", err)
			}
			var got []int
			for _, p := range top {
				got = append(got, p.LevelIndex)
			}
			if fmt.Sprint(got) != "[5 5 3]" {
				t.Errorf("levels = %v, want [5 5 3]", got)
			}
		})
	}
}

func TestDual_CreateActiveBossIsIdempotent(t *testing.T) {
	ctx := context.Background()
	for name, db := range getDualTestDatabases(t) {
		t.Run(name, func(t *testing.T) {
			spawnTestBoss(t, db, "boss_flood_dragon", 1000)

			created, err := db.CreateActiveBoss(ctx, ActiveBoss{BossID: "boss_flood_dragon", CurrentHP: 5, MaxHP: 5, SpawnedAt: time.Now()})
			if err != nil {
				t.Fatalf("CreateActiveBoss() error = %v", err)
			}
			if created {
				t.Error("second CreateActiveBoss should not create")
			}
			b, err := db.GetActiveBoss(ctx, "boss_flood_dragon")
			if err != nil {
				t.Fatalf("GetActiveBoss() error = %v", err)
			}
			if b.CurrentHP != 1000 {
				t.Errorf("CurrentHP = %d, want 1000", b.CurrentHP)
			}
			if _, err := db.GetActiveBoss(ctx, "none"); !errors.Is(err, ErrBossNotActive) {
				t.Errorf("GetActiveBoss(none) error = %v", err)
			}
		})
	}
}

func TestDual_ApplyBossHit(t *testing.T) {
	ctx := context.Background()
	cooldown := 2 * time.Hour
	for name, db := range getDualTestDatabases(t) {
		t.Run(name, func(t *testing.T) {
			spawnTestBoss(t, db, "b1", 500)
			now := time.Now()

			hit, err := db.ApplyBossHit(ctx, "b1", "u1", "甲", 300, now, cooldown)
			if err != nil {
				t.Fatalf("ApplyBossHit() error = %v", err)
			}
			if hit.RemainingHP != 200 || hit.Applied != 300 {
				t.Errorf("hit = %+v, want {200 300}", hit)
			}

			if _, err := db.ApplyBossHit(ctx, "b1", "u1", "甲", 10, now.Add(time.Minute), cooldown); !errors.Is(err, ErrBossOnCooldown) {
				t.Errorf("repeat hit error = %v, want ErrBossOnCooldown", err)
			}

			// Overkill is capped at the remaining hp.
			hit, err = db.ApplyBossHit(ctx, "b1", "u2", "乙", 900, now, cooldown)
			if err != nil {
				t.Fatalf("ApplyBossHit() error = %v", err)
			}
			if hit.RemainingHP != 0 || hit.Applied != 200 {
				t.Errorf("hit = %+v, want {0 200}", hit)
			}

			b, _ := db.GetActiveBoss(ctx, "b1")
			if b.DefeatedAt.IsZero() || b.LastHitDamage != 200 {
				t.Errorf("boss = %+v, want defeated with last hit 200", b)
			}

			if _, err := db.ApplyBossHit(ctx, "b1", "u3", "丙", 50, now, cooldown); !errors.Is(err, ErrBossNotActive) {
				t.Errorf("hit on dead boss error = %v, want ErrBossNotActive", err)
			}
			if _, ok, _ := db.LastBossAttack(ctx, "b1", "u3"); ok {
				t.Error("a refused hit must not consume the cooldown")
			}

			ps, err := db.GetBossParticipants(ctx, "b1")
			if err != nil {
				t.Fatalf("GetBossParticipants() error = %v", err)
			}
			if len(ps) != 2 || ps[0].UserID != "u1" || ps[0].TotalDamage != 300 || ps[1].TotalDamage != 200 {
				t.Errorf("ledger = %+v", ps)
			}

			// The cooldown expires.
			later := now.Add(cooldown + time.Second)
			if _, err := db.ApplyBossHit(ctx, "b1", "u1", "甲", 10, later, cooldown); !errors.Is(err, ErrBossNotActive) {
				t.Errorf("hit after cooldown error = %v, want ErrBossNotActive", err)
			}
		})
	}
}

func TestDual_ApplyBossHitConcurrent(t *testing.T) {
	ctx := context.Background()
	for name, db := range getDualTestDatabases(t) {
		t.Run(name, func(t *testing.T) {
			spawnTestBoss(t, db, "b1", 1000)
			now := time.Now()

			results := make([]HitResult, 20)
			errs := make([]error, 20)
			var g errgroup.Group
			for i := range results {
				g.Go(func() error {
					results[i], errs[i] = db.ApplyBossHit(ctx, "b1", fmt.Sprintf("u%02d", i), "", 100, now, time.Hour)
					return nil
				})
			}
			g.Wait()

			applied, zeroes, refused := 0, 0, 0
			for i, err := range errs {
				switch {
				case err == nil:
					applied += results[i].Applied
					if results[i].RemainingHP == 0 {
						zeroes++
					}
				case errors.Is(err, ErrBossNotActive):
					refused++
				default:
					t.Errorf("hit %d error = %v", i, err)
				}
			}
			if applied != 1000 {
				t.Errorf("applied = %d, want 1000", applied)
			}
			if zeroes != 1 {
				t.Errorf("%d hits reported the kill, want exactly 1", zeroes)
			}
			if refused != 10 {
				t.Errorf("refused = %d, want 10", refused)
			}

			ps, _ := db.GetBossParticipants(ctx, "b1")
			sum := 0
			for _, p := range ps {
				sum += p.TotalDamage
			}
			if sum != 1000 {
				t.Errorf("ledger sum = %d, want 1000", sum)
			}
		})
	}
}

func TestDual_RecordBossDamageCommutes(t *testing.T) {
	ctx := context.Background()
	hits := []struct {
		user string
		dmg  int
	}{{"a", 30}, {"b", 50}, {"a", 20}, {"c", 5}, {"b", 1}}

	for name, db := range getDualTestDatabases(t) {
		t.Run(name, func(t *testing.T) {
			for i, h := range hits {
				db.RecordBossDamage(ctx, "fwd", h.user, h.user, h.dmg)
				r := hits[len(hits)-1-i]
				db.RecordBossDamage(ctx, "rev", r.user, r.user, r.dmg)
			}

			totals := func(boss string) map[string]int {
				ps, err := db.GetBossParticipants(ctx, boss)
				if err != nil {
					t.Fatalf("GetBossParticipants() error = %v", err)
				}
				m := make(map[string]int)
				for _, p := range ps {
					m[p.UserID] = p.TotalDamage
				}
				return m
			}
			fwd, rev := totals("fwd"), totals("rev")
			if fmt.Sprint(fwd) != fmt.Sprint(rev) || fwd["a"] != 50 || fwd["b"] != 51 {
				t.Errorf("forward %v != reverse %v", fwd, rev)
			}
		})
	}
}

func TestDual_CommitSettlementExactlyOnce(t *testing.T) {
	ctx := context.Background()
	for name, db := range getDualTestDatabases(t) {
		t.Run(name, func(t *testing.T) {
			mustCreatePlayer(t, db, "u1", 3)
			mustCreatePlayer(t, db, "u2", 3)
			spawnTestBoss(t, db, "b1", 100)
			db.ApplyBossHit(ctx, "b1", "u1", "甲", 70, time.Now(), time.Hour)
			db.ApplyBossHit(ctx, "b1", "u2", "乙", 70, time.Now(), time.Hour)

			s := Settlement{
				BossID:    "b1",
				BossName:  "蛟龙",
				KilledAt:  time.Now(),
				TopUserID: "u1",
				Items:     map[string]int{"3001": 1},
				Rewards: []Reward{
					{UserID: "u1", Gold: 700, Experience: 1400},
					{UserID: "u2", Gold: 300, Experience: 600},
				},
				TopContributors: []Contributor{{UserID: "u1", DisplayName: "甲", Damage: 70}},
			}

			errs := make([]error, 8)
			var g errgroup.Group
			for i := range errs {
				g.Go(func() error {
					errs[i] = db.CommitSettlement(ctx, s)
					return nil
				})
			}
			g.Wait()

			won := 0
			for _, err := range errs {
				switch {
				case err == nil:
					won++
				case !errors.Is(err, ErrAlreadySettled):
					t.Errorf("CommitSettlement() error = %v", err)
				}
			}
			if won != 1 {
				t.Fatalf("%d settlements committed, want 1", won)
			}

			u1, _ := db.GetPlayer(ctx, "u1")
			u2, _ := db.GetPlayer(ctx, "u2")
			if u1.Gold != 700 || u1.Experience != 1400 || u2.Gold != 300 {
				t.Errorf("gold = %d/%d, want 700/300", u1.Gold, u2.Gold)
			}
			inv1, _ := db.GetInventory(ctx, "u1")
			inv2, _ := db.GetInventory(ctx, "u2")
			if inv1["3001"] != 1 || len(inv2) != 0 {
				t.Errorf("loot = %v / %v, want top contributor only", inv1, inv2)
			}

			if _, err := db.GetActiveBoss(ctx, "b1"); !errors.Is(err, ErrBossNotActive) {
				t.Errorf("boss still active after settlement: %v", err)
			}
			if ps, _ := db.GetBossParticipants(ctx, "b1"); len(ps) != 0 {
				t.Errorf("ledger = %v, want cleared", ps)
			}

			kills, err := db.GetBossKills(ctx, 10)
			if err != nil {
				t.Fatalf("GetBossKills() error = %v", err)
			}
			if len(kills) != 1 || kills[0].BossName != "蛟龙" || len(kills[0].TopContributors) != 1 {
				t.Errorf("kills = %+v", kills)
			}
		})
	}
}

func TestDual_CommitSettlementRefusesLiveBoss(t *testing.T) {
	ctx := context.Background()
	for name, db := range getDualTestDatabases(t) {
		t.Run(name, func(t *testing.T) {
			spawnTestBoss(t, db, "b1", 100)
			if err := db.CommitSettlement(ctx, Settlement{BossID: "b1"}); !errors.Is(err, ErrAlreadySettled) {
				t.Errorf("error = %v, want ErrAlreadySettled", err)
			}
			if _, err := db.GetActiveBoss(ctx, "b1"); err != nil {
				t.Errorf("live boss was removed: %v", err)
			}
		})
	}
}

func TestDual_EmptySettlementLogsNoKill(t *testing.T) {
	ctx := context.Background()
	for name, db := range getDualTestDatabases(t) {
		t.Run(name, func(t *testing.T) {
			spawnTestBoss(t, db, "b1", 100)
			if err := db.UpdateBossHP(ctx, "b1", 0); err != nil {
				t.Fatalf("UpdateBossHP() error = %v", err)
			}
			if err := db.CommitSettlement(ctx, Settlement{BossID: "b1", BossName: "x", KilledAt: time.Now()}); err != nil {
				t.Fatalf("CommitSettlement() error = %v", err)
			}
			if _, ok, _ := db.GetLastBossDefeatTime(ctx, "b1"); ok {
				t.Error("empty settlement should not log a kill")
			}
		})
	}
}

func TestDual_BossKillLog(t *testing.T) {
	ctx := context.Background()
	for name, db := range getDualTestDatabases(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := db.GetLastBossDefeatTime(ctx, "b1"); ok || err != nil {
				t.Fatalf("GetLastBossDefeatTime() = %v, %v on empty log", ok, err)
			}

			base := time.Unix(1700000000, 0)
			var ids []int64
			for i := 0; i < 3; i++ {
				id, err := db.LogBossKill(ctx, BossKill{BossID: "b1", BossName: "蛟龙", KilledAt: base.Add(time.Duration(i) * time.Hour)})
				if err != nil {
					t.Fatalf("LogBossKill() error = %v", err)
				}
				ids = append(ids, id)
			}
			if !sort.SliceIsSorted(ids, func(i, j int) bool { return ids[i] < ids[j] }) || ids[0] == 0 {
				t.Errorf("ids = %v, want increasing non-zero", ids)
			}

			last, ok, err := db.GetLastBossDefeatTime(ctx, "b1")
			if err != nil || !ok || !last.Equal(base.Add(2*time.Hour)) {
				t.Errorf("GetLastBossDefeatTime() = %v, %v, %v", last, ok, err)
			}

			kills, _ := db.GetBossKills(ctx, 2)
			if len(kills) != 2 || !kills[0].KilledAt.Equal(last) {
				t.Errorf("GetBossKills(2) = %+v", kills)
			}
		})
	}
}

func TestDual_ClearBossDataKeepsCooldown(t *testing.T) {
	ctx := context.Background()
	for name, db := range getDualTestDatabases(t) {
		t.Run(name, func(t *testing.T) {
			spawnTestBoss(t, db, "b1", 100)
			now := time.Now()
			db.ApplyBossHit(ctx, "b1", "u1", "甲", 10, now, time.Hour)

			if err := db.ClearBossData(ctx, "b1"); err != nil {
				t.Fatalf("ClearBossData() error = %v", err)
			}
			if bosses, _ := db.GetActiveBosses(ctx); len(bosses) != 0 {
				t.Errorf("GetActiveBosses() = %v, want none", bosses)
			}
			at, ok, err := db.LastBossAttack(ctx, "b1", "u1")
			if err != nil || !ok || at.Unix() != now.Unix() {
				t.Errorf("LastBossAttack() = %v, %v, %v", at, ok, err)
			}
		})
	}
}

package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/lawnchairsociety/realmcore/internal/game"
	"github.com/lawnchairsociety/realmcore/internal/logger"
)

type contributorJSON struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Damage      int    `json:"damage"`
}

type bossJSON struct {
	BossID    string            `json:"boss_id"`
	Name      string            `json:"name"`
	Level     int               `json:"level"`
	CurrentHP int               `json:"current_hp"`
	MaxHP     int               `json:"max_hp"`
	Attack    int               `json:"attack"`
	Defense   int               `json:"defense"`
	SpawnedAt time.Time         `json:"spawned_at"`
	Top       []contributorJSON `json:"top"`
}

// bossesHandler serves the live world bosses as JSON.
func bossesHandler(engine *game.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		active, err := engine.ListBosses(r.Context())
		if err != nil {
			logger.Error("Failed to list world bosses", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]bossJSON, 0, len(active))
		for _, a := range active {
			b := bossJSON{
				BossID:    a.BossID,
				Name:      a.Boss.Name,
				Level:     a.LevelIndex,
				CurrentHP: a.CurrentHP,
				MaxHP:     a.MaxHP,
				Attack:    a.Boss.Attack,
				Defense:   a.Boss.Defense,
				SpawnedAt: a.SpawnedAt,
				Top:       make([]contributorJSON, 0, len(a.Top)),
			}
			for _, p := range a.Top {
				b.Top = append(b.Top, contributorJSON{UserID: p.UserID, DisplayName: p.DisplayName, Damage: p.TotalDamage})
			}
			out = append(out, b)
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(out); err != nil {
			logger.Warning("Failed to write boss list", "error", err)
		}
	})
}

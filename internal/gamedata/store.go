// Package gamedata is the read-only template store: monsters, bosses, tags,
// items and cultivation levels, loaded from YAML data files.
package gamedata

import (
	"fmt"
	"sort"
)

// Data is the raw content of the template files, keyed by template id.
type Data struct {
	Monsters map[string]MonsterTemplate
	Bosses   map[string]BossTemplate
	Tags     map[string]TagEffect
	Items    map[string]Item
	Levels   []Level
}

// Store provides lookups over loaded templates. It is immutable after
// construction and safe for concurrent use.
type Store struct {
	monsters   map[string]MonsterTemplate
	bosses     map[string]BossTemplate
	tags       map[string]TagEffect
	items      map[string]Item
	levels     []Level
	itemByName map[string]string
	bossByName map[string]string
	monsterIDs []string
	bossIDs    []string
	itemIDs    []string
}

// NewStore builds a Store from raw data, filling template ids from map keys
// and defaulting unset tag multipliers to 1.
func NewStore(d Data) *Store {
	s := &Store{
		monsters:   make(map[string]MonsterTemplate, len(d.Monsters)),
		bosses:     make(map[string]BossTemplate, len(d.Bosses)),
		tags:       make(map[string]TagEffect, len(d.Tags)),
		items:      make(map[string]Item, len(d.Items)),
		levels:     append([]Level(nil), d.Levels...),
		itemByName: make(map[string]string),
		bossByName: make(map[string]string),
	}

	for id, m := range d.Monsters {
		m.ID = id
		s.monsters[id] = m
		s.monsterIDs = append(s.monsterIDs, id)
	}
	for id, b := range d.Bosses {
		b.ID = id
		s.bosses[id] = b
		s.bossIDs = append(s.bossIDs, id)
		if b.Name != "" {
			s.bossByName[b.Name] = id
		}
	}
	for name, t := range d.Tags {
		t.normalize()
		s.tags[name] = t
	}
	for id, it := range d.Items {
		it.ID = id
		s.items[id] = it
		s.itemIDs = append(s.itemIDs, id)
		if it.Name != "" {
			s.itemByName[it.Name] = id
		}
	}

	sort.Strings(s.monsterIDs)
	sort.Strings(s.bossIDs)
	sort.Strings(s.itemIDs)
	return s
}

// Monster returns the monster template with the given id.
func (s *Store) Monster(id string) (MonsterTemplate, bool) {
	m, ok := s.monsters[id]
	return m, ok
}

// Boss returns the boss template with the given id.
func (s *Store) Boss(id string) (BossTemplate, bool) {
	b, ok := s.bosses[id]
	return b, ok
}

// BossByName returns the boss template with the given display name.
func (s *Store) BossByName(name string) (BossTemplate, bool) {
	id, ok := s.bossByName[name]
	if !ok {
		return BossTemplate{}, false
	}
	return s.Boss(id)
}

// Tag returns the tag effect with the given name.
func (s *Store) Tag(name string) (TagEffect, bool) {
	t, ok := s.tags[name]
	return t, ok
}

// Item returns the item with the given id.
func (s *Store) Item(id string) (Item, bool) {
	it, ok := s.items[id]
	return it, ok
}

// ItemByName returns the item with the given display name.
func (s *Store) ItemByName(name string) (Item, bool) {
	id, ok := s.itemByName[name]
	if !ok {
		return Item{}, false
	}
	return s.Item(id)
}

// ItemName returns the display name of an item, or a placeholder for
// unknown ids.
func (s *Store) ItemName(id string) string {
	if it, ok := s.items[id]; ok && it.Name != "" {
		return it.Name
	}
	return fmt.Sprintf("物品%s", id)
}

// MonsterIDs returns all monster template ids in sorted order.
func (s *Store) MonsterIDs() []string {
	return append([]string(nil), s.monsterIDs...)
}

// BossIDs returns all boss template ids in sorted order.
func (s *Store) BossIDs() []string {
	return append([]string(nil), s.bossIDs...)
}

// Items returns all items ordered by id.
func (s *Store) Items() []Item {
	out := make([]Item, 0, len(s.itemIDs))
	for _, id := range s.itemIDs {
		out = append(out, s.items[id])
	}
	return out
}

// LevelCount returns the number of cultivation levels.
func (s *Store) LevelCount() int {
	return len(s.levels)
}

// LevelName returns the name of the level at index, or a generic label when
// the level table does not cover it.
func (s *Store) LevelName(index int) string {
	if index >= 0 && index < len(s.levels) {
		return s.levels[index].Name
	}
	return fmt.Sprintf("第%d重境界", index+1)
}

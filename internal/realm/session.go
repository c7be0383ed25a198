package realm

import (
	"github.com/lawnchairsociety/realmcore/internal/gameerr"
	"github.com/lawnchairsociety/realmcore/internal/player"
)

// State is where a player's realm session stands.
type State int

const (
	StateNoRealm State = iota
	StateExploring
	StateAwaitingChoice
)

func (s State) String() string {
	switch s {
	case StateExploring:
		return "exploring"
	case StateAwaitingChoice:
		return "awaiting_choice"
	default:
		return "no_realm"
	}
}

// Action is a player request against the session.
type Action int

const (
	ActionStart Action = iota
	ActionAdvance
	ActionChoose
	ActionLeave
)

func (a Action) String() string {
	switch a {
	case ActionStart:
		return "start"
	case ActionAdvance:
		return "advance"
	case ActionChoose:
		return "choose"
	default:
		return "leave"
	}
}

// transitions lists every (state, action) pair explicitly.
var transitions = map[State]map[Action]bool{
	StateNoRealm: {
		ActionStart:   true,
		ActionAdvance: false,
		ActionChoose:  false,
		ActionLeave:   false,
	},
	StateExploring: {
		ActionStart:   false,
		ActionAdvance: true,
		ActionChoose:  false,
		ActionLeave:   true,
	},
	StateAwaitingChoice: {
		ActionStart:   false,
		ActionAdvance: false,
		ActionChoose:  true,
		ActionLeave:   true,
	},
}

// Allowed reports whether action is legal in state.
func Allowed(s State, a Action) bool {
	return transitions[s][a]
}

// Session is the decoded view of a player's realm fields.
type Session struct {
	State    State
	Floor    int
	Instance *Instance      // nil when the stored data is missing or corrupt
	Pending  *PendingChoice // nil unless awaiting a choice with a readable prompt
}

// SessionOf decodes the realm session stored on p.
func SessionOf(p *player.Player) Session {
	s := Session{Floor: p.RealmFloor}
	if !p.InRealm() {
		return s
	}

	s.State = StateExploring
	if inst, err := DecodeInstance(p.RealmData); err == nil {
		s.Instance = inst
	}
	if p.HasPendingChoice() {
		s.State = StateAwaitingChoice
		if pc, err := DecodePending(p.RealmPendingChoice); err == nil {
			s.Pending = pc
		}
	}
	return s
}

// Check returns the refusal for action when it is illegal in the session's
// state, or nil when it may proceed.
func (s Session) Check(a Action) error {
	if Allowed(s.State, a) {
		return nil
	}

	switch {
	case s.State == StateNoRealm:
		return gameerr.New(gameerr.CodeNotFound, "你不在任何秘境中。")
	case a == ActionStart:
		return gameerr.Newf(gameerr.CodeInvalidState, "你已身在【%s】之中，无法分心他顾。", s.realmName())
	case a == ActionAdvance:
		return gameerr.New(gameerr.CodeInvalidState, "当前有事件需要你做出选择！请先做出选择。")
	case a == ActionChoose:
		return gameerr.New(gameerr.CodeInvalidState, "当前没有需要选择的事件。")
	default:
		return gameerr.New(gameerr.CodeInvalidState, "此刻无法这样做。")
	}
}

func (s Session) realmName() string {
	if s.Instance == nil {
		return "未知的秘境"
	}
	return displayName(s.Instance.Type, s.Instance.Difficulty)
}

// displayName renders a realm as "<type><difficulty>试炼".
func displayName(typeKey, difficultyKey string) string {
	typeName, diffName := "未知秘境", "普通"
	if t, ok := LookupType(typeKey); ok {
		typeName = t.Name
	}
	if d, ok := LookupDifficulty(difficultyKey); ok {
		diffName = d.Name
	}
	return typeName + diffName + "试炼"
}

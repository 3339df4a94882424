// Package command defines the closed set of bot commands and how raw text
// and button callbacks resolve to them.
package command

import "strings"

// Command identifies a bot command. Step commands are also the value stored
// in a conversation's pending state.
type Command string

// Category partitions commands by how they are triggered.
type Category int

const (
	// Primary commands are recognised from raw text at any time.
	Primary Category = iota + 1
	// Step commands are only reachable through pending state.
	Step
	// Menu commands are triggered by button callbacks.
	Menu
)

func (c Category) String() string {
	switch c {
	case Primary:
		return "primary"
	case Step:
		return "step"
	case Menu:
		return "menu"
	default:
		return "unknown"
	}
}

// Role is the caller role a command requires.
type Role int

const (
	RoleAny Role = iota
	RoleAnonymous
	RoleAuthenticated
)

func (r Role) String() string {
	switch r {
	case RoleAnonymous:
		return "anonymous"
	case RoleAuthenticated:
		return "authenticated"
	default:
		return "any"
	}
}

// Permits reports whether a caller holding actual may run a command
// requiring r.
func (r Role) Permits(actual Role) bool {
	return r == RoleAny || r == actual
}

const (
	Start    Command = "start"
	Help     Command = "help"
	Register Command = "register"
	Profile  Command = "profile"
	Cancel   Command = "cancel"

	RegisterUsername Command = "register:username"
	RegisterBirthday Command = "register:birthday"
	NewUsername      Command = "profile:new_username"
	NewBirthday      Command = "profile:new_birthday"

	MainMenu      Command = "menu:main"
	RegisterMenu  Command = "menu:register"
	ProfileMenu   Command = "menu:profile"
	EditUsername  Command = "profile:edit_username"
	EditBirthday  Command = "profile:edit_birthday"
	DeleteAccount Command = "profile:delete"
	DeleteConfirm Command = "profile:delete_confirm"
)

// Definition carries a command's trigger and role scope as data.
type Definition struct {
	ID       Command
	Category Category
	// Trigger is the text for primary commands and the callback token for
	// menu commands. Step commands have no trigger.
	Trigger string
	Role    Role
}

var definitions = []Definition{
	{ID: Start, Category: Primary, Trigger: "/start", Role: RoleAny},
	{ID: Help, Category: Primary, Trigger: "/help", Role: RoleAny},
	{ID: Register, Category: Primary, Trigger: "/register", Role: RoleAnonymous},
	{ID: Profile, Category: Primary, Trigger: "/profile", Role: RoleAuthenticated},
	{ID: Cancel, Category: Primary, Trigger: "/cancel", Role: RoleAny},

	{ID: RegisterUsername, Category: Step, Role: RoleAny},
	{ID: RegisterBirthday, Category: Step, Role: RoleAny},
	{ID: NewUsername, Category: Step, Role: RoleAny},
	{ID: NewBirthday, Category: Step, Role: RoleAny},

	{ID: MainMenu, Category: Menu, Trigger: "menu:main", Role: RoleAny},
	{ID: RegisterMenu, Category: Menu, Trigger: "menu:register", Role: RoleAnonymous},
	{ID: ProfileMenu, Category: Menu, Trigger: "menu:profile", Role: RoleAuthenticated},
	{ID: EditUsername, Category: Menu, Trigger: "profile:edit_username", Role: RoleAuthenticated},
	{ID: EditBirthday, Category: Menu, Trigger: "profile:edit_birthday", Role: RoleAuthenticated},
	{ID: DeleteAccount, Category: Menu, Trigger: "profile:delete", Role: RoleAuthenticated},
	{ID: DeleteConfirm, Category: Menu, Trigger: "profile:delete_confirm", Role: RoleAuthenticated},
}

var (
	byID    = make(map[Command]Definition, len(definitions))
	byText  = make(map[string]Definition)
	byToken = make(map[string]Definition)
)

func init() {
	for _, d := range definitions {
		if _, dup := byID[d.ID]; dup {
			panic("command: duplicate definition " + string(d.ID))
		}
		byID[d.ID] = d
		switch d.Category {
		case Primary:
			byText[d.Trigger] = d
		case Menu:
			byToken[d.Trigger] = d
		}
	}
}

// All returns every definition in declaration order.
func All() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// Lookup resolves a stored command identifier.
func Lookup(id Command) (Definition, bool) {
	d, ok := byID[id]
	return d, ok
}

// MatchPrimary resolves raw message text to a primary command. Only the
// first token is considered and a Telegram "@botname" suffix is ignored, so
// "/register@my_bot now" matches /register.
func MatchPrimary(text string) (Definition, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Definition{}, false
	}
	head := fields[0]
	if !strings.HasPrefix(head, "/") {
		return Definition{}, false
	}
	if at := strings.IndexByte(head, '@'); at > 0 {
		head = head[:at]
	}
	d, ok := byText[strings.ToLower(head)]
	return d, ok
}

// MatchMenu resolves a button callback token to a menu command.
func MatchMenu(token string) (Definition, bool) {
	d, ok := byToken[strings.TrimSpace(token)]
	return d, ok
}

// IsStep reports whether id names a step command.
func IsStep(id Command) bool {
	d, ok := byID[id]
	return ok && d.Category == Step
}

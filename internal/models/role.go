package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Role is a platform-wide role asserted by the identity token.
type Role string

const (
	RolePlayer    Role = "player"
	RoleCoach     Role = "coach"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
	RoleFounder   Role = "founder"
)

var allRoles = []Role{RolePlayer, RoleCoach, RoleModerator, RoleAdmin, RoleFounder}

// ParseRole converts a claim or column value into a Role.
// An empty value is treated as RolePlayer.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return RolePlayer, nil
	}
	for _, r := range allRoles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Valid reports whether r is one of the closed set of roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil && r != ""
}

// IsStaff reports whether r carries platform moderation rights.
func (r Role) IsStaff() bool {
	return r == RoleModerator || r == RoleAdmin || r == RoleFounder
}

// IsAdmin reports whether r may perform destructive platform actions.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleFounder
}

// Actor is an authenticated caller: the token subject and the role it asserts.
type Actor struct {
	ID   uint
	Role Role
}

// GameRole is an in-team position a member plays.
type GameRole string

const (
	GameRoleDuelist    GameRole = "duelist"
	GameRoleInitiator  GameRole = "initiator"
	GameRoleController GameRole = "controller"
	GameRoleSentinel   GameRole = "sentinel"
	GameRoleFlex       GameRole = "flex"
	GameRoleIGL        GameRole = "igl"
)

// ValidGameRoles lists the accepted in-team positions.
var ValidGameRoles = []GameRole{
	GameRoleDuelist, GameRoleInitiator, GameRoleController,
	GameRoleSentinel, GameRoleFlex, GameRoleIGL,
}

// GameRoleList is stored as a JSON array column.
type GameRoleList []GameRole

// GormDataType keeps the column portable between PostgreSQL and SQLite.
func (GameRoleList) GormDataType() string {
	return "text"
}

// Value implements driver.Valuer.
func (l GameRoleList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]GameRole(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *GameRoleList) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into GameRoleList", src)
	}
	if len(raw) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(raw, (*[]GameRole)(l))
}

// Contains reports whether r is in the list.
func (l GameRoleList) Contains(r GameRole) bool {
	for _, x := range l {
		if x == r {
			return true
		}
	}
	return false
}

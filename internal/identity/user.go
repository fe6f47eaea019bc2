package identity

import (
	"time"

	"github.com/helioshq/helios-admin/internal/authz"
)

// Preferences holds per-user UI and notification settings.
type Preferences struct {
	Theme              string `json:"theme"`
	Language           string `json:"language"`
	Timezone           string `json:"timezone"`
	EmailNotifications bool   `json:"emailNotifications"`
	PushNotifications  bool   `json:"pushNotifications"`
}

// DefaultPreferences returns the settings applied to new accounts.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:              "system",
		Language:           "en",
		Timezone:           "UTC",
		EmailNotifications: true,
	}
}

// Address is a postal address attached to a profile.
type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

// SocialLinks collects public profile URLs.
type SocialLinks struct {
	Website  string `json:"website,omitempty"`
	Twitter  string `json:"twitter,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
}

// Profile embeds contact information and preferences in a user record.
type Profile struct {
	Phone       string      `json:"phone,omitempty"`
	Bio         string      `json:"bio,omitempty"`
	Address     Address     `json:"address"`
	Social      SocialLinks `json:"social"`
	Preferences Preferences `json:"preferences"`
}

// User is the authenticated principal. Permissions is a denormalized copy of
// the role's permission set taken when the record was last materialized;
// per-user overrides distinct from the role are not supported.
type User struct {
	ID          string             `json:"id"`
	Email       string             `json:"email"`
	FirstName   string             `json:"firstName"`
	LastName    string             `json:"lastName"`
	DisplayName string             `json:"displayName"`
	AvatarURL   string             `json:"avatarUrl,omitempty"`
	Role        authz.Role         `json:"role"`
	Permissions []authz.Permission `json:"permissions"`
	Profile     Profile            `json:"profile"`
	IsActive    bool               `json:"isActive"`
	IsVerified  bool               `json:"isVerified"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
	LastLoginAt time.Time          `json:"lastLoginAt,omitzero"`
}

// RoleName implements authz.Principal.
func (u *User) RoleName() string { return u.Role.Name }

// PermissionSet implements authz.Principal.
func (u *User) PermissionSet() []authz.Permission { return u.Permissions }

// FullName joins the name parts for display when DisplayName is unset.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// Clone returns a deep copy. Stored principals are treated as immutable
// snapshots; every mutation produces a new copy that replaces the old one.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.Role.Permissions = append([]authz.Permission(nil), u.Role.Permissions...)
	cp.Permissions = append([]authz.Permission(nil), u.Permissions...)
	return &cp
}

// MaterializeRole sets the user's role and refreshes the flattened
// permission copy so both stay in sync.
func (u *User) MaterializeRole(role authz.Role) {
	u.Role = role
	u.Permissions = append([]authz.Permission(nil), role.Permissions...)
}

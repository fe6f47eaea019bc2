package identity

// ProfilePatch is a merge patch for profile mutation. Nil fields are left
// untouched.
type ProfilePatch struct {
	FirstName   *string      `json:"firstName,omitempty"`
	LastName    *string      `json:"lastName,omitempty"`
	DisplayName *string      `json:"displayName,omitempty"`
	Phone       *string      `json:"phone,omitempty"`
	Bio         *string      `json:"bio,omitempty"`
	Address     *Address     `json:"address,omitempty"`
	Social      *SocialLinks `json:"social,omitempty"`
}

// Empty reports whether the patch carries no changes.
func (p ProfilePatch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.DisplayName == nil &&
		p.Phone == nil && p.Bio == nil && p.Address == nil && p.Social == nil
}

// PreferencesPatch is a merge patch for preference mutation.
type PreferencesPatch struct {
	Theme              *string `json:"theme,omitempty"`
	Language           *string `json:"language,omitempty"`
	Timezone           *string `json:"timezone,omitempty"`
	EmailNotifications *bool   `json:"emailNotifications,omitempty"`
	PushNotifications  *bool   `json:"pushNotifications,omitempty"`
}

// Empty reports whether the patch carries no changes.
func (p PreferencesPatch) Empty() bool {
	return p.Theme == nil && p.Language == nil && p.Timezone == nil &&
		p.EmailNotifications == nil && p.PushNotifications == nil
}

// ApplyProfile merges the patch into the user in place.
func (u *User) ApplyProfile(p ProfilePatch) {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.DisplayName != nil {
		u.DisplayName = *p.DisplayName
	}
	if p.Phone != nil {
		u.Profile.Phone = *p.Phone
	}
	if p.Bio != nil {
		u.Profile.Bio = *p.Bio
	}
	if p.Address != nil {
		u.Profile.Address = *p.Address
	}
	if p.Social != nil {
		u.Profile.Social = *p.Social
	}
	if u.DisplayName == "" {
		u.DisplayName = u.FullName()
	}
}

// ApplyPreferences merges the patch into the user in place.
func (u *User) ApplyPreferences(p PreferencesPatch) {
	if p.Theme != nil {
		u.Profile.Preferences.Theme = *p.Theme
	}
	if p.Language != nil {
		u.Profile.Preferences.Language = *p.Language
	}
	if p.Timezone != nil {
		u.Profile.Preferences.Timezone = *p.Timezone
	}
	if p.EmailNotifications != nil {
		u.Profile.Preferences.EmailNotifications = *p.EmailNotifications
	}
	if p.PushNotifications != nil {
		u.Profile.Preferences.PushNotifications = *p.PushNotifications
	}
}

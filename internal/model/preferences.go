package model

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	ThemeAuto  Theme = "auto"
)

// Preferences are the viewer's UI choices; they survive restarts.
type Preferences struct {
	Theme                Theme   `json:"theme"`
	NotificationsEnabled bool    `json:"notificationsEnabled"`
	EmailNotifications   bool    `json:"emailNotifications"`
	PreferredGender      *Gender `json:"preferredGender"`
	PreferredSeats       int     `json:"preferredSeats"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		Theme:                ThemeLight,
		NotificationsEnabled: true,
		EmailNotifications:   true,
		PreferredSeats:       1,
	}
}

// PreferencesPatch merges into Preferences; nil fields are left untouched.
type PreferencesPatch struct {
	Theme                *Theme  `json:"theme,omitempty" validate:"omitempty,oneof=light dark auto"`
	NotificationsEnabled *bool   `json:"notificationsEnabled,omitempty"`
	EmailNotifications   *bool   `json:"emailNotifications,omitempty"`
	PreferredGender      *Gender `json:"preferredGender,omitempty" validate:"omitempty,oneof=MALE FEMALE OTHER"`
	PreferredSeats       *int    `json:"preferredSeats,omitempty" validate:"omitempty,min=1,max=8"`
}

func (p PreferencesPatch) Apply(pr Preferences) Preferences {
	if p.Theme != nil {
		pr.Theme = *p.Theme
	}
	if p.NotificationsEnabled != nil {
		pr.NotificationsEnabled = *p.NotificationsEnabled
	}
	if p.EmailNotifications != nil {
		pr.EmailNotifications = *p.EmailNotifications
	}
	if p.PreferredGender != nil {
		g := *p.PreferredGender
		pr.PreferredGender = &g
	}
	if p.PreferredSeats != nil {
		pr.PreferredSeats = *p.PreferredSeats
	}
	return pr
}

// Settings are session-only application settings.
type Settings struct {
	Language string `json:"language"`
	Currency string `json:"currency"`
	Timezone string `json:"timezone"`
}

func DefaultSettings() Settings {
	return Settings{Language: "en", Currency: "TND", Timezone: "Africa/Tunis"}
}

type SettingsPatch struct {
	Language *string `json:"language,omitempty"`
	Currency *string `json:"currency,omitempty"`
	Timezone *string `json:"timezone,omitempty"`
}

func (p SettingsPatch) Apply(s Settings) Settings {
	if p.Language != nil {
		s.Language = *p.Language
	}
	if p.Currency != nil {
		s.Currency = *p.Currency
	}
	if p.Timezone != nil {
		s.Timezone = *p.Timezone
	}
	return s
}

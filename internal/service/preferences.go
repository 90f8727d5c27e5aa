package service

import "github.com/iliyamo/carpool-gateway/internal/model"

// UpdatePreferences merges patch into the viewer's preferences, which are
// stored durably per user.
func (s *Session) UpdatePreferences(patch model.PreferencesPatch) (model.Preferences, error) {
	if _, err := s.requireUser(); err != nil {
		return model.Preferences{}, err
	}
	if err := s.validate.Struct(patch); err != nil {
		return model.Preferences{}, validationErr(err)
	}
	return s.User.SetPreferences(patch), nil
}

// UpdateSettings changes the session-only settings.
func (s *Session) UpdateSettings(patch model.SettingsPatch) (model.Settings, error) {
	if _, err := s.requireUser(); err != nil {
		return model.Settings{}, err
	}
	return s.User.SetSettings(patch), nil
}

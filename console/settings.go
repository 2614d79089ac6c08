package console

const (
	SettingAPIKey     = "NODE_API_KEY"
	SettingInviteCode = "NODE_INVITE_CODE"
	SettingMnemonic   = "MNEMONIC"
)

// Settings holds the string settings read at startup, keyed by their
// environment variable name.
type Settings map[string]string

// Required returns a setting and fails if it is absent or empty.
func (s Settings) Required(name string) (string, error) {
	value := s[name]
	if value == "" {
		return "", &missingSettingError{name: name}
	}

	return value, nil
}

// Optional returns a setting and whether it is present and non-empty.
func (s Settings) Optional(name string) (string, bool) {
	value := s[name]
	return value, value != ""
}

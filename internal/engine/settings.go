package engine

import (
	"context"

	"manga4deck/internal/kavita"
)

// Setting keys in the server_settings table.
const (
	settingServerIP = "server_ip"
	settingUsername = "username"
	settingPassword = "password"
	settingAPIKey   = "api_key"
)

// resolveSettings merges persisted settings with the configured
// fallback. Persisted values win; configured values fill the gaps and
// are written back so the next start no longer needs them.
func (e *Engine) resolveSettings(ctx context.Context, fallback kavita.Settings) (kavita.Settings, error) {
	stored, err := e.store.Settings(ctx)
	if err != nil {
		return kavita.Settings{}, err
	}

	resolved := kavita.Settings{
		IP:       stored[settingServerIP],
		Username: stored[settingUsername],
		Password: stored[settingPassword],
		APIKey:   stored[settingAPIKey],
	}

	fill := func(key string, dst *string, val string) error {
		if *dst != "" || val == "" {
			return nil
		}
		*dst = val
		return e.store.SetSetting(ctx, key, val)
	}

	if err := fill(settingServerIP, &resolved.IP, fallback.IP); err != nil {
		return kavita.Settings{}, err
	}
	if err := fill(settingUsername, &resolved.Username, fallback.Username); err != nil {
		return kavita.Settings{}, err
	}
	if err := fill(settingPassword, &resolved.Password, fallback.Password); err != nil {
		return kavita.Settings{}, err
	}
	if err := fill(settingAPIKey, &resolved.APIKey, fallback.APIKey); err != nil {
		return kavita.Settings{}, err
	}
	return resolved, nil
}

// SettingsUpdate carries the changed connection parameters; empty
// fields keep their current value.
type SettingsUpdate struct {
	IP       string
	Username string
	Password string
	APIKey   string
}

// UpdateServerSettings applies a settings change with all-or-nothing
// semantics: a candidate settings value is built, a fresh client logs
// in against it, and only on success does anything change. On failure
// the previous settings, token, identity and connectivity are still
// the ones in effect, and nothing was persisted.
func (e *Engine) UpdateServerSettings(ctx context.Context, update SettingsUpdate) error {
	current := func() kavita.Settings {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.client.Settings()
	}()

	candidate := current
	if update.IP != "" {
		candidate.IP = update.IP
	}
	if update.Username != "" {
		candidate.Username = update.Username
	}
	if update.Password != "" {
		candidate.Password = update.Password
	}
	if update.APIKey != "" {
		candidate.APIKey = update.APIKey
	}

	next := kavita.NewClient(candidate)
	if err := next.Login(ctx); err != nil {
		e.log.Warn().Err(err).Str("server", candidate.IP).Msg("settings update rejected")
		return err
	}

	e.mu.Lock()
	e.client = next
	e.offline = false
	// Queued jobs referenced the previous server; drop them.
	e.queue = nil
	e.mu.Unlock()

	persist := map[string]string{
		settingServerIP: candidate.IP,
		settingUsername: candidate.Username,
		settingPassword: candidate.Password,
		settingAPIKey:   candidate.APIKey,
	}
	for key, value := range persist {
		if err := e.store.SetSetting(ctx, key, value); err != nil {
			return err
		}
	}

	e.log.Info().Str("server", candidate.IP).Str("user", next.LoggedAs()).Msg("reconnected")

	if err := e.reconcile(ctx); err != nil {
		e.log.Warn().Err(err).Msg("progress replay failed, outbox kept")
	}
	return nil
}

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Legacy keys written by earlier client versions.
const (
	legacyUserData     = "user_data"
	legacyAuthUser     = "authUser"
	legacyRefreshToken = "authRefreshToken"
	legacyLanguage     = "i3m-language"
	legacyToken        = "token"
	legacyUser         = "user"
)

var errUnreadable = errors.New("unreadable legacy value")

type migration struct {
	from      string
	to        string
	overwrite bool
	transform func(string) (string, error)
}

// Applied in order. user_data wins over authUser when both exist.
var migrations = []migration{
	{from: legacyLanguage, to: KeyLanguage, overwrite: true},
	{from: legacyUserData, to: KeyUserData, transform: RenamePlatformRoles},
	{from: legacyAuthUser, to: KeyUserData, transform: RenamePlatformRoles},
	{from: legacyRefreshToken, to: KeyRefreshToken},
	{from: legacyToken, to: KeyAuthToken},
	{from: legacyUser},
}

// MigrationReport lists what Migrate did.
type MigrationReport struct {
	Migrated []string
	Removed  []string
}

// Migrate moves legacy keys in s to their current names and deletes them.
// A value is only moved when the current key is absent, except the language key,
// which the legacy value replaces. A legacy profile that is not valid JSON is
// dropped. Running Migrate again is a no-op.
func Migrate(ctx context.Context, s Store, log zerolog.Logger) (MigrationReport, error) {
	var report MigrationReport

	for _, m := range migrations {
		old, err := s.Get(ctx, m.from)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return report, err
		}

		if m.to != "" {
			moved, err := migrateValue(ctx, s, m, old)
			switch {
			case errors.Is(err, errUnreadable):
				log.Warn().Err(err).Str("key", m.from).Msg("legacy value dropped")
			case err != nil:
				return report, err
			}
			if moved {
				report.Migrated = append(report.Migrated, m.from)
				log.Debug().Str("from", m.from).Str("to", m.to).Msg("migrated legacy key")
			}
		}

		if err := s.Delete(ctx, m.from); err != nil {
			return report, err
		}
		report.Removed = append(report.Removed, m.from)
	}
	return report, nil
}

func migrateValue(ctx context.Context, s Store, m migration, old string) (bool, error) {
	if !m.overwrite {
		_, err := s.Get(ctx, m.to)
		if err == nil {
			return false, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return false, err
		}
	}

	value := old
	if m.transform != nil {
		v, err := m.transform(old)
		if err != nil {
			return false, fmt.Errorf("%w: %v", errUnreadable, err)
		}
		value = v
	}
	if err := s.Set(ctx, m.to, value); err != nil {
		return false, err
	}
	return true, nil
}

// RenamePlatformRoles renames the platformRoles field of a serialized user
// profile to userGroups. Every other field is carried over as-is.
func RenamePlatformRoles(profile string) (string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(profile), &fields); err != nil {
		return "", fmt.Errorf("parse legacy profile: %w", err)
	}
	roles, ok := fields["platformRoles"]
	if !ok {
		return profile, nil
	}
	fields["userGroups"] = roles
	delete(fields, "platformRoles")

	out, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encode profile: %w", err)
	}
	return string(out), nil
}

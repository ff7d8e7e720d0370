package storage

import "context"

// TouchUser records a Tailscale login, creating the user on first sight.
// Updates last_seen and display_name on each call.
func (db *DB) TouchUser(ctx context.Context, login, displayName string) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO users (login, display_name)
		VALUES ($1, $2)
		ON CONFLICT (login) DO UPDATE
			SET last_seen = NOW(), display_name = COALESCE(NULLIF($2, ''), users.display_name)
	`, login, displayName)
	return err
}

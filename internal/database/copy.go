package database

import (
	"context"
	"database/sql"
	"fmt"
)

// CopyQuests copies every stored quest from src into dst. Heroes that already have a
// quest in dst are left alone. With dryRun set nothing is written and the returned
// count is the number of rows that would be copied.
func CopyQuests(ctx context.Context, src, dst *Database, dryRun bool) (int64, error) {
	rows, err := src.db.QueryContext(ctx, `
		SELECT hero_id, quest_id, kind, payload, digest, progress, created_at, updated_at
		FROM hero_quests ORDER BY hero_id
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to read source quests: %w", err)
	}
	defer rows.Close()

	exists := dst.qb.Build(`SELECT quest_id FROM hero_quests WHERE hero_id = ?`)
	insert := dst.qb.Build(`
		INSERT INTO hero_quests (hero_id, quest_id, kind, payload, digest, progress, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)

	var count int64
	for rows.Next() {
		var (
			heroID, createdAt, updatedAt             int64
			questID, kind, payload, digest, progress string
		)
		if err := rows.Scan(&heroID, &questID, &kind, &payload, &digest, &progress, &createdAt, &updatedAt); err != nil {
			return count, fmt.Errorf("failed to scan source quest: %w", err)
		}

		var existing string
		err := dst.db.QueryRowContext(ctx, exists, heroID).Scan(&existing)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return count, fmt.Errorf("failed to check hero %d: %w", heroID, err)
		}

		if !dryRun {
			if _, err := dst.db.ExecContext(ctx, insert, heroID, questID, kind, payload, digest, progress, createdAt, updatedAt); err != nil {
				return count, fmt.Errorf("failed to copy quest of hero %d: %w", heroID, err)
			}
		}
		count++
	}
	return count, rows.Err()
}

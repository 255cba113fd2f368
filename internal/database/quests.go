package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/paniker63/the-tale/internal/metrics"
	"github.com/paniker63/the-tale/internal/quest"
)

// ErrNotFound is returned when a hero has no stored quest.
var ErrNotFound = errors.New("quest not found")

// QuestRecord is a hero's stored quest together with its progress.
type QuestRecord struct {
	HeroID    int64
	QuestID   string
	Kind      quest.Kind
	Quest     *quest.Quest
	Progress  *quest.Progress
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SaveQuest stores q as the hero's active quest, replacing any previous one.
func (d *Database) SaveQuest(ctx context.Context, heroID int64, q *quest.Quest, p *quest.Progress) error {
	payload, err := quest.Marshal(q)
	if err != nil {
		return fmt.Errorf("failed to serialize quest: %w", err)
	}
	if p == nil {
		p = quest.NewProgress(q)
	}

	now := time.Now().Unix()
	_, err = d.db.ExecContext(ctx, d.qb.Build(`
		INSERT INTO hero_quests (hero_id, quest_id, kind, payload, digest, progress, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hero_id) DO UPDATE SET
			quest_id = excluded.quest_id,
			kind = excluded.kind,
			payload = excluded.payload,
			digest = excluded.digest,
			progress = excluded.progress,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`), heroID, q.ID, string(q.Kind), string(payload), quest.Digest(payload), p.ToJSON(), now, now)
	if err != nil {
		return fmt.Errorf("failed to save quest: %w", err)
	}
	return nil
}

// LoadQuest loads the hero's active quest. Stored data that fails its digest or cannot be
// rebuilt into a complete quest is rejected with quest.ErrCorruptQuest.
func (d *Database) LoadQuest(ctx context.Context, heroID int64, reg *quest.Registry) (*QuestRecord, error) {
	var (
		questID, kind, payload, digest, progress string
		createdAt, updatedAt                     int64
	)
	err := d.db.QueryRowContext(ctx, d.qb.Build(`
		SELECT quest_id, kind, payload, digest, progress, created_at, updated_at
		FROM hero_quests WHERE hero_id = ?
	`), heroID).Scan(&questID, &kind, &payload, &digest, &progress, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		metrics.QuestsLoaded.WithLabelValues("missing").Inc()
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load quest: %w", err)
	}

	rec, err := decodeRecord(reg, heroID, []byte(payload), digest, progress)
	if err != nil {
		metrics.QuestsLoaded.WithLabelValues("corrupt").Inc()
		return nil, err
	}
	if rec.QuestID != questID || string(rec.Kind) != kind {
		metrics.QuestsLoaded.WithLabelValues("corrupt").Inc()
		return nil, fmt.Errorf("%w: row for hero %d describes %s/%s", quest.ErrCorruptQuest, heroID, kind, questID)
	}

	rec.CreatedAt = time.Unix(createdAt, 0)
	rec.UpdatedAt = time.Unix(updatedAt, 0)
	metrics.QuestsLoaded.WithLabelValues("ok").Inc()
	return rec, nil
}

func decodeRecord(reg *quest.Registry, heroID int64, payload []byte, digest, progress string) (*QuestRecord, error) {
	if quest.Digest(payload) != digest {
		return nil, fmt.Errorf("%w: digest mismatch for hero %d", quest.ErrCorruptQuest, heroID)
	}
	q, err := reg.Unmarshal(payload)
	if err != nil {
		return nil, err
	}
	p, err := quest.ProgressFromJSON(progress)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(q); err != nil {
		return nil, err
	}
	return &QuestRecord{
		HeroID:   heroID,
		QuestID:  q.ID,
		Kind:     q.Kind,
		Quest:    q,
		Progress: p,
	}, nil
}

// SaveProgress updates the progress of the hero's active quest.
func (d *Database) SaveProgress(ctx context.Context, heroID int64, p *quest.Progress) error {
	result, err := d.db.ExecContext(ctx, d.qb.Build(`
		UPDATE hero_quests SET progress = ?, updated_at = ? WHERE hero_id = ? AND quest_id = ?
	`), p.ToJSON(), time.Now().Unix(), heroID, p.QuestID)
	if err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteQuest removes the hero's active quest.
func (d *Database) DeleteQuest(ctx context.Context, heroID int64) error {
	result, err := d.db.ExecContext(ctx, d.qb.Build(`DELETE FROM hero_quests WHERE hero_id = ?`), heroID)
	if err != nil {
		return fmt.Errorf("failed to delete quest: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete quest: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// CountQuests returns the number of stored quests.
func (d *Database) CountQuests(ctx context.Context) (int, error) {
	var n int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM hero_quests`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count quests: %w", err)
	}
	return n, nil
}

// CountByKind returns the number of stored quests per kind.
func (d *Database) CountByKind(ctx context.Context) (map[quest.Kind]int, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM hero_quests GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to count quests: %w", err)
	}
	defer rows.Close()

	counts := make(map[quest.Kind]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("failed to scan quest count: %w", err)
		}
		counts[quest.Kind(kind)] = n
	}
	return counts, rows.Err()
}

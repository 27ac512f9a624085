package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/tripman/internal/model"
)

// PostgresMembershipRepo はPostgreSQLを使用した所属関係リポジトリ。
// (user_id, event_id, role) の3つ組を保持し、
// 「このユーザーはどのイベントに所属しているか」に答える。
type PostgresMembershipRepo struct {
	db *sql.DB
}

// NewPostgresMembershipRepo はPostgresMembershipRepoを生成する。
func NewPostgresMembershipRepo(db *sql.DB) *PostgresMembershipRepo {
	return &PostgresMembershipRepo{db: db}
}

// ListEventIDs は指定ユーザーが所属するイベントIDを追加順で返す。
func (r *PostgresMembershipRepo) ListEventIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT event_id FROM user_events WHERE user_id = $1 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list event IDs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan event ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate event IDs: %w", err)
	}

	return ids, nil
}

// Find は指定の所属関係を返す。存在しない場合はnilを返す。
func (r *PostgresMembershipRepo) Find(ctx context.Context, userID, eventID string) (*model.Membership, error) {
	m := &model.Membership{}
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, event_id, role, created_at
		 FROM user_events
		 WHERE user_id = $1 AND event_id = $2`,
		userID, eventID,
	).Scan(&m.UserID, &m.EventID, &m.Role, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find membership: %w", err)
	}
	return m, nil
}

// Add は所属関係を追加する。既に存在する場合は何もしない。
func (r *PostgresMembershipRepo) Add(ctx context.Context, userID, eventID string, role model.MembershipRole) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_events (user_id, event_id, role)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, event_id) DO NOTHING`,
		userID, eventID, role,
	)
	if err != nil {
		return fmt.Errorf("failed to add membership: %w", err)
	}
	return nil
}

// Remove は所属関係を削除する。存在しない場合も成功として扱う。
func (r *PostgresMembershipRepo) Remove(ctx context.Context, userID, eventID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM user_events WHERE user_id = $1 AND event_id = $2`,
		userID, eventID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove membership: %w", err)
	}
	return nil
}

// DeleteByUserID は指定ユーザーの全所属関係を削除する。
func (r *PostgresMembershipRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM user_events WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user memberships: %w", err)
	}
	return nil
}

// compile-time interface check
var _ MembershipRepository = (*PostgresMembershipRepo)(nil)

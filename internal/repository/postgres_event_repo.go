package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/tripman/internal/model"
)

// PostgresEventRepo はPostgreSQLを使用したイベントリポジトリ。
// イベント集約全体を1つのJSONBドキュメントとして保存する。
// ドキュメントは読み書きの単位であり、部分更新は行わない。
type PostgresEventRepo struct {
	db *sql.DB
}

// NewPostgresEventRepo はPostgresEventRepoを生成する。
func NewPostgresEventRepo(db *sql.DB) *PostgresEventRepo {
	return &PostgresEventRepo{db: db}
}

// FindByID は指定IDのイベントを取得する。見つからない場合はnilを返す。
func (r *PostgresEventRepo) FindByID(ctx context.Context, id string) (*model.Event, error) {
	var doc []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT doc FROM events WHERE id = $1`,
		id,
	).Scan(&doc)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find event by ID: %w", err)
	}

	return unmarshalEvent(doc)
}

// FindByIDs は指定IDのイベント群を引数の順序で返す。
// 存在しないIDは結果から除かれる。
func (r *PostgresEventRepo) FindByIDs(ctx context.Context, ids []string) ([]*model.Event, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, doc FROM events WHERE id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find events by IDs: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*model.Event, len(ids))
	for rows.Next() {
		var id string
		var doc []byte
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		event, err := unmarshalEvent(doc)
		if err != nil {
			return nil, err
		}
		byID[id] = event
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}

	// 引数の順序（所属の追加順）を保つ
	events := make([]*model.Event, 0, len(byID))
	for _, id := range ids {
		if event, ok := byID[id]; ok {
			events = append(events, event)
		}
	}
	return events, nil
}

// Create はイベントを作成する。
func (r *PostgresEventRepo) Create(ctx context.Context, event *model.Event) error {
	doc, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO events (id, owner_id, doc) VALUES ($1, $2, $3)`,
		event.ID, event.OwnerID, doc,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// Update はイベント全体を上書き保存する。対象が存在しない場合はエラーを返す。
func (r *PostgresEventRepo) Update(ctx context.Context, event *model.Event) error {
	doc, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE events SET owner_id = $1, doc = $2, updated_at = now() WHERE id = $3`,
		event.OwnerID, doc, event.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("event not found: %s", event.ID)
	}
	return nil
}

// DeleteByID は指定IDのイベントを削除する。
func (r *PostgresEventRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM events WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("event not found: %s", id)
	}
	return nil
}

// unmarshalEvent はJSONBドキュメントをイベントに復元する。
func unmarshalEvent(doc []byte) (*model.Event, error) {
	event := &model.Event{}
	if err := json.Unmarshal(doc, event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event document: %w", err)
	}
	return event, nil
}

// compile-time interface check
var _ EventRepository = (*PostgresEventRepo)(nil)

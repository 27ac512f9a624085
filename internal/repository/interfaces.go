// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/tripman/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByName は指定名のユーザーを取得する。見つからない場合はnilを返す。
	// ユーザー名は一意制約を持つ。
	FindByName(ctx context.Context, name string) (*model.User, error)

	// Create はユーザーを作成する。名前が重複する場合はエラーを返す。
	Create(ctx context.Context, user *model.User) error

	// List は全ユーザーを登録順で返す。
	List(ctx context.Context) ([]*model.User, error)

	// UpdateRole は指定ユーザーの権限を更新する。
	UpdateRole(ctx context.Context, id string, role model.UserRole) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するsessionsはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// EventRepository はイベント集約の永続化インターフェース。
// イベントはIDをキーとする不透明なドキュメントとして保存される。
// トランザクション保証はなく、同時書き込みは最後の書き込みが勝つ。
type EventRepository interface {
	// FindByID は指定IDのイベントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Event, error)

	// FindByIDs は指定IDのイベント群を引数の順序で返す。
	// 存在しないIDは結果から除かれる。
	FindByIDs(ctx context.Context, ids []string) ([]*model.Event, error)

	// Create はイベントを作成する。
	Create(ctx context.Context, event *model.Event) error

	// Update はイベント全体を上書き保存する。
	// 対象が存在しない場合はエラーを返す。
	Update(ctx context.Context, event *model.Event) error

	// DeleteByID は指定IDのイベントを削除する。
	DeleteByID(ctx context.Context, id string) error
}

// MembershipRepository はユーザーとイベントの所属関係の永続化インターフェース。
type MembershipRepository interface {
	// ListEventIDs は指定ユーザーが所属するイベントIDを追加順で返す。
	ListEventIDs(ctx context.Context, userID string) ([]string, error)

	// Find は指定の所属関係を返す。存在しない場合はnilを返す（エラーにしない）。
	Find(ctx context.Context, userID, eventID string) (*model.Membership, error)

	// Add は所属関係を追加する。既に存在する場合は何もしない（エラーにしない）。
	Add(ctx context.Context, userID, eventID string, role model.MembershipRole) error

	// Remove は所属関係を削除する。存在しない場合は何もしない（エラーにしない）。
	Remove(ctx context.Context, userID, eventID string) error

	// DeleteByUserID は指定ユーザーの全所属関係を削除する。退会処理で使用する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// Package model はドメインモデルを定義する。
package model

import "time"

// UserRole はユーザーの権限種別を表す。
type UserRole string

const (
	// UserRoleAdmin は管理者。ユーザー管理操作を実行できる。
	UserRoleAdmin UserRole = "admin"
	// UserRoleUser は一般ユーザー。
	UserRoleUser UserRole = "user"
)

// User はサービス利用ユーザーを表す。
// PasswordHashはbcryptハッシュであり、APIレスポンスには決して含めない。
type User struct {
	ID           string
	Name         string
	PasswordHash string
	Role         UserRole
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

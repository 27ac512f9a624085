// Package user はユーザー管理（退会・管理者操作）を提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/tripman/internal/model"
	"github.com/hitoshi/tripman/internal/repository"
)

// Service はユーザー管理に関するビジネスロジックを提供する。
type Service struct {
	userRepo       repository.UserRepository
	sessionRepo    repository.SessionRepository
	membershipRepo repository.MembershipRepository
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	membershipRepo repository.MembershipRepository,
) *Service {
	return &Service{
		userRepo:       userRepo,
		sessionRepo:    sessionRepo,
		membershipRepo: membershipRepo,
	}
}

// Withdraw はユーザーを退会させる。
// イベントへの参加記録、セッション、ユーザー本体の順に削除する。
// 参加していたイベント自体は他の参加者のために残す。
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	if err := s.membershipRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete memberships: %w", err)
	}

	if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}

	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("user withdrawn", slog.String("user_id", userID))
	return nil
}

// List は全ユーザーを返す。管理者専用。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateRole はユーザーのロールを変更する。管理者専用。
func (s *Service) UpdateRole(ctx context.Context, userID string, role model.UserRole) error {
	if role != model.UserRoleAdmin && role != model.UserRoleUser {
		return model.NewInvalidRequestError(fmt.Sprintf("不正なロールです: %s", role))
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	if err := s.userRepo.UpdateRole(ctx, userID, role); err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}

	slog.Info("user role updated",
		slog.String("user_id", userID),
		slog.String("role", string(role)),
	)
	return nil
}

// Delete は管理者によるユーザー削除。退会と同じ手順で削除する。
func (s *Service) Delete(ctx context.Context, userID string) error {
	return s.Withdraw(ctx, userID)
}

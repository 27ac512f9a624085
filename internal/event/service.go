// Package event はイベント（旅行計画）の作成・更新・共有を提供する。
// イベントの永続状態を変更する唯一の経路であり、日付範囲の変更時には
// 必ずスケジュール再導出を経由させる。
package event

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/hitoshi/tripman/internal/model"
	"github.com/hitoshi/tripman/internal/repository"
	"github.com/hitoshi/tripman/internal/schedule"
	"github.com/hitoshi/tripman/internal/security"
)

// DefaultEventTitle はタイトル未指定で作成されたイベントの初期タイトル。
const DefaultEventTitle = "新しいイベント"

// UsageRecorder はイベント操作のメトリクスを記録する。
type UsageRecorder interface {
	EventCreated()
	EventUpdated()
	EventDeleted()
	EventImported()
	ScheduleDerived(orphanedCards int)
}

// CreateEventInput はイベント作成時の初期値。
// 日付が未指定の場合は当日から始まる1日のイベントになる。
type CreateEventInput struct {
	Title     string      `json:"title"`
	Location  string      `json:"location"`
	StartDate *model.Date `json:"startDate"`
	EndDate   *model.Date `json:"endDate"`
}

// Service はイベントに関するビジネスロジックを提供する。
// 読み取りはインメモリキャッシュを経由し、書き込みは
// 永続化が成功した後にのみキャッシュへ反映する。
type Service struct {
	eventRepo      repository.EventRepository
	membershipRepo repository.MembershipRepository
	sanitizer      security.TextSanitizerService
	recorder       UsageRecorder
	baseURL        string

	mu    sync.RWMutex
	cache map[string]*model.Event
}

// NewService はServiceを生成する。
func NewService(
	eventRepo repository.EventRepository,
	membershipRepo repository.MembershipRepository,
	sanitizer security.TextSanitizerService,
	recorder UsageRecorder,
	baseURL string,
) *Service {
	return &Service{
		eventRepo:      eventRepo,
		membershipRepo: membershipRepo,
		sanitizer:      sanitizer,
		recorder:       recorder,
		baseURL:        baseURL,
		cache:          make(map[string]*model.Event),
	}
}

// Create は新しいイベントを作成し、作成者をオーナーとして登録する。
func (s *Service) Create(ctx context.Context, user *model.User, input CreateEventInput) (*model.Event, error) {
	if user == nil {
		return nil, model.NewUnauthenticatedError()
	}

	start := model.Today()
	if input.StartDate != nil {
		start = *input.StartDate
	}
	end := start
	if input.EndDate != nil {
		end = *input.EndDate
	}

	days, floating, err := schedule.Derive(nil, nil, start, end)
	if err != nil {
		return nil, err
	}

	title := input.Title
	if title == "" {
		title = DefaultEventTitle
	}

	event := &model.Event{
		ID:            uuid.New().String(),
		Title:         s.sanitizer.Sanitize(title),
		Location:      s.sanitizer.Sanitize(input.Location),
		StartDate:     start,
		EndDate:       end,
		OwnerID:       user.ID,
		People:        []model.Person{model.NewPerson(user.ID, user.Name)},
		Days:          days,
		FloatingCards: floating,
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	if err := s.membershipRepo.Add(ctx, user.ID, event.ID, model.RoleOwner); err != nil {
		return nil, fmt.Errorf("failed to add owner membership: %w", err)
	}

	s.storeCache(event)
	s.recorder.EventCreated()

	slog.Info("event created",
		slog.String("event_id", event.ID),
		slog.String("owner_id", user.ID),
	)

	return event, nil
}

// Update はイベントを部分更新する。
// 日付範囲の変更が含まれる場合は、他のフィールドをマージする前に
// スケジュールを再導出し、DaysとFloatingCardsを導出結果で置き換える。
// キャッシュは永続化が成功した後にのみ更新する。
func (s *Service) Update(ctx context.Context, id string, patch *model.EventPatch) (*model.Event, error) {
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, model.NewEventNotFoundError(id)
	}

	merged := *current

	if patch.Title != nil {
		merged.Title = s.sanitizer.Sanitize(*patch.Title)
	}
	if patch.Location != nil {
		merged.Location = s.sanitizer.Sanitize(*patch.Location)
	}
	if patch.People != nil {
		merged.People = sanitizePeople(s.sanitizer, *patch.People)
	}
	if patch.Days != nil {
		merged.Days = sanitizeDays(s.sanitizer, *patch.Days)
	}
	if patch.FloatingCards != nil {
		merged.FloatingCards = sanitizeCards(s.sanitizer, *patch.FloatingCards)
	}

	if patch.StartDate != nil || patch.EndDate != nil {
		start := current.StartDate
		if patch.StartDate != nil {
			start = *patch.StartDate
		}
		end := current.EndDate
		if patch.EndDate != nil {
			end = *patch.EndDate
		}

		days, floating, err := schedule.Derive(current.Days, current.FloatingCards, start, end)
		if err != nil {
			return nil, err
		}

		orphaned := len(floating) - len(current.FloatingCards)
		s.recorder.ScheduleDerived(orphaned)
		if orphaned > 0 {
			slog.Info("cards demoted to floating",
				slog.String("event_id", id),
				slog.Int("orphaned_cards", orphaned),
			)
		}

		merged.StartDate = start
		merged.EndDate = end
		merged.Days = days
		merged.FloatingCards = floating
	}

	if err := s.eventRepo.Update(ctx, &merged); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	s.storeCache(&merged)
	s.recorder.EventUpdated()

	return &merged, nil
}

// Delete はイベントを削除する。オーナーのみが実行できる。
// 他の参加者の参加記録は削除しない。
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if userID == "" {
		return model.NewUnauthenticatedError()
	}

	event, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if event == nil {
		return model.NewEventNotFoundError(id)
	}
	if event.OwnerID != userID {
		return model.NewForbiddenError()
	}

	if err := s.eventRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	if err := s.membershipRepo.Remove(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to remove membership: %w", err)
	}

	s.dropCache(id)
	s.recorder.EventDeleted()

	slog.Info("event deleted",
		slog.String("event_id", id),
		slog.String("user_id", userID),
	)

	return nil
}

// Import は共有リンク経由でイベントに参加する。
// 既に参加済みの場合は何も変更しない（冪等）。
func (s *Service) Import(ctx context.Context, user *model.User, id string) (*model.Event, error) {
	if user == nil {
		return nil, model.NewUnauthenticatedError()
	}

	event, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, model.NewEventNotFoundError(id)
	}

	if !event.HasPerson(user.ID) {
		updated := *event
		updated.People = append(append([]model.Person{}, event.People...), model.NewPerson(user.ID, user.Name))

		if err := s.eventRepo.Update(ctx, &updated); err != nil {
			return nil, fmt.Errorf("failed to add participant: %w", err)
		}
		s.storeCache(&updated)
		event = &updated
	}

	membership, err := s.membershipRepo.Find(ctx, user.ID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if membership == nil {
		if err := s.membershipRepo.Add(ctx, user.ID, id, model.RoleParticipant); err != nil {
			return nil, fmt.Errorf("failed to add membership: %w", err)
		}

		s.recorder.EventImported()
		slog.Info("event imported",
			slog.String("event_id", id),
			slog.String("user_id", user.ID),
		)
	}

	return event, nil
}

// Get はイベントを1件取得する。
func (s *Service) Get(ctx context.Context, id string) (*model.Event, error) {
	event, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, model.NewEventNotFoundError(id)
	}
	return event, nil
}

// ListForUser はユーザーが参加しているイベントの一覧を返す。
func (s *Service) ListForUser(ctx context.Context, userID string) ([]*model.Event, error) {
	ids, err := s.membershipRepo.ListEventIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list event IDs: %w", err)
	}
	if len(ids) == 0 {
		return []*model.Event{}, nil
	}

	events, err := s.eventRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to find events: %w", err)
	}
	return events, nil
}

// Share はイベントの共有URLを返す。
// URLを開いた認証済みユーザーはImportの経路で参加者になる。
func (s *Service) Share(ctx context.Context, id string) (string, error) {
	event, err := s.find(ctx, id)
	if err != nil {
		return "", err
	}
	if event == nil {
		return "", model.NewEventNotFoundError(id)
	}
	return fmt.Sprintf("%s/event/%s", s.baseURL, id), nil
}

// SharedParticipants はユーザーが参加している全イベントの参加者を
// 重複なく返す。同一IDの参加者は最初の出現を採用する。
func (s *Service) SharedParticipants(ctx context.Context, userID string) ([]model.Person, error) {
	events, err := s.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	people := []model.Person{}
	for _, e := range events {
		for _, p := range e.People {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			people = append(people, p)
		}
	}
	return people, nil
}

// find はキャッシュを優先してイベントを取得する。
// 見つからない場合はnilを返す。
func (s *Service) find(ctx context.Context, id string) (*model.Event, error) {
	s.mu.RLock()
	cached, ok := s.cache[id]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	event, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find event: %w", err)
	}
	if event == nil {
		return nil, nil
	}

	s.storeCache(event)
	return event, nil
}

func (s *Service) storeCache(event *model.Event) {
	s.mu.Lock()
	s.cache[event.ID] = event
	s.mu.Unlock()
}

func (s *Service) dropCache(id string) {
	s.mu.Lock()
	delete(s.cache, id)
	s.mu.Unlock()
}

func sanitizePeople(sanitizer security.TextSanitizerService, people []model.Person) []model.Person {
	out := make([]model.Person, len(people))
	for i, p := range people {
		p.Name = sanitizer.Sanitize(p.Name)
		p.Initials = model.DeriveInitials(p.Name)
		for j, interest := range p.Interests {
			p.Interests[j] = sanitizer.Sanitize(interest)
		}
		out[i] = p
	}
	return out
}

func sanitizeDays(sanitizer security.TextSanitizerService, days []model.Day) []model.Day {
	out := make([]model.Day, len(days))
	for i, d := range days {
		d.Cards = sanitizeCards(sanitizer, d.Cards)
		out[i] = d
	}
	return out
}

func sanitizeCards(sanitizer security.TextSanitizerService, cards []model.Card) []model.Card {
	out := make([]model.Card, len(cards))
	for i, c := range cards {
		c.Title = sanitizer.Sanitize(c.Title)
		c.Location = sanitizer.Sanitize(c.Location)
		notes := make([]model.Note, len(c.Notes))
		for j, n := range c.Notes {
			n.Text = sanitizer.Sanitize(n.Text)
			notes[j] = n
		}
		c.Notes = notes
		out[i] = c
	}
	return out
}

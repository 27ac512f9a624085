package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/tripman/internal/event"
	"github.com/hitoshi/tripman/internal/middleware"
	"github.com/hitoshi/tripman/internal/model"
)

// mockEventService はテスト用のEventServiceInterfaceモック。
type mockEventService struct {
	createFunc             func(ctx context.Context, user *model.User, input event.CreateEventInput) (*model.Event, error)
	getFunc                func(ctx context.Context, id string) (*model.Event, error)
	listForUserFunc        func(ctx context.Context, userID string) ([]*model.Event, error)
	updateFunc             func(ctx context.Context, id string, patch *model.EventPatch) (*model.Event, error)
	deleteFunc             func(ctx context.Context, userID, id string) error
	importFunc             func(ctx context.Context, user *model.User, id string) (*model.Event, error)
	shareFunc              func(ctx context.Context, id string) (string, error)
	sharedParticipantsFunc func(ctx context.Context, userID string) ([]model.Person, error)
}

func (m *mockEventService) Create(ctx context.Context, user *model.User, input event.CreateEventInput) (*model.Event, error) {
	return m.createFunc(ctx, user, input)
}

func (m *mockEventService) Get(ctx context.Context, id string) (*model.Event, error) {
	return m.getFunc(ctx, id)
}

func (m *mockEventService) ListForUser(ctx context.Context, userID string) ([]*model.Event, error) {
	return m.listForUserFunc(ctx, userID)
}

func (m *mockEventService) Update(ctx context.Context, id string, patch *model.EventPatch) (*model.Event, error) {
	return m.updateFunc(ctx, id, patch)
}

func (m *mockEventService) Delete(ctx context.Context, userID, id string) error {
	return m.deleteFunc(ctx, userID, id)
}

func (m *mockEventService) Import(ctx context.Context, user *model.User, id string) (*model.Event, error) {
	return m.importFunc(ctx, user, id)
}

func (m *mockEventService) Share(ctx context.Context, id string) (string, error) {
	return m.shareFunc(ctx, id)
}

func (m *mockEventService) SharedParticipants(ctx context.Context, userID string) ([]model.Person, error) {
	return m.sharedParticipantsFunc(ctx, userID)
}

// mockUserFinder はテスト用のUserFinderモック。
type mockUserFinder struct {
	findByIDFunc func(ctx context.Context, id string) (*model.User, error)
}

func (m *mockUserFinder) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.findByIDFunc(ctx, id)
}

func knownUserFinder() *mockUserFinder {
	return &mockUserFinder{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Name: "alice", Role: model.UserRoleUser}, nil
		},
	}
}

// authedRequest は認証済みユーザーIDをコンテキストに持つリクエストを生成する。
func authedRequest(method, target, body, userID string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(middleware.ContextWithUserID(req.Context(), userID))
}

// withURLParam はchiのURLパラメータをリクエストに設定する。
func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// TestEventHandler_CreateEvent はイベント作成の処理をテストする。
func TestEventHandler_CreateEvent(t *testing.T) {
	t.Run("成功は201", func(t *testing.T) {
		service := &mockEventService{
			createFunc: func(ctx context.Context, user *model.User, input event.CreateEventInput) (*model.Event, error) {
				if user.ID != "user-1" {
					t.Errorf("expected user-1, got %s", user.ID)
				}
				if input.Title != "温泉旅行" {
					t.Errorf("unexpected title: %s", input.Title)
				}
				return &model.Event{ID: "event-1", Title: input.Title, OwnerID: user.ID}, nil
			},
		}
		h := NewEventHandler(service, knownUserFinder())

		req := authedRequest(http.MethodPost, "/api/events", `{"title":"温泉旅行"}`, "user-1")
		rec := httptest.NewRecorder()

		h.CreateEvent(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}

		var body model.Event
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if body.ID != "event-1" {
			t.Errorf("unexpected event: %+v", body)
		}
	})

	t.Run("未認証は401", func(t *testing.T) {
		h := NewEventHandler(&mockEventService{}, knownUserFinder())

		req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()

		h.CreateEvent(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})
}

// TestEventHandler_UpdateEvent は部分更新の処理をテストする。
func TestEventHandler_UpdateEvent(t *testing.T) {
	t.Run("成功", func(t *testing.T) {
		service := &mockEventService{
			updateFunc: func(ctx context.Context, id string, patch *model.EventPatch) (*model.Event, error) {
				if id != "event-1" {
					t.Errorf("expected event-1, got %s", id)
				}
				if patch.Title == nil || *patch.Title != "改訂版" {
					t.Errorf("unexpected patch: %+v", patch)
				}
				return &model.Event{ID: id, Title: *patch.Title}, nil
			},
		}
		h := NewEventHandler(service, knownUserFinder())

		req := authedRequest(http.MethodPatch, "/api/events/event-1", `{"title":"改訂版"}`, "user-1")
		req = withURLParam(req, "id", "event-1")
		rec := httptest.NewRecorder()

		h.UpdateEvent(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("存在しないイベントは404", func(t *testing.T) {
		service := &mockEventService{
			updateFunc: func(ctx context.Context, id string, patch *model.EventPatch) (*model.Event, error) {
				return nil, model.NewEventNotFoundError(id)
			},
		}
		h := NewEventHandler(service, knownUserFinder())

		req := authedRequest(http.MethodPatch, "/api/events/missing", `{}`, "user-1")
		req = withURLParam(req, "id", "missing")
		rec := httptest.NewRecorder()

		h.UpdateEvent(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("不正な期間は400", func(t *testing.T) {
		service := &mockEventService{
			updateFunc: func(ctx context.Context, id string, patch *model.EventPatch) (*model.Event, error) {
				start, _ := model.ParseDate("2026-09-10")
				end, _ := model.ParseDate("2026-09-07")
				return nil, model.NewInvalidRangeError(start, end)
			},
		}
		h := NewEventHandler(service, knownUserFinder())

		req := authedRequest(http.MethodPatch, "/api/events/event-1", `{"startDate":"2026-09-10"}`, "user-1")
		req = withURLParam(req, "id", "event-1")
		rec := httptest.NewRecorder()

		h.UpdateEvent(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}

		var body apiErrorResponse
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if body.Code != model.ErrCodeInvalidRange {
			t.Errorf("expected code %s, got %s", model.ErrCodeInvalidRange, body.Code)
		}
	})
}

// TestEventHandler_DeleteEvent は削除の処理と権限エラーをテストする。
func TestEventHandler_DeleteEvent(t *testing.T) {
	t.Run("成功は204", func(t *testing.T) {
		service := &mockEventService{
			deleteFunc: func(ctx context.Context, userID, id string) error {
				return nil
			},
		}
		h := NewEventHandler(service, knownUserFinder())

		req := authedRequest(http.MethodDelete, "/api/events/event-1", "", "user-1")
		req = withURLParam(req, "id", "event-1")
		rec := httptest.NewRecorder()

		h.DeleteEvent(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
	})

	t.Run("オーナー以外は403", func(t *testing.T) {
		service := &mockEventService{
			deleteFunc: func(ctx context.Context, userID, id string) error {
				return model.NewForbiddenError()
			},
		}
		h := NewEventHandler(service, knownUserFinder())

		req := authedRequest(http.MethodDelete, "/api/events/event-1", "", "user-2")
		req = withURLParam(req, "id", "event-1")
		rec := httptest.NewRecorder()

		h.DeleteEvent(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
	})
}

// TestEventHandler_ShareEvent は共有URL取得をテストする。
func TestEventHandler_ShareEvent(t *testing.T) {
	service := &mockEventService{
		shareFunc: func(ctx context.Context, id string) (string, error) {
			return "https://tripman.example.com/event/" + id, nil
		},
	}
	h := NewEventHandler(service, knownUserFinder())

	req := authedRequest(http.MethodGet, "/api/events/event-1/share", "", "user-1")
	req = withURLParam(req, "id", "event-1")
	rec := httptest.NewRecorder()

	h.ShareEvent(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body shareResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.ShareURL != "https://tripman.example.com/event/event-1" {
		t.Errorf("unexpected share URL: %s", body.ShareURL)
	}
}

// TestEventHandler_ImportEvent はインポートの処理をテストする。
func TestEventHandler_ImportEvent(t *testing.T) {
	service := &mockEventService{
		importFunc: func(ctx context.Context, user *model.User, id string) (*model.Event, error) {
			if id == "event-1" {
				return &model.Event{ID: id}, nil
			}
			return nil, model.NewEventNotFoundError(id)
		},
	}
	h := NewEventHandler(service, knownUserFinder())

	t.Run("成功", func(t *testing.T) {
		req := authedRequest(http.MethodPost, "/api/events/event-1/import", "", "user-2")
		req = withURLParam(req, "id", "event-1")
		rec := httptest.NewRecorder()

		h.ImportEvent(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("存在しないイベントは404", func(t *testing.T) {
		req := authedRequest(http.MethodPost, "/api/events/missing/import", "", "user-2")
		req = withURLParam(req, "id", "missing")
		rec := httptest.NewRecorder()

		h.ImportEvent(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

// TestEventHandler_ListParticipants は参加者一覧の取得をテストする。
func TestEventHandler_ListParticipants(t *testing.T) {
	service := &mockEventService{
		sharedParticipantsFunc: func(ctx context.Context, userID string) ([]model.Person, error) {
			return []model.Person{
				model.NewPerson("user-1", "alice"),
				model.NewPerson("user-2", "bob"),
			}, nil
		},
	}
	h := NewEventHandler(service, knownUserFinder())

	req := authedRequest(http.MethodGet, "/api/participants", "", "user-1")
	rec := httptest.NewRecorder()

	h.ListParticipants(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var people []model.Person
	if err := json.NewDecoder(rec.Body).Decode(&people); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(people) != 2 {
		t.Errorf("expected 2 participants, got %d", len(people))
	}
}

package repository

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/hitoshi/tripman/internal/model"
)

// 各PostgresリポジトリがインターフェースTを満たすことを検証
func TestPostgresRepos_ImplementInterfaces(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
	var _ SessionRepository = (*PostgresSessionRepo)(nil)
	var _ EventRepository = (*PostgresEventRepo)(nil)
	var _ MembershipRepository = (*PostgresMembershipRepo)(nil)
}

// 各コンストラクタが正しく初期化されることを検証
func TestNewPostgresRepos_Initialize(t *testing.T) {
	if NewPostgresUserRepo(nil) == nil {
		t.Error("expected non-nil user repo")
	}
	if NewPostgresSessionRepo(nil) == nil {
		t.Error("expected non-nil session repo")
	}
	if NewPostgresEventRepo(nil) == nil {
		t.Error("expected non-nil event repo")
	}
	if NewPostgresMembershipRepo(nil) == nil {
		t.Error("expected non-nil membership repo")
	}
}

// イベント集約がJSONBドキュメントとしてラウンドトリップすることを検証
// （DB接続なしでシリアライズロジックのみ検証）
func TestEventDocument_RoundTrip(t *testing.T) {
	original := &model.Event{
		ID:        "ev-1",
		Title:     "Mountain weekend",
		Location:  "Nagano",
		StartDate: model.NewDate(2025, time.March, 7),
		EndDate:   model.NewDate(2025, time.March, 9),
		OwnerID:   "user-1",
		People:    []model.Person{model.NewPerson("user-1", "Alice Example")},
		Days: []model.Day{
			{
				ID:    "2025-03-07",
				Title: "Friday",
				Date:  model.NewDate(2025, time.March, 7),
				Cards: []model.Card{
					{
						ID:    "card-1",
						Title: "Drive up",
						Time:  "09:00",
						Notes: []model.Note{
							{ID: "note-1", Text: "check tire chains", CreatedAt: time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)},
						},
					},
				},
			},
			{ID: "2025-03-08", Title: "Saturday", Date: model.NewDate(2025, time.March, 8), Cards: []model.Card{}},
			{ID: "2025-03-09", Title: "Sunday", Date: model.NewDate(2025, time.March, 9), Cards: []model.Card{}},
		},
		FloatingCards: []model.Card{
			{ID: "card-2", Title: "Onsen", Notes: []model.Note{}},
		},
	}

	doc, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	restored, err := unmarshalEvent(doc)
	if err != nil {
		t.Fatalf("unmarshalEvent failed: %v", err)
	}

	if restored.ID != original.ID || restored.Title != original.Title {
		t.Errorf("restored = %+v, want %+v", restored, original)
	}
	if !restored.StartDate.Equal(original.StartDate) || !restored.EndDate.Equal(original.EndDate) {
		t.Errorf("dates did not round trip: %v-%v", restored.StartDate, restored.EndDate)
	}
	if len(restored.Days) != 3 {
		t.Fatalf("len(Days) = %d, want 3", len(restored.Days))
	}
	if restored.Days[0].ID != "2025-03-07" || len(restored.Days[0].Cards) != 1 {
		t.Errorf("day 0 did not round trip: %+v", restored.Days[0])
	}
	if restored.Days[0].Cards[0].Notes[0].Text != "check tire chains" {
		t.Errorf("note text did not round trip")
	}
	if len(restored.FloatingCards) != 1 || restored.FloatingCards[0].ID != "card-2" {
		t.Errorf("floating cards did not round trip: %+v", restored.FloatingCards)
	}
}

// 壊れたドキュメントがエラーになることを検証
func TestUnmarshalEvent_InvalidDocument(t *testing.T) {
	if _, err := unmarshalEvent([]byte(`{broken`)); err == nil {
		t.Fatal("expected error for invalid document, got nil")
	}
}

// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// Person はイベントの参加者を表す。
// 登録ユーザーの場合はIDがユーザーIDと一致し、
// その場限りの参加者の場合はローカル生成のIDを持つ。
type Person struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Initials  string   `json:"initials"`
	Color     string   `json:"color"`
	Interests []string `json:"interests"`
}

// DefaultPersonColor は参加者の表示色の初期値。
const DefaultPersonColor = "#8B4513"

// NewPerson は名前からイニシャルを導出してPersonを生成する。
func NewPerson(id, name string) Person {
	return Person{
		ID:        id,
		Name:      name,
		Initials:  DeriveInitials(name),
		Color:     DefaultPersonColor,
		Interests: []string{},
	}
}

// DeriveInitials は名前の各単語の先頭文字を大文字で連結したイニシャルを返す。
func DeriveInitials(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		r := []rune(word)
		b.WriteString(strings.ToUpper(string(r[0])))
	}
	return b.String()
}

// Note はカードに付随するメモを表す。カードが排他的に所有するリーフエンティティ。
type Note struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Card は予定・メモの入れ物を表す。
// いずれか1つのDayのカードリスト、またはイベントのFloatingCardsの
// どちらか片方だけに属する。所属はスライス上の位置で表現され、
// カード自身は所属先への参照を持たない。
type Card struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Time     string `json:"time,omitempty"`
	Location string `json:"location,omitempty"`
	Notes    []Note `json:"notes"`
}

// Day はイベント期間内の1カレンダー日付を表す。
// IDは日付の正準表現（"2006-01-02"）、Titleは日付から導出した曜日名。
type Day struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Date  Date   `json:"date"`
	Cards []Card `json:"cards"`
}

// Event は日付範囲と参加者、日別スケジュールを持つ旅行イベントを表す。
// 不変条件: DaysのIDの集合は [StartDate, EndDate] の全日付の正準表現と
// 一致し、重複も欠落もなく昇順に並ぶ。
type Event struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Location      string   `json:"location"`
	StartDate     Date     `json:"startDate"`
	EndDate       Date     `json:"endDate"`
	OwnerID       string   `json:"ownerId"`
	People        []Person `json:"people"`
	Days          []Day    `json:"days"`
	FloatingCards []Card   `json:"floatingCards"`
}

// HasPerson は指定IDの参加者が含まれるかどうかを返す。
func (e *Event) HasPerson(personID string) bool {
	for _, p := range e.People {
		if p.ID == personID {
			return true
		}
	}
	return false
}

// CardCount は日別カードとフローティングカードの合計枚数を返す。
func (e *Event) CardCount() int {
	n := len(e.FloatingCards)
	for _, d := range e.Days {
		n += len(d.Cards)
	}
	return n
}

// EventPatch はイベントの部分更新を表す。
// nilのフィールドは「変更しない」を意味する。
type EventPatch struct {
	Title         *string   `json:"title"`
	Location      *string   `json:"location"`
	StartDate     *Date     `json:"startDate"`
	EndDate       *Date     `json:"endDate"`
	People        *[]Person `json:"people"`
	Days          *[]Day    `json:"days"`
	FloatingCards *[]Card   `json:"floatingCards"`
}

// MembershipRole はユーザーとイベントの関係種別を表す。
type MembershipRole string

const (
	// RoleOwner はイベントの所有者。削除権限を持つ。
	RoleOwner MembershipRole = "owner"
	// RoleParticipant は共有リンク経由で参加したメンバー。
	RoleParticipant MembershipRole = "participant"
)

// Membership はユーザーとイベントの所属関係を表す。
type Membership struct {
	UserID    string         `json:"userId"`
	EventID   string         `json:"eventId"`
	Role      MembershipRole `json:"role"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"time"
)

// dateLayout はカレンダー日付の正準表現。DayのIDとJSON表現に使用する。
const dateLayout = "2006-01-02"

// Date は日付精度のカレンダー日付を表す値型。
// 時刻・タイムゾーン情報を持たず、JSONでは "2006-01-02" 形式のテキストとして
// ラウンドトリップする。
type Date struct {
	t time.Time
}

// NewDate は年月日からDateを生成する。
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf はtime.Timeから時刻部分を切り捨ててDateを生成する。
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Today は現在時刻のカレンダー日付を返す。
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate は "2006-01-02" 形式の文字列をDateに変換する。
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// String は正準表現 "2006-01-02" を返す。ソート順は日付順と一致する。
func (d Date) String() string {
	return d.t.Format(dateLayout)
}

// Weekday は曜日名（"Monday" 等）を返す。Dayの表示タイトルに使用する。
func (d Date) Weekday() string {
	return d.t.Weekday().String()
}

// AddDays はn日後のDateを返す。nは負でもよい。
func (d Date) AddDays(n int) Date {
	return DateOf(d.t.AddDate(0, 0, n))
}

// After はdがoより後の日付かどうかを返す。
func (d Date) After(o Date) bool {
	return d.t.After(o.t)
}

// Before はdがoより前の日付かどうかを返す。
func (d Date) Before(o Date) bool {
	return d.t.Before(o.t)
}

// Equal はdとoが同一の日付かどうかを返す。
func (d Date) Equal(o Date) bool {
	return d.t.Equal(o.t)
}

// IsZero は未設定のDateかどうかを返す。
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// MarshalJSON は正準表現のJSON文字列を返す。
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON は "2006-01-02" 形式のJSON文字列を解析する。
// 後方互換のため、RFC 3339タイムスタンプ文字列も日付部分のみ採用して受理する。
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date JSON: %s", s)
	}
	s = s[1 : len(s)-1]

	parsed, err := ParseDate(s)
	if err == nil {
		*d = parsed
		return nil
	}

	t, tsErr := time.Parse(time.RFC3339, s)
	if tsErr != nil {
		return err
	}
	*d = DateOf(t)
	return nil
}

// Package schedule はイベントの日付範囲から日別スケジュールを導出する
// 純粋ロジックを提供する。
//
// 日付範囲が変更されたとき、Dayのリストは常に再生成される。既存のDayと
// IDが一致する日はカードをそのまま引き継ぎ、新しい範囲に含まれない日の
// カードはフローティングリストへ降格する。カードがどこかへ消えることは
// なく、2つの入れ物に同時に属することもない。
package schedule

import "github.com/hitoshi/tripman/internal/model"

// Derive は新しい日付範囲 [start, end]（両端含む）から日別スケジュールを導出する。
//
// 返り値のDayリストは日付昇順で、各DayのIDは日付の正準表現、Titleは
// 日付から再導出した曜日名を持つ。prevDaysに同一IDのDayがあれば
// そのカードリストを同一性を保ったまま引き継ぐ。新しい範囲に含まれない
// prevDaysのカードは、既存のfloatingの後ろに日付順・日内の元の順序で
// 追加される。
//
// start > end の場合はINVALID_RANGEエラーを返し、入力には一切触れない。
// この関数は純粋で決定的であり、壁時計に依存しない。
func Derive(prevDays []model.Day, floating []model.Card, start, end model.Date) ([]model.Day, []model.Card, error) {
	if start.After(end) {
		return nil, nil, model.NewInvalidRangeError(start, end)
	}

	prevByID := make(map[string]model.Day, len(prevDays))
	for _, d := range prevDays {
		prevByID[d.ID] = d
	}

	var days []model.Day
	newIDs := make(map[string]struct{})
	for d := start; !d.After(end); d = d.AddDays(1) {
		id := d.String()
		newIDs[id] = struct{}{}

		cards := []model.Card{}
		if prev, ok := prevByID[id]; ok {
			cards = prev.Cards
		}

		// Titleは日付の純粋関数なので、以前の値は保持せず常に再導出する
		days = append(days, model.Day{
			ID:    id,
			Title: d.Weekday(),
			Date:  d,
			Cards: cards,
		})
	}

	newFloating := make([]model.Card, 0, len(floating))
	newFloating = append(newFloating, floating...)
	for _, d := range prevDays {
		if _, ok := newIDs[d.ID]; ok {
			continue
		}
		newFloating = append(newFloating, d.Cards...)
	}

	return days, newFloating, nil
}

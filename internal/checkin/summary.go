package checkin

import (
	"context"
)

const summaryTabPrefix = "統計表-"

var summaryHeader = []string{"使用者名稱", "User ID", "打卡次數"}

// rebuildSummary recomputes the per-user count projection for one month:
// read every attendance row, group by (display name, user id), clear the
// summary tab, and rewrite it from scratch. The cycle is serialized per
// month within this process; concurrent processes sharing one workbook can
// still interleave read and clear+write and lose a freshly appended row.
func (r *Recorder) rebuildSummary(ctx context.Context, month string) error {
	lock := r.monthLock(month)
	lock.Lock()
	defer lock.Unlock()

	rows, err := r.store.ReadAllRows(ctx, month)
	if err != nil {
		return storeErr("read monthly tab "+month, err)
	}

	type userKey struct {
		name   string
		userID string
	}
	counts := map[userKey]int{}
	var order []userKey
	for i, row := range rows {
		if i == 0 || len(row) < 3 {
			continue
		}
		k := userKey{name: row[1], userID: row[2]}
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
	}

	tab := summaryTabPrefix + month
	if err := r.store.EnsureTab(ctx, tab, summaryHeader); err != nil {
		return storeErr("ensure summary tab "+tab, err)
	}
	if err := r.store.Clear(ctx, tab); err != nil {
		return storeErr("clear summary tab "+tab, err)
	}
	header := make([]any, len(summaryHeader))
	for i, h := range summaryHeader {
		header[i] = h
	}
	if err := r.store.AppendRow(ctx, tab, header); err != nil {
		return storeErr("write summary header", err)
	}
	for _, k := range order {
		if err := r.store.AppendRow(ctx, tab, []any{k.name, k.userID, counts[k]}); err != nil {
			return storeErr("write summary row", err)
		}
	}
	return nil
}

package storage

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"promptly/domain"
)

const headerToken = "id"

// NormalizeRows converts raw spreadsheet rows (columns A-D: id, title, text,
// category) into prompts. A leading header row is detected by a cell equal
// to "id" and dropped. Rows missing id, title or text are skipped and
// logged; the remaining rows keep their input order.
func NormalizeRows(rows [][]any, logger log.FieldLogger) []domain.Prompt {
	if len(rows) == 0 {
		return []domain.Prompt{}
	}
	offset := 1
	if isHeaderRow(rows[0]) {
		rows = rows[1:]
		offset = 2
		if logger != nil {
			logger.Debug("dropped header row")
		}
	}

	prompts := make([]domain.Prompt, 0, len(rows))
	for i, row := range rows {
		p, ok := domain.NewPrompt(cell(row, 0), cell(row, 1), cell(row, 2), cell(row, 3))
		if !ok {
			if logger != nil {
				logger.WithFields(log.Fields{
					"row":       i + offset,
					"has_id":    p.ID != "",
					"has_title": p.Title != "",
					"has_text":  p.Text != "",
				}).Warn("skipping row with missing id, title or text")
			}
			continue
		}
		prompts = append(prompts, p)
	}
	return prompts
}

func isHeaderRow(row []any) bool {
	for i := range row {
		if strings.EqualFold(strings.TrimSpace(cell(row, i)), headerToken) {
			return true
		}
	}
	return false
}

func cell(row []any, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	switch v := row[i].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

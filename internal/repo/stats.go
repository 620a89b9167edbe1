// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides aggregate queries used by the CLI
// "stats" command and the readiness endpoint.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-community-store/internal/domain"
)

// TableCount is the number of rows stored in one table.
type TableCount struct {
	Table string
	Rows  int64
}

type tabler interface{ TableName() string }

// TableCounts returns the row count of every store table, in migration order.
func TableCounts(ctx context.Context, db *gorm.DB) ([]TableCount, error) {
	models := domain.All()
	out := make([]TableCount, 0, len(models))
	for _, m := range models {
		var n int64
		if err := db.WithContext(ctx).Model(m).Count(&n).Error; err != nil {
			return nil, Classify(err)
		}
		name := ""
		if t, ok := m.(tabler); ok {
			name = t.TableName()
		}
		out = append(out, TableCount{Table: name, Rows: n})
	}
	return out, nil
}

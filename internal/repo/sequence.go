// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides generated identifiers.
//
// Tables with a generated integer ID draw their identifiers from the
// id_sequences table instead of engine auto-increment, so the same scheme
// works on SQLite, Postgres and MySQL and IDs are never reused after deletes.
//
// NextID must run inside the transaction that inserts the row: the upsert
// takes the write lock on the sequence row and the read-back happens under
// the same lock, so concurrent inserters receive distinct values.
package repo

import (
	"context"

	"emperror.dev/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-community-store/internal/domain"
)

// sequenceTables lists every generated-ID table and the sequence that feeds it.
var sequenceTables = map[string]string{
	domain.SeqSuggestion:           domain.Suggestion{}.TableName(),
	domain.SeqMemberWarning:        domain.MemberWarning{}.TableName(),
	domain.SeqGroupRequest:         domain.GroupRequest{}.TableName(),
	domain.SeqGroupOffer:           domain.GroupOffer{}.TableName(),
	domain.SeqRemindmeUserReminder: domain.RemindmeUserReminder{}.TableName(),
}

// NextID increments the named sequence and returns the new value. The first
// value handed out for a fresh sequence is 1.
func NextID(ctx context.Context, tx *gorm.DB, name string) (int64, error) {
	db := tx.WithContext(ctx)

	seq := domain.IDSequence{Name: name, Last: 1}
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.Assignments(map[string]any{
			"last": gorm.Expr("? + 1", clause.Column{Table: seq.TableName(), Name: "last"}),
		}),
	}).Create(&seq).Error
	if err != nil {
		return 0, Classify(err)
	}

	var last int64
	err = db.Model(&domain.IDSequence{}).
		Where(map[string]any{"name": name}).
		Pluck("last", &last).Error
	if err != nil {
		return 0, Classify(err)
	}
	if last == 0 {
		return 0, errors.WithStackIf(&StoreError{Kind: ErrStorageUnavailable, Err: errors.Errorf("sequence %q not advanced", name)})
	}
	return last, nil
}

// SyncSequences raises every sequence to at least the largest ID already
// stored in its table. Databases created before id_sequences existed carry
// rows whose IDs the sequences have never seen.
func SyncSequences(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for name, table := range sequenceTables {
			var maxID int64
			err := tx.Table(table).
				Select("COALESCE(MAX(?), 0)", clause.Column{Name: "ID"}).
				Scan(&maxID).Error
			if err != nil {
				return Classify(err)
			}
			if maxID == 0 {
				continue
			}

			seq := domain.IDSequence{Name: name, Last: maxID}
			err = tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "name"}},
				DoUpdates: clause.Assignments(map[string]any{
					"last": gorm.Expr("CASE WHEN ? < ? THEN ? ELSE ? END",
						clause.Column{Table: seq.TableName(), Name: "last"}, maxID,
						maxID, clause.Column{Table: seq.TableName(), Name: "last"}),
				}),
			}).Create(&seq).Error
			if err != nil {
				return Classify(err)
			}
		}
		return nil
	})
}

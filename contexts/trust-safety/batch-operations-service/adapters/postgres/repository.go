package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	domainerrors "warden/contexts/trust-safety/batch-operations-service/domain/errors"
	"warden/contexts/trust-safety/batch-operations-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates the history tables. Called once from the composition root.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(&operationModel{}, &operationItemModel{}, &auditModel{})
}

type operationModel struct {
	OperationID string    `gorm:"column:operation_id;primaryKey"`
	Kind        string    `gorm:"column:kind;index"`
	State       string    `gorm:"column:state"`
	StartedAt   time.Time `gorm:"column:started_at"`
	EndedAt     time.Time `gorm:"column:ended_at;index"`
	TotalItems  int       `gorm:"column:total_items"`
	Succeeded   int       `gorm:"column:succeeded"`
	Failed      int       `gorm:"column:failed"`
	Skipped     int       `gorm:"column:skipped"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (operationModel) TableName() string { return "batch_operations" }

type operationItemModel struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement"`
	OperationID string `gorm:"column:operation_id;index"`
	ItemID      string `gorm:"column:item_id"`
	State       string `gorm:"column:state"`
	RetryCount  int    `gorm:"column:retry_count"`
	LastError   string `gorm:"column:last_error"`
}

func (operationItemModel) TableName() string { return "batch_operation_items" }

func (r *Repository) ArchiveOperation(ctx context.Context, row ports.ArchivedOperation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		op := operationModel{
			OperationID: row.OperationID,
			Kind:        row.Kind,
			State:       row.State,
			StartedAt:   row.StartedAt,
			EndedAt:     row.EndedAt,
			TotalItems:  row.Total,
			Succeeded:   row.Succeeded,
			Failed:      row.Failed,
			Skipped:     row.Skipped,
		}
		if err := tx.Create(&op).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrDuplicateOperation
			}
			return err
		}
		if len(row.Items) == 0 {
			return nil
		}
		items := make([]operationItemModel, 0, len(row.Items))
		for _, item := range row.Items {
			items = append(items, operationItemModel{
				OperationID: row.OperationID,
				ItemID:      item.ItemID,
				State:       item.State,
				RetryCount:  item.RetryCount,
				LastError:   item.LastError,
			})
		}
		return tx.Create(&items).Error
	})
}

func (r *Repository) ListRecentOperations(ctx context.Context, limit int) ([]ports.ArchivedOperation, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []operationModel
	if err := r.db.WithContext(ctx).
		Order("ended_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]ports.ArchivedOperation, 0, len(rows))
	for _, row := range rows {
		var items []operationItemModel
		if err := r.db.WithContext(ctx).
			Where("operation_id = ?", row.OperationID).
			Order("id ASC").
			Find(&items).Error; err != nil {
			return nil, err
		}
		archived := ports.ArchivedOperation{
			OperationID: row.OperationID,
			Kind:        row.Kind,
			State:       row.State,
			StartedAt:   row.StartedAt,
			EndedAt:     row.EndedAt,
			Total:       row.TotalItems,
			Succeeded:   row.Succeeded,
			Failed:      row.Failed,
			Skipped:     row.Skipped,
			Items:       make([]ports.ArchivedItem, 0, len(items)),
		}
		for _, item := range items {
			archived.Items = append(archived.Items, ports.ArchivedItem{
				ItemID:     item.ItemID,
				State:      item.State,
				RetryCount: item.RetryCount,
				LastError:  item.LastError,
			})
		}
		out = append(out, archived)
	}
	return out, nil
}

func (r *Repository) PruneOperationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var pruned int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&operationModel{}).
			Where("ended_at < ?", cutoff).
			Pluck("operation_id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("operation_id IN ?", ids).
			Delete(&operationItemModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("operation_id IN ?", ids).Delete(&operationModel{})
		if result.Error != nil {
			return result.Error
		}
		pruned = result.RowsAffected
		return nil
	})
	return pruned, err
}

type auditModel struct {
	AuditID     string    `gorm:"column:audit_id;primaryKey"`
	ActorID     string    `gorm:"column:actor_id"`
	Action      string    `gorm:"column:action"`
	OperationID string    `gorm:"column:operation_id;index"`
	OccurredAt  time.Time `gorm:"column:occurred_at;index"`
}

func (auditModel) TableName() string { return "batch_operation_audit" }

func (r *Repository) AppendAuditLog(ctx context.Context, row ports.AuditEntry) error {
	record := auditModel{
		AuditID:     row.AuditID,
		ActorID:     row.ActorID,
		Action:      row.Action,
		OperationID: row.OperationID,
		OccurredAt:  row.OccurredAt,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicateOperation
		}
		return err
	}
	return nil
}

func (r *Repository) ListRecentAuditLogs(ctx context.Context, limit int) ([]ports.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []auditModel
	if err := r.db.WithContext(ctx).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]ports.AuditEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, ports.AuditEntry{
			AuditID:     row.AuditID,
			ActorID:     row.ActorID,
			Action:      row.Action,
			OperationID: row.OperationID,
			OccurredAt:  row.OccurredAt,
		})
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

package simpletxmanager

import (
	"context"
	"database/sql"

	"github.com/glowly/booking-service/pkg/dbmetrics"
	"github.com/glowly/booking-service/pkg/txmanager"
)

// sqlDBBeginner адаптер *sql.DB под интерфейс txmanager.TxBeginner
type sqlDBBeginner struct {
	db *sql.DB
}

func (b sqlDBBeginner) BeginTx(ctx context.Context, opts *sql.TxOptions) (dbmetrics.TxExecutor, error) {
	return b.db.BeginTx(ctx, opts)
}

// NewTransactionManager создает менеджер транзакций поверх чистого *sql.DB
// Используется, когда метрики выключены и БД не обернута в dbmetrics.DB
func NewTransactionManager(db *sql.DB) *txmanager.TransactionManager {
	return txmanager.NewTransactionManager(sqlDBBeginner{db: db})
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"jackpoints/internal/logger"
	"jackpoints/internal/models"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var transactionColumns = []string{
	"id", "user_id", "user_email", "user_name", "amount", "description", "ts", "type", "metadata",
}

type TransactionRepository struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func encodeMetadata(m map[string]any) ([]byte, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return json.Marshal(m)
}

func (r *TransactionRepository) Insert(ctx context.Context, tx *models.Transaction) error {
	meta, err := encodeMetadata(tx.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	tag, err := r.db.Exec(ctx, `
		INSERT INTO transactions (id, user_id, user_email, user_name, amount, description, ts, type, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`, tx.ID, tx.UserID, tx.UserEmail, tx.UserName, tx.Amount, tx.Description, tx.Timestamp, string(tx.Type), meta)
	if err != nil {
		logger.Log.Error("Ошибка вставки транзакции (repo)", zap.String("user_id", tx.UserID), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicate
	}
	return nil
}

// InsertBatch пишет пачку через COPY: либо вся пачка, либо ничего.
func (r *TransactionRepository) InsertBatch(ctx context.Context, txs []*models.Transaction) (int, error) {
	rows := make([][]any, 0, len(txs))
	for _, tx := range txs {
		meta, err := encodeMetadata(tx.Metadata)
		if err != nil {
			return 0, fmt.Errorf("encode metadata for %s: %w", tx.ID, err)
		}
		rows = append(rows, []any{
			tx.ID, tx.UserID, tx.UserEmail, tx.UserName, tx.Amount, tx.Description, tx.Timestamp, string(tx.Type), meta,
		})
	}

	n, err := r.db.CopyFrom(ctx, pgx.Identifier{"transactions"}, transactionColumns, pgx.CopyFromRows(rows))
	if err != nil {
		logger.Log.Error("Ошибка пакетной вставки транзакций (repo)", zap.Int("batch_size", len(txs)), zap.Error(err))
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return 0, err
	}
	return int(n), nil
}

func (r *TransactionRepository) List(ctx context.Context, f models.TransactionFilter) ([]*models.Transaction, error) {
	query := `SELECT id, user_id, user_email, user_name, amount, description, ts, type, metadata FROM transactions`

	var where []string
	var args []any
	if f.UserID != "" {
		args = append(args, f.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.Type != "" {
		args = append(args, string(f.Type))
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	query += fmt.Sprintf(" ORDER BY ts DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		logger.Log.Error("Ошибка получения транзакций (repo)", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	out := make([]*models.Transaction, 0, f.Limit)
	for rows.Next() {
		var (
			t    models.Transaction
			typ  string
			meta []byte
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.UserEmail, &t.UserName, &t.Amount, &t.Description, &t.Timestamp, &typ, &meta); err != nil {
			logger.Log.Error("Ошибка сканирования транзакции (repo)", zap.Error(err))
			return nil, err
		}
		t.Type = models.TransactionType(typ)
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &t.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata for %s: %w", t.ID, err)
			}
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (r *TransactionRepository) Balance(ctx context.Context, userID string) (int64, error) {
	var sum int64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE user_id = $1`, userID).Scan(&sum)
	if err != nil {
		logger.Log.Error("Ошибка подсчёта баланса (repo)", zap.String("user_id", userID), zap.Error(err))
	}
	return sum, err
}

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/annel0/mudmap/internal/world"
	_ "github.com/go-sql-driver/mysql"
)

// MariaViewpointRepo реализует ViewpointRepo для MariaDB/MySQL.
// История хранится JSON-колонкой в таблице viewpoints.
type MariaViewpointRepo struct {
	db *sql.DB
}

// NewMariaViewpointRepo подключается к базе и создаёт таблицу, если её нет.
//
// Параметры:
//
//	dsn - строка подключения к базе данных (user:pass@tcp(host:port)/dbname)
func NewMariaViewpointRepo(dsn string) (*MariaViewpointRepo, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MariaDB: %w", err)
	}

	repo := &MariaViewpointRepo{db: db}
	if err := repo.createTable(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать таблицу: %w", err)
	}
	return repo, nil
}

func (r *MariaViewpointRepo) createTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS viewpoints (
			user_id    VARCHAR(64) PRIMARY KEY,
			history    JSON        NOT NULL,
			updated_at TIMESTAMP   DEFAULT CURRENT_TIMESTAMP
			           ON UPDATE   CURRENT_TIMESTAMP,
			INDEX idx_updated_at (updated_at)
		) ENGINE=InnoDB
	`
	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("ошибка создания таблицы viewpoints: %w", err)
	}
	return nil
}

const upsertViewpoints = `
	INSERT INTO viewpoints (user_id, history)
	VALUES (?, ?)
	ON DUPLICATE KEY UPDATE
		history = VALUES(history),
		updated_at = CURRENT_TIMESTAMP
`

func (r *MariaViewpointRepo) Save(ctx context.Context, userID string, history []world.WorldCoordinate) error {
	if err := validateUserID(userID); err != nil {
		return err
	}
	data, err := json.Marshal(history)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, upsertViewpoints, userID, data); err != nil {
		return fmt.Errorf("ошибка сохранения истории для пользователя %s: %w", userID, err)
	}
	return nil
}

func (r *MariaViewpointRepo) Load(ctx context.Context, userID string) ([]world.WorldCoordinate, bool, error) {
	if err := validateUserID(userID); err != nil {
		return nil, false, err
	}

	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT history FROM viewpoints WHERE user_id = ?`, userID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ошибка загрузки истории для пользователя %s: %w", userID, err)
	}

	var history []world.WorldCoordinate
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, false, fmt.Errorf("ошибка разбора истории для пользователя %s: %w", userID, err)
	}
	return history, true, nil
}

func (r *MariaViewpointRepo) Delete(ctx context.Context, userID string) error {
	if err := validateUserID(userID); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM viewpoints WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("ошибка удаления истории для пользователя %s: %w", userID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка получения количества затронутых строк: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrViewpointNotFound, userID)
	}
	return nil
}

// BatchSave сохраняет истории в одной транзакции
func (r *MariaViewpointRepo) BatchSave(ctx context.Context, histories map[string][]world.WorldCoordinate) error {
	if len(histories) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertViewpoints)
	if err != nil {
		return fmt.Errorf("ошибка подготовки запроса: %w", err)
	}
	defer stmt.Close()

	for userID, history := range histories {
		if err := validateUserID(userID); err != nil {
			return err
		}
		data, err := json.Marshal(history)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, userID, data); err != nil {
			return fmt.Errorf("ошибка сохранения истории для пользователя %s в batch: %w", userID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return nil
}

func (r *MariaViewpointRepo) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

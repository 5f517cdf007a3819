package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/factify/backend/internal/models"
	"github.com/factify/backend/libs/apperrors"
	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// mysqlDuplicateEntry is the MySQL error number for unique key violations
const mysqlDuplicateEntry = 1062

// userRepository implements UserRepository
type userRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *userRepository {
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

// execer is satisfied by *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.insert(ctx, r.db, user)
}

func (r *userRepository) insert(ctx context.Context, db execer, user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, role)
		VALUES (?, ?, ?, ?)
	`

	result, err := db.ExecContext(ctx, query, user.Username, user.Email, user.PasswordHash, user.Role)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return fmt.Errorf("user already exists: %w", apperrors.ErrAlreadyExists)
		}
		r.logger.Error("failed to create user", zap.Error(err))
		return fmt.Errorf("failed to create user: %w: %w", apperrors.ErrPersistence, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("failed to get last insert id", zap.Error(err))
		return fmt.Errorf("failed to get last insert id: %w: %w", apperrors.ErrPersistence, err)
	}

	user.ID = int(id)
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	return nil
}

// GetByEmail retrieves a user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, username, email, password_hash, role, created_at
		FROM users
		WHERE email = ?
		LIMIT 1
	`

	return r.getOne(ctx, query, email)
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, userID int) (*models.User, error) {
	query := `
		SELECT id, username, email, password_hash, role, created_at
		FROM users
		WHERE id = ?
		LIMIT 1
	`

	return r.getOne(ctx, query, userID)
}

// getOne runs a single-user query and maps sql.ErrNoRows to apperrors.ErrNotFound
func (r *userRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user not found: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("failed to get user", zap.Error(err), zap.Any("key", arg))
		return nil, fmt.Errorf("failed to get user: %w: %w", apperrors.ErrPersistence, err)
	}

	return user, nil
}

// ExistsByEmail checks if a user exists with the given email
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		r.logger.Error("failed to check email existence", zap.Error(err), zap.String("email", email))
		return false, fmt.Errorf("failed to check email existence: %w: %w", apperrors.ErrPersistence, err)
	}

	return exists, nil
}

// ExistsByUsername checks if a user exists with the given username
func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&exists); err != nil {
		r.logger.Error("failed to check username existence", zap.Error(err), zap.String("username", username))
		return false, fmt.Errorf("failed to check username existence: %w: %w", apperrors.ErrPersistence, err)
	}

	return exists, nil
}

// GetAll retrieves all users, newest first
func (r *userRepository) GetAll(ctx context.Context) ([]models.User, error) {
	query := `
		SELECT id, username, email, role, created_at
		FROM users
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to query users", zap.Error(err))
		return nil, fmt.Errorf("failed to query users: %w: %w", apperrors.ErrPersistence, err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.Role, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w: %w", apperrors.ErrPersistence, err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w: %w", apperrors.ErrPersistence, err)
	}

	return users, nil
}

// Count returns the total number of users
func (r *userRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		r.logger.Error("failed to count users", zap.Error(err))
		return 0, fmt.Errorf("failed to count users: %w: %w", apperrors.ErrPersistence, err)
	}
	return count, nil
}

// DeleteWithAnalyses deletes the user's analyses and then the user in one transaction
func (r *userRepository) DeleteWithAnalyses(ctx context.Context, userID int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w: %w", apperrors.ErrPersistence, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM analyses WHERE user_id = ?`, userID); err != nil {
		r.logger.Error("failed to delete user analyses", zap.Error(err), zap.Int("userID", userID))
		return fmt.Errorf("failed to delete user analyses: %w: %w", apperrors.ErrPersistence, err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		r.logger.Error("failed to delete user", zap.Error(err), zap.Int("userID", userID))
		return fmt.Errorf("failed to delete user: %w: %w", apperrors.ErrPersistence, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w: %w", apperrors.ErrPersistence, err)
	}
	if affected == 0 {
		return fmt.Errorf("user not found: %w", apperrors.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w: %w", apperrors.ErrPersistence, err)
	}

	return nil
}

// ReplaceByEmail deletes the account registered with user.Email, along with its analyses,
// and inserts user in its place. Both steps run in one transaction.
func (r *userRepository) ReplaceByEmail(ctx context.Context, user *models.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w: %w", apperrors.ErrPersistence, err)
	}
	defer tx.Rollback()

	query := `
		DELETE a FROM analyses a
		JOIN users u ON u.id = a.user_id
		WHERE u.email = ?
	`
	if _, err := tx.ExecContext(ctx, query, user.Email); err != nil {
		r.logger.Error("failed to delete analyses by email", zap.Error(err), zap.String("email", user.Email))
		return fmt.Errorf("failed to delete analyses by email: %w: %w", apperrors.ErrPersistence, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE email = ?`, user.Email); err != nil {
		r.logger.Error("failed to delete user by email", zap.Error(err), zap.String("email", user.Email))
		return fmt.Errorf("failed to delete user by email: %w: %w", apperrors.ErrPersistence, err)
	}

	if err := r.insert(ctx, tx, user); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w: %w", apperrors.ErrPersistence, err)
	}

	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fest-portal-api/internal/domain"
)

const userColumns = `id, name, email, password_hash, role, mobile, profile_pic_url, profile_pic_key,
	is_verified, reset_token_hash, reset_token_expires_at, created_at, updated_at`

type UserRepo struct {
	db DBTX
}

func NewUserRepo(db DBTX) *UserRepo {
	return &UserRepo{db: db}
}

func scanUser(row rowScanner) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(&u.UserID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Mobile,
		&u.ProfilePicURL, &u.ProfilePicKey, &u.IsVerified, &u.ResetTokenHash,
		&u.ResetTokenExpiresAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

// Create inserts u. Unique violations on email or mobile are reported as
// domain.ErrAlreadyRegistered and domain.ErrMobileTaken.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (id, name, email, password_hash, role, mobile, is_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query, u.UserID, u.Name, u.Email, u.PasswordHash, u.Role,
		u.Mobile, u.IsVerified, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if c, ok := uniqueConstraint(err); ok {
			switch c {
			case "users_mobile_key":
				return fmt.Errorf("mobile taken: %w", domain.ErrMobileTaken)
			default:
				return fmt.Errorf("email taken: %w", domain.ErrAlreadyRegistered)
			}
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *UserRepo) MobileExists(ctx context.Context, mobile string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE mobile = $1)`, mobile).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// ListVerifiedEmails returns the address of every verified account.
func (r *UserRepo) ListVerifiedEmails(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT email FROM users WHERE is_verified = TRUE ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		emails = append(emails, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return emails, nil
}

func (r *UserRepo) SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	query := `UPDATE users SET reset_token_hash = $2, reset_token_expires_at = $3, updated_at = now()
		WHERE id = $1`
	return r.execOne(ctx, query, userID, tokenHash, expiresAt)
}

func (r *UserRepo) ClearResetToken(ctx context.Context, userID string) error {
	query := `UPDATE users SET reset_token_hash = NULL, reset_token_expires_at = NULL, updated_at = now()
		WHERE id = $1`
	return r.execOne(ctx, query, userID)
}

// GetByResetToken finds the user holding tokenHash whose expiry is after now.
// Wrong and expired tokens are indistinguishable.
func (r *UserRepo) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE reset_token_hash = $1 AND reset_token_expires_at > $2`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, tokenHash, now))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("reset token: %w", domain.ErrInvalidOrExpired)
	}
	return u, err
}

// ResetPassword stores passwordHash and clears the reset fields in one
// statement. It only applies while the account still holds tokenHash, so a
// token cannot be redeemed twice.
func (r *UserRepo) ResetPassword(ctx context.Context, userID, tokenHash, passwordHash string) error {
	query := `UPDATE users SET password_hash = $3, reset_token_hash = NULL, reset_token_expires_at = NULL,
		updated_at = now()
		WHERE id = $1 AND reset_token_hash = $2`
	err := r.execOne(ctx, query, userID, tokenHash, passwordHash)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("reset token already used: %w", domain.ErrInvalidOrExpired)
	}
	return err
}

func (r *UserRepo) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return r.execOne(ctx, `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, userID, passwordHash)
}

// SetProfilePic replaces the picture reference. Nil values clear it.
func (r *UserRepo) SetProfilePic(ctx context.Context, userID string, url, key *string) error {
	query := `UPDATE users SET profile_pic_url = $2, profile_pic_key = $3, updated_at = now() WHERE id = $1`
	return r.execOne(ctx, query, userID, url, key)
}

// Delete removes the user. Clubs, events, photos and registrations go with
// it through cascades; the storage keys of the club logos and gallery photos
// left without a row are returned so the caller can remove the objects.
func (r *UserRepo) Delete(ctx context.Context, userID string) ([]string, error) {
	var keys []string
	err := WithTx(ctx, r.db, func(ctx context.Context, tx DBTX) error {
		rows, err := tx.QueryContext(ctx, `SELECT logo_key FROM clubs WHERE coordinator_id = $1 AND logo_key IS NOT NULL
			UNION ALL
			SELECT p.storage_key FROM club_photos p JOIN clubs c ON c.id = p.club_id WHERE c.coordinator_id = $1`, userID)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		for rows.Next() {
			var k string
			if err := rows.Scan(&k); err != nil {
				rows.Close()
				return fmt.Errorf("db error: %w", err)
			}
			keys = append(keys, k)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return (&UserRepo{db: tx}).execOne(ctx, `DELETE FROM users WHERE id = $1`, userID)
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *UserRepo) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no matching row: %w", domain.ErrNotFound)
	}
	return nil
}

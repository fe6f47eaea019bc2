// Package pg implements the directory contract on PostgreSQL. Unlike the
// mock, it stores bcrypt password hashes and issues opaque session tokens
// with server-side state.
package pg

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/helioshq/helios-admin/internal/authz"
	"github.com/helioshq/helios-admin/internal/backend"
	"github.com/helioshq/helios-admin/internal/identity"
	"github.com/helioshq/helios-admin/internal/platform/db"
)

const uniqueViolation = "23505"

// Notifier delivers out-of-band messages triggered by directory operations.
type Notifier interface {
	PasswordReset(ctx context.Context, email, resetToken string) error
}

// Directory is the PostgreSQL implementation of backend.Directory.
type Directory struct {
	pool     *pgxpool.Pool
	logger   *slog.Logger
	notifier Notifier
	tokenTTL time.Duration
	resetTTL time.Duration
}

var _ backend.Directory = (*Directory)(nil)

// Config collects Directory dependencies.
type Config struct {
	Pool     *pgxpool.Pool
	Logger   *slog.Logger
	Notifier Notifier
	TokenTTL time.Duration
	ResetTTL time.Duration
}

// New constructs a Directory.
func New(cfg Config) *Directory {
	d := &Directory{
		pool:     cfg.Pool,
		logger:   cfg.Logger,
		notifier: cfg.Notifier,
		tokenTTL: cfg.TokenTTL,
		resetTTL: cfg.ResetTTL,
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.tokenTTL <= 0 {
		d.tokenTTL = 24 * time.Hour
	}
	if d.resetTTL <= 0 {
		d.resetTTL = 15 * time.Minute
	}
	return d
}

// Login implements backend.Directory.
func (d *Directory) Login(ctx context.Context, creds backend.Credentials) (*backend.Grant, error) {
	user, hash, err := d.findByEmail(ctx, creds.Email)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, backend.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(creds.Password)); err != nil {
		return nil, backend.ErrInvalidCredentials
	}

	access, refresh := opaqueToken(), opaqueToken()
	now := time.Now().UTC()
	_, err = d.pool.Exec(ctx, `
		INSERT INTO sessions (access_token, refresh_token, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		access, refresh, user.ID, now.Add(d.tokenTTL), now)
	if err != nil {
		return nil, err
	}
	if _, err := d.pool.Exec(ctx, `UPDATE users SET last_login_at = $1 WHERE id = $2`, now, user.ID); err != nil {
		d.logger.Warn("record last login", slog.Any("error", err))
	}
	user.LastLoginAt = now
	return &backend.Grant{User: *user, AccessToken: access, RefreshToken: refresh}, nil
}

// Register implements backend.Directory.
func (d *Directory) Register(ctx context.Context, reg backend.Registration) (*identity.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	role, _ := authz.RoleByName(authz.RoleViewer)
	now := time.Now().UTC()
	user := &identity.User{
		ID:        uuid.NewString(),
		Email:     reg.Email,
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
		Profile:   identity.Profile{Preferences: identity.DefaultPreferences()},
	}
	user.DisplayName = user.FullName()
	user.MaterializeRole(role)

	profile, err := json.Marshal(user.Profile)
	if err != nil {
		return nil, err
	}
	_, err = d.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, first_name, last_name, display_name, role_name, profile, is_active, created_at, updated_at)
		VALUES ($1, lower($2), $3, $4, $5, $6, $7, $8, TRUE, $9, $9)`,
		user.ID, user.Email, string(hash), user.FirstName, user.LastName, user.DisplayName, role.Name, profile, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, backend.ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

// Logout implements backend.Directory.
func (d *Directory) Logout(ctx context.Context, accessToken string) error {
	_, err := d.pool.Exec(ctx, `DELETE FROM sessions WHERE access_token = $1`, accessToken)
	return err
}

// GetCurrentUser implements backend.Directory.
func (d *Directory) GetCurrentUser(ctx context.Context, accessToken string) (*identity.User, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT u.id, u.email, u.first_name, u.last_name, u.display_name, u.avatar_url,
		       u.role_name, u.profile, u.is_active, u.is_verified,
		       u.created_at, u.updated_at, u.last_login_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.access_token = $1 AND s.expires_at > now()`, accessToken)
	user, _, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, backend.ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

// ForgotPassword implements backend.Directory. Unknown emails succeed
// silently.
func (d *Directory) ForgotPassword(ctx context.Context, email string) error {
	user, _, err := d.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, backend.ErrUserNotFound) {
			return nil
		}
		return err
	}
	token := opaqueToken()
	now := time.Now().UTC()
	_, err = d.pool.Exec(ctx, `
		INSERT INTO password_resets (token, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)`,
		token, user.ID, now.Add(d.resetTTL), now)
	if err != nil {
		return err
	}
	if d.notifier != nil {
		if err := d.notifier.PasswordReset(ctx, user.Email, token); err != nil {
			d.logger.Warn("password reset notify", slog.Any("error", err))
		}
	}
	return nil
}

// ResetPassword implements backend.Directory. The token check, password
// update, and token consumption commit atomically so a reset token can only
// ever be redeemed once.
func (d *Directory) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return db.WithTx(ctx, d.pool, func(tx pgx.Tx) error {
		var userID string
		err := tx.QueryRow(ctx, `
			SELECT user_id FROM password_resets
			WHERE token = $1 AND used = FALSE AND expires_at > now()
			FOR UPDATE`, resetToken).Scan(&userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return backend.ErrInvalidToken
			}
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`, string(hash), userID); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE password_resets SET used = TRUE WHERE token = $1`, resetToken)
		return err
	})
}

// ChangePassword implements backend.Directory.
func (d *Directory) ChangePassword(ctx context.Context, accessToken, currentPassword, newPassword string) error {
	user, err := d.GetCurrentUser(ctx, accessToken)
	if err != nil {
		return err
	}
	var hash string
	if err := d.pool.QueryRow(ctx, `SELECT password_hash FROM users WHERE id = $1`, user.ID).Scan(&hash); err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(currentPassword)); err != nil {
		return backend.ErrInvalidCredentials
	}
	next, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = d.pool.Exec(ctx, `UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`, string(next), user.ID)
	return err
}

// UpdateProfile implements backend.Directory.
func (d *Directory) UpdateProfile(ctx context.Context, accessToken string, patch identity.ProfilePatch) (*identity.User, error) {
	return d.mutateCurrent(ctx, accessToken, func(u *identity.User) {
		u.ApplyProfile(patch)
	})
}

// UpdatePreferences implements backend.Directory.
func (d *Directory) UpdatePreferences(ctx context.Context, accessToken string, patch identity.PreferencesPatch) (*identity.User, error) {
	return d.mutateCurrent(ctx, accessToken, func(u *identity.User) {
		u.ApplyPreferences(patch)
	})
}

// UploadAvatar implements backend.Directory. Avatar bytes are not retained;
// only the derived URL is stored, matching the mock contract.
func (d *Directory) UploadAvatar(ctx context.Context, accessToken, filename string, data []byte) (*identity.User, error) {
	if len(data) == 0 {
		return nil, backend.ErrEmptyAvatar
	}
	return d.mutateCurrent(ctx, accessToken, func(u *identity.User) {
		u.AvatarURL = "/avatars/" + u.ID + "/" + uuid.NewString()
	})
}

// DeleteAvatar implements backend.Directory.
func (d *Directory) DeleteAvatar(ctx context.Context, accessToken string) (*identity.User, error) {
	return d.mutateCurrent(ctx, accessToken, func(u *identity.User) {
		u.AvatarURL = ""
	})
}

func (d *Directory) mutateCurrent(ctx context.Context, accessToken string, mutate func(*identity.User)) (*identity.User, error) {
	user, err := d.GetCurrentUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	mutate(user)
	user.UpdatedAt = time.Now().UTC()

	profile, err := json.Marshal(user.Profile)
	if err != nil {
		return nil, err
	}
	_, err = d.pool.Exec(ctx, `
		UPDATE users
		SET first_name = $1, last_name = $2, display_name = $3, avatar_url = $4,
		    profile = $5, updated_at = $6
		WHERE id = $7`,
		user.FirstName, user.LastName, user.DisplayName, user.AvatarURL, profile, user.UpdatedAt, user.ID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (d *Directory) findByEmail(ctx context.Context, email string) (*identity.User, string, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT id, email, first_name, last_name, display_name, avatar_url,
		       role_name, profile, is_active, is_verified,
		       created_at, updated_at, last_login_at, password_hash
		FROM users WHERE email = lower($1)`, email)
	user, hash, err := scanUserWithHash(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", backend.ErrUserNotFound
		}
		return nil, "", err
	}
	return user, hash, nil
}

func scanUser(row pgx.Row) (*identity.User, string, error) {
	return scan(row, false)
}

func scanUserWithHash(row pgx.Row) (*identity.User, string, error) {
	return scan(row, true)
}

// scan materializes a user row, re-deriving the flattened permission copy
// from the stored role name so the role/permissions invariant holds.
func scan(row pgx.Row, withHash bool) (*identity.User, string, error) {
	var (
		u         identity.User
		roleName  string
		profile   []byte
		lastLogin *time.Time
		hash      string
	)
	dest := []any{
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.DisplayName, &u.AvatarURL,
		&roleName, &profile, &u.IsActive, &u.IsVerified,
		&u.CreatedAt, &u.UpdatedAt, &lastLogin,
	}
	if withHash {
		dest = append(dest, &hash)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, "", err
	}
	if lastLogin != nil {
		u.LastLoginAt = *lastLogin
	}
	if len(profile) > 0 {
		if err := json.Unmarshal(profile, &u.Profile); err != nil {
			return nil, "", err
		}
	}
	role, ok := authz.RoleByName(roleName)
	if !ok {
		role, _ = authz.RoleByName(authz.RoleViewer)
	}
	u.MaterializeRole(role)
	return &u, hash, nil
}

func opaqueToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "hl_" + uuid.NewString()
	}
	return "hl_" + base64.RawURLEncoding.EncodeToString(b)
}

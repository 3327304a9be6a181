package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/todoapp/tasktracker/internal/core/domain"
)

const uniqueViolation = "23505"

const (
	insertUserQuery = `INSERT INTO users (email, username, first_name, last_name, phone_number, hashed_password, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	selectUserQuery = `SELECT u.id, u.email, u.username, u.first_name, u.last_name, u.phone_number,
		u.hashed_password, u.is_active, u.created_at,
		a.id, a.address1, a.address2, a.city, a.state, a.country, a.zipcode, a.apt_num
		FROM users u
		LEFT JOIN addresses a ON a.id = u.address_id`

	userByUsernameQuery = selectUserQuery + ` WHERE u.username = $1`
	userByIDQuery       = selectUserQuery + ` WHERE u.id = $1`
)

// UserRepository implements ports.UserRepository.
type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts user. A username or email collision is reported as
// domain.ErrUserExists.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	created := *user
	err := r.db.QueryRowContext(ctx, insertUserQuery,
		user.Email, user.Username, user.FirstName, user.LastName, user.PhoneNumber,
		user.PasswordHash, user.IsActive, user.CreatedAt,
	).Scan(&created.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &created, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, userByUsernameQuery, username)
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, userByIDQuery, id)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var (
		u        domain.User
		addrID   sql.NullInt64
		address1 sql.NullString
		address2 sql.NullString
		city     sql.NullString
		state    sql.NullString
		country  sql.NullString
		zipcode  sql.NullString
		aptNum   sql.NullInt64
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.Username, &u.FirstName, &u.LastName, &u.PhoneNumber,
		&u.PasswordHash, &u.IsActive, &u.CreatedAt,
		&addrID, &address1, &address2, &city, &state, &country, &zipcode, &aptNum,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if addrID.Valid {
		u.Address = &domain.Address{
			ID:       addrID.Int64,
			Address1: address1.String,
			Address2: address2.String,
			City:     city.String,
			State:    state.String,
			Country:  country.String,
			Zipcode:  zipcode.String,
		}
		if aptNum.Valid {
			n := int(aptNum.Int64)
			u.Address.AptNum = &n
		}
	}
	return &u, nil
}

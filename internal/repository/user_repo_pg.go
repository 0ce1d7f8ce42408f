package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
}

type PGUserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &PGUserRepository{db: db}
}

const userColumns = `id, email, first_name, last_name, phone, address, city, country, postal_code, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Phone, &u.Address, &u.City, &u.Country, &u.PostalCode, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *PGUserRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (id, email, first_name, last_name, phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`, user.ID, user.Email, user.FirstName, user.LastName, user.Phone).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *PGUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (r *PGUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email)=lower($1)`, email))
}

func (r *PGUserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `
		UPDATE users
		SET first_name=$2, last_name=$3, phone=$4, address=$5, city=$6, country=$7, postal_code=$8, updated_at=now()
		WHERE id=$1
		RETURNING `+userColumns,
		user.ID, user.FirstName, user.LastName, user.Phone, user.Address, user.City, user.Country, user.PostalCode))
}

var _ UserRepository = (*PGUserRepository)(nil)

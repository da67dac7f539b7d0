package models

import (
	"database/sql"
	"errors"
	"fmt"

	"skillhub/utils"
)

// ErrEmailTaken is the duplicate-registration outcome, mapped from the
// users.email unique constraint.
var ErrEmailTaken = errors.New("email already exists")

// ErrInvalidCredentials covers both unknown email and wrong password; login
// never reveals which one failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

type sqlUserRepo struct{ db *sql.DB }

func NewSQLUserRepository(db *sql.DB) UserRepository { return &sqlUserRepo{db} }

func (r *sqlUserRepo) Create(u *User) error {
	hashed, err := utils.HashPassword(u.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.Password = hashed

	err = r.db.QueryRow(
		`INSERT INTO users (name, email, password) VALUES ($1, $2, $3) RETURNING id`,
		u.Name, u.Email, u.Password,
	).Scan(&u.ID)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *sqlUserRepo) ValidateCredentials(email, plain string) (User, error) {
	var u User
	err := r.db.QueryRow(
		`SELECT id, name, email, password FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Password)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, fmt.Errorf("query user: %w", err)
	}

	if !utils.CheckPasswordHash(plain, u.Password) {
		return User{}, ErrInvalidCredentials
	}
	u.Password = ""
	return u, nil
}

func (r *sqlUserRepo) GetByID(id int64) (User, error) {
	var u User
	err := r.db.QueryRow(
		`SELECT id, name, email FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

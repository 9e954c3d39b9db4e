package dbhelper

import (
	"context"
	"database/sql"
	"time"

	"github.com/ray-remotestate/restro/models"
)

func CreateUser(ctx context.Context, q Querier, name, email string, phone *string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `INSERT INTO users (name, email, phone, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		name, email, nullString(phone), time.Now().UTC()).Scan(&id)
	return id, err
}

func IsUserExists(ctx context.Context, q Querier, email string) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE LOWER(email) = LOWER($1)`, email).Scan(&count)
	return count > 0, err
}

// GetUserByID returns sql.ErrNoRows when the user does not exist.
func GetUserByID(ctx context.Context, q Querier, id int64) (*models.User, error) {
	var u models.User
	var phone sql.NullString
	err := q.QueryRowContext(ctx, `
		SELECT id, name, email, phone, created_at FROM users
		WHERE id = $1`, id).
		Scan(&u.ID, &u.Name, &u.Email, &phone, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.Phone = stringPtr(phone)
	return &u, nil
}

func ListUsers(ctx context.Context, q Querier) ([]models.User, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name, email, phone, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

func GetUsersByIDs(ctx context.Context, q Querier, ids []int64) (map[int64]models.User, error) {
	users := make(map[int64]models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, email, phone, created_at FROM users
		WHERE id IN (`+inClause(1, len(ids))+`)`, int64Args(ids)...)
	if err != nil {
		return nil, err
	}
	list, err := scanUsers(rows)
	if err != nil {
		return nil, err
	}
	for _, u := range list {
		users[u.ID] = u
	}
	return users, nil
}

func scanUsers(rows *sql.Rows) ([]models.User, error) {
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		var phone sql.NullString
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &phone, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.Phone = stringPtr(phone)
		users = append(users, u)
	}
	return users, rows.Err()
}

// DeleteUser removes the user; their orders go with them (ON DELETE CASCADE).
func DeleteUser(ctx context.Context, q Querier, id int64) (bool, error) {
	result, err := q.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return affected(result)
}

func CountAdmins(ctx context.Context, q Querier) (int, error) {
	var count int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&count)
	return count, err
}

func CreateAdmin(ctx context.Context, q Querier, email, hashedPassword string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `INSERT INTO admins (email, password, created_at) VALUES ($1, $2, $3) RETURNING id`,
		email, hashedPassword, time.Now().UTC()).Scan(&id)
	return id, err
}

func GetAdminByEmail(ctx context.Context, q Querier, email string) (*models.Admin, error) {
	var a models.Admin
	err := q.QueryRowContext(ctx, `
		SELECT id, email, password, created_at FROM admins
		WHERE LOWER(email) = LOWER($1)`, email).
		Scan(&a.ID, &a.Email, &a.Password, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

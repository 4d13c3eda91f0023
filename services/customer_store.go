package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pocketbase/dbx"

	"waitlist-system/models"
)

// CustomerDirectory looks customers up by full phone number. It exists only
// to pre-fill enqueue fields; the engine never mutates customer records.
type CustomerDirectory interface {
	FindByPhone(ctx context.Context, tenantID, phone string) (*models.Customer, error)
}

type CustomerStore struct {
	db dbx.Builder
}

func NewCustomerStore(db dbx.Builder) *CustomerStore {
	return &CustomerStore{db: db}
}

type customerRow struct {
	ID       string `db:"id"`
	TenantID string `db:"tenant_id"`
	Name     string `db:"name"`
	Phone    string `db:"phone"`
	Notes    string `db:"notes"`
}

// FindByPhone returns (nil, nil) when no customer matches; an unknown phone
// is not an error at enqueue time.
func (s *CustomerStore) FindByPhone(ctx context.Context, tenantID, phone string) (*models.Customer, error) {
	var row customerRow
	err := s.db.NewQuery(
		`SELECT * FROM customers WHERE tenant_id = {:tenant_id} AND phone = {:phone}`,
	).WithContext(ctx).Bind(dbx.Params{"tenant_id": tenantID, "phone": phone}).One(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find customer: %w", err)
	}
	return &models.Customer{
		ID:       row.ID,
		TenantID: row.TenantID,
		Name:     row.Name,
		Phone:    row.Phone,
		Notes:    row.Notes,
	}, nil
}

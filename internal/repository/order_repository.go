package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/akylbek/payment-system/tilopay-connector/internal/models"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) GetByName(ctx context.Context, name string) (*models.Order, error) {
	var o models.Order
	err := r.db.QueryRowContext(ctx, `
		SELECT o.name, o.amount_total, c.id, c.name, c.rounding,
			o.partner_name, o.partner_first_name, o.partner_last_name, o.partner_surname,
			o.partner_street, o.partner_country_code, o.partner_email
		FROM sale_orders o
		JOIN currencies c ON c.id = o.currency_id
		WHERE o.name = $1
	`, name).Scan(
		&o.Name, &o.AmountTotal, &o.Currency.ID, &o.Currency.Name, &o.Currency.Rounding,
		&o.Partner.Name, &o.Partner.FirstName, &o.Partner.LastName, &o.Partner.Surname,
		&o.Partner.Street, &o.Partner.CountryCode, &o.Partner.Email,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"gym-membership-billing/internal/domain"
	"gym-membership-billing/internal/domain/model"
	"gym-membership-billing/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, member_id, member_name, amount, currency, type, status, date, due_date, invoice_number,
  order_id, membership_plan_id, add_personal_training, product_id, razorpay_payment_id, razorpay_signature,
  notes, effects_applied_at, created_at, updated_at`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	p := &model.Payment{}
	err := row.Scan(&p.ID, &p.MemberID, &p.MemberName, &p.Amount, &p.Currency, &p.Type, &p.Status, &p.Date, &p.DueDate, &p.InvoiceNumber,
		&p.OrderID, &p.MembershipPlanID, &p.AddPersonalTraining, &p.ProductID, &p.RazorpayPaymentID, &p.RazorpaySignature,
		&p.Notes, &p.EffectsAppliedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (` + paymentColumns + `) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20
) ON CONFLICT (id) DO UPDATE SET
  amount=$4, currency=$5, type=$6, status=$7, date=$8, due_date=$9, membership_plan_id=$12,
  add_personal_training=$13, product_id=$14, razorpay_payment_id=$15, razorpay_signature=$16,
  notes=$17, effects_applied_at=$18, updated_at=$20;`

	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.MemberID, p.MemberName, p.Amount, p.Currency, string(p.Type), string(p.Status), p.Date, p.DueDate, p.InvoiceNumber,
		p.OrderID, p.MembershipPlanID, p.AddPersonalTraining, p.ProductID, p.RazorpayPaymentID, p.RazorpaySignature,
		p.Notes, p.EffectsAppliedAt, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return mapErr(err)
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", id)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE order_id=$1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", orderID)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

// List returns newest first. Filters are AND-ed; zero values are ignored.
func (r *paymentRepo) List(ctx context.Context, tx repository.Tx, f repository.PaymentFilter) ([]*model.Payment, error) {
	var (
		where []string
		args  []interface{}
	)
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.MemberID != "" {
		add("member_id=$%d", f.MemberID)
	}
	if f.Status != "" {
		add("status=$%d", string(f.Status))
	}
	if f.Type != "" {
		add("type=$%d", string(f.Type))
	}

	q := `SELECT ` + paymentColumns + ` FROM payments`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit, f.Offset)
	q += fmt.Sprintf(" ORDER BY date DESC, created_at DESC LIMIT $%d OFFSET $%d;", len(args)-1, len(args))

	return r.queryPayments(ctx, tx, q, args...)
}

func (r *paymentRepo) TransitionStatus(ctx context.Context, tx repository.Tx, m repository.PaymentMatch, c model.StatusChange) (*model.Payment, bool, error) {
	if len(m.From) == 0 || (m.ID == "") == (m.OrderID == "") || !c.To.Valid() {
		return nil, false, domain.ErrInvalidArgument
	}
	from := make([]string, 0, len(m.From))
	for _, s := range m.From {
		from = append(from, string(s))
	}
	at := c.At
	if at.IsZero() {
		at = time.Now()
	}

	// $1 status, $2 when, $3 gateway payment id, $4 signature, $5 prior states, $6 key, $7 owner
	q := `
UPDATE payments SET
  status=$1,
  date=CASE WHEN $1='paid' THEN $2 ELSE date END,
  razorpay_payment_id=COALESCE($3, razorpay_payment_id),
  razorpay_signature=COALESCE($4, razorpay_signature),
  updated_at=$2
WHERE status = ANY($5)`
	args := []interface{}{string(c.To), at, c.RazorpayPaymentID, c.RazorpaySignature, from}
	if m.ID != "" {
		args = append(args, m.ID)
		q += " AND id=$6"
	} else {
		args = append(args, m.OrderID)
		q += " AND order_id=$6"
	}
	if m.MemberID != "" {
		args = append(args, m.MemberID)
		q += " AND member_id=$7"
	}
	q += " RETURNING " + paymentColumns + ";"

	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, false, err
	}
	p, err := scanPayment(row)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

func (r *paymentRepo) MarkEffectsApplied(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	const q = `UPDATE payments SET effects_applied_at=$2, updated_at=$2 WHERE id=$1 AND effects_applied_at IS NULL;`
	ct, err := execSQL(ctx, r.pool, tx, q, id, at)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrEffectsAlreadyApplied
	}
	return nil
}

func (r *paymentRepo) ListPaidWithoutEffects(ctx context.Context, tx repository.Tx, paidBefore time.Time, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + paymentColumns + ` FROM payments
WHERE status='paid' AND effects_applied_at IS NULL AND date < $1
ORDER BY date ASC LIMIT $2;`
	return r.queryPayments(ctx, tx, q, paidBefore, limit)
}

func (r *paymentRepo) queryPayments(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Payment, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

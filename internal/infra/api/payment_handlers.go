package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"gym-membership-billing/internal/domain"
	"gym-membership-billing/internal/domain/model"
	"gym-membership-billing/internal/domain/ports/repository"
	"gym-membership-billing/internal/infra/logging"
	"gym-membership-billing/internal/infra/metrics"
	"gym-membership-billing/internal/usecase"

	"github.com/go-chi/chi/v5"
)

type Payment struct {
	ID                  string     `json:"id"`
	MemberID            string     `json:"memberId"`
	MemberName          string     `json:"memberName"`
	Amount              int64      `json:"amount"`
	Currency            string     `json:"currency"`
	Type                string     `json:"type"`
	Status              string     `json:"status"`
	Date                time.Time  `json:"date"`
	DueDate             *time.Time `json:"dueDate,omitempty"`
	InvoiceNumber       string     `json:"invoiceNumber"`
	OrderID             *string    `json:"orderId,omitempty"`
	MembershipPlanID    *string    `json:"membershipPlanId,omitempty"`
	AddPersonalTraining bool       `json:"addPersonalTraining"`
	ProductID           *string    `json:"productId,omitempty"`
	RazorpayPaymentID   *string    `json:"razorpayPaymentId,omitempty"`
	Notes               string     `json:"notes,omitempty"`
	EffectsAppliedAt    *time.Time `json:"effectsAppliedAt,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

func toPayment(p *model.Payment) Payment {
	return Payment{
		ID:                  p.ID,
		MemberID:            p.MemberID,
		MemberName:          p.MemberName,
		Amount:              p.Amount,
		Currency:            p.Currency,
		Type:                string(p.Type),
		Status:              string(p.Status),
		Date:                p.Date,
		DueDate:             p.DueDate,
		InvoiceNumber:       p.InvoiceNumber,
		OrderID:             p.OrderID,
		MembershipPlanID:    p.MembershipPlanID,
		AddPersonalTraining: p.AddPersonalTraining,
		ProductID:           p.ProductID,
		RazorpayPaymentID:   p.RazorpayPaymentID,
		Notes:               p.Notes,
		EffectsAppliedAt:    p.EffectsAppliedAt,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

type createOrderRequest struct {
	Amount              float64 `json:"amount"`
	Type                string  `json:"type"`
	MembershipPlanID    string  `json:"membershipPlanId"`
	AddPersonalTraining bool    `json:"addPersonalTraining"`
	ProductID           string  `json:"productId"`
}

type createOrderResponse struct {
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Amount    int64  `json:"amount"` // minor units
	Currency  string `json:"currency"`
	Key       string `json:"key"`
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	c := claimsFrom(r.Context())
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := s.payUC.CreateOrder(r.Context(), c.MemberID, usecase.OrderRequest{
		Type:                req.Type,
		MembershipPlanID:    req.MembershipPlanID,
		ProductID:           req.ProductID,
		AddPersonalTraining: req.AddPersonalTraining,
		ClientAmount:        req.Amount,
	})
	if err != nil {
		s.logFailure(r, err, "create order failed")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createOrderResponse{
		OrderID:   res.OrderID,
		PaymentID: res.PaymentID,
		Amount:    res.AmountMinor,
		Currency:  res.Currency,
		Key:       res.Key,
	})
}

type verifyRequest struct {
	OrderID           string `json:"orderId"`
	RazorpayPaymentID string `json:"razorpayPaymentId"`
	RazorpaySignature string `json:"razorpaySignature"`
}

type verifyResponse struct {
	Success bool    `json:"success"`
	Payment Payment `json:"payment"`
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result, reason := "fail", ""
	defer func() {
		metrics.PaymentVerifyRequests.WithLabelValues(result, reason).Inc()
		metrics.PaymentVerifyDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	}()

	c := claimsFrom(r.Context())
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		reason = "bad_json"
		writeMessage(w, http.StatusBadRequest, "orderId is required")
		return
	}

	p, err := s.payUC.Verify(r.Context(), req.OrderID, c.MemberID, usecase.Receipt{
		GatewayPaymentID: req.RazorpayPaymentID,
		Signature:        req.RazorpaySignature,
	})
	if err != nil {
		reason = verifyFailReason(err)
		s.logFailure(r, err, "verify failed")
		writeError(w, err)
		return
	}
	result = "ok"
	writeJSON(w, http.StatusOK, verifyResponse{Success: true, Payment: toPayment(p)})
}

func verifyFailReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrAlreadyCompleted):
		return "already_completed"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrVerificationFailed):
		return "signature"
	default:
		return "internal"
	}
}

type cancelOrderRequest struct {
	OrderID string `json:"orderId"`
}

type cancelOrderResponse struct {
	Success   bool   `json:"success"`
	PaymentID string `json:"paymentId"`
	Status    string `json:"status"`
}

func (s *Server) cancelOrder(w http.ResponseWriter, r *http.Request) {
	c := claimsFrom(r.Context())
	var req cancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		writeMessage(w, http.StatusBadRequest, "orderId is required")
		return
	}
	p, err := s.payUC.CancelOrder(r.Context(), c.MemberID, req.OrderID)
	if err != nil {
		s.logFailure(r, err, "cancel order failed")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cancelOrderResponse{Success: true, PaymentID: p.ID, Status: string(p.Status)})
}

type createPaymentRequest struct {
	MemberID            string     `json:"memberId"`
	Amount              int64      `json:"amount"`
	Type                string     `json:"type"`
	Status              string     `json:"status"`
	DueDate             *time.Time `json:"dueDate"`
	MembershipPlanID    string     `json:"membershipPlanId"`
	ProductID           string     `json:"productId"`
	AddPersonalTraining bool       `json:"addPersonalTraining"`
	Notes               string     `json:"notes"`
}

func (s *Server) createManual(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.MemberID == "" {
		writeMessage(w, http.StatusBadRequest, "memberId is required")
		return
	}
	p, err := s.payUC.CreateManual(r.Context(), usecase.ManualPaymentInput{
		MemberID:            req.MemberID,
		Amount:              req.Amount,
		Type:                req.Type,
		Status:              req.Status,
		DueDate:             req.DueDate,
		MembershipPlanID:    req.MembershipPlanID,
		ProductID:           req.ProductID,
		AddPersonalTraining: req.AddPersonalTraining,
		Notes:               req.Notes,
	})
	if err != nil {
		s.logFailure(r, err, "create payment failed")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPayment(p))
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		writeMessage(w, http.StatusBadRequest, "status is required")
		return
	}
	p, err := s.payUC.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		s.logFailure(r, err, "update payment status failed")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayment(p))
}

type listPaymentsResponse struct {
	Data []Payment `json:"data"`
}

func (s *Server) listPayments(w http.ResponseWriter, r *http.Request) {
	c := claimsFrom(r.Context())
	q := r.URL.Query()

	var f repository.PaymentFilter
	if v := q.Get("status"); v != "" {
		st, err := model.ParsePaymentStatus(v)
		if err != nil {
			writeError(w, err)
			return
		}
		f.Status = st
	}
	if v := q.Get("type"); v != "" {
		t, err := model.ParsePaymentType(v)
		if err != nil {
			writeError(w, err)
			return
		}
		f.Type = t
	}
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	f.Offset, _ = strconv.Atoi(q.Get("offset"))

	if c.IsAdmin() {
		f.MemberID = q.Get("memberId")
	} else {
		f.MemberID = c.MemberID
	}

	items, err := s.payUC.List(r.Context(), f)
	if err != nil {
		s.logFailure(r, err, "list payments failed")
		writeError(w, err)
		return
	}
	out := listPaymentsResponse{Data: make([]Payment, 0, len(items))}
	for _, p := range items {
		out.Data = append(out.Data, toPayment(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getPayment(w http.ResponseWriter, r *http.Request) {
	c := claimsFrom(r.Context())
	p, err := s.payUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	// Non-owners get the same 404 as a missing id.
	if !c.IsAdmin() && !p.OwnedBy(c.MemberID) {
		writeError(w, domain.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toPayment(p))
}

// logFailure logs server-side failures only; client errors are already in the access log.
func (s *Server) logFailure(r *http.Request, err error, msg string) {
	if statusFor(err) < http.StatusInternalServerError {
		return
	}
	l := logging.With(r.Context(), s.log)
	l.Error().Err(err).Msg(msg)
}

package api

import (
	"net/http"
	"time"

	"gym-membership-billing/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Kind      string    `json:"type"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

func toNotification(n *model.Notification) Notification {
	return Notification{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Kind:      string(n.Kind),
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

type listNotificationsResponse struct {
	Data []Notification `json:"data"`
}

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	c := claimsFrom(r.Context())
	unread := r.URL.Query().Get("unread") == "true"

	items, err := s.notifUC.ListForUser(r.Context(), c.UserID(), unread)
	if err != nil {
		s.logFailure(r, err, "list notifications failed")
		writeError(w, err)
		return
	}
	out := listNotificationsResponse{Data: make([]Notification, 0, len(items))}
	for _, n := range items {
		out.Data = append(out.Data, toNotification(n))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	c := claimsFrom(r.Context())
	if err := s.notifUC.MarkRead(r.Context(), c.UserID(), chi.URLParam(r, "id")); err != nil {
		s.logFailure(r, err, "mark notification read failed")
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

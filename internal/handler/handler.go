package handler

import (
	"net/http"

	"github.com/civiport-dev/civiport/internal/config"
	"github.com/civiport-dev/civiport/internal/service"
	"github.com/civiport-dev/civiport/internal/utils"
)

type Pinger interface {
	Ping() error
}

type Handler struct {
	auth          service.AuthService
	oauth         service.OAuthService
	issues        service.IssueService
	events        service.EventService
	announcements service.AnnouncementService
	departments   service.DepartmentService
	db            Pinger
	cfg           *config.Config
}

func New(
	auth service.AuthService,
	oauth service.OAuthService,
	issues service.IssueService,
	events service.EventService,
	announcements service.AnnouncementService,
	departments service.DepartmentService,
	db Pinger,
	cfg *config.Config,
) *Handler {
	return &Handler{auth, oauth, issues, events, announcements, departments, db, cfg}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(); err != nil {
		utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

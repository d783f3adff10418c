package handler

import (
	"net/http"

	"github.com/civiport-dev/civiport/internal/api"
	"github.com/civiport-dev/civiport/internal/domain"
	"github.com/civiport-dev/civiport/internal/utils"
)

func (h *Handler) ListAnnouncements(w http.ResponseWriter, r *http.Request) {
	list, err := h.announcements.List()
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	resp := make([]api.AnnouncementResponse, 0, len(list))
	for _, a := range list {
		resp = append(resp, announcementResponse(a))
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetAnnouncement(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "announcementId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	a, err := h.announcements.Get(id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, announcementResponse(a))
}

func (h *Handler) CreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	var req api.CreateAnnouncementRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	a, err := h.announcements.Create(domain.Announcement{Title: req.Title, Body: req.Body})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, announcementResponse(a))
}

func (h *Handler) UpdateAnnouncement(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "announcementId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	var req api.CreateAnnouncementRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	a, err := h.announcements.Update(domain.Announcement{Id: id, Title: req.Title, Body: req.Body})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, announcementResponse(a))
}

func (h *Handler) DeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "announcementId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err := h.announcements.Delete(id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

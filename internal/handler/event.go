package handler

import (
	"net/http"

	"github.com/civiport-dev/civiport/internal/api"
	"github.com/civiport-dev/civiport/internal/domain"
	"github.com/civiport-dev/civiport/internal/utils"
)

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.List()
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	resp := make([]api.EventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, eventResponse(e))
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "eventId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	event, err := h.events.Get(id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, eventResponse(event))
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req api.CreateEventRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	event, err := h.events.Create(domain.Event{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, eventResponse(event))
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "eventId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	var req api.CreateEventRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	event, err := h.events.Update(domain.Event{
		Id:          id,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, eventResponse(event))
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "eventId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err := h.events.Delete(id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

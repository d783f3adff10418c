package handler

import (
	"net/http"

	"github.com/civiport-dev/civiport/internal/api"
	"github.com/civiport-dev/civiport/internal/domain"
	"github.com/civiport-dev/civiport/internal/utils"
)

func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	list, err := h.departments.List()
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	resp := make([]api.DepartmentResponse, 0, len(list))
	for _, d := range list {
		resp = append(resp, departmentResponse(d))
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "departmentId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	d, err := h.departments.Get(id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, departmentResponse(d))
}

func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var req api.CreateDepartmentRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	d, err := h.departments.Create(domain.Department{
		Name:         req.Name,
		Description:  req.Description,
		ContactEmail: domain.Email(req.ContactEmail),
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, departmentResponse(d))
}

func (h *Handler) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "departmentId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	var req api.CreateDepartmentRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	d, err := h.departments.Update(domain.Department{
		Id:           id,
		Name:         req.Name,
		Description:  req.Description,
		ContactEmail: domain.Email(req.ContactEmail),
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, departmentResponse(d))
}

func (h *Handler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "departmentId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err := h.departments.Delete(id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/civiport-dev/civiport/internal/api"
	"github.com/civiport-dev/civiport/internal/domain"
	"github.com/civiport-dev/civiport/internal/errors"
	"github.com/civiport-dev/civiport/internal/middleware"
	"github.com/civiport-dev/civiport/internal/service"
	"github.com/civiport-dev/civiport/internal/utils"
)

// CreateIssue accepts either a plain JSON body or a multipart form with a
// "json" field plus up to MaxPhotosPerIssue files under "photos".
func (h *Handler) CreateIssue(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r)

	var req api.CreateIssueRequest
	var photos []service.PhotoUpload
	var cleanup func()

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		var err error
		photos, cleanup, err = h.parseIssueForm(r, &req)
		if err != nil {
			utils.WriteErrorAndStatusCode(w, err)
			return
		}
		defer cleanup()
	} else {
		if err := utils.DecodeValidate(r.Body, &req); err != nil {
			utils.WriteErrorAndStatusCode(w, err)
			return
		}
	}

	issue := domain.Issue{
		Title:       req.Title,
		Description: req.Description,
		Category:    domain.IssueCategory(req.Category),
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Address:     req.Address,
		AuthorId:    identity.Id,
	}

	created, err := h.issues.Create(r.Context(), issue, photos)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	urls := h.issues.PhotoURLs(r.Context(), created.PhotoKeys)
	utils.WriteJSON(w, http.StatusCreated, issueResponse(created, urls))
}

func (h *Handler) parseIssueForm(r *http.Request, req *api.CreateIssueRequest) ([]service.PhotoUpload, func(), error) {
	maxRequestSize := h.cfg.Public.MaxPhotoSizeBytes*int64(h.cfg.Public.MaxPhotosPerIssue) + 1<<20
	r.Body = http.MaxBytesReader(nil, r.Body, maxRequestSize)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		return nil, nil, errors.New("Request body too large", http.StatusRequestEntityTooLarge)
	}

	jsonPayload := r.FormValue("json")
	if jsonPayload == "" {
		return nil, nil, errors.BadRequest("Missing json field in multipart form")
	}
	if err := utils.DecodeValidate(strings.NewReader(jsonPayload), req); err != nil {
		return nil, nil, err
	}

	files := r.MultipartForm.File["photos"]
	photos := make([]service.PhotoUpload, 0, len(files))
	opened := make([]interface{ Close() error }, 0, len(files))
	cleanup := func() {
		for _, f := range opened {
			f.Close()
		}
	}
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			cleanup()
			return nil, nil, errors.BadRequest("Failed to read uploaded photo")
		}
		opened = append(opened, f)
		photos = append(photos, service.PhotoUpload{
			Body:        f,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
		})
	}
	return photos, cleanup, nil
}

func (h *Handler) ListIssues(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.IssueFilter{
		Status:   domain.IssueStatus(q.Get("status")),
		Category: domain.IssueCategory(q.Get("category")),
		PerPage:  h.cfg.Public.IssuesPerPage,
	}
	if dep := q.Get("department"); dep != "" {
		id, err := strconv.ParseInt(dep, 10, 64)
		if err != nil || id <= 0 {
			utils.WriteErrorAndStatusCode(w, errors.BadRequest("Invalid department"))
			return
		}
		filter.Department = id
	}
	if page := q.Get("page"); page != "" {
		p, err := strconv.Atoi(page)
		if err != nil || p < 1 {
			utils.WriteErrorAndStatusCode(w, errors.BadRequest("Invalid page"))
			return
		}
		filter.Page = p
	}
	if filter.Page == 0 {
		filter.Page = 1
	}

	issues, err := h.issues.List(r.Context(), filter)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	resp := api.IssueListResponse{
		Issues:  make([]api.IssueResponse, 0, len(issues)),
		Page:    filter.Page,
		PerPage: filter.PerPage,
	}
	for _, issue := range issues {
		urls := h.issues.PhotoURLs(r.Context(), issue.PhotoKeys)
		resp.Issues = append(resp.Issues, issueResponse(issue, urls))
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetIssue(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "issueId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	issue, comments, err := h.issues.Get(r.Context(), id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	resp := api.IssueDetailResponse{
		Issue:    issueResponse(issue, h.issues.PhotoURLs(r.Context(), issue.PhotoKeys)),
		Comments: make([]api.CommentResponse, 0, len(comments)),
	}
	for _, c := range comments {
		resp.Comments = append(resp.Comments, commentResponse(c))
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) UpvoteIssue(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "issueId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	identity := middleware.IdentityFromContext(r)

	upvoted, count, err := h.issues.ToggleUpvote(id, identity.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.UpvoteResponse{Upvoted: upvoted, Count: count})
}

func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "issueId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	identity := middleware.IdentityFromContext(r)

	var req api.CreateCommentRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	comment, err := h.issues.AddComment(domain.Comment{
		IssueId:  id,
		AuthorId: identity.Id,
		Body:     req.Body,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, commentResponse(comment))
}

func (h *Handler) TriageIssue(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "issueId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	var req api.TriageIssueRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	var status *domain.IssueStatus
	if req.Status != "" {
		s := domain.IssueStatus(req.Status)
		status = &s
	}

	if err := h.issues.Triage(id, status, req.DepartmentId); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	issue, _, err := h.issues.Get(r.Context(), id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, issueResponse(issue, h.issues.PhotoURLs(r.Context(), issue.PhotoKeys)))
}

func (h *Handler) DeleteIssue(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "issueId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err := h.issues.Delete(r.Context(), id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

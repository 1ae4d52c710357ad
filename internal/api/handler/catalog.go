package handler

import (
	"net/http"
	"strconv"

	"github.com/mcoot/paradox/internal/api/request"
	"github.com/mcoot/paradox/internal/api/response"
	"github.com/mcoot/paradox/internal/model"
	"github.com/mcoot/paradox/internal/services/catalog"
	"github.com/mcoot/paradox/internal/services/leaderboard"
)

// CatalogHandler serves the read-mostly content: questions, hints, the team
// directory and the leaderboard
type CatalogHandler struct {
	catalog     *catalog.Service
	leaderboard *leaderboard.Projector
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog *catalog.Service, leaderboard *leaderboard.Projector) *CatalogHandler {
	return &CatalogHandler{
		catalog:     catalog,
		leaderboard: leaderboard,
	}
}

// Leaderboard handles GET /api/v1/leaderboard
func (h *CatalogHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	entries, err := h.leaderboard.Standings(r.Context(), page)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LeaderboardFromEntries(entries))
}

func parsePage(r *http.Request) (leaderboard.Page, error) {
	var page leaderboard.Page
	v := model.NewValidationError()
	q := r.URL.Query()

	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			v.Add("page", "must be a positive integer")
		}
		page.Page = n
	}
	if raw := q.Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			v.Add("page_size", "must be a positive integer")
		}
		page.PageSize = n
	}
	return page, v.Err()
}

// Questions handles GET /api/v1/questions
func (h *CatalogHandler) Questions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.catalog.Questions(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.QuestionsFromModel(questions))
}

// Hints handles GET /api/v1/hints
func (h *CatalogHandler) Hints(w http.ResponseWriter, r *http.Request) {
	hints, err := h.catalog.HintSets(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.HintSetsFromModel(hints))
}

// Members handles GET /api/v1/members
func (h *CatalogHandler) Members(w http.ResponseWriter, r *http.Request) {
	members, err := h.catalog.Members(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MembersFromModel(members))
}

// Positions handles GET /api/v1/members/positions
func (h *CatalogHandler) Positions(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, h.catalog.Positions())
}

// AddMember handles POST /api/v1/members
func (h *CatalogHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req request.AddMemberRequest
	if !decode(w, r, &req) {
		return
	}

	member, err := h.catalog.AddMember(r.Context(), catalog.MemberInput{
		Name:        req.Name,
		Position:    req.Position,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		GithubURL:   req.GithubURL,
		LinkedInURL: req.LinkedInURL,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.MemberFromModel(member))
}

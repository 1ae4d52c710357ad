package handler

import (
	"net/http"

	"github.com/mcoot/paradox/internal/api/apierr"
	"github.com/mcoot/paradox/internal/api/request"
	"github.com/mcoot/paradox/internal/api/response"
	"github.com/mcoot/paradox/internal/model"
	"github.com/mcoot/paradox/internal/services/progression"
)

// ProgressionHandler handles the economy write endpoints. Each one names the
// acting identity in the request body.
type ProgressionHandler struct {
	engine *progression.Engine
}

// NewProgressionHandler creates a new progression handler
func NewProgressionHandler(engine *progression.Engine) *ProgressionHandler {
	return &ProgressionHandler{
		engine: engine,
	}
}

func requireIdentity(id string) error {
	if id == "" {
		return model.FieldError("identity_id", "is required")
	}
	return nil
}

// Referral handles POST /api/v1/referral
func (h *ProgressionHandler) Referral(w http.ResponseWriter, r *http.Request) {
	var req request.ReferralRequest
	if !decode(w, r, &req) {
		return
	}
	if err := requireIdentity(req.IdentityID); err != nil {
		WriteError(w, err)
		return
	}

	redemption, err := h.engine.RedeemReferral(r.Context(), model.IdentityID(req.IdentityID), req.RefCode)
	if err != nil {
		WriteError(w, apierr.ForRequestBody(err))
		return
	}

	response.JSON(w, http.StatusOK, response.ReferralFromRedemption(redemption))
}

// Hint handles POST /api/v1/hint
func (h *ProgressionHandler) Hint(w http.ResponseWriter, r *http.Request) {
	var req request.HintRequest
	if !decode(w, r, &req) {
		return
	}
	if err := requireIdentity(req.IdentityID); err != nil {
		WriteError(w, err)
		return
	}

	purchase, err := h.engine.PurchaseHint(r.Context(), model.IdentityID(req.IdentityID), req.Level, req.RequestedTier)
	if err != nil {
		WriteError(w, apierr.ForRequestBody(err))
		return
	}

	response.JSON(w, http.StatusOK, response.HintPurchaseFromModel(purchase))
}

// Answer handles POST /api/v1/answer
func (h *ProgressionHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req request.AnswerRequest
	if !decode(w, r, &req) {
		return
	}
	if err := requireIdentity(req.IdentityID); err != nil {
		WriteError(w, err)
		return
	}

	player, err := h.engine.SubmitAnswer(r.Context(), model.IdentityID(req.IdentityID), req.Level, req.Answer)
	if err != nil {
		WriteError(w, apierr.ForRequestBody(err))
		return
	}

	response.JSON(w, http.StatusOK, response.Outcome{
		Message: "correct",
		Profile: response.PlayerStateFromModel(player),
	})
}

// Coins handles PUT /api/v1/coins
func (h *ProgressionHandler) Coins(w http.ResponseWriter, r *http.Request) {
	var req request.CoinsRequest
	if !decode(w, r, &req) {
		return
	}

	v := model.NewValidationError()
	v.CheckRequired("identity_id", req.IdentityID)
	if req.Amount == nil {
		v.Add("amount", "is required")
	}
	if err := v.Err(); err != nil {
		WriteError(w, err)
		return
	}

	player, err := h.engine.GrantCoins(r.Context(), model.IdentityID(req.IdentityID), *req.Amount)
	if err != nil {
		WriteError(w, apierr.ForRequestBody(err))
		return
	}

	response.JSON(w, http.StatusOK, response.Outcome{
		Message: "coins granted",
		Profile: response.PlayerStateFromModel(player),
	})
}

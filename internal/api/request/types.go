package request

// RegisterRequest is the request body for registering a participant
type RegisterRequest struct {
	IdentityID  string `json:"identity_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// ReferralRequest is the request body for redeeming a referral code
type ReferralRequest struct {
	IdentityID string `json:"identity_id"`
	RefCode    string `json:"ref_code"`
}

// HintRequest is the request body for buying a hint tier
type HintRequest struct {
	IdentityID    string `json:"identity_id"`
	Level         int    `json:"level"`
	RequestedTier int    `json:"requested_tier"`
}

// AnswerRequest is the request body for answering the current question
type AnswerRequest struct {
	IdentityID string `json:"identity_id"`
	Level      int    `json:"level"`
	Answer     string `json:"answer"`
}

// CoinsRequest is the request body for granting coins.
// Amount is a pointer so an omitted amount is distinguishable from zero.
type CoinsRequest struct {
	IdentityID string `json:"identity_id"`
	Amount     *int   `json:"amount"`
}

// AddMemberRequest is the request body for adding a team directory entry
type AddMemberRequest struct {
	Name        string `json:"name"`
	Position    string `json:"position"`
	Category    string `json:"category,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	GithubURL   string `json:"github_url,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
}

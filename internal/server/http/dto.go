package http

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message       string `json:"message" binding:"required"`
	SessionID     string `json:"session_id"`
	SSESessionID  string `json:"sse_session_id"`
}

// ConfirmRequest is the body of POST /chat/confirm.
type ConfirmRequest struct {
	Message string `json:"message" binding:"required"`
}

// ConfirmationContextDTO is the wire shape of a pending confirmation,
// per spec §6's `confirmation_context` field.
type ConfirmationContextDTO struct {
	ItemName string        `json:"item_name"`
	Options  []string      `json:"options"`
	Items    []InventoryDTO `json:"candidate_items,omitempty"`
}

// InventoryDTO is one inventory record as surfaced to clients.
type InventoryDTO struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	Unit      string  `json:"unit"`
	CreatedAt string  `json:"created_at"`
}

// MenuProposalDTO mirrors compose.MenuProposal over the wire.
type MenuProposalDTO struct {
	Source     string   `json:"source"`
	Title      string   `json:"title"`
	RecipeURLs []string `json:"recipe_urls,omitempty"`
}

// ChatResponse is the body returned by both /chat and /chat/confirm,
// per spec §6: `{response, success, model_used, user_id,
// confirmation_required?, confirmation_context?}`.
type ChatResponse struct {
	Response              string                   `json:"response"`
	Success               bool                     `json:"success"`
	ModelUsed             string                   `json:"model_used,omitempty"`
	UserID                string                   `json:"user_id"`
	SessionID             string                   `json:"session_id"`
	Menus                 []MenuProposalDTO        `json:"menus,omitempty"`
	ConfirmationRequired  bool                     `json:"confirmation_required,omitempty"`
	ConfirmationContext   *ConfirmationContextDTO  `json:"confirmation_context,omitempty"`
}

// SessionStatusResponse is the body of GET /session/status.
type SessionStatusResponse struct {
	UserID              string `json:"user_id"`
	SessionID           string `json:"session_id"`
	HistoryEntries      int    `json:"history_entries"`
	InventoryCount      int    `json:"inventory_count"`
	HasPendingConfirm   bool   `json:"has_pending_confirmation"`
}

// SessionSummaryDTO is one entry of GET /session/all.
type SessionSummaryDTO struct {
	SessionID      string `json:"session_id"`
	InventoryCount int    `json:"inventory_count"`
	HistoryEntries int    `json:"history_entries"`
}

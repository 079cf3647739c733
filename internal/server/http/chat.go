package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pantry/internal/compose"
	"pantry/internal/confirmation"
	"pantry/internal/domain/session"
	"pantry/internal/domain/task"
	"pantry/internal/executor"
	"pantry/internal/metrics"
	"pantry/internal/taskchain"
	"pantry/internal/taskerrors"
)

func (s *Server) handleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString("user_id")
	token := c.GetString("auth_token")
	sess := s.store.GetOrCreate(userID, token)

	streamID := req.SSESessionID
	if streamID == "" {
		streamID = sess.ID
	}

	ctx := c.Request.Context()
	plan, err := s.planner.CreatePlan(ctx, req.Message, sess.Snapshot())
	if err != nil {
		c.JSON(http.StatusOK, ChatResponse{
			Response:  taskerrors.FormatForUser(&taskerrors.PlanValidationError{Reason: err.Error()}),
			Success:   false,
			UserID:    userID,
			SessionID: sess.ID,
		})
		return
	}

	resp := s.dispatch(ctx, userID, token, streamID, req.Message, sess, plan, false)
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleConfirm(c *gin.Context) {
	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString("user_id")
	token := c.GetString("auth_token")
	sess, ok := s.store.Get(userID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
		return
	}

	pending := sess.TakePendingConfirmation()
	if pending == nil {
		c.JSON(http.StatusOK, ChatResponse{
			Response: "There's nothing pending to confirm.", Success: false, UserID: userID, SessionID: sess.ID,
		})
		return
	}
	if pending.Expired(s.cfg.ConfirmationTimeout, time.Now()) {
		c.JSON(http.StatusOK, ChatResponse{
			Response:  taskerrors.FormatForUser(&taskerrors.ConfirmationTimeoutError{SessionID: sess.ID}),
			Success:   false,
			UserID:    userID,
			SessionID: sess.ID,
		})
		return
	}

	outcome := confirmation.Resolve(pending, req.Message)
	ctx := c.Request.Context()

	// A clarify-sentinel head means the reply matched no known keyword;
	// the sentinel must never reach the Tool Registry, so the prompt is
	// re-issued and the same confirmation re-parked.
	if !outcome.Cancelled && len(outcome.Plan.Tasks) > 0 && outcome.Plan.Tasks[0].Tool == confirmation.ClarifyToolSentinel {
		sess.SetPendingConfirmation(pending)
		prompt := confirmation.BuildPromptFromContext(pending)
		c.JSON(http.StatusOK, ChatResponse{
			Response:             "Sorry, I didn't catch that. " + prompt.Message,
			Success:              true,
			UserID:               userID,
			SessionID:            sess.ID,
			ConfirmationRequired: true,
			ConfirmationContext:  confirmationContextDTO(pending),
		})
		return
	}

	resp := s.dispatch(ctx, userID, token, sess.ID, req.Message, sess, outcome.Plan, outcome.Cancelled)
	c.JSON(http.StatusOK, resp)
}

// dispatch drives a plan (fresh or resumed) to its next observable
// outcome and renders the HTTP response, per spec §4.6/§4.9.
func (s *Server) dispatch(ctx context.Context, userID, token, streamID, utterance string, sess *session.Session, plan *task.Plan, cancelled bool) ChatResponse {
	manager := taskchain.New(streamID, s.hub)

	if cancelled {
		manager.SetTaskChain(plan)
		executor.Skip(plan, manager)
		manager.MarkComplete(plan, "cancelled")
		metrics.PlansCompleted.WithLabelValues("cancelled").Inc()
		result := s.composer.Compose(ctx, utterance, plan, true)
		return ChatResponse{Response: result.Message, Success: true, ModelUsed: s.cfg.LLM.Model, UserID: userID, SessionID: sess.ID}
	}

	if plan.IsEmpty() {
		result := s.composer.Compose(ctx, utterance, plan, false)
		return ChatResponse{Response: result.Message, Success: true, ModelUsed: s.cfg.LLM.Model, UserID: userID, SessionID: sess.ID}
	}

	sess.RecordHistory(session.HistoryEntry{
		Kind:      "plan",
		Details:   map[string]any{"utterance": utterance},
		Before:    sess.Snapshot(),
		Timestamp: time.Now(),
	})

	metrics.PlansStarted.Inc()
	manager.SetTaskChain(plan)
	outcome := s.exec.Run(ctx, plan, sess.Snapshot(), token, manager)

	if outcome.Status == executor.OutcomeSuspended {
		manager.PauseForConfirmation()
		sess.SetPendingConfirmation(outcome.Confirmation)
		metrics.ConfirmationsRequested.WithLabelValues(outcome.Confirmation.Type).Inc()

		prompt := confirmation.BuildPromptFromContext(outcome.Confirmation)
		return ChatResponse{
			Response:             prompt.Message,
			Success:              true,
			ModelUsed:            s.cfg.LLM.Model,
			UserID:               userID,
			SessionID:            sess.ID,
			ConfirmationRequired: true,
			ConfirmationContext:  confirmationContextDTO(outcome.Confirmation),
		}
	}

	manager.MarkComplete(plan, "done")
	refreshInventoryFromPlan(sess, plan)
	sess.PatchLastHistoryAfter(sess.Snapshot())

	success := outcome.SystemErr == nil
	metrics.PlansCompleted.WithLabelValues(outcomeLabel(success)).Inc()

	result := s.composer.Compose(ctx, utterance, plan, false)
	message := result.Message
	if outcome.SystemErr != nil {
		message = taskerrors.FormatForUser(outcome.SystemErr)
	}
	return ChatResponse{
		Response:  message,
		Success:   success,
		ModelUsed: s.cfg.LLM.Model,
		UserID:    userID,
		SessionID: sess.ID,
		Menus:     menuDTOs(result.Menus),
	}
}

func outcomeLabel(success bool) string {
	if success {
		return "completed"
	}
	return "system_error"
}

func confirmationContextDTO(ctx *session.ConfirmationContext) *ConfirmationContextDTO {
	items := make([]InventoryDTO, 0, len(ctx.CandidateItems))
	for _, rec := range ctx.CandidateItems {
		items = append(items, InventoryDTO{
			ID: rec.ID, Name: rec.Name, Quantity: rec.Quantity, Unit: rec.Unit,
			CreatedAt: rec.CreatedAt.Format(time.RFC3339),
		})
	}
	return &ConfirmationContextDTO{ItemName: ctx.ItemName, Options: ctx.Options, Items: items}
}

func menuDTOs(menus []compose.MenuProposal) []MenuProposalDTO {
	if len(menus) == 0 {
		return nil
	}
	out := make([]MenuProposalDTO, 0, len(menus))
	for _, m := range menus {
		out = append(out, MenuProposalDTO{Source: m.Source, Title: m.Title, RecipeURLs: m.RecipeURLs})
	}
	return out
}

// refreshInventoryFromPlan updates the session's inventory snapshot
// from the result of any completed inventory_list task, so the next
// turn's Ambiguity Detector sees the tool layer's latest state.
func refreshInventoryFromPlan(sess *session.Session, plan *task.Plan) {
	for _, t := range plan.Tasks {
		if t.Status != task.StatusCompleted || t.Tool != "inventory_list" {
			continue
		}
		records, ok := t.Result.([]any)
		if !ok {
			continue
		}
		out := make([]session.InventoryRecord, 0, len(records))
		for _, raw := range records {
			m, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			rec := session.InventoryRecord{}
			if v, ok := m["id"].(string); ok {
				rec.ID = v
			}
			if v, ok := m["name"].(string); ok {
				rec.Name = v
			}
			if v, ok := m["quantity"].(float64); ok {
				rec.Quantity = v
			}
			if v, ok := m["unit"].(string); ok {
				rec.Unit = v
			}
			if v, ok := m["created_at"].(string); ok {
				if parsed, err := time.Parse(time.RFC3339, v); err == nil {
					rec.CreatedAt = parsed
				}
			}
			out = append(out, rec)
		}
		sess.SetInventory(out)
	}
}

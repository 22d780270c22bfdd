package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"replydesk/internal/models"
	"replydesk/internal/pipeline"
	"replydesk/internal/pipeline/writer"
)

const minMessageLength = 3

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.CustomerMessage = strings.TrimSpace(req.CustomerMessage)
	if len(req.CustomerMessage) < minMessageLength {
		writeError(w, http.StatusBadRequest, "customer_message is required and must be at least 3 characters")
		return
	}

	profile, ok := s.resolveProfile(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	result, err := s.pipeline.Reply(ctx, pipeline.Request{
		Profile:            profile,
		CustomerMessage:    req.CustomerMessage,
		ModifyInstructions: strings.TrimSpace(req.ModifyInstructions),
		BuyerName:          req.BuyerName,
		OrderID:            strings.TrimSpace(req.OrderID),
		Thread:             toThread(req.ThreadMessages),
	})
	if err != nil {
		s.writePipelineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, GenerateResponse{
		Success:   true,
		Reply:     result.Reply,
		Intent:    string(result.Intent),
		Risk:      string(result.Risk),
		Route:     result.Route,
		LatencyMS: result.LatencyMS,
		FactsUsed: result.FactsUsed,
	})
}

func (s *Server) handleModify(w http.ResponseWriter, r *http.Request) {
	var req ModifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.OriginalReply = strings.TrimSpace(req.OriginalReply)
	req.Instructions = strings.TrimSpace(req.Instructions)
	if req.OriginalReply == "" || req.Instructions == "" {
		writeError(w, http.StatusBadRequest, "original_reply and instructions are required")
		return
	}

	profile, ok := s.resolveProfile(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	result, err := s.pipeline.Modify(ctx, pipeline.ModifyRequest{
		Profile:         profile,
		OriginalReply:   req.OriginalReply,
		CustomerMessage: strings.TrimSpace(req.CustomerMessage),
		Instructions:    req.Instructions,
	})
	if err != nil {
		s.writePipelineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ModifyResponse{
		Success: true,
		Reply:   result.Reply,
		Route:   result.Route,
	})
}

// handleUsageDaily serves the caller's usage aggregate for one day.
// The date query parameter defaults to today (UTC).
func (s *Server) handleUsageDaily(w http.ResponseWriter, r *http.Request) {
	accountID := r.Header.Get("X-Account-ID")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "X-Account-ID header is required")
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	ev, err := s.usage.Daily(r.Context(), accountID, date)
	if err != nil {
		s.logger.Error("usage query failed", map[string]interface{}{
			"accountId": accountID,
			"error":     err.Error(),
		})
		writeError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
		return
	}

	writeJSON(w, http.StatusOK, UsageResponse{
		AccountID:  accountID,
		Date:       date,
		Replies:    ev.Replies,
		RuleCount:  ev.RuleCount,
		LowCount:   ev.LowCount,
		HighCount:  ev.HighCount,
		TokensUsed: ev.TokensUsed,
		CostUSD:    ev.CostUSD,
	})
}

// resolveProfile runs the profile/entitlement lookup for the account
// named in the X-Account-ID header.
func (s *Server) resolveProfile(w http.ResponseWriter, r *http.Request) (models.SellerProfile, bool) {
	accountID := r.Header.Get("X-Account-ID")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "X-Account-ID header is required")
		return models.SellerProfile{}, false
	}

	profile, entitled, err := s.profiles.Resolve(r.Context(), accountID)
	if err != nil {
		s.logger.Error("profile lookup failed", map[string]interface{}{
			"accountId": accountID,
			"error":     err.Error(),
		})
		writeError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
		return models.SellerProfile{}, false
	}
	if !entitled {
		writeError(w, http.StatusForbidden, "subscription required")
		return models.SellerProfile{}, false
	}

	profile.AccountID = accountID
	return profile, true
}

func (s *Server) writePipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, writer.ErrBackendsExhausted):
		writeError(w, http.StatusServiceUnavailable, "reply generation is temporarily unavailable, please retry shortly")
	case errors.Is(err, context.Canceled):
		// Caller is gone; the status is moot but close the exchange
		// cleanly.
		writeError(w, http.StatusServiceUnavailable, "request canceled")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "reply generation timed out, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func toThread(in []ThreadMessage) []models.ThreadMessage {
	if len(in) == 0 {
		return nil
	}
	out := make([]models.ThreadMessage, 0, len(in))
	for _, m := range in {
		out = append(out, models.ThreadMessage{Role: m.Role, Text: m.Text})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/llocg/internal/core"
)

// decodeBody reads a JSON body capped at Server.MaxBodyBytes into v.
// Every failure is returned as a *core.ValidationError.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var ve *core.ValidationError
		if errors.As(err, &ve) {
			return err
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return core.NewValidationError("", fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		}
		return core.NewValidationErrorKind(core.KindUnreadable, "", fmt.Sprintf("failed to parse request payload: %v", err))
	}
	return nil
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		badRequest(w, r, "id", "must be a positive integer")
		return
	}

	card, err := s.catalog.GetCard(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var card core.NewCard
	if err := s.decodeBody(w, r, &card); err != nil {
		respondError(w, r, err)
		return
	}

	created, err := s.catalog.CreateCard(r.Context(), card)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleCreateCards accepts a JSON array of card payloads and creates them
// all or none.
func (s *Server) handleCreateCards(w http.ResponseWriter, r *http.Request) {
	var raw []json.RawMessage
	if err := s.decodeBody(w, r, &raw); err != nil {
		respondError(w, r, err)
		return
	}

	cards := make([]core.NewCard, 0, len(raw))
	for i, msg := range raw {
		card, err := core.DecodeNewCard(msg)
		if err != nil {
			respondError(w, r, fmt.Errorf("card %d: %w", i, err))
			return
		}
		cards = append(cards, card)
	}

	created, err := s.catalog.CreateCards(r.Context(), cards)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

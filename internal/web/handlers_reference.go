package web

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/llocg/internal/core"
)

type nameRequest struct {
	Name string `json:"name"`
}

type variantRequest struct {
	VariantName   string `json:"variant_name"`
	CanonicalName string `json:"canonical_name"`
}

type rarityRequest struct {
	RarityCode string          `json:"rarity_code"`
	RarityType core.RarityType `json:"rarity_type"`
}

// Sets

func (s *Server) handleListSets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.ListSets())
}

func (s *Server) handleAddSet(w http.ResponseWriter, r *http.Request) {
	var req core.Set
	if err := s.decodeBody(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	s.created(w, r, s.catalog.AddSet(r.Context(), req))
}

func (s *Server) handleDeleteSet(w http.ResponseWriter, r *http.Request) {
	s.deleted(w, r, s.catalog.DeleteSet, pathParam(r, "setCode"))
}

// Groups, units and names

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.ListGroups())
}

func (s *Server) handleAddGroup(w http.ResponseWriter, r *http.Request) {
	s.addNamed(w, r, s.catalog.AddGroup)
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	s.deleted(w, r, s.catalog.DeleteGroup, pathParam(r, "name"))
}

func (s *Server) handleListUnits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.ListUnits())
}

func (s *Server) handleAddUnit(w http.ResponseWriter, r *http.Request) {
	s.addNamed(w, r, s.catalog.AddUnit)
}

func (s *Server) handleDeleteUnit(w http.ResponseWriter, r *http.Request) {
	s.deleted(w, r, s.catalog.DeleteUnit, pathParam(r, "name"))
}

func (s *Server) handleListNames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.ListNames())
}

// Rarities

func (s *Server) handleListRarities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.ListRarities())
}

// handleGetRarity never 404s: unknown codes are Regular.
func (s *Server) handleGetRarity(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.GetRarity(pathParam(r, "code")))
}

func (s *Server) handleAddRarity(w http.ResponseWriter, r *http.Request) {
	var req rarityRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.RarityCode == "" {
		badRequest(w, r, "rarity_code", "is required")
		return
	}
	s.created(w, r, s.catalog.AddRarity(r.Context(), req.RarityCode, req.RarityType))
}

func (s *Server) handleDeleteRarity(w http.ResponseWriter, r *http.Request) {
	s.deleted(w, r, s.catalog.DeleteRarity, pathParam(r, "code"))
}

// Variants

func (s *Server) handleListNameVariants(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.ListNameVariants())
}

func (s *Server) handleAddNameVariant(w http.ResponseWriter, r *http.Request) {
	s.addVariant(w, r, s.catalog.AddNameVariant)
}

func (s *Server) handleDeleteNameVariant(w http.ResponseWriter, r *http.Request) {
	s.deleted(w, r, s.catalog.DeleteNameVariant, pathParam(r, "variant"))
}

func (s *Server) handleListGroupVariants(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.ListGroupVariants())
}

func (s *Server) handleAddGroupVariant(w http.ResponseWriter, r *http.Request) {
	s.addVariant(w, r, s.catalog.AddGroupVariant)
}

func (s *Server) handleDeleteGroupVariant(w http.ResponseWriter, r *http.Request) {
	s.deleted(w, r, s.catalog.DeleteGroupVariant, pathParam(r, "variant"))
}

// helpers

func (s *Server) addNamed(w http.ResponseWriter, r *http.Request, add func(context.Context, string) error) {
	var req nameRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Name == "" {
		badRequest(w, r, "name", "is required")
		return
	}
	s.created(w, r, add(r.Context(), req.Name))
}

func (s *Server) addVariant(w http.ResponseWriter, r *http.Request, add func(context.Context, string, string) error) {
	var req variantRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.VariantName == "" {
		badRequest(w, r, "variant_name", "is required")
		return
	}
	if req.CanonicalName == "" {
		badRequest(w, r, "canonical_name", "is required")
		return
	}
	s.created(w, r, add(r.Context(), req.VariantName, req.CanonicalName))
}

func (s *Server) created(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// deleted answers 204 whether or not the key existed.
func (s *Server) deleted(w http.ResponseWriter, r *http.Request, del func(context.Context, string) (bool, error), key string) {
	if _, err := del(r.Context(), key); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathParam returns a decoded route parameter. chi routes on RawPath when
// the request set one, leaving escapes in the parameter; otherwise the
// parameter is already decoded and must not be unescaped again.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return raw
	}
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

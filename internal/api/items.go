package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"shareit/internal/models"
	"shareit/internal/validation"
)

type createItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   *bool  `json:"available"`
	RequestID   *int64 `json:"requestId"`
}

type createCommentRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	switch r.Method {
	case http.MethodPost:
		var body createItemRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(body.Name) == "" {
			writeServiceError(w, &validation.IncorrectParameterError{Param: "name"})
			return
		}
		if strings.TrimSpace(body.Description) == "" {
			writeServiceError(w, &validation.IncorrectParameterError{Param: "description"})
			return
		}
		if body.Available == nil {
			writeServiceError(w, &validation.IncorrectParameterError{Param: "available"})
			return
		}

		item := &models.Item{
			Name:        body.Name,
			Description: body.Description,
			Available:   *body.Available,
			RequestID:   body.RequestID,
		}
		created, err := s.items.Create(r.Context(), uid, item)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)

	case http.MethodGet:
		from, size, err := paging(r)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		items, err := s.items.ListByOwner(r.Context(), uid, from, size)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleItemSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if _, err := userID(r); err != nil {
		writeServiceError(w, err)
		return
	}

	from, size, err := paging(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	items, err := s.items.Search(r.Context(), r.URL.Query().Get("text"), from, size)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleItemByID(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	itemID, tail, err := pathID(r.URL.Path, "/items/")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	// POST /items/{id}/comment
	if tail == "comment" {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var body createCommentRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(body.Text) == "" {
			writeServiceError(w, &validation.IncorrectParameterError{Param: "text"})
			return
		}

		comment, err := s.items.CreateComment(r.Context(), uid, itemID, body.Text)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, comment)
		return
	}
	if tail != "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		item, err := s.items.Get(r.Context(), uid, itemID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)

	case http.MethodPatch:
		var patch models.ItemPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		item, err := s.items.Update(r.Context(), uid, itemID, &patch)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

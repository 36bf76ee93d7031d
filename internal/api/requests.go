package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"shareit/internal/models"
	"shareit/internal/validation"
)

type createRequestRequest struct {
	Description string `json:"description"`
}

func (s *Server) handleRequests(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	switch r.Method {
	case http.MethodPost:
		var body createRequestRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(body.Description) == "" {
			writeServiceError(w, &validation.IncorrectParameterError{Param: "description"})
			return
		}

		request, err := s.requests.Create(r.Context(), uid, &models.ItemRequest{Description: body.Description})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, request)

	case http.MethodGet:
		requests, err := s.requests.GetOwn(r.Context(), uid)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, requests)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleRequestsAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	uid, err := userID(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	from, size, err := paging(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	requests, err := s.requests.GetAll(r.Context(), uid, from, size)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

func (s *Server) handleRequestByID(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	requestID, tail, err := pathID(r.URL.Path, "/requests/")
	if err != nil || tail != "" {
		writeError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	request, err := s.requests.Get(r.Context(), uid, requestID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}

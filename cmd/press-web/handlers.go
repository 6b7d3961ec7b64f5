package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/printdaily/press"
)

const genericError = "Something went wrong"

// maxBodyBytes caps JSON request bodies. Content alone may be 10,000 characters.
const maxBodyBytes = 1 << 20

// handlers holds dependencies for all HTTP handler methods.
type handlers struct {
	engine *press.Engine
}

type errorBody struct {
	Error string `json:"error"`
}

type cronResponse struct {
	Success         bool `json:"success"`
	PrintsPublished int  `json:"printsPublished"`
	EditionsCreated int  `json:"editionsCreated"`
}

type createPrintRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Images  []string `json:"images"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// --- Helper methods ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("press-web: encode response: %v", err)
	}
}

// writeError maps engine errors onto HTTP statuses. Anything unrecognised is
// logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	msg := err.Error()
	switch {
	case errors.Is(err, press.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, press.ErrInvalid):
		status = http.StatusBadRequest
		msg = strings.TrimPrefix(msg, press.ErrInvalid.Error()+": ")
	case errors.Is(err, press.ErrSelfFollow), errors.Is(err, press.ErrPublished):
		status = http.StatusBadRequest
	case errors.Is(err, press.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, press.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, press.ErrConflict):
		status = http.StatusConflict
	default:
		log.Printf("press-web: %s %s: %v", r.Method, r.URL.Path, err)
		status, msg = http.StatusInternalServerError, genericError
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "invalid JSON body")
		return false
	}
	return true
}

// pathIDs parses the named path parameters, writing a 400 on the first bad one.
func pathIDs(w http.ResponseWriter, r *http.Request, names ...string) ([]int64, bool) {
	ids := make([]int64, len(names))
	for i, name := range names {
		ids[i] = int64PathValue(r, name)
		if ids[i] < 0 {
			badRequest(w, "invalid "+strings.TrimSuffix(name, "ID")+" ID")
			return nil, false
		}
	}
	return ids, true
}

// cronSecret takes the secret from "Authorization: Bearer" or ?secret=.
func cronSecret(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return r.URL.Query().Get("secret")
}

// --- Publication ---

func (h *handlers) handleCronPublish(w http.ResponseWriter, r *http.Request) {
	res, err := h.engine.TriggerPublish(r.Context(), cronSecret(r), clientIP(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cronResponse{
		Success:         true,
		PrintsPublished: res.PrintsPublished,
		EditionsCreated: res.EditionsCreated,
	})
}

// --- Accounts ---

func (h *handlers) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg press.Registration
	if !decodeBody(w, r, &reg) {
		return
	}
	u, err := h.engine.Register(r.Context(), reg, clientIP(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	u, err := h.engine.Authenticate(r.Context(), req.Email, req.Password, clientIP(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *handlers) handleUser(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "userID")
	if !ok {
		return
	}
	u, err := h.engine.GetUser(r.Context(), ids[0])
	if err != nil {
		writeError(w, r, err)
		return
	}
	u.Email = ""
	writeJSON(w, http.StatusOK, u)
}

func (h *handlers) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "userID")
	if !ok {
		return
	}
	var p press.Profile
	if !decodeBody(w, r, &p) {
		return
	}
	u, err := h.engine.UpdateProfile(r.Context(), ids[0], p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *handlers) handlePasswordChange(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "userID")
	if !ok {
		return
	}
	var req passwordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.engine.ChangePassword(r.Context(), ids[0], req.CurrentPassword, req.NewPassword, clientIP(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *handlers) handleAccountDelete(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "userID")
	if !ok {
		return
	}
	if err := h.engine.DeleteAccount(r.Context(), ids[0], clientIP(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// --- Reader ---

func (h *handlers) handleEditionList(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "userID")
	if !ok {
		return
	}
	editions, err := h.engine.ListEditions(r.Context(), ids[0])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, editions)
}

func (h *handlers) handleEditionView(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "userID")
	if !ok {
		return
	}
	edition, err := h.engine.GetEdition(r.Context(), ids[0], r.PathValue("date"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, edition)
}

// --- Writing ---

func (h *handlers) handlePrintList(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "userID")
	if !ok {
		return
	}
	prints, err := h.engine.ListPrints(r.Context(), ids[0], r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prints)
}

func (h *handlers) handlePrintCreate(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "userID")
	if !ok {
		return
	}
	var req createPrintRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := h.engine.CreatePrint(r.Context(), ids[0], req.Title, req.Content, req.Images)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *handlers) handlePrintUpdate(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "userID", "printID")
	if !ok {
		return
	}
	var patch press.PrintPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	p, err := h.engine.UpdatePrint(r.Context(), ids[0], ids[1], patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handlers) handlePrintDelete(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "userID", "printID")
	if !ok {
		return
	}
	if err := h.engine.DeletePrint(r.Context(), ids[0], ids[1]); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// --- Social ---

func (h *handlers) handleFollowToggle(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "userID", "targetID")
	if !ok {
		return
	}
	following, err := h.engine.ToggleFollow(r.Context(), ids[0], ids[1])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"following": following})
}

func (h *handlers) handleLikeToggle(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "userID", "printID")
	if !ok {
		return
	}
	liked, err := h.engine.ToggleLike(r.Context(), ids[0], ids[1])
	if err != nil {
		writeError(w, r, err)
		return
	}
	count, err := h.engine.LikeCount(r.Context(), ids[1])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"liked": liked, "likeCount": count})
}

func (h *handlers) handleClipToggle(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "userID", "printID")
	if !ok {
		return
	}
	clipped, err := h.engine.ToggleClip(r.Context(), ids[0], ids[1])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"clipped": clipped})
}

func (h *handlers) handleClippings(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "userID")
	if !ok {
		return
	}
	prints, err := h.engine.Clippings(r.Context(), ids[0])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prints)
}

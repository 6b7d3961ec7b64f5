package main

import (
	"net/http"

	"github.com/printdaily/press"
)

// newRouter sets up all routes using Go 1.22+ enhanced routing.
func newRouter(engine *press.Engine) http.Handler {
	mux := http.NewServeMux()

	h := &handlers{engine: engine}

	// Publication trigger (external cron)
	mux.HandleFunc("GET /api/cron/publish", h.handleCronPublish)
	mux.HandleFunc("POST /api/cron/publish", h.handleCronPublish)

	// Accounts
	mux.HandleFunc("POST /api/register", h.handleRegister)
	mux.HandleFunc("POST /api/login", h.handleLogin)
	mux.HandleFunc("GET /u/{userID}", h.handleUser)
	mux.HandleFunc("PATCH /u/{userID}", h.handleProfileUpdate)
	mux.HandleFunc("DELETE /u/{userID}", h.handleAccountDelete)
	mux.HandleFunc("POST /u/{userID}/password", h.handlePasswordChange)

	// Reader
	mux.HandleFunc("GET /u/{userID}/editions", h.handleEditionList)
	mux.HandleFunc("GET /u/{userID}/editions/{date}", h.handleEditionView)

	// Writing
	mux.HandleFunc("GET /u/{userID}/prints", h.handlePrintList)
	mux.HandleFunc("POST /u/{userID}/prints", h.handlePrintCreate)
	mux.HandleFunc("PATCH /u/{userID}/prints/{printID}", h.handlePrintUpdate)
	mux.HandleFunc("DELETE /u/{userID}/prints/{printID}", h.handlePrintDelete)

	// Social
	mux.HandleFunc("POST /u/{userID}/follow/{targetID}", h.handleFollowToggle)
	mux.HandleFunc("POST /u/{userID}/likes/{printID}", h.handleLikeToggle)
	mux.HandleFunc("POST /u/{userID}/clips/{printID}", h.handleClipToggle)
	mux.HandleFunc("GET /u/{userID}/clips", h.handleClippings)

	return mux
}

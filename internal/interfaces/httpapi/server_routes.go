package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/teams", handler.ListTeams)
	mux.HandleFunc("GET /v1/teams/{teamID}", handler.GetTeam)
	mux.HandleFunc("GET /v1/deadlines", handler.ListDeadlines)
	mux.HandleFunc("GET /v1/deadlines/current", handler.GetCurrentDeadline)
	mux.HandleFunc("GET /v1/deadlines/{week}", handler.GetDeadline)
}

func registerPlayerRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("GET /v1/picks/me", RequireAuth(verifier, http.HandlerFunc(handler.ListMyPicks)))
	mux.Handle("PUT /v1/picks/me/{week}", RequireAuth(verifier, http.HandlerFunc(handler.SubmitMyPick)))
	mux.Handle("GET /v1/picks/me/status", RequireAuth(verifier, http.HandlerFunc(handler.GetMyStatus)))
	mux.Handle("GET /v1/picks/history", RequireAuth(verifier, http.HandlerFunc(handler.ListPickHistory)))
	mux.Handle("GET /v1/standings", RequireAuth(verifier, http.HandlerFunc(handler.ListStandings)))
}

func registerAdminRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("GET /v1/admin/picks", RequireAdmin(verifier, http.HandlerFunc(handler.ListAllPicks)))
	mux.Handle("PUT /v1/admin/deadlines/{week}", RequireAdmin(verifier, http.HandlerFunc(handler.UpsertDeadline)))
	mux.Handle("POST /v1/admin/deadlines/{week}/closed", RequireAdmin(verifier, http.HandlerFunc(handler.SetDeadlineClosed)))
	mux.Handle("GET /v1/admin/winners/{week}", RequireAdmin(verifier, http.HandlerFunc(handler.ListWinners)))
	mux.Handle("POST /v1/admin/winners/{week}", RequireAdmin(verifier, http.HandlerFunc(handler.DeclareWinners)))
	mux.Handle("POST /v1/admin/winners/{week}/toggle", RequireAdmin(verifier, http.HandlerFunc(handler.ToggleWinner)))
	mux.Handle("GET /v1/admin/winners/{week}/prefill", RequireAdmin(verifier, http.HandlerFunc(handler.PrefillWinners)))
	mux.Handle("POST /v1/admin/weeks/{week}/settle", RequireAdmin(verifier, http.HandlerFunc(handler.SettleWeek)))
	mux.Handle("POST /v1/admin/reset", RequireAdmin(verifier, http.HandlerFunc(handler.ResetCompetition)))
}

package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerBoardRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /api/stream/board", handler.GetBoard)
	mux.HandleFunc("GET /api/stream/matches/{matchKey}/state", handler.GetMatch)
	mux.HandleFunc("GET /api/stream/competitions/{competitionID}/table", handler.GetCompetitionTable)
}

func registerStreamRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /api/stream/live", handler.StreamLiveBoard)
	mux.HandleFunc("GET /api/stream/matches/{matchKey}", handler.StreamMatch)
	mux.HandleFunc("GET /api/stream/ws", handler.StreamWebSocket)
}

func registerDiagnosticsRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /api/diagnostics/upstream", handler.GetUpstreamDiagnostics)
}

package api

import "net/http"

func (s *server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	s.writeResponse(w, http.StatusOK, apiResponse{
		Success: true,
		Message: "OK",
		Data:    map[string]any{"tables": len(s.engine.Tables())},
	})
}

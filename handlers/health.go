package handlers

import (
	"io"
	"net/http"

	"github.com/ray-remotestate/restro/database"
)

func Health(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.HealthCheck(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			io.WriteString(w, `{"alive": false}`)
			return
		}
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"alive": true}`)
	}
}

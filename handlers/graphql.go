package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/graph-gophers/graphql-go"
	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/restro/database"
	"github.com/ray-remotestate/restro/graph"
)

type graphqlRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// GraphQL serves POST /graphql. Every request gets its own loader so
// relations are cached for that request only.
func GraphQL(schema *graphql.Schema, db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if req.Query == "" {
			http.Error(w, "query is required", http.StatusBadRequest)
			return
		}

		ctx := graph.WithLoader(r.Context(), graph.NewLoader(db))
		resp := schema.Exec(ctx, req.Query, req.OperationName, req.Variables)
		if len(resp.Errors) > 0 {
			logrus.WithField("operation", req.OperationName).Debugf("graphql errors: %v", resp.Errors)
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logrus.Printf("failed to encode graphql response, error: %v", err)
		}
	}
}

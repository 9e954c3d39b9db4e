package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/graph-gophers/graphql-go"

	"github.com/ray-remotestate/restro/database"
	"github.com/ray-remotestate/restro/handlers"
	"github.com/ray-remotestate/restro/metrics"
	"github.com/ray-remotestate/restro/middlewares"
)

type Server struct {
	Router *mux.Router
	server *http.Server
}

const (
	readTimeout       = 5 * time.Minute
	readHeaderTimeout = 30 * time.Second
	writeTimeout      = 5 * time.Minute
)

type Deps struct {
	DB      *database.DB
	Schema  *graphql.Schema
	Metrics *metrics.Metrics
	Secret  []byte
}

func SetupRoutes(deps Deps) *Server {
	router := mux.NewRouter()
	router.Use(middlewares.LoggingMiddleware(deps.Metrics))

	router.HandleFunc("/health", handlers.Health(deps.DB)).Methods("GET")
	if deps.Metrics != nil {
		router.Handle("/metrics", deps.Metrics.Handler()).Methods("GET")
	}

	auth := middlewares.AuthMiddleware(deps.Secret)
	router.Handle("/graphql", auth(handlers.GraphQL(deps.Schema, deps.DB))).Methods("POST")

	return &Server{
		Router: router,
		server: &http.Server{
			Handler:           router,
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: readHeaderTimeout,
			WriteTimeout:      writeTimeout,
		},
	}
}

func (svr *Server) Run(port string) error {
	ln, err := svr.Listen(port)
	if err != nil {
		return err
	}
	return svr.Serve(ln)
}

// Listen binds addr without serving it.
func (svr *Server) Listen(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}

func (svr *Server) Serve(ln net.Listener) error {
	return svr.server.Serve(ln)
}

func (svr *Server) Shutdown(timeout time.Duration) error {
	if svr.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return svr.server.Shutdown(ctx)
}

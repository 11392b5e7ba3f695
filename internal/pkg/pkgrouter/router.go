package pkgrouter

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/shandysiswandi/goweave/internal/pkg/pkglog"
)

// Handler serves one endpoint. The returned value is encoded as the data of
// the response envelope.
type Handler func(ctx context.Context, r *http.Request) (any, error)

// Generator produces correlation IDs.
type Generator interface {
	Generate() string
}

// Route is a registered method and path.
type Route struct {
	Method string
	Path   string
}

type Router struct {
	hr      *httprouter.Router
	mws     []Middleware
	routes  []Route
	started time.Time
}

// NewRouter returns a router with recovery, correlation IDs and access
// logging installed, serving "/" and "/health".
func NewRouter(ids Generator) *Router {
	r := &Router{
		hr: &httprouter.Router{
			RedirectTrailingSlash:  true,
			RedirectFixedPath:      true,
			HandleMethodNotAllowed: true,
			HandleOPTIONS:          true,
			SaveMatchedRoutePath:   true,
			NotFound: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, errorBody{Message: "endpoint not found"}, http.StatusNotFound)
			}),
			MethodNotAllowed: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, errorBody{Message: "method not allowed"}, http.StatusMethodNotAllowed)
			}),
		},
		mws:     []Middleware{recoverer, correlationID(ids), accessLog},
		started: time.Now(),
	}

	r.GET("/", func(context.Context, *http.Request) (any, error) {
		return welcome{Service: pkglog.ServiceName}, nil
	})
	r.GET("/health", func(context.Context, *http.Request) (any, error) {
		return health{Status: "ok", Uptime: time.Since(r.started).Round(time.Second).String()}, nil
	})

	return r
}

func (r *Router) GET(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodGet, path, h, mws...)
}

func (r *Router) POST(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodPost, path, h, mws...)
}

// Handle registers a plain http.Handler behind the router middleware.
func (r *Router) Handle(method, path string, h http.Handler, mws ...Middleware) {
	r.routes = append(r.routes, Route{Method: method, Path: path})
	r.hr.Handler(method, path, Chain(h, append(slices.Clone(r.mws), mws...)...))
}

// Routes lists registered routes in registration order.
func (r *Router) Routes() []Route {
	return slices.Clone(r.routes)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}

func (r *Router) endpoint(method, path string, h Handler, mws ...Middleware) {
	r.Handle(method, path, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		resp, err := h(req.Context(), req)
		if err != nil {
			writeError(req.Context(), w, err)
			return
		}
		writeResult(w, resp)
	}), mws...)
}

type welcome struct {
	Service string `json:"service"`
}

func (welcome) Message() string { return "hi from goweave" }

type health struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

func (health) Message() string { return "server is running well" }

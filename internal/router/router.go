// Package router maps the HTTP surface onto the application service and
// renders the resulting views.
package router

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/patric-chuzhbe/linktrack/internal/gzippedhttp"
	"github.com/patric-chuzhbe/linktrack/internal/logger"
	"github.com/patric-chuzhbe/linktrack/internal/models"
	"github.com/patric-chuzhbe/linktrack/internal/views"
)

type linkTracker interface {
	RegisterUser(ctx context.Context, username, email string) (*models.User, error)
	AddLink(ctx context.Context, ownerID, linkURL string) (*models.User, *models.Link, error)
	GetUserLinks(ctx context.Context, username string) (*models.User, []models.Link, error)
	CollectAllStats(ctx context.Context) ([]models.LinkStats, error)
	Ping(ctx context.Context) error
}

// Router holds the HTTP handlers of the linktrack service.
type Router struct {
	service linkTracker
}

// plainError writes a plain-text error without touching the
// Content-Encoding header, so it stays valid behind the gzip middleware.
func plainError(res http.ResponseWriter, message string, code int) {
	res.Header().Set("Content-Type", "text/plain; charset=utf-8")
	res.WriteHeader(code)
	_, _ = res.Write([]byte(message + "\n"))
}

// GetIndex renders the registration page.
func (rt *Router) GetIndex(res http.ResponseWriter, req *http.Request) {
	res.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.RenderIndex(res); err != nil {
		logger.Log.Errorw("render index page", "error", err)
	}
}

// PostAddUser creates a new user from the registration form and redirects
// to the user's page. Constraint violations surface as a generic server
// error, matching the rest of the failure taxonomy.
func (rt *Router) PostAddUser(res http.ResponseWriter, req *http.Request) {
	if err := req.ParseForm(); err != nil {
		http.Error(res, "malformed form data", http.StatusBadRequest)
		return
	}

	usr, err := rt.service.RegisterUser(
		req.Context(),
		req.PostFormValue("username"),
		req.PostFormValue("email"),
	)
	if err != nil {
		logger.Log.Errorw("register user", "error", err)
		http.Error(res, "Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(res, req, "/user/"+usr.Username, http.StatusFound)
}

// PostAddLink attaches a URL to a user, seeding its visit count with one
// upfront stats query, and redirects to the owner's page.
func (rt *Router) PostAddLink(res http.ResponseWriter, req *http.Request) {
	if err := req.ParseForm(); err != nil {
		http.Error(res, "malformed form data", http.StatusBadRequest)
		return
	}

	owner, _, err := rt.service.AddLink(
		req.Context(),
		req.PostFormValue("userId"),
		req.PostFormValue("url"),
	)
	if err != nil {
		if errors.Is(err, models.ErrUnknownOwner) || errors.Is(err, models.ErrUserNotFound) {
			http.Error(res, "unknown link owner", http.StatusBadRequest)
			return
		}
		logger.Log.Errorw("add link", "error", err)
		http.Error(res, "Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(res, req, "/user/"+owner.Username, http.StatusFound)
}

// GetUserPage resolves a user, syncs every owned link with the stats
// provider and renders the refreshed link list.
func (rt *Router) GetUserPage(res http.ResponseWriter, req *http.Request) {
	username := chi.URLParam(req, "username")

	usr, links, err := rt.service.GetUserLinks(req.Context(), username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			plainError(res, "User not found", http.StatusNotFound)
			return
		}
		logger.Log.Errorw("build user page", "username", username, "error", err)
		plainError(res, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	res.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = views.RenderUser(res, views.UserPageData{User: usr, Links: links})
	if err != nil {
		logger.Log.Errorw("render user page", "username", username, "error", err)
	}
}

// GetAllStats renders live stats for every tracked link across all users.
func (rt *Router) GetAllStats(res http.ResponseWriter, req *http.Request) {
	stats, err := rt.service.CollectAllStats(req.Context())
	if err != nil {
		logger.Log.Errorw("collect all stats", "error", err)
		plainError(res, "Server Error", http.StatusInternalServerError)
		return
	}

	res.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.RenderAllStats(res, views.AllStatsPageData{Stats: stats}); err != nil {
		logger.Log.Errorw("render all stats page", "error", err)
	}
}

// GetPing reports storage health.
func (rt *Router) GetPing(res http.ResponseWriter, req *http.Request) {
	if err := rt.service.Ping(req.Context()); err != nil {
		logger.Log.Errorw("storage ping", "error", err)
		res.WriteHeader(http.StatusInternalServerError)
		return
	}
	res.WriteHeader(http.StatusOK)
}

// New assembles the chi mux with logging and compression middleware.
func New(service linkTracker) *chi.Mux {
	myRouter := &Router{service: service}

	router := chi.NewRouter()
	router.Use(logger.WithLoggingHTTPMiddleware)

	// Only the rendered pages are compressed; the file server and the
	// redirects manage their own headers.
	router.With(gzippedhttp.GzipResponse).Get(`/`, myRouter.GetIndex)
	router.With(gzippedhttp.GzipResponse).Get(`/user/{username}`, myRouter.GetUserPage)
	router.With(gzippedhttp.GzipResponse).Get(`/all-stats`, myRouter.GetAllStats)
	router.Post(`/api/add-user`, myRouter.PostAddUser)
	router.Post(`/api/add-link`, myRouter.PostAddLink)
	router.Get(`/ping`, myRouter.GetPing)
	router.Handle(
		`/static/*`,
		http.StripPrefix("/static/", http.FileServer(http.FS(views.StaticFS()))),
	)

	return router
}

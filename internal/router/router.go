// Package router exposes the HTTP surface of the application: the HTML
// pages for managing shortened URLs and accounts, the public redirect
// endpoint and the operational endpoints (ping, internal stats).
package router

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/RussellAbraham/tinyapp/internal/auth"
	"github.com/RussellAbraham/tinyapp/internal/gzippedhttp"
	"github.com/RussellAbraham/tinyapp/internal/ipchecker"
	"github.com/RussellAbraham/tinyapp/internal/logger"
	"github.com/RussellAbraham/tinyapp/internal/models"
	"github.com/RussellAbraham/tinyapp/internal/user"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

type urlApplication interface {
	Register(ctx context.Context, email, password string) (*user.User, error)
	Login(ctx context.Context, email, password string) (*user.User, error)
	CreateShortURL(ctx context.Context, longURL, ownerID string) (models.URLRecord, error)
	GetURLForOwner(ctx context.Context, short, ownerID string) (models.URLRecord, error)
	UpdateLongURL(ctx context.Context, short, newLongURL, ownerID string) error
	DeleteURL(ctx context.Context, short, ownerID string) error
	URLsForOwner(ctx context.Context, ownerID string) ([]models.URLRecord, error)
	ResolveShort(ctx context.Context, short string) (string, bool, error)
	InternalStats(ctx context.Context) (models.InternalStatsResponse, error)
	Ping(ctx context.Context) error
	ShortURL(shortCode string) string
}

type authenticator interface {
	ResolveUser(h http.Handler) http.Handler
	EstablishSession(response http.ResponseWriter, userID string) error
	ClearSession(response http.ResponseWriter)
}

// Router holds the handler dependencies and implements every endpoint as a
// method.
type Router struct {
	service   urlApplication
	auth      authenticator
	ipChecker *ipchecker.IPChecker
	templates *template.Template
	validate  *validator.Validate
}

type urlView struct {
	ShortCode string
	ShortURL  string
	LongURL   string
	Visits    int64
}

type viewData struct {
	Title string
	User  *user.User
	Urls  []urlView
	URL   *urlView
}

// New builds the chi mux with the full middleware chain and route table.
func New(
	service urlApplication,
	authService authenticator,
	ipChecker *ipchecker.IPChecker,
) (http.Handler, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.gohtml")
	if err != nil {
		return nil, err
	}

	theRouter := &Router{
		service:   service,
		auth:      authService,
		ipChecker: ipChecker,
		templates: templates,
		validate:  validator.New(),
	}

	mux := chi.NewRouter()
	mux.Use(logger.WithLoggingHTTPMiddleware)
	mux.Use(gzippedhttp.WithGzip)
	mux.Use(authService.ResolveUser)

	mux.Get(`/`, theRouter.GetRoot)
	mux.Get(`/ping`, theRouter.GetPing)
	mux.Get(`/urls`, theRouter.GetUrls)
	mux.Get(`/urls/new`, theRouter.GetUrlsnew)
	mux.Get(`/urls/{id}`, theRouter.GetUrlsid)
	mux.Get(`/u/{id}`, theRouter.GetRedirecttolongurl)
	mux.Get(`/register`, theRouter.GetRegister)
	mux.Get(`/login`, theRouter.GetLogin)
	mux.Get(`/api/internal/stats`, theRouter.GetApiinternalstats)
	mux.Post(`/urls`, theRouter.PostUrls)
	mux.Post(`/urls/{id}`, theRouter.PostUrlsid)
	mux.Post(`/urls/{id}/delete`, theRouter.PostUrlsiddelete)
	mux.Post(`/register`, theRouter.PostRegister)
	mux.Post(`/login`, theRouter.PostLogin)
	mux.Post(`/logout`, theRouter.PostLogout)

	return mux, nil
}

func (router *Router) render(response http.ResponseWriter, name string, data viewData) {
	buf := bytes.Buffer{}
	if err := router.templates.ExecuteTemplate(&buf, name, data); err != nil {
		logger.Log.Errorln("Error rendering the template: ", zap.Error(err))
		http.Error(response, "internal server error", http.StatusInternalServerError)
		return
	}

	response.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := response.Write(buf.Bytes())
	if err != nil {
		logger.Log.Errorln("Error writing the response: ", zap.Error(err))
	}
}

func (router *Router) toURLView(record models.URLRecord) urlView {
	return urlView{
		ShortCode: record.ShortCode,
		ShortURL:  router.service.ShortURL(record.ShortCode),
		LongURL:   record.LongURL,
		Visits:    record.Visits,
	}
}

// statusForError maps a service error kind to its HTTP status.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrBadCredentials),
		errors.Is(err, models.ErrNotOwner):
		return http.StatusForbidden
	}

	return http.StatusInternalServerError
}

// GetRoot redirects to the URL index.
func (router *Router) GetRoot(response http.ResponseWriter, request *http.Request) {
	http.Redirect(response, request, "/urls", http.StatusFound)
}

// GetPing reports storage health.
func (router *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := router.service.Ping(request.Context()); err != nil {
		response.WriteHeader(http.StatusInternalServerError)
		return
	}
	response.WriteHeader(http.StatusOK)
}

// GetUrls renders the URL index. Only the current user's records are shown;
// an anonymous visitor gets an empty list with a sign-in prompt.
func (router *Router) GetUrls(response http.ResponseWriter, request *http.Request) {
	data := viewData{Title: "TinyApp"}

	usr, ok := auth.UserFromContext(request.Context())
	if ok {
		data.User = usr
		records, err := router.service.URLsForOwner(request.Context(), usr.ID)
		if err != nil {
			http.Error(response, "internal server error", http.StatusInternalServerError)
			return
		}
		for _, record := range records {
			data.Urls = append(data.Urls, router.toURLView(record))
		}
	}

	router.render(response, "urls_index.gohtml", data)
}

// GetUrlsnew renders the new-URL form, redirecting anonymous visitors to
// the login page.
func (router *Router) GetUrlsnew(response http.ResponseWriter, request *http.Request) {
	usr, ok := auth.UserFromContext(request.Context())
	if !ok {
		http.Redirect(response, request, "/login", http.StatusFound)
		return
	}

	router.render(response, "urls_new.gohtml", viewData{Title: "New URL - TinyApp", User: usr})
}

// GetUrlsid renders one URL record for its owner.
func (router *Router) GetUrlsid(response http.ResponseWriter, request *http.Request) {
	usr, ok := auth.UserFromContext(request.Context())
	if !ok {
		http.Error(response, "please log in to view this URL", http.StatusUnauthorized)
		return
	}

	record, err := router.service.GetURLForOwner(request.Context(), chi.URLParam(request, "id"), usr.ID)
	if err != nil {
		http.Error(response, err.Error(), statusForError(err))
		return
	}

	view := router.toURLView(record)
	router.render(response, "urls_show.gohtml", viewData{Title: "URL - TinyApp", User: usr, URL: &view})
}

// GetRedirecttolongurl redirects a visitor from a short code to its target.
func (router *Router) GetRedirecttolongurl(response http.ResponseWriter, request *http.Request) {
	long, found, err := router.service.ResolveShort(request.Context(), chi.URLParam(request, "id"))
	if err != nil {
		http.Error(response, "internal server error", http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(response, "Short URL not found.", http.StatusNotFound)
		return
	}

	http.Redirect(response, request, long, http.StatusFound)
}

// GetRegister renders the registration form for anonymous visitors.
func (router *Router) GetRegister(response http.ResponseWriter, request *http.Request) {
	if _, ok := auth.UserFromContext(request.Context()); ok {
		http.Redirect(response, request, "/urls", http.StatusFound)
		return
	}

	router.render(response, "register.gohtml", viewData{Title: "Register - TinyApp"})
}

// GetLogin renders the login form for anonymous visitors.
func (router *Router) GetLogin(response http.ResponseWriter, request *http.Request) {
	if _, ok := auth.UserFromContext(request.Context()); ok {
		http.Redirect(response, request, "/urls", http.StatusFound)
		return
	}

	router.render(response, "login.gohtml", viewData{Title: "Log in - TinyApp"})
}

// GetApiinternalstats serves the URL and user counts to callers from the
// trusted subnet.
func (router *Router) GetApiinternalstats(response http.ResponseWriter, request *http.Request) {
	if !router.ipChecker.Enabled() {
		response.WriteHeader(http.StatusForbidden)
		return
	}

	clientIP, err := router.ipChecker.ClientIP(request)
	if err != nil {
		response.WriteHeader(http.StatusInternalServerError)
		return
	}
	if !router.ipChecker.Check(clientIP) {
		response.WriteHeader(http.StatusForbidden)
		return
	}

	stats, err := router.service.InternalStats(request.Context())
	if err != nil {
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	response.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(response).Encode(stats); err != nil {
		logger.Log.Errorln("Error encoding the stats response: ", zap.Error(err))
	}
}

// PostUrls creates a new short URL for the current user.
func (router *Router) PostUrls(response http.ResponseWriter, request *http.Request) {
	usr, ok := auth.UserFromContext(request.Context())
	if !ok {
		http.Error(response, "please log in to create URLs", http.StatusForbidden)
		return
	}

	form := models.CreateURLRequest{LongURL: request.FormValue("longURL")}
	if err := router.validate.Struct(form); err != nil {
		http.Error(response, "a valid URL is required", http.StatusBadRequest)
		return
	}

	record, err := router.service.CreateShortURL(request.Context(), form.LongURL, usr.ID)
	if err != nil {
		http.Error(response, err.Error(), statusForError(err))
		return
	}

	http.Redirect(response, request, "/urls/"+record.ShortCode, http.StatusFound)
}

// PostUrlsid edits the target of a URL owned by the current user.
func (router *Router) PostUrlsid(response http.ResponseWriter, request *http.Request) {
	usr, ok := auth.UserFromContext(request.Context())
	if !ok {
		http.Error(response, "please log in to edit URLs", http.StatusUnauthorized)
		return
	}

	form := models.CreateURLRequest{LongURL: request.FormValue("longURL")}
	if err := router.validate.Struct(form); err != nil {
		http.Error(response, "a valid URL is required", http.StatusBadRequest)
		return
	}

	err := router.service.UpdateLongURL(request.Context(), chi.URLParam(request, "id"), form.LongURL, usr.ID)
	if err != nil {
		http.Error(response, err.Error(), statusForError(err))
		return
	}

	http.Redirect(response, request, "/urls", http.StatusFound)
}

// PostUrlsiddelete deletes a URL owned by the current user.
func (router *Router) PostUrlsiddelete(response http.ResponseWriter, request *http.Request) {
	usr, ok := auth.UserFromContext(request.Context())
	if !ok {
		http.Error(response, "please log in to delete URLs", http.StatusUnauthorized)
		return
	}

	err := router.service.DeleteURL(request.Context(), chi.URLParam(request, "id"), usr.ID)
	if err != nil {
		http.Error(response, err.Error(), statusForError(err))
		return
	}

	http.Redirect(response, request, "/urls", http.StatusFound)
}

// PostRegister creates an account and logs it in.
func (router *Router) PostRegister(response http.ResponseWriter, request *http.Request) {
	if _, ok := auth.UserFromContext(request.Context()); ok {
		http.Redirect(response, request, "/urls", http.StatusFound)
		return
	}

	form := models.CredentialsRequest{
		Email:    request.FormValue("email"),
		Password: request.FormValue("password"),
	}
	if err := router.validate.Struct(form); err != nil {
		http.Error(response, "email and password are required", http.StatusBadRequest)
		return
	}

	usr, err := router.service.Register(request.Context(), form.Email, form.Password)
	if err != nil {
		http.Error(response, err.Error(), statusForError(err))
		return
	}

	if err := router.auth.EstablishSession(response, usr.ID); err != nil {
		http.Error(response, "internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(response, request, "/urls", http.StatusFound)
}

// PostLogin authenticates the credentials and establishes a session. Both
// an unknown email and a wrong password answer 403.
func (router *Router) PostLogin(response http.ResponseWriter, request *http.Request) {
	form := models.CredentialsRequest{
		Email:    request.FormValue("email"),
		Password: request.FormValue("password"),
	}
	if err := router.validate.Struct(form); err != nil {
		http.Error(response, "email and password are required", http.StatusForbidden)
		return
	}

	usr, err := router.service.Login(request.Context(), form.Email, form.Password)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrBadCredentials) {
			http.Error(response, "invalid email or password", http.StatusForbidden)
			return
		}
		http.Error(response, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := router.auth.EstablishSession(response, usr.ID); err != nil {
		http.Error(response, "internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(response, request, "/urls", http.StatusFound)
}

// PostLogout clears the session unconditionally.
func (router *Router) PostLogout(response http.ResponseWriter, request *http.Request) {
	router.auth.ClearSession(response)
	http.Redirect(response, request, "/login", http.StatusFound)
}

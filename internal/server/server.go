package server

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"blog/internal/auth"
	"blog/internal/blog"
	"blog/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

type Server struct {
	blog     *blog.Service
	auth     *auth.Service
	sessions *session.Manager
	log      *zap.Logger

	tmpl    map[string]*template.Template
	handler http.Handler

	CookieName   string
	CookieSecure bool
}

func New(blogSvc *blog.Service, authSvc *auth.Service, sessions *session.Manager, log *zap.Logger) (*Server, error) {
	templates, err := parseTemplates(templateFS)
	if err != nil {
		return nil, err
	}
	s := &Server{
		blog:       blogSvc,
		auth:       authSvc,
		sessions:   sessions,
		log:        log,
		tmpl:       templates,
		CookieName: "session_id",
	}
	s.handler = s.withActor(s.logRequests(s.routes()))
	return s, nil
}

// parseTemplates pairs layout.html with every other page, keyed by the
// page's base name.
func parseTemplates(fsys fs.FS) (map[string]*template.Template, error) {
	funcs := template.FuncMap{
		"rich":     richText,
		"gravatar": gravatarURL,
	}
	templates := map[string]*template.Template{}
	pages, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		return nil, err
	}
	for _, page := range pages {
		if path.Base(page) == "layout.html" {
			continue
		}
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(fsys, "templates/layout.html", page)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(path.Base(page), ".html")
		templates[name] = t
	}
	return templates, nil
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/register", s.handleRegister).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)
	r.HandleFunc("/post/{id:[0-9]+}", s.handleShowPost).Methods(http.MethodGet)
	r.HandleFunc("/post/{id:[0-9]+}", s.handleComment).Methods(http.MethodPost)
	r.HandleFunc("/new-post", s.handleNewPost).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/edit-post/{id:[0-9]+}", s.handleEditPost).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/delete/{id:[0-9]+}", s.handleDeletePost).Methods(http.MethodPost)
	r.HandleFunc("/about", s.staticPage("about")).Methods(http.MethodGet)
	r.HandleFunc("/contact", s.staticPage("contact")).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data map[string]any) {
	t, ok := s.tmpl[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.log.Error("render failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// view builds template data with the fields every page uses.
func (s *Server) view(w http.ResponseWriter, r *http.Request, extra map[string]any) map[string]any {
	data := map[string]any{
		"Actor": actorFrom(r.Context()),
		"Flash": s.popFlash(w, r),
		"Error": "",
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

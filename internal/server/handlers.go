package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"blog/internal/auth"
	"blog/internal/blog"
	"blog/internal/models"
	"blog/internal/policy"
)

const (
	msgAlreadyRegistered = "You've already signed up with that email, log in instead!"
	msgBadCredentials    = "Invalid email or password."
	msgLoginToComment    = "You need to login or register to comment."
)

// fail writes the HTTP response for an error from the core that the
// handler does not render itself.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, models.ErrNotFound):
		http.NotFound(w, r)
	case errors.Is(err, models.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func postID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func postForm(r *http.Request) blog.PostInput {
	return blog.PostInput{
		Title:    r.FormValue("title"),
		Subtitle: r.FormValue("subtitle"),
		Body:     r.FormValue("body"),
		ImgURL:   r.FormValue("img_url"),
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	posts, err := s.blog.ListPosts(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, http.StatusOK, "index", s.view(w, r, map[string]any{"Posts": posts}))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	form := map[string]any{"Email": r.FormValue("email"), "Name": r.FormValue("name")}
	if r.Method == http.MethodGet {
		s.render(w, http.StatusOK, "register", s.view(w, r, form))
		return
	}

	user, err := s.auth.Register(r.Context(), auth.RegisterInput{
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
		Name:     r.FormValue("name"),
	})
	switch {
	case errors.Is(err, models.ErrDuplicateEmail):
		s.flash(w, msgAlreadyRegistered)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	case errors.Is(err, models.ErrValidation):
		data := s.view(w, r, form)
		data["Error"] = "Email, password and name are all required."
		s.render(w, http.StatusBadRequest, "register", data)
		return
	case err != nil:
		s.fail(w, r, err)
		return
	}
	s.startSession(w, r, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	form := map[string]any{"Email": r.FormValue("email")}
	if r.Method == http.MethodGet {
		s.render(w, http.StatusOK, "login", s.view(w, r, form))
		return
	}

	user, err := s.auth.Verify(r.Context(), r.FormValue("email"), r.FormValue("password"))
	if errors.Is(err, models.ErrUnknownEmail) || errors.Is(err, models.ErrInvalidPassword) {
		data := s.view(w, r, form)
		data["Error"] = msgBadCredentials
		s.render(w, http.StatusUnauthorized, "login", data)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.startSession(w, r, user)
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, user *models.User) {
	token, expires, err := s.sessions.Start(r.Context(), user)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.setSessionCookie(w, token, expires)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(s.CookieName); err == nil {
		if err := s.sessions.End(r.Context(), cookie.Value); err != nil {
			s.log.Error("end session", zap.Error(err))
		}
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleShowPost(w http.ResponseWriter, r *http.Request) {
	s.showPost(w, r, http.StatusOK, "")
}

func (s *Server) showPost(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	page, err := s.blog.ShowPost(r.Context(), postID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data := s.view(w, r, map[string]any{"Page": page})
	if errMsg != "" {
		data["Error"] = errMsg
	}
	s.render(w, status, "post", data)
}

// handleComment stores a comment by the signed-in actor. Any author field
// in the form is ignored.
func (s *Server) handleComment(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	id := postID(r)
	_, err := s.blog.AddComment(r.Context(), actor, id, blog.CommentInput{Text: r.FormValue("comment_text")})
	switch {
	case errors.Is(err, models.ErrForbidden):
		data := s.view(w, r, map[string]any{"Email": ""})
		data["Flash"] = msgLoginToComment
		s.render(w, http.StatusForbidden, "login", data)
		return
	case errors.Is(err, models.ErrValidation):
		s.showPost(w, r, http.StatusBadRequest, "Comment text is required.")
		return
	case err != nil:
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/post/"+strconv.FormatInt(id, 10), http.StatusSeeOther)
}

func (s *Server) handleNewPost(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	if r.Method == http.MethodGet {
		if !policy.CanCreatePost(actor) {
			s.fail(w, r, models.ErrForbidden)
			return
		}
		s.renderPostForm(w, r, http.StatusOK, "New Post", "/new-post", blog.PostInput{}, "")
		return
	}

	in := postForm(r)
	if _, err := s.blog.AddNewPost(r.Context(), actor, in); err != nil {
		if msg, ok := formError(err); ok {
			s.renderPostForm(w, r, http.StatusBadRequest, "New Post", "/new-post", in, msg)
			return
		}
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleEditPost(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	id := postID(r)
	action := "/edit-post/" + strconv.FormatInt(id, 10)

	if r.Method == http.MethodGet {
		post, err := s.blog.Post(r.Context(), id)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if !policy.CanEditPost(actor, post) {
			s.fail(w, r, models.ErrForbidden)
			return
		}
		in := blog.PostInput{Title: post.Title, Subtitle: post.Subtitle, Body: post.Body, ImgURL: post.ImgURL}
		s.renderPostForm(w, r, http.StatusOK, "Edit Post", action, in, "")
		return
	}

	in := postForm(r)
	if _, err := s.blog.EditPost(r.Context(), actor, id, in); err != nil {
		if msg, ok := formError(err); ok {
			s.renderPostForm(w, r, http.StatusBadRequest, "Edit Post", action, in, msg)
			return
		}
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/post/"+strconv.FormatInt(id, 10), http.StatusSeeOther)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	if err := s.blog.DeletePost(r.Context(), actorFrom(r.Context()), postID(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// formError returns the message to show on a re-rendered post form, if err
// is one the author can fix.
func formError(err error) (string, bool) {
	switch {
	case errors.Is(err, models.ErrDuplicateTitle):
		return "A post with that title already exists.", true
	case errors.Is(err, models.ErrValidation):
		return "All fields are required and the image URL must be absolute.", true
	}
	return "", false
}

func (s *Server) renderPostForm(w http.ResponseWriter, r *http.Request, status int, heading, action string, in blog.PostInput, errMsg string) {
	data := s.view(w, r, map[string]any{"Heading": heading, "Action": action, "Form": in})
	data["Error"] = errMsg
	s.render(w, status, "make-post", data)
}

func (s *Server) staticPage(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, http.StatusOK, name, s.view(w, r, nil))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

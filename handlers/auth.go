package handlers

import (
	"errors"
	"net/http"
	"strings"

	"taskmanager/actions"
	"taskmanager/utils"
)

const (
	msgInvalidLogin = "Invalid email or password"
	msgInternal     = "Something went wrong. Please try again."
)

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	data := h.page(r, "Log in")
	data.Callback = r.URL.Query().Get("callbackUrl")
	h.render(w, http.StatusOK, "login.html", data)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")
	callback := r.PostFormValue("callbackUrl")

	fail := func(status int, msg string) {
		data := h.page(r, "Log in")
		data.Error = msg
		data.Callback = callback
		data.Form["email"] = email
		h.render(w, status, "login.html", data)
	}

	user, err := h.users.Authenticate(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, actions.ErrInvalidCredentials) {
			fail(http.StatusUnauthorized, msgInvalidLogin)
			return
		}
		h.log.Error("login failed", "user", email, "error", err)
		fail(http.StatusInternalServerError, msgInternal)
		return
	}

	if _, err := h.sessions.Issue(r.Context(), w, r, user); err != nil {
		h.log.Error("creating session", "user", user.Email, "error", err)
		fail(http.StatusInternalServerError, msgInternal)
		return
	}

	active, err := h.sessions.Active(r.Context(), user.ID.String())
	if err != nil {
		h.log.Warn("counting sessions", "user", user.Email, "error", err)
	}
	h.log.Info("user logged in", "user", user.Email, "active_sessions", active)
	redirect(w, r, utils.SafeRedirect(callback, r.Host, "/app"))
}

func (h *Handler) SignUpPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "signup.html", h.page(r, "Sign up"))
}

// SignUp registers the account and then signs the new user in.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	in := actions.RegisterInput{
		FirstName: r.PostFormValue("firstName"),
		LastName:  r.PostFormValue("lastName"),
		Email:     r.PostFormValue("email"),
		Password:  r.PostFormValue("password"),
	}

	fail := func(status int, msg string) {
		data := h.page(r, "Sign up")
		data.Error = msg
		data.Form["firstName"] = in.FirstName
		data.Form["lastName"] = in.LastName
		data.Form["email"] = in.Email
		h.render(w, status, "signup.html", data)
	}

	if res := h.users.RegisterUser(r.Context(), in); !res.OK() {
		status := http.StatusUnprocessableEntity
		if strings.HasPrefix(res.Error, "Failed") {
			status = http.StatusInternalServerError
		}
		fail(status, res.Error)
		return
	}

	user, err := h.users.Authenticate(r.Context(), in.Email, in.Password)
	if err != nil {
		h.log.Error("signing in new user", "user", in.Email, "error", err)
		redirect(w, r, "/auth/login")
		return
	}
	if _, err := h.sessions.Issue(r.Context(), w, r, user); err != nil {
		h.log.Error("creating session", "user", user.Email, "error", err)
		redirect(w, r, "/auth/login")
		return
	}
	redirect(w, r, "/app")
}

// Logout ends the current session. With scope=all every session of the
// user is revoked.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r.Context())
	if s != nil && h.sessions.CheckCSRF(r, s) != nil {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	var err error
	if s != nil && r.PostFormValue("scope") == "all" {
		err = h.sessions.DestroyAll(r.Context(), w, s)
	} else {
		err = h.sessions.Destroy(r.Context(), w, r)
	}
	if err != nil {
		h.log.Warn("deleting session", "error", err)
	}
	redirect(w, r, "/auth/login")
}

package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/postdeck/postdeck/account"
	accountcontext "github.com/postdeck/postdeck/account/context"
)

// authMiddleware resolves the session cookie to the stored user record and
// puts it on the request context. A cookie pointing at a missing record
// (e.g. after logout in another tab) is cleared and the request continues
// anonymously.
func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sessionValueNotFoundErr *SessionValueNotFoundError

		email, err := h.getSessionValue(r, userEmailKey)
		if err != nil && !errors.As(err, &sessionValueNotFoundErr) {
			slog.ErrorContext(r.Context(), "error on getting session value", "key", userEmailKey, "error", err)
			http.Error(w, "error on getting session value", http.StatusInternalServerError)

			return
		}

		if email != nil && email.(string) != "" {
			user, err := h.accountSvc.Current(r.Context())
			if err != nil {
				if errors.Is(err, account.ErrNoCurrentUser) {
					err = h.deleteSessionValue(w, r, userEmailKey)
					if err != nil {
						slog.ErrorContext(r.Context(), "error on deleting session value", "key", userEmailKey, "error", err)
						http.Error(w, "error on deleting session value", http.StatusInternalServerError)

						return
					}

					next.ServeHTTP(w, r)

					return
				}

				slog.ErrorContext(r.Context(), "error retrieving user", "error", err)
				http.Error(w, "error on retrieving user", http.StatusInternalServerError)

				return
			}

			r = r.WithContext(accountcontext.WithUser(r.Context(), user))
		}

		next.ServeHTTP(w, r)
	})
}

func isAuthenticated(r *http.Request) bool {
	return accountcontext.UserFromContext(r.Context()) != nil
}

func (h *Handler) AuthenticatedOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isAuthenticated(r) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) GuestOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isAuthenticated(r) {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)

			return
		}

		next.ServeHTTP(w, r)
	})
}

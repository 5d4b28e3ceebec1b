// Package web renders the scheduling dashboard as HTML over HTTP.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
	"github.com/postdeck/postdeck/account"
	accountcontext "github.com/postdeck/postdeck/account/context"
	"github.com/postdeck/postdeck/assist"
	"github.com/postdeck/postdeck/calendar"
	"github.com/postdeck/postdeck/dashboard"
	"github.com/postdeck/postdeck/scheduling"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	//go:embed templates/*
	templatesFS embed.FS

	//go:embed static/*
	staticFS embed.FS
)

const (
	defaultSiteTitle = "Postdeck"
	hxRequestTrue    = "true"

	recentPostsCount = 5

	datetimeLocalLayout = "2006-01-02T15:04"
)

type Handler struct {
	mux         *http.ServeMux
	handler     http.Handler
	tpl         *template.Template
	static      fs.FS
	accountSvc  *account.Service
	postsRepo   *scheduling.Repository
	assistSvc   *assist.Service
	cookieStore *sessions.CookieStore
	sessionName string
	markdown    goldmark.Markdown
}

var _ http.Handler = (*Handler)(nil)

func NewHandler(
	accountSvc *account.Service,
	postsRepo *scheduling.Repository,
	assistSvc *assist.Service,
	cookieStore *sessions.CookieStore,
	sessionName string,
	csrfAuthKeys []byte,
	csrfTrustedOrigins []string,
) (*Handler, error) {
	h := &Handler{
		accountSvc:  accountSvc,
		postsRepo:   postsRepo,
		assistSvc:   assistSvc,
		cookieStore: cookieStore,
		sessionName: sessionName,
	}

	h.markdown = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
		),
	)

	{
		tpl, err := template.New("").Funcs(h.funcs()).ParseFS(templatesFS, "templates/*.gohtml")
		if err != nil {
			return nil, fmt.Errorf("failed to parse templates: %w", err)
		}

		h.tpl = tpl
	}

	{
		static, err := fs.Sub(staticFS, "static")
		if err != nil {
			return nil, fmt.Errorf("failed to sub static fs: %w", err)
		}

		h.static = static
	}

	{
		h.mux = &http.ServeMux{}
		h.handler = h.mux

		h.registerRoutes()
	}

	{
		h.handler = h.authMiddleware(h.handler)

		csrfMiddleware := csrf.Protect(
			csrfAuthKeys,
			csrf.TrustedOrigins(csrfTrustedOrigins),
		)

		h.handler = csrfMiddleware(h.handler)

		h.handler = recoverMiddleware(h.handler)
	}

	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("/", h.HandleIndex)

	h.mux.Handle("GET /login", h.HandleLoginPage())
	h.mux.Handle("POST /login", h.HandleLogin())
	h.mux.Handle("GET /register", h.HandleRegisterPage())
	h.mux.Handle("POST /register", h.HandleRegister())
	h.mux.Handle("GET /logout", h.HandleLogoutPage())
	h.mux.Handle("POST /logout", h.HandleLogout())

	h.mux.Handle("GET /dashboard", h.HandleDashboardPage())
	h.mux.Handle("GET /calendar", h.HandleCalendarPage())

	h.mux.Handle("GET /compose", h.HandleComposePage())
	h.mux.Handle("POST /compose", h.HandleCompose())
	h.mux.Handle("GET /posts/{postId}/edit", h.HandleEditPostPage())
	h.mux.Handle("POST /posts/{postId}/edit", h.HandleEditPost())
	h.mux.Handle("POST /posts/{postId}/delete", h.HandleDeletePost())

	h.mux.Handle("POST /assist", h.HandleAssist())

	h.mux.Handle("GET /settings", h.HandleSettingsPage())
	h.mux.Handle("POST /settings/connect/{platform}", h.HandleConnectAccount())
	h.mux.Handle("POST /settings/disconnect/{platform}", h.HandleDisconnectAccount())
	h.mux.Handle("POST /settings/tier", h.HandleChangeTier())
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func(ctx context.Context) {
			if err := recover(); err != nil {
				slog.ErrorContext(
					ctx,
					"recovered from panic",
					"error",
					err,
					"stack",
					string(debug.Stack()),
				)

				http.Error(w, "internal error occurred", http.StatusInternalServerError)
			}
		}(r.Context())

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) funcs() template.FuncMap {
	return template.FuncMap{
		"markdown": func(source string) template.HTML {
			var buf bytes.Buffer

			err := h.markdown.Convert([]byte(source), &buf)
			if err != nil {
				return template.HTML(template.HTMLEscapeString(source))
			}

			return template.HTML(buf.String()) // nolint:gosec
		},
		"glyph": calendar.StatusGlyph,
		"formatDay": func(t time.Time) string {
			return t.Format("Jan 2, 2006")
		},
		"formatDateTime": func(t time.Time) string {
			return t.Format("Jan 2, 2006 15:04")
		},
		"inputDateTime": func(t time.Time) string {
			return t.Format(datetimeLocalLayout)
		},
		"truncate": truncate,
		"joinLines": func(lines []string) string {
			return strings.Join(lines, "\n")
		},
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n]) + "…"
}

func (h *Handler) renderTemplate(w http.ResponseWriter, r *http.Request, name string, extraData map[string]any) {
	currentUser := accountcontext.UserFromContext(r.Context())

	data := map[string]any{
		"CurrentPath":     r.URL.Path,
		"Lang":            "en",
		"Dir":             "ltr",
		"IsAuthenticated": currentUser != nil,
		"CurrentUser":     currentUser,
	}

	for key, value := range extraData {
		data[key] = value
	}

	data["SiteTitle"] = defaultSiteTitle

	if extraData["SiteTitle"] != nil {
		data["SiteTitle"] = fmt.Sprintf("%s | %s", extraData["SiteTitle"], data["SiteTitle"])
	}

	err := h.tpl.ExecuteTemplate(w, name, data)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to render template", "name", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)

		return
	}
}

func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		h.HandleStatic(w, r)

		return
	}

	if isAuthenticated(r) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)

		return
	}

	h.renderTemplate(w, r, "landing-page.gohtml", nil)
}

// HandleStatic serves static files.
func (h *Handler) HandleStatic(w http.ResponseWriter, r *http.Request) {
	http.FileServer(http.FS(h.static)).ServeHTTP(w, r)
}

func (h *Handler) HandleLoginPage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			csrf.TemplateTag: csrf.TemplateField(r),
			"SiteTitle":      "Login",
		}

		h.renderTemplate(w, r, "login-page.gohtml", data)
	})

	return h.GuestOnly(hf)
}

func (h *Handler) HandleLogin() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseForm()
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to parse form", "error", err)
			http.Error(w, "Bad Request", http.StatusBadRequest)

			return
		}

		email := r.FormValue("email")
		password := r.FormValue("password")

		user, err := h.accountSvc.Login(r.Context(), email, password)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to login user", "error", err)
			http.Error(w, "Failed to login", http.StatusBadRequest)

			return
		}

		err = h.setSessionValue(w, r, userEmailKey, user.Email)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to set session value", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)

			return
		}

		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})

	return h.GuestOnly(hf)
}

func (h *Handler) HandleRegisterPage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			csrf.TemplateTag: csrf.TemplateField(r),
			"SiteTitle":      "Register",
		}

		h.renderTemplate(w, r, "register-page.gohtml", data)
	})

	return h.GuestOnly(hf)
}

func (h *Handler) HandleRegister() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseForm()
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to parse form", "error", err)
			http.Error(w, "Bad Request", http.StatusBadRequest)

			return
		}

		email := r.FormValue("email")
		password := r.FormValue("password")

		user, err := h.accountSvc.Register(r.Context(), email, password)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to register user", "error", err)
			http.Error(w, "Failed to register", http.StatusBadRequest)

			return
		}

		err = h.setSessionValue(w, r, userEmailKey, user.Email)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to set session value", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)

			return
		}

		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})

	return h.GuestOnly(hf)
}

func (h *Handler) HandleLogoutPage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			csrf.TemplateTag: csrf.TemplateField(r),
			"SiteTitle":      "Logout",
		}

		h.renderTemplate(w, r, "logout-page.gohtml", data)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleLogout() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := h.accountSvc.Logout(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to logout user", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)

			return
		}

		err = h.deleteSessionValue(w, r, userEmailKey)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to delete session value", "key", userEmailKey, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)

			return
		}

		http.Redirect(w, r, "/", http.StatusSeeOther)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleDashboardPage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snapshot := h.postsRepo.List()
		counts := dashboard.Count(snapshot, time.Now())
		recent := dashboard.Recent(snapshot, recentPostsCount)

		connectedAccounts := 0
		if user := accountcontext.UserFromContext(r.Context()); user != nil {
			connectedAccounts = len(user.ConnectedAccounts)
		}

		data := map[string]any{
			"Counts":            counts,
			"ConnectedAccounts": connectedAccounts,
			"RecentPosts":       recent,
			"SiteTitle":         "Dashboard",
			csrf.TemplateTag:    csrf.TemplateField(r),
		}

		h.renderTemplate(w, r, "dashboard-page.gohtml", data)
	})

	return h.AuthenticatedOnly(hf)
}

// CalendarDay is one cell of the month grid.
type CalendarDay struct {
	Date    time.Time
	IsToday bool
	Posts   []CalendarChip
}

// CalendarChip is a post rendered inside a day cell, with its status color.
type CalendarChip struct {
	Post  *scheduling.Post
	Glyph calendar.Glyph
}

func (h *Handler) HandleCalendarPage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()

		year, month := parseYearMonth(r.URL.Query().Get("year"), r.URL.Query().Get("month"), now)

		snapshot := h.postsRepo.List()

		days := make([]CalendarDay, 0, 31)

		for _, date := range calendar.DaysInMonth(year, month) {
			posts := calendar.PostsOnDay(snapshot, date)

			chips := make([]CalendarChip, 0, len(posts))
			for _, post := range posts {
				chips = append(chips, CalendarChip{Post: post, Glyph: calendar.StatusGlyph(post)})
			}

			days = append(days, CalendarDay{
				Date:    date,
				IsToday: calendar.SameDay(date, now),
				Posts:   chips,
			})
		}

		first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		prev := first.AddDate(0, -1, 0)
		next := first.AddDate(0, 1, 0)

		// Sunday-first grid: leading blank cells before day 1.
		leading := make([]struct{}, int(first.Weekday()))

		data := map[string]any{
			"Year":          year,
			"Month":         int(month),
			"MonthName":     month.String(),
			"Days":          days,
			"LeadingBlanks": leading,
			"PrevYear":      prev.Year(),
			"PrevMonth":     int(prev.Month()),
			"NextYear":      next.Year(),
			"NextMonth":     int(next.Month()),
			"SiteTitle":     "Calendar",
		}

		h.renderTemplate(w, r, "calendar-page.gohtml", data)
	})

	return h.AuthenticatedOnly(hf)
}

// parseYearMonth falls back to the given time's month on absent or
// malformed query parameters.
func parseYearMonth(yearStr, monthStr string, now time.Time) (int, time.Month) {
	year := now.Year()
	month := now.Month()

	if y, err := strconv.Atoi(yearStr); err == nil && y >= 1 {
		year = y
	}

	if m, err := strconv.Atoi(monthStr); err == nil && m >= 1 && m <= 12 {
		month = time.Month(m)
	}

	return year, month
}

func (h *Handler) HandleComposePage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			"Platforms":      scheduling.Platforms(),
			"DefaultTime":    assist.SuggestOptimalTime(scheduling.PlatformTwitter, time.Now()),
			"SiteTitle":      "Compose",
			csrf.TemplateTag: csrf.TemplateField(r),
		}

		h.renderTemplate(w, r, "compose-page.gohtml", data)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleCompose() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseForm()
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to parse form", "error", err)
			http.Error(w, "Bad Request", http.StatusBadRequest)

			return
		}

		draft := scheduling.Draft{
			Content:       r.FormValue("content"),
			Platforms:     platformsFromForm(r.Form["platforms"]),
			ScheduledTime: scheduledTimeFromForm(r.FormValue("scheduled_time")),
			MediaURLs:     linesFromForm(r.FormValue("media_urls")),
		}

		_, err = h.postsRepo.Add(r.Context(), draft)
		if err != nil {
			var invalidDraftErr scheduling.InvalidDraftError
			if errors.As(err, &invalidDraftErr) {
				http.Error(w, invalidDraftErr.Error(), http.StatusUnprocessableEntity)

				return
			}

			slog.ErrorContext(r.Context(), "failed to add post", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)

			return
		}

		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})

	return h.AuthenticatedOnly(hf)
}

func platformsFromForm(values []string) []scheduling.Platform {
	platforms := make([]scheduling.Platform, 0, len(values))

	for _, value := range values {
		platforms = append(platforms, scheduling.Platform(value))
	}

	return platforms
}

func scheduledTimeFromForm(value string) time.Time {
	t, err := time.ParseInLocation(datetimeLocalLayout, value, time.Local)
	if err != nil {
		return time.Time{}
	}

	return t
}

func linesFromForm(value string) []string {
	lines := make([]string, 0)

	for _, line := range strings.Split(value, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	return lines
}

func (h *Handler) findPost(postID string) *scheduling.Post {
	for _, post := range h.postsRepo.List() {
		if post.ID == postID {
			return post
		}
	}

	return nil
}

func (h *Handler) HandleEditPostPage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		postID := r.PathValue("postId")

		post := h.findPost(postID)
		if post == nil {
			http.Error(w, "Post not found", http.StatusNotFound)

			return
		}

		selected := make(map[scheduling.Platform]bool)
		for _, platform := range post.Platforms {
			selected[platform] = true
		}

		data := map[string]any{
			"Post":      post,
			"Platforms": scheduling.Platforms(),
			"Selected":  selected,
			"Statuses": []scheduling.Status{
				scheduling.StatusScheduled,
				scheduling.StatusPublished,
				scheduling.StatusFailed,
			},
			"SiteTitle":      "Edit Post",
			csrf.TemplateTag: csrf.TemplateField(r),
		}

		h.renderTemplate(w, r, "edit-post-page.gohtml", data)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleEditPost() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		postID := r.PathValue("postId")

		err := r.ParseForm()
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to parse form", "error", err)
			http.Error(w, "Bad Request", http.StatusBadRequest)

			return
		}

		content := r.FormValue("content")
		scheduledTime := scheduledTimeFromForm(r.FormValue("scheduled_time"))
		status := scheduling.Status(r.FormValue("status"))
		mediaURLs := linesFromForm(r.FormValue("media_urls"))

		_, err = h.postsRepo.Update(r.Context(), postID, scheduling.UpdatePostRequest{
			Content:       &content,
			Platforms:     platformsFromForm(r.Form["platforms"]),
			ScheduledTime: &scheduledTime,
			Status:        &status,
			MediaURLs:     mediaURLs,
		})
		if err != nil {
			var postNotFoundErr scheduling.PostNotFoundError

			var invalidDraftErr scheduling.InvalidDraftError

			switch {
			case errors.As(err, &postNotFoundErr):
				http.Error(w, "Post not found", http.StatusNotFound)
			case errors.As(err, &invalidDraftErr):
				http.Error(w, invalidDraftErr.Error(), http.StatusUnprocessableEntity)
			default:
				slog.ErrorContext(r.Context(), "failed to update post", "postId", postID, "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}

			return
		}

		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleDeletePost() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		postID := r.PathValue("postId")

		err := h.postsRepo.Delete(r.Context(), postID)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to delete post", "postId", postID, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)

			return
		}

		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleAssist() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("HX-Request") != hxRequestTrue {
			http.Error(w, "Direct access is forbidden", http.StatusForbidden)

			return
		}

		err := r.ParseForm()
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to parse form", "error", err)
			http.Error(w, "Bad Request", http.StatusBadRequest)

			return
		}

		content := r.FormValue("content")

		platform := scheduling.PlatformTwitter

		if values := r.Form["platforms"]; len(values) > 0 {
			if p := scheduling.Platform(values[0]); p.IsValid() {
				platform = p
			}
		}

		caption := h.assistSvc.ImproveCaption(r.Context(), content, platform)

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		_, _ = w.Write([]byte(caption))
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleSettingsPage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := accountcontext.UserFromContext(r.Context())

		connected := make(map[scheduling.Platform]bool)

		if user != nil {
			for _, platform := range user.ConnectedAccounts {
				connected[platform] = true
			}
		}

		data := map[string]any{
			"Platforms":      scheduling.Platforms(),
			"Connected":      connected,
			"SiteTitle":      "Settings",
			csrf.TemplateTag: csrf.TemplateField(r),
		}

		h.renderTemplate(w, r, "settings-page.gohtml", data)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleConnectAccount() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		platform := scheduling.Platform(r.PathValue("platform"))

		_, err := h.accountSvc.ConnectAccount(r.Context(), platform)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to connect account", "platform", platform, "error", err)
			http.Error(w, "Failed to connect account", http.StatusBadRequest)

			return
		}

		http.Redirect(w, r, "/settings", http.StatusSeeOther)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleDisconnectAccount() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		platform := scheduling.Platform(r.PathValue("platform"))

		_, err := h.accountSvc.DisconnectAccount(r.Context(), platform)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to disconnect account", "platform", platform, "error", err)
			http.Error(w, "Failed to disconnect account", http.StatusBadRequest)

			return
		}

		http.Redirect(w, r, "/settings", http.StatusSeeOther)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleChangeTier() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseForm()
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to parse form", "error", err)
			http.Error(w, "Bad Request", http.StatusBadRequest)

			return
		}

		tier := r.FormValue("tier")
		if tier != "free" && tier != "pro" {
			http.Error(w, "Unknown subscription tier", http.StatusBadRequest)

			return
		}

		user := accountcontext.UserFromContext(r.Context())
		if user == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)

			return
		}

		user.SubscriptionTier = tier

		err = h.accountSvc.Update(r.Context(), user)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to update user", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)

			return
		}

		http.Redirect(w, r, "/settings", http.StatusSeeOther)
	})

	return h.AuthenticatedOnly(hf)
}

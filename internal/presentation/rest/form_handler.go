package rest

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"unicode"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/application/dto"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/model"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/pkg/auth"
)

// FormTokenCookie carries the access token accepted by the form so later
// submissions from the same browser need not repeat it.
const FormTokenCookie = "churn_token"

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type formField struct {
	Name    string
	Label   string
	Kind    string
	Options []string
	Value   string
}

type formPage struct {
	Fields       []formField
	CustomerID   string
	ModelVersion string
	Result       *dto.PredictionResponse
	Error        string
	AuthRequired bool
}

// FormHandler serves the browser form for scoring one customer.
type FormHandler struct {
	predict    Predictor
	schema     dto.SchemaResponse
	categories map[string][]string
	jwt        *auth.JWTService
	logger     *slog.Logger
}

// NewFormHandler creates a FormHandler. categories, when known, turns the
// categorical inputs into drop-downs.
func NewFormHandler(predict Predictor, describe SchemaDescriber, categories map[string][]string, logger *slog.Logger) *FormHandler {
	return &FormHandler{
		predict:    predict,
		schema:     describe.Execute(),
		categories: categories,
		logger:     logger,
	}
}

// RegisterRoutes registers the form endpoints on the provided ServeMux.
func (h *FormHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Show)
	mux.HandleFunc("POST /{$}", h.Submit)
}

// Show renders the empty form.
func (h *FormHandler) Show(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, h.page(nil))
}

// Submit scores the submitted form. Blank inputs are left out so they take
// their column default.
func (h *FormHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		page := h.page(nil)
		page.Error = "The form could not be read."
		h.render(w, r, http.StatusBadRequest, page)
		return
	}

	features := make(map[string]any, len(h.schema.Columns))
	for _, col := range h.schema.Columns {
		if v := strings.TrimSpace(r.PostForm.Get(col.Name)); v != "" {
			features[col.Name] = v
		}
	}

	page := h.page(r.PostForm)
	page.CustomerID = strings.TrimSpace(r.PostForm.Get("customer_id"))

	if h.jwt != nil {
		claims, code, msg := h.authorize(w, r)
		if claims == nil {
			page.Error = msg
			h.render(w, r, code, page)
			return
		}
		r = r.WithContext(auth.ContextWithClaims(r.Context(), claims))
	}

	resp, err := h.predict.Execute(r.Context(), dto.PredictChurnRequest{
		CustomerID: page.CustomerID,
		Features:   features,
		Source:     model.SourceForm,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "form prediction failed", "error", err)
		page.Error = "Prediction failed. Please try again."
		h.render(w, r, http.StatusInternalServerError, page)
		return
	}
	page.Result = &resp
	h.render(w, r, http.StatusOK, page)
}

// authorize checks the token from the access_token field, the form cookie or
// the Authorization header, in that order. A token typed into the form is
// remembered in a cookie until it expires.
func (h *FormHandler) authorize(w http.ResponseWriter, r *http.Request) (*auth.Claims, int, string) {
	token := strings.TrimSpace(r.PostForm.Get("access_token"))
	typed := token != ""
	if !typed {
		if c, err := r.Cookie(FormTokenCookie); err == nil {
			token = c.Value
		} else {
			token = strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		}
	}
	if token == "" {
		return nil, http.StatusUnauthorized, "An access token is required to score customers."
	}

	claims, err := h.jwt.ValidateToken(token)
	if err != nil {
		h.logger.WarnContext(r.Context(), "form token rejected", "error", err)
		return nil, http.StatusUnauthorized, "The access token is invalid or has expired."
	}
	if !claims.HasScope(auth.ScopePredict) {
		return nil, http.StatusForbidden, "The access token does not allow scoring customers."
	}

	if typed {
		cookie := &http.Cookie{
			Name:     FormTokenCookie,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteStrictMode,
		}
		if claims.ExpiresAt != nil {
			cookie.Expires = claims.ExpiresAt.Time
		}
		http.SetCookie(w, cookie)
	}
	return claims, 0, ""
}

func (h *FormHandler) page(values map[string][]string) formPage {
	page := formPage{ModelVersion: h.schema.ModelVersion, AuthRequired: h.jwt != nil}
	for _, col := range h.schema.Columns {
		f := formField{
			Name:    col.Name,
			Label:   humanize(col.Name),
			Kind:    col.Kind,
			Options: h.categories[col.Name],
		}
		if vs := values[col.Name]; len(vs) > 0 {
			f.Value = vs[0]
		}
		page.Fields = append(page.Fields, f)
	}
	return page
}

func (h *FormHandler) render(w http.ResponseWriter, r *http.Request, code int, page formPage) {
	var buf strings.Builder
	if err := pageTemplate.Execute(&buf, page); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render form", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(buf.String()))
}

// humanize turns "HourSpendOnApp" into "Hour Spend On App".
func humanize(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && (unicode.IsLower(runes[i-1]) ||
			(i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1]))) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

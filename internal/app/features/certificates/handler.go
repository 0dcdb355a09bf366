// internal/app/features/certificates/handler.go
package certificates

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/dalemusser/memberhub/internal/app/features/errors"
	certificatestore "github.com/dalemusser/memberhub/internal/app/store/certificates"
	userstore "github.com/dalemusser/memberhub/internal/app/store/users"
	"github.com/dalemusser/memberhub/internal/app/system/auth"
	"github.com/dalemusser/memberhub/internal/app/system/inputval"
	"github.com/dalemusser/memberhub/internal/app/system/normalize"
	"github.com/dalemusser/memberhub/internal/app/system/viewdata"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the certificates of one member. It is mounted below
// /users/{id}, so every route carries the member ID.
type Handler struct {
	Certificates *certificatestore.Store
	Users        *userstore.Store
	SessionMgr   *auth.SessionManager
	ErrLog       *uierrors.ErrorLogger
	Log          *zap.Logger
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Certificates: certificatestore.New(db),
		Users:        userstore.New(db),
		SessionMgr:   sessionMgr,
		ErrLog:       errLog,
		Log:          logger,
	}
}

// certificateInput defines validation rules for the certificate form.
type certificateInput struct {
	Name         string `form:"name" validate:"required,max=100" label:"Name"`
	Abbreviation string `form:"abbreviation" validate:"required,max=20" label:"Abbreviation"`
	ObtainedOn   string `form:"obtained_on" validate:"omitempty,isodate" label:"Obtained on"`
	ExpiresOn    string `form:"expires_on" validate:"omitempty,isodate" label:"Expires on"`
}

func readInput(r *http.Request) certificateInput {
	return certificateInput{
		Name:         normalize.Name(r.PostForm.Get("name")),
		Abbreviation: strings.ToUpper(normalize.Name(r.PostForm.Get("abbreviation"))),
		ObtainedOn:   strings.TrimSpace(r.PostForm.Get("obtained_on")),
		ExpiresOn:    strings.TrimSpace(r.PostForm.Get("expires_on")),
	}
}

// validate returns per-field messages; an empty map means in is acceptable.
func (in certificateInput) validate() map[string]string {
	res := inputval.Validate(in)
	if !res.HasErrors() && in.ObtainedOn != "" && in.ExpiresOn != "" && in.ExpiresOn < in.ObtainedOn {
		res.Add("expires_on", "Expires on must not be before obtained on.")
	}
	return res.ByField()
}

func (in certificateInput) model() models.Certificate {
	return models.Certificate{
		Name:         in.Name,
		Abbreviation: in.Abbreviation,
		ObtainedOn:   parseDate(in.ObtainedOn),
		ExpiresOn:    parseDate(in.ExpiresOn),
	}
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(inputval.DateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(inputval.DateLayout)
}

type formData struct {
	viewdata.BaseVM

	IsEdit     bool
	UserID     string
	MemberName string
	Action     string

	Name         string
	Abbreviation string
	ObtainedOn   string
	ExpiresOn    string

	Errors map[string]string
}

// member loads the user named by the {id} URL parameter, rendering an error
// page when it is malformed or unknown.
func (h *Handler) member(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid member ID.", "/users")
		return nil, false
	}
	u, err := h.Users.FindByID(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load member failed", err, "A database error occurred.", "/users")
		return nil, false
	}
	if u == nil {
		uierrors.RenderNotFound(w, r, "Member not found.", "/users")
		return nil, false
	}
	return u, true
}

// certificate loads the {certID} certificate and checks it belongs to u.
func (h *Handler) certificate(ctx context.Context, w http.ResponseWriter, r *http.Request, u *models.User) (models.Certificate, bool) {
	back := "/users/" + u.ID.Hex()
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "certID"))
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid certificate ID.", back)
		return models.Certificate{}, false
	}
	c, err := h.Certificates.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && c.UserID != u.ID) {
		uierrors.RenderNotFound(w, r, "Certificate not found.", back)
		return models.Certificate{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load certificate failed", err, "A database error occurred.", back)
		return models.Certificate{}, false
	}
	return c, true
}

func (h *Handler) flash(w http.ResponseWriter, r *http.Request, key string) {
	if h.SessionMgr != nil {
		h.SessionMgr.AddFlash(w, r, key)
	}
}

// internal/app/features/agendacategories/handler.go
package agendacategories

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/memberhub/internal/app/features/errors"
	categorystore "github.com/dalemusser/memberhub/internal/app/store/agendacategories"
	"github.com/dalemusser/memberhub/internal/app/system/auth"
	"github.com/dalemusser/memberhub/internal/app/system/i18n"
	"github.com/dalemusser/memberhub/internal/app/system/inputval"
	"github.com/dalemusser/memberhub/internal/app/system/navigation"
	"github.com/dalemusser/memberhub/internal/app/system/normalize"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/memberhub/internal/app/system/viewdata"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const basePath = "/agenda-item-categories"

type Handler struct {
	Categories *categorystore.Store
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Categories: categorystore.New(db),
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		Log:        logger,
	}
}

// categoryInput defines validation rules for the category form. Both
// languages are required.
type categoryInput struct {
	NameNL string `form:"name_nl" validate:"required,max=100" label:"Dutch name"`
	NameEN string `form:"name_en" validate:"required,max=100" label:"English name"`
}

type categoryRow struct {
	ID     string
	Name   string
	NameNL string
	NameEN string
}

type listData struct {
	viewdata.BaseVM
	Rows []categoryRow
}

type formData struct {
	viewdata.BaseVM

	IsEdit bool
	ID     string
	Action string

	NameNL string
	NameEN string

	Errors map[string]string
}

// ServeList renders all categories, named in the request language.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	cats, err := h.Categories.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list categories failed", err, "A database error occurred.", "/")
		return
	}

	lang := i18n.FromRequest(r)
	rows := make([]categoryRow, 0, len(cats))
	for _, c := range cats {
		rows = append(rows, categoryRow{ID: c.ID.Hex(), Name: c.Name(lang), NameNL: c.NameNL, NameEN: c.NameEN})
	}
	templates.Render(w, r, "category_list", listData{
		BaseVM: viewdata.NewBaseVM(w, r, "Agenda item categories", "/"),
		Rows:   rows,
	})
}

// ServeNew renders the "Add category" form.
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "category_form", formData{
		BaseVM: viewdata.NewBaseVM(w, r, "Add category", navigation.SafeBackURL(r, navigation.CategoriesBackURL)),
		Action: basePath,
	})
}

// HandleCreate processes the "Add category" form.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", basePath)
		return
	}
	in := readInput(r)
	data := formData{Action: basePath, NameNL: in.NameNL, NameEN: in.NameEN}

	if errs := inputval.Validate(in).ByField(); len(errs) > 0 {
		data.Errors = errs
		h.reRender(w, r, "Add category", data)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Categories.Create(ctx, models.AgendaItemCategory{NameNL: in.NameNL, NameEN: in.NameEN})
	if errors.Is(err, categorystore.ErrDuplicateCategory) {
		data.Errors = map[string]string{"name_nl": "A category with this Dutch name already exists."}
		h.reRender(w, r, "Add category", data)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create category failed", err, "A database error occurred.", basePath)
		return
	}

	h.Log.Info("agenda item category created", zap.String("category_id", c.ID.Hex()))
	h.flash(w, r, i18n.CategoryAdded)
	http.Redirect(w, r, basePath, http.StatusSeeOther)
}

// ServeEdit renders the edit form for one category.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.categoryID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Categories.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderNotFound(w, r, "Category not found.", basePath)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load category failed", err, "A database error occurred.", basePath)
		return
	}

	templates.Render(w, r, "category_form", formData{
		BaseVM: viewdata.NewBaseVM(w, r, "Edit category", basePath),
		IsEdit: true,
		ID:     id.Hex(),
		Action: basePath + "/" + id.Hex(),
		NameNL: c.NameNL,
		NameEN: c.NameEN,
	})
}

// HandleEdit processes the edit form.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.categoryID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", basePath)
		return
	}
	in := readInput(r)
	data := formData{IsEdit: true, ID: id.Hex(), Action: basePath + "/" + id.Hex(), NameNL: in.NameNL, NameEN: in.NameEN}

	if errs := inputval.Validate(in).ByField(); len(errs) > 0 {
		data.Errors = errs
		h.reRender(w, r, "Edit category", data)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err := h.Categories.Update(ctx, id, in.NameNL, in.NameEN)
	switch {
	case errors.Is(err, categorystore.ErrDuplicateCategory):
		data.Errors = map[string]string{"name_nl": "A category with this Dutch name already exists."}
		h.reRender(w, r, "Edit category", data)
		return
	case errors.Is(err, mongo.ErrNoDocuments):
		uierrors.RenderNotFound(w, r, "Category not found.", basePath)
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "update category failed", err, "A database error occurred.", basePath)
		return
	}

	h.Log.Info("agenda item category updated", zap.String("category_id", id.Hex()))
	h.flash(w, r, i18n.CategoryEdited)
	http.Redirect(w, r, basePath, http.StatusSeeOther)
}

// HandleDelete removes a category. A missing category is not an error.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.categoryID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Categories.Delete(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete category failed", err, "A database error occurred.", basePath)
		return
	}
	if n > 0 {
		h.Log.Info("agenda item category deleted", zap.String("category_id", id.Hex()))
	}
	h.flash(w, r, i18n.CategoryDeleted)
	http.Redirect(w, r, basePath, http.StatusSeeOther)
}

func readInput(r *http.Request) categoryInput {
	return categoryInput{
		NameNL: normalize.Name(r.PostForm.Get("name_nl")),
		NameEN: normalize.Name(r.PostForm.Get("name_en")),
	}
}

func (h *Handler) reRender(w http.ResponseWriter, r *http.Request, title string, data formData) {
	data.BaseVM = viewdata.NewBaseVM(w, r, title, basePath)
	w.WriteHeader(http.StatusUnprocessableEntity)
	templates.Render(w, r, "category_form", data)
}

func (h *Handler) categoryID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid category ID.", basePath)
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *Handler) flash(w http.ResponseWriter, r *http.Request, key string) {
	if h.SessionMgr != nil {
		h.SessionMgr.AddFlash(w, r, key)
	}
}

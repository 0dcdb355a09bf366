// internal/app/features/certificates/manage.go
package certificates

import (
	"context"
	"net/http"

	"github.com/dalemusser/memberhub/internal/app/system/i18n"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/memberhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// ServeNew renders the "Add certificate" form.
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, ok := h.member(ctx, w, r)
	if !ok {
		return
	}
	back := "/users/" + u.ID.Hex()
	templates.Render(w, r, "certificate_form", formData{
		BaseVM:     viewdata.NewBaseVM(w, r, "Add certificate", back),
		UserID:     u.ID.Hex(),
		MemberName: u.FullName(),
		Action:     back + "/certificates",
	})
}

// HandleCreate adds a certificate to the member.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, ok := h.member(ctx, w, r)
	if !ok {
		return
	}
	back := "/users/" + u.ID.Hex()
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", back)
		return
	}

	in := readInput(r)
	if errs := in.validate(); len(errs) > 0 {
		w.WriteHeader(http.StatusUnprocessableEntity)
		templates.Render(w, r, "certificate_form", h.formFromInput(w, r, "Add certificate", back+"/certificates", u.ID.Hex(), u.FullName(), in, errs, false))
		return
	}

	c := in.model()
	c.UserID = u.ID
	c, err := h.Certificates.Create(ctx, c)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create certificate failed", err, "A database error occurred.", back)
		return
	}

	h.Log.Info("certificate added", zap.String("user_id", u.ID.Hex()), zap.String("certificate_id", c.ID.Hex()))
	h.flash(w, r, i18n.CertificateAdded)
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// ServeEdit renders the edit form for one certificate.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, ok := h.member(ctx, w, r)
	if !ok {
		return
	}
	c, ok := h.certificate(ctx, w, r, u)
	if !ok {
		return
	}
	back := "/users/" + u.ID.Hex()
	templates.Render(w, r, "certificate_form", formData{
		BaseVM:       viewdata.NewBaseVM(w, r, "Edit certificate", back),
		IsEdit:       true,
		UserID:       u.ID.Hex(),
		MemberName:   u.FullName(),
		Action:       back + "/certificates/" + c.ID.Hex(),
		Name:         c.Name,
		Abbreviation: c.Abbreviation,
		ObtainedOn:   formatDate(c.ObtainedOn),
		ExpiresOn:    formatDate(c.ExpiresOn),
	})
}

// HandleEdit updates a certificate.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, ok := h.member(ctx, w, r)
	if !ok {
		return
	}
	c, ok := h.certificate(ctx, w, r, u)
	if !ok {
		return
	}
	back := "/users/" + u.ID.Hex()
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", back)
		return
	}

	in := readInput(r)
	if errs := in.validate(); len(errs) > 0 {
		w.WriteHeader(http.StatusUnprocessableEntity)
		action := back + "/certificates/" + c.ID.Hex()
		templates.Render(w, r, "certificate_form", h.formFromInput(w, r, "Edit certificate", action, u.ID.Hex(), u.FullName(), in, errs, true))
		return
	}

	if err := h.Certificates.Update(ctx, c.ID, in.model()); err != nil {
		h.ErrLog.LogServerError(w, r, "update certificate failed", err, "A database error occurred.", back)
		return
	}

	h.Log.Info("certificate updated", zap.String("user_id", u.ID.Hex()), zap.String("certificate_id", c.ID.Hex()))
	h.flash(w, r, i18n.CertificateEdited)
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// HandleDelete removes a certificate.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, ok := h.member(ctx, w, r)
	if !ok {
		return
	}
	c, ok := h.certificate(ctx, w, r, u)
	if !ok {
		return
	}
	back := "/users/" + u.ID.Hex()

	if _, err := h.Certificates.Delete(ctx, c.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "delete certificate failed", err, "A database error occurred.", back)
		return
	}

	h.Log.Info("certificate deleted", zap.String("user_id", u.ID.Hex()), zap.String("certificate_id", c.ID.Hex()))
	h.flash(w, r, i18n.CertificateDeleted)
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func (h *Handler) formFromInput(w http.ResponseWriter, r *http.Request, title, action, userID, memberName string, in certificateInput, errs map[string]string, isEdit bool) formData {
	return formData{
		BaseVM:       viewdata.NewBaseVM(w, r, title, "/users/"+userID),
		IsEdit:       isEdit,
		UserID:       userID,
		MemberName:   memberName,
		Action:       action,
		Name:         in.Name,
		Abbreviation: in.Abbreviation,
		ObtainedOn:   in.ObtainedOn,
		ExpiresOn:    in.ExpiresOn,
		Errors:       errs,
	}
}

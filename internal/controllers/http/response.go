package http

import (
	"errors"
	"net/http"

	pkgerrors "storefront/pkg/errors"

	"github.com/gin-gonic/gin"
)

func (h *Handler) writeError(c *gin.Context, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	msg := typed.Message()
	if msg == "" {
		msg = meta.PublicMessage
	}

	payload := errorEnvelope{
		Error: errorBody{Code: string(typed.Code()), Message: msg},
	}
	if meta.DetailsAllowed {
		payload.Error.Details = typed.Details()
	}
	if redirect := typed.Redirect(); redirect != "" {
		payload.Redirect = redirect
	} else {
		payload.DismissAfterMs = h.opts.NoticeDismiss.Milliseconds()
	}

	ctx := h.logg.WithFields(c.Request.Context(), map[string]any{
		"error_code": string(typed.Code()),
		"status":     meta.HTTPStatus,
	})
	if meta.HTTPStatus >= http.StatusInternalServerError {
		h.logg.Error(ctx, "request.failed", err)
	} else {
		h.logg.Warn(h.logg.WithField(ctx, "error", err.Error()), "request.rejected")
	}

	c.JSON(meta.HTTPStatus, payload)
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	h.writeError(c, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid request body"))
}

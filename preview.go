package spacetraveling

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetraveling/cms"
)

// PreviewValidator is implemented by sources that can serve unpublished
// content from a preview token.
type PreviewValidator interface {
	ValidatePreviewToken(token string) error
}

// handlePreview starts a preview session from the token the CMS editor hands
// out and redirects to the previewed post when it can be resolved.
func (a *App) handlePreview(c echo.Context) error {
	v, ok := a.Site.Source.(PreviewValidator)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	token := c.QueryParam("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing preview token")
	}
	if err := v.ValidatePreviewToken(token); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid preview token")
	}
	if err := setPreviewSession(c, token); err != nil {
		return err
	}
	return c.Redirect(http.StatusTemporaryRedirect, a.previewTarget(c, token))
}

func (a *App) previewTarget(c echo.Context, token string) string {
	id := c.QueryParam("documentId")
	r, ok := a.Site.Source.(cms.Resolver)
	if id == "" || !ok {
		return "/"
	}
	ctx, cancel := a.upstream(c)
	defer cancel()
	doc, err := r.GetByID(cms.WithRef(ctx, token), id)
	if err != nil {
		if !errors.Is(err, cms.ErrNotFound) {
			c.Logger().Warnf("resolve preview document %q: %v", id, err)
		}
		return "/"
	}
	if doc.Type != a.Site.ContentType || doc.UID == "" {
		return "/"
	}
	return PostPath(doc.UID)
}

func (a *App) handleExitPreview(c echo.Context) error {
	if err := clearPreviewSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusTemporaryRedirect, "/")
}

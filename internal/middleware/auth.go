package middleware // package middleware contains reusable HTTP middleware functions

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/signhub/remote-signature/internal/utils"
)

// TokenAuth returns an Echo middleware that validates the signing token and
// injects its routing claims into the request context.  The token is read
// from the Authorization header in "Bearer <raw>" form, falling back to the
// "token" query parameter carried by the human-facing sign URL; both forms
// are normalized before validation.  Handlers behind this middleware can
// read "user_id", "project_id", "file_id" and "meta_code" via c.Get().
func TokenAuth(codec *utils.TokenCodec) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw := utils.NormalizeBearer(c.Request().Header.Get("Authorization"))
            if raw == "" {
                raw = utils.NormalizeBearer(c.QueryParam("token"))
            }
            if raw == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            claims, err := codec.Claims(raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            // Stash the raw token and claims for handlers and for the rate
            // limiter's per-user keying.
            c.Set("token", raw)
            c.Set("user_id", claims.UserID)
            c.Set("project_id", claims.ProjectID)
            c.Set("file_id", claims.FileID)
            c.Set("meta_code", claims.MetaCode)
            return next(c)
        }
    }
}

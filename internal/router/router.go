package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing
    "github.com/redis/go-redis/v9"

    "github.com/signhub/remote-signature/internal/config"
    "github.com/signhub/remote-signature/internal/handler"
    "github.com/signhub/remote-signature/internal/middleware"
    "github.com/signhub/remote-signature/internal/utils"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    // The health endpoint lets load balancers and monitoring verify that
    // the service is up.
    e.GET("/healthz", handler.Health)
}

// RegisterSign wires the signing workflow under /api/sign.  The whole group
// is rate limited through the Redis token bucket (a nil client disables
// limiting).  Status polling and user-info sit behind TokenAuth so the
// token is validated once and its claims land in the request context;
// confirm validates inside the service to keep the failure ordering
// (auth before any store access) in one place.
func RegisterSign(e *echo.Echo, h *handler.SignHandler, codec *utils.TokenCodec, rdb *redis.Client) {
    g := e.Group("/api/sign")
    g.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

    // Requester-facing: create or resume a signing session.
    g.POST("/url", h.GenerateSignURL)
    // Signer-facing: confirm the signature bound to the Bearer token.
    g.POST("/confirm", h.Confirm)

    // Token-authenticated reads.
    auth := g.Group("", middleware.TokenAuth(codec))
    auth.GET("/status", h.CheckStatus)
    auth.GET("/user-info", h.UserInfo)

    // Signature retrieval and management.
    g.GET("/signature", h.LatestSignature)
    g.GET("/signature-image", h.SignatureImage)
    g.GET("/history", h.History)
    g.GET("/user-signatures", h.UserSignatures)
    g.POST("/delete-record", h.DeleteRecord)
    g.POST("/delete-user-signature", h.DeleteUserSignature)
}

package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/signhub/remote-signature/internal/model"
    "github.com/signhub/remote-signature/internal/service"
)

// SignHandler exposes the signing workflow over HTTP.  Token validation for
// confirm happens inside the service so a bad token is rejected before any
// store access; routes that only need an authenticated context (status,
// user-info) sit behind the TokenAuth middleware instead.
type SignHandler struct {
    Svc *service.SignService
}

// NewSignHandler constructs a SignHandler.  The service must be non-nil.
func NewSignHandler(svc *service.SignService) *SignHandler {
    if svc == nil {
        panic("nil service passed to NewSignHandler")
    }
    return &SignHandler{Svc: svc}
}

// timeLayout is the display format for audit timestamps in responses.
const timeLayout = "2006-01-02 15:04:05"

// GenerateSignURL handles POST /api/sign/url.  The requester supplies the
// session key and optional meta code in the body; an optional Authorization
// header resumes an in-flight session instead of minting a new one.
func (h *SignHandler) GenerateSignURL(c echo.Context) error {
    var body struct {
        ProjectID string `json:"projectId"`
        UserID    string `json:"userId"`
        FileID    string `json:"fileId"`
        MetaCode  string `json:"metaCode"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.ProjectID == "" || body.UserID == "" || body.FileID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "projectId, userId and fileId are required"})
    }
    token := c.Request().Header.Get("Authorization")
    result, err := h.Svc.GenerateSignURL(c.Request().Context(), token,
        body.ProjectID, body.UserID, body.FileID, body.MetaCode)
    if err != nil {
        return signError(c, err)
    }
    return c.JSON(http.StatusOK, result)
}

// CheckStatus handles GET /api/sign/status?id=.  Sits behind TokenAuth.
func (h *SignHandler) CheckStatus(c echo.Context) error {
    id := c.QueryParam("id")
    if id == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "id is required"})
    }
    result, err := h.Svc.CheckStatus(c.Request().Context(), id)
    if err != nil {
        return signError(c, err)
    }
    return c.JSON(http.StatusOK, result)
}

// Confirm handles POST /api/sign/confirm.  The Bearer token travels in the
// Authorization header; the signature payload in the body.
func (h *SignHandler) Confirm(c echo.Context) error {
    var req service.ConfirmRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    token := c.Request().Header.Get("Authorization")
    result, err := h.Svc.Confirm(c.Request().Context(), token, &req)
    if err != nil {
        return signError(c, err)
    }
    return c.JSON(http.StatusOK, result)
}

// LatestSignature handles GET /api/sign/signature?projectId=&userId=&fileId=.
// It returns the image of the most recent completed signature for a session
// key, for callers that embed the signature into a rendered document.
func (h *SignHandler) LatestSignature(c echo.Context) error {
    projectID := c.QueryParam("projectId")
    userID := c.QueryParam("userId")
    fileID := c.QueryParam("fileId")
    if userID == "" || fileID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "userId and fileId are required"})
    }
    img, err := h.Svc.LatestSignature(c.Request().Context(), projectID, userID, fileID)
    if err != nil {
        return signError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"signatureBase64": img})
}

// SignatureImage handles GET /api/sign/signature-image?signRecordId=.
func (h *SignHandler) SignatureImage(c echo.Context) error {
    id := c.QueryParam("signRecordId")
    if id == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "signRecordId is required"})
    }
    img, err := h.Svc.SignatureImage(c.Request().Context(), id)
    if err != nil {
        return signError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"signatureBase64": img})
}

// History handles GET /api/sign/history?userId=.  It returns the user's
// sign records alongside their saved signatures for the history view.
func (h *SignHandler) History(c echo.Context) error {
    userID := c.QueryParam("userId")
    if userID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "userId is required"})
    }
    result, err := h.Svc.History(c.Request().Context(), userID)
    if err != nil {
        return signError(c, err)
    }
    records := make([]signRecordVO, 0, len(result.SignRecords))
    for _, rec := range result.SignRecords {
        records = append(records, newSignRecordVO(&rec))
    }
    sigs := make([]userSignatureVO, 0, len(result.UserSignatures))
    for _, sig := range result.UserSignatures {
        sigs = append(sigs, newUserSignatureVO(&sig))
    }
    return c.JSON(http.StatusOK, echo.Map{
        "signRecords":    records,
        "userSignatures": sigs,
    })
}

// UserSignatures handles GET /api/sign/user-signatures?userId=.
func (h *SignHandler) UserSignatures(c echo.Context) error {
    userID := c.QueryParam("userId")
    if userID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "userId is required"})
    }
    sigs, err := h.Svc.UserSignatures(c.Request().Context(), userID)
    if err != nil {
        return signError(c, err)
    }
    out := make([]userSignatureVO, 0, len(sigs))
    for _, sig := range sigs {
        out = append(out, newUserSignatureVO(&sig))
    }
    return c.JSON(http.StatusOK, echo.Map{
        "userId":     userID,
        "signatures": out,
    })
}

// DeleteRecord handles POST /api/sign/delete-record?signRecordId=.  The
// record is soft-deleted and retained for audit.
func (h *SignHandler) DeleteRecord(c echo.Context) error {
    id := c.QueryParam("signRecordId")
    if id == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "signRecordId is required"})
    }
    if err := h.Svc.DeleteRecord(c.Request().Context(), id); err != nil {
        return signError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "sign record deleted"})
}

// DeleteUserSignature handles POST /api/sign/delete-user-signature?userId=&signatureId=.
func (h *SignHandler) DeleteUserSignature(c echo.Context) error {
    userID := c.QueryParam("userId")
    sigID := c.QueryParam("signatureId")
    if userID == "" || sigID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "userId and signatureId are required"})
    }
    if err := h.Svc.DeleteUserSignature(c.Request().Context(), userID, sigID); err != nil {
        return signError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "user signature deleted"})
}

// UserInfo handles GET /api/sign/user-info.  Sits behind TokenAuth, which
// already validated the token and stashed its claims in the context.
func (h *SignHandler) UserInfo(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{
        "userId":    c.Get("user_id"),
        "projectId": c.Get("project_id"),
        "fileId":    c.Get("file_id"),
        "metaCode":  c.Get("meta_code"),
    })
}

// signError maps service sentinels to client-facing structured errors.
// Anything unmapped is a 500 with a generic message; internals stay inside.
func signError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, service.ErrInvalidToken):
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": service.ErrInvalidToken.Error()})
    case errors.Is(err, service.ErrSessionExpired):
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": service.ErrSessionExpired.Error()})
    case errors.Is(err, service.ErrRecordNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": service.ErrRecordNotFound.Error()})
    case errors.Is(err, service.ErrSignatureNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": service.ErrSignatureNotFound.Error()})
    case errors.Is(err, service.ErrAlreadySigned):
        return c.JSON(http.StatusConflict, echo.Map{"error": service.ErrAlreadySigned.Error()})
    case errors.Is(err, service.ErrRecordDeleted):
        return c.JSON(http.StatusConflict, echo.Map{"error": service.ErrRecordDeleted.Error()})
    case errors.Is(err, service.ErrSignatureExists):
        return c.JSON(http.StatusConflict, echo.Map{"error": service.ErrSignatureExists.Error()})
    case errors.Is(err, service.ErrMissingSignature):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": service.ErrMissingSignature.Error()})
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// signRecordVO is the JSON shape of a sign record in history responses.
type signRecordVO struct {
    ID                string  `json:"id"`
    ProjectID         string  `json:"projectId"`
    UserID            string  `json:"userId"`
    FileID            string  `json:"fileId"`
    MetaCode          string  `json:"metaCode"`
    Status            string  `json:"status"`
    SignatureBase64   string  `json:"signatureBase64,omitempty"`
    SignatureSequence int     `json:"signatureSequence"`
    UserSignatureID   *string `json:"userSignatureId,omitempty"`
    CreateTime        string  `json:"createTime"`
    UpdateTime        string  `json:"updateTime"`
}

func newSignRecordVO(rec *model.SignRecord) signRecordVO {
    return signRecordVO{
        ID:                rec.ID,
        ProjectID:         rec.ProjectID,
        UserID:            rec.UserID,
        FileID:            rec.FileID,
        MetaCode:          rec.MetaCode,
        Status:            rec.Status.Description(),
        SignatureBase64:   rec.SignatureBase64,
        SignatureSequence: rec.SignatureSequence,
        UserSignatureID:   rec.UserSignatureID,
        CreateTime:        rec.CreateTime.UTC().Format(timeLayout),
        UpdateTime:        rec.UpdateTime.UTC().Format(timeLayout),
    }
}

// userSignatureVO is the JSON shape of a saved signature.
type userSignatureVO struct {
    ID              string `json:"id"`
    UserID          string `json:"userId"`
    SignatureName   string `json:"signatureName,omitempty"`
    SignatureBase64 string `json:"signatureBase64"`
    IsDefault       bool   `json:"isDefault"`
    CreatedAt       string `json:"createdAt"`
    UpdatedAt       string `json:"updatedAt"`
}

func newUserSignatureVO(sig *model.UserSignature) userSignatureVO {
    return userSignatureVO{
        ID:              sig.ID,
        UserID:          sig.UserID,
        SignatureName:   sig.SignatureName,
        SignatureBase64: sig.SignatureBase64,
        IsDefault:       sig.IsDefault,
        CreatedAt:       sig.CreatedAt.UTC().Format(timeLayout),
        UpdatedAt:       sig.UpdatedAt.UTC().Format(timeLayout),
    }
}

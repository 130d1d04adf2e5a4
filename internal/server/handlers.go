package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/services"
	"github.com/desertthunder/reelx/internal/shared"
	"github.com/desertthunder/reelx/internal/storage"
	"github.com/go-chi/chi/v5"
)

// multipartOverhead is the allowance for multipart framing on top of the clip size limit.
const multipartOverhead = 1 << 20

type handlers struct {
	cfg    Config
	logger *log.Logger
}

func newHandlers(cfg Config) *handlers {
	logger := cfg.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &handlers{cfg: cfg, logger: logger}
}

// HelloResponse is the greeting returned to an authenticated user.
type HelloResponse struct {
	Message       string `json:"message"`
	Authenticated bool   `json:"authenticated"`
}

// UploadResponse is returned after a clip is stored.
type UploadResponse struct {
	VideoURL  string `json:"video_url"`
	ProjectID string `json:"project_id"`
}

// MovieResponse is returned after a render is submitted.
type MovieResponse struct {
	Project string `json:"project"`
}

// StatusResponse reports a render job.
type StatusResponse struct {
	Status  models.JobStatus `json:"status"`
	URL     string           `json:"url,omitempty"`
	Message string           `json:"message,omitempty"`
}

// TikTokTokenResponse wraps the exchanged token the way TikTok's own API nests payloads.
type TikTokTokenResponse struct {
	Data TikTokToken `json:"data"`
}

// TikTokToken is the token issued by the code exchange.
type TikTokToken struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	OpenID       string `json:"open_id,omitempty"`
	Scope        string `json:"scope,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
}

// TikTokUserResponse wraps a TikTok profile.
type TikTokUserResponse struct {
	Data struct {
		User models.TikTokUser `json:"user"`
	} `json:"data"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) hello(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	WriteJSON(w, http.StatusOK, HelloResponse{
		Message:       "Hello, " + claims.Subject + "!",
		Authenticated: true,
	})
}

// tiktokCallback forwards the authorization response to the frontend, which performs the exchange.
func (h *handlers) tiktokCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if h.cfg.FrontendURL == "" {
		if errParam := query.Get("error"); errParam != "" {
			WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: errParam, Description: query.Get("error_description")})
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"code": query.Get("code"), "state": query.Get("state")})
		return
	}

	target, err := url.Parse(strings.TrimRight(h.cfg.FrontendURL, "/") + "/tiktok/callback")
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "invalid frontend url")
		return
	}
	target.RawQuery = query.Encode()
	http.Redirect(w, r, target.String(), http.StatusFound)
}

func (h *handlers) tiktokToken(w http.ResponseWriter, r *http.Request) {
	if h.cfg.TikTok == nil {
		WriteError(w, http.StatusServiceUnavailable, "tiktok is not configured")
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" {
		WriteError(w, http.StatusBadRequest, "code is required")
		return
	}

	token, err := h.cfg.TikTok.Exchange(r.Context(), req.Code)
	if err != nil {
		h.logger.Warn("tiktok token exchange failed", "error", err)
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: "token exchange failed", Description: err.Error()})
		return
	}

	resp := TikTokTokenResponse{Data: TikTokToken{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
	}}
	resp.Data.OpenID, _ = token.Extra("open_id").(string)
	resp.Data.Scope, _ = token.Extra("scope").(string)
	if !token.Expiry.IsZero() {
		resp.Data.ExpiresIn = int64(time.Until(token.Expiry).Seconds())
	}

	WriteJSON(w, http.StatusOK, resp)
}

func (h *handlers) tiktokUserInfo(w http.ResponseWriter, r *http.Request) {
	if h.cfg.TikTok == nil {
		WriteError(w, http.StatusServiceUnavailable, "tiktok is not configured")
		return
	}

	token, err := bearerToken(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, err.Error())
		return
	}

	user, err := h.cfg.TikTok.UserInfo(r.Context(), token)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	var resp TikTokUserResponse
	resp.Data.User = *user
	WriteJSON(w, http.StatusOK, resp)
}

// videoUpload streams the "file" part of a multipart request into the media store.
func (h *handlers) videoUpload(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Media == nil {
		WriteError(w, http.StatusServiceUnavailable, "media storage is not configured")
		return
	}
	if h.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes+multipartOverhead)
	}

	reader, err := r.MultipartReader()
	if err != nil {
		WriteError(w, http.StatusBadRequest, "expected multipart form data")
		return
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			WriteError(w, http.StatusBadRequest, "file is required")
			return
		}
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}

		media, err := h.cfg.Media.Save(r.Context(), part.FileName(), part)
		part.Close()
		if err != nil {
			h.writeServiceError(w, err)
			return
		}

		if r.Context().Err() != nil {
			if err := h.cfg.Media.Remove(media.Key); err != nil {
				h.logger.Warn("failed to remove abandoned clip", "key", media.Key, "error", err)
			}
			h.logger.Info("upload abandoned by client", "key", media.Key)
			return
		}

		h.logger.Info("clip stored", "key", media.Key, "size", media.Size)
		WriteJSON(w, http.StatusCreated, UploadResponse{VideoURL: media.URL, ProjectID: media.Key})
		return
	}
}

func (h *handlers) createMovie(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Renderer == nil {
		WriteError(w, http.StatusServiceUnavailable, "rendering is not configured")
		return
	}

	var tmpl models.VideoTemplate
	if err := json.NewDecoder(r.Body).Decode(&tmpl); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(tmpl.Scenes) == 0 {
		WriteError(w, http.StatusBadRequest, "template has no scenes")
		return
	}

	project, err := h.cfg.Renderer.CreateMovie(r.Context(), tmpl)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.logger.Info("movie submitted", "project", project, "scenes", len(tmpl.Scenes))
	WriteJSON(w, http.StatusOK, MovieResponse{Project: project})
}

func (h *handlers) movieStatus(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Renderer == nil {
		WriteError(w, http.StatusServiceUnavailable, "rendering is not configured")
		return
	}

	projectID := chi.URLParam(r, "project_id")
	job, err := h.cfg.Renderer.MovieStatus(r.Context(), projectID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, StatusResponse{Status: job.Status, URL: job.URL, Message: job.Message})
}

// writeServiceError maps an upstream or storage failure onto a response.
func (h *handlers) writeServiceError(w http.ResponseWriter, err error) {
	var (
		statusErr *services.StatusError
		maxErr    *http.MaxBytesError
	)

	switch {
	case errors.As(err, &statusErr):
		h.logger.Warn("upstream rejected request", "service", statusErr.Service, "status", statusErr.StatusCode)
		WriteJSON(w, http.StatusBadGateway, ErrorResponse{Error: statusErr.Service + " rejected request", Description: statusErr.Body})
	case errors.As(err, &maxErr), errors.Is(err, storage.ErrTooLarge):
		WriteError(w, http.StatusRequestEntityTooLarge, "upload too large")
	case errors.Is(err, shared.ErrProjectNotFound):
		WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, shared.ErrRenderFailed):
		WriteError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, shared.ErrTokenExpired):
		WriteError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrValidation):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shared.ErrAPIRequest), errors.Is(err, shared.ErrParse):
		h.logger.Error("upstream request failed", "error", err)
		WriteError(w, http.StatusBadGateway, err.Error())
	default:
		h.logger.Error("request failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}

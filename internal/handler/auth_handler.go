package handler

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"

	"healthcare-portal-api/internal/auth"
	"healthcare-portal-api/internal/model"
	"healthcare-portal-api/internal/rpc"
	"healthcare-portal-api/internal/scheduler"
	"healthcare-portal-api/internal/store"
)

const minPasswordLen = 8

func (h *Handler) Register(ctx context.Context, req *rpc.RegisterRequest) (*rpc.AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || email == "" || req.Password == "" {
		return nil, statusError(codes.InvalidArgument, string(scheduler.KindMissingField), "name, email and password are required")
	}
	if len(req.Password) < minPasswordLen {
		return nil, statusError(codes.InvalidArgument, string(scheduler.KindInvalidField), "password too short")
	}

	role := model.RolePatient
	if req.Role != "" {
		role = model.Role(strings.ToLower(req.Role))
	}
	if !role.IsValid() {
		return nil, statusError(codes.InvalidArgument, string(scheduler.KindInvalidField), "unknown role")
	}
	if role != model.RolePatient && !h.staffSecretOK(req.StaffSecret) {
		return nil, statusError(codes.PermissionDenied, string(scheduler.KindNotAuthorized), "staff registration requires a valid staff secret")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.log.Error("hash password", zap.Error(err))
		return nil, statusError(codes.Internal, ReasonInternal, "internal error")
	}

	u := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         role,
	}
	if err := h.accounts.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, statusError(codes.AlreadyExists, ReasonEmailTaken, "registration failed")
		}
		h.log.Error("create user", zap.Error(err))
		return nil, statusError(codes.Internal, ReasonInternal, "internal error")
	}

	h.log.Info("user registered", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	return h.issue(ctx, u)
}

func (h *Handler) staffSecretOK(given string) bool {
	if h.staffSecret == "" || given == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(given), []byte(h.staffSecret)) == 1
}

func (h *Handler) Login(ctx context.Context, req *rpc.LoginRequest) (*rpc.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, statusError(codes.InvalidArgument, string(scheduler.KindMissingField), "email and password required")
	}

	u, err := h.accounts.UserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.log.Error("load user", zap.Error(err))
		}
		return nil, statusError(codes.Unauthenticated, ReasonInvalidCredentials, "invalid credentials")
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, statusError(codes.Unauthenticated, ReasonInvalidCredentials, "invalid credentials")
	}
	return h.issue(ctx, u)
}

// Refresh trades a live refresh token for a new pair. Presenting a revoked
// token revokes every token of its owner.
func (h *Handler) Refresh(ctx context.Context, req *rpc.RefreshRequest) (*rpc.AuthResponse, error) {
	if req.RefreshToken == "" {
		return nil, statusError(codes.InvalidArgument, string(scheduler.KindMissingField), "refreshToken required")
	}
	rt, err := h.accounts.GetRefreshTokenByHash(ctx, auth.HashRefreshToken(req.RefreshToken))
	if err != nil {
		return nil, statusError(codes.Unauthenticated, ReasonUnauthenticated, "invalid refresh token")
	}
	if rt.Revoked {
		h.log.Warn("revoked refresh token reused", zap.String("user_id", rt.UserID))
		if err := h.accounts.RevokeAllRefreshTokens(ctx, rt.UserID); err != nil {
			h.log.Error("revoke refresh tokens", zap.Error(err))
		}
		return nil, statusError(codes.Unauthenticated, ReasonUnauthenticated, "invalid refresh token")
	}
	if h.now().After(rt.ExpiresAt) {
		return nil, statusError(codes.Unauthenticated, ReasonUnauthenticated, "refresh token expired")
	}

	u, err := h.accounts.UserByID(ctx, rt.UserID)
	if err != nil {
		return nil, statusError(codes.Unauthenticated, ReasonUnauthenticated, "invalid refresh token")
	}

	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, statusError(codes.Internal, ReasonInternal, "internal error")
	}
	if err := h.accounts.RotateRefreshToken(ctx, rt.ID, uuid.New().String(), u.ID, hash, h.now().Add(h.refreshTTL)); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, statusError(codes.Unauthenticated, ReasonUnauthenticated, "invalid refresh token")
		}
		h.log.Error("rotate refresh token", zap.Error(err))
		return nil, statusError(codes.Internal, ReasonInternal, "internal error")
	}
	access, err := h.tokens.MakeToken(u.ID, u.Role)
	if err != nil {
		return nil, statusError(codes.Internal, ReasonInternal, "internal error")
	}
	return &rpc.AuthResponse{AccessToken: access, RefreshToken: raw, UserID: u.ID, Name: u.Name, Role: string(u.Role)}, nil
}

func (h *Handler) Logout(ctx context.Context, _ *rpc.LogoutRequest) (*rpc.LogoutResponse, error) {
	a, err := h.actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.accounts.RevokeAllRefreshTokens(ctx, a.ID); err != nil {
		h.log.Error("revoke refresh tokens", zap.Error(err))
		return nil, statusError(codes.Internal, ReasonInternal, "internal error")
	}
	return &rpc.LogoutResponse{}, nil
}

func (h *Handler) issue(ctx context.Context, u *model.User) (*rpc.AuthResponse, error) {
	access, err := h.tokens.MakeToken(u.ID, u.Role)
	if err != nil {
		h.log.Error("sign access token", zap.Error(err))
		return nil, statusError(codes.Internal, ReasonInternal, "internal error")
	}
	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, statusError(codes.Internal, ReasonInternal, "internal error")
	}
	if _, err := h.accounts.CreateRefreshToken(ctx, u.ID, hash, h.now().Add(h.refreshTTL)); err != nil {
		h.log.Error("store refresh token", zap.Error(err))
		return nil, statusError(codes.Internal, ReasonInternal, "internal error")
	}
	return &rpc.AuthResponse{AccessToken: access, RefreshToken: raw, UserID: u.ID, Name: u.Name, Role: string(u.Role)}, nil
}

package middleware

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"healthcare-portal-api/internal/auth"
	"healthcare-portal-api/internal/model"
	"healthcare-portal-api/internal/rpc"
)

type ctxKey string

const actorKey ctxKey = "actor"

func WithActor(ctx context.Context, a model.Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

func ActorFrom(ctx context.Context) (model.Actor, bool) {
	a, ok := ctx.Value(actorKey).(model.Actor)
	return a, ok
}

// skip auth for these
var open = map[string]bool{
	rpc.FullMethod("Register"): true,
	rpc.FullMethod("Login"):    true,
	rpc.FullMethod("Refresh"):  true,
}

// IsOpen reports whether method is callable without a token.
func IsOpen(method string) bool { return open[method] }

// BearerToken extracts the token from an "Authorization: Bearer <jwt>" value.
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// Authenticate verifies raw and returns a context carrying its Actor.
func Authenticate(ctx context.Context, tokens *auth.Issuer, raw string) (context.Context, error) {
	if raw == "" {
		return nil, status.Error(codes.Unauthenticated, "no token")
	}
	claims, err := tokens.ParseToken(raw)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "bad token")
	}
	return WithActor(ctx, claims.Actor()), nil
}

func Auth(tokens *auth.Issuer) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if open[info.FullMethod] {
			return next(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}
		raw := ""
		if vals := md.Get("authorization"); len(vals) > 0 {
			raw = BearerToken(vals[0])
		}

		ctx, err := Authenticate(ctx, tokens, raw)
		if err != nil {
			return nil, err
		}
		return next(ctx, req)
	}
}

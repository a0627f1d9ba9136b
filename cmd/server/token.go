package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/hotel-ops-api/internal/config"
	"github.com/phrazzld/hotel-ops-api/internal/domain"
	"github.com/phrazzld/hotel-ops-api/internal/platform/clock"
	"github.com/phrazzld/hotel-ops-api/internal/service/auth"
)

// parseActorSpec parses "role" or "role:uuid". A missing id gets a fresh
// random one.
func parseActorSpec(spec string) (domain.Actor, error) {
	rawRole, rawID, hasID := strings.Cut(strings.TrimSpace(spec), ":")
	role := domain.Role(strings.ToLower(rawRole))
	if !role.Valid() || role == domain.RoleSystem {
		return domain.Actor{}, fmt.Errorf("unknown role %q", rawRole)
	}

	id := uuid.New()
	if hasID {
		parsed, err := uuid.Parse(rawID)
		if err != nil {
			return domain.Actor{}, fmt.Errorf("invalid actor id %q: %w", rawID, err)
		}
		id = parsed
	}
	return domain.Actor{ID: id, Role: role}, nil
}

// issueDevToken signs a token for the actor described by spec with the
// configured secret, for local testing against a running server.
func issueDevToken(ctx context.Context, cfg config.AuthConfig, spec string) (string, error) {
	actor, err := parseActorSpec(spec)
	if err != nil {
		return "", err
	}
	tokens, err := auth.NewTokenService(cfg, clock.Real())
	if err != nil {
		return "", fmt.Errorf("failed to initialize token service: %w", err)
	}
	return tokens.IssueToken(ctx, actor)
}

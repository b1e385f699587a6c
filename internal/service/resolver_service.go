package service

import (
	"context"
	"errors"
	"regexp"

	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/cache"
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/repository"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsUUID reports whether s is a syntactically valid UUID.
func IsUUID(s string) bool {
	return uuidPattern.MatchString(s)
}

// ResolverService maps a loosely-typed identifier (UUID, email or external
// auth UID) to the canonical user UUID. Resolutions are cached briefly;
// the cache is invalidated only by explicit external-ID linking.
type ResolverService interface {
	// Resolve returns the canonical UUID or a NotFoundError.
	Resolve(ctx context.Context, identifier string) (string, error)
	// ResolveOptional returns "" when the identifier is unknown, for flows
	// that degrade gracefully.
	ResolveOptional(ctx context.Context, identifier string) string
	// Invalidate drops the cached resolutions for the given identifiers.
	Invalidate(ctx context.Context, identifiers ...string)
}

type resolverService struct {
	users  repository.UserRepository
	cache  cache.Store
	logger *logrus.Logger
}

// NewResolverService creates an identifier resolver.
func NewResolverService(users repository.UserRepository, store cache.Store, logger *logrus.Logger) ResolverService {
	return &resolverService{users: users, cache: store, logger: logger}
}

func (s *resolverService) Resolve(ctx context.Context, identifier string) (string, error) {
	if identifier == "" {
		return "", &NotFoundError{MessageKey: "error.user_not_found", Detail: "empty identifier"}
	}

	key := cache.ResolveKey(identifier)
	if id, ok := s.cache.Get(ctx, key); ok {
		return id, nil
	}

	profile, err := s.users.ResolveIdentifier(identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", &NotFoundError{MessageKey: "error.user_not_found", Detail: "user not found: " + identifier}
		}
		return "", err
	}

	s.cache.Set(ctx, key, profile.ID, cache.ResolveTTL)
	return profile.ID, nil
}

func (s *resolverService) ResolveOptional(ctx context.Context, identifier string) string {
	id, err := s.Resolve(ctx, identifier)
	if err != nil {
		var notFound *NotFoundError
		if !errors.As(err, &notFound) {
			s.logger.WithError(err).WithField("identifier", identifier).Warn("identifier resolution failed")
		}
		return ""
	}
	return id
}

func (s *resolverService) Invalidate(ctx context.Context, identifiers ...string) {
	keys := make([]string, 0, len(identifiers))
	for _, identifier := range identifiers {
		if identifier == "" {
			continue
		}
		keys = append(keys, cache.ResolveKey(identifier))
	}
	s.cache.Delete(ctx, keys...)
}

package minify

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/sitepub/internal/catalog"
	foundationerrors "git.home.luguber.info/inful/sitepub/internal/foundation/errors"
)

// Minifier turns raw markup, stylesheet or script text into its minified form.
// Implementations return a service-category error when the input is rejected
// or the backend is unreachable.
type Minifier interface {
	Minify(ctx context.Context, kind catalog.Kind, src []byte) (string, error)
}

// Backend selects a Minifier implementation.
type Backend string

const (
	BackendRemote Backend = "remote"
	BackendLocal  Backend = "local"
	BackendNone   Backend = "none"
)

// New returns the Minifier for backend.
func New(backend Backend, remote RemoteConfig) (Minifier, error) {
	switch backend {
	case BackendRemote, "":
		return NewRemote(remote), nil
	case BackendLocal:
		return NewLocal(), nil
	case BackendNone:
		return Passthrough{}, nil
	default:
		return nil, foundationerrors.ConfigError(fmt.Sprintf("unknown minify backend %q", backend)).Build()
	}
}

func unsupportedKind(kind catalog.Kind) error {
	return foundationerrors.ValidationError("artifact kind cannot be minified").
		WithContext("kind", string(kind)).
		Build()
}

// Passthrough returns its input unchanged.
type Passthrough struct{}

func (Passthrough) Minify(_ context.Context, kind catalog.Kind, src []byte) (string, error) {
	if !kind.Minifiable() {
		return "", unsupportedKind(kind)
	}
	return string(src), nil
}

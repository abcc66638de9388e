package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	foundationerrors "git.home.luguber.info/inful/sitepub/internal/foundation/errors"
)

// Validate checks a configuration after defaults were applied. Catalog rows
// are checked in depth by catalog.New, which also needs the filesystem.
func Validate(cfg *Config) error {
	v := &validator{cfg: cfg}
	for _, check := range []func() error{
		v.validateCatalog,
		v.validateMinify,
		v.validateCompress,
		v.validatePublish,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

type validator struct {
	cfg *Config
}

func invalid(field, message string, value any) error {
	return foundationerrors.ConfigError(message).
		WithContext("field", field).
		WithContext("value", fmt.Sprint(value)).
		Build()
}

func (v *validator) validateCatalog() error {
	if len(v.cfg.Catalog) == 0 {
		return foundationerrors.ConfigError("catalog lists no artifacts").
			WithContext("field", "catalog").
			Build()
	}
	return nil
}

func (v *validator) validateMinify() error {
	m := v.cfg.Minify
	if !minifyBackends.valid(m.Backend) {
		return invalid("minify.backend", "unknown minify backend, valid: "+strings.Join(minifyBackends.options(), ", "), m.Backend)
	}
	m.Backend = minifyBackends.normalize(string(m.Backend))
	v.cfg.Minify.Backend = m.Backend

	if m.Backend == MinifyBackendRemote {
		for field, endpoint := range map[string]string{
			"minify.endpoints.markup": m.Endpoints.Markup,
			"minify.endpoints.style":  m.Endpoints.Style,
			"minify.endpoints.script": m.Endpoints.Script,
		} {
			if endpoint == "" {
				continue
			}
			u, err := url.Parse(endpoint)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return invalid(field, "minify endpoint must be an http(s) URL", endpoint)
			}
		}
	}
	if m.Timeout != "" {
		d, err := time.ParseDuration(m.Timeout)
		if err != nil || d <= 0 {
			return invalid("minify.timeout", "minify timeout must be a positive duration", m.Timeout)
		}
	}
	return nil
}

func (v *validator) validateCompress() error {
	c := v.cfg.Compress
	if c.Level < 1 || c.Level > 9 {
		return invalid("compress.level", "compression level must be between 1 and 9", c.Level)
	}
	if !strings.HasPrefix(c.Suffix, ".") || len(c.Suffix) < 2 || strings.ContainsAny(c.Suffix, `/\`) {
		return invalid("compress.suffix", "compressed suffix must look like \".gz\"", c.Suffix)
	}
	return nil
}

func (v *validator) validatePublish() error {
	p := v.cfg.Publish
	if !publishBackends.valid(p.Backend) {
		return invalid("publish.backend", "unknown publish backend, valid: "+strings.Join(publishBackends.options(), ", "), p.Backend)
	}
	v.cfg.Publish.Backend = publishBackends.normalize(string(p.Backend))

	if strings.TrimSpace(p.Branch) == "" || strings.ContainsAny(p.Branch, " \t~^:?*[\\") || strings.HasPrefix(p.Branch, "-") {
		return invalid("publish.branch", "publish branch is not a valid branch name", p.Branch)
	}
	for _, pattern := range p.Purge {
		if strings.ContainsAny(pattern, `/\`) {
			return invalid("publish.purge", "purge patterns apply to top-level files only", pattern)
		}
		if _, err := filepath.Match(pattern, ""); err != nil {
			return invalid("publish.purge", "invalid purge pattern", pattern)
		}
	}
	return nil
}

// MinifyTimeout returns the parsed minify timeout; zero means none.
func (c *Config) MinifyTimeout() time.Duration {
	d, err := time.ParseDuration(c.Minify.Timeout)
	if err != nil {
		return 0
	}
	return d
}

package build

import (
	"context"
	"os"
	"slices"

	"git.home.luguber.info/inful/sitepub/internal/catalog"
	foundationerrors "git.home.luguber.info/inful/sitepub/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepub/internal/logfields"
	"git.home.luguber.info/inful/sitepub/internal/observability"
	"git.home.luguber.info/inful/sitepub/internal/transform"
)

func stagePrepareBuildDir(_ context.Context, bs *buildState) error {
	return bs.dir.Recreate()
}

func stageConvert(ctx context.Context, bs *buildState) error {
	for _, st := range bs.artifacts {
		a := st.artifact
		if a.Kind != catalog.KindDocument {
			continue
		}
		src, err := bs.readSource(a)
		if err != nil {
			return err
		}
		out, err := bs.svc.converter.Convert(string(src), a.Name)
		if err != nil {
			return withArtifact(err, a, foundationerrors.CategoryConversion)
		}
		if err := bs.write(st, []byte(out)); err != nil {
			return err
		}
		observability.DebugContext(ctx, "Converted document", logfields.Artifact(a.Name), logfields.Path(st.path))
	}
	return nil
}

func stageMinify(ctx context.Context, bs *buildState) error {
	for _, st := range bs.artifacts {
		a := st.artifact
		if !a.Kind.Minifiable() {
			continue
		}
		src, err := bs.readSource(a)
		if err != nil {
			return err
		}
		out := src
		if a.Minify {
			minified, err := bs.svc.minifier.Minify(ctx, a.Kind, src)
			if err != nil {
				return withArtifact(err, a, foundationerrors.CategoryService)
			}
			out = []byte(minified)
		}
		if err := bs.write(st, out); err != nil {
			return err
		}
		observability.DebugContext(ctx, "Placed artifact",
			logfields.Artifact(a.Name),
			logfields.Kind(string(a.Kind)),
			logfields.Bytes(len(out)))
	}
	return nil
}

func stageInline(ctx context.Context, bs *buildState) error {
	if bs.primary == nil {
		observability.DebugContext(ctx, "No primary markup artifact; skipping inline")
		return nil
	}
	res, err := transform.InlineAssets(bs.dir.Path(), bs.primary.artifact.Output)
	if err != nil {
		return withArtifact(err, bs.primary.artifact, foundationerrors.CategoryReference)
	}
	for _, st := range bs.artifacts {
		if st != bs.primary && st.path != "" && slices.Contains(res.Inlined, st.artifact.Output) {
			st.inlined = true
			st.path = ""
		}
	}
	bs.inlined = res.Inlined
	for _, name := range res.Inlined {
		if err := bs.dir.Remove(name); err != nil {
			return err
		}
	}

	markup, err := os.ReadFile(bs.primary.path)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to read inlined markup").
			WithContext("artifact", bs.primary.artifact.Name).
			Build()
	}
	if err := transform.VerifyInlined(markup, res.Inlined); err != nil {
		return withArtifact(err, bs.primary.artifact, foundationerrors.CategoryReference)
	}
	observability.InfoContext(ctx, "Inlined assets", logfields.Artifact(bs.primary.artifact.Name))
	return nil
}

func stageAnnotate(_ context.Context, bs *buildState) error {
	if bs.primary == nil {
		return nil
	}
	comment := transform.ProvenanceComment(bs.svc.opts.SourceURL)
	if err := transform.Annotate(bs.primary.path, comment); err != nil {
		return withArtifact(err, bs.primary.artifact, foundationerrors.CategoryFileSystem)
	}
	return nil
}

func stageCompress(_ context.Context, bs *buildState) error {
	for _, st := range bs.live() {
		target, err := transform.Compress(st.path, bs.svc.opts.CompressSuffix, bs.svc.opts.CompressLevel)
		if err != nil {
			return withArtifact(err, st.artifact, foundationerrors.CategoryFileSystem)
		}
		st.compressed = target
		bs.svc.recordSizes(st)
	}
	return nil
}

func (bs *buildState) readSource(a catalog.Artifact) ([]byte, error) {
	path := bs.svc.catalog.SourcePath(a)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to read artifact source").
			WithContext("artifact", a.Name).
			WithContext("path", path).
			Build()
	}
	return data, nil
}

func (bs *buildState) write(st *artifactState, data []byte) error {
	if err := bs.dir.WriteFile(st.artifact.Output, data); err != nil {
		return withArtifact(err, st.artifact, foundationerrors.CategoryFileSystem)
	}
	st.path = bs.dir.Join(st.artifact.Output)
	return nil
}

// withArtifact tags err with the artifact name, classifying it under
// fallback when it is not classified yet.
func withArtifact(err error, a catalog.Artifact, fallback foundationerrors.ErrorCategory) error {
	if ce, ok := foundationerrors.AsClassified(err); ok {
		return ce.WithContext("artifact", a.Name)
	}
	return foundationerrors.WrapError(err, fallback, "artifact processing failed").
		WithSeverity(foundationerrors.SeverityFatal).
		WithContext("artifact", a.Name).
		Build()
}

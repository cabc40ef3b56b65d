package steps

import (
	"github.com/tauri-apps/upstream-bot/internal/core/pipeline"
)

// RegisterAll registers all built-in steps with the registry.
func RegisterAll(r *pipeline.Registry) {
	r.Register("command_parser", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewCommandParser(deps), nil
	})

	r.Register("gatekeeper", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewGatekeeper(deps), nil
	})

	r.Register("mirror_creator", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewMirrorCreator(deps), nil
	})

	r.Register("upstreamed_commenter", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewUpstreamedCommenter(deps), nil
	})

	r.Register("upstream_labeler", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewUpstreamLabeler(deps), nil
	})

	r.Register("mirror_detector", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewMirrorDetector(deps), nil
	})

	r.Register("original_resolver", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewOriginalResolver(deps), nil
	})

	r.Register("resolved_commenter", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewResolvedCommenter(deps), nil
	})

	r.Register("resolved_labeler", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewResolvedLabeler(deps), nil
	})

	r.Register("upstream_unlabeler", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewUpstreamUnlabeler(deps), nil
	})
}

package observers

import (
	einocb "github.com/cloudwego/eino/callbacks"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"
)

// NewPipelineCallbacks aggregates the observer handlers the companion
// pipeline emits into one callbacks.Handler. Prompt renders are the only
// component events here; the responder nodes log their own outcomes.
func NewPipelineCallbacks() einocb.Handler {
	return callbackHelper.NewHandlerHelper().
		Prompt(newPromptHandler()).
		Handler()
}

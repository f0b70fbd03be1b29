package handlers

import (
	"net/http"

	"github.com/nikhilbhutani/audiobrief/internal/llm"
)

// ModelLister reports the text-generation models the summarizer can use.
// llm.Gateway implements it.
type ModelLister interface {
	ListModels() []llm.ModelInfo
}

type LLMHandler struct {
	models ModelLister
}

func NewLLMHandler(models ModelLister) *LLMHandler {
	return &LLMHandler{models: models}
}

func (h *LLMHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	models := h.models.ListModels()
	if models == nil {
		models = []llm.ModelInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"models": models})
}

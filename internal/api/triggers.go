package api

import (
	"net/http"

	"github.com/tinkeringguild/logquest-go/internal/index"
	"github.com/tinkeringguild/logquest-go/internal/triggers"
)

// TriggersHandler serves a read-only snapshot of the trigger index.
type TriggersHandler struct {
	idx *index.Index
}

func NewTriggersHandler(idx *index.Index) *TriggersHandler {
	return &TriggersHandler{idx: idx}
}

// triggersResponse is the body of GET /triggers: every group and trigger
// currently loaded, flat — the client reconstructs the forest from
// TriggerGroup.Children/Trigger.ParentID, same as the on-disk format.
type triggersResponse struct {
	Groups   []*triggers.TriggerGroup `json:"groups"`
	Triggers []*triggers.Trigger     `json:"triggers"`
}

// ServeHTTP handles GET /triggers.
func (h *TriggersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := triggersResponse{
		Groups:   h.idx.AllGroups(),
		Triggers: h.idx.AllTriggers(),
	}
	WriteJSON(w, http.StatusOK, resp)
}

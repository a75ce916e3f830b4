package routehandlers

import (
	"net/http"

	"github.com/coreybb/dailybrief/catalog"
	"github.com/coreybb/dailybrief/webutil"
)

type SourceHandler struct{}

func NewSourceHandler() *SourceHandler {
	return &SourceHandler{}
}

// HandleGetSources lists the source catalog so a UI can show the menu of
// named sources. GET /api/sources
func (h *SourceHandler) HandleGetSources(w http.ResponseWriter, r *http.Request) error {
	webutil.RespondWithJSON(w, http.StatusOK, catalog.All())
	return nil
}

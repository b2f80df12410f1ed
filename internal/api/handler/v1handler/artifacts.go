package v1handler

import (
	"loanapproval/pkg/serrors"
	"net/http"

	"github.com/go-faster/jx"
)

// GetCurrentArtifact describes the artifact predictions are served with.
func (h Handler) GetCurrentArtifact(w http.ResponseWriter, r *http.Request) {
	a := h.deps.Predictor.Current()
	if a == nil {
		h.WriteError(w, r, serrors.With(serrors.ErrNotFound, "no artifact has been loaded yet"))

		return
	}

	var e jx.Encoder
	encodeArtifact(&e, a)
	writeJSON(w, http.StatusOK, &e)
}

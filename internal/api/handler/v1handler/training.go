package v1handler

import (
	"cmp"
	"loanapproval/pkg/logger"
	"loanapproval/pkg/serrors"
	"net/http"

	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

// decodeTrainingRun reads the optional {"dataset": "..."} request body.
func decodeTrainingRun(b []byte) (string, error) {
	if len(b) == 0 {
		return "", nil
	}

	var dataset string
	err := jx.DecodeBytes(b).ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != "dataset" {
			return serrors.Field(serrors.ErrBadRequest, string(key), "unknown field %q", string(key))
		}
		s, err := d.Str()
		if err != nil {
			return serrors.Wrap(serrors.ErrBadRequest, err, "dataset must be a string")
		}
		dataset = s

		return nil
	})
	if err != nil {
		if serrors.KindOf(err) != nil {
			return "", err
		}

		return "", serrors.Wrap(serrors.ErrBadRequest, err, "invalid JSON body")
	}

	return dataset, nil
}

// CreateTrainingRun queues a background training run. Identical runs that
// are still pending are not queued twice.
func (h Handler) CreateTrainingRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.deps.Trainer == nil {
		h.WriteError(w, r, serrors.With(serrors.ErrUnavailable, "training runs cannot be queued by this server"))

		return
	}

	b, err := h.readBody(w, r)
	if err != nil {
		h.WriteError(w, r, err)

		return
	}
	dataset, err := decodeTrainingRun(b)
	if err != nil {
		h.WriteError(w, r, decodeRequestError(r, err))

		return
	}
	dataset = cmp.Or(dataset, h.deps.Dataset)

	enqueued, err := h.deps.Trainer.Enqueue(ctx, dataset)
	if err != nil {
		h.WriteError(w, r, err)

		return
	}
	logger.Info(ctx, "training run requested",
		zap.String("dataset", dataset),
		zap.Bool("enqueued", enqueued),
		zap.String("subject", GetSubjectFromContext(ctx)))

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("dataset", func(e *jx.Encoder) { e.Str(dataset) })
		e.Field("enqueued", func(e *jx.Encoder) { e.Bool(enqueued) })
	})
	writeJSON(w, http.StatusAccepted, &e)
}

package v1handler

import (
	"loanapproval/pkg/controller"
	"loanapproval/pkg/logger"
	"net/http"

	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

// CreatePrediction classifies the applicant in the request body with the
// served artifact.
func (h Handler) CreatePrediction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	b, err := h.readBody(w, r)
	if err != nil {
		h.WriteError(w, r, err)

		return
	}
	record, err := DecodeRecord(b)
	if err != nil {
		h.WriteError(w, r, decodeRequestError(r, err))

		return
	}

	p, err := h.deps.Predictor.Predict(ctx, record)
	if err != nil {
		h.WriteError(w, r, err)

		return
	}
	logger.Debug(ctx, "prediction served",
		zap.Stringer("artifactID", p.ArtifactID),
		zap.String("decision", p.Decision()),
		zap.Int("diagnostics", len(p.Diagnostics)))

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("artifact_id", func(e *jx.Encoder) { e.Str(p.ArtifactID.String()) })
		e.Field("decision", func(e *jx.Encoder) { e.Str(p.Decision()) })
		e.Field("label", func(e *jx.Encoder) { e.Int(int(p.Label)) })
		e.Field("probability", func(e *jx.Encoder) { e.Float64(p.Probability) })
		e.Field("fraud_flag", func(e *jx.Encoder) { e.Bool(p.FraudFlag) })
		e.Field("first_time_applicant", func(e *jx.Encoder) { e.Bool(p.FirstTimeApplicant) })
		e.Field("features", func(e *jx.Encoder) { encodeVector(e, p.Vector) })
		e.Field("diagnostics", func(e *jx.Encoder) { encodeDiagnostics(e, p.Diagnostics) })
		e.Field("request_id", func(e *jx.Encoder) { e.Str(controller.RequestID(ctx)) })
	})
	writeJSON(w, http.StatusOK, &e)
}

// CreateFeatures returns the feature vector of the applicant in the request
// body without classifying it.
func (h Handler) CreateFeatures(w http.ResponseWriter, r *http.Request) {
	b, err := h.readBody(w, r)
	if err != nil {
		h.WriteError(w, r, err)

		return
	}
	record, err := DecodeRecord(b)
	if err != nil {
		h.WriteError(w, r, decodeRequestError(r, err))

		return
	}

	f, err := h.deps.Predictor.Features(r.Context(), record)
	if err != nil {
		h.WriteError(w, r, err)

		return
	}

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("artifact_id", func(e *jx.Encoder) { e.Str(f.ArtifactID.String()) })
		e.Field("fraud_flag", func(e *jx.Encoder) { e.Bool(f.FraudFlag) })
		e.Field("first_time_applicant", func(e *jx.Encoder) { e.Bool(f.FirstTimeApplicant) })
		e.Field("features", func(e *jx.Encoder) { encodeVector(e, f.Vector) })
		e.Field("diagnostics", func(e *jx.Encoder) { encodeDiagnostics(e, f.Diagnostics) })
	})
	writeJSON(w, http.StatusOK, &e)
}

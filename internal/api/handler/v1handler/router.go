package v1handler

import (
	"context"
	"loanapproval/pkg/serrors"
	"mime"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/ogen-go/ogen/ogenerrors"
	"github.com/ogen-go/ogen/validate"
)

// OperationName is the name of a v1 operation, as declared in specs/v1.yaml.
type OperationName = string

const (
	CreatePredictionOperation   OperationName = "CreatePrediction"
	CreateFeaturesOperation     OperationName = "CreateFeatures"
	GetCurrentArtifactOperation OperationName = "GetCurrentArtifact"
	CreateTrainingRunOperation  OperationName = "CreateTrainingRun"
)

type operationKey struct{}

type route struct {
	method    string
	operation ogenerrors.OperationContext
	handle    http.HandlerFunc
}

// Routes returns the v1 router. Requests for a known path with another method
// answer 405 with an Allow header, unknown paths answer 404.
func (h *Handler) Routes() http.Handler {
	routes := map[string]route{
		"/v1/predictions": {
			method:    http.MethodPost,
			operation: ogenerrors.OperationContext{Name: CreatePredictionOperation, ID: "createPrediction"},
			handle:    h.CreatePrediction,
		},
		"/v1/features": {
			method:    http.MethodPost,
			operation: ogenerrors.OperationContext{Name: CreateFeaturesOperation, ID: "createFeatures"},
			handle:    h.CreateFeatures,
		},
		"/v1/artifacts/current": {
			method:    http.MethodGet,
			operation: ogenerrors.OperationContext{Name: GetCurrentArtifactOperation, ID: "getCurrentArtifact"},
			handle:    h.GetCurrentArtifact,
		},
		"/v1/training-runs": {
			method:    http.MethodPost,
			operation: ogenerrors.OperationContext{Name: CreateTrainingRunOperation, ID: "createTrainingRun"},
			handle:    h.CreateTrainingRun,
		},
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rt, ok := routes[strings.TrimSuffix(r.URL.Path, "/")]
		if !ok {
			h.WriteError(w, r, serrors.With(serrors.ErrNotFound, "no route for %s", r.URL.Path))

			return
		}
		if r.Method != rt.method {
			w.Header().Set("Allow", rt.method)
			h.writeResponse(w, &ErrorStatusCode{
				StatusCode: http.StatusMethodNotAllowed,
				Response:   Error{Code: "METHOD_NOT_ALLOWED", Message: "method " + r.Method + " is not allowed"},
			})

			return
		}

		rt.handle(w, r.WithContext(context.WithValue(r.Context(), operationKey{}, rt.operation)))
	})
}

// Operation returns the operation the request in ctx was routed to.
func Operation(ctx context.Context) (ogenerrors.OperationContext, bool) {
	op, ok := ctx.Value(operationKey{}).(ogenerrors.OperationContext)

	return op, ok
}

// checkContentType accepts JSON bodies. A request without a Content-Type
// header is read as JSON.
func checkContentType(r *http.Request) error {
	header := r.Header.Get("Content-Type")
	if header == "" {
		return nil
	}

	ct, _, err := mime.ParseMediaType(header)
	if err != nil {
		return errors.Wrap(err, "parse media type")
	}
	if ct != "application/json" {
		return validate.InvalidContentType(ct)
	}

	return nil
}

// decodeRequestError attaches the operation of r to a request decoding error.
func decodeRequestError(r *http.Request, err error) error {
	op, _ := Operation(r.Context())

	return &ogenerrors.DecodeRequestError{OperationContext: op, Err: err}
}

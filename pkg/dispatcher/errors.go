package dispatcher

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/codeready-toolchain/calm/pkg/calmerr"
)

// errorBody is the wire shape every failed operation returns (spec.md §6):
// `{"error":{"type":…,"message":…}}`, never a bare stack trace.
type errorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func newErrorBody(kind calmerr.Kind, message string) errorBody {
	var body errorBody
	body.Error.Type = string(kind)
	body.Error.Message = message
	return body
}

func unknownOperationError(name string) error {
	return calmerr.NotFoundf("unknown operation %q", name)
}

// statusForKind maps a calmerr.Kind to the HTTP status the gin router
// returns: error kind maps to status code, and unexpected errors are
// logged server-side and never echoed to the caller.
func statusForKind(kind calmerr.Kind) int {
	switch kind {
	case calmerr.KindValidation:
		return http.StatusBadRequest
	case calmerr.KindNotFound:
		return http.StatusNotFound
	case calmerr.KindInvalidState:
		return http.StatusConflict
	case calmerr.KindEmptyCluster, calmerr.KindInsufficientData:
		return http.StatusUnprocessableEntity
	case calmerr.KindDimensionMismatch:
		return http.StatusBadRequest
	case calmerr.KindStoreError, calmerr.KindEmbedError:
		return http.StatusServiceUnavailable
	case calmerr.KindCorruptState:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// mapOperationError turns an operation's returned error into an HTTP status
// and an errorBody. Unrecognized error shapes are logged with full detail
// and surfaced to the caller only as a generic internal error, per spec.md
// §7's propagation policy.
func mapOperationError(err error) (int, errorBody) {
	var calmErr *calmerr.Error
	if errors.As(err, &calmErr) {
		return statusForKind(calmErr.Kind), newErrorBody(calmErr.Kind, calmErr.Message)
	}

	slog.Error("unrecognized dispatcher error", "error", err)
	return http.StatusInternalServerError, newErrorBody(calmerr.KindStoreError, "internal error")
}

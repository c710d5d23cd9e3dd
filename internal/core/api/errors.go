package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/solatis/tripwire/internal/condition"
	"github.com/solatis/tripwire/internal/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// errInvalidRequest marks requests rejected before reaching the engine.
var errInvalidRequest = errors.New("invalid request")

// Error mapping shared by both transports:
//   - malformed conditions, limits and bad requests -> INVALID_ARGUMENT / 400
//   - unknown rule ids -> NOT_FOUND / 404
//   - context timeouts -> DEADLINE_EXCEEDED / 504
//   - everything else is a store failure -> UNAVAILABLE / 503
func classify(err error) codes.Code {
	var lexErr *condition.LexError
	var parseErr *condition.ParseError

	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, types.ErrRuleNotFound):
		return codes.NotFound
	case errors.As(err, &lexErr), errors.As(err, &parseErr),
		errors.Is(err, errInvalidRequest),
		errors.Is(err, types.ErrEmptyCondition),
		errors.Is(err, types.ErrConditionTooLong),
		errors.Is(err, types.ErrEmptyAction),
		errors.Is(err, types.ErrActionTooLong),
		errors.Is(err, types.ErrBatchTooLarge):
		return codes.InvalidArgument
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	default:
		return codes.Unavailable
	}
}

func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(classify(err), err.Error())
}

func httpStatus(err error) int {
	switch classify(err) {
	case codes.NotFound:
		return http.StatusNotFound
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Canceled:
		// nginx convention for client closed request
		return 499
	default:
		return http.StatusServiceUnavailable
	}
}

package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"montecarlo-forecast/internal/api/models"
	"montecarlo-forecast/internal/data"
	"montecarlo-forecast/internal/model"

	"github.com/gin-gonic/gin"
)

func badRequest(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// respondError maps domain errors to status codes and error codes.
func respondError(c *gin.Context, err error) {
	var (
		status  = http.StatusInternalServerError
		code    = "INTERNAL_ERROR"
		details map[string]interface{}
	)

	var (
		reqErr       *requestError
		insufficient *model.InsufficientDataError
		invalid      *model.InvalidParameterError
		edgarErr     *data.EdgarError
	)
	switch {
	case errors.As(err, &reqErr):
		status, code = http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, data.ErrInvalidIdentifier):
		status, code = http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, errNoStore):
		status, code = http.StatusServiceUnavailable, "NO_DATABASE"
	case errors.As(err, &insufficient):
		status, code = http.StatusUnprocessableEntity, "INSUFFICIENT_DATA"
		details = map[string]interface{}{
			"points":   insufficient.Points,
			"returns":  insufficient.Returns,
			"required": insufficient.Required,
		}
	case errors.As(err, &invalid):
		status, code = http.StatusBadRequest, "INVALID_PARAMETER"
		details = map[string]interface{}{"field": invalid.Field}
	case errors.Is(err, model.ErrEmptyResult):
		status, code = http.StatusUnprocessableEntity, "EMPTY_RESULT"
	case errors.As(err, &edgarErr):
		status, code = http.StatusBadGateway, edgarErr.Code
		switch edgarErr.StatusCode {
		case http.StatusNotFound:
			status = http.StatusNotFound
		case http.StatusTooManyRequests:
			status = http.StatusTooManyRequests
		case 0:
			status = http.StatusBadRequest
		}
		details = map[string]interface{}{
			"status_code": edgarErr.StatusCode,
			"retry_after": edgarErr.RetryAfter,
		}
	case errors.Is(err, data.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusServiceUnavailable, "CANCELLED"
	}

	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: err.Error(),
			Details: details,
		},
	})
}

// SeriesStore is the read side of the metric database used by handlers.
type SeriesStore interface {
	LoadSeries(ctx context.Context, table, ticker, metric string) (model.HistoricalSeries, error)
	ListMetrics(ctx context.Context, table string) ([]string, error)
	ListTickers(ctx context.Context, table string) ([]string, error)
	ListSectors(ctx context.Context, table string) ([]string, error)
	LoadMetrics(ctx context.Context, table, ticker string, limit int) (map[string][]float64, error)
	LoadSectorValues(ctx context.Context, table, sector, metric string, year int) (map[string]float64, error)
}

var errNoStore = errors.New("no series database configured")

func requireStore(c *gin.Context, store SeriesStore) bool {
	if store != nil {
		return true
	}
	respondError(c, errNoStore)
	return false
}

// requestError is a semantically invalid request body or query.
type requestError struct{ msg string }

func (e *requestError) Error() string { return e.msg }

func invalidRequest(format string, args ...interface{}) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

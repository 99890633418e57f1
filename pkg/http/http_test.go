package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Pair      string   `query:"pair" json:"pair" validate:"required,len=6,alpha"`
	Precision int      `query:"precision" json:"precision" default:"4" validate:"gte=0,lte=10"`
	Tenors    []string `query:"tenors" json:"tenors" validate:"omitempty,dive,oneof=3m 6m"`
	Format    string   `query:"format" json:"format" default:"json" validate:"oneof=json csv"`
}

func newContext(target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestReadAndValidateRequestDefaults(t *testing.T) {
	c, _ := newContext("/?pair=EURUSD&tenors=3m&tenors=6m")
	req := &sampleRequest{}
	require.Empty(t, ReadAndValidateRequest(c, req))
	assert.Equal(t, 4, req.Precision)
	assert.Equal(t, "json", req.Format)
	assert.Equal(t, []string{"3m", "6m"}, req.Tenors)
}

func TestReadAndValidateRequestErrors(t *testing.T) {
	c, _ := newContext("/?pair=EUR&precision=11&tenors=9m")
	errs := ReadAndValidateRequest(c, &sampleRequest{})
	require.Len(t, errs, 3)

	byField := map[string]ValidationError{}
	for _, e := range errs {
		byField[e.Field] = e
	}
	assert.Equal(t, "ERR_LEN", byField["pair"].Code)
	assert.Equal(t, "pair must be exactly 6 characters", byField["pair"].Message)
	assert.Equal(t, "ERR_LTE", byField["precision"].Code)
	assert.Equal(t, "10", byField["precision"].Params["max"])
	assert.Equal(t, "ERR_ONEOF", byField["tenors[0]"].Code)
}

func TestValidateWithoutContext(t *testing.T) {
	assert.Empty(t, Validate(&sampleRequest{Pair: "GBPUSD"}))

	errs := Validate(&sampleRequest{})
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_REQUIRED", errs[0].Code)
	assert.Equal(t, "pair is required", errs[0].Message)
}

func TestAppErrorResponse(t *testing.T) {
	c, rec := newContext("/")
	cause := errors.New("no rows")
	err := fmt.Errorf("handler: %w", NotFoundError("no history").WithError(cause))

	require.NoError(t, AppErrorResponse(c, err))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body struct {
		Status int        `json:"status"`
		Data   []AppError `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusNotFound, body.Status)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "ERR_NOT_FOUND", body.Data[0].Code)
	assert.Equal(t, "no history", body.Data[0].Message)
	assert.ErrorIs(t, err, cause)
}

func TestAppErrorResponseUnknownIs500(t *testing.T) {
	c, rec := newContext("/")
	require.NoError(t, AppErrorResponse(c, errors.New("boom")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCSVResponse(t *testing.T) {
	c, rec := newContext("/")
	require.NoError(t, CSVResponse(c, "cone.csv", [][]string{{"Date", "95th"}, {"2024-01-02", "1.1"}}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, `attachment; filename="cone.csv"`, rec.Header().Get(echo.HeaderContentDisposition))
	assert.Equal(t, "Date,95th\n2024-01-02,1.1\n", rec.Body.String())
}

func TestStatusErrorRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&StatusError{Code: http.StatusTooManyRequests}))
	assert.True(t, IsRetryable(fmt.Errorf("wrap: %w", &StatusError{Code: http.StatusBadGateway})))
	assert.False(t, IsRetryable(&StatusError{Code: http.StatusBadRequest}))
	assert.True(t, IsRetryable(errors.New("connection reset")))
	assert.False(t, IsRetryable(nil))
}

func TestAppErrorParams(t *testing.T) {
	e := BadRequestError("bad tenor").WithParam("tenor", "5m")
	assert.Equal(t, "5m", e.Params["tenor"])
	assert.Equal(t, http.StatusBadRequest, e.Status)
	assert.Equal(t, "bad tenor", e.Error())
}

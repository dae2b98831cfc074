package controllers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"parkwatch-be/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespondError(t *testing.T) {
	t.Parallel()

	h := &Handlers{Logger: zap.NewNop()}
	tests := []struct {
		err  error
		code int
		body string
	}{
		{services.ValidationError("bad input"), http.StatusBadRequest, `{"error":"bad input"}`},
		{services.PermissionError("nope"), http.StatusForbidden, `{"error":"nope"}`},
		{services.InvalidStateError("already approved"), http.StatusConflict, `{"error":"already approved"}`},
		{services.NotFoundError("report not found"), http.StatusNotFound, `{"error":"report not found"}`},
		{services.ConflictError("retry"), http.StatusConflict, `{"error":"retry"}`},
		{services.ErrUnauthenticated, http.StatusUnauthorized, `{"error":"unauthenticated"}`},
		{errors.New("connection reset"), http.StatusInternalServerError, `{"error":"Something went wrong"}`},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		h.respondError(c, tt.err)
		assert.Equal(t, tt.code, w.Code, tt.err.Error())
		assert.JSONEq(t, tt.body, w.Body.String())
	}
}

func formContext(values url.Values) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	c.Request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c
}

func TestParseViolations(t *testing.T) {
	t.Parallel()

	v, ok := parseViolations([]string{"no parking", "double parking"}, nil)
	assert.True(t, ok)
	assert.Equal(t, []string{"no parking", "double parking"}, v)

	v, ok = parseViolations(nil, []string{`["no parking","obstruction"]`})
	assert.True(t, ok)
	assert.Equal(t, []string{"no parking", "obstruction"}, v)

	_, ok = parseViolations(nil, nil)
	assert.False(t, ok)
}

func TestReportEditInput_Bind(t *testing.T) {
	t.Parallel()

	var input reportEditInput
	c := formContext(url.Values{
		"location":     {""},
		"postIt":       {"true"},
		"violations[]": {"no parking", "double parking"},
	})
	require.NoError(t, c.ShouldBind(&input))
	assert.Nil(t, input.Description)
	assert.Nil(t, input.PlateNumber)
	assert.Nil(t, input.GeoCodeData)
	require.NotNil(t, input.Location)
	assert.Empty(t, *input.Location)
	require.NotNil(t, input.PostIt)
	assert.True(t, *input.PostIt)
	assert.Nil(t, input.Violations)

	v, ok := parseViolations(input.Violations, input.ViolationList)
	assert.True(t, ok)
	assert.Equal(t, []string{"no parking", "double parking"}, v)

	var bad reportEditInput
	assert.Error(t, formContext(url.Values{"postIt": {"maybe"}}).ShouldBind(&bad))
}

func TestReportInput_Bind(t *testing.T) {
	t.Parallel()

	var input reportInput
	c := formContext(url.Values{
		"description": {"double parked"},
		"plateNumber": {"ABC 123"},
		"geocodeData": {`{"latitude":14.6,"longitude":120.98}`},
		"violations":  {`["no parking"]`},
	})
	require.NoError(t, c.ShouldBind(&input))
	assert.Equal(t, "double parked", input.Description)
	assert.Equal(t, "ABC 123", input.PlateNumber)
	assert.False(t, input.PostIt)

	geo, err := parseGeoCode(input.GeoCodeData)
	require.NoError(t, err)
	assert.InDelta(t, 120.98, geo.Longitude, 1e-9)
	v, ok := parseViolations(input.Violations, input.ViolationList)
	assert.True(t, ok)
	assert.Equal(t, []string{"no parking"}, v)
}

func TestParseGeoCode(t *testing.T) {
	t.Parallel()

	g, err := parseGeoCode(`{"latitude":14.6,"longitude":120.98}`)
	assert.NoError(t, err)
	assert.InDelta(t, 14.6, g.Latitude, 1e-9)

	g, err = parseGeoCode("  ")
	assert.NoError(t, err)
	assert.Nil(t, g)

	_, err = parseGeoCode("14.6,120.98")
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestFormFiles_NotMultipart(t *testing.T) {
	t.Parallel()

	uploads, err := formFiles(formContext(url.Values{"status": {"Approved"}}), "images")
	assert.NoError(t, err)
	assert.Empty(t, uploads)
}

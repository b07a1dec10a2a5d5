package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(body string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestDecodeStrict(t *testing.T) {
	var patch struct {
		Status string `json:"status"`
	}

	c := newTestContext(`{"status": "DELAYED"}`)
	require.NoError(t, decodeStrict(c, &patch))
	assert.Equal(t, "DELAYED", patch.Status)
}

func TestDecodeStrictUnknownField(t *testing.T) {
	var patch struct {
		Status string `json:"status"`
	}

	c := newTestContext(`{"status": "DELAYED", "base_fare": 99}`)
	assert.Error(t, decodeStrict(c, &patch))
}

func TestDecodeStrictTrailingData(t *testing.T) {
	var patch struct {
		Status string `json:"status"`
	}

	c := newTestContext(`{"status": "DELAYED"} {"status": "CANCELLED"}`)
	assert.Error(t, decodeStrict(c, &patch))
}

func TestGetUserIDVariants(t *testing.T) {
	c := newTestContext(`{}`)

	c.Set("user_id", uint64(7))
	id, err := getUserID(c)
	require.NoError(t, err)
	assert.EqualValues(t, 7, id)

	c.Set("user_id", float64(8))
	id, err = getUserID(c)
	require.NoError(t, err)
	assert.EqualValues(t, 8, id)

	c.Set("user_id", nil)
	_, err = getUserID(c)
	assert.Error(t, err)
}

func TestPathID(t *testing.T) {
	c := newTestContext(`{}`)
	c.SetParamNames("id")
	c.SetParamValues("15")
	id, err := pathID(c)
	require.NoError(t, err)
	assert.EqualValues(t, 15, id)

	c.SetParamValues("0")
	_, err = pathID(c)
	assert.Error(t, err)

	c.SetParamValues("abc")
	_, err = pathID(c)
	assert.Error(t, err)
}

func TestNormUpper(t *testing.T) {
	assert.Equal(t, "MALE", normUpper("  male "))
	assert.Equal(t, "CARD", normUpper("card"))
}

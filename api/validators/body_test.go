package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/Nafis5858/Krishak/pkg/errors"
	"github.com/Nafis5858/Krishak/pkg/types"
)

type rateBody struct {
	Rating int     `json:"rating" validate:"required,gte=1,lte=5"`
	Review *string `json:"review" validate:"omitempty,max=10"`
}

type locationBody struct {
	Location *types.Location `json:"location"`
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"rating":9}`))
	var body rateBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	require.Equal(t, map[string]string{"rating": "must be at most 5"}, typed.Details())
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"rating":3,"tip":20}`))
	var body rateBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestDecodeJSONBodyValidatesNestedCoordinates(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"location":{"coordinates":{"lat":95,"lng":90}}}`))
	var body locationBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)

	ok := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"location":{"district":"Bogura","coordinates":{"lat":24.85,"lng":89.37}}}`))
	require.NoError(t, DecodeJSONBody(ok, &body))
	require.Equal(t, "Bogura", body.Location.District)
}

func TestParseQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=30&lat=23.7&unreadOnly=true&lon=abc", nil)

	limit, err := ParseQueryInt(req, "limit", 20, 1, 100)
	require.NoError(t, err)
	require.Equal(t, 30, limit)

	page, err := ParseQueryInt(req, "page", 1, 1, 1000)
	require.NoError(t, err)
	require.Equal(t, 1, page)

	lat, err := ParseQueryFloat(req, "lat", -90, 90)
	require.NoError(t, err)
	require.Equal(t, 23.7, lat)

	_, err = ParseQueryFloat(req, "lon", -180, 180)
	require.Error(t, err)

	unread, err := ParseQueryBool(req, "unreadOnly")
	require.NoError(t, err)
	require.True(t, unread)
}

func TestURLParamUUID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rc := chi.NewRouteContext()
	rc.URLParams.Add("orderId", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	_, err := URLParamUUID(req, "orderId")
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

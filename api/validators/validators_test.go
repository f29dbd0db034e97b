package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/vendorpool-backend/pkg/errors"
)

type quantityBody struct {
	DealID   string `json:"dealId" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"gt=0"`
	Method   string `json:"deliveryMethod" validate:"omitempty,oneof=SHIP DROP_OFF"`
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"dealId":"nope","quantity":0,"deliveryMethod":"AIR"}`))
	var body quantityBody

	err := DecodeJSONBody(req, &body)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	require.Equal(t, "must be a valid uuid", details["dealId"])
	require.Equal(t, "must be greater than 0", details["quantity"])
	require.Equal(t, "must be one of [SHIP DROP_OFF]", details["deliveryMethod"])
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"dealId":"7f1d0c4e-8f43-4d8a-9d55-1d8d0a1e2b3c","quantity":1,"payoutRate":"9000"}`))
	var body quantityBody

	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestParseQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500&includeExpired=true&dealId=bad", nil)

	_, err := ParseQueryInt(req, "limit", 20, 1, 100)
	require.Error(t, err)

	flag, err := ParseQueryBool(req, "includeExpired", false)
	require.NoError(t, err)
	require.True(t, flag)

	_, err = ParseQueryUUID(req, "dealId")
	require.Error(t, err)

	missing, err := ParseQueryUUID(req, "userId")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestSanitizeString(t *testing.T) {
	require.Equal(t, "abc", SanitizeString("  abcdef ", 3))
	require.Equal(t, "note", SanitizeString(" note ", 0))
}

package response

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnvelopes(t *testing.T) {
	ok := OKT(map[string]int{"n": 1})
	require.Equal(t, APIResponseCodeOK, ok.Code)
	require.Equal(t, "ok", ok.Message)

	bad := ErrorT[any](APIResponseCodeBadRequest, nil)
	require.Equal(t, "bad request", bad.Message)

	b, err := json.Marshal(Fail("quota_exceeded", "image quota exceeded"))
	require.NoError(t, err)
	require.JSONEq(t, `{"error":"image quota exceeded","category":"quota_exceeded"}`, string(b))
}

package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		AccessSecret:  "unit-test-access-secret",
		RefreshSecret: "unit-test-refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        "snapgram",
	}
}

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec(testConfig())
	require.NoError(t, err)
	return c
}

func TestNewCodec_MissingSecretIsConstructionError(t *testing.T) {
	cfg := testConfig()
	cfg.AccessSecret = ""
	_, err := NewCodec(cfg)
	require.Error(t, err)

	cfg = testConfig()
	cfg.RefreshSecret = ""
	_, err = NewCodec(cfg)
	require.Error(t, err)

	cfg = testConfig()
	cfg.AccessTTL = 0
	_, err = NewCodec(cfg)
	require.Error(t, err)
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	c := newTestCodec(t)

	for _, p := range []Principal{
		{ID: 1, Role: RoleUser},
		{ID: 42, Role: RoleAdmin},
	} {
		for _, kind := range []Kind{KindAccess, KindRefresh} {
			signed, err := c.Encode(p, kind)
			require.NoError(t, err)

			got, err := c.Decode(signed, kind)
			require.NoError(t, err)
			require.Equal(t, p, got)
		}
	}
}

func TestEncode_RejectsInvalidPrincipal(t *testing.T) {
	c := newTestCodec(t)

	_, err := c.Encode(Principal{ID: 0, Role: RoleUser}, KindAccess)
	require.Error(t, err)

	_, err = c.Encode(Principal{ID: 1, Role: "superuser"}, KindAccess)
	require.Error(t, err)
}

func TestDecode_Expired(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTTL = time.Nanosecond
	c, err := NewCodec(cfg)
	require.NoError(t, err)

	signed, err := c.Encode(Principal{ID: 7, Role: RoleUser}, KindAccess)
	require.NoError(t, err)

	_, err = c.Decode(signed, KindAccess)
	require.ErrorIs(t, err, ErrExpired)
}

func TestDecode_WrongKindSecret(t *testing.T) {
	c := newTestCodec(t)

	// access 令牌拿 refresh 密钥验，必须被当作签名错误拒绝
	signed, err := c.Encode(Principal{ID: 7, Role: RoleUser}, KindAccess)
	require.NoError(t, err)

	_, err = c.Decode(signed, KindRefresh)
	require.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestDecode_IssuerMismatch(t *testing.T) {
	c := newTestCodec(t)

	other := testConfig()
	other.Issuer = "someone-else"
	oc, err := NewCodec(other)
	require.NoError(t, err)

	signed, err := oc.Encode(Principal{ID: 7, Role: RoleUser}, KindAccess)
	require.NoError(t, err)

	_, err = c.Decode(signed, KindAccess)
	require.ErrorIs(t, err, ErrIssuerMismatch)
}

func TestDecode_Malformed(t *testing.T) {
	c := newTestCodec(t)

	for _, raw := range []string{"", "garbage", "a.b.c"} {
		_, err := c.Decode(raw, KindAccess)
		require.ErrorIs(t, err, ErrMalformed)
	}
}

func TestDecode_RejectsLooseTypedPayload(t *testing.T) {
	c := newTestCodec(t)

	// 签名有效但载荷不符合 Principal 形状：uid 缺失 / 角色未知
	for _, cl := range []jwt.MapClaims{
		{"role": "user", "iss": "snapgram", "exp": time.Now().Add(time.Hour).Unix()},
		{"uid": 7, "role": "wizard", "iss": "snapgram", "exp": time.Now().Add(time.Hour).Unix()},
	} {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString([]byte(testConfig().AccessSecret))
		require.NoError(t, err)

		_, err = c.Decode(signed, KindAccess)
		require.ErrorIs(t, err, ErrMalformed)
	}
}

func TestDecode_RejectsUnsignedAlg(t *testing.T) {
	c := newTestCodec(t)

	cl := jwt.MapClaims{"uid": 7, "role": "user", "iss": "snapgram", "exp": time.Now().Add(time.Hour).Unix()}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodNone, cl).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = c.Decode(signed, KindAccess)
	require.Error(t, err)
}

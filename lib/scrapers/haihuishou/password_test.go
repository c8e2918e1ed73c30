package haihuishou

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	// md5("123456")
	require.Equal(t, "e10adc3949ba59abbe56e057f20f883e", HashPassword("123456"))
	// deterministic
	require.Equal(t, HashPassword("抢单密码"), HashPassword("抢单密码"))
	require.Len(t, HashPassword("抢单密码"), 32)
}

func TestHashPasswordDigestPassthrough(t *testing.T) {
	digest := "e10adc3949ba59abbe56e057f20f883e"
	require.Equal(t, digest, HashPassword(digest))

	// uppercase hex is not the wire format, so it gets hashed like
	// any other plaintext
	upper := "E10ADC3949BA59ABBE56E057F20F883E"
	require.NotEqual(t, upper, HashPassword(upper))
	require.Len(t, HashPassword(upper), 32)

	// right length, wrong alphabet
	notHex := "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz"
	require.NotEqual(t, notHex, HashPassword(notHex))
}

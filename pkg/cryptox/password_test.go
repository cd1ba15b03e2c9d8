package cryptox

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("Sup3rSecret")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$2a$12$"), "hash should carry cost 12: %s", hash)

	require.NoError(t, VerifyPassword("Sup3rSecret", hash))
	require.Error(t, VerifyPassword("sup3rsecret", hash))
	require.Error(t, VerifyPassword("", hash))
}

func TestHashPasswordSaltsEachCall(t *testing.T) {
	t.Parallel()

	a, err := HashPassword("SamePassword1")
	require.NoError(t, err)
	b, err := HashPassword("SamePassword1")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestHashGateAllowsConcurrentCallers(t *testing.T) {
	t.Parallel()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := HashPassword("Concurrent1")
			require.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestFingerprintToken(t *testing.T) {
	t.Parallel()

	fp := FingerprintToken("some-refresh-token")
	require.Len(t, fp, 43)
	require.Equal(t, fp, FingerprintToken("some-refresh-token"))
	require.NotEqual(t, fp, FingerprintToken("some-refresh-token2"))
}

package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/temple-erp/temple-erp/internal/testing/guard"
)

func TestInTestMode(t *testing.T) {
	RefreshTestMode()
	require.True(t, InTestMode())
}

func TestRefreshTestMode(t *testing.T) {
	t.Setenv("TEMPLE_TEST_MODE", "0")
	RefreshTestMode()
	require.False(t, InTestMode())

	t.Setenv("TEMPLE_TEST_MODE", "1")
	RefreshTestMode()
	require.True(t, InTestMode())
}

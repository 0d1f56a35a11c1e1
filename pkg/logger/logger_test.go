package logger

import (
	"testing"

	"github.com/Leopold1975/conduit/internal/pkg/config"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	lg, err := New(config.Logger{Level: "debug", Output: []string{"stdout"}})
	require.NoError(t, err)
	require.NotNil(t, lg.SugaredLogger)

	_, err = New(config.Logger{Level: "loud"})
	require.Error(t, err)
}

package errors_test

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/jrsteele09/calzado-portal/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errors.Kind
	}{
		{"validation", errors.Validation("too short"), errors.KindValidation},
		{"domain", errors.Domain(http.StatusUnauthorized, "Credenciales inválidas"), errors.KindDomain},
		{"transport", errors.Transport(stderrors.New("dial tcp: refused")), errors.KindTransport},
		{"wrapped", errors.Wrapf(errors.Transport(nil), "login"), errors.KindTransport},
		{"corruption", errors.SessionCorruption(errors.ErrIncompletePair), errors.KindSessionCorruption},
		{"plain", stderrors.New("boom"), errors.KindUnknown},
		{"nil", nil, errors.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, errors.KindOf(tt.err))
		})
	}
}

func TestMessage(t *testing.T) {
	require.Equal(t, "", errors.Message(nil, "fallback"))
	require.Equal(t, errors.TransportMessage, errors.Message(errors.Transport(nil), "fallback"))
	require.Equal(t, "fallback", errors.Message(stderrors.New("internal detail"), "fallback"))
	require.Equal(t, "Credenciales inválidas",
		errors.Message(errors.Wrapf(errors.Domain(401, "Credenciales inválidas"), "login"), "fallback"))
}

func TestErrorUnwrap(t *testing.T) {
	cause := stderrors.New("refused")
	err := errors.Transport(cause)
	require.True(t, errors.Is(err, cause))
	require.Equal(t, "transport", errors.KindTransport.String())
	require.Equal(t, "session_corruption", errors.KindSessionCorruption.String())
}

func TestWrapfNil(t *testing.T) {
	require.NoError(t, errors.Wrapf(nil, "nothing"))
}

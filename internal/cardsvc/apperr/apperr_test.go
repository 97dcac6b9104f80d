package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{New(BadRequest, "bad"), http.StatusBadRequest},
		{New(Unauthorized, "nope"), http.StatusUnauthorized},
		{New(Conflict, "dup"), http.StatusConflict},
		{New(NotFound, "missing"), http.StatusNotFound},
		{New(Internal, "boom"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
		{fmt.Errorf("outer: %w", New(NotFound, "inner")), http.StatusNotFound},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, StatusCode(c.err), c.err.Error())
	}
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(Internal, "list unused card keys", cause)

	assert.Equal(t, "list unused card keys: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, Is(err, Internal))
	assert.False(t, Is(err, Conflict))
	assert.Equal(t, "internal", KindOf(cause).String())
}

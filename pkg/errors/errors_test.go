package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStatus(t *testing.T) {
	cases := map[int]string{
		http.StatusUnauthorized:        ErrSessionExpired.Code,
		http.StatusNotFound:            ErrNotFound.Code,
		http.StatusConflict:            ErrConflict.Code,
		http.StatusBadRequest:          ErrValidation.Code,
		http.StatusUnprocessableEntity: ErrValidation.Code,
		http.StatusInternalServerError: ErrUpstream.Code,
	}
	for status, code := range cases {
		assert.Equal(t, code, FromStatus(status, "boom").Code, "status %d", status)
	}
	assert.Equal(t, ErrSessionExpired.Message, FromStatus(http.StatusUnauthorized, "ignored").Message)
}

func TestClonedErrorsMatchByCode(t *testing.T) {
	wrapped := fmt.Errorf("load roster: %w", Clone(ErrConflict, "already marked"))
	assert.True(t, errors.Is(wrapped, ErrConflict))
	assert.False(t, errors.Is(wrapped, ErrNotFound))
	assert.Equal(t, http.StatusConflict, FromError(wrapped).Status)
	assert.Equal(t, ErrInternal.Code, FromError(errors.New("plain")).Code)
}

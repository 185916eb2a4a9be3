package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	wrapped := fmt.Errorf("signup: %w", NewDuplicateUsernameError("alice"))

	assert.True(t, HasCode(wrapped, CodeDuplicateUsername))
	assert.False(t, HasCode(wrapped, CodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeNotFound))
	assert.False(t, HasCode(nil, CodeNotFound))
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewInternalError(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Internal error: disk full", err.Error())
}

func TestToggleAndRemove(t *testing.T) {
	ids, present := Toggle(nil, "a")
	assert.True(t, present)
	assert.Equal(t, []string{"a"}, ids)

	ids, present = Toggle(ids, "a")
	assert.False(t, present)
	assert.Empty(t, ids)

	assert.Equal(t, []string{"a", "c"}, Remove([]string{"a", "b", "c", "b"}, "b"))
}

func TestUserClone_IsDeep(t *testing.T) {
	u := User{ID: "1", Following: []string{"2"}}
	c := u.Clone()
	c.Following[0] = "3"

	assert.Equal(t, "2", u.Following[0])
	assert.NotNil(t, c.Followers)
}

package models

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostString(t *testing.T) {
	assert.Equal(t, "short", Post{Text: "short"}.String())
	assert.Equal(t, "Тестовый пост д", Post{Text: "Тестовый пост для проверки"}.String())
}

func TestPostIsAuthoredBy(t *testing.T) {
	p := Post{AuthorID: 7}
	assert.True(t, p.IsAuthoredBy(7))
	assert.False(t, p.IsAuthoredBy(8))
	assert.False(t, Post{}.IsAuthoredBy(0))
}

func TestUserFullName(t *testing.T) {
	assert.Equal(t, "Leo Tolstoy", User{Username: "leo", FirstName: "Leo", LastName: "Tolstoy"}.FullName())
	assert.Equal(t, "Leo", User{Username: "leo", FirstName: "Leo"}.FullName())
	assert.Equal(t, "leo", User{Username: "leo"}.FullName())
}

func TestGroupString(t *testing.T) {
	assert.Equal(t, "Cats", Group{Title: "Cats", Slug: "cats"}.String())
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusFor(NewNotFoundError("Post", 1)))
	assert.Equal(t, http.StatusBadRequest, StatusFor(NewValidationError("bad")))
	assert.Equal(t, http.StatusUnauthorized, StatusFor(NewUnauthorizedError("login")))
	assert.Equal(t, http.StatusForbidden, StatusFor(NewForbiddenError("nope")))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(NewInternalError(errors.New("boom"))))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("plain")))
}

func TestHasCodeUnwrapsWrappedErrors(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NewNotFoundError("Group", "cats"))
	assert.True(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(err, CodeValidation))
	assert.EqualError(t, err, "lookup: Group cats not found")
}

func TestFieldValidationError(t *testing.T) {
	err := NewFieldValidationError(map[string]string{"text": "This field is required."})
	appErr, ok := AsAppError(err)
	assert.True(t, ok)
	assert.Equal(t, CodeValidation, appErr.Code)
	assert.Equal(t, "This field is required.", appErr.Fields["text"])
}

package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  string
	}{
		{"valid", "Correct-Horse-9", ""},
		{"too short", "Ab1!", "at least 12"},
		{"too long", strings.Repeat("Aa1!", 40), "must not exceed"},
		{"no upper", "correct-horse-9", "uppercase"},
		{"no lower", "CORRECT-HORSE-9", "lowercase"},
		{"no digit", "Correct-Horse-X", "digit"},
		{"no special", "CorrectHorse99", "special"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("leo.tolstoy"))
	assert.NoError(t, ValidateUsername("a+b@c-d_e"))
	assert.Error(t, ValidateUsername("ab"))
	assert.Error(t, ValidateUsername("has space"))
	assert.Error(t, ValidateUsername("slash/name"))
	assert.Error(t, ValidateUsername(strings.Repeat("a", 151)))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("leo@example.com"))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail(strings.Repeat("a", 250)+"@example.com"))
}

func TestValidateGroupSlug(t *testing.T) {
	assert.NoError(t, ValidateGroupSlug("cats"))
	assert.NoError(t, ValidateGroupSlug("test-slug_2"))
	assert.Error(t, ValidateGroupSlug(""))
	assert.Error(t, ValidateGroupSlug("with space"))
	assert.Error(t, ValidateGroupSlug(strings.Repeat("s", 51)))
}

func TestValidateGroupTitle(t *testing.T) {
	assert.NoError(t, ValidateGroupTitle("Cats"))
	assert.Error(t, ValidateGroupTitle("   "))
	assert.Error(t, ValidateGroupTitle(strings.Repeat("т", 201)))
}

func TestFieldErrors(t *testing.T) {
	errs := FieldErrors{}
	assert.False(t, errs.Any())

	errs.Add("text", MsgRequired)
	errs.Add("text", "second message is ignored")
	errs.Add("group", MsgInvalidChoice)

	assert.True(t, errs.Any())
	assert.Equal(t, MsgRequired, errs["text"])
	assert.Len(t, errs, 2)
}

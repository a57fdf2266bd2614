package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"jaothui-api-server/internal/apperrors"
)

type keys struct {
	Auth string `json:"auth" validate:"required"`
}

type input struct {
	Endpoint string `json:"endpoint" validate:"required,http_url"`
	Title    string `json:"title" validate:"max=5"`
	Keys     keys   `json:"keys"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name  string
		in    input
		field string
		msg   string
	}{
		{"ok", input{Endpoint: "https://fcm.googleapis.com/x", Keys: keys{Auth: "a"}}, "", ""},
		{"missing endpoint", input{Keys: keys{Auth: "a"}}, "endpoint", "is required"},
		{"relative endpoint", input{Endpoint: "/push", Keys: keys{Auth: "a"}}, "endpoint", "must be an absolute http(s) URL"},
		{"nested", input{Endpoint: "https://x.example/p"}, "keys.auth", "is required"},
		{"too long", input{Endpoint: "https://x.example/p", Title: "abcdefg", Keys: keys{Auth: "a"}}, "title", "must be at most 5 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}

			var ae *apperrors.Error
			assert.True(t, errors.As(err, &ae))
			assert.Equal(t, apperrors.KindValidation, ae.Kind)
			assert.Equal(t, tt.field, ae.Field)
			assert.Equal(t, tt.msg, ae.Msg)
		})
	}
}

func TestStruct_Phone(t *testing.T) {
	type contact struct {
		Phone string `json:"phoneNumber" validate:"required,phone"`
	}
	tests := []struct {
		phone string
		ok    bool
	}{
		{"0812345678", true},
		{"+66 81-234-5678", true},
		{"(02) 123 4567", true},
		{"081234567a", false},
		{"081.234.5678", false},
	}
	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			err := Struct(contact{Phone: tt.phone})
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperrors.Is(err, apperrors.KindValidation))
		})
	}
}

package authservice

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const maxPasswordBytes = 72

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(2, 100)),
		validation.Field(&r.Email, validation.Required, validation.Length(4, 255)),
		validation.Field(&r.Password,
			validation.Required,
			validation.Length(8, 72),
			validation.By(passwordBytes),
		),
	)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// UpdateUserRequest carries the optional profile fields and the lock_version
// the client last saw.
type UpdateUserRequest struct {
	Email       *string `json:"email"`
	Bio         *string `json:"bio"`
	Image       *string `json:"image"`
	LockVersion *int    `json:"lock_version"` //nolint:tagliatelle
}

func (r UpdateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.When(r.Email != nil, validation.Required, validation.Length(4, 255))),
		validation.Field(&r.Bio, validation.When(r.Bio != nil, validation.Required, validation.Length(1, 500))),
		validation.Field(&r.Image, validation.When(r.Image != nil, validation.Required, validation.Length(1, 500))),
		validation.Field(&r.LockVersion, validation.NotNil, validation.Min(0)),
	)
}

func passwordBytes(value interface{}) error {
	s, _ := value.(string)
	if len(s) > maxPasswordBytes {
		return errors.New("must be no more than 72 bytes")
	}

	return nil
}

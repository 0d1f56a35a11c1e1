package commentservice

import validation "github.com/go-ozzo/ozzo-validation/v4"

type CreateRequest struct {
	Body string `json:"body"`
}

func (r CreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Body, validation.Required, validation.Length(1, 200)),
	)
}

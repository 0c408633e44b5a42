package util

import (
	"Hydro/internal/model"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("classification", func(fl validator.FieldLevel) bool {
		return model.Classifications[fl.Field().String()]
	})
	_ = validate.RegisterValidation("timezone", func(fl validator.FieldLevel) bool {
		return ValidTimezone(fl.Field().String())
	})
	_ = validate.RegisterValidation("handsize", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case model.HandSmall, model.HandMedium, model.HandLarge:
			return true
		}
		return false
	})
}

// ValidateDTO 校验 validate 标签，错误信息只描述第一个失败字段，仍可 errors.As 出 ValidationErrors
func ValidateDTO(dto any) error {
	if err := validate.Struct(dto); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			first := vErrs[0]
			return fmt.Errorf("field [%s] failed rule [%s]: %w", first.Field(), first.Tag(), vErrs)
		}
		return err
	}
	return nil
}

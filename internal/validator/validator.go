// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"dompet/internal/models"
)

var (
	hexColorRegex   = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	inviteCodeRegex = regexp.MustCompile(`^[0-9A-Za-z]{10}$`)
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		registerOn(v)
	}
}

func registerOn(v *validator.Validate) {
	// Report fields by their JSON or form names so clients can map errors back.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	_ = v.RegisterValidation("hex_color", validateHexColor)
	_ = v.RegisterValidation("transaction_type", validateTransactionType)
	_ = v.RegisterValidation("adjustment_type", validateAdjustmentType)
	_ = v.RegisterValidation("invite_code", validateInviteCode)
}

func validateHexColor(fl validator.FieldLevel) bool {
	return hexColorRegex.MatchString(fl.Field().String())
}

func validateTransactionType(fl validator.FieldLevel) bool {
	return models.TransactionType(fl.Field().String()).Valid()
}

func validateAdjustmentType(fl validator.FieldLevel) bool {
	return models.AdjustmentType(fl.Field().String()).Valid()
}

func validateInviteCode(fl validator.FieldLevel) bool {
	return inviteCodeRegex.MatchString(fl.Field().String())
}

// FirstError describes the first failed constraint in err. ok is false when
// err did not come from the validator.
func FirstError(err error) (field, message string, ok bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "", "", false
	}
	fe := verrs[0]

	// Drop the root struct name: "CreateRequest.items[0].price" -> "items[0].price".
	field = fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	return field, describe(fe), true
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min", "gte":
		if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at least %s characters or entries", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max", "lte":
		if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at most %s characters or entries", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "hex_color":
		return "must be a color in #RRGGBB form"
	case "transaction_type":
		return "must be one of RECEIPT, QRIS, MANUAL"
	case "adjustment_type":
		return "must be PERCENT or NOMINAL"
	case "invite_code":
		return "must be a 10-character invite code"
	case "url":
		return "must be a valid URL"
	}
	return "failed the " + fe.Tag() + " check"
}

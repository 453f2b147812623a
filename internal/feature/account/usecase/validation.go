package usecase

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"account_backend/internal/feature/account/domain"
)

const (
	minUsernameLength = 7
	maxUsernameLength = 21
)

// passwordPattern: 先頭は英字、続けて英数字またはアンダースコアが3〜14文字。
var passwordPattern = regexp.MustCompile(`^[a-zA-Z]\w{3,14}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("account_password", func(fl validator.FieldLevel) bool {
		return passwordPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

func validateUsername(username string) error {
	// 文字列の min/max はバイトではなくルーン数で数える
	if err := validate.Var(username, "min=7,max=21"); err != nil {
		return domain.ErrInvalidUsername
	}
	return nil
}

func validateEmail(email string) error {
	if err := validate.Var(email, "email"); err != nil {
		return domain.ErrInvalidEmail
	}
	return nil
}

func validatePassword(password string) error {
	if err := validate.Var(password, "account_password"); err != nil {
		return domain.ErrInvalidPassword
	}
	return nil
}

// validateRegistration は登録ルールを 必須項目→ユーザー名→メール→パスワード の順で適用します。
func validateRegistration(email, username, password string) error {
	if email == "" || username == "" || password == "" {
		return domain.ErrMissingParameter
	}
	if err := validateUsername(username); err != nil {
		return err
	}
	if err := validateEmail(email); err != nil {
		return err
	}
	return validatePassword(password)
}

package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

func newValidator() (*validator.Validate, ut.Translator, error) {
	validate := validator.New()

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, nil, fmt.Errorf("failed to register default translations: %w", err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	validate.RegisterStructValidation(validateDatabaseTarget, DatabaseConfig{})
	if err := validate.RegisterTranslation("mysql_target", trans, func(ut ut.Translator) error {
		return ut.Add("mysql_target", "database.{0} is required for the mysql driver unless dsn is set", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("mysql_target", fe.Field())
		return t
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to register mysql_target translation: %w", err)
	}

	return validate, trans, nil
}

// validateDatabaseTarget requires enough fields to build a mysql DSN when none is given.
func validateDatabaseTarget(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(DatabaseConfig)
	if cfg.Driver != "mysql" || cfg.DSN != "" {
		return
	}
	if cfg.Host == "" {
		sl.ReportError(cfg.Host, "host", "Host", "mysql_target", "")
	}
	if cfg.Database == "" {
		sl.ReportError(cfg.Database, "database", "Database", "mysql_target", "")
	}
}

package validate

import (
	"errors"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var validate *validator.Validate

var translator ut.Translator

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	translator, _ = ut.New(en.New(), en.New()).GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)
}

// Check validates struct tags on val and returns the translated messages of
// every failing field joined by "; ".
func Check(val any) error {
	if err := validate.Struct(val); err != nil {
		var verrors validator.ValidationErrors
		if !errors.As(err, &verrors) {
			return err
		}
		if len(verrors) == 0 {
			return nil
		}
		msgs := make([]string, 0, len(verrors))
		for _, fe := range verrors {
			msgs = append(msgs, fe.Translate(translator))
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	return nil
}

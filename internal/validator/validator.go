// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// symbolRegex matches exchange tickers: 1-12 letters/digits with an
// optional dot or dash segment (e.g. AAPL, BRK.B, RELIANCE.NS). Case is
// normalized to uppercase by the services.
var symbolRegex = regexp.MustCompile(`(?i)^[A-Z0-9]{1,12}([.\-][A-Z0-9]{1,6})?$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("symbol", validateSymbol)
		_ = v.RegisterValidation("stop_loss_kind", validateStopLossKind)
		_ = v.RegisterValidation("chart_range", validateChartRange)
	}
}

func validateSymbol(fl validator.FieldLevel) bool {
	return symbolRegex.MatchString(fl.Field().String())
}

func validateStopLossKind(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "price", "percent":
		return true
	}
	return false
}

func validateChartRange(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "1d", "5d", "1mo", "3mo", "6mo", "1y", "5y":
		return true
	}
	return false
}

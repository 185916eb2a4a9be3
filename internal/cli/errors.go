package cli

import (
	"errors"

	"kidflix/internal/models"
)

// report turns a domain error into a formatted message with a hint.
func report(p *Printer, err error) error {
	var printed *printedError
	if errors.As(err, &printed) {
		return err
	}

	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return p.Error("command failed", err.Error())
	}

	switch appErr.Code {
	case models.CodeUnauthorized:
		return p.Error("not logged in", appErr.Message, "Run 'kidflix login <email-or-username>' first")
	case models.CodeForbidden:
		return p.Error("permission denied", appErr.Message, "Ask an admin to run 'kidflix admin promote <username>'")
	case models.CodeWrongPassword:
		return p.Error("wrong password", appErr.Message)
	case models.CodeNotFound:
		return p.Error("not found", appErr.Message)
	case models.CodeDuplicateUsername:
		return p.Error("username taken", appErr.Message, "Pick a different username")
	case models.CodeValidation:
		return p.Error("invalid input", appErr.Message)
	case models.CodeImportParse:
		return p.Error("import failed", err.Error(), "Make sure the file was produced by 'kidflix export'")
	default:
		return p.Error("internal error", err.Error())
	}
}

package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"momentum/utils"
)

// serviceError keeps classified errors and replaces the message of
// unclassified ones with msg.
func serviceError(err error, msg string) error {
	if err == nil {
		return nil
	}
	appErr := utils.AsAppError(err)
	if appErr.Kind == utils.KindInternal {
		return utils.ErrInternal(msg, err)
	}
	return appErr
}

// notFound maps a missing row to a NotFound with msg and passes other errors through.
func notFound(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.ErrNotFound(msg)
	}
	return err
}

// isUniqueViolation also matches raw driver messages in case the dialector
// does not translate errors.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

func normalizeID(id string) *string {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	return &id
}

func normalizeIDPtr(id *string) *string {
	if id == nil {
		return nil
	}
	return normalizeID(*id)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// Package exceptions records pipeline failures locally and in the database.
package exceptions

import (
	"context"
	"encoding/json"
	"runtime/debug"
	"time"

	logger "github.com/sirupsen/logrus"

	"tradesim/src/model"
)

// Recorder persists captured exceptions.
type Recorder interface {
	Create(ctx context.Context, exc *model.Exception) error
}

// Source names where a failure happened.
type Source struct {
	Service string
	Module  string
	Method  string
}

// Capture logs err and, when repo is not nil, persists it. Failures to
// persist are logged and otherwise ignored.
func Capture(
	ctx context.Context,
	repo Recorder,
	source Source,
	symbol string,
	err error,
	contextData map[string]interface{},
) *model.Exception {

	if err == nil {
		return nil
	}

	var ctxJSON string
	if contextData != nil {
		if b, e := json.Marshal(contextData); e == nil {
			ctxJSON = string(b)
		}
	}

	category := model.ErrorCategory(err)
	level := "error"
	if category != "internal" {
		level = "warn"
	}

	exc := &model.Exception{
		Service:   source.Service,
		Module:    source.Module,
		Method:    source.Method,
		Category:  category,
		Symbol:    symbol,
		Message:   err.Error(),
		Level:     level,
		Context:   ctxJSON,
		CreatedAt: time.Now().UTC(),
	}
	if category == "internal" {
		exc.Stack = string(debug.Stack())
	}

	entry := logger.WithFields(map[string]interface{}{
		"service":  source.Service,
		"module":   source.Module,
		"method":   source.Method,
		"category": category,
		"symbol":   symbol,
	}).WithError(err)
	if level == "warn" {
		entry.Warn("System exception captured")
	} else {
		entry.Error("System exception captured")
	}

	if repo != nil {
		if e := repo.Create(ctx, exc); e != nil {
			logger.WithError(e).Error("Failed to persist exception")
		}
	}

	return exc
}

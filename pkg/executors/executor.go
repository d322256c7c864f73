// Package executors runs statement plans: Plan previews what an import would
// add and Apply performs it.
package executors

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/conciliador/pkg/importer"
	"github.com/yurifrl/conciliador/pkg/service"
)

// Importer is the part of service.Processor the executors need.
type Importer interface {
	Import(ctx context.Context, files []importer.File, opts service.ImportOptions) (*service.ImportResult, error)
}

type Executor struct {
	logger    *log.Logger
	processor Importer
}

func New(logger *log.Logger, processor Importer) *Executor {
	return &Executor{
		logger:    logger,
		processor: processor,
	}
}

package executors

import (
	"context"

	"github.com/yurifrl/conciliador/pkg/plan"
	"github.com/yurifrl/conciliador/pkg/service"
)

// Apply imports every statement of the plan with a single ledger write.
// Unrecognized files abort the apply before anything is written.
func (e *Executor) Apply(ctx context.Context, p *plan.Plan) (*service.ImportResult, error) {
	e.logger.Debug("applying plan", "count", len(p.Statements))

	files, err := p.Files()
	if err != nil {
		return nil, err
	}
	res, err := e.processor.Import(ctx, files, service.ImportOptions{})
	if err != nil {
		return nil, err
	}
	e.logger.Info("transactions added", "count", res.Report.MissingCount(), "in_sync", res.Report.InSyncCount())
	for _, w := range res.Warnings {
		e.logger.Warn("apply warning", "op", w.Op, "error", w.Err)
	}
	return res, nil
}

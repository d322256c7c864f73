package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/yurifrl/conciliador/pkg/csv"
	"github.com/yurifrl/conciliador/pkg/models"
	"github.com/yurifrl/conciliador/pkg/normalize"
	"github.com/yurifrl/conciliador/pkg/period"
)

type filters struct {
	period    string
	status    string
	category  string
	detail    string
	startDate string
	endDate   string
	minAmount string
	maxAmount string
}

func (f *filters) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.period, "period", "", "Only rows of this period (YYYY-MM)")
	fs.StringVar(&f.status, "status", "", "pending or reconciled")
	fs.StringVar(&f.category, "category", "", "Only rows of this category")
	fs.StringVar(&f.detail, "detail", "", "Filter by detail (case insensitive)")
	fs.StringVar(&f.startDate, "start", "", "Start date (DD/MM/YYYY)")
	fs.StringVar(&f.endDate, "end", "", "End date (DD/MM/YYYY)")
	fs.StringVar(&f.minAmount, "min", "", "Minimum amount")
	fs.StringVar(&f.maxAmount, "max", "", "Maximum amount")
}

func (f *filters) build() (csv.Filter, error) {
	out := csv.Filter{Category: f.category, Detail: f.detail}

	if f.period != "" {
		p, err := period.Parse(f.period)
		if err != nil {
			return out, err
		}
		out.Period = p
	}

	switch strings.ToLower(f.status) {
	case "":
	case "pending":
		out.Status = models.StatusPending
	case "reconciled":
		out.Status = models.StatusReconciled
	default:
		return out, fmt.Errorf("unknown status %q", f.status)
	}

	if f.startDate != "" {
		t, ok := normalize.Date(f.startDate)
		if !ok {
			return out, fmt.Errorf("invalid start date %q", f.startDate)
		}
		out.Start = t
	}
	if f.endDate != "" {
		t, ok := normalize.Date(f.endDate)
		if !ok {
			return out, fmt.Errorf("invalid end date %q", f.endDate)
		}
		out.End = t
	}

	if f.minAmount != "" {
		v, err := normalize.AmountStrict(f.minAmount)
		if err != nil {
			return out, err
		}
		out.MinAmount = &v
	}
	if f.maxAmount != "" {
		v, err := normalize.AmountStrict(f.maxAmount)
		if err != nil {
			return out, err
		}
		out.MaxAmount = &v
	}
	return out, nil
}

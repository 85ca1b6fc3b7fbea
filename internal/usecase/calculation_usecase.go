package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/iho/precatorio/internal/domain"
	"github.com/iho/precatorio/internal/engine"
)

var (
	// ErrEmptyBatch is returned for a batch without items.
	ErrEmptyBatch = errors.New("batch has no items")
	// ErrBatchTooLarge is returned for a batch above the configured limit.
	ErrBatchTooLarge = errors.New("batch exceeds maximum size")
	// ErrInvalidUnitsSource is returned for an unknown units source.
	ErrInvalidUnitsSource = errors.New("invalid units source")
)

// Operation names reported to the Recorder.
const (
	OpResolveFactor = "resolve_factor"
	OpCorrect       = "correct"
	OpApportion     = "apportion"
	OpToUnits       = "to_units"
	OpCalculate     = "calculate"
)

// UnitsSource selects which amount of a case is expressed in units.
type UnitsSource string

const (
	UnitsFromInterest UnitsSource = "interest"
	UnitsFromTotal    UnitsSource = "total"
	UnitsFromNet      UnitsSource = "net"
)

// CalculationUseCase runs the engine against the published index snapshot.
// Every call captures one snapshot and uses it to the end.
type CalculationUseCase struct {
	snapshots        SnapshotProvider
	idGen            IDGenerator
	recorder         Recorder
	minimumWageTable string
	batchWorkers     int
	batchMaxItems    int
	now              func() time.Time
}

// CalculationConfig holds CalculationUseCase dependencies.
type CalculationConfig struct {
	Snapshots        SnapshotProvider
	IDGenerator      IDGenerator
	Recorder         Recorder
	MinimumWageTable string
	BatchWorkers     int
	BatchMaxItems    int
}

// NewCalculationUseCase creates a new CalculationUseCase.
func NewCalculationUseCase(cfg CalculationConfig) *CalculationUseCase {
	if cfg.Recorder == nil {
		cfg.Recorder = nopRecorder{}
	}
	if cfg.MinimumWageTable == "" {
		cfg.MinimumWageTable = DefaultMinimumWageTable
	}
	if cfg.BatchWorkers <= 0 {
		cfg.BatchWorkers = DefaultBatchWorkers
	}
	if cfg.BatchMaxItems <= 0 {
		cfg.BatchMaxItems = DefaultBatchMaxItems
	}

	return &CalculationUseCase{
		snapshots:        cfg.Snapshots,
		idGen:            cfg.IDGenerator,
		recorder:         cfg.Recorder,
		minimumWageTable: cfg.MinimumWageTable,
		batchWorkers:     cfg.BatchWorkers,
		batchMaxItems:    cfg.BatchMaxItems,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// ResolveFactorInput represents input for resolving a table factor.
type ResolveFactorInput struct {
	Table string
	Start civil.Date
	End   civil.Date
}

// CorrectInput represents input for a monetary correction.
type CorrectInput struct {
	Correction     domain.CorrectionInput
	PrincipalTable string
	// InterestTable is optional; empty means interest is not corrected.
	InterestTable string
}

// ApportionInput represents input for a withholding apportionment.
type ApportionInput struct {
	Gross  decimal.Decimal
	Params domain.WithholdingParams
}

// ToUnitsInput represents input for a unit-equivalence conversion.
// Without UnitValue, the minimum wage effective at Date is used.
type ToUnitsInput struct {
	SourceValue decimal.Decimal
	UnitValue   *decimal.Decimal
	Date        civil.Date
}

// CalculateInput represents one credit for the full calculation pipeline.
type CalculateInput struct {
	Reference      string
	Correction     domain.CorrectionInput
	PrincipalTable string
	InterestTable  string
	Withholding    domain.WithholdingParams

	// UnitValue overrides the minimum wage table.
	UnitValue   *decimal.Decimal
	UnitsSource UnitsSource
	// ProposalDiscountPct requests a purchase proposal on the net value.
	ProposalDiscountPct *decimal.Decimal
}

// BatchItemResult is the outcome of one batch item. Exactly one of
// Calculation and Err is set.
type BatchItemResult struct {
	Index       int
	Reference   string
	Calculation *domain.CaseCalculation
	Err         error
}

// ResolveFactor resolves a table factor over [Start, End].
func (uc *CalculationUseCase) ResolveFactor(ctx context.Context, input ResolveFactorInput) (res domain.FactorResolution, err error) {
	defer uc.observe(OpResolveFactor, time.Now(), &err)

	snap, err := uc.snapshots.Current()
	if err != nil {
		return domain.FactorResolution{}, err
	}

	table, err := snap.Table(input.Table)
	if err != nil {
		return domain.FactorResolution{}, err
	}

	res, err = engine.ResolveFactor(table, input.Start, input.End)
	if err != nil {
		return domain.FactorResolution{}, err
	}
	uc.checkWindow(res)

	return res, nil
}

// Correct corrects a credit using the named tables.
func (uc *CalculationUseCase) Correct(ctx context.Context, input CorrectInput) (res domain.CorrectionResult, err error) {
	defer uc.observe(OpCorrect, time.Now(), &err)

	snap, err := uc.snapshots.Current()
	if err != nil {
		return domain.CorrectionResult{}, err
	}

	return uc.correct(snap, input)
}

// Apportion splits a gross value into withholdings and net.
func (uc *CalculationUseCase) Apportion(ctx context.Context, input ApportionInput) (res domain.ApportionmentResult, err error) {
	defer uc.observe(OpApportion, time.Now(), &err)

	res, err = engine.Apportion(input.Gross, input.Params)
	if err != nil {
		return domain.ApportionmentResult{}, err
	}
	if res.Clamped {
		uc.recorder.ObserveClampedApportionment()
	}

	return res, nil
}

// ToUnits converts an amount into unit equivalents.
func (uc *CalculationUseCase) ToUnits(ctx context.Context, input ToUnitsInput) (res domain.UnitEquivalenceResult, err error) {
	defer uc.observe(OpToUnits, time.Now(), &err)

	unit := input.UnitValue
	if unit == nil {
		snap, err := uc.snapshots.Current()
		if err != nil {
			return domain.UnitEquivalenceResult{}, err
		}
		value, err := uc.minimumWage(snap, input.Date)
		if err != nil {
			return domain.UnitEquivalenceResult{}, err
		}
		unit = &value
	}

	return engine.ToUnits(input.SourceValue, *unit)
}

// Calculate runs correction, apportionment, unit equivalence and the optional
// proposal for one credit.
func (uc *CalculationUseCase) Calculate(ctx context.Context, input CalculateInput) (calc *domain.CaseCalculation, err error) {
	defer uc.observe(OpCalculate, time.Now(), &err)

	snap, err := uc.snapshots.Current()
	if err != nil {
		return nil, err
	}

	return uc.calculate(snap, input)
}

// CalculateBatch calculates many credits concurrently against one snapshot.
// Results keep the input order; a failing item does not stop the others.
func (uc *CalculationUseCase) CalculateBatch(ctx context.Context, inputs []CalculateInput) ([]BatchItemResult, error) {
	if len(inputs) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(inputs) > uc.batchMaxItems {
		return nil, fmt.Errorf("%w: %d items, limit is %d", ErrBatchTooLarge, len(inputs), uc.batchMaxItems)
	}

	snap, err := uc.snapshots.Current()
	if err != nil {
		return nil, err
	}

	results := make([]BatchItemResult, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.batchWorkers)

	for i, input := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			start := time.Now()
			calc, err := uc.calculate(snap, input)
			uc.observe(OpCalculate, start, &err)

			results[i] = BatchItemResult{
				Index:       i,
				Reference:   input.Reference,
				Calculation: calc,
				Err:         err,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func (uc *CalculationUseCase) calculate(snap *domain.IndexSnapshot, input CalculateInput) (*domain.CaseCalculation, error) {
	correction, err := uc.correct(snap, CorrectInput{
		Correction:     input.Correction,
		PrincipalTable: input.PrincipalTable,
		InterestTable:  input.InterestTable,
	})
	if err != nil {
		return nil, err
	}

	apportionment, err := engine.Apportion(correction.Total, input.Withholding)
	if err != nil {
		return nil, err
	}
	if apportionment.Clamped {
		uc.recorder.ObserveClampedApportionment()
	}

	calc := &domain.CaseCalculation{
		ID:              uc.idGen.Generate(),
		Reference:       input.Reference,
		SnapshotVersion: snap.Version,
		CalculatedAt:    uc.now(),
		Correction:      correction,
		Apportionment:   apportionment,
	}

	units, err := uc.caseUnits(snap, input, calc)
	if err != nil {
		return nil, err
	}
	calc.Units = units

	if input.ProposalDiscountPct != nil {
		proposal, err := engine.Propose(apportionment.NetValue, *input.ProposalDiscountPct)
		if err != nil {
			return nil, err
		}
		calc.Proposal = &proposal
	}

	return calc, nil
}

func (uc *CalculationUseCase) correct(snap *domain.IndexSnapshot, input CorrectInput) (domain.CorrectionResult, error) {
	principalTable, err := snap.Table(input.PrincipalTable)
	if err != nil {
		return domain.CorrectionResult{}, err
	}

	var interestTable *domain.IndexTable
	if input.InterestTable != "" {
		interestTable, err = snap.Table(input.InterestTable)
		if err != nil {
			return domain.CorrectionResult{}, err
		}
	}

	res, err := engine.Correct(input.Correction, principalTable, interestTable)
	if err != nil {
		return domain.CorrectionResult{}, err
	}

	uc.checkWindow(res.PrincipalFactor)
	if res.InterestFactor != nil {
		uc.checkWindow(*res.InterestFactor)
	}

	return res, nil
}

// caseUnits returns nil when no unit value is given and the minimum wage table
// is absent or has no value in force at the target date.
func (uc *CalculationUseCase) caseUnits(snap *domain.IndexSnapshot, input CalculateInput, calc *domain.CaseCalculation) (*domain.UnitEquivalenceResult, error) {
	var source decimal.Decimal
	switch input.UnitsSource {
	case "", UnitsFromInterest:
		source = calc.Correction.InterestComponent
	case UnitsFromTotal:
		source = calc.Correction.Total
	case UnitsFromNet:
		source = calc.Apportionment.NetValue
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidUnitsSource, input.UnitsSource)
	}

	unit := input.UnitValue
	if unit == nil {
		if _, err := snap.Table(uc.minimumWageTable); err != nil {
			return nil, nil
		}
		value, err := uc.minimumWage(snap, input.Correction.TargetDate)
		if errors.Is(err, domain.ErrNoReferenceValue) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		unit = &value
	}

	res, err := engine.ToUnits(source, *unit)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (uc *CalculationUseCase) minimumWage(snap *domain.IndexSnapshot, date civil.Date) (decimal.Decimal, error) {
	table, err := snap.Table(uc.minimumWageTable)
	if err != nil {
		return decimal.Zero, err
	}
	if table.Kind != domain.KindValue {
		return decimal.Zero, fmt.Errorf("%w: %s is a %s table", domain.ErrUnsupportedTableKind, table.Name, table.Kind)
	}

	entry, err := table.ValueAt(date)
	if err != nil {
		return decimal.Zero, err
	}
	return entry.Value, nil
}

func (uc *CalculationUseCase) checkWindow(res domain.FactorResolution) {
	if res.Neutral() {
		uc.recorder.ObserveUnmatchedWindow(res.Table)
	}
}

func (uc *CalculationUseCase) observe(operation string, start time.Time, err *error) {
	uc.recorder.ObserveCalculation(operation, *err, time.Since(start))
}

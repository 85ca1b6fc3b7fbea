package main

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/iho/precatorio/internal/adapter/http/dto"
	"github.com/iho/precatorio/internal/domain"
	"github.com/iho/precatorio/internal/usecase"
)

func factorCmd(opts *options) *cobra.Command {
	var table, start, end string

	cmd := &cobra.Command{
		Use:   "factor",
		Short: "Resolve the compounded factor of a table over a date window",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := parseDate("start", start)
			if err != nil {
				return err
			}
			e, err := parseDate("end", end)
			if err != nil {
				return err
			}

			calc, err := opts.calculator(cmd.Context())
			if err != nil {
				return err
			}

			res, err := calc.ResolveFactor(cmd.Context(), usecase.ResolveFactorInput{Table: table, Start: s, End: e})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dto.FactorFromDomain(res))
		},
	}

	cmd.Flags().StringVar(&table, "table", "", "Index table name")
	cmd.Flags().StringVar(&start, "start", "", "Window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Window end (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("table")

	return cmd
}

// correctionFlags are shared by correct and calc.
type correctionFlags struct {
	principal, interest, penalty string
	baseDate, targetDate         string
	table, interestTable         string
}

func (f *correctionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.principal, "principal", "", "Principal amount")
	cmd.Flags().StringVar(&f.interest, "interest", "0", "Interest amount")
	cmd.Flags().StringVar(&f.penalty, "penalty", "0", "Penalty amount")
	cmd.Flags().StringVar(&f.baseDate, "base-date", "", "Base date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.targetDate, "target-date", "", "Target date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.table, "table", "", "Principal correction table")
	cmd.Flags().StringVar(&f.interestTable, "interest-table", "", "Optional table correcting interest and penalty")
}

func (f *correctionFlags) input() (usecase.CorrectInput, error) {
	var in domain.CorrectionInput
	var err error

	if in.Principal, err = parseDecimal("principal", f.principal); err != nil {
		return usecase.CorrectInput{}, err
	}
	if in.Interest, err = parseDecimal("interest", f.interest); err != nil {
		return usecase.CorrectInput{}, err
	}
	if in.Penalty, err = parseDecimal("penalty", f.penalty); err != nil {
		return usecase.CorrectInput{}, err
	}
	if in.BaseDate, err = parseDate("base-date", f.baseDate); err != nil {
		return usecase.CorrectInput{}, err
	}
	if in.TargetDate, err = parseDate("target-date", f.targetDate); err != nil {
		return usecase.CorrectInput{}, err
	}
	if f.table == "" {
		return usecase.CorrectInput{}, fmt.Errorf("--table is required")
	}

	return usecase.CorrectInput{Correction: in, PrincipalTable: f.table, InterestTable: f.interestTable}, nil
}

func correctCmd(opts *options) *cobra.Command {
	flags := &correctionFlags{}

	cmd := &cobra.Command{
		Use:   "correct",
		Short: "Correct a credit from its base date to a target date",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := flags.input()
			if err != nil {
				return err
			}

			calc, err := opts.calculator(cmd.Context())
			if err != nil {
				return err
			}

			res, err := calc.Correct(cmd.Context(), input)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dto.CorrectionFromDomain(res))
		},
	}
	flags.register(cmd)

	return cmd
}

// withholdingFlags are shared by apportion and calc.
type withholdingFlags struct {
	social, incomeTax, fee, advance string
	exempt                          bool
}

func (f *withholdingFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.social, "social-contribution", "0", "Social contribution percentage")
	cmd.Flags().StringVar(&f.incomeTax, "income-tax", "0", "Income tax percentage")
	cmd.Flags().BoolVar(&f.exempt, "income-tax-exempt", false, "Skip income tax")
	cmd.Flags().StringVar(&f.fee, "attorney-fee", "0", "Attorney fee percentage")
	cmd.Flags().StringVar(&f.advance, "advance", "0", "Advance percentage")
}

func (f *withholdingFlags) params() (domain.WithholdingParams, error) {
	p := domain.WithholdingParams{IncomeTaxExempt: f.exempt}
	var err error

	if p.SocialContributionPct, err = parseDecimal("social-contribution", f.social); err != nil {
		return p, err
	}
	if p.IncomeTaxPct, err = parseDecimal("income-tax", f.incomeTax); err != nil {
		return p, err
	}
	if p.AttorneyFeePct, err = parseDecimal("attorney-fee", f.fee); err != nil {
		return p, err
	}
	if p.AdvancePct, err = parseDecimal("advance", f.advance); err != nil {
		return p, err
	}
	return p, nil
}

func apportionCmd() *cobra.Command {
	var gross string
	flags := &withholdingFlags{}

	cmd := &cobra.Command{
		Use:   "apportion",
		Short: "Split a gross value into withholdings and net",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := parseDecimal("gross", gross)
			if err != nil {
				return err
			}
			params, err := flags.params()
			if err != nil {
				return err
			}

			// Apportionment needs no index tables.
			calc := usecase.NewCalculationUseCase(usecase.CalculationConfig{})
			res, err := calc.Apportion(cmd.Context(), usecase.ApportionInput{Gross: g, Params: params})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dto.ApportionmentFromDomain(res))
		},
	}

	cmd.Flags().StringVar(&gross, "gross", "", "Gross value")
	_ = cmd.MarkFlagRequired("gross")
	flags.register(cmd)

	return cmd
}

func unitsCmd(opts *options) *cobra.Command {
	var value, unitValue, date string

	cmd := &cobra.Command{
		Use:   "units",
		Short: "Express an amount as a count of reference units",
		Long:  "Without --unit-value the minimum wage in force at --date is read from the index file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseDecimal("value", value)
			if err != nil {
				return err
			}

			input := usecase.ToUnitsInput{SourceValue: v}
			calc := usecase.NewCalculationUseCase(usecase.CalculationConfig{})

			if unitValue != "" {
				u, err := parseDecimal("unit-value", unitValue)
				if err != nil {
					return err
				}
				input.UnitValue = &u
			} else {
				if input.Date, err = parseDate("date", date); err != nil {
					return err
				}
				if calc, err = opts.calculator(cmd.Context()); err != nil {
					return err
				}
			}

			res, err := calc.ToUnits(cmd.Context(), input)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dto.UnitEquivalenceFromDomain(res))
		},
	}

	cmd.Flags().StringVar(&value, "value", "", "Amount to convert")
	cmd.Flags().StringVar(&unitValue, "unit-value", "", "Unit value; defaults to the minimum wage at --date")
	cmd.Flags().StringVar(&date, "date", "", "Reference date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("value")

	return cmd
}

func calcCmd(opts *options) *cobra.Command {
	var (
		requestFile string
		reference   string
		unitValue   string
		unitsSource string
		discount    string
	)
	correction := &correctionFlags{}
	withholding := &withholdingFlags{}

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Run the full calculation of a credit",
		Long: `Runs correction, apportionment, unit equivalence and an optional purchase proposal.
With --request, reads a calculation or batch request in the API's JSON format
("-" for stdin) instead of the flags.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			calc, err := opts.calculator(cmd.Context())
			if err != nil {
				return err
			}

			if requestFile != "" {
				return runRequestFile(cmd, calc, requestFile)
			}

			corr, err := correction.input()
			if err != nil {
				return err
			}
			params, err := withholding.params()
			if err != nil {
				return err
			}

			input := usecase.CalculateInput{
				Reference:      reference,
				Correction:     corr.Correction,
				PrincipalTable: corr.PrincipalTable,
				InterestTable:  corr.InterestTable,
				Withholding:    params,
				UnitsSource:    usecase.UnitsSource(unitsSource),
			}
			if unitValue != "" {
				u, err := parseDecimal("unit-value", unitValue)
				if err != nil {
					return err
				}
				input.UnitValue = &u
			}
			if discount != "" {
				d, err := parseDecimal("proposal-discount", discount)
				if err != nil {
					return err
				}
				input.ProposalDiscountPct = &d
			}

			res, err := calc.Calculate(cmd.Context(), input)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dto.CalculationFromDomain(res))
		},
	}

	cmd.Flags().StringVar(&requestFile, "request", "", "JSON request file, '-' for stdin")
	cmd.Flags().StringVar(&reference, "reference", "", "Case reference")
	cmd.Flags().StringVar(&unitValue, "unit-value", "", "Unit value; defaults to the minimum wage at the target date")
	cmd.Flags().StringVar(&unitsSource, "units-source", string(usecase.UnitsFromInterest), "Amount expressed in units: interest, total or net")
	cmd.Flags().StringVar(&discount, "proposal-discount", "", "Purchase proposal discount percentage")
	correction.register(cmd)
	withholding.register(cmd)

	return cmd
}

// runRequestFile runs a single or batch request. A document with an "items"
// array is a batch.
func runRequestFile(cmd *cobra.Command, calc *usecase.CalculationUseCase, path string) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("failed to read request: %w", err)
	}

	var probe struct {
		Items json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}

	if probe.Items != nil {
		var req dto.BatchCalculationRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return fmt.Errorf("invalid request: %w", err)
		}
		inputs, err := req.ToUseCaseInput()
		if err != nil {
			return err
		}
		results, err := calc.CalculateBatch(cmd.Context(), inputs)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), dto.BatchFromUseCase(results))
	}

	var req dto.CalculationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	input, err := req.ToUseCaseInput()
	if err != nil {
		return err
	}
	res, err := calc.Calculate(cmd.Context(), input)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), dto.CalculationFromDomain(res))
}

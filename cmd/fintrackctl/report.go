package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/report"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func reportCmd(s *settings) *cobra.Command {
	var (
		owner, chart, source string
		asJSON               bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print an owner's report",
		Long: `Build the report of one owner from the database. The text form shows totals,
categories and budgets; --chart adds the chart series, and --json prints everything.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, err := report.ParseChartKind(chart)
			if err != nil {
				return err
			}
			src, err := report.ParseChartSource(source)
			if err != nil {
				return err
			}

			repo, err := storage.NewSQLiteRepository(s.dbPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			memo := report.NewMemo(report.Options{
				Location:  s.cfg.Location(),
				DayLayout: s.cfg.ReportDayLayout,
			}, 1, time.Minute)
			rep, err := services.NewReportService(repo, repo, repo, memo).Report(cmd.Context(), owner)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Report report.Report `json:"report"`
					Chart  report.Chart  `json:"chart"`
				}{rep, report.BuildChart(kind, src, rep)})
			}
			if err := printReport(out, rep); err != nil {
				return err
			}
			if chart != "" {
				return printChart(out, report.BuildChart(kind, src, rep))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner id")
	cmd.Flags().StringVar(&chart, "chart", "", "chart kind: bar, line, area or radar")
	cmd.Flags().StringVar(&source, "source", "", "chart source: category or daily")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func printReport(out io.Writer, r report.Report) error {
	income, err := report.FormatCurrency(r.Totals.TotalIncome, r.Currency)
	if err != nil {
		return err
	}
	expense, err := report.FormatCurrency(r.Totals.TotalExpense, r.Currency)
	if err != nil {
		return err
	}
	net, err := report.FormatCurrency(r.Totals.NetSavings, r.Currency)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Owner\t%s\n", r.OwnerID)
	fmt.Fprintf(w, "Currency\t%s\n", r.Currency)
	fmt.Fprintf(w, "Total income\t%s\n", income)
	fmt.Fprintf(w, "Total expense\t%s\n", expense)
	fmt.Fprintf(w, "Net savings\t%s\n", net)

	if len(r.Categories) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Category\tIncome\tExpense")
		for _, c := range r.Categories {
			fmt.Fprintf(w, "%s\t%s\t%s\n", c.Category, c.Income.StringFixed(2), c.Expense.StringFixed(2))
		}
	}
	if len(r.Budgets) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Budget\tLimit\tSpent\tProgress %\tNear limit")
		for _, b := range r.Budgets {
			if b.Err != "" {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", b.Budget.Category, b.Budget.Amount.StringFixed(2), b.Budget.Spent.StringFixed(2), b.Err)
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", b.Budget.Category, b.Budget.Amount.StringFixed(2),
				b.Budget.Spent.StringFixed(2), b.Progress.StringFixed(0), b.NearLimit)
		}
	}
	if len(r.Skipped) > 0 {
		fmt.Fprintf(w, "\nSkipped records\t%d\n", len(r.Skipped))
	}
	return w.Flush()
}

func printChart(out io.Writer, c report.Chart) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "\nChart\t%s by %s\n", c.Kind, c.XKey)
	for i, label := range c.Labels {
		fmt.Fprintf(w, "%s\t%s\t%s\n", label, c.Income[i].StringFixed(2), c.Expense[i].StringFixed(2))
	}
	return w.Flush()
}

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/yourusername/kalshi-analyzer/internal/calculator"
	"github.com/yourusername/kalshi-analyzer/internal/models"
)

// renderResult prints the dashboard columns for each outcome followed by totals
func renderResult(w io.Writer, r calculator.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "OUTCOME\tMARKET\tODD\tSTAKE\tRETURN\tCOMMISSION %\tNET RETURN\tPROFIT\t")
	for _, o := range calculator.Outcomes {
		leg := r.Legs.Get(o)
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t\n",
			o, leg.Source, leg.Odd, leg.Stake, leg.GrossReturn, leg.CommissionRate, leg.NetReturn, leg.NetProfit)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	zebra := "-"
	if r.Zebra != nil {
		zebra = r.Zebra.String()
	}
	fmt.Fprintf(w, "\nTotal stake: %.2f  Max loss: %.2f  Policy: %s  Zebra: %s  AH0 hedge: %t\n",
		r.TotalStake, r.MaxLoss, r.Policy, zebra, r.HedgeUsed)
	return nil
}

// renderEvents prints one row per event with its Kalshi probabilities
func renderEvents(w io.Writer, events []models.Event) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTART\tLEAGUE\tHOME\tAWAY\tP(HOME)\tP(DRAW)\tP(AWAY)")
	for _, ev := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.2f\t%.2f\t%.2f\n",
			ev.ID, ev.StartTime.Format("2006-01-02 15:04"), ev.League, ev.HomeTeam, ev.AwayTeam,
			ev.KalshiProbs.Home, ev.KalshiProbs.Draw, ev.KalshiProbs.Away)
	}
	return tw.Flush()
}

package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/cardkeeper/internal/client/models"
	"github.com/dmitrijs2005/cardkeeper/internal/client/session"
)

// Cards prints the wallet with totals.
func (a *App) Cards(ctx context.Context) error {
	data, err := a.wallet.Load(ctx)
	if err != nil {
		return err
	}
	if a.session.State() == session.LoggedOut {
		fmt.Fprintln(a.out, "Guest wallet (stored on this device only)")
	}
	if len(data.Cards) == 0 {
		fmt.Fprintln(a.out, "No cards yet, add one with 'addcard'")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCARD\tNUMBER\tBALANCE\tLIMIT\tUSED\tDUE")
	for _, c := range data.Cards {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%.2f\t%.0f%%\t%s\n",
			c.ID, cardTitle(c), maskLastFour(c.LastFour), c.Balance, c.CreditLimit, c.Utilization()*100, dayOrDash(c.DueDay))
	}
	fmt.Fprintf(tw, "\t\t\t%.2f\t%.2f\t\t\n", data.TotalBalance(), data.TotalLimit())
	return tw.Flush()
}

// AddCard prompts for the card fields and stores the card.
func (a *App) AddCard(ctx context.Context) error {
	var (
		c   models.Card
		err error
	)
	if c.Issuer, err = getSimpleText(a.reader, "Issuer (bank)", a.out); err != nil {
		return err
	}
	if c.Name, err = getSimpleText(a.reader, "Card name", a.out); err != nil {
		return err
	}
	if c.LastFour, err = getSimpleText(a.reader, "Last four digits (optional)", a.out); err != nil {
		return err
	}
	if c.CreditLimit, err = GetNumber(a.reader, "Credit limit", a.out); err != nil {
		return err
	}
	if c.Balance, err = GetNumber(a.reader, "Current balance", a.out); err != nil {
		return err
	}
	if c.StatementDay, err = GetInt(a.reader, "Statement day (1-31, optional)", a.out); err != nil {
		return err
	}
	if c.DueDay, err = GetInt(a.reader, "Due day (1-31, optional)", a.out); err != nil {
		return err
	}
	if c.AnnualFee, err = GetNumber(a.reader, "Annual fee", a.out); err != nil {
		return err
	}
	if c.Notes, err = GetMultiline(a.reader, "Notes", a.out); err != nil {
		return err
	}

	added, err := a.wallet.AddCard(ctx, c)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Card %s added\n", added.ID)
	return nil
}

func (a *App) RemoveCard(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: rmcard <id>", errUsage)
	}
	if err := a.wallet.RemoveCard(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Card removed")
	return nil
}

func (a *App) Sync(ctx context.Context) error {
	if err := a.wallet.Sync(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Synced")
	return nil
}

func cardTitle(c models.Card) string {
	switch {
	case c.Issuer == "":
		return c.Name
	case c.Name == "":
		return c.Issuer
	}
	return c.Issuer + " " + c.Name
}

func maskLastFour(s string) string {
	if s == "" {
		return "-"
	}
	return "**** " + s
}

func dayOrDash(d int) string {
	if d == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", d)
}

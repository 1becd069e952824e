// Package models defines the client-side wallet document and the profile
// types shared by the session, sync and service layers.
package models

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrCardNotFound = errors.New("card not found")
	ErrInvalidCard  = errors.New("invalid card")
)

// Card is a single credit card in the wallet.
type Card struct {
	ID           string  `json:"id"`
	Issuer       string  `json:"issuer"`
	Name         string  `json:"name"`
	LastFour     string  `json:"lastFour"`
	CreditLimit  float64 `json:"creditLimit"`
	Balance      float64 `json:"balance"`
	StatementDay int     `json:"statementDay"`
	DueDay       int     `json:"dueDay"`
	AnnualFee    float64 `json:"annualFee"`
	Notes        string  `json:"notes,omitempty"`
}

// Validate checks the fields a card must have before it is stored.
// Day fields are optional (0) or a day of month.
func (c Card) Validate() error {
	if strings.TrimSpace(c.Issuer) == "" && strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: issuer or name is required", ErrInvalidCard)
	}
	if c.LastFour != "" {
		if len(c.LastFour) != 4 || strings.Trim(c.LastFour, "0123456789") != "" {
			return fmt.Errorf("%w: last four must be 4 digits", ErrInvalidCard)
		}
	}
	for name, d := range map[string]int{"statement day": c.StatementDay, "due day": c.DueDay} {
		if d < 0 || d > 31 {
			return fmt.Errorf("%w: %s out of range", ErrInvalidCard, name)
		}
	}
	if c.CreditLimit < 0 || c.AnnualFee < 0 {
		return fmt.Errorf("%w: negative amount", ErrInvalidCard)
	}
	return nil
}

// Utilization is balance over limit, or 0 when there is no limit.
func (c Card) Utilization() float64 {
	if c.CreditLimit <= 0 {
		return 0
	}
	return c.Balance / c.CreditLimit
}

type NotificationSettings struct {
	Enabled            bool `json:"enabled"`
	DaysBeforeDue      int  `json:"daysBeforeDue"`
	StatementReminders bool `json:"statementReminders"`
}

// AISettings is carried opaquely; nothing in the client talks to a provider.
type AISettings struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	APIKey   string `json:"apiKey"`
}

// UserData is the whole wallet. It is encrypted and stored as one blob.
type UserData struct {
	Cards      []Card               `json:"cards"`
	Settings   NotificationSettings `json:"settings"`
	AISettings AISettings           `json:"aiSettings"`
}

func DefaultSettings() NotificationSettings {
	return NotificationSettings{Enabled: false, DaysBeforeDue: 3, StatementReminders: false}
}

// NewUserData returns an empty wallet with default settings.
func NewUserData() *UserData {
	return &UserData{
		Cards:    []Card{},
		Settings: DefaultSettings(),
	}
}

// Normalize replaces a nil card list with an empty one so the document
// always serializes "cards" as an array.
func (d *UserData) Normalize() {
	if d.Cards == nil {
		d.Cards = []Card{}
	}
}

func (d *UserData) FindCard(id string) (Card, bool) {
	i := d.indexOf(id)
	if i < 0 {
		return Card{}, false
	}
	return d.Cards[i], true
}

// AddCard validates c, assigns an id when it has none and appends it.
// An existing card with the same id is replaced in place.
func (d *UserData) AddCard(c Card) (Card, error) {
	if err := c.Validate(); err != nil {
		return Card{}, err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if i := d.indexOf(c.ID); i >= 0 {
		d.Cards[i] = c
		return c, nil
	}
	d.Cards = append(d.Cards, c)
	return c, nil
}

func (d *UserData) RemoveCard(id string) error {
	i := d.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrCardNotFound, id)
	}
	d.Cards = slices.Delete(d.Cards, i, i+1)
	return nil
}

func (d *UserData) TotalBalance() float64 {
	var sum float64
	for _, c := range d.Cards {
		sum += c.Balance
	}
	return sum
}

func (d *UserData) TotalLimit() float64 {
	var sum float64
	for _, c := range d.Cards {
		sum += c.CreditLimit
	}
	return sum
}

func (d *UserData) indexOf(id string) int {
	return slices.IndexFunc(d.Cards, func(c Card) bool { return c.ID == id })
}

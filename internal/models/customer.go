package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AnonymousCustomerName is shown for orders placed without a name.
const AnonymousCustomerName = "Guest"

// CustomerIdentity is the optional name/phone fragment supplied with an order.
type CustomerIdentity struct {
	FullName string
	Phone    string
}

// NormalizePhone strips every non-digit character.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MatchKey is the normalized phone used to match returning customers. Empty means anonymous.
func (id CustomerIdentity) MatchKey() string {
	return NormalizePhone(id.Phone)
}

// DisplayName is the trimmed name or the anonymous placeholder.
func (id CustomerIdentity) DisplayName() string {
	if name := strings.TrimSpace(id.FullName); name != "" {
		return name
	}
	return AnonymousCustomerName
}

// DisplayPhone is the trimmed phone as entered, empty when it carries no digits.
func (id CustomerIdentity) DisplayPhone() string {
	if id.MatchKey() == "" {
		return ""
	}
	return strings.TrimSpace(id.Phone)
}

// NewCustomerFromOrder creates the customer record for a first order.
func NewCustomerFromOrder(id CustomerIdentity, orderTotal decimal.Decimal, at time.Time) Customer {
	return Customer{
		ID:              uuid.New().String(),
		FullName:        id.DisplayName(),
		Phone:           id.DisplayPhone(),
		PhoneNormalized: id.MatchKey(),
		TotalSpend:      orderTotal,
		VisitCount:      1,
		LastOrderAt:     at,
		Revision:        1,
	}
}

// RecordOrder folds a new order into a returning customer. The most recently supplied
// name and phone win; an order without a name keeps the stored one.
func (c *Customer) RecordOrder(id CustomerIdentity, orderTotal decimal.Decimal, at time.Time) {
	c.VisitCount++
	c.TotalSpend = c.TotalSpend.Add(orderTotal)
	c.LastOrderAt = at
	if name := strings.TrimSpace(id.FullName); name != "" {
		c.FullName = name
	}
	c.Phone = id.DisplayPhone()
	c.Revision++
}

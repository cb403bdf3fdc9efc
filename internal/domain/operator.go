package domain

import "strings"

// AllCompanies in an operator's company list grants access to every company.
const AllCompanies = "*"

// Operator is an authenticated user of the ledger desk.
type Operator struct {
	ID        string
	Name      string
	Companies []string
}

// Allows reports whether the operator may read or write company's books.
// Company names match exactly after trimming, as transactions are
// partitioned by company.
func (o *Operator) Allows(company string) bool {
	company = strings.TrimSpace(company)
	for _, c := range o.Companies {
		c = strings.TrimSpace(c)
		if c == AllCompanies || (c != "" && c == company) {
			return true
		}
	}
	return false
}

package client

import "strings"

type OpportunityStatus string

const (
	OpportunityWon     OpportunityStatus = "WON"
	OpportunityLost    OpportunityStatus = "LOST"
	OpportunityUnknown OpportunityStatus = "UNKNOWN"
)

type OpportunityMapper struct {
	table map[string]OpportunityStatus
}

func NewOpportunityMapper() OpportunityMapper {
	return OpportunityMapper{
		table: map[string]OpportunityStatus{
			"won":     OpportunityWon,
			"lost":    OpportunityLost,
			"unknown": OpportunityUnknown,
		},
	}
}

// Map devolve UNKNOWN para qualquer status fora da tabela.
func (m OpportunityMapper) Map(raw string) OpportunityStatus {
	if s, ok := m.table[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s
	}
	return OpportunityUnknown
}

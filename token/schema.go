package token

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
)

const (
	MinSymbolLen = 1
	MaxSymbolLen = 128
)

var symbolPattern = regexp.MustCompile(`^[\w-]+$`)

// ValidateSymbol checks a token symbol's length and alphabet.
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("%w: token symbol is not defined", ErrInvalidSymbol)
	}
	if len(symbol) < MinSymbolLen || len(symbol) > MaxSymbolLen {
		return fmt.Errorf("%w: length must be between %d and %d, received %q",
			ErrInvalidSymbol, MinSymbolLen, MaxSymbolLen, symbol)
	}
	if !symbolPattern.MatchString(symbol) {
		return fmt.Errorf("%w: %q must contain only alphanumeric characters, '-' or '_'", ErrInvalidSymbol, symbol)
	}
	return nil
}

// Schema describes a token. It is serialised as JSON into the contract output.
type Schema struct {
	Name         string         `json:"name"`
	TokenID      string         `json:"tokenId"` // issuer public key hash, hex
	ProtocolID   string         `json:"protocolId"`
	Symbol       string         `json:"symbol"`
	Description  string         `json:"description,omitempty"`
	Image        string         `json:"image,omitempty"`
	TotalSupply  uint64         `json:"totalSupply"`
	Decimals     uint32         `json:"decimals"`
	SatsPerToken uint64         `json:"satsPerToken"`
	Properties   map[string]any `json:"properties,omitempty"`
}

// DefaultSchema returns the stock schema used as a starting point for new tokens.
func DefaultSchema() Schema {
	return Schema{
		Name:         "Test Token",
		ProtocolID:   string(STAS20),
		Symbol:       "TESTTOKEN001",
		Description:  "This is a test token",
		Image:        "Some Image URL",
		TotalSupply:  10,
		Decimals:     0,
		SatsPerToken: 1,
		Properties: map[string]any{
			"legal": map[string]any{
				"terms":     "STAS, Inc. retains all rights to the token script. Use is subject to terms at https://stastoken.com/license.",
				"licenceId": "stastoken.com",
			},
			"issuer": map[string]any{
				"organisation":  "string",
				"legalForm":     "string",
				"governingLaw":  "string",
				"issuerCountry": "string",
				"jurisdiction":  "string",
				"email":         "string",
			},
			"meta": map[string]any{
				"schemaId": "STAS1.0",
				"website":  "string",
				"legal":    map[string]any{"terms": "string"},
				"media": []any{
					map[string]any{"URI": "string", "type": "string", "altURI": "string"},
				},
			},
		},
	}
}

// Validate checks the required schema fields.
func (s *Schema) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: token schema is not defined", ErrInvalidSchema)
	}
	if s.Symbol == "" {
		return fmt.Errorf("%w: symbol must be a non-empty string", ErrInvalidSchema)
	}
	if s.SatsPerToken == 0 {
		return fmt.Errorf("%w: satsPerToken must be greater than 0", ErrInvalidSchema)
	}
	if s.TokenID == "" {
		return fmt.Errorf("%w: tokenId must be a non-empty string", ErrInvalidSchema)
	}
	if s.TotalSupply == 0 {
		return fmt.Errorf("%w: totalSupply must be greater than 0", ErrInvalidSchema)
	}
	return nil
}

// ContractSymbol returns the symbol from the JSON schema embedded in a
// contract output script. ok is false when no schema or symbol is present.
func ContractSymbol(contractScript []byte) (symbol string, ok bool) {
	start := bytes.Index(contractScript, []byte(`{"`))
	if start < 0 {
		return "", false
	}
	var schema struct {
		Symbol string `json:"symbol"`
	}
	if err := json.Unmarshal(contractScript[start:], &schema); err != nil || schema.Symbol == "" {
		return "", false
	}
	return schema.Symbol, true
}

// Package ofx parses OFX/QFX bank exports into transactions, assigning
// each an extraction confidence based on field completeness.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/ledgerlens/ledgerlens/internal/model"
)

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// preprocessOFX fixes common formatting issues in OFX files before
// handing them to ofxgo: leading whitespace, mixed-case SEVERITY values,
// and SGML-style tags missing their closing bracket.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)
	content = tagFixRegex.ReplaceAllString(content, "$1>")
	return content
}

// ParseFile parses an OFX/QFX file and returns transactions from every
// bank and credit card statement it contains.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]model.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var transactions []model.Transaction
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			if stmt.BankTranList == nil {
				continue
			}
			for _, ofxTx := range stmt.BankTranList.Transactions {
				transactions = append(transactions, p.convertTransaction(ofxTx))
			}
		}
	}

	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			if stmt.BankTranList == nil {
				continue
			}
			for _, ofxTx := range stmt.BankTranList.Transactions {
				transactions = append(transactions, p.convertTransaction(ofxTx))
			}
		}
	}

	slog.Info("Parsed OFX file",
		"total_transactions", len(transactions),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return transactions, nil
}

// convertTransaction maps an OFX transaction onto the internal model.
// OFX amounts are already signed (negative = debit), which matches the
// model's convention.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction) model.Transaction {
	amount, _ := ofxTx.TrnAmt.Float64()

	txnType := model.TypeCredit
	if amount < 0 {
		txnType = model.TypeDebit
	}

	tx := model.Transaction{
		ID:              string(ofxTx.FiTID),
		Date:            ofxTx.DtPosted.Time,
		Description:     string(ofxTx.Name),
		MerchantName:    p.extractMerchantName(ofxTx),
		ReferenceNumber: string(ofxTx.RefNum),
		CheckNumber:     string(ofxTx.CheckNum),
		Amount:          amount,
		Type:            txnType,
	}
	tx.ExtractionConfidence = extractionConfidence(tx)

	return tx
}

// extractionConfidence scores how completely the source record was
// extracted. A fully populated record scores 0.95; missing or generic
// fields lower the score.
func extractionConfidence(tx model.Transaction) float64 {
	confidence := 0.95
	if tx.ID == "" {
		confidence -= 0.3
	}
	if tx.Date.IsZero() {
		confidence -= 0.3
	}
	if tx.Amount == 0 {
		confidence -= 0.2
	}
	if strings.TrimSpace(tx.Description) == "" || isGenericDescription(tx.Description) {
		confidence -= 0.15
	}
	if tx.MerchantName == "" {
		confidence -= 0.05
	}
	if confidence < 0 {
		confidence = 0
	}
	return confidence
}

// extractMerchantName tries to get a clean merchant name from OFX data.
func (p *Parser) extractMerchantName(tx ofxgo.Transaction) string {
	// Prefer PAYEE if available (cleaner merchant name)
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := string(tx.Name)

	// Sometimes MEMO has better merchant info
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}

	name = strings.TrimSpace(name)

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Strip leading "MM/DD " date patterns
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

// isGenericDescription checks if a transaction name is too generic to
// identify a merchant.
func isGenericDescription(name string) bool {
	generic := []string{
		"DEBIT",
		"CREDIT",
		"PURCHASE",
		"PAYMENT",
		"POS TRANSACTION",
		"CARD PURCHASE",
	}
	upperName := strings.ToUpper(strings.TrimSpace(name))
	for _, g := range generic {
		if upperName == g {
			return true
		}
	}
	return false
}

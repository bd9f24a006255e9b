package ofx

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerlens/ledgerlens/internal/model"
)

// Sample OFX data for testing.
const sampleBankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20260315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20260101120000[0:GMT]
<DTEND>20260131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20260115120000[0:GMT]
<TRNAMT>-25.50
<FITID>2026011501
<NAME>STARBUCKS STORE #1234
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20260120120000[0:GMT]
<TRNAMT>1250.00
<FITID>2026012001
<NAME>ACME CORP PAYROLL
</STMTTRN>
<STMTTRN>
<TRNTYPE>CHECK
<DTPOSTED>20260125120000[0:GMT]
<TRNAMT>-500.00
<FITID>2026012501
<CHECKNUM>1234
<NAME>CHECK #1234
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20260131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const sampleCreditCardOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20260315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>USD
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20260101120000[0:GMT]
<DTEND>20260131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20260110120000[0:GMT]
<TRNAMT>-45.99
<FITID>CC2026011001
<NAME>AMAZON.COM*RT4Y7HG2
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20260115120000[0:GMT]
<TRNAMT>-15.00
<FITID>CC2026011501
<NAME>NETFLIX.COM
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-500.00
<DTASOF>20260131120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestParseFile(t *testing.T) {
	tests := []struct {
		name          string
		ofxData       string
		expectedCount int
		expectedError bool
	}{
		{
			name:          "valid bank statement",
			ofxData:       sampleBankOFX,
			expectedCount: 3,
		},
		{
			name:          "valid credit card statement",
			ofxData:       sampleCreditCardOFX,
			expectedCount: 2,
		},
		{
			name:          "invalid OFX data",
			ofxData:       "not valid OFX",
			expectedError: true,
		},
		{
			name:          "empty OFX",
			ofxData:       "",
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewParser()
			reader := strings.NewReader(tt.ofxData)

			transactions, err := parser.ParseFile(context.Background(), reader)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Len(t, transactions, tt.expectedCount)
			}
		})
	}
}

func TestParseBankTransactions(t *testing.T) {
	parser := NewParser()
	reader := strings.NewReader(sampleBankOFX)

	transactions, err := parser.ParseFile(context.Background(), reader)
	require.NoError(t, err)
	require.Len(t, transactions, 3)

	// Debits keep the OFX sign
	tx1 := transactions[0]
	assert.Equal(t, "2026011501", tx1.ID)
	assert.Equal(t, "STARBUCKS STORE #1234", tx1.Description)
	assert.Equal(t, "STARBUCKS STORE #1234", tx1.MerchantName) // No PAYEE, so uses NAME
	assert.InDelta(t, -25.50, tx1.Amount, 1e-9)
	assert.Equal(t, model.TypeDebit, tx1.Type)
	assert.InDelta(t, 0.95, tx1.ExtractionConfidence, 1e-9)
	// Compare just the date components, ignoring timezone
	assert.Equal(t, 2026, tx1.Date.Year())
	assert.Equal(t, time.January, tx1.Date.Month())
	assert.Equal(t, 15, tx1.Date.Day())

	tx2 := transactions[1]
	assert.Equal(t, "2026012001", tx2.ID)
	assert.InDelta(t, 1250.00, tx2.Amount, 1e-9)
	assert.Equal(t, model.TypeCredit, tx2.Type)

	tx3 := transactions[2]
	assert.Equal(t, "2026012501", tx3.ID)
	assert.Equal(t, "1234", tx3.CheckNumber)
	assert.InDelta(t, -500.00, tx3.Amount, 1e-9)
	assert.Equal(t, model.TypeDebit, tx3.Type)
}

func TestParseCreditCardTransactions(t *testing.T) {
	parser := NewParser()
	reader := strings.NewReader(sampleCreditCardOFX)

	transactions, err := parser.ParseFile(context.Background(), reader)
	require.NoError(t, err)
	require.Len(t, transactions, 2)

	tx1 := transactions[0]
	assert.Equal(t, "CC2026011001", tx1.ID)
	assert.Equal(t, "AMAZON.COM*RT4Y7HG2", tx1.Description)
	assert.InDelta(t, -45.99, tx1.Amount, 1e-9)
	assert.Equal(t, model.TypeDebit, tx1.Type)

	tx2 := transactions[1]
	assert.Equal(t, "CC2026011501", tx2.ID)
	assert.Equal(t, "NETFLIX.COM", tx2.Description)
}

func TestExtractMerchantName(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "remove POS prefix",
			input:    "POS PURCHASE STARBUCKS",
			expected: "STARBUCKS",
		},
		{
			name:     "remove DEBIT CARD prefix",
			input:    "DEBIT CARD PURCHASE WHOLE FOODS",
			expected: "WHOLE FOODS",
		},
		{
			name:     "strip leading date",
			input:    "03/14 TRADER JOES #55",
			expected: "TRADER JOES #55",
		},
		{
			name:     "keep clean name",
			input:    "NETFLIX.COM",
			expected: "NETFLIX.COM",
		},
		{
			name:     "trim whitespace",
			input:    "  AMAZON.COM  ",
			expected: "AMAZON.COM",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := ofxgo.Transaction{
				Name: ofxgo.String(tt.input),
			}
			result := parser.extractMerchantName(tx)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestExtractMerchantNamePrefersPayee(t *testing.T) {
	parser := NewParser()

	tx := ofxgo.Transaction{
		Name:  ofxgo.String("POS PURCHASE 1234"),
		Payee: &ofxgo.Payee{Name: ofxgo.String("Trader Joes")},
	}
	assert.Equal(t, "Trader Joes", parser.extractMerchantName(tx))
}

func TestExtractMerchantNameFallsBackToMemo(t *testing.T) {
	parser := NewParser()

	tx := ofxgo.Transaction{
		Name: ofxgo.String("DEBIT"),
		Memo: ofxgo.String("SHELL OIL 5573"),
	}
	assert.Equal(t, "SHELL OIL 5573", parser.extractMerchantName(tx))
}

func TestExtractionConfidence(t *testing.T) {
	full := model.Transaction{
		ID:           "tx-1",
		Date:         time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Description:  "STARBUCKS STORE #1234",
		MerchantName: "Starbucks",
		Amount:       -25.50,
	}

	tests := []struct {
		name   string
		mutate func(*model.Transaction)
		want   float64
	}{
		{name: "complete record", mutate: func(*model.Transaction) {}, want: 0.95},
		{name: "missing id", mutate: func(tx *model.Transaction) { tx.ID = "" }, want: 0.65},
		{name: "zero date", mutate: func(tx *model.Transaction) { tx.Date = time.Time{} }, want: 0.65},
		{name: "zero amount", mutate: func(tx *model.Transaction) { tx.Amount = 0 }, want: 0.75},
		{name: "generic description", mutate: func(tx *model.Transaction) { tx.Description = "DEBIT" }, want: 0.80},
		{name: "no merchant", mutate: func(tx *model.Transaction) { tx.MerchantName = "" }, want: 0.90},
		{
			name: "nearly empty record",
			mutate: func(tx *model.Transaction) {
				tx.ID = ""
				tx.Date = time.Time{}
				tx.Amount = 0
				tx.Description = ""
				tx.MerchantName = ""
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := full
			tt.mutate(&tx)
			assert.InDelta(t, tt.want, extractionConfidence(tx), 1e-9)
		})
	}
}

func TestIsGenericDescription(t *testing.T) {
	assert.True(t, isGenericDescription("DEBIT"))
	assert.True(t, isGenericDescription("  purchase  "))
	assert.False(t, isGenericDescription("STARBUCKS STORE #1234"))
	assert.False(t, isGenericDescription("DEBIT CARD PURCHASE STARBUCKS"))
}

func TestPreprocessOFX(t *testing.T) {
	input := "  \n<OFX>\n<SEVERITY>Info</SEVERITY>\n<DTSERVER\n</OFX>"
	got := NewParser().preprocessOFX(input)

	assert.True(t, strings.HasPrefix(got, "<OFX>"))
	assert.Contains(t, got, "<SEVERITY>INFO</SEVERITY>")
	assert.Contains(t, got, "<DTSERVER>")
}

func TestParseFileCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewParser().ParseFile(ctx, strings.NewReader(sampleBankOFX))
	assert.Error(t, err)
}

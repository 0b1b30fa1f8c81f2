package llm

import "strings"

// BuildSystemPrompt sets the extraction contract. The digit-accuracy wording
// is intentional: statement parsing fails silently when the model pulls the
// running balance or a reference code instead of the transaction amount.
func BuildSystemPrompt() string {
	parts := []string{
		"You are a bank statement parser. Return ONLY JSON that matches the JSON Schema provided.",
		"You have zero tolerance for digit errors: copy every amount digit-for-digit from the text, never round, never invent.",
		"Each input line starts with its line number followed by a period; report that number as lineIndex.",
		"Use ISO-8601 dates (YYYY-MM-DD). Resolve day-and-month rows using the statement period or year printed elsewhere in the text.",
		"Currency must be a 3-letter ISO 4217 code.",
		"Report direction as 'debit' for money leaving the account and 'credit' for money arriving, when the statement makes it clear.",
		"Skip headers, footers, totals, summary rows, and rows that are only [REDACTED].",
		"Never output null. If an optional field is not present, omit it.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt wraps one prepared chunk with the amount-selection
// rulebook and worked examples.
func BuildUserPrompt(preparedText string) string {
	var b strings.Builder
	b.WriteString("Extract every transaction from the numbered statement text below.\n\n")
	b.WriteString("Rules for picking the amount on a line with several numbers:\n")
	b.WriteString("- Transaction amounts have exactly two decimal places.\n")
	b.WriteString("- Long digit runs with no decimal point are reference codes, not amounts. They often follow a dash.\n")
	b.WriteString("- When a line ends with two money values, the last (usually largest) is the running balance; take the one before it.\n")
	b.WriteString("- On foreign-exchange lines, take the amount charged to the account, not the intermediate foreign amount.\n\n")
	b.WriteString("Worked examples:\n")
	b.WriteString("- '16 Apr ATMwithdrawal - TQ242986 880.00 1,103.38': amount is 880.00. TQ242986 is a reference code and 1,103.38 is the balance.\n")
	b.WriteString("- '03 May POS purchase GROCER 45.10 1,058.28': amount is 45.10.\n")
	b.WriteString("- '12 May FX purchase 25.00 EUR @ 1.4820 37.05 921.23': amount is 37.05, the settled charge.\n\n")
	b.WriteString("Statement text:\n")
	b.WriteString(preparedText)
	return b.String()
}

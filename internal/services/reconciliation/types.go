package reconciliation

// Config holds reconciliation batch configuration.
type Config struct {
	BatchSize int
}

// DefaultBatchSize bounds work per run.
const DefaultBatchSize = 100

// Result reports one transaction's reconciliation outcome. Reconciled is
// true when local state already matched or was corrected; a discrepancy
// means the processor reported something we refuse to apply.
type Result struct {
	TransactionID string `json:"transaction_id"`
	Reconciled    bool   `json:"reconciled"`
	Changed       bool   `json:"changed"`
	FromState     string `json:"from_state,omitempty"`
	ToState       string `json:"to_state,omitempty"`
	Discrepancy   string `json:"discrepancy,omitempty"`
}

// RunSummary aggregates a reconciliation pass.
type RunSummary struct {
	Checked    int      `json:"checked"`
	Reconciled int      `json:"reconciled"`
	Discrepant int      `json:"discrepant"`
	Errors     []string `json:"errors,omitempty"`
}

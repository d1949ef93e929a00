package bot

// State is the controller's position in the banking loop. Exactly one
// state is active at a time; transitions happen only on the tick loop.
type State int

const (
	Idle State = iota
	Traveling
	BankOpening
	BankDepositing
	BankIdentifying
	BankWithdrawing
	BankClosing
	Processing
	Recovering
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Traveling:
		return "traveling"
	case BankOpening:
		return "bank_opening"
	case BankDepositing:
		return "bank_depositing"
	case BankIdentifying:
		return "bank_identifying"
	case BankWithdrawing:
		return "bank_withdrawing"
	case BankClosing:
		return "bank_closing"
	case Processing:
		return "processing"
	case Recovering:
		return "recovering"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

package models

// Status values. Custom requests use Approved/Rejected, borrow requests
// approved/Rejected/returned; the casing is what clients already store.
const (
	StatusPending        = "pending"
	StatusApproved       = "Approved"
	StatusRejected       = "Rejected"
	StatusBorrowApproved = "approved"
	StatusReturned       = "returned"
)

// Transition moves a request from one of From to To and stamps the time in Stamp.
type Transition struct {
	Name  string
	From  []string
	To    string
	Stamp string
	// Decision marks approve/reject transitions, which notify the requester.
	Decision bool
}

var (
	ApproveCustom = Transition{Name: "approve", From: []string{StatusPending}, To: StatusApproved, Stamp: "Approval_date", Decision: true}
	RejectCustom  = Transition{Name: "reject", From: []string{StatusPending}, To: StatusRejected, Stamp: "reject_date", Decision: true}

	ApproveBorrow = Transition{Name: "approve", From: []string{StatusPending}, To: StatusBorrowApproved, Stamp: "Approval_date", Decision: true}
	RejectBorrow  = Transition{Name: "reject", From: []string{StatusPending}, To: StatusRejected, Stamp: "reject_date", Decision: true}
	ReturnBorrow  = Transition{Name: "return", From: []string{StatusBorrowApproved}, To: StatusReturned, Stamp: "Return_date"}
)

// Allows reports whether t may start from status. An empty status is pending.
func (t Transition) Allows(status string) bool {
	if status == "" {
		status = StatusPending
	}
	for _, s := range t.From {
		if s == status {
			return true
		}
	}
	return false
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// KYCStatus is the review state of a KYC request or a user's KYC standing
type KYCStatus string

const (
	KYCNone        KYCStatus = "none"
	KYCPending     KYCStatus = "pending"
	KYCApproved    KYCStatus = "approved"
	KYCRejected    KYCStatus = "rejected"
	KYCNotRequired KYCStatus = "not_required"
)

// KYCRequest is a submitted identity verification
type KYCRequest struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Country      string     `json:"country"`
	Phone        string     `json:"phone"`
	Address      string     `json:"address"`
	DocumentType string     `json:"document_type"`
	Documents    []string   `json:"documents"`
	Status       KYCStatus  `json:"status"`
	Reason       string     `json:"reason,omitempty"`
	SubmittedAt  time.Time  `json:"submitted_at"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
}

// UserKYC is a single user's KYC standing
type UserKYC struct {
	UserID    string    `json:"user_id"`
	Status    KYCStatus `json:"status"`
	RequestID string    `json:"request_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AccountStatus is the administrative state of a user account
type AccountStatus string

const (
	AccountActive    AccountStatus = "active"
	AccountSuspended AccountStatus = "suspended"
	AccountDeleted   AccountStatus = "deleted"
)

// UserAccount is a wallet user as seen by the back-office
type UserAccount struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Country   string          `json:"country"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	KYCStatus KYCStatus       `json:"kyc_status"`
	Status    AccountStatus   `json:"status"`
	JoinedAt  time.Time       `json:"joined_at"`
}

// Transaction is a wallet movement shown in the back-office ledger
type Transaction struct {
	ID        string          `json:"id"`
	User      string          `json:"user"`
	UserEmail string          `json:"user_email"`
	Type      string          `json:"type"` // "P2P Transfer", "Deposit", "Withdrawal"
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Status    string          `json:"status"` // "Completed", "Pending", "Failed"
	Date      time.Time       `json:"date"`
	Reference string          `json:"reference"`
}

// DisputeStatus is the review state of a dispute case
type DisputeStatus string

const (
	DisputeOpen        DisputeStatus = "open"
	DisputeUnderReview DisputeStatus = "under_review"
	DisputeResolved    DisputeStatus = "resolved"
	DisputeEscalated   DisputeStatus = "escalated"
)

// Party is one side of a dispute
type Party struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Dispute is a back-office dispute case
type Dispute struct {
	ID          string          `json:"id"`
	TradeID     string          `json:"trade_id"`
	InitiatedBy Party           `json:"initiated_by"`
	Respondent  Party           `json:"respondent"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Status      DisputeStatus   `json:"status"`
	Priority    string          `json:"priority"` // low, medium, high
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Resolution  string          `json:"resolution,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	LastUpdate  time.Time       `json:"last_update"`
}

// MerchantStatus is the verification state of a merchant
type MerchantStatus string

const (
	MerchantVerified    MerchantStatus = "verified"
	MerchantPending     MerchantStatus = "pending"
	MerchantUnderReview MerchantStatus = "under_review"
	MerchantSuspended   MerchantStatus = "suspended"
	MerchantRejected    MerchantStatus = "rejected"
)

// Merchant is a business account reviewed by the back-office
type Merchant struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id,omitempty"` // trader account, empty for offline merchants
	BusinessName     string          `json:"business_name"`
	OwnerName        string          `json:"owner_name"`
	Email            string          `json:"email"`
	Country          string          `json:"country"`
	Status           MerchantStatus  `json:"status"`
	Tier             string          `json:"tier"` // standard, premium, enterprise
	TotalTrades      int             `json:"total_trades"`
	TotalVolume      decimal.Decimal `json:"total_volume"`
	Rating           float64         `json:"rating"`
	SuspensionReason string          `json:"suspension_reason,omitempty"`
	RegisteredAt     time.Time       `json:"registered_at"`
}

// ApplicationStatus is a trader's standing in the merchant programme
type ApplicationStatus string

const (
	ApplicationNone      ApplicationStatus = "not_applied"
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationApproved  ApplicationStatus = "approved"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationSuspended ApplicationStatus = "suspended"
)

// MerchantApplication is a trader's view of their merchant record
type MerchantApplication struct {
	UserID     string            `json:"user_id"`
	Status     ApplicationStatus `json:"status"`
	MerchantID string            `json:"merchant_id,omitempty"`
	Reason     string            `json:"reason,omitempty"`
}

// AnnouncementType styles a platform announcement
type AnnouncementType string

const (
	AnnouncementInfo        AnnouncementType = "info"
	AnnouncementWarning     AnnouncementType = "warning"
	AnnouncementSuccess     AnnouncementType = "success"
	AnnouncementMaintenance AnnouncementType = "maintenance"
)

// Valid reports whether t is a known announcement type
func (t AnnouncementType) Valid() bool {
	switch t {
	case AnnouncementInfo, AnnouncementWarning, AnnouncementSuccess, AnnouncementMaintenance:
		return true
	}
	return false
}

// Announcement is a platform-wide notice managed from the admin settings
type Announcement struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      AnnouncementType `json:"type"`
	Active    bool             `json:"active"`
	CreatedAt time.Time        `json:"created_at"`
}

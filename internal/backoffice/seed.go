package backoffice

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xtrntr/p2pdesk/internal/models"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedKYC() kycState {
	return kycState{
		Requests: []models.KYCRequest{
			{
				ID: "KYC001", Name: "John Smith", Email: "john.smith@example.com", Country: "United States",
				Phone: "+1 555 234 8899", Address: "1024 Market Street, San Francisco, CA", DocumentType: "Passport",
				Documents: []string{"passport.pdf", "utility_bill.pdf"}, Status: models.KYCPending,
				SubmittedAt: ts("2024-10-01T14:30:00Z"),
			},
			{
				ID: "KYC002", Name: "Maria Garcia", Email: "maria.garcia@example.com", Country: "Spain",
				Phone: "+34 612 889 004", Address: "Calle de Alcalá 45, Madrid", DocumentType: "National ID",
				Documents: []string{"id_card.pdf", "bank_statement.pdf"}, Status: models.KYCPending,
				SubmittedAt: ts("2024-10-02T09:15:00Z"),
			},
			{
				ID: "KYC003", Name: "David Chen", Email: "david.chen@example.com", Country: "Canada",
				Phone: "+1 604 555 7711", Address: "880 Granville Street, Vancouver, BC", DocumentType: "Driver License",
				Documents: []string{"driver_license.pdf", "proof_of_address.pdf"}, Status: models.KYCPending,
				SubmittedAt: ts("2024-10-03T16:45:00Z"),
			},
		},
		Users: map[string]models.UserKYC{},
	}
}

func seedUsers() []models.UserAccount {
	return []models.UserAccount{
		{ID: "USR001", Name: "John Smith", Email: "john.smith@example.com", Country: "United States", Balance: amt("1500"), Currency: "USD", KYCStatus: models.KYCApproved, Status: models.AccountActive, JoinedAt: ts("2024-01-15T10:30:00Z")},
		{ID: "USR002", Name: "Jane Doe", Email: "jane.doe@example.com", Country: "Nigeria", Balance: amt("250000"), Currency: "NGN", KYCStatus: models.KYCNotRequired, Status: models.AccountActive, JoinedAt: ts("2024-02-20T14:15:00Z")},
		{ID: "USR003", Name: "Mike Johnson", Email: "mike.johnson@example.com", Country: "United Kingdom", Balance: amt("750"), Currency: "GBP", KYCStatus: models.KYCPending, Status: models.AccountSuspended, JoinedAt: ts("2024-03-10T09:45:00Z")},
		{ID: "USR004", Name: "Ahmed Hassan", Email: "ahmed.hassan@example.com", Country: "Nigeria", Balance: amt("500000"), Currency: "NGN", KYCStatus: models.KYCNotRequired, Status: models.AccountActive, JoinedAt: ts("2024-04-05T16:20:00Z")},
	}
}

func seedTransactions() []models.Transaction {
	return []models.Transaction{
		{ID: "TXN001", User: "John Smith", UserEmail: "john.smith@example.com", Type: "P2P Transfer", Amount: amt("500"), Currency: "USD", Status: "Completed", Date: ts("2024-10-05T10:30:00Z"), Reference: "REF001"},
		{ID: "TXN002", User: "Jane Doe", UserEmail: "jane.doe@example.com", Type: "Deposit", Amount: amt("1000"), Currency: "NGN", Status: "Pending", Date: ts("2024-10-05T09:15:00Z"), Reference: "REF002"},
		{ID: "TXN003", User: "Mike Johnson", UserEmail: "mike.johnson@example.com", Type: "Withdrawal", Amount: amt("750"), Currency: "EUR", Status: "Completed", Date: ts("2024-10-05T08:45:00Z"), Reference: "REF003"},
		{ID: "TXN004", User: "Ahmed Hassan", UserEmail: "ahmed.hassan@example.com", Type: "P2P Transfer", Amount: amt("25000"), Currency: "NGN", Status: "Completed", Date: ts("2024-10-04T15:20:00Z"), Reference: "REF004"},
		{ID: "TXN005", User: "Maria Garcia", UserEmail: "maria.garcia@example.com", Type: "Deposit", Amount: amt("2000"), Currency: "EUR", Status: "Failed", Date: ts("2024-10-04T12:10:00Z"), Reference: "REF005"},
	}
}

func seedDisputes() []models.Dispute {
	return []models.Dispute{
		{
			ID: "DSP-001", TradeID: "TRD-12345",
			InitiatedBy: models.Party{ID: "user1", Name: "John Doe"}, Respondent: models.Party{ID: "user2", Name: "Jane Smith"},
			Amount: amt("1500"), Currency: "USDT", Status: models.DisputeOpen, Priority: "high", Category: "payment_issue",
			Description: "Payment was sent but not received by seller",
			CreatedAt:   ts("2024-01-15T10:30:00Z"), LastUpdate: ts("2024-01-15T14:20:00Z"),
		},
		{
			ID: "DSP-002", TradeID: "TRD-12346",
			InitiatedBy: models.Party{ID: "user3", Name: "Mike Johnson"}, Respondent: models.Party{ID: "user4", Name: "Sarah Wilson"},
			Amount: amt("750"), Currency: "USDT", Status: models.DisputeUnderReview, Priority: "medium", Category: "trade_terms",
			Description: "Disagreement over trade terms and conditions",
			CreatedAt:   ts("2024-01-14T15:45:00Z"), LastUpdate: ts("2024-01-15T09:10:00Z"),
		},
		{
			ID: "DSP-003", TradeID: "TRD-12347",
			InitiatedBy: models.Party{ID: "user5", Name: "David Brown"}, Respondent: models.Party{ID: "user6", Name: "Emily Davis"},
			Amount: amt("2200"), Currency: "USDT", Status: models.DisputeResolved, Priority: "low", Category: "account_issue",
			Description: "Account verification problems during trade",
			Resolution:  "Trade completed successfully after account verification",
			CreatedAt:   ts("2024-01-13T11:20:00Z"), LastUpdate: ts("2024-01-14T16:30:00Z"),
		},
		{
			ID: "DSP-004", TradeID: "TRD-12348",
			InitiatedBy: models.Party{ID: "user7", Name: "Lisa Anderson"}, Respondent: models.Party{ID: "user8", Name: "Tom Miller"},
			Amount: amt("900"), Currency: "USDT", Status: models.DisputeEscalated, Priority: "high", Category: "fraud_suspicion",
			Description: "Suspected fraudulent activity in P2P trade",
			CreatedAt:   ts("2024-01-12T14:15:00Z"), LastUpdate: ts("2024-01-15T12:45:00Z"),
		},
	}
}

func seedMerchants() []models.Merchant {
	return []models.Merchant{
		{ID: "MER-001", BusinessName: "CryptoTrade Pro", OwnerName: "John Smith", Email: "john@cryptotradepro.com", Country: "United States", Status: models.MerchantVerified, Tier: "premium", TotalTrades: 1247, TotalVolume: amt("2500000"), Rating: 4.8, RegisteredAt: ts("2023-10-15T10:30:00Z")},
		{ID: "MER-002", BusinessName: "Global Exchange Hub", OwnerName: "Sarah Johnson", Email: "sarah@globalexchange.com", Country: "United Kingdom", Status: models.MerchantPending, Tier: "standard", TotalTrades: 0, TotalVolume: amt("0"), Rating: 0, RegisteredAt: ts("2024-01-10T15:45:00Z")},
		{ID: "MER-003", BusinessName: "Fast Crypto Solutions", OwnerName: "Mike Chen", Email: "mike@fastcrypto.com", Country: "Singapore", Status: models.MerchantSuspended, Tier: "standard", TotalTrades: 856, TotalVolume: amt("1200000"), Rating: 3.2, SuspensionReason: "Multiple compliance violations detected", RegisteredAt: ts("2023-08-20T11:20:00Z")},
		{ID: "MER-004", BusinessName: "Digital Asset Exchange", OwnerName: "Emma Wilson", Email: "emma@digitalasset.com", Country: "Canada", Status: models.MerchantVerified, Tier: "enterprise", TotalTrades: 3421, TotalVolume: amt("8900000"), Rating: 4.9, RegisteredAt: ts("2023-05-12T14:15:00Z")},
		{ID: "MER-005", BusinessName: "Blockchain Traders Inc", OwnerName: "David Rodriguez", Email: "david@blockchaintraders.com", Country: "Spain", Status: models.MerchantUnderReview, Tier: "standard", TotalTrades: 23, TotalVolume: amt("45000"), Rating: 4.1, RegisteredAt: ts("2024-01-08T09:30:00Z")},
		// Desk traders who already post ads.
		{ID: "MER-006", UserID: "trader1", BusinessName: "CryptoKing", OwnerName: "CryptoKing", Email: "cryptoking@p2pdesk.local", Country: "US", Status: models.MerchantVerified, Tier: "premium", TotalTrades: 1247, TotalVolume: amt("0"), Rating: 4.9, RegisteredAt: ts("2023-01-01T00:00:00Z")},
		{ID: "MER-007", UserID: "trader2", BusinessName: "FiatMaster", OwnerName: "FiatMaster", Email: "fiatmaster@p2pdesk.local", Country: "US", Status: models.MerchantVerified, Tier: "premium", TotalTrades: 856, TotalVolume: amt("0"), Rating: 4.8, RegisteredAt: ts("2023-01-01T00:00:00Z")},
		{ID: "MER-008", UserID: "trader3", BusinessName: "SwapWizard", OwnerName: "SwapWizard", Email: "swapwizard@p2pdesk.local", Country: "CN", Status: models.MerchantVerified, Tier: "premium", TotalTrades: 543, TotalVolume: amt("0"), Rating: 4.6, RegisteredAt: ts("2023-01-01T00:00:00Z")},
		{ID: "MER-009", UserID: "trader4", BusinessName: "QuickTrade", OwnerName: "QuickTrade", Email: "quicktrade@p2pdesk.local", Country: "GH", Status: models.MerchantVerified, Tier: "premium", TotalTrades: 324, TotalVolume: amt("0"), Rating: 4.4, RegisteredAt: ts("2023-01-01T00:00:00Z")},
		{ID: "MER-010", UserID: "trader5", BusinessName: "P2PExpert", OwnerName: "P2PExpert", Email: "p2pexpert@p2pdesk.local", Country: "CM", Status: models.MerchantVerified, Tier: "premium", TotalTrades: 2103, TotalVolume: amt("0"), Rating: 4.9, RegisteredAt: ts("2023-01-01T00:00:00Z")},
	}
}

func seedSettings() Settings {
	return Settings{
		Announcements: []models.Announcement{
			{ID: "ANN-001", Title: "Welcome to P2P trading", Message: "Trade crypto directly with verified merchants. Always release funds only after confirming payment.", Type: models.AnnouncementInfo, Active: true, CreatedAt: ts("2024-01-01T00:00:00Z")},
			{ID: "ANN-002", Title: "Scheduled maintenance", Message: "P2P trading will be unavailable for 30 minutes during the weekend upgrade.", Type: models.AnnouncementMaintenance, Active: false, CreatedAt: ts("2024-01-10T09:00:00Z")},
		},
	}
}

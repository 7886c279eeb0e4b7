package domain

import "time"

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationVerified VerificationStatus = "VERIFIED"
	VerificationRejected VerificationStatus = "REJECTED"
)

type Customer struct {
	ID            int32              `json:"id"`
	ShopID        int32              `json:"shop_id"`
	Name          string             `json:"name"`
	Phone         string             `json:"phone"`
	IDProofType   string             `json:"id_proof_type"`
	IDProofNumber string             `json:"id_proof_number"`
	Verification  VerificationStatus `json:"verification"`
	CreatedOn     time.Time          `json:"created_on"`
	UpdatedOn     time.Time          `json:"updated_on"`
}

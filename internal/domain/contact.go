package domain

// Contact is the delivery information for a member, resolved through the
// user directory. ParentEmail is the optional secondary/guardian address
// that also receives event cancellation notices when present.
type Contact struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	ParentEmail string `json:"parent_email,omitempty"`
}

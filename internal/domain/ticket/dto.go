package ticket

// GenerateRequest for POST /tickets/generate. An empty date means today.
type GenerateRequest struct {
	Date string `json:"date" validate:"omitempty,ymd"`
}

// ScanBody for POST /tickets/scan
type ScanBody struct {
	TicketID string `json:"ticketId"`
	Offline  bool   `json:"offline"`
}

// OverrideBody for POST /tickets/override
type OverrideBody struct {
	StudentID int    `json:"studentId" validate:"required,gt=0"`
	Reason    string `json:"reason" validate:"notblank,max=500"`
}

// GenerateResponse reports how many tickets were issued.
type GenerateResponse struct {
	Count   int    `json:"count"`
	Message string `json:"message"`
}

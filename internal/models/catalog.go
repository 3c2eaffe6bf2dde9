package models

// AcademicService is an entry of the service catalog students submit requests against.
type AcademicService struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Category          ServiceCategory `json:"category"`
	ProcessingTime    string          `json:"processingTime"`
	RequiredDocuments []string        `json:"requiredDocuments"`
	IsAvailable       bool            `json:"isAvailable"`
}

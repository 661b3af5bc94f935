// internal/models/query_types.go
package models

type QueryType string

const (
	QueryTypeSearcherProfile   QueryType = "searcher_profile"
	QueryTypeCandidateProfiles QueryType = "candidate_profiles"
	QueryTypeRecipientContact  QueryType = "recipient_contact"
)

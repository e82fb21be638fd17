package request

// SearchUsersRequest finds users by name.
type SearchUsersRequest struct {
	Query string `json:"query" form:"query" binding:"required"`
}

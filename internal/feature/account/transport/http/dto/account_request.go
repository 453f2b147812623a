// Package dto defines the request and response bodies of the account HTTP API.
package dto

// RegisterReq is the body of POST /api/users/register/, sent as JSON or as a urlencoded form.
// Fields are checked by the usecase so that the failure order stays username, email, password.
type RegisterReq struct {
	Email    string `json:"email" form:"email"`
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// LoginReq is the body of POST /api/users/login/.
type LoginReq struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// UpdateProfileReq is the body of PUT /api/users/profile/.
// Only these fields can change; anything else in the body (isAdmin, id) is ignored.
type UpdateProfileReq struct {
	Email    *string `json:"email" form:"email"`
	Username *string `json:"username" form:"username"`
	Password *string `json:"password" form:"password"`
}

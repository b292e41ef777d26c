package users

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type AddUserRequest struct {
	Username string `json:"username"`
}

package models

// ProfileView is the view-model behind GET /profile/:username
type ProfileView struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	Firstname string  `json:"firstname"`
	Lastname  string  `json:"lastname"`
	Email     string  `json:"email"`
	Address   *string `json:"address,omitempty"`
	WordCount int     `json:"word_count"`
	FileName  *string `json:"file_name"`
}

// NewProfileView copies the displayable account fields. The password is left out.
func NewProfileView(u *User) *ProfileView {
	return &ProfileView{
		ID:        u.ID,
		Username:  u.Username,
		Firstname: u.Firstname,
		Lastname:  u.Lastname,
		Email:     u.Email,
		Address:   u.Address,
	}
}

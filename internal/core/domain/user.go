package domain

// User is the record managed by the backing service. JSON names follow the
// backing service payloads.
type User struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	Website  string   `json:"website"`
	Address  *Address `json:"address,omitempty"`
	Company  *Company `json:"company,omitempty"`
}

type Address struct {
	Street  string `json:"street"`
	Suite   string `json:"suite"`
	City    string `json:"city"`
	Zipcode string `json:"zipcode"`
}

type Company struct {
	Name        string `json:"name"`
	CatchPhrase string `json:"catchPhrase"`
	BS          string `json:"bs"`
}

// Draft is the editable subset of a User, as submitted by the user form.
type Draft struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Username string `json:"username"`
	Website  string `json:"website"`
}

// DraftFrom seeds a draft from an existing user.
func DraftFrom(u User) Draft {
	return Draft{
		Name:     u.Name,
		Email:    u.Email,
		Phone:    u.Phone,
		Username: u.Username,
		Website:  u.Website,
	}
}

// Apply overlays the draft fields on u and returns the result.
func (d Draft) Apply(u User) User {
	u.Name = d.Name
	u.Email = d.Email
	u.Phone = d.Phone
	u.Username = d.Username
	u.Website = d.Website
	return u
}

// UpdateUserRequest is the PUT body: the draft merged with the target id.
type UpdateUserRequest struct {
	ID int `json:"id"`
	Draft
}

// Form field names, shared by the form model and the HTML templates.
const (
	FieldName     = "name"
	FieldEmail    = "email"
	FieldPhone    = "phone"
	FieldUsername = "username"
	FieldWebsite  = "website"
)

// DraftFields lists the form fields in display order.
var DraftFields = []string{FieldName, FieldEmail, FieldPhone, FieldUsername, FieldWebsite}

// FormMode tells the user form whether it creates a new user or edits an
// existing one. The zero value is create mode.
type FormMode struct {
	user *User
}

// CreateMode returns the mode for an empty create form.
func CreateMode() FormMode {
	return FormMode{}
}

// EditMode returns the mode for editing u.
func EditMode(u User) FormMode {
	return FormMode{user: &u}
}

// Editing reports whether the mode edits an existing user, and returns it.
func (m FormMode) Editing() (User, bool) {
	if m.user == nil {
		return User{}, false
	}
	return *m.user, true
}

package model

// Customer is a row of the `customer` table. Date columns are formatted by the
// repository (dob as YYYY-MM-DD, creation_date as YYYY-MM-DD HH:MM:SS) so the
// struct carries them wire-ready.
type Customer struct {
	ID           int64  `db:"id" json:"id"`
	FirstName    string `db:"first_name" json:"first_name"`
	LastName     string `db:"last_name" json:"last_name"`
	Age          int    `db:"age" json:"age"`
	DOB          string `db:"dob" json:"dob"`
	Email        string `db:"email" json:"email"`
	CreationDate string `db:"creation_date" json:"creation_date"`
}

// NewCustomer holds validated fields for an insert.
type NewCustomer struct {
	FirstName string
	LastName  string
	Age       int
	DOB       string
	Email     string
}

// CustomerPatch holds validated fields for a partial update; nil means "leave
// the stored value alone".
type CustomerPatch struct {
	FirstName *string
	LastName  *string
	Age       *int
	DOB       *string
	Email     *string
}

// Empty reports whether the patch changes nothing.
func (p CustomerPatch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Age == nil && p.DOB == nil && p.Email == nil
}

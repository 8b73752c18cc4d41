package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateEmployeeRequestValidate(t *testing.T) {
	valid := CreateEmployeeRequest{
		FirstName:      "Maria",
		LastName:       "Santos",
		PassportNumber: "P1234567A",
	}
	assert.Empty(t, valid.Validate())

	missing := CreateEmployeeRequest{}
	errs := missing.Validate()
	assert.Contains(t, errs, "firstName")
	assert.Contains(t, errs, "lastName")
	assert.Contains(t, errs, "passportNumber")

	badStatus := valid
	badStatus.Status = "retired"
	assert.Contains(t, badStatus.Validate(), "status")
}

func TestCreateVisaRequestValidate(t *testing.T) {
	valid := CreateVisaRequest{
		EmployeeID: "emp-1",
		VisaType:   "Single Permit",
		IssueDate:  "2025-01-01",
		ExpiryDate: "2026-01-01",
	}
	assert.Empty(t, valid.Validate())

	missing := CreateVisaRequest{}
	errs := missing.Validate()
	assert.Contains(t, errs, "employeeId")
	assert.Contains(t, errs, "visaType")
	assert.Contains(t, errs, "issueDate")
	assert.Contains(t, errs, "expiryDate")

	badStatus := valid
	badStatus.Status = "revoked"
	assert.Contains(t, badStatus.Validate(), "status")
}

func TestRegisterRequestValidate(t *testing.T) {
	valid := RegisterRequest{
		Email:       "hr@maltatech.mt",
		Password:    "secret1",
		FullName:    "Josephine Borg",
		CompanyName: "Malta Tech Solutions Ltd",
	}
	assert.Empty(t, valid.Validate())

	short := valid
	short.Password = "abc"
	assert.Contains(t, short.Validate(), "password")
}

func TestUpdateCompanyRequestValidate(t *testing.T) {
	empty := ""
	req := UpdateCompanyRequest{Name: &empty}
	assert.Contains(t, req.Validate(), "name")

	name := "Renamed Ltd"
	ok := UpdateCompanyRequest{Name: &name}
	assert.Empty(t, ok.Validate())
}

func TestCreateAlertRequestValidate(t *testing.T) {
	valid := CreateAlertRequest{Title: "Permit expires soon"}
	assert.Empty(t, valid.Validate())

	noTitle := CreateAlertRequest{}
	assert.Contains(t, noTitle.Validate(), "title")

	badType := CreateAlertRequest{Title: "x", AlertType: "weather"}
	assert.Contains(t, badType.Validate(), "alertType")
}

func TestCanTransitionAlertStatus(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{"open", "acknowledged", true},
		{"open", "resolved", true},
		{"acknowledged", "resolved", true},
		{"open", "open", true},
		{"resolved", "resolved", true},
		{"acknowledged", "open", false},
		{"resolved", "open", false},
		{"resolved", "acknowledged", false},
		{"open", "bogus", false},
		{"bogus", "open", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CanTransitionAlertStatus(c.from, c.to),
			"%s -> %s", c.from, c.to)
	}
}

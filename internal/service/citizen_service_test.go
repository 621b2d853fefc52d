package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civic-desk/complaint-service/internal/domain"
	"github.com/civic-desk/complaint-service/internal/events"
	apperrors "github.com/civic-desk/complaint-service/pkg/util/errorutil"
)

func TestRegisterCreatesPlainCitizen(t *testing.T) {
	f := newFixture(t)

	account, token, err := f.citizen.Register(context.Background(), RegisterInput{
		Username: " asha ", Name: "Asha Rao", Contact: "98450", Address: "12 Lake Rd", Password: "pw-123456",
	})
	require.NoError(t, err)
	assert.Equal(t, "asha", account.Username)
	assert.False(t, account.IsStaff)
	assert.True(t, account.IsActive)
	assert.Equal(t, domain.DepartmentNone, account.Department)
	assert.NotEqual(t, "pw-123456", account.PasswordHash)

	claims, err := f.tokens.Parse(token.Value, domain.ScopeCitizen)
	require.NoError(t, err)
	assert.Equal(t, account.ID, claims.UserID)

	_, _, err = f.citizen.Register(context.Background(), RegisterInput{Username: "asha", Name: "Other", Password: "x"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, _, err = f.citizen.Register(context.Background(), RegisterInput{Username: "bare"})
	require.Error(t, err)
	assert.Equal(t, []string{"name", "password"}, apperrors.ToDomainError(err).Details["fields"])
}

func TestCitizenLogin(t *testing.T) {
	f := newFixture(t)
	f.account(t, "asha", false, domain.DepartmentNone)

	account, token, err := f.citizen.Login(context.Background(), "asha", testPassword)
	require.NoError(t, err)
	assert.Equal(t, "asha", account.Username)
	_, err = f.tokens.Parse(token.Value, domain.ScopeAuthorityAccess)
	assert.Error(t, err)

	_, _, err = f.citizen.Login(context.Background(), "asha", "wrong")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidCredentials))
	_, _, err = f.citizen.Login(context.Background(), "nobody", testPassword)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidCredentials))
}

func TestSubmitComplaint(t *testing.T) {
	f := newFixture(t)
	owner := f.account(t, "asha", false, domain.DepartmentNone)

	complaint, err := f.citizen.SubmitComplaint(context.Background(), owner, ComplaintInput{
		Category: "road", Title: " Pothole ", Description: "Deep pothole", Location: "Ring Road",
	})
	require.NoError(t, err)
	assert.Equal(t, "Pothole", complaint.Title)
	assert.Equal(t, domain.ComplaintPriorityMedium, complaint.Priority)
	assert.Equal(t, domain.ComplaintStatusPending, complaint.Status)
	assert.Equal(t, domain.DepartmentNone, complaint.AssignedDepartment)
	assert.Equal(t, "asha", complaint.OwnerUsername)

	require.Len(t, f.published, 1)
	assert.Equal(t, events.EventComplaintSubmitted, f.published[0].Type)
	assert.Equal(t, complaint.ID, f.published[0].ComplaintID)

	_, err = f.citizen.SubmitComplaint(context.Background(), owner, ComplaintInput{Category: "noise", Priority: "asap"})
	require.Error(t, err)
	details := apperrors.ToDomainError(err).Details
	assert.Contains(t, details, "category")
	assert.Contains(t, details, "priority")
	assert.Contains(t, details, "title")
}

func TestMyComplaintsOnlyListsOwn(t *testing.T) {
	f := newFixture(t)
	asha := f.account(t, "asha", false, domain.DepartmentNone)
	vik := f.account(t, "vik", false, domain.DepartmentNone)
	first := f.complaint(t, asha, domain.DepartmentNone, domain.ComplaintStatusPending, domain.ComplaintPriorityLow, "first")
	f.complaint(t, vik, domain.DepartmentNone, domain.ComplaintStatusPending, domain.ComplaintPriorityLow, "other")
	second := f.complaint(t, asha, domain.DepartmentPower, domain.ComplaintStatusResolved, domain.ComplaintPriorityLow, "second")

	mine, err := f.citizen.MyComplaints(context.Background(), asha)
	require.NoError(t, err)
	assert.Equal(t, []int64{second.ID, first.ID}, ids(mine))
}

package services

import (
	"context"
	"testing"

	"activation/internal/domain"
	apperrors "activation/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput(phone string) *CreateLeadInput {
	return &CreateLeadInput{
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     strPtr("grace@example.com"),
		Phone:     phone,
		AgePassed: true,
		Terms:     true,
		Survey:    true,
		Play:      2,
	}
}

func TestCreateLeadNormalizesPhone(t *testing.T) {
	for _, phone := range []string{"(555) 123-4567", "+15551234567", "555-123-4567"} {
		t.Run(phone, func(t *testing.T) {
			svc := NewLeadService(openTestDB(t), 3)

			lead, err := svc.CreateLead(context.Background(), validInput(phone))
			require.NoError(t, err)
			assert.Equal(t, "+15551234567", lead.Phone)
			assert.Len(t, lead.ID, 26)
		})
	}
}

func TestCreateLeadValidationOrder(t *testing.T) {
	svc := NewLeadService(openTestDB(t), 3)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*CreateLeadInput)
		message string
	}{
		{"first name wins", func(in *CreateLeadInput) { in.FirstName = " "; in.LastName = ""; in.Terms = false }, "First name is required"},
		{"last name", func(in *CreateLeadInput) { in.LastName = ""; in.Email = nil }, "Last name is required"},
		{"email when age passed", func(in *CreateLeadInput) { in.Email = nil; in.Terms = false }, "Email is required"},
		{"terms", func(in *CreateLeadInput) { in.Terms = false }, "You must accept the terms and conditions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput("5551234567")
			tt.mutate(in)

			_, err := svc.CreateLead(ctx, in)
			require.Error(t, err)
			assert.True(t, apperrors.IsBadRequest(err))
			assert.Equal(t, tt.message, messageOf(err))
		})
	}
}

func TestCreateLeadEmailOnlyRequiredAfterAgeGate(t *testing.T) {
	svc := NewLeadService(openTestDB(t), 3)
	ctx := context.Background()

	in := validInput("5551234567")
	in.Email = nil
	in.AgePassed = true
	_, err := svc.CreateLead(ctx, in)
	require.Error(t, err)
	assert.Equal(t, "Email is required", messageOf(err))

	in.AgePassed = false
	in.Email = strPtr("ignored@example.com")
	lead, err := svc.CreateLead(ctx, in)
	require.NoError(t, err)
	assert.Nil(t, lead.Email)
}

func TestCreateLeadRejectsInvalidPhoneAndPlay(t *testing.T) {
	svc := NewLeadService(openTestDB(t), 3)

	_, err := svc.CreateLead(context.Background(), validInput("123"))
	assert.True(t, apperrors.IsBadRequest(err))

	in := validInput("5551234567")
	in.Play = 3
	_, err = svc.CreateLead(context.Background(), in)
	assert.True(t, apperrors.IsBadRequest(err))
}

func TestCreateLeadMergesPhoneOnlyRecord(t *testing.T) {
	db := openTestDB(t)
	svc := NewLeadService(db, 3)
	ctx := context.Background()

	first := validInput("555-123-4567")
	first.AgePassed = false
	first.Email = nil
	first.Play = 0
	original, err := svc.CreateLead(ctx, first)
	require.NoError(t, err)

	second := validInput("(555) 123-4567")
	second.FirstName = "Grace B."
	second.Promotions = true
	merged, err := svc.CreateLead(ctx, second)
	require.NoError(t, err)

	assert.Equal(t, original.ID, merged.ID)
	require.NotNil(t, merged.Email)
	assert.Equal(t, "grace@example.com", *merged.Email)

	var leads []domain.Lead
	require.NoError(t, db.Find(&leads).Error)
	require.Len(t, leads, 1)
	assert.Equal(t, "Grace B.", leads[0].FirstName)
	assert.True(t, leads[0].Promotions)
	assert.True(t, leads[0].AgePassed)
	assert.Equal(t, 2, leads[0].Play)
}

func TestCreateLeadConflictWhenEmailOnFile(t *testing.T) {
	db := openTestDB(t)
	svc := NewLeadService(db, 3)
	ctx := context.Background()

	_, err := svc.CreateLead(ctx, validInput("5551234567"))
	require.NoError(t, err)

	again := validInput("5551234567")
	again.FirstName = "Someone"
	again.Email = strPtr("other@example.com")
	_, err = svc.CreateLead(ctx, again)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, "You're already registered, thank you!", messageOf(err))

	var stored domain.Lead
	require.NoError(t, db.First(&stored).Error)
	assert.Equal(t, "Grace", stored.FirstName)
	assert.Equal(t, "grace@example.com", *stored.Email)
}

func TestCreateLeadConflictWithoutEmailToMerge(t *testing.T) {
	svc := NewLeadService(openTestDB(t), 3)
	ctx := context.Background()

	in := validInput("5551234567")
	in.AgePassed = false
	in.Email = nil
	_, err := svc.CreateLead(ctx, in)
	require.NoError(t, err)

	_, err = svc.CreateLead(ctx, in)
	assert.True(t, apperrors.IsConflict(err))
}

func TestCreateLeadEmailConflict(t *testing.T) {
	svc := NewLeadService(openTestDB(t), 3)
	ctx := context.Background()

	_, err := svc.CreateLead(ctx, validInput("5551234567"))
	require.NoError(t, err)

	_, err = svc.CreateLead(ctx, validInput("5559876543"))
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, "This email address is already registered.", messageOf(err))
}

func TestCreateLeadMissingSchemaIsInternal(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Migrator().DropTable(&domain.Lead{}, &domain.LeadFile{}))
	svc := NewLeadService(db, 3)

	_, err := svc.CreateLead(context.Background(), validInput("5551234567"))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInternalError, apperrors.CodeOf(err))
	assert.Equal(t, "Database not initialized. Please run migrations.", messageOf(err))
}

func TestLookupByPhoneIsStable(t *testing.T) {
	svc := NewLeadService(openTestDB(t), 3)
	ctx := context.Background()

	created, err := svc.CreateLead(ctx, validInput("5551234567"))
	require.NoError(t, err)

	first, err := svc.LookupByPhone(ctx, "+1 (555) 123-4567")
	require.NoError(t, err)
	second, err := svc.LookupByPhone(ctx, "555.123.4567")
	require.NoError(t, err)

	assert.Equal(t, created.ID, first.ID)
	assert.Equal(t, first, second)

	_, err = svc.LookupByPhone(ctx, "5559999999")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.LookupByPhone(ctx, "12")
	assert.True(t, apperrors.IsBadRequest(err))
}

func TestUpdatePlaySelection(t *testing.T) {
	db := openTestDB(t)
	svc := NewLeadService(db, 3)
	ctx := context.Background()

	lead := seedLead(t, db, "+15551234567", nil)

	updated, err := svc.UpdatePlaySelection(ctx, lead.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Play)

	var stored domain.Lead
	require.NoError(t, db.First(&stored, "id = ?", lead.ID).Error)
	assert.Equal(t, 2, stored.Play)

	_, err = svc.UpdatePlaySelection(ctx, "01J0000000000000000000000X", 1)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.UpdatePlaySelection(ctx, lead.ID, -1)
	assert.True(t, apperrors.IsBadRequest(err))
}

func TestListLeadsAndFiles(t *testing.T) {
	db := openTestDB(t)
	svc := NewLeadService(db, 3)
	ctx := context.Background()

	withFile := seedLead(t, db, "+15551234567", nil)
	seedLead(t, db, "+15559876543", nil)
	file := seedFile(t, db, withFile.ID, strPtr("videos/a.mp4"))

	_, err := svc.ListLeads(ctx, nil)
	assert.True(t, apperrors.IsUnauthorized(err))

	leads, err := svc.ListLeads(ctx, userCaller())
	require.NoError(t, err)
	require.Len(t, leads, 2)
	for _, lead := range leads {
		require.NotNil(t, lead.HasParticipated)
		assert.Equal(t, lead.ID == withFile.ID, *lead.HasParticipated)
	}

	files, err := svc.ListFiles(ctx, userCaller())
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.NotNil(t, files[0].Lead)
	assert.Equal(t, withFile.Phone, files[0].Lead.Phone)

	require.NoError(t, svc.DeleteFile(ctx, userCaller(), file.ID))
	err = svc.DeleteFile(ctx, userCaller(), file.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

package dto

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationRequestRowKey(t *testing.T) {
	assert.Equal(t, "student:4", NotificationRequest{Key: "student:4", StudentID: "9"}.RowKey())
	assert.Equal(t, "9", NotificationRequest{StudentID: "9"}.RowKey())
}

func TestMarkAttendanceRequestValidation(t *testing.T) {
	validate := validator.New()

	require.NoError(t, validate.Struct(MarkAttendanceRequest{StudentID: "9", Date: "2026-03-04", Status: "ABSENT"}))
	assert.Error(t, validate.Struct(MarkAttendanceRequest{Date: "2026-03-04", Status: "ABSENT"}))
	assert.Error(t, validate.Struct(MarkAttendanceRequest{Key: "student:9", Date: "04/03/2026", Status: "ABSENT"}))
	assert.Error(t, validate.Struct(MarkAttendanceRequest{Key: "student:9", Date: "2026-03-04", Status: "NOT_MARKED"}))
}
